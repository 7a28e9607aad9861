package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"storefront/internal/domain"
)

type stubProductRepo struct {
	items []domain.Product
}

func (s *stubProductRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	p.ID = fmt.Sprintf("prod-%d", len(s.items)+1)
	s.items = append(s.items, p)
	return &p, nil
}

type stubCollectionRepo struct {
	items   []domain.Collection
	members map[string][]string
}

func (s *stubCollectionRepo) Upsert(_ context.Context, c domain.Collection) (*domain.Collection, error) {
	c.ID = "col-" + c.Handle
	s.items = append(s.items, c)
	return &c, nil
}

func (s *stubCollectionRepo) SetProducts(_ context.Context, collectionID string, productIDs []string) error {
	if s.members == nil {
		s.members = map[string][]string{}
	}
	s.members[collectionID] = productIDs
	return nil
}

func TestCSVImporter_RunProducts(t *testing.T) {
	csvData := `Handle,Title,Body (HTML),Vendor,Tags,Collection,Variant SKU,Variant Price,Variant Inventory Qty,Image Src
desk-lamp,Desk Lamp,Warm light,Demo Home,"lighting, desk",Lighting,SKU-LAMP,45.00,10,https://example.com/lamp-1.jpg
desk-lamp,,,,,,,,,https://example.com/lamp-2.jpg
demo-mug,Demo Mug,,Demo Home,,"Home, Lighting",SKU-MUG,12.99,,/img/mug.jpg
`
	products := &stubProductRepo{}
	collections := &stubCollectionRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), products, collections, "shop-123", "usd", nil)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 || len(products.items) != 2 {
		t.Fatalf("expected 2 products imported, got %d (%d saved)", count, len(products.items))
	}

	lamp := products.items[0]
	if lamp.Handle != "desk-lamp" || lamp.SKU != "SKU-LAMP" || lamp.PriceCents != 4500 || lamp.Currency != "USD" || lamp.ShopID != "shop-123" {
		t.Fatalf("unexpected product data: %+v", lamp)
	}
	if len(lamp.Images) != 2 {
		t.Fatalf("expected continuation row image, got %v", lamp.Images)
	}
	if lamp.InventoryQuantity == nil || *lamp.InventoryQuantity != 10 {
		t.Fatalf("expected tracked inventory 10, got %v", lamp.InventoryQuantity)
	}
	if len(lamp.Tags) != 2 || lamp.Tags[1] != "desk" {
		t.Fatalf("unexpected tags %v", lamp.Tags)
	}

	mug := products.items[1]
	if mug.PriceCents != 1299 || mug.InventoryQuantity != nil {
		t.Fatalf("unexpected mug %+v", mug)
	}

	if len(collections.items) != 2 || collections.items[0].Handle != "lighting" || collections.items[1].Title != "Home" {
		t.Fatalf("unexpected collections %+v", collections.items)
	}
	if got := collections.members["col-lighting"]; len(got) != 2 || got[0] != "prod-1" || got[1] != "prod-2" {
		t.Fatalf("unexpected lighting membership %v", got)
	}
	if got := collections.members["col-home"]; len(got) != 1 || got[0] != "prod-2" {
		t.Fatalf("unexpected home membership %v", got)
	}
}

func TestCSVImporter_RunProductsRejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"missing price": "Handle,Title,Variant Price\nlamp,Lamp,\n",
		"bad price":     "Handle,Title,Variant Price\nlamp,Lamp,abc\n",
		"bad inventory": "Handle,Title,Variant Price,Variant Inventory Qty\nlamp,Lamp,1.00,-3\n",
	}
	for name, data := range cases {
		imp := NewCSVImporter(strings.NewReader(data), &stubProductRepo{}, &stubCollectionRepo{}, "shop-123", "USD", nil)
		if _, err := imp.Run(context.Background()); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestCSVImporter_RunCollectionsFile(t *testing.T) {
	csvData := `Handle,Title,Body (HTML),Image Src
Indoor Pots,Indoor Pots,Desc indoor,/img/pots.jpg
succulents,,,
,Orphan,,
`
	collections := &stubCollectionRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), nil, collections, "shop-123", "USD", nil)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 collections imported, got %d", count)
	}
	first := collections.items[0]
	if first.Handle != "indoor-pots" || first.Description != "Desc indoor" || first.Image != "/img/pots.jpg" {
		t.Fatalf("unexpected first collection %+v", first)
	}
	if collections.items[1].Title != "Succulents" {
		t.Fatalf("expected title from handle, got %+v", collections.items[1])
	}
}

func TestDetectKind(t *testing.T) {
	productCSV := "Handle,Title,Variant SKU,Variant Price\nlamp,Lamp,SKU-1,1.00"
	collectionCSV := "Handle,Title,Body (HTML)\nlighting,Lighting,"

	kind, err := DetectKind(strings.NewReader(productCSV))
	if err != nil {
		t.Fatalf("detect product kind: %v", err)
	}
	if kind != KindProducts {
		t.Fatalf("expected product kind, got %s", kind)
	}

	kind, err = DetectKind(strings.NewReader(collectionCSV))
	if err != nil {
		t.Fatalf("detect collection kind: %v", err)
	}
	if kind != KindCollections {
		t.Fatalf("expected collection kind, got %s", kind)
	}

	if _, err := DetectKind(strings.NewReader("sku,price\n")); err == nil {
		t.Fatalf("expected error for unknown header")
	}
}
