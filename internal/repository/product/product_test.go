package product

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/repository/repotest"
)

func TestPostgres_ListAndGet(t *testing.T) {
	ctx := context.Background()
	pool := repotest.Pool(ctx, t)
	shopID := repotest.Shop(ctx, t, pool, "demo")
	pid := repotest.Product(ctx, t, pool, shopID, "desk-lamp", "Desk Lamp", 2500, 3)

	repo := NewPostgres(pool, nil)

	list, err := repo.List(ctx, shopID, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 product, got %d", len(list))
	}

	got, err := repo.GetByHandle(ctx, shopID, "desk-lamp")
	if err != nil {
		t.Fatalf("GetByHandle: %v", err)
	}
	if got.ID != pid || got.InventoryQuantity == nil || *got.InventoryQuantity != 3 {
		t.Fatalf("unexpected product %+v", got)
	}

	byID, err := repo.GetByID(ctx, shopID, pid)
	if err != nil || byID.Handle != "desk-lamp" {
		t.Fatalf("GetByID: %+v %v", byID, err)
	}
	if _, err := repo.GetByID(ctx, shopID, "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_Search(t *testing.T) {
	ctx := context.Background()
	pool := repotest.Pool(ctx, t)
	shopID := repotest.Shop(ctx, t, pool, "demo")
	repotest.Product(ctx, t, pool, shopID, "desk-lamp", "Desk Lamp", 2500, -1)
	repotest.Product(ctx, t, pool, shopID, "lamp-shade", "Lamp Shade", 900, -1)
	repotest.Product(ctx, t, pool, shopID, "chair", "Chair", 9000, -1)

	repo := NewPostgres(pool, nil)
	got, total, err := repo.Search(ctx, shopID, "lamp", 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("expected 2 matches, got total=%d len=%d", total, len(got))
	}
	if got[0].Handle != "lamp-shade" {
		t.Fatalf("expected prefix match first, got %s", got[0].Handle)
	}

	none, total, err := repo.Search(ctx, shopID, "100%", 10, 0)
	if err != nil || total != 0 || len(none) != 0 {
		t.Fatalf("expected no matches for wildcard input, got %d %v", total, err)
	}
}

func TestPostgres_Upsert(t *testing.T) {
	ctx := context.Background()
	pool := repotest.Pool(ctx, t)
	shopID := repotest.Shop(ctx, t, pool, "demo")
	repo := NewPostgres(pool, nil)

	stock := 5
	p, err := repo.Upsert(ctx, domain.Product{
		ShopID:            shopID,
		Handle:            "p1",
		SKU:               "SKU1",
		Title:             "Prod 1",
		PriceCents:        100,
		Currency:          "USD",
		InventoryQuantity: &stock,
		Images:            []string{"https://img.test/p1.png"},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	updated, err := repo.Upsert(ctx, domain.Product{
		ShopID:     shopID,
		Handle:     "p1",
		SKU:        "SKU1",
		Title:      "Prod 1 Updated",
		PriceCents: 150,
		Currency:   "USD",
	})
	if err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	if updated.ID != p.ID {
		t.Fatalf("expected same id after update")
	}

	got, err := repo.GetByHandle(ctx, shopID, "p1")
	if err != nil {
		t.Fatalf("GetByHandle: %v", err)
	}
	if got.Title != "Prod 1 Updated" || got.PriceCents != 150 || got.InventoryQuantity != nil || len(got.Images) != 0 {
		t.Fatalf("unexpected product after update %+v", got)
	}
}
