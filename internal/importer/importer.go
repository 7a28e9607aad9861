package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CollectionWriter interface {
	Upsert(ctx context.Context, c domain.Collection) (*domain.Collection, error)
	SetProducts(ctx context.Context, collectionID string, productIDs []string) error
}

// Kind is the type of rows a CSV file holds, decided from its header.
type Kind string

const (
	KindProducts    Kind = "products"
	KindCollections Kind = "collections"
)

const (
	colHandle     = "Handle"
	colTitle      = "Title"
	colBody       = "Body (HTML)"
	colVendor     = "Vendor"
	colTags       = "Tags"
	colCollection = "Collection"
	colSKU        = "Variant SKU"
	colPrice      = "Variant Price"
	colInventory  = "Variant Inventory Qty"
	colImage      = "Image Src"
)

// DetectKind reads the header row and reports which importer applies.
func DetectKind(r io.Reader) (Kind, error) {
	headers, err := csv.NewReader(r).Read()
	if err != nil {
		return "", fmt.Errorf("read headers: %w", err)
	}
	return kindOf(headerIndex(headers))
}

func kindOf(index map[string]int) (Kind, error) {
	if _, ok := index[colHandle]; !ok {
		return "", errors.New("missing Handle column")
	}
	if _, ok := index[colPrice]; ok {
		return KindProducts, nil
	}
	if _, ok := index[colTitle]; ok {
		return KindCollections, nil
	}
	return "", errors.New("unrecognised CSV header")
}

// CSVImporter reads storefront product or collection exports and upserts them
// into one shop. Product rows that share a handle continue the product above
// them with extra images.
type CSVImporter struct {
	reader      *csv.Reader
	products    ProductWriter
	collections CollectionWriter
	shopID      string
	currency    string
	logger      *zap.Logger
}

func NewCSVImporter(r io.Reader, products ProductWriter, collections CollectionWriter, shopID, currency string, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:      csvr,
		products:    products,
		collections: collections,
		shopID:      shopID,
		currency:    strings.ToUpper(currency),
		logger:      logging.OrNop(logger),
	}
}

type productRow struct {
	Handle      string
	Title       string
	Body        string
	Vendor      string
	SKU         string
	Cents       int64
	Inventory   *int
	Tags        []string
	Collections []string
	Images      []string
}

// Run imports every row and reports how many products or collections were
// written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	kind, err := kindOf(index)
	if err != nil {
		return 0, err
	}
	if kind == KindCollections {
		return i.runCollections(ctx, index)
	}
	return i.runProducts(ctx, index)
}

func (i *CSVImporter) runProducts(ctx context.Context, index map[string]int) (int, error) {
	if i.products == nil {
		return 0, errors.New("product writer required")
	}
	var (
		current  *productRow
		imported int
		members  = newMembership()
	)
	flush := func() error {
		if current == nil {
			return nil
		}
		saved, err := i.saveProduct(ctx, current)
		if err != nil {
			return err
		}
		for _, handle := range current.Collections {
			members.add(handle, saved.ID)
		}
		imported++
		return nil
	}

	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		row, err := parseProductRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		if row == nil {
			continue
		}

		// Rows repeating the handle with no title only add images.
		if current != nil && row.Handle == current.Handle && row.Title == "" {
			current.Images = append(current.Images, row.Images...)
			continue
		}
		if err := flush(); err != nil {
			return imported, err
		}
		current = row
	}
	if err := flush(); err != nil {
		return imported, err
	}

	if err := i.saveMembership(ctx, members); err != nil {
		return imported, err
	}
	i.logger.Info("products imported", zap.String("shop_id", i.shopID), zap.Int("count", imported), zap.Int("collections", len(members.order)))
	return imported, nil
}

func (i *CSVImporter) saveProduct(ctx context.Context, row *productRow) (*domain.Product, error) {
	if row.Handle == "" || row.Title == "" || row.Cents <= 0 || i.currency == "" {
		return nil, fmt.Errorf("invalid product row (missing required fields) for handle %q", row.Handle)
	}
	p := domain.Product{
		ShopID:            i.shopID,
		Handle:            row.Handle,
		SKU:               row.SKU,
		Title:             row.Title,
		Description:       row.Body,
		Vendor:            row.Vendor,
		PriceCents:        row.Cents,
		Currency:          i.currency,
		InventoryQuantity: row.Inventory,
		Images:            row.Images,
		Tags:              row.Tags,
	}
	saved, err := i.products.Upsert(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("upsert product %q: %w", row.Handle, err)
	}
	return saved, nil
}

// membership collects product ids per collection handle in file order.
type membership struct {
	order    []string
	products map[string][]string
}

func newMembership() *membership {
	return &membership{products: map[string][]string{}}
}

func (m *membership) add(handle, productID string) {
	if _, ok := m.products[handle]; !ok {
		m.order = append(m.order, handle)
	}
	m.products[handle] = append(m.products[handle], productID)
}

// saveMembership replaces the product list of every collection named in the
// file. Collections missing from the shop are created with a title derived
// from the handle.
func (i *CSVImporter) saveMembership(ctx context.Context, m *membership) error {
	if len(m.order) == 0 {
		return nil
	}
	if i.collections == nil {
		return errors.New("collection writer required for Collection column")
	}
	for _, handle := range m.order {
		col, err := i.collections.Upsert(ctx, domain.Collection{ShopID: i.shopID, Handle: handle, Title: titleFromHandle(handle)})
		if err != nil {
			return fmt.Errorf("upsert collection %q: %w", handle, err)
		}
		if err := i.collections.SetProducts(ctx, col.ID, m.products[handle]); err != nil {
			return fmt.Errorf("set products of collection %q: %w", handle, err)
		}
	}
	return nil
}

func (i *CSVImporter) runCollections(ctx context.Context, index map[string]int) (int, error) {
	if i.collections == nil {
		return 0, errors.New("collection writer required")
	}
	imported := 0
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}
		handle := slug(pick(record, index, colHandle))
		if handle == "" {
			continue
		}
		title := pick(record, index, colTitle)
		if title == "" {
			title = titleFromHandle(handle)
		}
		c := domain.Collection{
			ShopID:      i.shopID,
			Handle:      handle,
			Title:       title,
			Description: pick(record, index, colBody),
			Image:       pick(record, index, colImage),
		}
		if _, err := i.collections.Upsert(ctx, c); err != nil {
			return imported, fmt.Errorf("upsert collection %q: %w", handle, err)
		}
		imported++
	}
	i.logger.Info("collections imported", zap.String("shop_id", i.shopID), zap.Int("count", imported))
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))] = i
	}
	return idx
}

func parseProductRow(record []string, index map[string]int) (*productRow, error) {
	handle := slug(pick(record, index, colHandle))
	image := pick(record, index, colImage)
	if handle == "" {
		return nil, nil
	}

	row := &productRow{
		Handle:      handle,
		Title:       pick(record, index, colTitle),
		Body:        pick(record, index, colBody),
		Vendor:      pick(record, index, colVendor),
		SKU:         pick(record, index, colSKU),
		Tags:        splitList(pick(record, index, colTags)),
		Collections: slugs(splitList(pick(record, index, colCollection))),
	}
	if image != "" {
		row.Images = []string{image}
	}

	if raw := pick(record, index, colPrice); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q for handle %q", raw, handle)
		}
		row.Cents = price.Shift(2).Round(0).IntPart()
	}
	if raw := pick(record, index, colInventory); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil || qty < 0 {
			return nil, fmt.Errorf("invalid inventory %q for handle %q", raw, handle)
		}
		row.Inventory = &qty
	}
	return row, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func slugs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if h := slug(s); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// slug lower-cases and hyphenates a title or handle.
func slug(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}), "-")
}

func titleFromHandle(handle string) string {
	words := strings.Split(handle, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
