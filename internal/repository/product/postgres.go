package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/repository/pgutil"
)

const productColumns = `id::text, shop_id::text, handle, sku, title, COALESCE(description, ''), vendor,
       price_cents, currency, inventory_quantity, images, tags, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) List(ctx context.Context, shopID string, limit, offset int) ([]domain.Product, error) {
	q := `
SELECT ` + productColumns + `
FROM products
WHERE shop_id = $1
ORDER BY created_at DESC, handle ASC
LIMIT $2 OFFSET $3
`
	rows, err := r.pool.Query(ctx, q, shopID, limit, offset)
	if err != nil {
		r.logger.Error("list products", zap.String("shop_id", shopID), zap.Error(err))
		return nil, err
	}
	result, err := collect(rows)
	if err != nil {
		r.logger.Error("list products rows", zap.String("shop_id", shopID), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list products", zap.String("shop_id", shopID), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) Count(ctx context.Context, shopID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products WHERE shop_id = $1`, shopID).Scan(&n)
	return n, err
}

func (r *postgresRepo) GetByID(ctx context.Context, shopID, id string) (*domain.Product, error) {
	q := `
SELECT ` + productColumns + `
FROM products
WHERE shop_id = $1 AND id::text = $2
`
	return r.get(ctx, q, shopID, id)
}

func (r *postgresRepo) GetByHandle(ctx context.Context, shopID, handle string) (*domain.Product, error) {
	q := `
SELECT ` + productColumns + `
FROM products
WHERE shop_id = $1 AND handle = $2
`
	return r.get(ctx, q, shopID, handle)
}

// Search matches the term against title, handle, vendor and sku, titles
// starting with the term first.
func (r *postgresRepo) Search(ctx context.Context, shopID, term string, limit, offset int) ([]domain.Product, int, error) {
	pattern := pgutil.Contains(term)
	const where = `shop_id = $1 AND (title ILIKE $2 OR handle ILIKE $2 OR vendor ILIKE $2 OR sku ILIKE $2)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products WHERE `+where, shopID, pattern).Scan(&total); err != nil {
		r.logger.Error("count product search", zap.String("shop_id", shopID), zap.Error(err))
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Product{}, 0, nil
	}

	q := `
SELECT ` + productColumns + `
FROM products
WHERE ` + where + `
ORDER BY (lower(title) LIKE lower($3) || '%') DESC, title ASC
LIMIT $4 OFFSET $5
`
	rows, err := r.pool.Query(ctx, q, shopID, pattern, pgutil.EscapeLike(term), limit, offset)
	if err != nil {
		r.logger.Error("product search", zap.String("shop_id", shopID), zap.Error(err))
		return nil, 0, err
	}
	result, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	images, err := json.Marshal(nonNil(product.Images))
	if err != nil {
		return nil, err
	}
	tags, err := json.Marshal(nonNil(product.Tags))
	if err != nil {
		return nil, err
	}
	const q = `
INSERT INTO products (id, shop_id, handle, sku, title, description, vendor, price_cents, currency, inventory_quantity, images, tags)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, $12)
ON CONFLICT (shop_id, handle) DO UPDATE SET
    sku = EXCLUDED.sku,
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    vendor = EXCLUDED.vendor,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency,
    inventory_quantity = EXCLUDED.inventory_quantity,
    images = EXCLUDED.images,
    tags = EXCLUDED.tags
RETURNING id::text, created_at
`
	res := product
	err = r.pool.QueryRow(ctx, q,
		product.ID,
		product.ShopID,
		product.Handle,
		product.SKU,
		product.Title,
		product.Description,
		product.Vendor,
		product.PriceCents,
		product.Currency,
		product.InventoryQuantity,
		images,
		tags,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Error("upsert product", zap.String("handle", product.Handle), zap.String("shop_id", product.ShopID), zap.Error(err))
		return nil, err
	}
	if product.ID != "" && res.ID != product.ID {
		return nil, fmt.Errorf("product repo: id mismatch for handle=%s shop_id=%s existing_id=%s import_id=%s", product.Handle, product.ShopID, res.ID, product.ID)
	}
	r.logger.Debug("upserted product", zap.String("handle", res.Handle), zap.String("id", res.ID))
	return &res, nil
}

func (r *postgresRepo) get(ctx context.Context, q string, args ...any) (*domain.Product, error) {
	p, err := Scan(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get product", zap.Any("args", args), zap.Error(err))
		return nil, err
	}
	return p, nil
}

// Scan reads one row selected with the product column list. Collection
// queries share it.
func Scan(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var images, tags []byte
	if err := row.Scan(
		&p.ID,
		&p.ShopID,
		&p.Handle,
		&p.SKU,
		&p.Title,
		&p.Description,
		&p.Vendor,
		&p.PriceCents,
		&p.Currency,
		&p.InventoryQuantity,
		&images,
		&tags,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("decode images id=%s: %w", p.ID, err)
		}
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &p.Tags); err != nil {
			return nil, fmt.Errorf("decode tags id=%s: %w", p.ID, err)
		}
	}
	return &p, nil
}

// Columns is the select list Scan expects, qualified by alias.
func Columns(alias string) string {
	return fmt.Sprintf(`%[1]s.id::text, %[1]s.shop_id::text, %[1]s.handle, %[1]s.sku, %[1]s.title, COALESCE(%[1]s.description, ''), %[1]s.vendor,
       %[1]s.price_cents, %[1]s.currency, %[1]s.inventory_quantity, %[1]s.images, %[1]s.tags, %[1]s.created_at`, alias)
}

func collect(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()
	result := []domain.Product{}
	for rows.Next() {
		p, err := Scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
