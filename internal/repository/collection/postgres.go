package collection

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/repository/pgutil"
	"storefront/internal/repository/product"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) List(ctx context.Context, shopID string) ([]domain.Collection, error) {
	const q = `
SELECT id::text, shop_id::text, handle, title, COALESCE(description, ''), image, created_at
FROM collections
WHERE shop_id = $1
ORDER BY title ASC
`
	rows, err := r.pool.Query(ctx, q, shopID)
	if err != nil {
		r.logger.Error("list collections", zap.String("shop_id", shopID), zap.Error(err))
		return nil, err
	}
	return collect(rows)
}

func (r *postgresRepo) GetByHandle(ctx context.Context, shopID, handle string) (*domain.Collection, error) {
	const q = `
SELECT id::text, shop_id::text, handle, title, COALESCE(description, ''), image, created_at
FROM collections
WHERE shop_id = $1 AND handle = $2
`
	var c domain.Collection
	err := r.pool.QueryRow(ctx, q, shopID, handle).Scan(&c.ID, &c.ShopID, &c.Handle, &c.Title, &c.Description, &c.Image, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Products returns the collection's products in position order.
func (r *postgresRepo) Products(ctx context.Context, collectionID string, limit, offset int) ([]domain.Product, error) {
	q := `
SELECT ` + product.Columns("p") + `
FROM collection_products cp
JOIN products p ON p.id = cp.product_id
WHERE cp.collection_id = $1
ORDER BY cp.position ASC, p.title ASC
LIMIT $2 OFFSET $3
`
	rows, err := r.pool.Query(ctx, q, collectionID, limit, offset)
	if err != nil {
		r.logger.Error("collection products", zap.String("collection_id", collectionID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()
	out := []domain.Product{}
	for rows.Next() {
		p, err := product.Scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Search(ctx context.Context, shopID, term string, limit int) ([]domain.Collection, error) {
	const q = `
SELECT id::text, shop_id::text, handle, title, COALESCE(description, ''), image, created_at
FROM collections
WHERE shop_id = $1 AND (title ILIKE $2 OR handle ILIKE $2)
ORDER BY title ASC
LIMIT $3
`
	rows, err := r.pool.Query(ctx, q, shopID, pgutil.Contains(term), limit)
	if err != nil {
		r.logger.Error("collection search", zap.String("shop_id", shopID), zap.Error(err))
		return nil, err
	}
	return collect(rows)
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Collection) (*domain.Collection, error) {
	const q = `
INSERT INTO collections (shop_id, handle, title, description, image)
VALUES ($1, $2, $3, NULLIF($4, ''), $5)
ON CONFLICT (shop_id, handle) DO UPDATE
SET title = EXCLUDED.title,
    description = COALESCE(EXCLUDED.description, collections.description),
    image = COALESCE(NULLIF(EXCLUDED.image, ''), collections.image)
RETURNING id::text, created_at, COALESCE(description, ''), image
`
	out := c
	err := r.pool.QueryRow(ctx, q, c.ShopID, c.Handle, c.Title, c.Description, c.Image).
		Scan(&out.ID, &out.CreatedAt, &out.Description, &out.Image)
	if err != nil {
		r.logger.Error("upsert collection", zap.String("handle", c.Handle), zap.Error(err))
		return nil, err
	}
	return &out, nil
}

// SetProducts replaces the membership; slice order becomes position order.
func (r *postgresRepo) SetProducts(ctx context.Context, collectionID string, productIDs []string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM collection_products WHERE collection_id = $1`, collectionID); err != nil {
		return err
	}
	for i, id := range productIDs {
		if _, err := tx.Exec(ctx, `
INSERT INTO collection_products (collection_id, product_id, position)
VALUES ($1, $2, $3)
ON CONFLICT (collection_id, product_id) DO NOTHING
`, collectionID, id, i); err != nil {
			if pgutil.IsForeignKeyViolation(err) {
				return domain.ErrNotFound
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

func collect(rows pgx.Rows) ([]domain.Collection, error) {
	defer rows.Close()
	result := []domain.Collection{}
	for rows.Next() {
		var c domain.Collection
		if err := rows.Scan(&c.ID, &c.ShopID, &c.Handle, &c.Title, &c.Description, &c.Image, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
