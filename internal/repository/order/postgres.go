package order

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

// ListByCustomer returns orders newest first. An empty status matches all.
func (r *postgresRepo) ListByCustomer(ctx context.Context, shopID, customerID, status string, limit int) ([]domain.Order, error) {
	const q = `
SELECT id::text, shop_id::text, customer_id::text, number, status, total_cents, currency, created_at
FROM orders
WHERE shop_id = $1 AND customer_id::text = $2 AND ($3::text = '' OR status = $3::text)
ORDER BY created_at DESC, number DESC
LIMIT $4
`
	rows, err := r.pool.Query(ctx, q, shopID, customerID, status, limit)
	if err != nil {
		r.logger.Error("list orders", zap.String("customer_id", customerID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Get(ctx context.Context, shopID, customerID, id string) (*domain.Order, error) {
	const q = `
SELECT id::text, shop_id::text, customer_id::text, number, status, total_cents, currency, created_at
FROM orders
WHERE shop_id = $1 AND customer_id::text = $2 AND id::text = $3
`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, shopID, customerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
SELECT title, quantity, total_cents
FROM order_lines
WHERE order_id = $1
ORDER BY position ASC
`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line domain.OrderLine
		var cents int64
		if err := rows.Scan(&line.Title, &line.Quantity, &cents); err != nil {
			return nil, err
		}
		line.Total = domain.MoneyFromCents(cents, o.Total.CurrencyCode)
		o.Lines = append(o.Lines, line)
	}
	return o, rows.Err()
}

// Create stores an order with the next number for the shop.
func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if o.Status == "" {
		o.Status = domain.OrderStatusPaid
	}
	out := o
	err = tx.QueryRow(ctx, `
INSERT INTO orders (shop_id, customer_id, number, status, total_cents, currency)
VALUES ($1, $2, (SELECT COALESCE(MAX(number), 1000) + 1 FROM orders WHERE shop_id = $1), $3, $4, $5)
RETURNING id::text, number, created_at
`, o.ShopID, o.CustomerID, o.Status, o.Total.Cents(), o.Total.CurrencyCode).Scan(&out.ID, &out.Number, &out.CreatedAt)
	if err != nil {
		r.logger.Error("create order", zap.String("customer_id", o.CustomerID), zap.Error(err))
		return nil, err
	}
	for i, line := range o.Lines {
		if _, err := tx.Exec(ctx, `
INSERT INTO order_lines (order_id, title, quantity, total_cents, position)
VALUES ($1, $2, $3, $4, $5)
`, out.ID, line.Title, line.Quantity, line.Total.Cents(), i); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var cents int64
	var currency string
	if err := row.Scan(&o.ID, &o.ShopID, &o.CustomerID, &o.Number, &o.Status, &cents, &currency, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Total = domain.MoneyFromCents(cents, currency)
	return &o, nil
}
