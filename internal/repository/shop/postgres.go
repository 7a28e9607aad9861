package shop

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

func (r *postgresRepo) GetByKey(ctx context.Context, key string) (*domain.Shop, error) {
	const q = `
SELECT id::text, key, name, currency, created_at
FROM shops
WHERE key = $1
`
	var s domain.Shop
	err := r.pool.QueryRow(ctx, q, key).Scan(&s.ID, &s.Key, &s.Name, &s.Currency, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get shop", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return &s, nil
}

func (r *postgresRepo) Create(ctx context.Context, shop domain.Shop) (*domain.Shop, error) {
	const q = `
INSERT INTO shops (key, name, currency)
VALUES ($1, $2, $3)
RETURNING id::text, created_at
`
	if shop.Currency == "" {
		shop.Currency = "USD"
	}
	out := shop
	err := r.pool.QueryRow(ctx, q, shop.Key, shop.Name, shop.Currency).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	r.logger.Info("shop created", zap.String("key", out.Key), zap.String("id", out.ID))
	return &out, nil
}
