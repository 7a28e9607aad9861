package customer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/repository/pgutil"
)

const customerColumns = `id::text, shop_id::text, email, password_hash, first_name, last_name, addresses, default_address_id, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	if c.Addresses == nil {
		c.Addresses = []domain.CustomerAddress{}
	}
	addrJSON, err := json.Marshal(c.Addresses)
	if err != nil {
		return nil, err
	}

	q := `
INSERT INTO customers (shop_id, email, password_hash, first_name, last_name, addresses, default_address_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + customerColumns
	return r.scanCustomer(r.pool.QueryRow(
		ctx,
		q,
		c.ShopID,
		strings.ToLower(c.Email),
		c.PasswordHash,
		c.FirstName,
		c.LastName,
		addrJSON,
		c.DefaultAddressID,
	))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, shopID, email string) (*domain.Customer, error) {
	q := `
SELECT ` + customerColumns + `
FROM customers
WHERE shop_id = $1 AND lower(email) = lower($2)
LIMIT 1
`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, shopID, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, shopID, id string) (*domain.Customer, error) {
	q := `
SELECT ` + customerColumns + `
FROM customers
WHERE shop_id = $1 AND id::text = $2
LIMIT 1
`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, shopID, id))
}

func (r *postgresRepo) SaveAddresses(ctx context.Context, shopID, id string, addresses []domain.CustomerAddress, defaultAddressID string) (*domain.Customer, error) {
	if addresses == nil {
		addresses = []domain.CustomerAddress{}
	}
	addrJSON, err := json.Marshal(addresses)
	if err != nil {
		return nil, err
	}
	q := `
UPDATE customers
SET addresses = $3, default_address_id = $4
WHERE shop_id = $1 AND id::text = $2
RETURNING ` + customerColumns
	return r.scanCustomer(r.pool.QueryRow(ctx, q, shopID, id, addrJSON, defaultAddressID))
}

func (r *postgresRepo) scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	var addrJSON []byte
	err := row.Scan(
		&c.ID,
		&c.ShopID,
		&c.Email,
		&c.PasswordHash,
		&c.FirstName,
		&c.LastName,
		&addrJSON,
		&c.DefaultAddressID,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if pgutil.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("scan customer", zap.Error(err))
		return nil, err
	}
	if len(addrJSON) > 0 {
		if err := json.Unmarshal(addrJSON, &c.Addresses); err != nil {
			r.logger.Error("decode addresses", zap.String("id", c.ID), zap.Error(err))
			return nil, err
		}
	}
	if c.Addresses == nil {
		c.Addresses = []domain.CustomerAddress{}
	}
	return &c, nil
}
