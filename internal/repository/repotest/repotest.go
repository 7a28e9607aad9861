// Package repotest connects repository integration tests to a disposable
// Postgres database named by TEST_DB_DSN.
package repotest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/migrate"
)

// Pool connects, migrates and truncates the test database. Tests are skipped
// when TEST_DB_DSN is unset or the database is unreachable.
func Pool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		t.Skipf("test db unreachable: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	Reset(ctx, t, pool)
	return pool
}

// Reset empties every table.
func Reset(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE order_lines, orders, cart_gift_cards, gift_cards, cart_discount_codes, discount_codes,
cart_lines, carts, tokens, customers, articles, blogs, pages, collection_products, collections, products, shops RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

// Shop inserts a shop and returns its id.
func Shop(ctx context.Context, t *testing.T, pool *pgxpool.Pool, key string) string {
	t.Helper()
	var id string
	if err := pool.QueryRow(ctx, `INSERT INTO shops (key, name, currency) VALUES ($1, $1, 'USD') RETURNING id::text`, key).Scan(&id); err != nil {
		t.Fatalf("insert shop: %v", err)
	}
	return id
}

// Product inserts a product and returns its id. A negative inventory leaves
// stock untracked.
func Product(ctx context.Context, t *testing.T, pool *pgxpool.Pool, shopID, handle, title string, priceCents int64, inventory int) string {
	t.Helper()
	var inv *int
	if inventory >= 0 {
		inv = &inventory
	}
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO products (shop_id, handle, sku, title, price_cents, currency, inventory_quantity)
VALUES ($1, $2, upper($2), $3, $4, 'USD', $5)
RETURNING id::text`, shopID, handle, title, priceCents, inv).Scan(&id)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return id
}
