package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository/repotest"
)

func TestExpired(t *testing.T) {
	now := time.Now()
	if !(Token{ExpiresAt: now}).Expired(now) {
		t.Fatal("token expiring now is expired")
	}
	if (Token{ExpiresAt: now.Add(time.Minute)}).Expired(now) {
		t.Fatal("future token is not expired")
	}
}

func TestDigestIsStable(t *testing.T) {
	a, b := digest("secret"), digest("secret")
	if a != b || len(a) != 64 || a == "secret" {
		t.Fatalf("unexpected digest %q", a)
	}
	if digest("other") == a {
		t.Fatal("distinct tokens share a digest")
	}
}

func TestPostgres_Lifecycle(t *testing.T) {
	ctx := context.Background()
	pool := repotest.Pool(ctx, t)
	shopID := repotest.Shop(ctx, t, pool, "demo")
	repo := NewPostgres(pool, nil)

	anon := "visitor-1"
	now := time.Now().UTC()
	if err := repo.Create(ctx, Token{Token: "live", ShopID: shopID, AnonymousID: &anon, Kind: KindAccess, ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, Token{Token: "stale", ShopID: shopID, Kind: KindAccess, ExpiresAt: now.Add(-time.Hour)}); err != nil {
		t.Fatalf("create stale: %v", err)
	}
	if err := repo.Create(ctx, Token{Token: "live", ShopID: shopID, Kind: KindAccess, ExpiresAt: now}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := repo.Get(ctx, "live")
	if err != nil || got.AnonymousID == nil || *got.AnonymousID != anon || got.CustomerID != nil {
		t.Fatalf("get: %+v %v", got, err)
	}

	if got.Token != "live" {
		t.Fatalf("expected caller token echoed, got %q", got.Token)
	}
	var plain int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM tokens WHERE token_digest IN ('live', 'stale')`).Scan(&plain); err != nil || plain != 0 {
		t.Fatalf("raw tokens must not be stored: %d %v", plain, err)
	}

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("delete expired: %d %v", n, err)
	}
	if err := repo.Delete(ctx, "live"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "live"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
