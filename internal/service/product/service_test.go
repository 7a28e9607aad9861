package product

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
)

type stubRepo struct {
	products  []domain.Product
	total     int
	listErr   error
	lastLimit int
	lastOff   int
}

func (s *stubRepo) List(_ context.Context, _ string, limit, offset int) ([]domain.Product, error) {
	s.lastLimit, s.lastOff = limit, offset
	return s.products, s.listErr
}

func (s *stubRepo) Count(context.Context, string) (int, error) { return s.total, nil }

func (s *stubRepo) GetByID(context.Context, string, string) (*domain.Product, error) {
	return nil, domain.ErrNotFound
}

func (s *stubRepo) GetByHandle(_ context.Context, _, handle string) (*domain.Product, error) {
	for _, p := range s.products {
		if p.Handle == handle {
			p := p
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) Search(context.Context, string, string, int, int) ([]domain.Product, int, error) {
	return nil, 0, nil
}

func (s *stubRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	return &p, nil
}

func TestListClampsLimit(t *testing.T) {
	repo := &stubRepo{total: 3}
	svc := New(repo)

	page, err := svc.List(context.Background(), "shop", 0, -5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastLimit != DefaultLimit || repo.lastOff != 0 {
		t.Fatalf("expected defaults, got limit=%d offset=%d", repo.lastLimit, repo.lastOff)
	}
	if page.Products == nil || page.Total != 3 {
		t.Fatalf("unexpected page %+v", page)
	}

	if _, err := svc.List(context.Background(), "shop", 1000, 40); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastLimit != MaxLimit || repo.lastOff != 40 {
		t.Fatalf("expected max limit, got %d", repo.lastLimit)
	}
}

func TestListPropagatesError(t *testing.T) {
	svc := New(&stubRepo{listErr: errors.New("boom")})
	if _, err := svc.List(context.Background(), "shop", 10, 0); err == nil {
		t.Fatalf("expected error")
	}
}

func TestGetByHandle(t *testing.T) {
	svc := New(&stubRepo{products: []domain.Product{{ID: "p1", Handle: "mug"}}})
	p, err := svc.GetByHandle(context.Background(), "shop", "mug")
	if err != nil || p.ID != "p1" {
		t.Fatalf("unexpected %v %v", p, err)
	}
	if _, err := svc.GetByHandle(context.Background(), "shop", "lamp"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
