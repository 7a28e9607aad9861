package product

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	List(ctx context.Context, shopID string, limit, offset int) ([]domain.Product, error)
	Count(ctx context.Context, shopID string) (int, error)
	GetByID(ctx context.Context, shopID, id string) (*domain.Product, error)
	GetByHandle(ctx context.Context, shopID, handle string) (*domain.Product, error)
	Search(ctx context.Context, shopID, term string, limit, offset int) ([]domain.Product, int, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
