package collection

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	List(ctx context.Context, shopID string) ([]domain.Collection, error)
	GetByHandle(ctx context.Context, shopID, handle string) (*domain.Collection, error)
	Products(ctx context.Context, collectionID string, limit, offset int) ([]domain.Product, error)
	Search(ctx context.Context, shopID, term string, limit int) ([]domain.Collection, error)
	Upsert(ctx context.Context, c domain.Collection) (*domain.Collection, error)
	SetProducts(ctx context.Context, collectionID string, productIDs []string) error
}
