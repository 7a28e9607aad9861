package shop

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	GetByKey(ctx context.Context, key string) (*domain.Shop, error)
	Create(ctx context.Context, shop domain.Shop) (*domain.Shop, error)
}
