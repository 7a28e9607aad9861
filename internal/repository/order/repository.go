package order

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	ListByCustomer(ctx context.Context, shopID, customerID, status string, limit int) ([]domain.Order, error)
	Get(ctx context.Context, shopID, customerID, id string) (*domain.Order, error)
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
}
