package customer

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists and fetches customers.
type Repository interface {
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	GetByEmail(ctx context.Context, shopID, email string) (*domain.Customer, error)
	GetByID(ctx context.Context, shopID, id string) (*domain.Customer, error)
	SaveAddresses(ctx context.Context, shopID, id string, addresses []domain.CustomerAddress, defaultAddressID string) (*domain.Customer, error)
}
