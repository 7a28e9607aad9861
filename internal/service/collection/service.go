package collection

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/repository/collection"
	"storefront/internal/service/product"
)

type Service struct {
	repo collection.Repository
}

func New(repo collection.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, shopID string) ([]domain.Collection, error) {
	collections, err := s.repo.List(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if collections == nil {
		collections = []domain.Collection{}
	}
	return collections, nil
}

// GetByHandle returns the collection with one page of its products in
// position order.
func (s *Service) GetByHandle(ctx context.Context, shopID, handle string, limit, offset int) (*domain.Collection, error) {
	c, err := s.repo.GetByHandle(ctx, shopID, handle)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	products, err := s.repo.Products(ctx, c.ID, product.ClampLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.Products = products
	return c, nil
}
