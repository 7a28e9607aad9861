package product

import (
	"context"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// Page is one window of a paginated listing.
type Page struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ClampLimit applies the listing default and maximum.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func (s *Service) List(ctx context.Context, shopID string, limit, offset int) (*Page, error) {
	limit = ClampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	products, err := s.repo.List(ctx, shopID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return &Page{Products: products, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) GetByHandle(ctx context.Context, shopID, handle string) (*domain.Product, error) {
	return s.repo.GetByHandle(ctx, shopID, handle)
}
