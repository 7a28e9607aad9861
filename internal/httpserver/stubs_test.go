package httpserver

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/domain"
	anonymoussvc "storefront/internal/service/anonymous"
	cartsvc "storefront/internal/service/cart"
	customersvc "storefront/internal/service/customer"
	productsvc "storefront/internal/service/product"
)

func logDiscard() *zap.Logger {
	return zap.NewNop()
}

type stubShopRepo struct {
	shop *domain.Shop
	err  error
}

func (s *stubShopRepo) GetByKey(_ context.Context, key string) (*domain.Shop, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.shop == nil || s.shop.Key != key {
		return nil, domain.ErrNotFound
	}
	return s.shop, nil
}

type stubProductService struct {
	products  []domain.Product
	lastLimit int
}

func (s *stubProductService) List(_ context.Context, _ string, limit, offset int) (*productsvc.Page, error) {
	s.lastLimit = limit
	return &productsvc.Page{Products: s.products, Total: len(s.products), Limit: productsvc.ClampLimit(limit), Offset: offset}, nil
}

func (s *stubProductService) GetByHandle(_ context.Context, _, handle string) (*domain.Product, error) {
	for _, p := range s.products {
		if p.Handle == handle {
			p := p
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

type stubCollectionService struct{}

func (s *stubCollectionService) List(context.Context, string) ([]domain.Collection, error) {
	return []domain.Collection{{ID: "c1", Handle: "lamps", Title: "Lamps", Image: "/img/lamps.jpg"}}, nil
}

func (s *stubCollectionService) GetByHandle(_ context.Context, _, handle string, _, _ int) (*domain.Collection, error) {
	if handle != "lamps" {
		return nil, domain.ErrNotFound
	}
	return &domain.Collection{ID: "c1", Handle: "lamps", Title: "Lamps", Products: []domain.Product{{ID: "p1", Handle: "desk-lamp", Title: "Desk Lamp"}}}, nil
}

type stubContentService struct{}

func (s *stubContentService) Page(_ context.Context, _, handle string) (*domain.Page, error) {
	if handle != "about" {
		return nil, domain.ErrNotFound
	}
	return &domain.Page{Handle: "about", Title: "About", Kind: domain.PageKindPage}, nil
}

func (s *stubContentService) Policy(_ context.Context, _, handle string) (*domain.Page, error) {
	if handle != "refund-policy" {
		return nil, domain.ErrNotFound
	}
	return &domain.Page{Handle: handle, Title: "Refunds", Kind: domain.PageKindPolicy}, nil
}

func (s *stubContentService) Policies(context.Context, string) ([]domain.Page, error) {
	return []domain.Page{{Handle: "refund-policy", Kind: domain.PageKindPolicy}}, nil
}

func (s *stubContentService) Blogs(context.Context, string) ([]domain.Blog, error) {
	return []domain.Blog{{Handle: "news", Title: "News"}}, nil
}

func (s *stubContentService) Blog(_ context.Context, _, handle string) (*domain.Blog, error) {
	if handle != "news" {
		return nil, domain.ErrNotFound
	}
	return &domain.Blog{Handle: "news", Articles: []domain.Article{{Handle: "spring", BlogHandle: "news", Image: "a.jpg"}}}, nil
}

func (s *stubContentService) Article(_ context.Context, _, blogHandle, handle string) (*domain.Article, error) {
	if blogHandle != "news" || handle != "spring" {
		return nil, domain.ErrNotFound
	}
	return &domain.Article{Handle: "spring", BlogHandle: "news", Title: "Spring"}, nil
}

type stubSearchService struct {
	lastTerm  string
	lastLimit int
}

func (s *stubSearchService) Predictive(_ context.Context, _, term string, limit int) (domain.PredictiveResult, error) {
	s.lastTerm, s.lastLimit = term, limit
	r := domain.EmptyPredictiveResult()
	if strings.TrimSpace(term) == "" {
		return r, nil
	}
	r.Products = append(r.Products, domain.ProductSummary{ID: "p1", Handle: "desk-lamp", Title: "Desk Lamp", Image: "lamp.jpg"})
	return r, nil
}

func (s *stubSearchService) Search(_ context.Context, _, term string, _, _ int) (*domain.SearchResult, error) {
	s.lastTerm = term
	return &domain.SearchResult{Term: term, Products: []domain.ProductSummary{{ID: "p1"}}, Pages: []domain.PageSummary{}, Articles: []domain.ArticleSummary{}, Total: 1}, nil
}

type stubCartService struct {
	cart        *domain.Cart
	payload     *cartsvc.Payload
	err         error
	lastOwner   cartsvc.Owner
	lastAction  cartsvc.Action
	lastCreate  cartsvc.CreateInput
	assignedTo  string
	assignedErr error
}

func (s *stubCartService) Create(_ context.Context, _ string, owner cartsvc.Owner, in cartsvc.CreateInput) (*domain.Cart, error) {
	s.lastOwner, s.lastCreate = owner, in
	return s.cart, s.err
}

func (s *stubCartService) Get(_ context.Context, _ string, owner cartsvc.Owner, _ string) (*domain.Cart, error) {
	s.lastOwner = owner
	return s.cart, s.err
}

func (s *stubCartService) GetActive(_ context.Context, _ string, owner cartsvc.Owner) (*domain.Cart, error) {
	s.lastOwner = owner
	return s.cart, s.err
}

func (s *stubCartService) AssignCustomerFromAnonymous(_ context.Context, _, _, customerID string) (*domain.Cart, error) {
	s.assignedTo = customerID
	return s.cart, s.assignedErr
}

func (s *stubCartService) Mutate(_ context.Context, _ string, owner cartsvc.Owner, _ string, action cartsvc.Action) (*cartsvc.Payload, error) {
	s.lastOwner, s.lastAction = owner, action
	return s.payload, s.err
}

type stubCustomerService struct {
	customer *domain.Customer
	loginErr error
	signErr  error
	meErr    error
	orders   []domain.Order
	addrErr  error
}

func (s *stubCustomerService) Signup(_ context.Context, _ string, _ customersvc.SignupInput) (*domain.Customer, error) {
	return s.customer, s.signErr
}

func (s *stubCustomerService) Login(_ context.Context, _, _, _ string) (*domain.Customer, customersvc.Tokens, error) {
	if s.loginErr != nil {
		return nil, customersvc.Tokens{}, s.loginErr
	}
	return s.customer, customersvc.Tokens{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 3600}, nil
}

func (s *stubCustomerService) Refresh(_ context.Context, _, token string) (*domain.Customer, customersvc.Tokens, error) {
	if token != "refresh" {
		return nil, customersvc.Tokens{}, customersvc.ErrInvalidToken
	}
	return s.customer, customersvc.Tokens{AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresIn: 3600}, nil
}

// LookupByToken accepts only the token "customer-token".
func (s *stubCustomerService) LookupByToken(_ context.Context, _, token string) (*domain.Customer, error) {
	if s.meErr != nil {
		return nil, s.meErr
	}
	if token != "customer-token" || s.customer == nil {
		return nil, customersvc.ErrInvalidToken
	}
	return s.customer, nil
}

func (s *stubCustomerService) CreateAddress(_ context.Context, _, _ string, in customersvc.AddressInput, makeDefault bool) (*domain.Customer, *domain.CustomerAddress, error) {
	if s.addrErr != nil {
		return nil, nil, s.addrErr
	}
	addr := domain.CustomerAddress{ID: "addr-1", Address1: in.Address1}
	c := *s.customer
	c.Addresses = append(c.Addresses, addr)
	if makeDefault {
		c.DefaultAddressID = addr.ID
	}
	return &c, &addr, nil
}

func (s *stubCustomerService) UpdateAddress(_ context.Context, _, _, addressID string, in customersvc.AddressInput, _ bool) (*domain.Customer, *domain.CustomerAddress, error) {
	if s.addrErr != nil {
		return nil, nil, s.addrErr
	}
	addr := domain.CustomerAddress{ID: addressID, Address1: in.Address1}
	return s.customer, &addr, nil
}

func (s *stubCustomerService) DeleteAddress(context.Context, string, string, string) (*domain.Customer, error) {
	if s.addrErr != nil {
		return nil, s.addrErr
	}
	return s.customer, nil
}

func (s *stubCustomerService) Orders(_ context.Context, _, _, status string, _ int) ([]domain.Order, error) {
	if status == "bogus" {
		return nil, domain.ErrInvalidInput
	}
	return s.orders, nil
}

func (s *stubCustomerService) Order(_ context.Context, _, _, orderID string) (*domain.Order, error) {
	for _, o := range s.orders {
		if o.ID == orderID {
			o := o
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

type stubAnonymousService struct{}

func (stubAnonymousService) Issue(context.Context, string) (anonymoussvc.Issued, error) {
	return anonymoussvc.Issued{AccessToken: "visitor-token", RefreshToken: "visitor-refresh", AnonymousID: "anon-1"}, nil
}

// LookupByToken accepts only the token "visitor-token".
func (stubAnonymousService) LookupByToken(_ context.Context, _, token string) (string, error) {
	if token != "visitor-token" {
		return "", anonymoussvc.ErrInvalidToken
	}
	return "anon-1", nil
}

func (stubAnonymousService) AccessTTLSeconds() int { return 10800 }

var testShop = &domain.Shop{ID: "shop-id", Key: "shop-key", Currency: "USD"}

func testDeps() Deps {
	return Deps{
		ShopRepo:      &stubShopRepo{shop: testShop},
		ProductSvc:    &stubProductService{},
		CollectionSvc: &stubCollectionService{},
		ContentSvc:    &stubContentService{},
		SearchSvc:     &stubSearchService{},
		CartSvc:       &stubCartService{},
		CustomerSvc:   &stubCustomerService{},
		AnonymousSvc:  stubAnonymousService{},
	}
}
