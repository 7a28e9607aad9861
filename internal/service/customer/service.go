package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	"storefront/internal/logging"
	custrepo "storefront/internal/repository/customer"
	orderrepo "storefront/internal/repository/order"
	tokenrepo "storefront/internal/repository/token"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

const (
	defaultOrdersLimit = 20
	maxOrdersLimit     = 100
)

// Service handles customer accounts: signup, login, addresses and orders.
type Service struct {
	repo        custrepo.Repository
	orders      orderrepo.Repository
	sessions    *sessions
	accessTTL   time.Duration
	refreshTTL  time.Duration
	passwordMin int
	logger      *zap.Logger
}

// New creates a Service with sane defaults.
func New(repo custrepo.Repository, tokens tokenrepo.Repository, orders orderrepo.Repository, logger *zap.Logger) *Service {
	logger = logging.OrNop(logger)
	return &Service{
		repo:        repo,
		orders:      orders,
		sessions:    &sessions{store: tokens, clock: time.Now, logger: logger},
		accessTTL:   48 * time.Hour,
		refreshTTL:  30 * 24 * time.Hour,
		passwordMin: 8,
		logger:      logger,
	}
}

// AddressInput mirrors incoming address payloads.
type AddressInput struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Company       string `json:"company"`
	Address1      string `json:"address1"`
	Address2      string `json:"address2"`
	City          string `json:"city"`
	ZoneCode      string `json:"zoneCode"`
	TerritoryCode string `json:"territoryCode"`
	Zip           string `json:"zip"`
	PhoneNumber   string `json:"phoneNumber"`
}

func (a AddressInput) toDomain(id string) domain.CustomerAddress {
	return domain.CustomerAddress{
		ID:            id,
		FirstName:     strings.TrimSpace(a.FirstName),
		LastName:      strings.TrimSpace(a.LastName),
		Company:       strings.TrimSpace(a.Company),
		Address1:      strings.TrimSpace(a.Address1),
		Address2:      strings.TrimSpace(a.Address2),
		City:          strings.TrimSpace(a.City),
		ZoneCode:      strings.ToUpper(strings.TrimSpace(a.ZoneCode)),
		TerritoryCode: strings.ToUpper(strings.TrimSpace(a.TerritoryCode)),
		Zip:           strings.TrimSpace(a.Zip),
		PhoneNumber:   strings.TrimSpace(a.PhoneNumber),
	}
}

// SignupInput captures fields expected by the signup endpoint.
type SignupInput struct {
	Email     string         `json:"email"`
	Password  string         `json:"password"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Addresses []AddressInput `json:"addresses"`
}

// Tokens is the result of a password or refresh grant.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// Signup registers a new customer within the given shop. The first address,
// if any, becomes the default.
func (s *Service) Signup(ctx context.Context, shopID string, in SignupInput) (*domain.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email required", domain.ErrInvalidInput)
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	addresses := make([]domain.CustomerAddress, 0, len(in.Addresses))
	for _, a := range in.Addresses {
		addresses = append(addresses, a.toDomain(uuid.NewString()))
	}
	customer := domain.Customer{
		ShopID:       shopID,
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Addresses:    addresses,
	}
	if len(addresses) > 0 {
		customer.DefaultAddressID = addresses[0].ID
	}

	created, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer signed up", zap.String("shop_id", shopID), zap.String("customer_id", created.ID))
	return created, nil
}

// Login validates credentials and returns issued tokens plus the customer.
func (s *Service) Login(ctx context.Context, shopID, email, password string) (*domain.Customer, Tokens, error) {
	password = strings.TrimSpace(password)
	c, err := s.repo.GetByEmail(ctx, shopID, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, Tokens{}, ErrInvalidCredentials
		}
		return nil, Tokens{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return nil, Tokens{}, ErrInvalidCredentials
	}
	tokens, err := s.issue(ctx, c.ShopID, c.ID)
	if err != nil {
		return nil, Tokens{}, err
	}
	return c, tokens, nil
}

// Refresh exchanges a refresh token for a new token pair. The old refresh
// token is consumed.
func (s *Service) Refresh(ctx context.Context, shopID, refreshToken string) (*domain.Customer, Tokens, error) {
	customerID, err := s.sessions.resolve(ctx, shopID, refreshToken, tokenrepo.KindRefresh)
	if err != nil {
		return nil, Tokens{}, err
	}
	c, err := s.repo.GetByID(ctx, shopID, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, Tokens{}, ErrInvalidToken
		}
		return nil, Tokens{}, err
	}
	// A concurrent refresh that consumed the token first wins.
	if err := s.sessions.revoke(ctx, refreshToken); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, Tokens{}, ErrInvalidToken
		}
		return nil, Tokens{}, err
	}
	tokens, err := s.issue(ctx, shopID, c.ID)
	if err != nil {
		return nil, Tokens{}, err
	}
	return c, tokens, nil
}

// Logout revokes an access token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.revoke(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) issue(ctx context.Context, shopID, customerID string) (Tokens, error) {
	access, err := s.sessions.mint(ctx, shopID, customerID, tokenrepo.KindAccess, s.accessTTL)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := s.sessions.mint(ctx, shopID, customerID, tokenrepo.KindRefresh, s.refreshTTL)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.AccessTTLSeconds()}, nil
}

// LookupByToken returns the customer bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, shopID, token string) (*domain.Customer, error) {
	customerID, err := s.sessions.resolve(ctx, shopID, token, tokenrepo.KindAccess)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, shopID, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return c, nil
}

// PruneTokens deletes expired access and refresh tokens.
func (s *Service) PruneTokens(ctx context.Context) (int64, error) {
	return s.sessions.prune(ctx)
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

// CreateAddress appends an address. The first address always becomes the
// default; later ones only when makeDefault is set.
func (s *Service) CreateAddress(ctx context.Context, shopID, customerID string, in AddressInput, makeDefault bool) (*domain.Customer, *domain.CustomerAddress, error) {
	c, err := s.repo.GetByID(ctx, shopID, customerID)
	if err != nil {
		return nil, nil, err
	}
	addr := in.toDomain(uuid.NewString())
	addresses := append(append([]domain.CustomerAddress(nil), c.Addresses...), addr)
	defaultID := c.DefaultAddressID
	if makeDefault || defaultID == "" {
		defaultID = addr.ID
	}
	updated, err := s.repo.SaveAddresses(ctx, shopID, customerID, addresses, defaultID)
	if err != nil {
		return nil, nil, err
	}
	return updated, &addr, nil
}

// UpdateAddress replaces the fields of an existing address.
func (s *Service) UpdateAddress(ctx context.Context, shopID, customerID, addressID string, in AddressInput, makeDefault bool) (*domain.Customer, *domain.CustomerAddress, error) {
	if strings.TrimSpace(addressID) == "" {
		return nil, nil, fmt.Errorf("%w: address id required", domain.ErrInvalidInput)
	}
	c, err := s.repo.GetByID(ctx, shopID, customerID)
	if err != nil {
		return nil, nil, err
	}
	idx := c.AddressByID(addressID)
	if idx < 0 {
		return nil, nil, domain.ErrNotFound
	}
	addresses := append([]domain.CustomerAddress(nil), c.Addresses...)
	addresses[idx] = in.toDomain(addressID)
	defaultID := c.DefaultAddressID
	if makeDefault {
		defaultID = addressID
	}
	updated, err := s.repo.SaveAddresses(ctx, shopID, customerID, addresses, defaultID)
	if err != nil {
		return nil, nil, err
	}
	addr := addresses[idx]
	return updated, &addr, nil
}

// DeleteAddress removes an address. Deleting the default promotes the first
// remaining address.
func (s *Service) DeleteAddress(ctx context.Context, shopID, customerID, addressID string) (*domain.Customer, error) {
	if strings.TrimSpace(addressID) == "" {
		return nil, fmt.Errorf("%w: address id required", domain.ErrInvalidInput)
	}
	c, err := s.repo.GetByID(ctx, shopID, customerID)
	if err != nil {
		return nil, err
	}
	idx := c.AddressByID(addressID)
	if idx < 0 {
		return nil, domain.ErrNotFound
	}
	addresses := make([]domain.CustomerAddress, 0, len(c.Addresses)-1)
	addresses = append(addresses, c.Addresses[:idx]...)
	addresses = append(addresses, c.Addresses[idx+1:]...)
	defaultID := c.DefaultAddressID
	if defaultID == addressID {
		defaultID = ""
		if len(addresses) > 0 {
			defaultID = addresses[0].ID
		}
	}
	return s.repo.SaveAddresses(ctx, shopID, customerID, addresses, defaultID)
}

// Orders lists the customer's orders, newest first, optionally by status.
func (s *Service) Orders(ctx context.Context, shopID, customerID, status string, limit int) ([]domain.Order, error) {
	switch {
	case limit <= 0:
		limit = defaultOrdersLimit
	case limit > maxOrdersLimit:
		limit = maxOrdersLimit
	}
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case "", domain.OrderStatusPaid, domain.OrderStatusFulfilled, domain.OrderStatusCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrInvalidInput, status)
	}
	orders, err := s.orders.ListByCustomer(ctx, shopID, customerID, status, limit)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// Order returns one of the customer's orders; other customers' orders are not found.
func (s *Service) Order(ctx context.Context, shopID, customerID, orderID string) (*domain.Order, error) {
	return s.orders.Get(ctx, shopID, customerID, orderID)
}

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < min {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return fmt.Errorf("%w: password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number", domain.ErrInvalidInput)
	}
	return nil
}
