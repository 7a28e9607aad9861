package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	cartrepo "storefront/internal/repository/cart"
)

// Action names accepted by Mutate.
const (
	ActionLinesAdd            = "LinesAdd"
	ActionLinesUpdate         = "LinesUpdate"
	ActionLinesRemove         = "LinesRemove"
	ActionDiscountCodesUpdate = "DiscountCodesUpdate"
	ActionGiftCardCodesUpdate = "GiftCardCodesUpdate"
	ActionGiftCardCodesRemove = "GiftCardCodesRemove"
)

type Service struct {
	repo            cartRepo
	productRepo     productRepo
	checkoutBaseURL string
	logger          *zap.Logger
}

type cartRepo interface {
	Create(ctx context.Context, in cartrepo.CreateCartInput) (*cartrepo.Record, error)
	GetByID(ctx context.Context, shopID, id string) (*cartrepo.Record, error)
	GetActiveByCustomer(ctx context.Context, shopID, customerID string) (*cartrepo.Record, error)
	GetActiveByAnonymous(ctx context.Context, shopID, anonymousID string) (*cartrepo.Record, error)
	AssignCustomerToAnonymous(ctx context.Context, shopID, anonymousID, customerID string) (*cartrepo.Record, error)
	AddLines(ctx context.Context, cartID string, adds []cartrepo.LineAdd) error
	SetLineQuantities(ctx context.Context, cartID string, changes []cartrepo.LineQuantity) error
	RemoveLines(ctx context.Context, cartID string, lineIDs []string) error
	ReplaceDiscountCodes(ctx context.Context, shopID, cartID string, codes []string) error
	FindGiftCard(ctx context.Context, shopID, code string) (*cartrepo.GiftCard, error)
	AttachGiftCards(ctx context.Context, cartID string, giftCardIDs []string) error
	DetachGiftCards(ctx context.Context, cartID string, ids []string) error
}

type productRepo interface {
	GetByID(ctx context.Context, shopID, id string) (*domain.Product, error)
}

func New(repo cartrepo.Repository, productRepo productRepo, checkoutBaseURL string, logger *zap.Logger) *Service {
	return &Service{
		repo:            repo,
		productRepo:     productRepo,
		checkoutBaseURL: strings.TrimRight(checkoutBaseURL, "/"),
		logger:          logging.OrNop(logger),
	}
}

// Owner identifies who is acting on a cart: a signed-in customer or an
// anonymous visitor. Exactly one field is set.
type Owner struct {
	CustomerID  string
	AnonymousID string
}

func (o Owner) valid() bool {
	return (o.CustomerID == "") != (o.AnonymousID == "")
}

type CreateInput struct {
	Currency string `json:"currency"`
}

type LineInput struct {
	ID            string `json:"id,omitempty"`
	MerchandiseID string `json:"merchandiseId,omitempty"`
	Quantity      int    `json:"quantity"`
}

// Action is one cart mutation.
type Action struct {
	Action        string      `json:"action"`
	Lines         []LineInput `json:"lines,omitempty"`
	LineIDs       []string    `json:"lineIds,omitempty"`
	DiscountCodes []string    `json:"discountCodes,omitempty"`
	GiftCardCodes []string    `json:"giftCardCodes,omitempty"`
	GiftCardIDs   []string    `json:"giftCardIds,omitempty"`
}

// Payload is the mutation response: the re-read cart and any business
// rejections. When UserErrors is non-empty the cart is unchanged.
type Payload struct {
	Cart       *domain.Cart       `json:"cart"`
	UserErrors []domain.UserError `json:"userErrors"`
}

func (s *Service) Create(ctx context.Context, shopID string, owner Owner, in CreateInput) (*domain.Cart, error) {
	if !owner.valid() {
		return nil, domain.ErrUnauthorized
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: currency required", domain.ErrInvalidInput)
	}
	rec, err := s.repo.Create(ctx, cartrepo.CreateCartInput{
		ShopID:      shopID,
		CustomerID:  optional(owner.CustomerID),
		AnonymousID: optional(owner.AnonymousID),
		Currency:    currency,
	})
	if err != nil {
		return nil, err
	}
	return s.price(rec), nil
}

// Get returns the cart when owner holds it; other carts are not found.
func (s *Service) Get(ctx context.Context, shopID string, owner Owner, id string) (*domain.Cart, error) {
	rec, err := s.owned(ctx, shopID, owner, id)
	if err != nil {
		return nil, err
	}
	return s.price(rec), nil
}

func (s *Service) GetActive(ctx context.Context, shopID string, owner Owner) (*domain.Cart, error) {
	var rec *cartrepo.Record
	var err error
	switch {
	case !owner.valid():
		return nil, domain.ErrUnauthorized
	case owner.CustomerID != "":
		rec, err = s.repo.GetActiveByCustomer(ctx, shopID, owner.CustomerID)
	default:
		rec, err = s.repo.GetActiveByAnonymous(ctx, shopID, owner.AnonymousID)
	}
	if err != nil {
		return nil, err
	}
	return s.price(rec), nil
}

// AssignCustomerFromAnonymous moves the visitor's active cart to the customer.
func (s *Service) AssignCustomerFromAnonymous(ctx context.Context, shopID, anonymousID, customerID string) (*domain.Cart, error) {
	rec, err := s.repo.AssignCustomerToAnonymous(ctx, shopID, anonymousID, customerID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("cart reassigned", zap.String("cart_id", rec.Cart.ID), zap.String("customer_id", customerID))
	return s.price(rec), nil
}

// Mutate applies one action. Business rejections come back as user errors
// alongside the unchanged cart; only system and ownership failures are errors.
func (s *Service) Mutate(ctx context.Context, shopID string, owner Owner, cartID string, action Action) (*Payload, error) {
	rec, err := s.owned(ctx, shopID, owner, cartID)
	if err != nil {
		return nil, err
	}

	var userErrors []domain.UserError
	switch strings.TrimSpace(action.Action) {
	case ActionLinesAdd:
		userErrors, err = s.linesAdd(ctx, shopID, rec, action.Lines)
	case ActionLinesUpdate:
		userErrors, err = s.linesUpdate(ctx, rec, action.Lines)
	case ActionLinesRemove:
		userErrors, err = s.linesRemove(ctx, rec, action.LineIDs)
	case ActionDiscountCodesUpdate:
		err = s.repo.ReplaceDiscountCodes(ctx, shopID, cartID, NormalizeDiscountCodes(action.DiscountCodes))
	case ActionGiftCardCodesUpdate:
		userErrors, err = s.giftCardsAdd(ctx, shopID, cartID, action.GiftCardCodes)
	case ActionGiftCardCodesRemove:
		userErrors, err = s.giftCardsRemove(ctx, cartID, action.GiftCardIDs)
	default:
		return nil, fmt.Errorf("%w: unsupported action %q", domain.ErrInvalidInput, action.Action)
	}
	if err != nil {
		s.logger.Error("cart mutation failed", zap.String("cart_id", cartID), zap.String("action", action.Action), zap.Error(err))
		return nil, err
	}

	if len(userErrors) == 0 {
		rec, err = s.repo.GetByID(ctx, shopID, cartID)
		if err != nil {
			return nil, err
		}
	} else {
		s.logger.Debug("cart mutation rejected", zap.String("cart_id", cartID), zap.String("action", action.Action), zap.Int("user_errors", len(userErrors)))
	}
	return &Payload{Cart: s.price(rec), UserErrors: nonNil(userErrors)}, nil
}

func (s *Service) owned(ctx context.Context, shopID string, owner Owner, cartID string) (*cartrepo.Record, error) {
	if !owner.valid() {
		return nil, domain.ErrNotFound
	}
	rec, err := s.repo.GetByID(ctx, shopID, cartID)
	if err != nil {
		return nil, err
	}
	cart := rec.Cart
	switch {
	case owner.CustomerID != "":
		if cart.CustomerID == nil || *cart.CustomerID != owner.CustomerID {
			return nil, domain.ErrNotFound
		}
	default:
		if cart.AnonymousID == nil || *cart.AnonymousID != owner.AnonymousID {
			return nil, domain.ErrNotFound
		}
	}
	if cart.State != domain.CartStateActive {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (s *Service) linesAdd(ctx context.Context, shopID string, rec *cartrepo.Record, lines []LineInput) ([]domain.UserError, error) {
	if len(lines) == 0 {
		return []domain.UserError{invalid([]string{"lines"}, "At least one line is required")}, nil
	}
	var adds []cartrepo.LineAdd
	var userErrors []domain.UserError
	for i, in := range lines {
		field := []string{"lines", itoa(i)}
		merchID := strings.TrimSpace(in.MerchandiseID)
		if merchID == "" {
			userErrors = append(userErrors, invalid(append(field, "merchandiseId"), "Merchandise is required"))
			continue
		}
		if in.Quantity <= 0 {
			userErrors = append(userErrors, invalid(append(field, "quantity"), "Quantity must be positive"))
			continue
		}
		product, err := s.productRepo.GetByID(ctx, shopID, merchID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				userErrors = append(userErrors, domain.UserError{
					Field:   append(field, "merchandiseId"),
					Code:    domain.UserErrorMerchandiseNotFound,
					Message: "Merchandise not found",
				})
				continue
			}
			return nil, err
		}
		adds = append(adds, cartrepo.LineAdd{Product: *product, Quantity: in.Quantity})
	}
	if len(userErrors) > 0 {
		return userErrors, nil
	}
	err := s.repo.AddLines(ctx, rec.Cart.ID, adds)
	if ue, ok := stockUserError(err); ok {
		return []domain.UserError{ue}, nil
	}
	return nil, err
}

func (s *Service) linesUpdate(ctx context.Context, rec *cartrepo.Record, lines []LineInput) ([]domain.UserError, error) {
	if len(lines) == 0 {
		return []domain.UserError{invalid([]string{"lines"}, "At least one line is required")}, nil
	}
	var changes []cartrepo.LineQuantity
	var userErrors []domain.UserError
	for i, in := range lines {
		field := []string{"lines", itoa(i)}
		if in.Quantity < 0 {
			userErrors = append(userErrors, invalid(append(field, "quantity"), "Quantity must not be negative"))
			continue
		}
		id := strings.TrimSpace(in.ID)
		if rec.Cart.LineByID(id) < 0 {
			userErrors = append(userErrors, lineNotFound(append(field, "id")))
			continue
		}
		changes = append(changes, cartrepo.LineQuantity{LineID: id, Quantity: in.Quantity})
	}
	if len(userErrors) > 0 {
		return userErrors, nil
	}
	err := s.repo.SetLineQuantities(ctx, rec.Cart.ID, changes)
	if ue, ok := stockUserError(err); ok {
		return []domain.UserError{ue}, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.UserError{lineNotFound([]string{"lines"})}, nil
	}
	return nil, err
}

// stockUserError turns an inventory rejection from the repository into the
// user error for the offending input line.
func stockUserError(err error) (domain.UserError, bool) {
	var stock *cartrepo.StockError
	if !errors.As(err, &stock) {
		return domain.UserError{}, false
	}
	return outOfStock([]string{"lines", itoa(stock.Index), "quantity"}), true
}

func (s *Service) linesRemove(ctx context.Context, rec *cartrepo.Record, ids []string) ([]domain.UserError, error) {
	if len(ids) == 0 {
		return []domain.UserError{invalid([]string{"lineIds"}, "At least one line id is required")}, nil
	}
	var userErrors []domain.UserError
	for i, id := range ids {
		if rec.Cart.LineByID(strings.TrimSpace(id)) < 0 {
			userErrors = append(userErrors, lineNotFound([]string{"lineIds", itoa(i)}))
		}
	}
	if len(userErrors) > 0 {
		return userErrors, nil
	}
	if err := s.repo.RemoveLines(ctx, rec.Cart.ID, ids); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.UserError{lineNotFound([]string{"lineIds"})}, nil
		}
		return nil, err
	}
	return nil, nil
}

func (s *Service) giftCardsAdd(ctx context.Context, shopID, cartID string, codes []string) ([]domain.UserError, error) {
	normalized := NormalizeGiftCardCodes(codes)
	if len(normalized) == 0 {
		return []domain.UserError{invalid([]string{"giftCardCodes"}, "Enter a gift card code")}, nil
	}
	var cards []*cartrepo.GiftCard
	var userErrors []domain.UserError
	for i, code := range normalized {
		card, err := s.repo.FindGiftCard(ctx, shopID, code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				userErrors = append(userErrors, domain.UserError{
					Field:   []string{"giftCardCodes", itoa(i)},
					Code:    domain.UserErrorGiftCardNotFound,
					Message: "Gift card not found",
				})
				continue
			}
			return nil, err
		}
		cards = append(cards, card)
	}
	if len(userErrors) > 0 {
		return userErrors, nil
	}
	ids := make([]string, 0, len(cards))
	for _, card := range cards {
		ids = append(ids, card.ID)
	}
	return nil, s.repo.AttachGiftCards(ctx, cartID, ids)
}

func (s *Service) giftCardsRemove(ctx context.Context, cartID string, ids []string) ([]domain.UserError, error) {
	if len(ids) == 0 {
		return []domain.UserError{invalid([]string{"giftCardIds"}, "At least one gift card id is required")}, nil
	}
	if err := s.repo.DetachGiftCards(ctx, cartID, ids); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.UserError{{
				Field:   []string{"giftCardIds"},
				Code:    domain.UserErrorGiftCardNotFound,
				Message: "Gift card not found",
			}}, nil
		}
		return nil, err
	}
	return nil, nil
}

// NormalizeDiscountCodes trims, upper-cases and de-duplicates, keeping order.
func NormalizeDiscountCodes(codes []string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, raw := range codes {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

// NormalizeGiftCardCodes strips all whitespace and de-duplicates
// case-insensitively, keeping order.
func NormalizeGiftCardCodes(codes []string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, raw := range codes {
		code := strings.Join(strings.Fields(raw), "")
		if code == "" {
			continue
		}
		key := strings.ToUpper(code)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, code)
	}
	return out
}

func invalid(field []string, msg string) domain.UserError {
	return domain.UserError{Field: field, Code: domain.UserErrorInvalid, Message: msg}
}

func outOfStock(field []string) domain.UserError {
	return domain.UserError{Field: field, Code: domain.UserErrorOutOfStock, Message: "Out of stock"}
}

func lineNotFound(field []string) domain.UserError {
	return domain.UserError{Field: field, Code: domain.UserErrorLineNotFound, Message: "Line not found"}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func nonNil(errs []domain.UserError) []domain.UserError {
	if errs == nil {
		return []domain.UserError{}
	}
	return errs
}
