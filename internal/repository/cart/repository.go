package cart

import (
	"context"
	"fmt"

	"storefront/internal/domain"
)

type CreateCartInput struct {
	ShopID      string
	CustomerID  *string
	AnonymousID *string
	Currency    string
}

// GiftCard is a stored gift card. Code never leaves the backend.
type GiftCard struct {
	ID           string
	Code         string
	BalanceCents int64
	Currency     string
}

// Record is a stored cart with what pricing needs: the percentage of each
// applicable discount code and the attached gift cards in attach order.
type Record struct {
	Cart              domain.Cart
	DiscountPermyriad map[string]int
	GiftCards         []GiftCard
}

// LineAdd adds Quantity of Product, merging onto an existing line.
type LineAdd struct {
	Product  domain.Product
	Quantity int
}

// LineQuantity sets an absolute quantity on a line. Zero deletes the line.
type LineQuantity struct {
	LineID   string
	Quantity int
}

// StockError rejects a batch because input Index would take a line past the
// product's tracked inventory. Nothing in the batch is written.
type StockError struct {
	Index int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("line %d exceeds inventory", e.Index)
}

// Line mutations apply a whole batch in one transaction or not at all.
type Repository interface {
	Create(ctx context.Context, in CreateCartInput) (*Record, error)
	GetByID(ctx context.Context, shopID, id string) (*Record, error)
	GetActiveByCustomer(ctx context.Context, shopID, customerID string) (*Record, error)
	GetActiveByAnonymous(ctx context.Context, shopID, anonymousID string) (*Record, error)
	AssignCustomerToAnonymous(ctx context.Context, shopID, anonymousID, customerID string) (*Record, error)

	AddLines(ctx context.Context, cartID string, adds []LineAdd) error
	SetLineQuantities(ctx context.Context, cartID string, changes []LineQuantity) error
	RemoveLines(ctx context.Context, cartID string, lineIDs []string) error

	ReplaceDiscountCodes(ctx context.Context, shopID, cartID string, codes []string) error
	FindGiftCard(ctx context.Context, shopID, code string) (*GiftCard, error)
	AttachGiftCards(ctx context.Context, cartID string, giftCardIDs []string) error
	DetachGiftCards(ctx context.Context, cartID string, ids []string) error
}
