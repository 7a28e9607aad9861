package domain

import "time"

// Cart is the server-confirmed cart snapshot. It is replaced wholesale on every
// mutation response.
type Cart struct {
	ID               string            `json:"id"`
	ShopID           string            `json:"-"`
	CustomerID       *string           `json:"customerId,omitempty"`
	AnonymousID      *string           `json:"-"`
	Currency         string            `json:"currency"`
	State            string            `json:"state"`
	Lines            []CartLine        `json:"lines"`
	Cost             CartCost          `json:"cost"`
	TotalQuantity    int               `json:"totalQuantity"`
	DiscountCodes    []DiscountCode    `json:"discountCodes"`
	AppliedGiftCards []AppliedGiftCard `json:"appliedGiftCards"`
	CheckoutURL      string            `json:"checkoutUrl,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

type CartCost struct {
	SubtotalAmount Money `json:"subtotalAmount"`
	TotalAmount    Money `json:"totalAmount"`
}

// CartLine is one merchandise entry. IsOptimistic is only ever set by the
// client-side overlay, never by the server.
type CartLine struct {
	ID            string       `json:"id"`
	MerchandiseID string       `json:"merchandiseId"`
	Merchandise   Merchandise  `json:"merchandise"`
	Quantity      int          `json:"quantity"`
	Cost          CartLineCost `json:"cost"`
	IsOptimistic  bool         `json:"isOptimistic,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

type CartLineCost struct {
	AmountPerQuantity Money `json:"amountPerQuantity"`
	TotalAmount       Money `json:"totalAmount"`
}

// Merchandise is the purchasable variant behind a cart line.
type Merchandise struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	ProductHandle string `json:"productHandle,omitempty"`
	SKU           string `json:"sku,omitempty"`
	Image         string `json:"image,omitempty"`
	Price         Money  `json:"price"`
}

type DiscountCode struct {
	Code       string `json:"code"`
	Applicable bool   `json:"applicable"`
}

type AppliedGiftCard struct {
	ID             string `json:"id"`
	LastCharacters string `json:"lastCharacters"`
	AmountUsed     Money  `json:"amountUsed"`
}

// UserError is a business rejection of a cart mutation, reported alongside
// the unchanged cart instead of as a transport failure.
type UserError struct {
	Field   []string `json:"field,omitempty"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
}

const (
	UserErrorInvalid             = "INVALID"
	UserErrorOutOfStock          = "OUT_OF_STOCK"
	UserErrorLineNotFound        = "LINE_NOT_FOUND"
	UserErrorMerchandiseNotFound = "MERCHANDISE_NOT_FOUND"
	UserErrorGiftCardNotFound    = "GIFT_CARD_NOT_FOUND"
)

const (
	CartStateActive  = "active"
	CartStateDeleted = "deleted"
)

// OptimisticLineIDPrefix marks provisional line ids minted on the client.
const OptimisticLineIDPrefix = "optimistic-"

// Clone deep-copies the slices so callers can fold changes over a snapshot
// without mutating it.
func (c Cart) Clone() Cart {
	out := c
	if c.Lines != nil {
		out.Lines = append([]CartLine(nil), c.Lines...)
	}
	if c.DiscountCodes != nil {
		out.DiscountCodes = append([]DiscountCode(nil), c.DiscountCodes...)
	}
	if c.AppliedGiftCards != nil {
		out.AppliedGiftCards = append([]AppliedGiftCard(nil), c.AppliedGiftCards...)
	}
	return out
}

// LineByID returns the index of the line with the given id or -1.
func (c Cart) LineByID(id string) int {
	for i, line := range c.Lines {
		if line.ID == id {
			return i
		}
	}
	return -1
}

// LineByMerchandise returns the index of the line holding the merchandise or -1.
func (c Cart) LineByMerchandise(merchandiseID string) int {
	for i, line := range c.Lines {
		if line.MerchandiseID == merchandiseID {
			return i
		}
	}
	return -1
}

// Totals recomputes subtotal and total quantity from the lines.
func (c Cart) Totals() (Money, int) {
	subtotal := ZeroMoney(c.Currency)
	qty := 0
	for _, line := range c.Lines {
		subtotal = subtotal.Plus(line.Cost.TotalAmount)
		qty += line.Quantity
	}
	return subtotal, qty
}
