package cart

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

var permyriadScale = decimal.NewFromInt(10000)

// price derives cost, quantity, applied gift cards and the checkout URL from
// a stored cart. Applicable discount percentages stack up to 100% of the
// subtotal; gift cards then cover what remains in attach order.
func (s *Service) price(rec *cartrepo.Record) *domain.Cart {
	cart := rec.Cart.Clone()
	if cart.Lines == nil {
		cart.Lines = []domain.CartLine{}
	}
	if cart.DiscountCodes == nil {
		cart.DiscountCodes = []domain.DiscountCode{}
	}

	subtotal, qty := cart.Totals()
	permyriad := 0
	for _, dc := range cart.DiscountCodes {
		if dc.Applicable {
			permyriad += rec.DiscountPermyriad[dc.Code]
		}
	}
	if permyriad > 10000 {
		permyriad = 10000
	}
	discount := subtotal.Amount.Mul(decimal.NewFromInt(int64(permyriad))).Div(permyriadScale).Round(2)
	remaining := subtotal.Amount.Sub(discount)

	cart.AppliedGiftCards = []domain.AppliedGiftCard{}
	for _, g := range rec.GiftCards {
		balance := domain.MoneyFromCents(g.BalanceCents, cart.Currency).Amount
		used := decimal.Min(balance, remaining)
		if used.IsNegative() {
			used = decimal.Zero
		}
		remaining = remaining.Sub(used)
		cart.AppliedGiftCards = append(cart.AppliedGiftCards, domain.AppliedGiftCard{
			ID:             g.ID,
			LastCharacters: LastCharacters(g.Code),
			AmountUsed:     domain.Money{Amount: used, CurrencyCode: cart.Currency},
		})
	}

	cart.Cost = domain.CartCost{
		SubtotalAmount: subtotal,
		TotalAmount:    domain.Money{Amount: remaining, CurrencyCode: cart.Currency}.NonNegative(),
	}
	cart.TotalQuantity = qty
	if s.checkoutBaseURL != "" {
		cart.CheckoutURL = s.checkoutBaseURL + "/cart/c/" + cart.ID
	}
	return &cart
}

// LastCharacters is the visible suffix of a gift card code.
func LastCharacters(code string) string {
	code = strings.ToUpper(code)
	if len(code) <= 4 {
		return code
	}
	return code[len(code)-4:]
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
