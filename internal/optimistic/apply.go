package optimistic

import (
	"strings"

	"storefront/internal/domain"
)

// Pending is an in-flight action as tracked by the overlay.
type Pending struct {
	Key        string
	Generation uint64
	Seq        uint64
	Action     Action
	// ProvisionalIDs maps merchandise id to the temporary line id shown while
	// an add is unconfirmed. Later adds of the same merchandise reuse it.
	ProvisionalIDs map[string]string
}

// View is the cart as the UI should render it.
type View struct {
	domain.Cart
	InFlight int
	Errors   map[string]string
}

// ErrorFor returns the inline error recorded for a line id, merchandise id or
// one of the Target constants.
func (v View) ErrorFor(target string) string {
	if v.Errors == nil {
		return ""
	}
	return v.Errors[target]
}

// Apply folds pending actions over the snapshot in submission order. It does
// not modify its inputs and returns the snapshot unchanged when nothing is
// pending.
func Apply(snapshot domain.Cart, pending []Pending) View {
	cart := snapshot.Clone()
	if len(pending) == 0 {
		return View{Cart: cart}
	}
	for _, p := range pending {
		cart = applyOne(cart, p)
	}
	normalize(&cart, snapshot)
	return View{Cart: cart, InFlight: len(pending)}
}

func applyOne(cart domain.Cart, p Pending) domain.Cart {
	a := p.Action
	switch a.Kind {
	case LinesAdd:
		for _, in := range a.Lines {
			if in.Quantity <= 0 {
				continue
			}
			if i := cart.LineByMerchandise(in.MerchandiseID); i >= 0 {
				line := cart.Lines[i]
				line.Quantity += in.Quantity
				line.IsOptimistic = true
				cart.Lines[i] = repriced(line)
				continue
			}
			cart.Lines = append(cart.Lines, provisionalLine(cart.Currency, p, in))
		}
	case LinesUpdate:
		for _, in := range a.Lines {
			i := cart.LineByID(in.ID)
			if i < 0 {
				continue
			}
			line := cart.Lines[i]
			line.Quantity = max(in.Quantity, 0)
			cart.Lines[i] = repriced(line)
		}
	case LinesRemove:
		remove := make(map[string]struct{}, len(a.LineIDs))
		for _, id := range a.LineIDs {
			remove[id] = struct{}{}
		}
		kept := cart.Lines[:0:0]
		for _, line := range cart.Lines {
			if _, ok := remove[line.ID]; !ok {
				kept = append(kept, line)
			}
		}
		cart.Lines = kept
	case DiscountCodesUpdate:
		codes := make([]domain.DiscountCode, 0, len(a.DiscountCodes))
		seen := map[string]struct{}{}
		for _, raw := range a.DiscountCodes {
			code := strings.ToUpper(strings.TrimSpace(raw))
			if code == "" {
				continue
			}
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			codes = append(codes, domain.DiscountCode{Code: code, Applicable: true})
		}
		cart.DiscountCodes = codes
	case GiftCardCodesUpdate:
		cards := append([]domain.AppliedGiftCard(nil), cart.AppliedGiftCards...)
		for _, raw := range a.GiftCardCodes {
			code := strings.Join(strings.Fields(raw), "")
			if code == "" {
				continue
			}
			last := lastCharacters(code)
			if hasGiftCard(cards, last) {
				continue
			}
			cards = append(cards, domain.AppliedGiftCard{
				ID:             domain.OptimisticLineIDPrefix + code,
				LastCharacters: last,
				AmountUsed:     domain.ZeroMoney(cart.Currency),
			})
		}
		cart.AppliedGiftCards = cards
	case GiftCardCodesRemove:
		remove := make(map[string]struct{}, len(a.GiftCardIDs))
		for _, id := range a.GiftCardIDs {
			remove[id] = struct{}{}
		}
		kept := cart.AppliedGiftCards[:0:0]
		for _, card := range cart.AppliedGiftCards {
			if _, ok := remove[card.ID]; !ok {
				kept = append(kept, card)
			}
		}
		cart.AppliedGiftCards = kept
	}
	return cart
}

func provisionalLine(currency string, p Pending, in LineInput) domain.CartLine {
	id := p.ProvisionalIDs[in.MerchandiseID]
	if id == "" {
		id = domain.OptimisticLineIDPrefix + in.MerchandiseID
	}
	merch := domain.Merchandise{ID: in.MerchandiseID, Price: domain.ZeroMoney(currency)}
	if in.Merchandise != nil {
		merch = *in.Merchandise
		merch.ID = in.MerchandiseID
	}
	return repriced(domain.CartLine{
		ID:            id,
		MerchandiseID: in.MerchandiseID,
		Merchandise:   merch,
		Quantity:      in.Quantity,
		Cost:          domain.CartLineCost{AmountPerQuantity: merch.Price},
		IsOptimistic:  true,
	})
}

// repriced recomputes the line total from its unit amount.
func repriced(line domain.CartLine) domain.CartLine {
	unit := line.Cost.AmountPerQuantity
	if unit.CurrencyCode == "" && unit.Amount.IsZero() {
		unit = line.Merchandise.Price
		line.Cost.AmountPerQuantity = unit
	}
	line.Cost.TotalAmount = unit.Times(line.Quantity)
	return line
}

// normalize drops emptied lines and recomputes aggregates. The total keeps the
// server's discount and gift card deductions by shifting it with the subtotal.
func normalize(cart *domain.Cart, snapshot domain.Cart) {
	kept := cart.Lines[:0:0]
	for _, line := range cart.Lines {
		if line.Quantity > 0 {
			kept = append(kept, line)
		}
	}
	cart.Lines = kept

	subtotal, qty := cart.Totals()
	delta := subtotal.Minus(snapshot.Cost.SubtotalAmount)
	cart.Cost.SubtotalAmount = subtotal
	cart.Cost.TotalAmount = snapshot.Cost.TotalAmount.Plus(delta).NonNegative()
	cart.TotalQuantity = qty
}

func lastCharacters(code string) string {
	if len(code) <= 4 {
		return code
	}
	return code[len(code)-4:]
}

func hasGiftCard(cards []domain.AppliedGiftCard, last string) bool {
	for _, c := range cards {
		if strings.EqualFold(c.LastCharacters, last) {
			return true
		}
	}
	return false
}
