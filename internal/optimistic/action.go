// Package optimistic overlays in-flight cart mutations on the last confirmed
// cart snapshot so a UI can render the expected cart before the server answers.
package optimistic

import (
	"errors"
	"sort"
	"strings"

	"storefront/internal/domain"
)

// Kind names a cart mutation. Values match the backend's action names.
type Kind string

const (
	LinesAdd            Kind = "LinesAdd"
	LinesUpdate         Kind = "LinesUpdate"
	LinesRemove         Kind = "LinesRemove"
	DiscountCodesUpdate Kind = "DiscountCodesUpdate"
	GiftCardCodesUpdate Kind = "GiftCardCodesUpdate"
	GiftCardCodesRemove Kind = "GiftCardCodesRemove"
)

// Error targets for actions that do not address a line.
const (
	TargetDiscountCodes = "discountCodes"
	TargetGiftCardCodes = "giftCardCodes"
)

var (
	ErrInvalidAction        = errors.New("invalid cart action")
	ErrQuantityBelowMinimum = errors.New("quantity must be at least 1, remove the line instead")
	ErrLineOptimistic       = errors.New("line is awaiting confirmation")
	ErrLineNotFound         = errors.New("line not found")
)

// LineInput is a line payload for LinesAdd (MerchandiseID) or LinesUpdate (ID).
// Merchandise is client-only detail used to render a provisional line.
type LineInput struct {
	ID            string              `json:"id,omitempty"`
	MerchandiseID string              `json:"merchandiseId,omitempty"`
	Quantity      int                 `json:"quantity"`
	Merchandise   *domain.Merchandise `json:"-"`
}

// Action is one cart mutation as sent to the backend.
type Action struct {
	Kind          Kind        `json:"action"`
	Lines         []LineInput `json:"lines,omitempty"`
	LineIDs       []string    `json:"lineIds,omitempty"`
	DiscountCodes []string    `json:"discountCodes,omitempty"`
	GiftCardCodes []string    `json:"giftCardCodes,omitempty"`
	GiftCardIDs   []string    `json:"giftCardIds,omitempty"`
}

// Key derives the coalescing key: actions with equal keys target the same
// entity and must not both be applied. Add is keyed strictly by merchandise
// identity; update and remove of the same lines share a key so the later one
// cancels the earlier.
func Key(a Action) string {
	switch a.Kind {
	case LinesAdd:
		ids := make([]string, 0, len(a.Lines))
		for _, l := range a.Lines {
			ids = append(ids, l.MerchandiseID)
		}
		return joinKey(string(LinesAdd), ids)
	case LinesUpdate:
		ids := make([]string, 0, len(a.Lines))
		for _, l := range a.Lines {
			ids = append(ids, l.ID)
		}
		return joinKey(string(LinesUpdate), ids)
	case LinesRemove:
		return joinKey(string(LinesUpdate), a.LineIDs)
	case GiftCardCodesRemove:
		return joinKey(string(GiftCardCodesRemove), a.GiftCardIDs)
	default:
		return string(a.Kind)
	}
}

func joinKey(prefix string, ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return strings.Join(append([]string{prefix}, sorted...), "-")
}

// targets lists the error-indicator targets an action's failure is reported on.
func targets(a Action) []string {
	switch a.Kind {
	case LinesAdd:
		out := make([]string, 0, len(a.Lines))
		for _, l := range a.Lines {
			out = append(out, l.MerchandiseID)
		}
		return out
	case LinesUpdate:
		out := make([]string, 0, len(a.Lines))
		for _, l := range a.Lines {
			out = append(out, l.ID)
		}
		return out
	case LinesRemove:
		return append([]string(nil), a.LineIDs...)
	case DiscountCodesUpdate:
		return []string{TargetDiscountCodes}
	case GiftCardCodesUpdate, GiftCardCodesRemove:
		return []string{TargetGiftCardCodes}
	}
	return nil
}

func validate(a Action) error {
	switch a.Kind {
	case LinesAdd:
		if len(a.Lines) == 0 {
			return ErrInvalidAction
		}
		for _, l := range a.Lines {
			if strings.TrimSpace(l.MerchandiseID) == "" || l.Quantity <= 0 {
				return ErrInvalidAction
			}
		}
	case LinesUpdate:
		if len(a.Lines) == 0 {
			return ErrInvalidAction
		}
		for _, l := range a.Lines {
			if strings.TrimSpace(l.ID) == "" {
				return ErrInvalidAction
			}
			if isProvisional(l.ID) {
				return ErrLineOptimistic
			}
			if l.Quantity < 1 {
				return ErrQuantityBelowMinimum
			}
		}
	case LinesRemove:
		if len(a.LineIDs) == 0 {
			return ErrInvalidAction
		}
		for _, id := range a.LineIDs {
			if isProvisional(id) {
				return ErrLineOptimistic
			}
		}
	case DiscountCodesUpdate, GiftCardCodesUpdate:
	case GiftCardCodesRemove:
		if len(a.GiftCardIDs) == 0 {
			return ErrInvalidAction
		}
	default:
		return ErrInvalidAction
	}
	return nil
}

func isProvisional(id string) bool {
	return strings.HasPrefix(id, domain.OptimisticLineIDPrefix)
}
