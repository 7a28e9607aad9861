package optimistic

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// GenericErrorMessage is shown when a mutation fails without a user error.
const GenericErrorMessage = "Something went wrong. Please try again."

// Ticket identifies one submitted action. The transport sends Action using
// Ctx, then hands the outcome back through Settle.
type Ticket struct {
	Key        string
	Generation uint64
	Seq        uint64
	Action     Action
	Ctx        context.Context
}

// Result is the outcome of a cart mutation request.
type Result struct {
	Cart       *domain.Cart
	UserErrors []domain.UserError
	Err        error
}

// Failed is true for transport errors, user errors, or a missing cart.
func (r Result) Failed() bool {
	return r.Err != nil || len(r.UserErrors) > 0 || r.Cart == nil
}

func (r Result) message() string {
	for _, ue := range r.UserErrors {
		if ue.Message != "" {
			return ue.Message
		}
	}
	return GenericErrorMessage
}

// Overlay owns the confirmed snapshot and the pending actions of one cart.
// It is not safe for concurrent use; a single event loop owns it.
type Overlay struct {
	snapshot    domain.Cart
	snapshotSeq uint64
	pending     []Pending
	registry    *Registry
	errors      map[string]string
	seq         uint64
	newID       func() string
}

type Option func(*Overlay)

// WithIDGenerator overrides how provisional line ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(o *Overlay) {
		if fn != nil {
			o.newID = fn
		}
	}
}

func New(snapshot domain.Cart, opts ...Option) *Overlay {
	o := &Overlay{
		snapshot: snapshot,
		registry: NewRegistry(),
		errors:   make(map[string]string),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Enqueue validates and records an action. An in-flight action with the same
// key is superseded: its request context is cancelled and it no longer
// contributes to the view. Adds are the exception because the backend applies
// them as deltas: each add keeps its own request and the view sums adds of the
// same merchandise onto one line.
func (o *Overlay) Enqueue(ctx context.Context, a Action) (Ticket, error) {
	if err := validate(a); err != nil {
		return Ticket{}, err
	}
	key := Key(a)
	provisional := map[string]string{}
	if a.Kind == LinesAdd {
		key = fmt.Sprintf("%s#%d", key, o.seq+1)
		for _, l := range a.Lines {
			if id := o.provisionalID(l.MerchandiseID); id != "" {
				provisional[l.MerchandiseID] = id
				continue
			}
			if o.snapshot.LineByMerchandise(l.MerchandiseID) >= 0 {
				continue
			}
			provisional[l.MerchandiseID] = domain.OptimisticLineIDPrefix + o.newID()
		}
	} else if i := o.pendingIndex(key); i >= 0 {
		o.pending = append(o.pending[:i], o.pending[i+1:]...)
	}
	for _, t := range targets(a) {
		delete(o.errors, t)
	}

	gen, reqCtx := o.registry.Begin(ctx, key)
	o.seq++
	o.pending = append(o.pending, Pending{
		Key:            key,
		Generation:     gen,
		Seq:            o.seq,
		Action:         a,
		ProvisionalIDs: provisional,
	})
	return Ticket{Key: key, Generation: gen, Seq: o.seq, Action: a, Ctx: reqCtx}, nil
}

// Settle applies the outcome of a ticket. Superseded or already settled
// tickets are ignored and Settle reports false. On success the returned cart
// becomes authoritative unless the server already produced a newer one.
// On failure the action's effect is dropped and an error is recorded against
// its targets; the rest of the view is untouched.
func (o *Overlay) Settle(t Ticket, res Result) bool {
	if !o.registry.Finish(t.Key, t.Generation) {
		return false
	}
	for i, p := range o.pending {
		if p.Key == t.Key && p.Generation == t.Generation {
			o.pending = append(o.pending[:i], o.pending[i+1:]...)
			break
		}
	}
	if !res.Failed() {
		if o.newerThanSnapshot(t, res.Cart) {
			o.snapshot = res.Cart.Clone()
			o.snapshotSeq = t.Seq
		}
		return true
	}
	msg := res.message()
	for _, target := range targets(t.Action) {
		o.errors[target] = msg
	}
	return true
}

// newerThanSnapshot orders carts by the server's update time. Requests for
// different keys may be processed in any order, so submission order only
// decides when a cart carries no timestamp.
func (o *Overlay) newerThanSnapshot(t Ticket, cart *domain.Cart) bool {
	if !cart.UpdatedAt.IsZero() && !o.snapshot.UpdatedAt.IsZero() {
		return !cart.UpdatedAt.Before(o.snapshot.UpdatedAt)
	}
	return t.Seq >= o.snapshotSeq
}

// View renders the snapshot with pending actions applied.
func (o *Overlay) View() View {
	v := Apply(o.snapshot, o.pending)
	if len(o.errors) > 0 {
		v.Errors = make(map[string]string, len(o.errors))
		for k, msg := range o.errors {
			v.Errors[k] = msg
		}
	}
	return v
}

// Snapshot returns the last confirmed cart.
func (o *Overlay) Snapshot() domain.Cart {
	return o.snapshot.Clone()
}

// Pending returns the in-flight actions in submission order.
func (o *Overlay) Pending() []Pending {
	return append([]Pending(nil), o.pending...)
}

// Replace installs a freshly loaded cart, keeping pending actions.
func (o *Overlay) Replace(snapshot domain.Cart) {
	o.snapshot = snapshot.Clone()
}

// DismissError clears the inline error for a target.
func (o *Overlay) DismissError(target string) {
	delete(o.errors, target)
}

// Step builds an absolute-quantity update for a line from the current view,
// so repeated clicks compound on what the user sees.
func (o *Overlay) Step(lineID string, delta int) (Action, error) {
	view := o.View()
	i := view.LineByID(lineID)
	if i < 0 {
		return Action{}, ErrLineNotFound
	}
	line := view.Lines[i]
	if line.IsOptimistic {
		return Action{}, ErrLineOptimistic
	}
	next := line.Quantity + delta
	if next < 1 {
		return Action{}, ErrQuantityBelowMinimum
	}
	return Action{Kind: LinesUpdate, Lines: []LineInput{{ID: lineID, Quantity: next}}}, nil
}

// Close aborts every in-flight request.
func (o *Overlay) Close() {
	o.registry.CancelAll()
}

// provisionalID returns the temporary line id an earlier in-flight add gave
// the merchandise.
func (o *Overlay) provisionalID(merchandiseID string) string {
	for _, p := range o.pending {
		if id, ok := p.ProvisionalIDs[merchandiseID]; ok {
			return id
		}
	}
	return ""
}

func (o *Overlay) pendingIndex(key string) int {
	for i, p := range o.pending {
		if p.Key == key {
			return i
		}
	}
	return -1
}
