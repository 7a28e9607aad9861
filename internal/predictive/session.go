// Package predictive keeps type-ahead search results consistent with the
// latest input while lookups complete out of order.
package predictive

import (
	"strings"

	"storefront/internal/domain"
)

type State int

const (
	Idle State = iota
	Loading
	Loaded
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "idle"
	}
}

// DefaultLimit is the per-bucket result limit used when none is configured.
const DefaultLimit = 10

type Result = domain.PredictiveResult

// EmptyResult has every bucket present and empty.
func EmptyResult() Result {
	return domain.EmptyPredictiveResult()
}

// Request is a lookup the caller should issue. Responses are handed back with
// the same Generation.
type Request struct {
	Generation uint64
	Term       string
	Limit      int
}

// Snapshot is what the UI renders.
type Snapshot struct {
	Term       string
	State      State
	Result     Result
	Generation uint64
	Err        error
}

// Session tracks one search widget. A response is accepted only if it carries
// the latest generation, so results never flick back to an older query.
// Superseded lookups are not aborted; their responses are dropped on arrival.
// Not safe for concurrent use.
type Session struct {
	term   string
	gen    uint64
	state  State
	result Result
	err    error
	limit  int
}

func NewSession(limit int) *Session {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Session{limit: limit, result: EmptyResult()}
}

// OnInputChange records the term and starts a new generation. Blank input
// returns the session to idle, discards in-flight lookups and issues nothing.
func (s *Session) OnInputChange(term string) (Request, bool) {
	s.term = term
	s.gen++
	s.err = nil
	if strings.TrimSpace(term) == "" {
		s.state = Idle
		s.result = EmptyResult()
		return Request{}, false
	}
	s.state = Loading
	return s.request(), true
}

// Focus re-issues the lookup for a retained term when the widget regains
// focus while idle.
func (s *Session) Focus() (Request, bool) {
	if s.state != Idle || strings.TrimSpace(s.term) == "" {
		return Request{}, false
	}
	s.gen++
	s.state = Loading
	s.err = nil
	return s.request(), true
}

// Blur leaves the term in place but drops in-flight lookups.
func (s *Session) Blur() {
	s.gen++
	s.state = Idle
}

// OnResponse stores results for the current generation. It reports false,
// leaving the session untouched, for anything else.
func (s *Session) OnResponse(gen uint64, result Result) bool {
	if !s.Debounced(gen) {
		return false
	}
	s.result = result
	s.err = nil
	s.state = Loaded
	return true
}

// OnError settles the current generation with an empty result and the error.
func (s *Session) OnError(gen uint64, err error) bool {
	if !s.Debounced(gen) {
		return false
	}
	s.result = EmptyResult()
	s.err = err
	s.state = Loaded
	return true
}

// Debounced reports whether gen is still the live lookup. Adapters use it to
// drop debounce ticks that a later keystroke superseded.
func (s *Session) Debounced(gen uint64) bool {
	return s.state == Loading && gen == s.gen
}

// Close clears the term and invalidates any in-flight generation.
func (s *Session) Close() {
	s.term = ""
	s.gen++
	s.state = Idle
	s.result = EmptyResult()
	s.err = nil
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Term:       s.term,
		State:      s.state,
		Result:     s.result,
		Generation: s.gen,
		Err:        s.err,
	}
}

func (s *Session) request() Request {
	return Request{Generation: s.gen, Term: strings.TrimSpace(s.term), Limit: s.limit}
}
