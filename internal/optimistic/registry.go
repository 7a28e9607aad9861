package optimistic

import "context"

type inflight struct {
	generation uint64
	cancel     context.CancelFunc
}

// Registry tracks the in-flight request per coalescing key. Starting a request
// for a key that is already in flight aborts the older request's context.
// Generations are per key and never reused.
type Registry struct {
	entries     map[string]inflight
	generations map[string]uint64
}

func NewRegistry() *Registry {
	return &Registry{
		entries:     make(map[string]inflight),
		generations: make(map[string]uint64),
	}
}

// Begin registers a new request for key and returns its generation and the
// context the transport should use.
func (r *Registry) Begin(parent context.Context, key string) (uint64, context.Context) {
	if parent == nil {
		parent = context.Background()
	}
	if old, ok := r.entries[key]; ok {
		old.cancel()
	}
	gen := r.generations[key] + 1
	r.generations[key] = gen
	ctx, cancel := context.WithCancel(parent)
	r.entries[key] = inflight{generation: gen, cancel: cancel}
	return gen, ctx
}

// Current reports whether gen is the live request for key.
func (r *Registry) Current(key string, gen uint64) bool {
	e, ok := r.entries[key]
	return ok && e.generation == gen
}

// Finish releases the entry when gen is still current. It reports false for
// superseded or already finished requests.
func (r *Registry) Finish(key string, gen uint64) bool {
	e, ok := r.entries[key]
	if !ok || e.generation != gen {
		return false
	}
	e.cancel()
	delete(r.entries, key)
	return true
}

// Len is the number of keys with a live request.
func (r *Registry) Len() int {
	return len(r.entries)
}

// CancelAll aborts every live request.
func (r *Registry) CancelAll() {
	for key, e := range r.entries {
		e.cancel()
		delete(r.entries, key)
	}
}
