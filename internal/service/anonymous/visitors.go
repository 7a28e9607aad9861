package anonymous

import (
	"crypto/rand"
	"sync"
	"time"
)

type visitor struct {
	anonymousID string
	shopID      string
	expires     time.Time
}

// visitors is the in-memory token table for anonymous sessions.
type visitors struct {
	clock func() time.Time

	mu      sync.Mutex
	byToken map[string]visitor
}

func newVisitors(clock func() time.Time) *visitors {
	return &visitors{clock: clock, byToken: make(map[string]visitor)}
}

// grant registers one token per ttl for the same visitor and returns them in
// order.
func (v *visitors) grant(shopID, anonymousID string, ttls ...time.Duration) []string {
	now := v.clock()
	out := make([]string, len(ttls))
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, ttl := range ttls {
		token := rand.Text()
		for _, taken := v.byToken[token]; taken; _, taken = v.byToken[token] {
			token = rand.Text()
		}
		v.byToken[token] = visitor{anonymousID: anonymousID, shopID: shopID, expires: now.Add(ttl)}
		out[i] = token
	}
	return out
}

// lookup resolves a live token issued for shopID. Expired entries are dropped.
func (v *visitors) lookup(shopID, token string) (string, bool) {
	now := v.clock()
	v.mu.Lock()
	defer v.mu.Unlock()
	entry, ok := v.byToken[token]
	if !ok {
		return "", false
	}
	if !now.Before(entry.expires) {
		delete(v.byToken, token)
		return "", false
	}
	if entry.shopID != shopID {
		return "", false
	}
	return entry.anonymousID, true
}

func (v *visitors) sweep() int {
	now := v.clock()
	v.mu.Lock()
	defer v.mu.Unlock()
	removed := 0
	for token, entry := range v.byToken {
		if !now.Before(entry.expires) {
			delete(v.byToken, token)
			removed++
		}
	}
	return removed
}
