package profile

import (
	"context"
	"sync"
)

// Cached wraps a source with a last-known-good cache so an unreachable
// profile service degrades to the cached policy instead of failing the
// payment path. A cold cache falls back to the defaults.
type Cached struct {
	src Source

	mu   sync.Mutex
	last map[string]Policy
}

// NewCached wraps src.
func NewCached(src Source) *Cached {
	return &Cached{src: src, last: map[string]Policy{}}
}

// Make sure we conform to the interface.
var _ Source = (*Cached)(nil)

// Policy fetches the user's policy, falling back to the last seen value and
// then to DefaultPolicy.
func (c *Cached) Policy(ctx context.Context, userID string) (Policy, error) {
	p, err := c.src.Policy(ctx, userID)
	if err == nil {
		c.mu.Lock()
		c.last[userID] = p
		c.mu.Unlock()
		return p, nil
	}

	c.mu.Lock()
	last, ok := c.last[userID]
	c.mu.Unlock()
	if ok {
		return last, nil
	}
	return DefaultPolicy(), nil
}
