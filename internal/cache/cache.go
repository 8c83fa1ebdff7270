// Package cache is the per-package verdict store: a performance cache for
// repeated requests and the dependency-risk knowledge base for later
// analyses of other packages.
package cache

import (
	"context"
	"log"
	"sync"

	"github.com/mertkaradayi/redflag-sub001/internal/artifact"
)

// Key builds the canonical cache key for a package on a network.
func Key(packageID, network string) string {
	return packageID + "@" + network
}

// Store is the backing key-value contract. Entries are write-once under
// normal operation; there is no TTL or invalidation.
type Store interface {
	Get(ctx context.Context, key string) (artifact.SafetyCard, bool, error)
	Set(ctx context.Context, key string, card artifact.SafetyCard) error
}

type inflight struct {
	done chan struct{}
	card artifact.SafetyCard
	err  error
}

// Cache wraps a Store with a per-key in-flight guard so two concurrent
// requests for the same uncached key run the computation exactly once.
type Cache struct {
	store Store

	mu      sync.Mutex
	pending map[string]*inflight
}

func New(store Store) *Cache {
	return &Cache{store: store, pending: make(map[string]*inflight)}
}

// GetOrCompute returns the cached card for key, or runs fn once and caches
// its result. The second return reports whether the card came from the
// store (or from another in-flight computation) rather than from fn.
func (c *Cache) GetOrCompute(ctx context.Context, key string, fn func(ctx context.Context) (artifact.SafetyCard, error)) (artifact.SafetyCard, bool, error) {
	if card, ok, err := c.store.Get(ctx, key); err != nil {
		return artifact.SafetyCard{}, false, err
	} else if ok {
		return card, true, nil
	}

	c.mu.Lock()
	if in, ok := c.pending[key]; ok {
		c.mu.Unlock()
		select {
		case <-in.done:
			return in.card, true, in.err
		case <-ctx.Done():
			return artifact.SafetyCard{}, false, ctx.Err()
		}
	}
	in := &inflight{done: make(chan struct{})}
	c.pending[key] = in
	c.mu.Unlock()

	in.card, in.err = fn(ctx)
	if in.err == nil {
		if err := c.store.Set(ctx, key, in.card); err != nil {
			log.Printf("cache: persisting %s failed: %v", key, err)
		}
	}

	c.mu.Lock()
	delete(c.pending, key)
	c.mu.Unlock()
	close(in.done)

	return in.card, false, in.err
}

// Peek is the read-only lookup used for dependency-risk inheritance. Store
// errors degrade to a miss; dependency context is advisory.
func (c *Cache) Peek(ctx context.Context, key string) (artifact.SafetyCard, bool) {
	card, ok, err := c.store.Get(ctx, key)
	if err != nil {
		log.Printf("cache: peek %s failed: %v", key, err)
		return artifact.SafetyCard{}, false
	}
	return card, ok
}
