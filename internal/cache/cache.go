// Package cache provides the TTL caches shared across concurrent searches:
// a search-result cache and a paper-enrichment cache, both with
// single-flight coordination so one key computes at most once at a time.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultSearchTTL is how long a computed search result stays valid.
	DefaultSearchTTL = 24 * time.Hour

	// DefaultPaperTTL is how long per-paper enrichment stays valid.
	DefaultPaperTTL = 7 * 24 * time.Hour

	// DefaultSweepInterval is how often the janitor evicts expired
	// entries.
	DefaultSweepInterval = 10 * time.Minute
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is an in-memory TTL cache with single-flight get-or-compute.
// Entries expire only by TTL; there is no explicit invalidation.
// All mutation goes through Set or GetOrCompute, never ad hoc locking by
// callers.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	group   singleflight.Group

	onShared func()
	onEvict  func(count int)

	stopJanitor chan struct{}
	stopOnce    sync.Once
}

// New creates a cache whose entries live for ttl. A positive sweepInterval
// starts a janitor goroutine that evicts expired entries; Close stops it.
func New[V any](ttl, sweepInterval time.Duration) *Cache[V] {
	c := &Cache[V]{
		entries:     make(map[string]entry[V]),
		ttl:         ttl,
		stopJanitor: make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.janitor(sweepInterval)
	}
	return c
}

// OnShared registers fn to be called each time a GetOrCompute caller
// joins another caller's in-flight computation instead of starting its
// own. Must be set before the cache is used.
func (c *Cache[V]) OnShared(fn func()) {
	c.onShared = fn
}

// OnEvict registers fn to be called with the number of entries the
// janitor removed in one sweep. Must be set before the cache is used.
func (c *Cache[V]) OnEvict(fn func(count int)) {
	c.onEvict = fn
}

// Get returns the cached value for key if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the cache's TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// GetOrCompute returns the cached value for key, or runs compute once and
// caches its result. Concurrent callers for the same key while a
// computation is in flight share that computation's outcome instead of
// triggering duplicates.
//
// The second return reports whether the value came from the cache. A
// compute error, or cancellation of the computing context, is propagated
// to every waiter and writes nothing.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	shared := false
	led := false
	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		led = true
		// A racing caller may have stored the value between our Get and
		// the flight start.
		if v, ok := c.Get(key); ok {
			shared = true
			return v, nil
		}

		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			// Cancelled mid-computation: the result may be partial, so
			// it must not land in the cache.
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	// Callers whose closure never ran rode along on another caller's
	// flight.
	if !led && c.onShared != nil {
		c.onShared()
	}
	if err != nil {
		var zero V
		return zero, false, err
	}
	return result.(V), shared, nil
}

// Len reports the number of stored entries, including not-yet-swept
// expired ones.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the janitor goroutine. The cache remains usable.
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stopJanitor) })
}

// janitor evicts expired entries on a fixed interval.
func (c *Cache[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopJanitor:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			evicted := 0
			for key, e := range c.entries {
				if now.After(e.expiresAt) {
					delete(c.entries, key)
					evicted++
				}
			}
			c.mu.Unlock()
			if evicted > 0 && c.onEvict != nil {
				c.onEvict(evicted)
			}
		}
	}
}
