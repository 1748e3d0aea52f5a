// Package cache implements the consistency cache every read path goes
// through: a keyed in-memory store with two independent staleness policies
// (chain-head advancement and wall-clock age), single-flight request
// collapsing, and prefix-based bulk invalidation.
//
// Cache state is scoped to one client instance, never process-wide, so
// concurrent clients stay isolated.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tribeshq/tribes-go/pkg/errors"
)

// Policy controls when a stored entry goes stale. BlockBased entries are
// stale once the chain head advances past their creation block; MaxAge
// entries are stale once that duration elapses. With both set, staleness is
// the logical OR. The zero Policy caches until explicit invalidation.
type Policy struct {
	BlockBased bool
	MaxAge     time.Duration
}

// HeadFunc reports the current chain head. The gateway's BlockNumber
// satisfies it.
type HeadFunc func(ctx context.Context) (uint64, error)

type entry struct {
	value    any
	policy   Policy
	block    uint64
	storedAt time.Time
}

// Cache is safe for concurrent use. Exactly one producer runs per key at any
// time; concurrent callers for the same unset or stale key share its single
// result or single failure.
type Cache struct {
	head HeadFunc

	mu      sync.RWMutex
	entries map[string]*entry
	group   singleflight.Group
}

func New(head HeadFunc) *Cache {
	return &Cache{
		head:    head,
		entries: make(map[string]*entry),
	}
}

// GetOrCompute returns the cached value for key if fresh, otherwise runs
// produce exactly once across concurrent callers, stores the result under
// policy, and returns it to all waiters. A producer failure is not cached:
// it propagates to every current waiter and leaves the key absent so the
// next call retries.
func (c *Cache) GetOrCompute(ctx context.Context, key string, policy Policy, produce func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := c.lookup(ctx, key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A waiter may have been queued behind a flight that already stored
		// the value; recheck before producing.
		if v, ok := c.lookup(ctx, key); ok {
			return v, nil
		}

		value, err := produce(ctx)
		if err != nil {
			return nil, err
		}

		e := &entry{value: value, policy: policy, storedAt: time.Now()}
		if policy.BlockBased {
			head, err := c.head(ctx)
			if err != nil {
				// Without a creation block the entry's staleness cannot be
				// evaluated; hand the value back uncached.
				return value, nil
			}
			e.block = head
		}

		c.mu.Lock()
		c.entries[key] = e
		c.mu.Unlock()
		return value, nil
	})
	return v, err
}

// lookup returns the entry's value if present and still fresh.
func (c *Cache) lookup(ctx context.Context, key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if e.policy.MaxAge > 0 && time.Since(e.storedAt) >= e.policy.MaxAge {
		return nil, false
	}
	if e.policy.BlockBased {
		head, err := c.head(ctx)
		if err != nil || head > e.block {
			return nil, false
		}
	}
	return e.value, true
}

// Invalidate removes a single entry.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateByPrefix removes every entry whose key starts with prefix. Used
// to bulk-invalidate all paginated and filtered variants of a logical
// listing without tracking each variant key.
func (c *Cache) InvalidateByPrefix(prefix string) {
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// Clear drops every entry. Called on client teardown.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// Has reports whether key currently holds an entry, fresh or not.
func (c *Cache) Has(key string) bool {
	c.mu.RLock()
	_, ok := c.entries[key]
	c.mu.RUnlock()
	return ok
}

// Len reports the number of stored entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return n
}

// Lookup is the typed wrapper around GetOrCompute.
func Lookup[T any](ctx context.Context, c *Cache, key string, policy Policy, produce func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.GetOrCompute(ctx, key, policy, func(ctx context.Context) (any, error) {
		return produce(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, errors.New(errors.ErrCodeContract, fmt.Sprintf("unexpected cached type %T for key %q", v, key))
	}
	return out, nil
}
