// Package ttlcache provides a single-slot cache with expiry for expensive
// derived computations. On expiry exactly one caller performs the refresh;
// concurrent callers are served the last-known-good value instead of piling
// onto the refresh function.
package ttlcache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type RefreshFunc[T any] func(ctx context.Context) (T, error)

type Cache[T any] struct {
	ttl     time.Duration
	refresh RefreshFunc[T]

	mu        sync.RWMutex
	value     T
	hasValue  bool
	expiresAt time.Time

	group singleflight.Group
}

func New[T any](ttl time.Duration, refresh RefreshFunc[T]) *Cache[T] {
	return &Cache[T]{
		ttl:     ttl,
		refresh: refresh,
	}
}

// Get returns the cached value, refreshing it when expired. While a refresh
// is in flight other callers receive the stale value if one exists; when the
// cache has never been filled they wait for the in-flight refresh. A failed
// refresh keeps serving the previous value rather than erroring the caller.
func (c *Cache[T]) Get(ctx context.Context) (T, error) {
	c.mu.RLock()
	value, ok, fresh := c.value, c.hasValue, time.Now().Before(c.expiresAt)
	c.mu.RUnlock()

	if ok && fresh {
		return value, nil
	}

	if ok {
		// Stale but usable: kick off one refresh and serve last-known-good.
		go c.doRefresh(context.WithoutCancel(ctx))
		return value, nil
	}

	if err := c.doRefresh(ctx); err != nil {
		var zero T
		return zero, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, nil
}

// Invalidate forces the next Get to refresh.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

func (c *Cache[T]) doRefresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		value, err := c.refresh(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.value = value
		c.hasValue = true
		c.expiresAt = time.Now().Add(c.ttl)
		c.mu.Unlock()
		return nil, nil
	})
	return err
}
