package server

import (
	"sync"
	"time"
)

// expiring is a single-value cache with a fixed time-to-live. The zero
// value is not usable; construct with newExpiring.
type expiring[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	value   T
	validTo time.Time
}

func newExpiring[T any](ttl time.Duration, now func() time.Time) *expiring[T] {
	if now == nil {
		now = time.Now
	}
	return &expiring[T]{ttl: ttl, now: now}
}

// get returns the cached value, rebuilding it through build when the
// cache is empty or past its time-to-live. A failed build leaves the
// cache empty; it does not serve a stale value.
func (c *expiring[T]) get(build func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.now().Before(c.validTo) {
		return c.value, nil
	}

	value, err := build()
	if err != nil {
		var zero T
		c.validTo = time.Time{}
		return zero, err
	}

	c.value = value
	c.validTo = c.now().Add(c.ttl)
	return value, nil
}
