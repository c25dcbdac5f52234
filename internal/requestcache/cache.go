// Package requestcache provides a time-boxed, key-addressed cache with
// in-flight de-duplication, so a caller can issue the same request on every
// debounce tick or refocus without generating redundant backend load.
package requestcache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a cached payload stays valid for reads.
const DefaultTTL = 30 * time.Second

type entry[T any] struct {
	at      time.Time
	payload T
}

// Cache caches successful results per key for a fixed TTL. Concurrent calls
// with an identical key share one execution of fn and its outcome; the
// in-flight slot is released as soon as the call settles, success or failure.
// Expired entries are replaced lazily on the next call, never swept.
type Cache[T any] struct {
	ttl     time.Duration
	nowTime func() time.Time

	mu      sync.Mutex
	entries map[string]entry[T]
	group   singleflight.Group
}

// Option defines a function type to modify the Cache instance.
type Option[T any] func(*Cache[T])

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime[T any](nowFunc func() time.Time) Option[T] {
	return func(c *Cache[T]) {
		c.nowTime = nowFunc
	}
}

// WithTTL overrides the default entry lifetime
func WithTTL[T any](ttl time.Duration) Option[T] {
	return func(c *Cache[T]) {
		c.ttl = ttl
	}
}

func New[T any](options ...Option[T]) *Cache[T] {
	c := &Cache[T]{
		ttl:     DefaultTTL,
		nowTime: time.Now,
		entries: make(map[string]entry[T]),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Do returns the cached payload for key when fresh, otherwise joins or starts
// a single-flight execution of fn. Only successful results are cached.
func (c *Cache[T]) Do(ctx context.Context, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.nowTime().Sub(e.at) <= c.ttl {
		c.mu.Unlock()
		return e.payload, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		payload, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = entry[T]{at: c.nowTime(), payload: payload}
		c.mu.Unlock()
		return payload, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
