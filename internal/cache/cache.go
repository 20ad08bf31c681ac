// Package cache implements the memoizing response cache. The cache is
// fail-soft: a missing or erroring backend degrades to recomputation,
// never to a caller-visible error.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrNotFound is returned by Store implementations when a key is absent
// or expired.
var ErrNotFound = errors.New("cache: key not found")

// Store is the backing key/value store. Implementations must honor the
// per-entry TTL passed to Set.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Close() error
}

// ResponseCache wraps a Store with bounded-wait, swallow-and-log
// semantics. A nil store means no backend is configured; every lookup
// is then a transparent miss and every write a no-op.
type ResponseCache struct {
	store   Store
	log     *slog.Logger
	timeout time.Duration
	ttl     time.Duration
}

func New(store Store, log *slog.Logger, opTimeout, ttl time.Duration) *ResponseCache {
	if log == nil {
		log = slog.Default()
	}
	return &ResponseCache{store: store, log: log, timeout: opTimeout, ttl: ttl}
}

// TTL is the uniform entry lifetime applied by SetDefault.
func (c *ResponseCache) TTL() time.Duration { return c.ttl }

// Get returns the cached value for key, or (nil, false) on miss, absent
// backend, or backend error. It never returns an error.
func (c *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	opCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	v, err := c.store.Get(opCtx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.log.WarnContext(ctx, "cache read failed", "key", key, "err", err)
		}
		return nil, false
	}
	return v, true
}

// Set stores val under key for the cache's default TTL. Best-effort:
// failures are logged and swallowed. Overwrites reset the expiry.
func (c *ResponseCache) Set(ctx context.Context, key string, val []byte) {
	if c == nil || c.store == nil {
		return
	}
	opCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.store.Set(opCtx, key, val, c.ttl); err != nil {
		c.log.WarnContext(ctx, "failed to cache response", "key", key, "err", err)
	}
}

func (c *ResponseCache) Close() error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Close()
}

func (c *ResponseCache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
