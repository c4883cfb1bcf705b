package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTTL is the freshness window when none is configured. The cache is a
// short-TTL memoization, not a durable store.
const DefaultTTL = 60 * time.Second

// Entry is one stored result.
type Entry struct {
	// Key is the request hash.
	Key string

	// Payload is the serialized result, returned verbatim on a hit.
	Payload []byte

	// CreatedAt is the write time freshness is measured from.
	CreatedAt time.Time
}

// Store is a cache storage backend. Implementations must be safe for
// concurrent use; Put overwrites existing keys (last writer wins).
type Store interface {
	// Get returns the entry for key regardless of age, or ok=false.
	Get(ctx context.Context, key string) (*Entry, bool, error)

	// Put inserts or replaces the entry for key.
	Put(ctx context.Context, e *Entry) error

	// Delete removes the entry for key, if present.
	Delete(ctx context.Context, key string) error

	// PurgeExpired removes entries created before cutoff, returning how many
	// were removed.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases backend resources.
	Close() error
}

// Cache layers TTL freshness over a Store.
type Cache struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// New creates a cache over the given store. A non-positive ttl selects
// DefaultTTL.
func New(store Store, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:  store,
		ttl:    ttl,
		logger: logger.With("component", "cache"),
		now:    time.Now,
	}
}

// TTL returns the configured freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the stored payload for key if it is younger than the TTL.
// Entries at or past the TTL are reported as misses, never as fresh.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	if !ok || c.now().Sub(e.CreatedAt) >= c.ttl {
		return nil, false, nil
	}
	return e.Payload, true, nil
}

// Put stores the payload under key, overwriting any existing entry.
func (c *Cache) Put(ctx context.Context, key string, payload []byte) error {
	e := &Entry{Key: key, Payload: payload, CreatedAt: c.now()}
	if err := c.store.Put(ctx, e); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Delete removes the entry for key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Sweep purges entries that have aged past the TTL.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	n, err := c.store.PurgeExpired(ctx, c.now().Add(-c.ttl))
	if err != nil {
		return 0, fmt.Errorf("cache sweep: %w", err)
	}
	if n > 0 {
		c.logger.DebugContext(ctx, "swept expired cache entries", "purged", n)
	}
	return n, nil
}

// Close closes the underlying store.
func (c *Cache) Close() error { return c.store.Close() }
