package cache

import (
	"context"
	"encoding/json"
	"time"

	"foodshare/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Cache is a thin JSON cache over Redis. A nil *Cache, or one without a
// client, is a valid no-op cache.
type Cache struct {
	rdb *redis.Client
}

// New wraps rdb. rdb may be nil.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Enabled reports whether a Redis client backs the cache.
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Client returns the underlying Redis client, or nil.
func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	s, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(s, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on a miss it calls fetch (which must populate dest)
// and stores the result with ttl. Cache failures fall through to fetch.
func (c *Cache) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := c.GetJSON(ctx, key, dest)
	switch {
	case err != nil:
		observability.CacheLookups.WithLabelValues("error").Inc()
	case found:
		observability.CacheLookups.WithLabelValues("hit").Inc()
		return nil
	case c.Enabled():
		observability.CacheLookups.WithLabelValues("miss").Inc()
	}

	if err := fetch(); err != nil {
		return err
	}

	// best-effort
	_ = c.SetJSON(ctx, key, dest, ttl)
	return nil
}

// Invalidate removes keys from the cache.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	c.rdb.Del(ctx, keys...)
}
