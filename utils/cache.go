package utils

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultCacheTTL = 5 * time.Minute
	cacheOpTimeout  = 2 * time.Second
)

// Cache is a small JSON cache on top of Redis. A nil client turns every call into a miss / no-op.
type Cache struct {
	rc  *redis.Client
	ttl time.Duration
}

// NewCache wraps rc; ttl <= 0 selects the default.
func NewCache(rc *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{rc: rc, ttl: ttl}
}

// Enabled reports whether a Redis client is attached.
func (c *Cache) Enabled() bool {
	return c != nil && c.rc != nil
}

// GetJSON loads key into v and reports a hit.
func (c *Cache) GetJSON(ctx context.Context, key string, v interface{}) bool {
	if !c.Enabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	b, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		Sugar.Debugf("cache get miss key=%s err=%v", key, err)
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		Sugar.Warnf("cache decode failed key=%s err=%v", key, err)
		return false
	}
	return true
}

// SetJSON marshals v and stores it with the cache TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}) {
	if !c.Enabled() {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	if err := c.rc.Set(ctx, key, b, c.ttl).Err(); err != nil {
		Sugar.Warnf("cache set failed key=%s err=%v", key, err)
	}
}

// Generation returns the current generation counter stored at genKey; a missing counter is 0.
// ok is false when the cache is disabled or Redis cannot be read, and callers should then skip caching.
func (c *Cache) Generation(ctx context.Context, genKey string) (int64, bool) {
	if !c.Enabled() {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	gen, err := c.rc.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		Sugar.Warnf("cache generation read failed key=%s err=%v", genKey, err)
		return 0, false
	}
	return gen, true
}

// Bump advances the generation at genKey. Entries keyed by an older generation are never read again,
// so a fill racing with the bump cannot resurrect stale data.
func (c *Cache) Bump(ctx context.Context, genKey string) {
	if !c.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	if err := c.rc.Incr(ctx, genKey).Err(); err != nil {
		Sugar.Warnf("cache generation bump failed key=%s err=%v", genKey, err)
	}
}
