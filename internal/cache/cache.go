// Package cache is a namespaced Redis facade. Every failure against the
// backend is logged and degrades to a miss or a no-op; callers never see a
// cache error.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultPrefix namespaces every key written by the service.
	DefaultPrefix = "newsfeed:"
	// NoExpiry is reported by TTL for keys without an expiry.
	NoExpiry time.Duration = -1

	scanBatchSize = 100
)

// Cache stores JSON-encoded values under prefixed keys. A Cache with a nil
// client is valid and behaves as an always-empty cache.
type Cache struct {
	client *redis.Client
	prefix string
	log    logger.Logger
}

// New creates a Cache. An empty prefix falls back to DefaultPrefix.
func New(client *redis.Client, prefix string, log logger.Logger) *Cache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Cache{client: client, prefix: prefix, log: log}
}

// Enabled reports whether a backend is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

func (c *Cache) keys(ks []string) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = c.key(k)
	}
	return out
}

func (c *Cache) warn(msg, key string, err error) {
	c.log.Warn(msg, logger.String("key", key), logger.Error(err))
}

// Get decodes the value at key into dest and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if !c.Enabled() {
		return false
	}

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn("Cache get failed", key, err)
		}
		return false
	}

	if err = json.Unmarshal(data, dest); err != nil {
		c.warn("Cache value undecodable", key, err)
		return false
	}
	return true
}

// Set stores value with ttl. A zero ttl stores without expiry.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if !c.Enabled() {
		return false
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.warn("Cache value unencodable", key, err)
		return false
	}

	if err = c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		c.warn("Cache set failed", key, err)
		return false
	}
	return true
}

// Del removes keys and returns how many existed.
func (c *Cache) Del(ctx context.Context, keys ...string) int64 {
	if !c.Enabled() || len(keys) == 0 {
		return 0
	}

	n, err := c.client.Del(ctx, c.keys(keys)...).Result()
	if err != nil {
		c.log.Warn("Cache delete failed", logger.Strings("keys", keys), logger.Error(err))
		return 0
	}
	return n
}

// Exists reports whether key is present.
func (c *Cache) Exists(ctx context.Context, key string) bool {
	if !c.Enabled() {
		return false
	}

	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		c.warn("Cache exists failed", key, err)
		return false
	}
	return n == 1
}

// MGet returns the raw JSON stored at each key, aligned with keys. Missing
// keys, and every key on a backend failure, yield nil.
func (c *Cache) MGet(ctx context.Context, keys ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(keys))
	if !c.Enabled() || len(keys) == 0 {
		return out
	}

	vals, err := c.client.MGet(ctx, c.keys(keys)...).Result()
	if err != nil {
		c.log.Warn("Cache mget failed", logger.Strings("keys", keys), logger.Error(err))
		return out
	}

	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[i] = json.RawMessage(s)
		}
	}
	return out
}

// MSet stores every entry with the same ttl in one pipeline.
func (c *Cache) MSet(ctx context.Context, entries map[string]any, ttl time.Duration) bool {
	if !c.Enabled() || len(entries) == 0 {
		return false
	}

	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range entries {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			pipe.Set(ctx, c.key(k), data, ttl)
		}
		return nil
	})
	if err != nil {
		c.log.Warn("Cache mset failed", logger.Int("entries", len(entries)), logger.Error(err))
		return false
	}
	return true
}

// TTL returns the remaining lifetime of key. ok is false when the key is
// missing; keys without expiry report NoExpiry.
func (c *Cache) TTL(ctx context.Context, key string) (ttl time.Duration, ok bool) {
	if !c.Enabled() {
		return 0, false
	}

	d, err := c.client.TTL(ctx, c.key(key)).Result()
	if err != nil {
		c.warn("Cache ttl failed", key, err)
		return 0, false
	}

	switch {
	case d == -2:
		return 0, false
	case d < 0:
		return NoExpiry, true
	default:
		return d, true
	}
}

// ExtendTTL re-arms the expiry of an existing key to ttl.
func (c *Cache) ExtendTTL(ctx context.Context, key string, ttl time.Duration) bool {
	if !c.Enabled() {
		return false
	}

	ok, err := c.client.Expire(ctx, c.key(key), ttl).Result()
	if err != nil {
		c.warn("Cache expire failed", key, err)
		return false
	}
	return ok
}

// InvalidatePattern deletes every key matching each glob pattern and returns
// the number deleted. Patterns are relative to the cache prefix.
func (c *Cache) InvalidatePattern(ctx context.Context, patterns ...string) int {
	if !c.Enabled() {
		return 0
	}

	total := 0
	for _, pattern := range patterns {
		n, err := c.deleteMatching(ctx, c.key(pattern))
		total += n
		if err != nil {
			c.log.Warn("Cache invalidation incomplete",
				logger.String("pattern", pattern),
				logger.Int("deleted", n),
				logger.Error(err),
			)
			continue
		}
		c.log.Debug("Cache pattern invalidated",
			logger.String("pattern", pattern),
			logger.Int("deleted", n),
		)
	}
	return total
}

func (c *Cache) deleteMatching(ctx context.Context, match string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, scanBatchSize).Result()
		if err != nil {
			return deleted, err
		}

		if len(keys) > 0 {
			n, delErr := c.client.Del(ctx, keys...).Result()
			if delErr != nil {
				return deleted, delErr
			}
			deleted += int(n)
		}

		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// Remember returns the cached value at key, or calls produce once, stores its
// result best-effort and returns it. Producer errors are returned unchanged
// and nothing is stored.
func Remember[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, produce func(context.Context) (T, error)) (T, error) {
	var cached T
	if c.Get(ctx, key, &cached) {
		return cached, nil
	}

	value, err := produce(ctx)
	if err != nil {
		return value, err
	}

	c.Set(ctx, key, value, ttl)
	return value, nil
}
