// Package cache provides Redis-based caching for hot expedient data and
// short-lived coordination keys (render locks, rate-limit counters).
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Default TTLs per data family.
const (
	TTLExpedient   = 2 * time.Minute
	TTLPatient     = 5 * time.Minute
	TTLPolicy      = 10 * time.Minute
	TTLRenderLock  = 5 * time.Minute
	TTLCertificate = 30 * time.Minute
)

// Cache wraps a Redis client behind an enabled flag so deployments without
// Redis run with caching transparently off.
type Cache struct {
	client    *redis.Client
	keyPrefix string
	enabled   bool
}

// Config holds cache configuration.
type Config struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
	Enabled   bool
}

// New creates a Cache. When disabled, every operation is a no-op and Get
// reports a miss.
func New(cfg *Config) (*Cache, error) {
	if !cfg.Enabled {
		return &Cache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "occumed"
	}

	return &Cache{
		client:    client,
		keyPrefix: prefix,
		enabled:   true,
	}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsEnabled reports whether caching is active.
func (c *Cache) IsEnabled() bool {
	return c.enabled
}

func (c *Cache) key(parts ...string) string {
	key := c.keyPrefix
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

// Get retrieves a JSON value from cache. A miss returns redis.Nil.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if !c.enabled {
		return redis.Nil
	}

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// Set stores a JSON value in cache with a TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

// GetString retrieves a raw string value. A miss returns redis.Nil.
func (c *Cache) GetString(ctx context.Context, key string) (string, error) {
	if !c.enabled {
		return "", redis.Nil
	}
	return c.client.Get(ctx, c.key(key)).Result()
}

// SetString stores a raw string value with a TTL.
func (c *Cache) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	if !c.enabled {
		return nil
	}
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

// Delete removes values from cache.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.enabled || len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, len(keys))
	for i, k := range keys {
		fullKeys[i] = c.key(k)
	}

	return c.client.Del(ctx, fullKeys...).Err()
}

// Exists checks whether a key is present.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if !c.enabled {
		return false, nil
	}

	n, err := c.client.Exists(ctx, c.key(key)).Result()
	return n > 0, err
}

// SetNX sets a value only if the key does not exist. Used as a distributed
// lock around certificate rendering. When the cache is disabled it reports
// acquisition so single-node deployments still render.
func (c *Cache) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if !c.enabled {
		return true, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	return c.client.SetNX(ctx, c.key(key), data, ttl).Result()
}

// Increment increments an integer value.
func (c *Cache) Increment(ctx context.Context, key string) (int64, error) {
	if !c.enabled {
		return 0, nil
	}

	return c.client.Incr(ctx, c.key(key)).Result()
}

// CheckRateLimit counts a hit against a fixed window and reports whether the
// limit is exceeded along with the remaining budget.
func (c *Cache) CheckRateLimit(ctx context.Context, identifier string, limit int64, window time.Duration) (bool, int64, error) {
	if !c.enabled {
		return false, limit, nil
	}

	windowStart := time.Now().Truncate(window).Unix()
	key := c.key(fmt.Sprintf("ratelimit:%s:%d", identifier, windowStart))

	pipe := c.client.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	count := incrCmd.Val()
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return count > limit, remaining, nil
}
