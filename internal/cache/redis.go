package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"example.com/promo/services/events/config"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrCacheMiss signals that a key is absent. Callers treat any other
// error the same way: cached data is always regenerable from the
// relational store, so the gateway never has to succeed.
var ErrCacheMiss = errors.New("cache miss")

// Key prefixes for the cached read paths
const (
	searchKeyPrefix  = "events:search:"
	eventKeyPrefix   = "event:"
	dashboardKey     = "dashboard:stats"
	compareKeyPrefix = "channel:compare:"
)

// RedisCache provides caching using Redis
type RedisCache struct {
	client  *redis.Client
	enabled bool
}

// NewRedisCache creates a new Redis cache. A disabled cache is a valid
// gateway whose operations all degrade to misses.
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		return &RedisCache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &RedisCache{
		client:  client,
		enabled: true,
	}, nil
}

// Get retrieves a value from cache into value. Returns ErrCacheMiss
// when the key is absent or the cache is disabled.
func (c *RedisCache) Get(ctx context.Context, key string, value interface{}) error {
	if !c.enabled {
		return ErrCacheMiss
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheMiss
		}
		return errors.Wrap(err, "failed to get value from Redis")
	}

	err = json.Unmarshal(data, value)
	if err != nil {
		return errors.Wrap(err, "failed to unmarshal cached value")
	}

	return nil
}

// Set stores a value in cache with an expiration
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal value for caching")
	}

	err = c.client.Set(ctx, key, data, expiration).Err()
	if err != nil {
		return errors.Wrap(err, "failed to set value in Redis")
	}

	return nil
}

// Delete removes a single key
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if !c.enabled {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}

// DeleteByPattern scans for keys matching pattern and removes them in
// bulk, returning the number of keys removed. Used for invalidation
// when the underlying event data changes.
func (c *RedisCache) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	if !c.enabled {
		return 0, nil
	}

	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, errors.Wrap(err, "failed to scan keys")
	}
	if len(keys) == 0 {
		return 0, nil
	}

	removed, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete keys")
	}
	return int(removed), nil
}

// SearchCacheKey generates a cache key for a normalized search filter
func SearchCacheKey(filterKey string) string {
	return searchKeyPrefix + filterKey
}

// SearchKeyPattern matches every cached search result
func SearchKeyPattern() string {
	return searchKeyPrefix + "*"
}

// EventCacheKey generates a cache key for a single event
func EventCacheKey(id uuid.UUID) string {
	return eventKeyPrefix + id.String()
}

// DashboardCacheKey is the single key holding the combined dashboard payload
func DashboardCacheKey() string {
	return dashboardKey
}

// CompareCacheKey generates a cache key for a channel comparison
func CompareCacheKey(keyword string) string {
	return compareKeyPrefix + keyword
}

// CompareKeyPattern matches every cached channel comparison
func CompareKeyPattern() string {
	return compareKeyPrefix + "*"
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if !c.enabled || c.client == nil {
		return nil
	}

	return c.client.Close()
}
