// Package cache provides the Redis client used for the favorites store and
// the word-of-the-day cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache wraps a Redis client with app-specific key helpers
type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes a Redis client.
// Only addr is mandatory, password/db are optional.
func NewRedisCache(addr, password string, db int) *RedisCache {
	opts := &redis.Options{
		Addr: addr,
	}
	if password != "" {
		opts.Password = password
	}
	if db != 0 {
		opts.DB = db
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

// Ping checks the connection to Redis
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// Set stores a value under key with the given TTL (0 means no expiry)
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

// Get returns the value stored under key. A missing key is returned as
// ("", nil) so callers treat it as a cache miss, not an error.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

// Del removes a key
func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForFavorites generates the Redis key holding a user's favorite word IDs
func (c *RedisCache) KeyForFavorites(userID string) string {
	return fmt.Sprintf("favorites:%s", userID)
}

// KeyForWordOfDay generates the Redis key caching the word of the given day
func (c *RedisCache) KeyForWordOfDay(day time.Time) string {
	return fmt.Sprintf("wotd:%s", day.Format("2006-01-02"))
}

// KeyForPlaybackSpeed generates the Redis key holding a user's audio playback speed
func (c *RedisCache) KeyForPlaybackSpeed(userID string) string {
	return fmt.Sprintf("prefs:playback_speed:%s", userID)
}
