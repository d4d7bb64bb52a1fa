package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"honeytrap-lab/internal/config"
	"honeytrap-lab/pkg/logger"
)

// RedisCache wraps the Redis client with typed operations
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *logger.Logger
}

// NewRedis creates a new Redis client
func NewRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*RedisCache, error) {
	log = log.WithComponent("redis")
	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("connecting to Redis")

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	log.Info().Msg("connected to Redis successfully")

	return &RedisCache{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		logger:    log,
	}, nil
}

// Client returns the underlying Redis client
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	c.logger.Info().Msg("closing Redis connection")
	return c.client.Close()
}

// key prepends the namespace prefix to a key
func (c *RedisCache) key(k string) string {
	return c.keyPrefix + k
}

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, c.key(key)).Result()
}

// GetJSON retrieves and unmarshals a JSON value from cache
func (c *RedisCache) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// Set stores a value in cache with optional TTL
func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

// SetJSON marshals and stores a value in cache
func (c *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.Set(ctx, key, string(data), ttl)
}

// Delete removes a key from cache
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	prefixedKeys := make([]string, len(keys))
	for i, k := range keys {
		prefixedKeys[i] = c.key(k)
	}
	return c.client.Del(ctx, prefixedKeys...).Err()
}

// Exists checks if a key exists
func (c *RedisCache) Exists(ctx context.Context, keys ...string) (int64, error) {
	prefixedKeys := make([]string, len(keys))
	for i, k := range keys {
		prefixedKeys[i] = c.key(k)
	}
	return c.client.Exists(ctx, prefixedKeys...).Result()
}

// Expire sets a TTL on a key
func (c *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, c.key(key), ttl).Err()
}

// Incr increments an integer value
func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, c.key(key)).Result()
}

// SetNX sets a value only if the key does not exist (for dedup and locks)
func (c *RedisCache) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, c.key(key), value, ttl).Result()
}

// SAdd adds members to a set
func (c *RedisCache) SAdd(ctx context.Context, key string, members ...any) error {
	return c.client.SAdd(ctx, c.key(key), members...).Err()
}

// SRem removes members from a set
func (c *RedisCache) SRem(ctx context.Context, key string, members ...any) error {
	return c.client.SRem(ctx, c.key(key), members...).Err()
}

// SMembers returns all members of a set
func (c *RedisCache) SMembers(ctx context.Context, key string) ([]string, error) {
	return c.client.SMembers(ctx, c.key(key)).Result()
}

// SIsMember checks if a value is a member of a set
func (c *RedisCache) SIsMember(ctx context.Context, key string, member any) (bool, error) {
	return c.client.SIsMember(ctx, c.key(key), member).Result()
}

// Pipeline returns a Redis pipeline for batch operations
func (c *RedisCache) Pipeline() redis.Pipeliner {
	return c.client.Pipeline()
}

// Cache key constants
const (
	// Session storage keys
	KeySessionPrefix = "session:"
	KeySessionIndex  = "session:index"

	// Report delivery dedup keys
	KeyReportSentPrefix = "report:sent:"

	// Rate limiting keys
	KeyRateLimitPrefix = "rate_limit:"

	// Stats keys
	KeyStats = "cache:stats"
)

// MarkReportSent records that the final report for a session was delivered.
// Returns false if it was already marked, which prevents duplicate callbacks.
func (c *RedisCache) MarkReportSent(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	return c.SetNX(ctx, KeyReportSentPrefix+sessionID, "sent", ttl)
}

// ReportAlreadySent checks whether the final report for a session went out.
func (c *RedisCache) ReportAlreadySent(ctx context.Context, sessionID string) (bool, error) {
	n, err := c.Exists(ctx, KeyReportSentPrefix+sessionID)
	return n > 0, err
}

// CheckRateLimit checks and increments the rate limit counter
// Returns (allowed, remaining, resetTime, error)
func (c *RedisCache) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Time, error) {
	now := time.Now()
	windowKey := fmt.Sprintf("%s%s:%d", KeyRateLimitPrefix, key, now.Unix()/int64(window.Seconds()))

	pipe := c.Pipeline()
	incr := pipe.Incr(ctx, c.key(windowKey))
	pipe.Expire(ctx, c.key(windowKey), window)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, time.Time{}, err
	}

	count := incr.Val()
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	resetTime := now.Add(window)

	return count <= limit, remaining, resetTime, nil
}
