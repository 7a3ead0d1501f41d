package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "earningbee:"

// RedisCache implements Cache on top of Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisCacheFromClient(client, cfg.TTL), nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get retrieves a cached result set
func (c *RedisCache) Get(ctx context.Context, key string) ([]Entry, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(val, &entries); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached entries: %w", err)
	}
	return entries, true, nil
}

// Set stores a result set with the configured TTL
func (c *RedisCache) Set(ctx context.Context, key string, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode entries: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// Ping verifies Redis connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
