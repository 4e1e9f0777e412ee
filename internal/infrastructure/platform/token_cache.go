package platform

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache stores the platform bearer token between requests and across instances
type TokenCache interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// RedisTokenCache keeps the token in a single Redis key with the token's lifetime as TTL
type RedisTokenCache struct {
	client *redis.Client
	key    string
}

// NewRedisTokenCache creates a token cache on an existing Redis client
func NewRedisTokenCache(client *redis.Client, key string) *RedisTokenCache {
	if key == "" {
		key = "courtage:certificate:token"
	}
	return &RedisTokenCache{client: client, key: key}
}

// Get returns the cached token, or "" when none is cached
func (c *RedisTokenCache) Get(ctx context.Context) (string, error) {
	token, err := c.client.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return token, err
}

// Set stores the token until ttl elapses
func (c *RedisTokenCache) Set(ctx context.Context, token string, ttl time.Duration) error {
	return c.client.Set(ctx, c.key, token, ttl).Err()
}

// Invalidate drops the cached token
func (c *RedisTokenCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}

// memoryTokenCache is used when no Redis is configured
type memoryTokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func (c *memoryTokenCache) Get(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" || !time.Now().Before(c.expiresAt) {
		return "", nil
	}
	return c.token, nil
}

func (c *memoryTokenCache) Set(_ context.Context, token string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiresAt = time.Now().Add(ttl)
	return nil
}

func (c *memoryTokenCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	return nil
}
