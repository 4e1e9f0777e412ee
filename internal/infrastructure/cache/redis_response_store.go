package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultResponsePrefix = "courtage:idempotent-response:"
	pendingMarker         = "pending"
)

// ErrResponsePending is returned by Load while the first request holding the
// key is still running
var ErrResponsePending = errors.New("idempotent request still in progress")

// StoredResponse is the replayable part of an HTTP response
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// RedisResponseStore keeps responses of requests sent with an
// Idempotency-Key. A key is first reserved with a pending marker, then
// overwritten with the response.
type RedisResponseStore struct {
	client    redis.Cmdable
	keyPrefix string
}

// NewRedisResponseStore creates a store on a shared client
func NewRedisResponseStore(client redis.Cmdable, keyPrefix string) *RedisResponseStore {
	if keyPrefix == "" {
		keyPrefix = defaultResponsePrefix
	}
	return &RedisResponseStore{client: client, keyPrefix: keyPrefix}
}

// Reserve claims key for ttl. False means another request holds it.
func (s *RedisResponseStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, pendingMarker, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Load returns the stored response, nil when the key is unknown, or
// ErrResponsePending
func (s *RedisResponseStore) Load(ctx context.Context, key string) (*StoredResponse, error) {
	val, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load idempotent response: %w", err)
	}
	if val == pendingMarker {
		return nil, ErrResponsePending
	}
	var resp StoredResponse
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode idempotent response: %w", err)
	}
	return &resp, nil
}

// Save replaces the pending marker with resp
func (s *RedisResponseStore) Save(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode idempotent response: %w", err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, string(data), ttl).Err(); err != nil {
		return fmt.Errorf("failed to save idempotent response: %w", err)
	}
	return nil
}

// Release drops the key so the request can be retried
func (s *RedisResponseStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}
