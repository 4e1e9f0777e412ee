package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes tokens before they expire: one token at logout, or
// every token of a user when the account is deactivated or its password reset.
type TokenBlacklist interface {
	// AddToBlacklist revokes the token with this JTI; ttl is its remaining lifetime
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	// AddUserTokensToBlacklist revokes every token of the user issued up to now.
	// ttl should cover the longest refresh token lifetime.
	AddUserTokensToBlacklist(ctx context.Context, userID string, ttl time.Duration) error
	IsUserTokenInvalidated(ctx context.Context, userID string, tokenIssuedAt time.Time) (bool, error)
}

const revokedKeyPrefix = "courtage:auth:revoked:"

func revokedJTIKey(jti string) string     { return revokedKeyPrefix + "jti:" + jti }
func revokedUserKey(userID string) string { return revokedKeyPrefix + "user:" + userID }

// RedisTokenBlacklist shares revocations between API instances. Keys expire
// with the tokens they revoke.
type RedisTokenBlacklist struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisTokenBlacklist creates a RedisTokenBlacklist
func NewRedisTokenBlacklist(client redis.Cmdable) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client, now: time.Now}
}

func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, revokedJTIKey(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token %s: %w", jti, err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, revokedJTIKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token %s: %w", jti, err)
	}
	return n > 0, nil
}

func (b *RedisTokenBlacklist) AddUserTokensToBlacklist(ctx context.Context, userID string, ttl time.Duration) error {
	if err := b.client.Set(ctx, revokedUserKey(userID), b.now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke tokens of user %s: %w", userID, err)
	}
	return nil
}

// IsUserTokenInvalidated compares at second precision, the precision of iat
func (b *RedisTokenBlacklist) IsUserTokenInvalidated(ctx context.Context, userID string, tokenIssuedAt time.Time) (bool, error) {
	raw, err := b.client.Get(ctx, revokedUserKey(userID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check revoked tokens of user %s: %w", userID, err)
	}
	revokedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("corrupt revocation of user %s: %w", userID, err)
	}
	return tokenIssuedAt.Unix() <= revokedAt, nil
}

// InMemoryTokenBlacklist serves a single instance running without Redis
type InMemoryTokenBlacklist struct {
	mu      sync.Mutex
	revoked map[string]revocation
	now     func() time.Time
}

type revocation struct {
	at      time.Time
	expires time.Time
}

// NewInMemoryTokenBlacklist creates an empty InMemoryTokenBlacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{revoked: make(map[string]revocation), now: time.Now}
}

func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	if ttl > 0 {
		b.put(revokedJTIKey(jti), ttl)
	}
	return nil
}

func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := b.get(revokedJTIKey(jti))
	return ok, nil
}

func (b *InMemoryTokenBlacklist) AddUserTokensToBlacklist(_ context.Context, userID string, ttl time.Duration) error {
	b.put(revokedUserKey(userID), ttl)
	return nil
}

func (b *InMemoryTokenBlacklist) IsUserTokenInvalidated(_ context.Context, userID string, tokenIssuedAt time.Time) (bool, error) {
	r, ok := b.get(revokedUserKey(userID))
	return ok && !tokenIssuedAt.After(r.at), nil
}

// put records a revocation; a non-positive ttl never expires
func (b *InMemoryTokenBlacklist) put(key string, ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	r := revocation{at: now}
	if ttl > 0 {
		r.expires = now.Add(ttl)
	}
	b.revoked[key] = r
}

func (b *InMemoryTokenBlacklist) get(key string) (revocation, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.revoked[key]
	if ok && !r.expires.IsZero() && b.now().After(r.expires) {
		delete(b.revoked, key)
		return revocation{}, false
	}
	return r, ok
}

var (
	_ TokenBlacklist = (*RedisTokenBlacklist)(nil)
	_ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
)
