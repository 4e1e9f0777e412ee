package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/courtage/backend/internal/infrastructure/auth"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisBlacklist(t *testing.T) (*auth.RedisTokenBlacklist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return auth.NewRedisTokenBlacklist(client), mr
}

// both implementations must agree on these
func TestTokenBlacklist_Behaviour(t *testing.T) {
	redisBlacklist, _ := newMiniredisBlacklist(t)
	implementations := map[string]auth.TokenBlacklist{
		"memory": auth.NewInMemoryTokenBlacklist(),
		"redis":  redisBlacklist,
	}

	for name, blacklist := range implementations {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-logout", time.Hour))
			require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-stale", 0))

			revoked, err := blacklist.IsBlacklisted(ctx, "jti-logout")
			require.NoError(t, err)
			assert.True(t, revoked)
			revoked, err = blacklist.IsBlacklisted(ctx, "jti-stale")
			require.NoError(t, err)
			assert.False(t, revoked, "a token already expired is not recorded")
			revoked, err = blacklist.IsBlacklisted(ctx, "jti-other")
			require.NoError(t, err)
			assert.False(t, revoked)

			issuedBefore := time.Now().Add(-time.Hour)
			require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, "user-deactivated", 7*24*time.Hour))

			invalidated, err := blacklist.IsUserTokenInvalidated(ctx, "user-deactivated", issuedBefore)
			require.NoError(t, err)
			assert.True(t, invalidated)
			invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-deactivated", time.Now().Add(2*time.Second))
			require.NoError(t, err)
			assert.False(t, invalidated, "tokens issued after the revocation stay valid")
			invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "user-active", issuedBefore)
			require.NoError(t, err)
			assert.False(t, invalidated)
		})
	}
}

func TestInMemoryTokenBlacklist_EntriesLapse(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()
	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-short", time.Millisecond))
	require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, "user-1", time.Millisecond))

	time.Sleep(10 * time.Millisecond)

	revoked, _ := blacklist.IsBlacklisted(ctx, "jti-short")
	assert.False(t, revoked)
	invalidated, _ := blacklist.IsUserTokenInvalidated(ctx, "user-1", time.Now().Add(-time.Hour))
	assert.False(t, invalidated)
}

func TestRedisTokenBlacklist_KeysExpireWithTokens(t *testing.T) {
	blacklist, mr := newMiniredisBlacklist(t)
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-1", time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("courtage:auth:revoked:jti:jti-1"))

	mr.FastForward(2 * time.Minute)

	revoked, err := blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisTokenBlacklist_CorruptUserEntry(t *testing.T) {
	blacklist, mr := newMiniredisBlacklist(t)
	require.NoError(t, mr.Set("courtage:auth:revoked:user:user-1", "yesterday"))

	_, err := blacklist.IsUserTokenInvalidated(context.Background(), "user-1", time.Now())

	assert.ErrorContains(t, err, "corrupt revocation")
}

func TestRedisTokenBlacklist_RedisDown(t *testing.T) {
	blacklist, mr := newMiniredisBlacklist(t)
	mr.Close()

	_, err := blacklist.IsBlacklisted(context.Background(), "jti-1")
	assert.Error(t, err)
	assert.Error(t, blacklist.AddToBlacklist(context.Background(), "jti-1", time.Minute))
}
