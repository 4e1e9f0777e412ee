package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("first mark wins", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := NewRedisIdempotencyStore(db, "")

		mock.ExpectSetNX("courtage:idempotency:k1", "1", time.Hour).SetVal(true)
		mock.ExpectSetNX("courtage:idempotency:k1", "1", time.Hour).SetVal(false)

		ok, err := store.MarkProcessed(ctx, "k1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.MarkProcessed(ctx, "k1", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exists check uses the prefix", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := NewRedisIdempotencyStore(db, "test:")

		mock.ExpectExists("test:k2").SetVal(1)
		mock.ExpectExists("test:k3").SetVal(0)

		seen, err := store.IsProcessed(ctx, "k2")
		require.NoError(t, err)
		assert.True(t, seen)

		seen, err = store.IsProcessed(ctx, "k3")
		require.NoError(t, err)
		assert.False(t, seen)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis errors are wrapped", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := NewRedisIdempotencyStore(db, "")
		boom := errors.New("connection reset")

		mock.ExpectSetNX("courtage:idempotency:k4", "1", time.Minute).SetErr(boom)

		_, err := store.MarkProcessed(ctx, "k4", time.Minute)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "idempotency key")
	})

	t.Run("close leaves the shared client open", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := NewRedisIdempotencyStore(db, "")
		require.NoError(t, store.Close())

		mock.ExpectPing().SetVal("PONG")
		assert.NoError(t, db.Ping(ctx).Err())
	})
}
