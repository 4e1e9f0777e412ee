package cache

import (
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestNewIdempotencyStore(t *testing.T) {
	db, _ := redismock.NewClientMock()
	assert.IsType(t, &RedisIdempotencyStore{}, NewIdempotencyStore(db, "", nil))

	store := NewIdempotencyStore(nil, "", nil)
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	_ = store.Close()
}
