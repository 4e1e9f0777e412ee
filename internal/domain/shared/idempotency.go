package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed keys, such as relayed event IDs.
type IdempotencyStore interface {
	// MarkProcessed records key and reports whether it was unseen.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	Close() error
}
