package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOutboxTestEntry(now time.Time) *OutboxEntry {
	event := NewBaseDomainEvent("ContractValidated", "Contract", uuid.New(), uuid.New())
	return NewOutboxEntry(&event, []byte(`{}`), now)
}

func TestNewOutboxEntry(t *testing.T) {
	now := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	e := newOutboxTestEntry(now)

	assert.Equal(t, OutboxStatusPending, e.Status)
	assert.Equal(t, "ContractValidated", e.EventType)
	assert.Equal(t, "Contract", e.AggregateType)
	assert.Equal(t, DefaultMaxRetries, e.MaxRetries)
	assert.Equal(t, now, e.CreatedAt)
}

func TestOutboxEntry_MarkFailed(t *testing.T) {
	now := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	e := newOutboxTestEntry(now)

	e.MarkFailed("broker down", now)
	assert.Equal(t, OutboxStatusFailed, e.Status)
	require.NotNil(t, e.NextRetryAt)
	assert.Equal(t, now.Add(time.Second), *e.NextRetryAt)

	e.MarkFailed("broker down", now)
	assert.Equal(t, now.Add(2*time.Second), *e.NextRetryAt)

	e.MarkFailed("broker down", now)
	assert.Equal(t, now.Add(4*time.Second), *e.NextRetryAt)

	e.MarkFailed("broker down", now)
	e.MarkFailed("broker down", now)
	assert.True(t, e.IsDead())
	assert.Nil(t, e.NextRetryAt)
	assert.Equal(t, 5, e.RetryCount)
}

func TestOutboxEntry_ResetForRetry(t *testing.T) {
	now := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	e := newOutboxTestEntry(now)

	assert.Error(t, e.ResetForRetry(now))

	e.MaxRetries = 1
	e.MarkFailed("boom", now)
	require.True(t, e.IsDead())

	require.NoError(t, e.ResetForRetry(now.Add(time.Hour)))
	assert.Equal(t, OutboxStatusPending, e.Status)
	assert.Zero(t, e.RetryCount)
	assert.Empty(t, e.LastError)
	assert.Equal(t, now.Add(time.Hour), e.UpdatedAt)
}

func TestOutboxEntry_MarkSent(t *testing.T) {
	now := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	e := newOutboxTestEntry(now)
	e.MarkFailed("boom", now)

	e.MarkSent(now.Add(time.Minute))
	assert.Equal(t, OutboxStatusSent, e.Status)
	require.NotNil(t, e.ProcessedAt)
	assert.Nil(t, e.NextRetryAt)
}
