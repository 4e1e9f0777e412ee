package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingOutboxRepository struct {
	memoryOutboxRepository
}

func (r *failingOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	return errors.New("deadlock detected")
}

func TestOutboxPublisher_Publish(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("TestEvent", &testEvent{})
	repo := newMemoryOutboxRepository()
	publisher := NewOutboxPublisher(repo, serializer, nil)
	fixed := time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)
	publisher.now = func() time.Time { return fixed }

	tenantID := uuid.New()
	events := []shared.DomainEvent{
		newTestEvent("TestEvent", tenantID),
		newTestEvent("TestEvent", tenantID),
	}

	require.NoError(t, publisher.Publish(context.Background(), events...))

	counts, _ := repo.CountByStatus(context.Background())
	assert.Equal(t, int64(2), counts[shared.OutboxStatusPending])

	due, err := repo.FindDue(context.Background(), fixed, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	for _, entry := range due {
		assert.Equal(t, tenantID, entry.TenantID)
		assert.Equal(t, "TestEvent", entry.EventType)
		assert.Equal(t, fixed, entry.CreatedAt)

		decoded, err := serializer.Deserialize(entry.EventType, entry.Payload)
		require.NoError(t, err)
		assert.Equal(t, entry.EventID, decoded.EventID())
	}
}

func TestOutboxPublisher_Publish_NoEvents(t *testing.T) {
	repo := newMemoryOutboxRepository()
	publisher := NewOutboxPublisher(repo, NewEventSerializer(), nil)

	require.NoError(t, publisher.Publish(context.Background()))
	assert.Empty(t, repo.entries)
}

func TestOutboxPublisher_Publish_UnregisteredType(t *testing.T) {
	repo := newMemoryOutboxRepository()
	publisher := NewOutboxPublisher(repo, NewEventSerializer(), nil)

	err := publisher.Publish(context.Background(), newTestEvent("Unknown", uuid.New()))

	assert.ErrorContains(t, err, `"Unknown" is not registered`)
	assert.Empty(t, repo.entries)
}

func TestOutboxPublisher_Publish_SaveError(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("TestEvent", &testEvent{})
	repo := &failingOutboxRepository{}
	publisher := NewOutboxPublisher(repo, serializer, nil)

	err := publisher.Publish(context.Background(), newTestEvent("TestEvent", uuid.New()))

	assert.ErrorContains(t, err, "deadlock detected")
}
