package event

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryOutboxRepository keeps entries in a map
type memoryOutboxRepository struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*shared.OutboxEntry
	findErr error
}

func newMemoryOutboxRepository() *memoryOutboxRepository {
	return &memoryOutboxRepository{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *memoryOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *memoryOutboxRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*shared.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var due []*shared.OutboxEntry
	for _, e := range r.entries {
		switch {
		case e.Status == shared.OutboxStatusPending:
			due = append(due, e)
		case e.Status == shared.OutboxStatusFailed && e.NextRetryAt != nil && !e.NextRetryAt.After(now):
			due = append(due, e)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *memoryOutboxRepository) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var dead []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.IsDead() {
			dead = append(dead, e)
		}
	}
	return dead, int64(len(dead)), nil
}

func (r *memoryOutboxRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryOutboxRepository) Claim(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var claimed []*shared.OutboxEntry
	for _, id := range ids {
		e, ok := r.entries[id]
		if !ok || (e.Status != shared.OutboxStatusPending && e.Status != shared.OutboxStatusFailed) {
			continue
		}
		e.Status = shared.OutboxStatusProcessing
		cp := *e
		claimed = append(claimed, &cp)
	}
	return claimed, nil
}

func (r *memoryOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.entries[entry.ID] = &cp
	return nil
}

func (r *memoryOutboxRepository) DeleteSentBefore(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, e := range r.entries {
		if e.Status == shared.OutboxStatusSent && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(r.entries, id)
			n++
		}
	}
	return n, nil
}

func (r *memoryOutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func (r *memoryOutboxRepository) get(id uuid.UUID) shared.OutboxEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.entries[id]
}

// funcSink delivers through a function
type funcSink struct {
	name string
	fn   func(entry *shared.OutboxEntry) error
}

func (s *funcSink) Name() string { return s.name }

func (s *funcSink) Deliver(ctx context.Context, entry *shared.OutboxEntry) error {
	return s.fn(entry)
}

type countingObserver struct {
	mu     sync.Mutex
	ok     int
	failed int
}

func (o *countingObserver) OutboxRelayed(eventType string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.failed++
		return
	}
	o.ok++
}

func storeTestEvent(t *testing.T, repo *memoryOutboxRepository, serializer *EventSerializer, eventType string) *shared.OutboxEntry {
	t.Helper()
	event := newTestEvent(eventType, uuid.New())
	payload, err := serializer.Serialize(event)
	require.NoError(t, err)
	entry := shared.NewOutboxEntry(event, payload, time.Now())
	require.NoError(t, repo.Save(context.Background(), entry))
	return entry
}

func TestRelay_RelayOnce_RelaysToAllSinks(t *testing.T) {
	logger := zap.NewNop()
	serializer := NewEventSerializer()
	serializer.Register("TestEvent", &testEvent{})

	repo := newMemoryOutboxRepository()
	bus := NewInMemoryEventBus(logger)
	handler := newTestHandler("TestEvent")
	bus.Subscribe(handler, "TestEvent")

	kafkaWriter := &mockKafkaWriter{}
	entry := storeTestEvent(t, repo, serializer, "TestEvent")

	relay := NewRelay(repo, []Sink{
		NewKafkaSinkWithWriter(kafkaWriter, "courtage.domain-events", logger),
		NewBusSink(bus, serializer),
	}, DefaultRelayConfig(), logger)
	observer := &countingObserver{}
	relay.SetObserver(observer)

	sent, err := relay.RelayOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Len(t, kafkaWriter.written, 1)
	require.Len(t, handler.getHandled(), 1)
	assert.Equal(t, entry.EventID, handler.getHandled()[0].EventID())

	stored := repo.get(entry.ID)
	assert.Equal(t, shared.OutboxStatusSent, stored.Status)
	assert.NotNil(t, stored.ProcessedAt)
	assert.Equal(t, 1, observer.ok)
}

func TestRelay_RelayOnce_FailureSchedulesRetry(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("TestEvent", &testEvent{})
	repo := newMemoryOutboxRepository()
	entry := storeTestEvent(t, repo, serializer, "TestEvent")

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	relay := NewRelay(repo, []Sink{&funcSink{
		name: "kafka",
		fn:   func(*shared.OutboxEntry) error { return errors.New("broker down") },
	}}, DefaultRelayConfig(), nil)
	relay.now = func() time.Time { return now }
	observer := &countingObserver{}
	relay.SetObserver(observer)

	sent, err := relay.RelayOnce(context.Background())

	require.NoError(t, err)
	assert.Zero(t, sent)
	stored := repo.get(entry.ID)
	assert.Equal(t, shared.OutboxStatusFailed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Equal(t, "kafka: broker down", stored.LastError)
	require.NotNil(t, stored.NextRetryAt)
	assert.Equal(t, now.Add(time.Second), *stored.NextRetryAt)
	assert.Equal(t, 1, observer.failed)

	// not due yet
	sent, err = relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Equal(t, 1, repo.get(entry.ID).RetryCount)
}

func TestRelay_RelayOnce_MovesToDeadLetters(t *testing.T) {
	serializer := NewEventSerializer()
	repo := newMemoryOutboxRepository()

	// unregistered event type never deserializes
	entry := storeTestEvent(t, repo, serializer, "UnregisteredEvent")
	bus := NewInMemoryEventBus(zap.NewNop())

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	relay := NewRelay(repo, []Sink{NewBusSink(bus, serializer)}, DefaultRelayConfig(), nil)
	for i := 0; i < shared.DefaultMaxRetries; i++ {
		relay.now = func() time.Time { return now }
		_, err := relay.RelayOnce(context.Background())
		require.NoError(t, err)
		now = now.Add(time.Minute)
	}

	stored := repo.get(entry.ID)
	assert.True(t, stored.IsDead())
	assert.Equal(t, shared.DefaultMaxRetries, stored.RetryCount)
	assert.Contains(t, stored.LastError, "unknown event type")
}

func TestRelay_RelayOnce_FindError(t *testing.T) {
	repo := newMemoryOutboxRepository()
	repo.findErr = errors.New("connection reset")
	relay := NewRelay(repo, nil, DefaultRelayConfig(), nil)

	_, err := relay.RelayOnce(context.Background())

	assert.ErrorContains(t, err, "connection reset")
}

func TestRelay_StartAndStop(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("TestEvent", &testEvent{})
	repo := newMemoryOutboxRepository()
	entry := storeTestEvent(t, repo, serializer, "TestEvent")

	var mu sync.Mutex
	delivered := 0
	relay := NewRelay(repo, []Sink{&funcSink{name: "count", fn: func(*shared.OutboxEntry) error {
		mu.Lock()
		defer mu.Unlock()
		delivered++
		return nil
	}}}, RelayConfig{BatchSize: 10, PollInterval: 20 * time.Millisecond}, zap.NewNop())

	require.NoError(t, relay.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return repo.get(entry.ID).Status == shared.OutboxStatusSent
	}, time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, relay.Stop(stopCtx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, delivered)
}

func TestRelay_StartRejectsZeroInterval(t *testing.T) {
	relay := NewRelay(newMemoryOutboxRepository(), nil, RelayConfig{}, nil)
	assert.Error(t, relay.Start(context.Background()))
}

func TestRelay_Purge(t *testing.T) {
	serializer := NewEventSerializer()
	repo := newMemoryOutboxRepository()
	old := storeTestEvent(t, repo, serializer, "TestEvent")
	old.MarkSent(time.Now().Add(-10 * 24 * time.Hour))
	recent := storeTestEvent(t, repo, serializer, "TestEvent")
	recent.MarkSent(time.Now())

	relay := NewRelay(repo, nil, DefaultRelayConfig(), nil)
	relay.purge(context.Background())

	counts, _ := repo.CountByStatus(context.Background())
	assert.Equal(t, int64(1), counts[shared.OutboxStatusSent])
}

func TestDefaultRelayConfig(t *testing.T) {
	config := DefaultRelayConfig()

	assert.Equal(t, 100, config.BatchSize)
	assert.Equal(t, 5*time.Second, config.PollInterval)
	assert.Equal(t, 7*24*time.Hour, config.PurgeAfter)
	assert.Equal(t, time.Hour, config.PurgeInterval)
}
