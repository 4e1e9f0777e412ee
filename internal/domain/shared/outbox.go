package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

// An entry starts PENDING, is claimed as PROCESSING, then ends SENT or goes
// back to FAILED until its retries run out and it becomes DEAD
const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusSent       OutboxStatus = "SENT"
	OutboxStatusFailed     OutboxStatus = "FAILED"
	OutboxStatusDead       OutboxStatus = "DEAD"
)

const (
	DefaultMaxRetries  = 5
	DefaultBaseBackoff = time.Second
	maxBackoff         = 10 * time.Minute
)

var errOutboxNotDead = NewDomainError(ErrInvalidState.Code, "Only dead outbox entries can be retried")

// OutboxEntry is a serialized domain event saved next to the aggregate that
// raised it, waiting for the relay
type OutboxEntry struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	EventID       uuid.UUID
	EventType     string
	AggregateID   uuid.UUID
	AggregateType string
	Payload       []byte
	Status        OutboxStatus
	RetryCount    int
	MaxRetries    int
	LastError     string
	NextRetryAt   *time.Time
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewOutboxEntry(event DomainEvent, payload []byte, now time.Time) *OutboxEntry {
	e := &OutboxEntry{
		ID:         uuid.New(),
		TenantID:   event.TenantID(),
		EventID:    event.EventID(),
		EventType:  event.EventType(),
		Payload:    payload,
		Status:     OutboxStatusPending,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	e.AggregateID, e.AggregateType = event.AggregateID(), event.AggregateType()
	return e
}

func (e *OutboxEntry) MarkSent(now time.Time) {
	e.Status, e.ProcessedAt, e.NextRetryAt = OutboxStatusSent, &now, nil
	e.UpdatedAt = now
}

// MarkFailed records a failed delivery. The entry waits 1s, 2s, 4s and so on
// (capped at ten minutes) before the next attempt, and is dead once
// MaxRetries deliveries failed.
func (e *OutboxEntry) MarkFailed(reason string, now time.Time) {
	e.RetryCount++
	e.LastError = reason
	e.UpdatedAt = now
	if e.RetryCount >= e.MaxRetries {
		e.Status, e.NextRetryAt = OutboxStatusDead, nil
		return
	}
	next := now.Add(min(DefaultBaseBackoff<<(e.RetryCount-1), maxBackoff))
	e.Status, e.NextRetryAt = OutboxStatusFailed, &next
}

// ResetForRetry gives a dead entry a fresh set of retries
func (e *OutboxEntry) ResetForRetry(now time.Time) error {
	if !e.IsDead() {
		return errOutboxNotDead
	}
	e.Status, e.RetryCount, e.LastError, e.NextRetryAt = OutboxStatusPending, 0, "", nil
	e.UpdatedAt = now
	return nil
}

func (e *OutboxEntry) IsDead() bool { return e.Status == OutboxStatusDead }

// OutboxRepository persists outbox entries
type OutboxRepository interface {
	Save(ctx context.Context, entries ...*OutboxEntry) error
	// FindDue returns pending entries and failed entries whose retry time has come, oldest first
	FindDue(ctx context.Context, now time.Time, limit int) ([]*OutboxEntry, error)
	FindDead(ctx context.Context, page, pageSize int) ([]*OutboxEntry, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*OutboxEntry, error)
	// Claim moves the given pending or failed entries to PROCESSING and returns
	// those this caller won
	Claim(ctx context.Context, ids []uuid.UUID) ([]*OutboxEntry, error)
	Update(ctx context.Context, entry *OutboxEntry) error
	// DeleteSentBefore purges delivered entries
	DeleteSentBefore(ctx context.Context, before time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[OutboxStatus]int64, error)
}
