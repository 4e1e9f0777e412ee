// Package event holds the administrative operations on the domain event
// outbox: inspecting dead letters and putting them back in the relay queue.
package event

import (
	"context"
	"time"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	defaultDeadPageSize = 20
	maxDeadPageSize     = 100
)

var (
	errEntryNotFound    = shared.NewDomainError("ENTRY_NOT_FOUND", "Outbox entry not found")
	errOutboxUnreadable = shared.NewDomainError("INTERNAL_ERROR", "Failed to read the event outbox")
	errOutboxWrite      = shared.NewDomainError("INTERNAL_ERROR", "Failed to requeue outbox entry")
)

// deliveryStates lists every status reported by GetStats, zero counts included
var deliveryStates = []shared.OutboxStatus{
	shared.OutboxStatusPending,
	shared.OutboxStatusProcessing,
	shared.OutboxStatusSent,
	shared.OutboxStatusFailed,
	shared.OutboxStatusDead,
}

type OutboxService struct {
	repo shared.OutboxRepository
	log  *zap.Logger
	now  func() time.Time
}

func NewOutboxService(repo shared.OutboxRepository, log *zap.Logger) *OutboxService {
	return &OutboxService{repo: repo, log: lo.Ternary(log == nil, zap.NewNop(), log), now: time.Now}
}

// EventRef names the event an entry carries
type EventRef struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	AggregateType string    `json:"aggregate_type"`
	AggregateID   uuid.UUID `json:"aggregate_id"`
}

// DeliveryView is an outbox entry as administrators see it; the payload
// stays hidden
type DeliveryView struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Event       EventRef   `json:"event"`
	State       string     `json:"state"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	LastError   string     `json:"last_error,omitempty"`
	RetryAt     *time.Time `json:"retry_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	QueuedAt    time.Time  `json:"queued_at"`
	ChangedAt   time.Time  `json:"changed_at"`
}

func viewOf(e *shared.OutboxEntry) DeliveryView {
	return DeliveryView{
		ID:       e.ID,
		TenantID: e.TenantID,
		Event: EventRef{
			ID:            e.EventID,
			Type:          e.EventType,
			AggregateType: e.AggregateType,
			AggregateID:   e.AggregateID,
		},
		State:       string(e.Status),
		Attempts:    e.RetryCount,
		MaxAttempts: e.MaxRetries,
		LastError:   e.LastError,
		RetryAt:     e.NextRetryAt,
		DeliveredAt: e.ProcessedAt,
		QueuedAt:    e.CreatedAt,
		ChangedAt:   e.UpdatedAt,
	}
}

// OutboxFilter pages through dead letters
type OutboxFilter struct {
	Page     int `form:"page" binding:"min=0"`
	PageSize int `form:"page_size" binding:"min=0,max=100"`
}

// window resolves the requested page, defaulting and capping its size
func (f OutboxFilter) window() (page, size int) {
	size = f.PageSize
	if size <= 0 {
		size = defaultDeadPageSize
	}
	return max(f.Page, 1), min(size, maxDeadPageSize)
}

type DeadLetterPage struct {
	Entries  []DeliveryView
	Total    int64
	Page     int
	PageSize int
}

// OutboxStats counts entries per delivery state
type OutboxStats struct {
	ByState map[string]int64 `json:"by_state"`
	Total   int64            `json:"total"`
}

// GetDeadLetterEntries lists the entries that exhausted their retries
func (s *OutboxService) GetDeadLetterEntries(ctx context.Context, filter OutboxFilter) (*DeadLetterPage, error) {
	page, size := filter.window()
	dead, total, err := s.repo.FindDead(ctx, page, size)
	if err != nil {
		s.log.Error("listing dead letters", zap.Error(err))
		return nil, errOutboxUnreadable
	}
	views := lo.Map(dead, func(e *shared.OutboxEntry, _ int) DeliveryView { return viewOf(e) })
	return &DeadLetterPage{Entries: views, Total: total, Page: page, PageSize: size}, nil
}

func (s *OutboxService) GetEntry(ctx context.Context, id uuid.UUID) (*DeliveryView, error) {
	entry, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return lo.ToPtr(viewOf(entry)), nil
}

// RetryDeadEntry gives one dead entry a fresh set of attempts
func (s *OutboxService) RetryDeadEntry(ctx context.Context, id uuid.UUID) (*DeliveryView, error) {
	entry, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requeue(ctx, entry); err != nil {
		return nil, err
	}
	s.log.Info("dead letter requeued", zap.Stringer("id", id), zap.String("event_type", entry.EventType))
	return lo.ToPtr(viewOf(entry)), nil
}

// RetryAllDeadEntries requeues every dead entry and returns how many moved.
// Requeued entries leave the dead set, so page one is read until it drains
// or a whole page refuses to move.
func (s *OutboxService) RetryAllDeadEntries(ctx context.Context) (int64, error) {
	var requeued int64
	for {
		batch, _, err := s.repo.FindDead(ctx, 1, maxDeadPageSize)
		if err != nil {
			s.log.Error("listing dead letters", zap.Error(err))
			return requeued, errOutboxUnreadable
		}
		moved := lo.CountBy(batch, func(e *shared.OutboxEntry) bool { return s.requeue(ctx, e) == nil })
		requeued += int64(moved)
		if moved == 0 || len(batch) < maxDeadPageSize {
			break
		}
	}
	s.log.Info("dead letters requeued", zap.Int64("count", requeued))
	return requeued, nil
}

func (s *OutboxService) GetStats(ctx context.Context) (*OutboxStats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.log.Error("counting outbox entries", zap.Error(err))
		return nil, errOutboxUnreadable
	}
	stats := &OutboxStats{ByState: make(map[string]int64, len(deliveryStates))}
	for _, state := range deliveryStates {
		stats.ByState[string(state)] = counts[state]
		stats.Total += counts[state]
	}
	return stats, nil
}

func (s *OutboxService) requeue(ctx context.Context, entry *shared.OutboxEntry) error {
	if err := entry.ResetForRetry(s.now()); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		s.log.Error("requeueing dead letter", zap.Stringer("id", entry.ID), zap.Error(err))
		return errOutboxWrite
	}
	return nil
}

func (s *OutboxService) load(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	switch {
	case shared.CodeOf(err) == shared.ErrNotFound.Code, err == nil && entry == nil:
		return nil, errEntryNotFound
	case err != nil:
		s.log.Error("loading outbox entry", zap.Stringer("id", id), zap.Error(err))
		return nil, errOutboxUnreadable
	}
	return entry, nil
}
