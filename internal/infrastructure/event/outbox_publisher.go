package event

import (
	"context"
	"fmt"
	"time"

	"github.com/courtage/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OutboxPublisher is the EventPublisher handed to application services. It
// serializes each event into an outbox entry; the Relay delivers the
// entries afterwards.
type OutboxPublisher struct {
	repo       shared.OutboxRepository
	serializer *EventSerializer
	logger     *zap.Logger
	now        func() time.Time
}

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(repo shared.OutboxRepository, serializer *EventSerializer, logger *zap.Logger) *OutboxPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxPublisher{
		repo:       repo,
		serializer: serializer,
		logger:     logger,
		now:        time.Now,
	}
}

// Publish stores the events in one batch
func (p *OutboxPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	now := p.now()
	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		if !p.serializer.IsRegistered(event.EventType()) {
			return fmt.Errorf("outbox: event type %q is not registered", event.EventType())
		}
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return fmt.Errorf("outbox: serialize %s: %w", event.EventType(), err)
		}
		entries = append(entries, shared.NewOutboxEntry(event, payload, now))
	}

	if err := p.repo.Save(ctx, entries...); err != nil {
		return fmt.Errorf("outbox: save: %w", err)
	}

	p.logger.Debug("events stored in outbox", zap.Int("count", len(entries)))
	return nil
}

var _ shared.EventPublisher = (*OutboxPublisher)(nil)
