package event

import (
	"context"
	"time"

	"github.com/courtage/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultDedupTTL bounds how long a relayed event ID is remembered. It must
// exceed the longest outbox retry backoff.
const DefaultDedupTTL = 24 * time.Hour

// DedupObserver is told about redeliveries that were skipped
type DedupObserver interface {
	EventDeduplicated(handler, eventType string)
}

// IdempotentHandler makes an EventHandler tolerate redelivery. The outbox
// relays at least once, so a retried entry reaches the bus again.
//
// Keys are scoped by handler name: two handlers subscribed to the same event
// each process it once.
type IdempotentHandler struct {
	name     string
	next     shared.EventHandler
	store    shared.IdempotencyStore
	ttl      time.Duration
	observer DedupObserver
	logger   *zap.Logger
}

// IdempotentHandlerOption customizes an IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithDedupTTL overrides DefaultDedupTTL
func WithDedupTTL(ttl time.Duration) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.ttl = ttl }
}

// WithDedupObserver reports skipped redeliveries
func WithDedupObserver(o DedupObserver) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.observer = o }
}

// NewIdempotentHandler wraps next under the given name
func NewIdempotentHandler(name string, next shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &IdempotentHandler{
		name:   name,
		next:   next,
		store:  store,
		ttl:    DefaultDedupTTL,
		logger: logger.With(zap.String("handler", name)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the event types of the wrapped handler
func (h *IdempotentHandler) EventTypes() []string {
	return h.next.EventTypes()
}

// Handle runs the wrapped handler unless this handler already saw the event.
// A store failure lets the event through; a handler failure keeps the key
// until it expires.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
	}

	fresh, err := h.store.MarkProcessed(ctx, h.key(event), h.ttl)
	if err != nil {
		h.logger.Warn("dedup store unavailable, handling event anyway", append(fields, zap.Error(err))...)
	} else if !fresh {
		h.logger.Debug("redelivered event skipped", fields...)
		if h.observer != nil {
			h.observer.EventDeduplicated(h.name, event.EventType())
		}
		return nil
	}

	if err := h.next.Handle(ctx, event); err != nil {
		h.logger.Error("event handler failed", append(fields, zap.Error(err))...)
		return err
	}
	return nil
}

func (h *IdempotentHandler) key(event shared.DomainEvent) string {
	return "event:" + h.name + ":" + event.EventID().String()
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
