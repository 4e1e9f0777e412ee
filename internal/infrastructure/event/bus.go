package event

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/courtage/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// catchAll keys the subscribers that receive every event type
const catchAll = "*"

// InMemoryEventBus dispatches relayed events to in-process subscribers.
// Handler failures are logged and never reach the publisher.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]shared.EventHandler
	logger      *zap.Logger
}

// NewInMemoryEventBus creates an empty bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make(map[string][]shared.EventHandler),
		logger:      logger,
	}
}

// Publish hands each event to its subscribers in order, synchronously
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		for _, handler := range b.handlersFor(event.EventType()) {
			if err := b.dispatch(ctx, handler, event); err != nil {
				b.logger.Error("event subscriber failed",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe attaches handler to eventTypes, or to handler.EventTypes() when
// none are given. A handler declaring no types receives every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	if len(eventTypes) == 0 {
		eventTypes = []string{catchAll}
	}

	b.mu.Lock()
	for _, t := range eventTypes {
		b.subscribers[t] = append(b.subscribers[t], handler)
	}
	b.mu.Unlock()

	b.logger.Debug("event subscriber added", zap.Strings("event_types", eventTypes))
}

// Unsubscribe detaches handler from every event type
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for t, handlers := range b.subscribers {
		handlers = slices.DeleteFunc(handlers, func(h shared.EventHandler) bool { return h == handler })
		if len(handlers) == 0 {
			delete(b.subscribers, t)
			continue
		}
		b.subscribers[t] = handlers
	}
}

// Start is a no-op; dispatch is synchronous
func (b *InMemoryEventBus) Start(context.Context) error {
	b.logger.Info("event bus started")
	return nil
}

// Stop is a no-op; Publish returns only after every handler ran
func (b *InMemoryEventBus) Stop(context.Context) error {
	b.logger.Info("event bus stopped")
	return nil
}

// handlersFor returns a snapshot of the typed subscribers followed by the catch-all ones
func (b *InMemoryEventBus) handlersFor(eventType string) []shared.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Concat(b.subscribers[eventType], b.subscribers[catchAll])
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event subscriber panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
