package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testEvent is a bare payload used where the concrete domain event is irrelevant
type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string, tenantID uuid.UUID) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Contract", uuid.New(), tenantID),
		Data:            "CTR-2024-00001",
	}
}

type testHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) setError(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

type panickingHandler struct{}

func (panickingHandler) Handle(context.Context, shared.DomainEvent) error {
	panic("nil pointer in projection")
}

func (panickingHandler) EventTypes() []string { return []string{"ContractExpired"} }

func TestInMemoryEventBus_RoutesByEventType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	validated := newTestHandler()
	expired := newTestHandler("ContractExpired")
	everything := newTestHandler()
	bus.Subscribe(validated, "ContractValidated", "ContractActivated")
	bus.Subscribe(expired)
	bus.Subscribe(everything)

	tenantID := uuid.New()
	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("ContractValidated", tenantID),
		newTestEvent("ContractActivated", tenantID),
		newTestEvent("ContractExpired", tenantID),
		newTestEvent("BordereauClosed", tenantID),
	))

	assert.Len(t, validated.getHandled(), 2)
	require.Len(t, expired.getHandled(), 1)
	assert.Equal(t, "ContractExpired", expired.getHandled()[0].EventType())
	assert.Len(t, everything.getHandled(), 4)
}

func TestInMemoryEventBus_FailingSubscriberDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := newTestHandler("ContractExpired")
	failing.setError(errors.New("projection unavailable"))
	after := newTestHandler("ContractExpired")
	bus.Subscribe(failing)
	bus.Subscribe(panickingHandler{})
	bus.Subscribe(after)

	err := bus.Publish(context.Background(), newTestEvent("ContractExpired", uuid.New()))

	require.NoError(t, err)
	assert.Len(t, failing.getHandled(), 1)
	assert.Len(t, after.getHandled(), 1)
}

func TestInMemoryEventBus_DispatchReturnsPanicAsError(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	err := bus.dispatch(context.Background(), panickingHandler{}, newTestEvent("ContractExpired", uuid.New()))

	assert.ErrorContains(t, err, "nil pointer in projection")
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler()
	bus.Subscribe(handler, "ContractRenewed")
	bus.Subscribe(handler)

	_ = bus.Publish(context.Background(), newTestEvent("ContractRenewed", uuid.New()))
	assert.Len(t, handler.getHandled(), 2)

	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("ContractRenewed", uuid.New()))
	assert.Len(t, handler.getHandled(), 2)
	assert.Empty(t, bus.subscribers)
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()
	require.NoError(t, bus.Start(ctx))

	handler := newTestHandler("ClientCreated")
	bus.Subscribe(handler)
	require.NoError(t, bus.Publish(ctx, newTestEvent("ClientCreated", uuid.New())))
	assert.Len(t, handler.getHandled(), 1)

	require.NoError(t, bus.Stop(ctx))
}
