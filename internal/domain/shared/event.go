package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact recorded by an aggregate. Events are relayed
// through the outbox, so every implementation must round-trip as JSON.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// BaseDomainEvent is embedded by every concrete event
type BaseDomainEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Occurred      time.Time `json:"occurred_at"`
	Subject       uuid.UUID `json:"aggregate_id"`
	AggregateKind string    `json:"aggregate_type"`
	Tenant        uuid.UUID `json:"tenant_id"`
}

func NewBaseDomainEvent(eventType, aggregateType string, aggregateID, tenantID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:            uuid.New(),
		Type:          eventType,
		Occurred:      time.Now().UTC(),
		Subject:       aggregateID,
		AggregateKind: aggregateType,
		Tenant:        tenantID,
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.Occurred }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.Subject }
func (e *BaseDomainEvent) AggregateType() string  { return e.AggregateKind }
func (e *BaseDomainEvent) TenantID() uuid.UUID    { return e.Tenant }
