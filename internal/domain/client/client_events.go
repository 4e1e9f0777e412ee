package client

import (
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeClient is the aggregate type name used in events
const AggregateTypeClient = "Client"

const (
	EventTypeClientCreated = "ClientCreated"
	EventTypeClientUpdated = "ClientUpdated"
	EventTypeClientDeleted = "ClientDeleted"
)

// ClientCreatedEvent is published when a client is registered
type ClientCreatedEvent struct {
	shared.BaseDomainEvent
	ClientID    uuid.UUID `json:"client_id"`
	Kind        Kind      `json:"kind"`
	DisplayName string    `json:"display_name"`
}

// NewClientCreatedEvent creates a ClientCreatedEvent
func NewClientCreatedEvent(c *Client) *ClientCreatedEvent {
	return &ClientCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClientCreated, AggregateTypeClient, c.ID, c.TenantID),
		ClientID:        c.ID,
		Kind:            c.Kind,
		DisplayName:     c.DisplayName(),
	}
}

// ClientUpdatedEvent is published when a client is renamed
type ClientUpdatedEvent struct {
	shared.BaseDomainEvent
	ClientID    uuid.UUID `json:"client_id"`
	DisplayName string    `json:"display_name"`
}

// NewClientUpdatedEvent creates a ClientUpdatedEvent
func NewClientUpdatedEvent(c *Client) *ClientUpdatedEvent {
	return &ClientUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClientUpdated, AggregateTypeClient, c.ID, c.TenantID),
		ClientID:        c.ID,
		DisplayName:     c.DisplayName(),
	}
}

// ClientDeletedEvent is published when a client is removed
type ClientDeletedEvent struct {
	shared.BaseDomainEvent
	ClientID  uuid.UUID `json:"client_id"`
	Reference string    `json:"reference"`
}

// NewClientDeletedEvent creates a ClientDeletedEvent
func NewClientDeletedEvent(c *Client) *ClientDeletedEvent {
	return &ClientDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClientDeleted, AggregateTypeClient, c.ID, c.TenantID),
		ClientID:        c.ID,
		Reference:       c.Reference,
	}
}
