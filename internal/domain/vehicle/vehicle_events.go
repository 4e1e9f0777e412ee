package vehicle

import (
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeVehicle is the aggregate type name used in events
const AggregateTypeVehicle = "Vehicle"

const (
	EventTypeVehicleCreated = "VehicleCreated"
	EventTypeVehicleUpdated = "VehicleUpdated"
	EventTypeVehicleDeleted = "VehicleDeleted"
)

// VehicleCreatedEvent is published when a vehicle is registered
type VehicleCreatedEvent struct {
	shared.BaseDomainEvent
	VehicleID          uuid.UUID `json:"vehicle_id"`
	ClientID           uuid.UUID `json:"client_id"`
	RegistrationNumber string    `json:"registration_number"`
	Class              Class     `json:"class"`
}

// NewVehicleCreatedEvent creates a VehicleCreatedEvent
func NewVehicleCreatedEvent(v *Vehicle) *VehicleCreatedEvent {
	return &VehicleCreatedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeVehicleCreated, AggregateTypeVehicle, v.ID, v.TenantID),
		VehicleID:          v.ID,
		ClientID:           v.ClientID,
		RegistrationNumber: v.RegistrationNumber,
		Class:              v.Class,
	}
}

// VehicleUpdatedEvent is published when vehicle details or specs change
type VehicleUpdatedEvent struct {
	shared.BaseDomainEvent
	VehicleID uuid.UUID `json:"vehicle_id"`
	Class     Class     `json:"class"`
}

// NewVehicleUpdatedEvent creates a VehicleUpdatedEvent
func NewVehicleUpdatedEvent(v *Vehicle) *VehicleUpdatedEvent {
	return &VehicleUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVehicleUpdated, AggregateTypeVehicle, v.ID, v.TenantID),
		VehicleID:       v.ID,
		Class:           v.Class,
	}
}

// VehicleDeletedEvent is published when a vehicle is removed
type VehicleDeletedEvent struct {
	shared.BaseDomainEvent
	VehicleID uuid.UUID `json:"vehicle_id"`
}

// NewVehicleDeletedEvent creates a VehicleDeletedEvent
func NewVehicleDeletedEvent(v *Vehicle) *VehicleDeletedEvent {
	return &VehicleDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVehicleDeleted, AggregateTypeVehicle, v.ID, v.TenantID),
		VehicleID:       v.ID,
	}
}
