package contract

import (
	"time"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeContract is the aggregate type name used in events
const AggregateTypeContract = "Contract"

const (
	EventTypeContractCreated   = "ContractCreated"
	EventTypeContractPriced    = "ContractPriced"
	EventTypeContractValidated = "ContractValidated"
	EventTypeContractActivated = "ContractActivated"
	EventTypeContractExpired   = "ContractExpired"
	EventTypeContractCancelled = "ContractCancelled"
	EventTypeContractRenewed   = "ContractRenewed"
)

// ContractCreatedEvent is published when a draft is created
type ContractCreatedEvent struct {
	shared.BaseDomainEvent
	ContractID   uuid.UUID     `json:"contract_id"`
	VehicleClass vehicle.Class `json:"vehicle_class"`
	ClientID     uuid.UUID     `json:"client_id"`
	VehicleID    uuid.UUID     `json:"vehicle_id"`
	CompanyID    uuid.UUID     `json:"company_id"`
	StartDate    time.Time     `json:"start_date"`
	EndDate      time.Time     `json:"end_date"`
}

// NewContractCreatedEvent creates a ContractCreatedEvent
func NewContractCreatedEvent(c *Contract) *ContractCreatedEvent {
	return &ContractCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractCreated, AggregateTypeContract, c.ID, c.TenantID),
		ContractID:      c.ID,
		VehicleClass:    c.Type,
		ClientID:        c.ClientID,
		VehicleID:       c.VehicleID,
		CompanyID:       c.CompanyID,
		StartDate:       c.StartDate,
		EndDate:         c.EndDate,
	}
}

// ContractPricedEvent is published when new amounts are stored
type ContractPricedEvent struct {
	shared.BaseDomainEvent
	ContractID   uuid.UUID       `json:"contract_id"`
	GrossPremium decimal.Decimal `json:"gross_premium"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// NewContractPricedEvent creates a ContractPricedEvent
func NewContractPricedEvent(c *Contract) *ContractPricedEvent {
	return &ContractPricedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractPriced, AggregateTypeContract, c.ID, c.TenantID),
		ContractID:      c.ID,
		GrossPremium:    c.Amounts.GrossPremium,
		TotalAmount:     c.Amounts.TotalAmount,
	}
}

// ContractStatusChangedEvent is published on every lifecycle transition.
// Its event type names the transition (validated, activated, expired, cancelled).
type ContractStatusChangedEvent struct {
	shared.BaseDomainEvent
	ContractID   uuid.UUID `json:"contract_id"`
	Reference    string    `json:"reference"`
	PolicyNumber string    `json:"policy_number,omitempty"`
	OldStatus    Status    `json:"old_status"`
	NewStatus    Status    `json:"new_status"`
	Reason       string    `json:"reason,omitempty"`
}

// NewContractStatusChangedEvent creates a ContractStatusChangedEvent
func NewContractStatusChangedEvent(c *Contract, from Status, eventType string) *ContractStatusChangedEvent {
	return &ContractStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeContract, c.ID, c.TenantID),
		ContractID:      c.ID,
		Reference:       c.Reference,
		PolicyNumber:    c.PolicyNumber,
		OldStatus:       from,
		NewStatus:       c.Status,
		Reason:          c.CancellationReason,
	}
}

// ContractRenewedEvent is published when a renewal draft is created
type ContractRenewedEvent struct {
	shared.BaseDomainEvent
	ContractID         uuid.UUID `json:"contract_id"`
	ParentID           uuid.UUID `json:"parent_id"`
	PolicyNumber       string    `json:"policy_number,omitempty"`
	PolicyNumberReused bool      `json:"policy_number_reused"`
}

// NewContractRenewedEvent creates a ContractRenewedEvent
func NewContractRenewedEvent(child, parent *Contract, reused bool) *ContractRenewedEvent {
	return &ContractRenewedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeContractRenewed, AggregateTypeContract, child.ID, child.TenantID),
		ContractID:         child.ID,
		ParentID:           parent.ID,
		PolicyNumber:       child.PolicyNumber,
		PolicyNumberReused: reused,
	}
}
