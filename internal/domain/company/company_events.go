package company

import (
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeCompany is the aggregate type name used in events
const AggregateTypeCompany = "Company"

const (
	EventTypeCompanyCreated       = "CompanyCreated"
	EventTypeCompanyStatusChanged = "CompanyStatusChanged"
)

// CompanyCreatedEvent is published when an insurer is added
type CompanyCreatedEvent struct {
	shared.BaseDomainEvent
	CompanyID uuid.UUID `json:"company_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
}

// NewCompanyCreatedEvent creates a CompanyCreatedEvent
func NewCompanyCreatedEvent(c *Company) *CompanyCreatedEvent {
	return &CompanyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyCreated, AggregateTypeCompany, c.ID, c.TenantID),
		CompanyID:       c.ID,
		Code:            c.Code,
		Name:            c.Name,
	}
}

// CompanyStatusChangedEvent is published on activation or deactivation
type CompanyStatusChangedEvent struct {
	shared.BaseDomainEvent
	CompanyID uuid.UUID `json:"company_id"`
	Active    bool      `json:"active"`
}

// NewCompanyStatusChangedEvent creates a CompanyStatusChangedEvent
func NewCompanyStatusChangedEvent(c *Company) *CompanyStatusChangedEvent {
	return &CompanyStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyStatusChanged, AggregateTypeCompany, c.ID, c.TenantID),
		CompanyID:       c.ID,
		Active:          c.Active,
	}
}
