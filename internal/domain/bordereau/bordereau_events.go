package bordereau

import (
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeBordereau is the aggregate type name used in events
const AggregateTypeBordereau = "Bordereau"

const (
	EventTypeBordereauGenerated = "BordereauGenerated"
	EventTypeBordereauClosed    = "BordereauClosed"
)

// BordereauGeneratedEvent is published each time lines are (re)computed
type BordereauGeneratedEvent struct {
	shared.BaseDomainEvent
	BordereauID uuid.UUID       `json:"bordereau_id"`
	CompanyID   uuid.UUID       `json:"company_id"`
	LineCount   int             `json:"line_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewBordereauGeneratedEvent creates a BordereauGeneratedEvent
func NewBordereauGeneratedEvent(b *Bordereau) *BordereauGeneratedEvent {
	return &BordereauGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBordereauGenerated, AggregateTypeBordereau, b.ID, b.TenantID),
		BordereauID:     b.ID,
		CompanyID:       b.CompanyID,
		LineCount:       b.Totals.Count,
		TotalAmount:     b.Totals.TotalAmount,
	}
}

// BordereauClosedEvent is published when a statement is frozen
type BordereauClosedEvent struct {
	shared.BaseDomainEvent
	BordereauID uuid.UUID       `json:"bordereau_id"`
	Reference   string          `json:"reference"`
	CompanyID   uuid.UUID       `json:"company_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewBordereauClosedEvent creates a BordereauClosedEvent
func NewBordereauClosedEvent(b *Bordereau) *BordereauClosedEvent {
	return &BordereauClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBordereauClosed, AggregateTypeBordereau, b.ID, b.TenantID),
		BordereauID:     b.ID,
		Reference:       b.Reference,
		CompanyID:       b.CompanyID,
		TotalAmount:     b.Totals.TotalAmount,
	}
}
