package rategrid

import (
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeRateRow is the aggregate type name used in events
const AggregateTypeRateRow = "RateRow"

const (
	EventTypeRateRowChanged = "RateRowChanged"
	EventTypeRateRowDeleted = "RateRowDeleted"
)

// RateRowChangedEvent is published when a grid cell is created or repriced
type RateRowChangedEvent struct {
	shared.BaseDomainEvent
	RowID       uuid.UUID       `json:"row_id"`
	Class       vehicle.Class   `json:"class"`
	Duration    DurationBucket  `json:"duration_months"`
	Bucket      AttributeBucket `json:"bucket"`
	BasePremium decimal.Decimal `json:"base_premium"`
}

// NewRateRowChangedEvent creates a RateRowChangedEvent
func NewRateRowChangedEvent(r *RateRow) *RateRowChangedEvent {
	return &RateRowChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRateRowChanged, AggregateTypeRateRow, r.ID, r.TenantID),
		RowID:           r.ID,
		Class:           r.Class,
		Duration:        r.Duration,
		Bucket:          r.Bucket,
		BasePremium:     r.BasePremium(),
	}
}

// RateRowDeletedEvent is published when a grid cell is removed
type RateRowDeletedEvent struct {
	shared.BaseDomainEvent
	RowID uuid.UUID `json:"row_id"`
	Key   Key       `json:"key"`
}

// NewRateRowDeletedEvent creates a RateRowDeletedEvent
func NewRateRowDeletedEvent(r *RateRow) *RateRowDeletedEvent {
	return &RateRowDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRateRowDeleted, AggregateTypeRateRow, r.ID, r.TenantID),
		RowID:           r.ID,
		Key:             r.Key,
	}
}
