package models

import (
	"github.com/courtage/backend/internal/domain/rategrid"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComponentColumns stores the eight premium components. It is embedded by grid
// rows and, with a prefix, by contracts as their priced snapshot.
type ComponentColumns struct {
	CivilLiability   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DefenceRecourse  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Passenger        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DriverIndividual decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	RecourseAdvance  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Fire             decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Theft            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	GlassBreakage    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// ToDomain converts the columns to domain components
func (c ComponentColumns) ToDomain() rategrid.Components {
	return rategrid.Components{
		CivilLiability:   c.CivilLiability,
		DefenceRecourse:  c.DefenceRecourse,
		Passenger:        c.Passenger,
		DriverIndividual: c.DriverIndividual,
		RecourseAdvance:  c.RecourseAdvance,
		Fire:             c.Fire,
		Theft:            c.Theft,
		GlassBreakage:    c.GlassBreakage,
	}
}

// ComponentColumnsFromDomain maps domain components to columns
func ComponentColumnsFromDomain(c rategrid.Components) ComponentColumns {
	return ComponentColumns{
		CivilLiability:   c.CivilLiability,
		DefenceRecourse:  c.DefenceRecourse,
		Passenger:        c.Passenger,
		DriverIndividual: c.DriverIndividual,
		RecourseAdvance:  c.RecourseAdvance,
		Fire:             c.Fire,
		Theft:            c.Theft,
		GlassBreakage:    c.GlassBreakage,
	}
}

// RateRowModel is one cell of a tenant's rate grid.
type RateRowModel struct {
	AggregateModel
	TenantID       uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_rate_rows_key,priority:1"`
	CreatedBy      *uuid.UUID               `gorm:"type:uuid"`
	Class          vehicle.Class            `gorm:"type:varchar(20);not null;uniqueIndex:idx_rate_rows_key,priority:2"`
	DurationMonths int                      `gorm:"not null;uniqueIndex:idx_rate_rows_key,priority:3"`
	Bucket         rategrid.AttributeBucket `gorm:"type:varchar(20);not null;uniqueIndex:idx_rate_rows_key,priority:4"`
	ComponentColumns
}

// TableName returns the table name for GORM
func (RateRowModel) TableName() string {
	return "rate_rows"
}

// ToDomain converts the persistence model to a domain RateRow.
func (m *RateRowModel) ToDomain() *rategrid.RateRow {
	return &rategrid.RateRow{
		TenantAggregateRoot: tenantRoot(m.AggregateModel, m.TenantID, m.CreatedBy),
		Key: rategrid.Key{
			Class:    m.Class,
			Duration: rategrid.DurationBucket(m.DurationMonths),
			Bucket:   m.Bucket,
		},
		Components: m.ComponentColumns.ToDomain(),
	}
}

// RateRowModelFromDomain creates a new persistence model from a domain RateRow.
func RateRowModelFromDomain(r *rategrid.RateRow) *RateRowModel {
	m := &RateRowModel{
		TenantID:         r.TenantID,
		CreatedBy:        r.CreatedBy,
		Class:            r.Class,
		DurationMonths:   r.Duration.Months(),
		Bucket:           r.Bucket,
		ComponentColumns: ComponentColumnsFromDomain(r.Components),
	}
	m.SetRoot(r.BaseAggregateRoot)
	return m
}
