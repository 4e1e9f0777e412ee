package models

import (
	"time"

	"github.com/courtage/backend/internal/domain/bordereau"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BordereauModel is the persistence model for bordereau headers.
type BordereauModel struct {
	TenantAggregateModel
	Reference         string               `gorm:"type:varchar(20);not null;uniqueIndex:idx_bordereaux_reference"`
	CompanyID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	PeriodStart       time.Time            `gorm:"type:date;not null"`
	PeriodEnd         time.Time            `gorm:"type:date;not null"`
	Status            bordereau.Status     `gorm:"type:varchar(20);not null;index"`
	LineCount         int                  `gorm:"not null;default:0"`
	TotalBasePremium  decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	TotalGrossPremium decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	TotalDiscount     decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	TotalCommission   decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	TotalAmount       decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	GeneratedAt       time.Time            `gorm:"not null"`
	ClosedAt          *time.Time
	Notes             string               `gorm:"type:text"`
	Lines             []BordereauLineModel `gorm:"foreignKey:BordereauID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (BordereauModel) TableName() string {
	return "bordereaux"
}

// BordereauLineModel stores the contract snapshot of one line.
type BordereauLineModel struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primary_key"`
	BordereauID         uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_bordereau_lines_contract,priority:1"`
	Position            int             `gorm:"not null"`
	ContractID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_bordereau_lines_contract,priority:2"`
	ContractReference   string          `gorm:"type:varchar(20);not null"`
	PolicyNumber        string          `gorm:"type:varchar(20)"`
	ClientName          string          `gorm:"type:varchar(200)"`
	VehicleRegistration string          `gorm:"type:varchar(20)"`
	ContractType        vehicle.Class   `gorm:"type:varchar(20);not null"`
	StartDate           time.Time       `gorm:"type:date;not null"`
	EndDate             time.Time       `gorm:"type:date;not null"`
	BasePremium         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	GrossPremium        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalDiscount       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Commission          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalAmount         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (BordereauLineModel) TableName() string {
	return "bordereau_lines"
}

// ToDomain converts the header and loaded lines to a domain Bordereau.
func (m *BordereauModel) ToDomain() *bordereau.Bordereau {
	b := &bordereau.Bordereau{
		TenantAggregateRoot: m.TenantRoot(),
		Reference:           m.Reference,
		CompanyID:           m.CompanyID,
		Period: bordereau.Period{
			Start: toUTCDate(m.PeriodStart),
			End:   toUTCDate(m.PeriodEnd),
		},
		Status: m.Status,
		Lines:  make([]bordereau.Line, len(m.Lines)),
		Totals: bordereau.Totals{
			Count:         m.LineCount,
			BasePremium:   m.TotalBasePremium,
			GrossPremium:  m.TotalGrossPremium,
			TotalDiscount: m.TotalDiscount,
			Commission:    m.TotalCommission,
			TotalAmount:   m.TotalAmount,
		},
		GeneratedAt: m.GeneratedAt,
		ClosedAt:    m.ClosedAt,
		Notes:       m.Notes,
	}
	for i, l := range m.Lines {
		b.Lines[i] = bordereau.Line{
			ContractID:          l.ContractID,
			ContractReference:   l.ContractReference,
			PolicyNumber:        l.PolicyNumber,
			ClientName:          l.ClientName,
			VehicleRegistration: l.VehicleRegistration,
			ContractType:        l.ContractType,
			StartDate:           toUTCDate(l.StartDate),
			EndDate:             toUTCDate(l.EndDate),
			BasePremium:         l.BasePremium,
			GrossPremium:        l.GrossPremium,
			TotalDiscount:       l.TotalDiscount,
			Commission:          l.Commission,
			TotalAmount:         l.TotalAmount,
		}
	}
	return b
}

// BordereauModelFromDomain creates the header and line models. Line ids are
// regenerated on every save since lines are replaced wholesale.
func BordereauModelFromDomain(b *bordereau.Bordereau) *BordereauModel {
	m := &BordereauModel{
		Reference:         b.Reference,
		CompanyID:         b.CompanyID,
		PeriodStart:       b.Period.Start,
		PeriodEnd:         b.Period.End,
		Status:            b.Status,
		LineCount:         b.Totals.Count,
		TotalBasePremium:  b.Totals.BasePremium,
		TotalGrossPremium: b.Totals.GrossPremium,
		TotalDiscount:     b.Totals.TotalDiscount,
		TotalCommission:   b.Totals.Commission,
		TotalAmount:       b.Totals.TotalAmount,
		GeneratedAt:       b.GeneratedAt,
		ClosedAt:          b.ClosedAt,
		Notes:             b.Notes,
		Lines:             make([]BordereauLineModel, len(b.Lines)),
	}
	m.SetTenantRoot(b.TenantAggregateRoot)
	for i, l := range b.Lines {
		m.Lines[i] = BordereauLineModel{
			ID:                  uuid.New(),
			BordereauID:         b.ID,
			Position:            i,
			ContractID:          l.ContractID,
			ContractReference:   l.ContractReference,
			PolicyNumber:        l.PolicyNumber,
			ClientName:          l.ClientName,
			VehicleRegistration: l.VehicleRegistration,
			ContractType:        l.ContractType,
			StartDate:           l.StartDate,
			EndDate:             l.EndDate,
			BasePremium:         l.BasePremium,
			GrossPremium:        l.GrossPremium,
			TotalDiscount:       l.TotalDiscount,
			Commission:          l.Commission,
			TotalAmount:         l.TotalAmount,
		}
	}
	return m
}

func toUTCDate(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
