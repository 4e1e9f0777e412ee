package models

import (
	"time"

	"github.com/courtage/backend/internal/domain/contract"
	"github.com/courtage/backend/internal/domain/pricing"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractModel is the persistence model for the Contract aggregate. Pricing
// inputs and the priced breakdown are stored as flat columns.
type ContractModel struct {
	TenantAggregateModel
	Reference      string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_contracts_reference"`
	PolicyNumber   *string         `gorm:"type:varchar(20);index"`
	Type           vehicle.Class   `gorm:"type:varchar(20);not null"`
	ClientID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	VehicleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	CompanyID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	DurationMonths int             `gorm:"not null"`
	StartDate      time.Time       `gorm:"type:date;not null;index"`
	EndDate        time.Time       `gorm:"type:date;not null;index"`
	Status         contract.Status `gorm:"type:varchar(20);not null;index"`
	ParentID       *uuid.UUID      `gorm:"type:uuid;index"`

	InputAccessories            decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	InputFlatDiscount           decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	InputBonusMalusRate         decimal.Decimal      `gorm:"column:input_bns_rate;type:decimal(5,2);not null;default:0"`
	InputCommissionDiscountRate decimal.Decimal      `gorm:"type:decimal(5,2);not null;default:0"`
	InputProfessionDiscountKind pricing.DiscountKind `gorm:"type:varchar(20)"`
	InputProfessionDiscount     decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	InputCommission             decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	InputCommissionOverride     bool                 `gorm:"not null;default:false"`

	Components         ComponentColumns       `gorm:"embedded;embeddedPrefix:comp_"`
	BasePremium        decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	Accessories        decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	GrossPremium       decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	FlatDiscount       decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	BonusMalusDiscount decimal.Decimal        `gorm:"column:bns_discount;type:decimal(18,2);not null;default:0"`
	CommissionDiscount decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	ProfessionDiscount decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	TotalDiscount      decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	Commission         decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	TotalAmount        decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	PricingStatus      contract.PricingStatus `gorm:"type:varchar(20);not null"`

	PricedAt           *time.Time
	ValidatedAt        *time.Time
	ActivatedAt        *time.Time
	CancelledAt        *time.Time
	ExpiredAt          *time.Time
	CancellationReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// PolicyNumberModel reserves a policy number for the renewal lineage started
// by RootContractID. Numbers are unique across tenants.
type PolicyNumberModel struct {
	Number         string    `gorm:"type:varchar(20);primaryKey"`
	TenantID       uuid.UUID `gorm:"type:uuid;not null;index"`
	RootContractID uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt      time.Time
}

func (PolicyNumberModel) TableName() string {
	return "policy_numbers"
}

// ToDomain converts the persistence model to a domain Contract.
func (m *ContractModel) ToDomain() *contract.Contract {
	c := &contract.Contract{
		TenantAggregateRoot: m.TenantRoot(),
		Reference:           m.Reference,
		Type:                m.Type,
		ClientID:            m.ClientID,
		VehicleID:           m.VehicleID,
		CompanyID:           m.CompanyID,
		DurationMonths:      m.DurationMonths,
		StartDate:           contract.DateOnly(m.StartDate),
		EndDate:             contract.DateOnly(m.EndDate),
		Status:              m.Status,
		ParentID:            m.ParentID,
		Inputs: pricing.Inputs{
			Accessories:            m.InputAccessories,
			FlatDiscount:           m.InputFlatDiscount,
			BonusMalusRate:         m.InputBonusMalusRate,
			CommissionDiscountRate: m.InputCommissionDiscountRate,
			ProfessionDiscount:     pricing.Discount{Kind: m.InputProfessionDiscountKind, Value: m.InputProfessionDiscount},
			Commission:             m.InputCommission,
			CommissionOverride:     m.InputCommissionOverride,
		},
		Amounts: pricing.Breakdown{
			Components:         m.Components.ToDomain(),
			BasePremium:        m.BasePremium,
			Accessories:        m.Accessories,
			GrossPremium:       m.GrossPremium,
			FlatDiscount:       m.FlatDiscount,
			BonusMalusDiscount: m.BonusMalusDiscount,
			CommissionDiscount: m.CommissionDiscount,
			ProfessionDiscount: m.ProfessionDiscount,
			TotalDiscount:      m.TotalDiscount,
			Commission:         m.Commission,
			TotalAmount:        m.TotalAmount,
		},
		PricingStatus:      m.PricingStatus,
		PricedAt:           m.PricedAt,
		ValidatedAt:        m.ValidatedAt,
		ActivatedAt:        m.ActivatedAt,
		CancelledAt:        m.CancelledAt,
		ExpiredAt:          m.ExpiredAt,
		CancellationReason: m.CancellationReason,
	}
	if m.PolicyNumber != nil {
		c.PolicyNumber = *m.PolicyNumber
	}
	return c
}

// FromDomain populates the persistence model from a domain Contract.
func (m *ContractModel) FromDomain(c *contract.Contract) {
	m.SetTenantRoot(c.TenantAggregateRoot)
	m.Reference = c.Reference
	m.PolicyNumber = nil
	if c.PolicyNumber != "" {
		number := c.PolicyNumber
		m.PolicyNumber = &number
	}
	m.Type = c.Type
	m.ClientID = c.ClientID
	m.VehicleID = c.VehicleID
	m.CompanyID = c.CompanyID
	m.DurationMonths = c.DurationMonths
	m.StartDate = c.StartDate
	m.EndDate = c.EndDate
	m.Status = c.Status
	m.ParentID = c.ParentID

	m.InputAccessories = c.Inputs.Accessories
	m.InputFlatDiscount = c.Inputs.FlatDiscount
	m.InputBonusMalusRate = c.Inputs.BonusMalusRate
	m.InputCommissionDiscountRate = c.Inputs.CommissionDiscountRate
	m.InputProfessionDiscountKind = c.Inputs.ProfessionDiscount.Kind
	m.InputProfessionDiscount = c.Inputs.ProfessionDiscount.Value
	m.InputCommission = c.Inputs.Commission
	m.InputCommissionOverride = c.Inputs.CommissionOverride

	m.Components = ComponentColumnsFromDomain(c.Amounts.Components)
	m.BasePremium = c.Amounts.BasePremium
	m.Accessories = c.Amounts.Accessories
	m.GrossPremium = c.Amounts.GrossPremium
	m.FlatDiscount = c.Amounts.FlatDiscount
	m.BonusMalusDiscount = c.Amounts.BonusMalusDiscount
	m.CommissionDiscount = c.Amounts.CommissionDiscount
	m.ProfessionDiscount = c.Amounts.ProfessionDiscount
	m.TotalDiscount = c.Amounts.TotalDiscount
	m.Commission = c.Amounts.Commission
	m.TotalAmount = c.Amounts.TotalAmount
	m.PricingStatus = c.PricingStatus

	m.PricedAt = c.PricedAt
	m.ValidatedAt = c.ValidatedAt
	m.ActivatedAt = c.ActivatedAt
	m.CancelledAt = c.CancelledAt
	m.ExpiredAt = c.ExpiredAt
	m.CancellationReason = c.CancellationReason
}

// ContractModelFromDomain creates a new persistence model from a domain Contract.
func ContractModelFromDomain(c *contract.Contract) *ContractModel {
	m := &ContractModel{}
	m.FromDomain(c)
	return m
}
