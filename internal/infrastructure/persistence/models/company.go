package models

import (
	"github.com/courtage/backend/internal/domain/company"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompanyModel is the persistence model for insurers.
type CompanyModel struct {
	AggregateModel
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_companies_tenant_code,priority:1"`
	CreatedBy         *uuid.UUID      `gorm:"type:uuid"`
	Code              string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_companies_tenant_code,priority:2"`
	Name              string          `gorm:"type:varchar(200);not null"`
	Email             string          `gorm:"type:varchar(200)"`
	Phone             string          `gorm:"type:varchar(50)"`
	Address           string          `gorm:"type:text"`
	DefaultCommission decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PlatformCode      string          `gorm:"type:varchar(50)"`
	Active            bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts the persistence model to a domain Company.
func (m *CompanyModel) ToDomain() *company.Company {
	return &company.Company{
		TenantAggregateRoot: tenantRoot(m.AggregateModel, m.TenantID, m.CreatedBy),
		Code:                m.Code,
		Name:                m.Name,
		Email:               m.Email,
		Phone:               m.Phone,
		Address:             m.Address,
		DefaultCommission:   m.DefaultCommission,
		PlatformCode:        m.PlatformCode,
		Active:              m.Active,
	}
}

// CompanyModelFromDomain creates a new persistence model from a domain Company.
func CompanyModelFromDomain(c *company.Company) *CompanyModel {
	m := &CompanyModel{
		TenantID:          c.TenantID,
		CreatedBy:         c.CreatedBy,
		Code:              c.Code,
		Name:              c.Name,
		Email:             c.Email,
		Phone:             c.Phone,
		Address:           c.Address,
		DefaultCommission: c.DefaultCommission,
		PlatformCode:      c.PlatformCode,
		Active:            c.Active,
	}
	m.SetRoot(c.BaseAggregateRoot)
	return m
}
