package models

import (
	"github.com/courtage/backend/internal/domain/client"
	"github.com/courtage/backend/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientModel is the persistence model for the Client aggregate.
type ClientModel struct {
	TenantAggregateModel
	Reference        string      `gorm:"type:varchar(20);not null;uniqueIndex:idx_clients_reference"`
	Kind             client.Kind `gorm:"type:varchar(20);not null"`
	FirstName        string      `gorm:"type:varchar(100)"`
	LastName         string      `gorm:"type:varchar(100)"`
	CompanyName      string      `gorm:"type:varchar(200)"`
	Phone            string      `gorm:"type:varchar(50);index"`
	Email            string      `gorm:"type:varchar(200)"`
	Address          string      `gorm:"type:text"`
	City             string      `gorm:"type:varchar(100)"`
	IDDocumentNumber string      `gorm:"column:id_document_number;type:varchar(50)"`
	ProfessionID     *uuid.UUID  `gorm:"type:uuid;index"`
	Notes            string      `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client.
func (m *ClientModel) ToDomain() *client.Client {
	return &client.Client{
		TenantAggregateRoot: m.TenantRoot(),
		Reference:           m.Reference,
		Kind:                m.Kind,
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		CompanyName:         m.CompanyName,
		Phone:               m.Phone,
		Email:               m.Email,
		Address:             m.Address,
		City:                m.City,
		IDDocumentNumber:    m.IDDocumentNumber,
		ProfessionID:        m.ProfessionID,
		Notes:               m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Client.
func (m *ClientModel) FromDomain(c *client.Client) {
	m.SetTenantRoot(c.TenantAggregateRoot)
	m.Reference = c.Reference
	m.Kind = c.Kind
	m.FirstName = c.FirstName
	m.LastName = c.LastName
	m.CompanyName = c.CompanyName
	m.Phone = c.Phone
	m.Email = c.Email
	m.Address = c.Address
	m.City = c.City
	m.IDDocumentNumber = c.IDDocumentNumber
	m.ProfessionID = c.ProfessionID
	m.Notes = c.Notes
}

// ClientModelFromDomain creates a new persistence model from a domain Client.
func ClientModelFromDomain(c *client.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}

// ProfessionModel is the persistence model for professions.
type ProfessionModel struct {
	BaseModel
	TenantID      uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_professions_tenant_code,priority:1"`
	Code          string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_professions_tenant_code,priority:2"`
	Name          string               `gorm:"type:varchar(200);not null"`
	DiscountKind  pricing.DiscountKind `gorm:"type:varchar(20)"`
	DiscountValue decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (ProfessionModel) TableName() string {
	return "professions"
}

// ToDomain converts the persistence model to a domain Profession.
func (m *ProfessionModel) ToDomain() *client.Profession {
	return &client.Profession{
		BaseEntity: m.BaseModel.Entity(),
		TenantID:   m.TenantID,
		Code:       m.Code,
		Name:       m.Name,
		Discount:   pricing.Discount{Kind: m.DiscountKind, Value: m.DiscountValue},
	}
}

// ProfessionModelFromDomain creates a new persistence model from a domain Profession.
func ProfessionModelFromDomain(p *client.Profession) *ProfessionModel {
	m := &ProfessionModel{
		TenantID:      p.TenantID,
		Code:          p.Code,
		Name:          p.Name,
		DiscountKind:  p.Discount.Kind,
		DiscountValue: p.Discount.Value,
	}
	m.SetEntity(p.BaseEntity)
	return m
}
