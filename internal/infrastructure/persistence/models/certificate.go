package models

import (
	"time"

	"github.com/courtage/backend/internal/domain/certificate"
	"github.com/google/uuid"
)

// CertificateModel is the persistence model for certificate requests. A
// contract has at most one pending or issued certificate.
type CertificateModel struct {
	TenantAggregateModel
	ContractID        uuid.UUID          `gorm:"type:uuid;not null;index;uniqueIndex:idx_certificates_contract_live,where:status = 'pending' OR status = 'issued'"`
	CompanyID         uuid.UUID          `gorm:"type:uuid;not null"`
	Number            string             `gorm:"type:varchar(50);index"`
	Status            certificate.Status `gorm:"type:varchar(20);not null"`
	ProviderReference string             `gorm:"type:varchar(100)"`
	DownloadURL       string             `gorm:"type:text"`
	ErrorMessage      string             `gorm:"type:text"`
	IssuedAt          *time.Time
	CancelledAt       *time.Time
}

// TableName returns the table name for GORM
func (CertificateModel) TableName() string {
	return "certificates"
}

// ToDomain converts the persistence model to a domain Certificate.
func (m *CertificateModel) ToDomain() *certificate.Certificate {
	return &certificate.Certificate{
		TenantAggregateRoot: m.TenantRoot(),
		ContractID:          m.ContractID,
		CompanyID:           m.CompanyID,
		Number:              m.Number,
		Status:              m.Status,
		ProviderReference:   m.ProviderReference,
		DownloadURL:         m.DownloadURL,
		ErrorMessage:        m.ErrorMessage,
		IssuedAt:            m.IssuedAt,
		CancelledAt:         m.CancelledAt,
	}
}

// CertificateModelFromDomain creates a new persistence model from a domain Certificate.
func CertificateModelFromDomain(c *certificate.Certificate) *CertificateModel {
	m := &CertificateModel{
		ContractID:        c.ContractID,
		CompanyID:         c.CompanyID,
		Number:            c.Number,
		Status:            c.Status,
		ProviderReference: c.ProviderReference,
		DownloadURL:       c.DownloadURL,
		ErrorMessage:      c.ErrorMessage,
		IssuedAt:          c.IssuedAt,
		CancelledAt:       c.CancelledAt,
	}
	m.SetTenantRoot(c.TenantAggregateRoot)
	return m
}
