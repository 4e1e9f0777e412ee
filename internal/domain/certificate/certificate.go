// Package certificate tracks insurance certificates issued through the
// external certificate platform.
package certificate

import (
	"strings"
	"time"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Status of a certificate request
type Status string

const (
	StatusPending   Status = "pending"
	StatusIssued    Status = "issued"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Certificate is one issuance attempt for a contract
type Certificate struct {
	shared.TenantAggregateRoot
	ContractID        uuid.UUID
	CompanyID         uuid.UUID
	Number            string
	Status            Status
	ProviderReference string
	DownloadURL       string
	ErrorMessage      string
	IssuedAt          *time.Time
	CancelledAt       *time.Time
}

// NewCertificate creates a pending request
func NewCertificate(tenantID, contractID, companyID uuid.UUID) (*Certificate, error) {
	if contractID == uuid.Nil || companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CERTIFICATE", "Contract and company are required")
	}
	return &Certificate{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ContractID:          contractID,
		CompanyID:           companyID,
		Status:              StatusPending,
	}, nil
}

// MarkIssued records the platform's answer
func (c *Certificate) MarkIssued(res IssueResult) error {
	if c.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending certificates can be issued")
	}
	if strings.TrimSpace(res.Number) == "" {
		return shared.NewDomainError("INVALID_CERTIFICATE_NUMBER", "Platform returned no certificate number")
	}
	issuedAt := res.IssuedAt
	c.Number = res.Number
	c.ProviderReference = res.Reference
	c.DownloadURL = res.DownloadURL
	c.ErrorMessage = ""
	c.IssuedAt = &issuedAt
	c.Status = StatusIssued
	c.Touch()
	c.AddDomainEvent(NewCertificateIssuedEvent(c))
	return nil
}

// MarkFailed keeps the platform error for the operator.
func (c *Certificate) MarkFailed(message string) error {
	if c.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending certificates can fail")
	}
	if len(message) > 1000 {
		message = message[:1000]
	}
	c.ErrorMessage = message
	c.Status = StatusFailed
	c.Touch()
	return nil
}

// Cancel voids an issued certificate
func (c *Certificate) Cancel(at time.Time) error {
	if c.Status != StatusIssued {
		return shared.NewDomainError("INVALID_STATE", "Only issued certificates can be cancelled")
	}
	c.Status = StatusCancelled
	c.CancelledAt = &at
	c.Touch()
	c.AddDomainEvent(NewCertificateCancelledEvent(c))
	return nil
}
