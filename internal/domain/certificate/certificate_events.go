package certificate

import (
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeCertificate is the aggregate type name used in events
const AggregateTypeCertificate = "Certificate"

const (
	EventTypeCertificateIssued    = "CertificateIssued"
	EventTypeCertificateCancelled = "CertificateCancelled"
)

// CertificateIssuedEvent is published when the platform issued a certificate
type CertificateIssuedEvent struct {
	shared.BaseDomainEvent
	CertificateID uuid.UUID `json:"certificate_id"`
	ContractID    uuid.UUID `json:"contract_id"`
	Number        string    `json:"number"`
}

// NewCertificateIssuedEvent creates a CertificateIssuedEvent
func NewCertificateIssuedEvent(c *Certificate) *CertificateIssuedEvent {
	return &CertificateIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCertificateIssued, AggregateTypeCertificate, c.ID, c.TenantID),
		CertificateID:   c.ID,
		ContractID:      c.ContractID,
		Number:          c.Number,
	}
}

// CertificateCancelledEvent is published when an issued certificate is voided
type CertificateCancelledEvent struct {
	shared.BaseDomainEvent
	CertificateID uuid.UUID `json:"certificate_id"`
	ContractID    uuid.UUID `json:"contract_id"`
	Number        string    `json:"number"`
}

// NewCertificateCancelledEvent creates a CertificateCancelledEvent
func NewCertificateCancelledEvent(c *Certificate) *CertificateCancelledEvent {
	return &CertificateCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCertificateCancelled, AggregateTypeCertificate, c.ID, c.TenantID),
		CertificateID:   c.ID,
		ContractID:      c.ContractID,
		Number:          c.Number,
	}
}
