package certificate

import (
	"time"

	"github.com/courtage/backend/internal/domain/certificate"
	"github.com/google/uuid"
)

// IssueCertificateRequest asks the platform for a contract's certificate
type IssueCertificateRequest struct {
	ContractID uuid.UUID `json:"contract_id" binding:"required"`
}

// CertificateResponse represents a certificate attempt in API responses
type CertificateResponse struct {
	ID                uuid.UUID  `json:"id"`
	ContractID        uuid.UUID  `json:"contract_id"`
	CompanyID         uuid.UUID  `json:"company_id"`
	Number            string     `json:"number,omitempty"`
	Status            string     `json:"status"`
	ProviderReference string     `json:"provider_reference,omitempty"`
	DownloadURL       string     `json:"download_url,omitempty"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	IssuedAt          *time.Time `json:"issued_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ToCertificateResponse converts a domain Certificate to CertificateResponse
func ToCertificateResponse(c *certificate.Certificate) CertificateResponse {
	return CertificateResponse{
		ID:                c.ID,
		ContractID:        c.ContractID,
		CompanyID:         c.CompanyID,
		Number:            c.Number,
		Status:            string(c.Status),
		ProviderReference: c.ProviderReference,
		DownloadURL:       c.DownloadURL,
		ErrorMessage:      c.ErrorMessage,
		IssuedAt:          c.IssuedAt,
		CancelledAt:       c.CancelledAt,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// ToCertificateResponses converts a slice of certificates
func ToCertificateResponses(items []certificate.Certificate) []CertificateResponse {
	responses := make([]CertificateResponse, len(items))
	for i := range items {
		responses[i] = ToCertificateResponse(&items[i])
	}
	return responses
}
