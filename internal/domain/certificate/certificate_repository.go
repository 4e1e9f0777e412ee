package certificate

import (
	"context"

	"github.com/google/uuid"
)

// CertificateRepository persists certificates
type CertificateRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Certificate, error)

	// FindByContract returns every attempt for the contract, newest first
	FindByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]Certificate, error)

	ExistsIssuedForContract(ctx context.Context, tenantID, contractID uuid.UUID) (bool, error)
	Save(ctx context.Context, c *Certificate) error
}
