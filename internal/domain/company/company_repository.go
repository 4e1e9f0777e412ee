package company

import (
	"context"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CompanyRepository defines the interface for insurer persistence
type CompanyRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Company, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Company, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Company, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, c *Company) error
}
