package bordereau

import (
	"context"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter keys understood by FindAllForTenant
const (
	FilterStatus    = "status"
	FilterCompanyID = "company_id"
)

// BordereauRepository persists bordereaux with their lines
type BordereauRepository interface {
	// FindByIDForTenant loads the bordereau with its lines
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Bordereau, error)

	// FindAllForTenant lists headers only; Lines is left empty
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Bordereau, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// Save upserts the header and replaces all lines in one transaction
	Save(ctx context.Context, b *Bordereau) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
	GenerateReference(ctx context.Context) (string, error)
}
