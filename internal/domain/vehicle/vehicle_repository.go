package vehicle

import (
	"context"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// VehicleRepository defines the interface for vehicle persistence
type VehicleRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Vehicle, error)
	FindByRegistration(ctx context.Context, tenantID uuid.UUID, registration string) (*Vehicle, error)
	FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*Vehicle, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Vehicle, error)
	FindByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]Vehicle, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Vehicle, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, v *Vehicle) error
	// SaveWithLock saves only if the stored version still equals expectedVersion
	SaveWithLock(ctx context.Context, v *Vehicle, expectedVersion int) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
	ExistsByRegistration(ctx context.Context, tenantID uuid.UUID, registration string) (bool, error)
	// GenerateReference returns the next free VEH-YYYY-NNNNN reference. Sequences span all tenants.
	GenerateReference(ctx context.Context) (string, error)
}
