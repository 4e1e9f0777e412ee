package rategrid

import (
	"context"

	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
)

// RateRowRepository defines persistence for grid rows
type RateRowRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*RateRow, error)
	// FindByKey returns shared.ErrNotFound when the grid has no such cell
	FindByKey(ctx context.Context, tenantID uuid.UUID, key Key) (*RateRow, error)
	FindByClass(ctx context.Context, tenantID uuid.UUID, class vehicle.Class) ([]RateRow, error)
	Save(ctx context.Context, row *RateRow) error
	SaveBatch(ctx context.Context, rows []*RateRow) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
