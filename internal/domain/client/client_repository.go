package client

import (
	"context"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Client, error)
	FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*Client, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Client, error)
	// FindAllForTenant supports Search over names, reference and phone
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Client, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, c *Client) error
	// SaveWithLock saves only if the stored version still equals expectedVersion
	SaveWithLock(ctx context.Context, c *Client, expectedVersion int) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
	// GenerateReference returns the next free CLT-YYYY-NNNNN reference. Sequences span all tenants.
	GenerateReference(ctx context.Context) (string, error)
}

// ProfessionRepository defines persistence for professions
type ProfessionRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Profession, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Profession, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, p *Profession) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
