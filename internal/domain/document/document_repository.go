package document

import (
	"context"

	"github.com/google/uuid"
)

// DocumentRepository persists document metadata
type DocumentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Document, error)

	// FindByOwner lists active documents of one owner, newest first
	FindByOwner(ctx context.Context, tenantID uuid.UUID, ownerType OwnerType, ownerID uuid.UUID) ([]Document, error)

	Save(ctx context.Context, d *Document) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
