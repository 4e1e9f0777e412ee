package persistence

import (
	"context"

	"github.com/courtage/backend/internal/domain/document"
	"github.com/courtage/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDocumentRepository holds document metadata; the bytes live in object
// storage
type GormDocumentRepository struct {
	db *gorm.DB
}

func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

func (r *GormDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*document.Document, error) {
	q := tenantScope(ctx, r.db, &models.DocumentModel{}, tenantID).Where("id = ?", id)
	return findOne(q, (*models.DocumentModel).ToDomain)
}

// FindByOwner lists the active documents of an owner, newest first
func (r *GormDocumentRepository) FindByOwner(ctx context.Context, tenantID uuid.UUID, ownerType document.OwnerType, ownerID uuid.UUID) ([]document.Document, error) {
	q := tenantScope(ctx, r.db, &models.DocumentModel{}, tenantID).
		Where("owner_type = ? AND owner_id = ? AND status = ?", ownerType, ownerID, document.StatusActive).
		Order("created_at DESC")
	return findAll(q, (*models.DocumentModel).ToDomain)
}

// Save creates or updates a document
func (r *GormDocumentRepository) Save(ctx context.Context, d *document.Document) error {
	return translateError(r.db.WithContext(ctx).Save(models.DocumentModelFromDomain(d)).Error)
}

// DeleteForTenant removes the metadata row only; the stored object is the
// caller's concern
func (r *GormDocumentRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(r.db.WithContext(ctx), &models.DocumentModel{}, tenantID, id)
}

var _ document.DocumentRepository = (*GormDocumentRepository)(nil)
