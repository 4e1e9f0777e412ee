package persistence

import (
	"context"
	"time"

	"github.com/courtage/backend/internal/domain/bordereau"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBordereauRepository stores bordereau headers with their lines. Lists
// return headers only.
type GormBordereauRepository struct {
	db *gorm.DB
}

func NewGormBordereauRepository(db *gorm.DB) *GormBordereauRepository {
	return &GormBordereauRepository{db: db}
}

// FindByIDForTenant loads a bordereau and its lines in position order
func (r *GormBordereauRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*bordereau.Bordereau, error) {
	q := r.scope(ctx, tenantID).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id)
	return findOne(q, (*models.BordereauModel).ToDomain)
}

func (r *GormBordereauRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]bordereau.Bordereau, error) {
	return findAll(paginate(r.filtered(ctx, tenantID, filter), filter, bordereauSort), (*models.BordereauModel).ToDomain)
}

func (r *GormBordereauRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	return countRows(r.filtered(ctx, tenantID, filter))
}

// Save upserts the header and replaces every line
func (r *GormBordereauRepository) Save(ctx context.Context, b *bordereau.Bordereau) error {
	model := models.BordereauModelFromDomain(b)
	lines := model.Lines
	model.Lines = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return translateError(err)
		}
		if err := tx.Where("bordereau_id = ?", b.ID).Delete(&models.BordereauLineModel{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		return translateError(tx.CreateInBatches(lines, 500).Error)
	})
}

// DeleteForTenant deletes a bordereau and its lines
func (r *GormBordereauRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteScoped(tx, &models.BordereauModel{}, tenantID, id); err != nil {
			return err
		}
		return tx.Where("bordereau_id = ?", id).Delete(&models.BordereauLineModel{}).Error
	})
}

// GenerateReference generates the next BRD-YYYY-NNNNN reference
func (r *GormBordereauRepository) GenerateReference(ctx context.Context) (string, error) {
	return nextSequentialNumber(ctx, r.db, &models.BordereauModel{}, "reference", shared.ReferenceBordereau, time.Now())
}

func (r *GormBordereauRepository) scope(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return tenantScope(ctx, r.db, &models.BordereauModel{}, tenantID)
}

func (r *GormBordereauRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	q := r.scope(ctx, tenantID)
	if pattern := searchPattern(filter.Search); pattern != "" {
		q = q.Where("LOWER(reference) LIKE ?", pattern)
	}
	if status, ok := filter.Filters[bordereau.FilterStatus]; ok {
		q = q.Where("status = ?", status)
	}
	if companyID, ok := filter.Filters[bordereau.FilterCompanyID]; ok {
		q = q.Where("company_id = ?", companyID)
	}
	return q
}

var _ bordereau.BordereauRepository = (*GormBordereauRepository)(nil)
