package persistence

import (
	"context"

	"github.com/courtage/backend/internal/domain/rategrid"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/courtage/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// rateRowBatchSize bounds the number of rows per INSERT statement on import
const rateRowBatchSize = 200

// GormRateRowRepository stores the premium grid, one row per class,
// duration and bucket
type GormRateRowRepository struct {
	db *gorm.DB
}

func NewGormRateRowRepository(db *gorm.DB) *GormRateRowRepository {
	return &GormRateRowRepository{db: db}
}

func (r *GormRateRowRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*rategrid.RateRow, error) {
	return findOne(r.scope(ctx, tenantID).Where("id = ?", id), (*models.RateRowModel).ToDomain)
}

// FindByKey finds the exact grid cell for a class, duration and bucket
func (r *GormRateRowRepository) FindByKey(ctx context.Context, tenantID uuid.UUID, key rategrid.Key) (*rategrid.RateRow, error) {
	q := r.scope(ctx, tenantID).
		Where("class = ? AND duration_months = ? AND bucket = ?", key.Class, key.Duration.Months(), key.Bucket)
	return findOne(q, (*models.RateRowModel).ToDomain)
}

// FindByClass returns the whole grid of a class ordered by duration then bucket
func (r *GormRateRowRepository) FindByClass(ctx context.Context, tenantID uuid.UUID, class vehicle.Class) ([]rategrid.RateRow, error) {
	q := r.scope(ctx, tenantID).
		Where("class = ?", class).
		Order("duration_months ASC").
		Order("bucket ASC")
	return findAll(q, (*models.RateRowModel).ToDomain)
}

// Save creates or updates a grid row
func (r *GormRateRowRepository) Save(ctx context.Context, row *rategrid.RateRow) error {
	return translateError(r.db.WithContext(ctx).Save(models.RateRowModelFromDomain(row)).Error)
}

// SaveBatch upserts rows on their grid key inside one transaction
func (r *GormRateRowRepository) SaveBatch(ctx context.Context, rows []*rategrid.RateRow) error {
	if len(rows) == 0 {
		return nil
	}
	rowModels := make([]*models.RateRowModel, len(rows))
	for i, row := range rows {
		rowModels[i] = models.RateRowModelFromDomain(row)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return translateError(tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}, {Name: "class"}, {Name: "duration_months"}, {Name: "bucket"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"civil_liability", "defence_recourse", "passenger", "driver_individual",
				"recourse_advance", "fire", "theft", "glass_breakage",
				"updated_at", "version",
			}),
		}).CreateInBatches(rowModels, rateRowBatchSize).Error)
	})
}

func (r *GormRateRowRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(r.db.WithContext(ctx), &models.RateRowModel{}, tenantID, id)
}

func (r *GormRateRowRepository) scope(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return tenantScope(ctx, r.db, &models.RateRowModel{}, tenantID)
}

var _ rategrid.RateRowRepository = (*GormRateRowRepository)(nil)
