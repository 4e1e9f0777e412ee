package persistence

import (
	"context"
	"strings"

	"github.com/courtage/backend/internal/domain/company"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCompanyRepository keeps the insurers a tenant places business with
type GormCompanyRepository struct {
	db *gorm.DB
}

func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

func (r *GormCompanyRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*company.Company, error) {
	return findOne(r.scope(ctx, tenantID).Where("id = ?", id), (*models.CompanyModel).ToDomain)
}

// FindByCode matches the code case-insensitively; codes are stored upper case
func (r *GormCompanyRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*company.Company, error) {
	return findOne(r.byCode(ctx, tenantID, code), (*models.CompanyModel).ToDomain)
}

func (r *GormCompanyRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]company.Company, error) {
	return findAll(paginate(r.filtered(ctx, tenantID, filter), filter, companySort), (*models.CompanyModel).ToDomain)
}

func (r *GormCompanyRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	return countRows(r.filtered(ctx, tenantID, filter))
}

func (r *GormCompanyRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	return anyRow(r.byCode(ctx, tenantID, code))
}

func (r *GormCompanyRepository) Save(ctx context.Context, c *company.Company) error {
	return translateError(r.db.WithContext(ctx).Save(models.CompanyModelFromDomain(c)).Error)
}

func (r *GormCompanyRepository) scope(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return tenantScope(ctx, r.db, &models.CompanyModel{}, tenantID)
}

func (r *GormCompanyRepository) byCode(ctx context.Context, tenantID uuid.UUID, code string) *gorm.DB {
	return r.scope(ctx, tenantID).Where("code = ?", strings.ToUpper(strings.TrimSpace(code)))
}

func (r *GormCompanyRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	q := r.scope(ctx, tenantID)
	if pattern := searchPattern(filter.Search); pattern != "" {
		q = q.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern)
	}
	if active, ok := filter.Filters["active"]; ok {
		q = q.Where("active = ?", active)
	}
	return q
}

var _ company.CompanyRepository = (*GormCompanyRepository)(nil)
