package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/courtage/backend/internal/domain/client"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormClientRepository stores policyholders, people and firms alike
type GormClientRepository struct {
	db *gorm.DB
}

func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

func (r *GormClientRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*client.Client, error) {
	return findOne(r.scope(ctx, tenantID).Where("id = ?", id), (*models.ClientModel).ToDomain)
}

// FindByReference finds a client by its CLT reference
func (r *GormClientRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*client.Client, error) {
	q := r.scope(ctx, tenantID).Where("reference = ?", strings.ToUpper(strings.TrimSpace(reference)))
	return findOne(q, (*models.ClientModel).ToDomain)
}

func (r *GormClientRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]client.Client, error) {
	if len(ids) == 0 {
		return []client.Client{}, nil
	}
	return findAll(r.scope(ctx, tenantID).Where("id IN ?", ids), (*models.ClientModel).ToDomain)
}

func (r *GormClientRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]client.Client, error) {
	return findAll(paginate(r.filtered(ctx, tenantID, filter), filter, clientSort), (*models.ClientModel).ToDomain)
}

func (r *GormClientRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	return countRows(r.filtered(ctx, tenantID, filter))
}

func (r *GormClientRepository) Save(ctx context.Context, c *client.Client) error {
	return translateError(r.db.WithContext(ctx).Save(models.ClientModelFromDomain(c)).Error)
}

// SaveWithLock updates a client only if nobody else changed it since it was loaded
func (r *GormClientRepository) SaveWithLock(ctx context.Context, c *client.Client, expectedVersion int) error {
	return saveVersioned(ctx, r.db, models.ClientModelFromDomain(c), c.TenantID, c.ID, expectedVersion, "client")
}

func (r *GormClientRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(r.db.WithContext(ctx), &models.ClientModel{}, tenantID, id)
}

// GenerateReference generates the next CLT-YYYY-NNNNN reference
func (r *GormClientRepository) GenerateReference(ctx context.Context) (string, error) {
	return nextSequentialNumber(ctx, r.db, &models.ClientModel{}, "reference", shared.ReferenceClient, time.Now())
}

func (r *GormClientRepository) scope(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return tenantScope(ctx, r.db, &models.ClientModel{}, tenantID)
}

func (r *GormClientRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	q := r.scope(ctx, tenantID)
	if pattern := searchPattern(filter.Search); pattern != "" {
		q = q.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(company_name) LIKE ? OR LOWER(reference) LIKE ? OR phone LIKE ?",
			pattern, pattern, pattern, pattern, pattern)
	}
	for _, key := range []string{"kind", "profession_id", "city"} {
		if v, ok := filter.Filters[key]; ok {
			q = q.Where(key+" = ?", v)
		}
	}
	return q
}

// GormProfessionRepository keeps the tenant's profession catalogue. Deleting
// a profession detaches it from its clients.
type GormProfessionRepository struct {
	db *gorm.DB
}

func NewGormProfessionRepository(db *gorm.DB) *GormProfessionRepository {
	return &GormProfessionRepository{db: db}
}

func (r *GormProfessionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*client.Profession, error) {
	q := tenantScope(ctx, r.db, &models.ProfessionModel{}, tenantID).Where("id = ?", id)
	return findOne(q, (*models.ProfessionModel).ToDomain)
}

// FindAllForTenant lists professions ordered by name
func (r *GormProfessionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]client.Profession, error) {
	q := tenantScope(ctx, r.db, &models.ProfessionModel{}, tenantID).Order("name ASC")
	return findAll(q, (*models.ProfessionModel).ToDomain)
}

func (r *GormProfessionRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	return anyRow(tenantScope(ctx, r.db, &models.ProfessionModel{}, tenantID).Where("code = ?", strings.ToUpper(code)))
}

// Save creates or updates a profession
func (r *GormProfessionRepository) Save(ctx context.Context, p *client.Profession) error {
	return translateError(r.db.WithContext(ctx).Save(models.ProfessionModelFromDomain(p)).Error)
}

// DeleteForTenant deletes a profession and detaches it from clients
func (r *GormProfessionRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ClientModel{}).
			Where("tenant_id = ? AND profession_id = ?", tenantID, id).
			Update("profession_id", nil).Error; err != nil {
			return err
		}
		return deleteScoped(tx, &models.ProfessionModel{}, tenantID, id)
	})
}

var (
	_ client.ClientRepository     = (*GormClientRepository)(nil)
	_ client.ProfessionRepository = (*GormProfessionRepository)(nil)
)
