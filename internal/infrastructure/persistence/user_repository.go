package persistence

import (
	"context"
	"strings"

	"github.com/courtage/backend/internal/domain/identity"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserRepository stores back-office accounts. Usernames are unique
// across tenants so login needs no tenant.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	q := tenantScope(ctx, r.db, &models.UserModel{}, tenantID).Where("id = ?", id)
	return findOne(q, (*models.UserModel).ToDomain)
}

func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	return findOne(r.byUsername(ctx, username), (*models.UserModel).ToDomain)
}

func (r *GormUserRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]identity.User, error) {
	return findAll(paginate(r.filtered(ctx, tenantID, filter), filter, userSort), (*models.UserModel).ToDomain)
}

func (r *GormUserRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	return countRows(r.filtered(ctx, tenantID, filter))
}

func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return anyRow(r.byUsername(ctx, username))
}

func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	return translateError(r.db.WithContext(ctx).Save(models.UserModelFromDomain(user)).Error)
}

func (r *GormUserRepository) byUsername(ctx context.Context, username string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("username = ?", strings.ToLower(strings.TrimSpace(username)))
}

// filtered narrows a tenant's users by search text and the status and role
// filters
func (r *GormUserRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	q := tenantScope(ctx, r.db, &models.UserModel{}, tenantID)
	if pattern := searchPattern(filter.Search); pattern != "" {
		q = q.Where("LOWER(username) LIKE ? OR LOWER(display_name) LIKE ?", pattern, pattern)
	}
	for _, key := range []string{"status", "role"} {
		if v, ok := filter.Filters[key]; ok {
			q = q.Where(key+" = ?", v)
		}
	}
	return q
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
