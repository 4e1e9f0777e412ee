package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/courtage/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVehicleRepository implements VehicleRepository using GORM
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewGormVehicleRepository creates a new GormVehicleRepository
func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// FindByIDForTenant finds a vehicle by ID within a tenant
func (r *GormVehicleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*vehicle.Vehicle, error) {
	return findOne(r.scope(ctx, tenantID).Where("id = ?", id), (*models.VehicleModel).ToDomain)
}

// FindByRegistration finds a vehicle by its plate number
func (r *GormVehicleRepository) FindByRegistration(ctx context.Context, tenantID uuid.UUID, registration string) (*vehicle.Vehicle, error) {
	return findOne(r.byPlate(ctx, tenantID, registration), (*models.VehicleModel).ToDomain)
}

func (r *GormVehicleRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*vehicle.Vehicle, error) {
	q := r.scope(ctx, tenantID).Where("reference = ?", strings.ToUpper(strings.TrimSpace(reference)))
	return findOne(q, (*models.VehicleModel).ToDomain)
}

func (r *GormVehicleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]vehicle.Vehicle, error) {
	return findAll(paginate(r.filtered(ctx, tenantID, filter), filter, vehicleSort), (*models.VehicleModel).ToDomain)
}

// FindByClient lists the vehicles owned by a client, newest first
func (r *GormVehicleRepository) FindByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]vehicle.Vehicle, error) {
	q := r.scope(ctx, tenantID).Where("client_id = ?", clientID).Order("created_at DESC")
	return findAll(q, (*models.VehicleModel).ToDomain)
}

func (r *GormVehicleRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]vehicle.Vehicle, error) {
	if len(ids) == 0 {
		return []vehicle.Vehicle{}, nil
	}
	return findAll(r.scope(ctx, tenantID).Where("id IN ?", ids), (*models.VehicleModel).ToDomain)
}

func (r *GormVehicleRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	return countRows(r.filtered(ctx, tenantID, filter))
}

// Save creates or updates a vehicle
func (r *GormVehicleRepository) Save(ctx context.Context, v *vehicle.Vehicle) error {
	return translateError(r.db.WithContext(ctx).Save(models.VehicleModelFromDomain(v)).Error)
}

// SaveWithLock updates a vehicle only if its stored version matches
func (r *GormVehicleRepository) SaveWithLock(ctx context.Context, v *vehicle.Vehicle, expectedVersion int) error {
	return saveVersioned(ctx, r.db, models.VehicleModelFromDomain(v), v.TenantID, v.ID, expectedVersion, "vehicle")
}

func (r *GormVehicleRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(r.db.WithContext(ctx), &models.VehicleModel{}, tenantID, id)
}

// ExistsByRegistration checks if a plate number is already registered
func (r *GormVehicleRepository) ExistsByRegistration(ctx context.Context, tenantID uuid.UUID, registration string) (bool, error) {
	return anyRow(r.byPlate(ctx, tenantID, registration))
}

// GenerateReference generates the next VEH-YYYY-NNNNN reference
func (r *GormVehicleRepository) GenerateReference(ctx context.Context) (string, error) {
	return nextSequentialNumber(ctx, r.db, &models.VehicleModel{}, "reference", shared.ReferenceVehicle, time.Now())
}

func (r *GormVehicleRepository) scope(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return tenantScope(ctx, r.db, &models.VehicleModel{}, tenantID)
}

func (r *GormVehicleRepository) byPlate(ctx context.Context, tenantID uuid.UUID, registration string) *gorm.DB {
	return r.scope(ctx, tenantID).Where("registration_number = ?", vehicle.NormalizeRegistration(registration))
}

func (r *GormVehicleRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	q := r.scope(ctx, tenantID)
	if pattern := searchPattern(filter.Search); pattern != "" {
		q = q.Where(
			"LOWER(registration_number) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(model) LIKE ? OR LOWER(reference) LIKE ? OR LOWER(chassis_number) LIKE ?",
			pattern, pattern, pattern, pattern, pattern)
	}
	for _, key := range []string{"class", "client_id", "energy"} {
		if v, ok := filter.Filters[key]; ok {
			q = q.Where(key+" = ?", v)
		}
	}
	return q
}

var _ vehicle.VehicleRepository = (*GormVehicleRepository)(nil)
