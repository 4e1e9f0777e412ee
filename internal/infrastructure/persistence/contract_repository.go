package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/courtage/backend/internal/domain/contract"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// openContractStatuses are the statuses that still bind a vehicle and a client
var openContractStatuses = []contract.Status{
	contract.StatusDraft,
	contract.StatusValidated,
	contract.StatusActive,
}

// GormContractRepository stores contracts. The due-date lookups used by the
// scheduler cross tenants; every other query is tenant scoped.
type GormContractRepository struct {
	db *gorm.DB
}

func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

func (r *GormContractRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*contract.Contract, error) {
	return findOne(r.scope(ctx, tenantID).Where("id = ?", id), (*models.ContractModel).ToDomain)
}

// FindByReference finds a contract by its CTR reference
func (r *GormContractRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*contract.Contract, error) {
	q := r.scope(ctx, tenantID).Where("reference = ?", strings.ToUpper(strings.TrimSpace(reference)))
	return findOne(q, (*models.ContractModel).ToDomain)
}

// FindByPolicyNumber returns the contracts sharing a policy number, oldest first
func (r *GormContractRepository) FindByPolicyNumber(ctx context.Context, tenantID uuid.UUID, policyNumber string) ([]contract.Contract, error) {
	q := r.scope(ctx, tenantID).
		Where("policy_number = ?", strings.ToUpper(strings.TrimSpace(policyNumber))).
		Order("start_date ASC").
		Order("created_at ASC")
	return findAll(q, (*models.ContractModel).ToDomain)
}

func (r *GormContractRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]contract.Contract, error) {
	return findAll(paginate(r.filtered(ctx, tenantID, filter), filter, contractSort), (*models.ContractModel).ToDomain)
}

func (r *GormContractRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	return countRows(r.filtered(ctx, tenantID, filter))
}

// FindForSettlement returns a company's contracts created in [from, to) with one of the statuses
func (r *GormContractRepository) FindForSettlement(ctx context.Context, tenantID, companyID uuid.UUID, from, to time.Time, statuses []contract.Status) ([]contract.Contract, error) {
	if len(statuses) == 0 {
		return []contract.Contract{}, nil
	}
	q := r.scope(ctx, tenantID).
		Where("company_id = ?", companyID).
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Order("reference ASC")
	return findAll(q, (*models.ContractModel).ToDomain)
}

// FindDueForActivation returns validated contracts of all tenants starting on or before day
func (r *GormContractRepository) FindDueForActivation(ctx context.Context, day time.Time, limit int) ([]contract.Contract, error) {
	return r.due(ctx, "status = ? AND start_date <= ?", contract.StatusValidated, day, "start_date", limit)
}

// FindDueForExpiry returns active contracts of all tenants that ended before day
func (r *GormContractRepository) FindDueForExpiry(ctx context.Context, day time.Time, limit int) ([]contract.Contract, error) {
	return r.due(ctx, "status = ? AND end_date < ?", contract.StatusActive, day, "end_date", limit)
}

func (r *GormContractRepository) due(ctx context.Context, cond string, status contract.Status, day time.Time, order string, limit int) ([]contract.Contract, error) {
	q := r.db.WithContext(ctx).
		Model(&models.ContractModel{}).
		Where(cond, status, contract.DateOnly(day)).
		Order(order + " ASC").
		Limit(limit)
	return findAll(q, (*models.ContractModel).ToDomain)
}

// ExistsOpenForVehicle checks if a vehicle is bound by a draft, validated or active contract
func (r *GormContractRepository) ExistsOpenForVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) (bool, error) {
	return anyRow(r.scope(ctx, tenantID).Where("vehicle_id = ? AND status IN ?", vehicleID, openContractStatuses))
}

func (r *GormContractRepository) ExistsOpenForClient(ctx context.Context, tenantID, clientID uuid.UUID) (bool, error) {
	return anyRow(r.scope(ctx, tenantID).Where("client_id = ? AND status IN ?", clientID, openContractStatuses))
}

// ExistsRenewalOf checks if a non-cancelled renewal of the parent exists
func (r *GormContractRepository) ExistsRenewalOf(ctx context.Context, tenantID, parentID uuid.UUID) (bool, error) {
	return anyRow(r.scope(ctx, tenantID).Where("parent_id = ? AND status <> ?", parentID, contract.StatusCancelled))
}

// Save creates or updates a contract. A policy number is reserved in the
// same transaction; shared.ErrAlreadyExists means another lineage holds it.
func (r *GormContractRepository) Save(ctx context.Context, c *contract.Contract) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimPolicyNumber(tx, c); err != nil {
			return err
		}
		return translateError(tx.Save(models.ContractModelFromDomain(c)).Error)
	})
}

// SaveWithLock updates a contract only if its stored version matches
func (r *GormContractRepository) SaveWithLock(ctx context.Context, c *contract.Contract, expectedVersion int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimPolicyNumber(tx, c); err != nil {
			return err
		}
		return saveVersioned(ctx, tx, models.ContractModelFromDomain(c), c.TenantID, c.ID, expectedVersion, "contract")
	})
}

// claimPolicyNumber reserves c's policy number for its lineage. The number is
// taken when it is free, already held by c, or held through c's parent.
func claimPolicyNumber(tx *gorm.DB, c *contract.Contract) error {
	if c.PolicyNumber == "" {
		return nil
	}
	claim := models.PolicyNumberModel{Number: c.PolicyNumber, TenantID: c.TenantID, RootContractID: c.ID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&claim).Error; err != nil {
		return translateError(err)
	}

	var holder models.PolicyNumberModel
	if err := tx.Where("number = ?", c.PolicyNumber).Take(&holder).Error; err != nil {
		return translateError(err)
	}
	if holder.RootContractID == c.ID {
		return nil
	}
	if holder.TenantID != c.TenantID || c.ParentID == nil {
		return shared.ErrAlreadyExists
	}
	inherited, err := anyRow(tx.Model(&models.ContractModel{}).
		Where("id = ? AND tenant_id = ? AND policy_number = ?", *c.ParentID, c.TenantID, c.PolicyNumber))
	if err != nil {
		return err
	}
	if !inherited {
		return shared.ErrAlreadyExists
	}
	return nil
}

// GenerateReference generates the next CTR-YYYY-NNNNN reference
func (r *GormContractRepository) GenerateReference(ctx context.Context) (string, error) {
	return nextSequentialNumber(ctx, r.db, &models.ContractModel{}, "reference", shared.ReferenceContract, time.Now())
}

// GeneratePolicyNumber generates the next POL-YYYY-NNNNN number
func (r *GormContractRepository) GeneratePolicyNumber(ctx context.Context) (string, error) {
	return nextSequentialNumber(ctx, r.db, &models.PolicyNumberModel{}, "number", shared.ReferencePolicy, time.Now())
}

func (r *GormContractRepository) scope(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return tenantScope(ctx, r.db, &models.ContractModel{}, tenantID)
}

// contractFilterColumns maps the equality filters to their columns
var contractFilterColumns = map[string]string{
	contract.FilterStatus:    "status",
	contract.FilterClientID:  "client_id",
	contract.FilterVehicleID: "vehicle_id",
	contract.FilterCompanyID: "company_id",
	contract.FilterType:      "type",
}

func (r *GormContractRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	q := r.scope(ctx, tenantID)
	if pattern := searchPattern(filter.Search); pattern != "" {
		q = q.Where("LOWER(reference) LIKE ? OR LOWER(policy_number) LIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		if column, ok := contractFilterColumns[key]; ok {
			q = q.Where(column+" = ?", value)
		}
	}
	if from, ok := filter.Filters[contract.FilterStartFrom]; ok {
		q = q.Where("start_date >= ?", from)
	}
	if to, ok := filter.Filters[contract.FilterStartTo]; ok {
		q = q.Where("start_date <= ?", to)
	}
	return q
}

var _ contract.ContractRepository = (*GormContractRepository)(nil)
