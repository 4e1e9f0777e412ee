package contract

import (
	"context"
	"time"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter keys understood by FindAllForTenant
const (
	FilterStatus    = "status"
	FilterClientID  = "client_id"
	FilterVehicleID = "vehicle_id"
	FilterCompanyID = "company_id"
	FilterType      = "type"
	FilterStartFrom = "start_from"
	FilterStartTo   = "start_to"
)

// ContractRepository defines the interface for contract persistence
type ContractRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Contract, error)
	FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*Contract, error)
	// FindByPolicyNumber returns every contract of a policy chain, oldest first
	FindByPolicyNumber(ctx context.Context, tenantID uuid.UUID, policyNumber string) ([]Contract, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Contract, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	// FindForSettlement returns a company's contracts created in [from, to) with one of the statuses
	FindForSettlement(ctx context.Context, tenantID, companyID uuid.UUID, from, to time.Time, statuses []Status) ([]Contract, error)
	// FindDueForActivation returns validated contracts of all tenants starting on or before day
	FindDueForActivation(ctx context.Context, day time.Time, limit int) ([]Contract, error)
	// FindDueForExpiry returns active contracts of all tenants that ended before day
	FindDueForExpiry(ctx context.Context, day time.Time, limit int) ([]Contract, error)
	ExistsOpenForVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) (bool, error)
	ExistsOpenForClient(ctx context.Context, tenantID, clientID uuid.UUID) (bool, error)
	ExistsRenewalOf(ctx context.Context, tenantID, parentID uuid.UUID) (bool, error)
	Save(ctx context.Context, c *Contract) error
	// SaveWithLock saves only if the stored version still equals expectedVersion
	SaveWithLock(ctx context.Context, c *Contract, expectedVersion int) error
	// GenerateReference returns the next free CTR-YYYY-NNNNN reference. Sequences span all tenants.
	GenerateReference(ctx context.Context) (string, error)
	// GeneratePolicyNumber returns the next POL-YYYY-NNNNN number not used by any contract
	GeneratePolicyNumber(ctx context.Context) (string, error)
}
