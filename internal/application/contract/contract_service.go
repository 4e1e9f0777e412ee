package contract

import (
	"context"
	"errors"
	"time"

	"github.com/courtage/backend/internal/domain/client"
	"github.com/courtage/backend/internal/domain/company"
	"github.com/courtage/backend/internal/domain/contract"
	"github.com/courtage/backend/internal/domain/pricing"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// lifecycleBatchSize is how many contracts a sweep loads per query by default
const lifecycleBatchSize = 200

// ContractService handles contract pricing and lifecycle operations
type ContractService struct {
	contractRepo   contract.ContractRepository
	clientRepo     client.ClientRepository
	professionRepo client.ProfessionRepository
	vehicleRepo    vehicle.VehicleRepository
	companyRepo    company.CompanyRepository
	engine         *pricing.Engine
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
	lifecycleBatch int
}

// ContractServiceDeps groups the repositories the service depends on
type ContractServiceDeps struct {
	Contracts   contract.ContractRepository
	Clients     client.ClientRepository
	Professions client.ProfessionRepository
	Vehicles    vehicle.VehicleRepository
	Companies   company.CompanyRepository
	Rates       pricing.RateLookup
}

// NewContractService creates a new ContractService
func NewContractService(deps ContractServiceDeps, logger *zap.Logger) *ContractService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContractService{
		contractRepo:   deps.Contracts,
		clientRepo:     deps.Clients,
		professionRepo: deps.Professions,
		vehicleRepo:    deps.Vehicles,
		companyRepo:    deps.Companies,
		engine:         pricing.NewEngine(deps.Rates),
		logger:         logger,
		now:            time.Now,
		lifecycleBatch: lifecycleBatchSize,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *ContractService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLifecycleBatchSize overrides how many contracts a sweep loads per query
func (s *ContractService) SetLifecycleBatchSize(size int) {
	if size > 0 {
		s.lifecycleBatch = size
	}
}

// Create creates a draft contract for a client's vehicle and prices it
// against the current grid.
func (s *ContractService) Create(ctx context.Context, tenantID uuid.UUID, req CreateContractRequest) (*ContractResponse, error) {
	cl, err := s.loadClient(ctx, tenantID, req.ClientID)
	if err != nil {
		return nil, err
	}
	v, err := s.loadVehicle(ctx, tenantID, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if v.ClientID != cl.ID {
		return nil, shared.NewDomainError("VEHICLE_CLIENT_MISMATCH", "Vehicle does not belong to the client")
	}
	co, err := s.loadActiveCompany(ctx, tenantID, req.CompanyID)
	if err != nil {
		return nil, err
	}
	inputs, err := s.resolveInputs(ctx, tenantID, req.Inputs, cl, co)
	if err != nil {
		return nil, err
	}

	terms := contract.Terms{
		Type:           v.Class,
		ClientID:       cl.ID,
		VehicleID:      v.ID,
		CompanyID:      co.ID,
		DurationMonths: req.DurationMonths,
		StartDate:      req.StartDate,
	}

	var c *contract.Contract
	err = shared.RetryOnDuplicate(shared.MaxSaveAttempts, func() error {
		c, err = contract.NewContract(tenantID, terms, inputs)
		if err != nil {
			return err
		}
		if _, err := s.reprice(ctx, c, v); err != nil {
			return err
		}
		ref, err := s.contractRepo.GenerateReference(ctx)
		if err != nil {
			return err
		}
		if err := c.AssignReference(ref); err != nil {
			return err
		}
		return s.contractRepo.Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	if err := shared.PublishAndClear(ctx, s.eventPublisher, c); err != nil {
		return nil, err
	}

	response := ToContractResponse(c)
	return &response, nil
}

// Update changes the terms or pricing inputs of a draft and reprices it
func (s *ContractService) Update(ctx context.Context, tenantID, contractID uuid.UUID, req UpdateContractRequest) (*ContractResponse, error) {
	c, err := s.contractRepo.FindByIDForTenant(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	expectedVersion := c.Version

	if req.CompanyID != nil || req.DurationMonths != nil || req.StartDate != nil {
		companyID := c.CompanyID
		var switched *company.Company
		if req.CompanyID != nil && *req.CompanyID != c.CompanyID {
			if switched, err = s.loadActiveCompany(ctx, tenantID, *req.CompanyID); err != nil {
				return nil, err
			}
			companyID = *req.CompanyID
		}
		duration := c.DurationMonths
		if req.DurationMonths != nil {
			duration = *req.DurationMonths
		}
		start := c.StartDate
		if req.StartDate != nil {
			start = *req.StartDate
		}
		if err := c.UpdateTerms(companyID, duration, start); err != nil {
			return nil, err
		}
		// a defaulted commission follows the new insurer
		if switched != nil && req.Inputs == nil && !c.Inputs.CommissionOverride {
			inputs := c.Inputs
			inputs.Commission = switched.DefaultCommission
			if err := c.UpdateInputs(inputs); err != nil {
				return nil, err
			}
		}
	}

	if req.Inputs != nil {
		cl, err := s.loadClient(ctx, tenantID, c.ClientID)
		if err != nil {
			return nil, err
		}
		co, err := s.loadCompany(ctx, tenantID, c.CompanyID)
		if err != nil {
			return nil, err
		}
		inputs, err := s.resolveInputs(ctx, tenantID, *req.Inputs, cl, co)
		if err != nil {
			return nil, err
		}
		if err := c.UpdateInputs(inputs); err != nil {
			return nil, err
		}
	}

	v, err := s.loadVehicle(ctx, tenantID, c.VehicleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.reprice(ctx, c, v); err != nil {
		return nil, err
	}

	if c.Version != expectedVersion {
		if err := s.contractRepo.SaveWithLock(ctx, c, expectedVersion); err != nil {
			return nil, err
		}
	}
	if err := shared.PublishAndClear(ctx, s.eventPublisher, c); err != nil {
		return nil, err
	}

	response := ToContractResponse(c)
	return &response, nil
}

// Quote previews the premium of a vehicle without persisting anything
func (s *ContractService) Quote(ctx context.Context, tenantID uuid.UUID, req QuoteRequest) (*QuoteResponse, error) {
	v, err := s.loadVehicle(ctx, tenantID, req.VehicleID)
	if err != nil {
		return nil, err
	}
	cl, err := s.loadClient(ctx, tenantID, v.ClientID)
	if err != nil {
		return nil, err
	}
	var co *company.Company
	if req.CompanyID != nil {
		if co, err = s.loadCompany(ctx, tenantID, *req.CompanyID); err != nil {
			return nil, err
		}
	}
	inputs, err := s.resolveInputs(ctx, tenantID, req.Inputs, cl, co)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Quote(ctx, tenantID, pricing.SubjectFor(v, req.DurationMonths), inputs)
	if err != nil {
		return nil, err
	}

	resp := &QuoteResponse{
		Found:  result.Found,
		Class:  string(v.Class),
		Inputs: inputs,
	}
	if result.Key.Duration != 0 {
		resp.DurationBucket = result.Key.Duration.Months()
		resp.Bucket = string(result.Key.Bucket)
	}
	if result.Found {
		breakdown := result.Breakdown
		resp.Breakdown = &breakdown
	}
	return resp, nil
}

// Price recomputes and stores the amounts of a draft. Pricing an already
// up-to-date contract changes nothing.
func (s *ContractService) Price(ctx context.Context, tenantID, contractID uuid.UUID) (*ContractResponse, error) {
	c, err := s.contractRepo.FindByIDForTenant(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	expectedVersion := c.Version

	v, err := s.loadVehicle(ctx, tenantID, c.VehicleID)
	if err != nil {
		return nil, err
	}
	changed, err := s.reprice(ctx, c, v)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.contractRepo.SaveWithLock(ctx, c, expectedVersion); err != nil {
			return nil, err
		}
		if err := shared.PublishAndClear(ctx, s.eventPublisher, c); err != nil {
			return nil, err
		}
	}

	response := ToContractResponse(c)
	return &response, nil
}

// Validate confirms a priced draft, allocating a policy number when the
// contract does not carry one yet.
func (s *ContractService) Validate(ctx context.Context, tenantID, contractID uuid.UUID) (*ContractResponse, error) {
	var c *contract.Contract
	err := shared.RetryOnDuplicate(shared.MaxSaveAttempts, func() error {
		var err error
		c, err = s.contractRepo.FindByIDForTenant(ctx, tenantID, contractID)
		if err != nil {
			return err
		}
		expectedVersion := c.Version

		if c.NeedsPolicyNumber() {
			number, err := s.contractRepo.GeneratePolicyNumber(ctx)
			if err != nil {
				return err
			}
			if err := c.AssignPolicyNumber(number); err != nil {
				return err
			}
		}
		if err := c.Validate(s.now()); err != nil {
			return err
		}
		return s.contractRepo.SaveWithLock(ctx, c, expectedVersion)
	})
	if err != nil {
		return nil, err
	}

	if err := shared.PublishAndClear(ctx, s.eventPublisher, c); err != nil {
		return nil, err
	}

	response := ToContractResponse(c)
	return &response, nil
}

// Activate starts coverage of a validated contract
func (s *ContractService) Activate(ctx context.Context, tenantID, contractID uuid.UUID) (*ContractResponse, error) {
	return s.transition(ctx, tenantID, contractID, func(c *contract.Contract) error {
		return c.Activate(s.now())
	})
}

// Cancel terminates a contract that is not cancelled or expired
func (s *ContractService) Cancel(ctx context.Context, tenantID, contractID uuid.UUID, req CancelContractRequest) (*ContractResponse, error) {
	return s.transition(ctx, tenantID, contractID, func(c *contract.Contract) error {
		return c.Cancel(req.Reason, s.now())
	})
}

func (s *ContractService) transition(ctx context.Context, tenantID, contractID uuid.UUID, apply func(*contract.Contract) error) (*ContractResponse, error) {
	c, err := s.contractRepo.FindByIDForTenant(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	expectedVersion := c.Version

	if err := apply(c); err != nil {
		return nil, err
	}
	if err := s.contractRepo.SaveWithLock(ctx, c, expectedVersion); err != nil {
		return nil, err
	}
	if err := shared.PublishAndClear(ctx, s.eventPublisher, c); err != nil {
		return nil, err
	}

	response := ToContractResponse(c)
	return &response, nil
}

// Renew creates the draft continuing an active or expired contract. A
// contract is renewed at most once; the draft is priced against the current
// grid with the parent's inputs.
func (s *ContractService) Renew(ctx context.Context, tenantID, contractID uuid.UUID, req RenewContractRequest) (*ContractResponse, error) {
	parent, err := s.contractRepo.FindByIDForTenant(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	renewed, err := s.contractRepo.ExistsRenewalOf(ctx, tenantID, parent.ID)
	if err != nil {
		return nil, err
	}
	if renewed {
		return nil, shared.NewDomainError("CONTRACT_ALREADY_RENEWED", "Contract has already been renewed")
	}
	if _, err := s.loadActiveCompany(ctx, tenantID, parent.CompanyID); err != nil {
		return nil, err
	}
	v, err := s.loadVehicle(ctx, tenantID, parent.VehicleID)
	if err != nil {
		return nil, err
	}
	if v.Class != parent.Type {
		return nil, shared.NewDomainError("VEHICLE_CLASS_CHANGED", "Vehicle class no longer matches the contract type")
	}

	var child *contract.Contract
	err = shared.RetryOnDuplicate(shared.MaxSaveAttempts, func() error {
		child, err = contract.Renew(parent, req.StartDate, s.now())
		if err != nil {
			return err
		}
		if _, err := s.reprice(ctx, child, v); err != nil {
			return err
		}
		ref, err := s.contractRepo.GenerateReference(ctx)
		if err != nil {
			return err
		}
		if err := child.AssignReference(ref); err != nil {
			return err
		}
		return s.contractRepo.Save(ctx, child)
	})
	if err != nil {
		return nil, err
	}

	if err := shared.PublishAndClear(ctx, s.eventPublisher, child); err != nil {
		return nil, err
	}

	response := ToContractResponse(child)
	return &response, nil
}

// GetByID retrieves a contract by ID
func (s *ContractService) GetByID(ctx context.Context, tenantID, contractID uuid.UUID) (*ContractResponse, error) {
	c, err := s.contractRepo.FindByIDForTenant(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	response := ToContractResponse(c)
	return &response, nil
}

// GetByReference retrieves a contract by its CTR reference
func (s *ContractService) GetByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*ContractResponse, error) {
	c, err := s.contractRepo.FindByReference(ctx, tenantID, reference)
	if err != nil {
		return nil, err
	}
	response := ToContractResponse(c)
	return &response, nil
}

// GetByPolicyNumber returns the renewal chain sharing a policy number, oldest first
func (s *ContractService) GetByPolicyNumber(ctx context.Context, tenantID uuid.UUID, policyNumber string) ([]ContractResponse, error) {
	contracts, err := s.contractRepo.FindByPolicyNumber(ctx, tenantID, policyNumber)
	if err != nil {
		return nil, err
	}
	if len(contracts) == 0 {
		return nil, shared.ErrNotFound
	}
	return ToContractResponses(contracts), nil
}

// List retrieves contracts with filtering and pagination
func (s *ContractService) List(ctx context.Context, tenantID uuid.UUID, filter ContractListFilter) ([]ContractResponse, int64, error) {
	domainFilter := shared.NewFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search)
	if filter.Status != "" {
		domainFilter.Filters[contract.FilterStatus] = filter.Status
	}
	if filter.Type != "" {
		domainFilter.Filters[contract.FilterType] = filter.Type
	}
	if filter.ClientID != "" {
		domainFilter.Filters[contract.FilterClientID] = filter.ClientID
	}
	if filter.VehicleID != "" {
		domainFilter.Filters[contract.FilterVehicleID] = filter.VehicleID
	}
	if filter.CompanyID != "" {
		domainFilter.Filters[contract.FilterCompanyID] = filter.CompanyID
	}
	if filter.StartFrom != nil {
		domainFilter.Filters[contract.FilterStartFrom] = contract.DateOnly(*filter.StartFrom)
	}
	if filter.StartTo != nil {
		domainFilter.Filters[contract.FilterStartTo] = contract.DateOnly(*filter.StartTo)
	}

	contracts, err := s.contractRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.contractRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToContractResponses(contracts), total, nil
}

// RunLifecycle activates validated contracts whose coverage has started and
// expires active contracts whose last covered day is past. It works across
// tenants and skips contracts modified concurrently.
func (s *ContractService) RunLifecycle(ctx context.Context, day time.Time) (*LifecycleResult, error) {
	result := &LifecycleResult{}
	at := s.now()

	activated, failed, err := s.sweep(ctx, func(limit int) ([]contract.Contract, error) {
		return s.contractRepo.FindDueForActivation(ctx, day, limit)
	}, func(c *contract.Contract) error {
		if !c.IsDueForActivation(day) {
			return nil
		}
		return c.Activate(at)
	})
	result.Activated, result.Failed = activated, failed
	if err != nil {
		return result, err
	}

	expired, failed, err := s.sweep(ctx, func(limit int) ([]contract.Contract, error) {
		return s.contractRepo.FindDueForExpiry(ctx, day, limit)
	}, func(c *contract.Contract) error {
		if !c.IsDueForExpiry(day) {
			return nil
		}
		return c.Expire(at)
	})
	result.Expired = expired
	result.Failed += failed
	if err != nil {
		return result, err
	}

	if result.Activated > 0 || result.Expired > 0 || result.Failed > 0 {
		s.logger.Info("contract lifecycle sweep",
			zap.Time("day", contract.DateOnly(day)),
			zap.Int("activated", result.Activated),
			zap.Int("expired", result.Expired),
			zap.Int("failed", result.Failed),
		)
	}
	return result, nil
}

// sweep applies a transition to every due contract. A batch that yields no
// progress stops the loop so failing contracts cannot spin it forever.
func (s *ContractService) sweep(
	ctx context.Context,
	load func(limit int) ([]contract.Contract, error),
	apply func(*contract.Contract) error,
) (done, failed int, err error) {
	skipped := make(map[uuid.UUID]struct{})
	for {
		if err := ctx.Err(); err != nil {
			return done, failed, err
		}
		limit := s.lifecycleBatch + len(skipped)
		batch, err := load(limit)
		if err != nil {
			return done, failed, err
		}

		progressed := false
		for i := range batch {
			c := &batch[i]
			if _, ok := skipped[c.ID]; ok {
				continue
			}
			expectedVersion := c.Version
			if err := apply(c); err != nil {
				s.logFailure(c, err)
				skipped[c.ID] = struct{}{}
				failed++
				continue
			}
			if c.Version == expectedVersion {
				skipped[c.ID] = struct{}{}
				continue
			}
			if err := s.contractRepo.SaveWithLock(ctx, c, expectedVersion); err != nil {
				skipped[c.ID] = struct{}{}
				if !errors.Is(err, shared.ErrConcurrencyConflict) {
					s.logFailure(c, err)
					failed++
				}
				continue
			}
			if err := shared.PublishAndClear(ctx, s.eventPublisher, c); err != nil {
				s.logFailure(c, err)
			}
			done++
			progressed = true
		}

		if !progressed || len(batch) < limit {
			return done, failed, nil
		}
	}
}

func (s *ContractService) logFailure(c *contract.Contract, err error) {
	s.logger.Warn("contract lifecycle transition failed",
		zap.String("tenant_id", c.TenantID.String()),
		zap.String("contract_id", c.ID.String()),
		zap.String("status", string(c.Status)),
		zap.Error(err),
	)
}

// reprice quotes c against the grid and stores the outcome. It reports
// whether the stored amounts changed.
func (s *ContractService) reprice(ctx context.Context, c *contract.Contract, v *vehicle.Vehicle) (bool, error) {
	if v.Class != c.Type {
		return false, shared.NewDomainError("VEHICLE_CLASS_CHANGED", "Vehicle class no longer matches the contract type")
	}
	result, err := s.engine.Quote(ctx, c.TenantID, pricing.SubjectFor(v, c.DurationMonths), c.Inputs)
	if err != nil {
		return false, err
	}
	if !result.Found {
		return c.MarkNoRate(s.now())
	}
	return c.ApplyPricing(result.Breakdown, s.now())
}

// resolveInputs fills the commission from the company default and the
// profession discount from the client's profession when the request omits them.
func (s *ContractService) resolveInputs(ctx context.Context, tenantID uuid.UUID, req PricingInputsRequest, cl *client.Client, co *company.Company) (pricing.Inputs, error) {
	inputs := pricing.Inputs{
		Accessories:            req.Accessories,
		FlatDiscount:           req.FlatDiscount,
		BonusMalusRate:         req.BonusMalusRate,
		CommissionDiscountRate: req.CommissionDiscountRate,
		ProfessionDiscount:     req.ProfessionDiscount.toDomain(),
	}

	switch {
	case req.Commission != nil:
		inputs.Commission = *req.Commission
		inputs.CommissionOverride = true
	case co != nil:
		inputs.Commission = co.DefaultCommission
	}

	if req.ProfessionDiscount == nil && cl != nil && cl.ProfessionID != nil {
		profession, err := s.professionRepo.FindByIDForTenant(ctx, tenantID, *cl.ProfessionID)
		switch {
		case err == nil:
			inputs.ProfessionDiscount = profession.Discount
		case errors.Is(err, shared.ErrNotFound):
		default:
			return pricing.Inputs{}, err
		}
	}

	if err := inputs.Validate(); err != nil {
		return pricing.Inputs{}, err
	}
	return inputs, nil
}

func (s *ContractService) loadClient(ctx context.Context, tenantID, clientID uuid.UUID) (*client.Client, error) {
	cl, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, clientID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("CLIENT_NOT_FOUND", "Client not found")
		}
		return nil, err
	}
	return cl, nil
}

func (s *ContractService) loadVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) (*vehicle.Vehicle, error) {
	v, err := s.vehicleRepo.FindByIDForTenant(ctx, tenantID, vehicleID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("VEHICLE_NOT_FOUND", "Vehicle not found")
		}
		return nil, err
	}
	return v, nil
}

func (s *ContractService) loadCompany(ctx context.Context, tenantID, companyID uuid.UUID) (*company.Company, error) {
	co, err := s.companyRepo.FindByIDForTenant(ctx, tenantID, companyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("COMPANY_NOT_FOUND", "Company not found")
		}
		return nil, err
	}
	return co, nil
}

func (s *ContractService) loadActiveCompany(ctx context.Context, tenantID, companyID uuid.UUID) (*company.Company, error) {
	co, err := s.loadCompany(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	if !co.Active {
		return nil, shared.NewDomainError("COMPANY_INACTIVE", "Company is not accepting new contracts")
	}
	return co, nil
}
