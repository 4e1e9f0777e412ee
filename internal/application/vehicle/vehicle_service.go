package vehicle

import (
	"context"

	"github.com/courtage/backend/internal/domain/client"
	"github.com/courtage/backend/internal/domain/contract"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
)

// VehicleService handles vehicle-related business operations
type VehicleService struct {
	vehicleRepo    vehicle.VehicleRepository
	clientRepo     client.ClientRepository
	contractRepo   contract.ContractRepository
	eventPublisher shared.EventPublisher
}

// NewVehicleService creates a new VehicleService
func NewVehicleService(
	vehicleRepo vehicle.VehicleRepository,
	clientRepo client.ClientRepository,
	contractRepo contract.ContractRepository,
) *VehicleService {
	return &VehicleService{
		vehicleRepo:  vehicleRepo,
		clientRepo:   clientRepo,
		contractRepo: contractRepo,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *VehicleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create registers a vehicle for a client
func (s *VehicleService) Create(ctx context.Context, tenantID uuid.UUID, req CreateVehicleRequest) (*VehicleResponse, error) {
	if err := s.ensureClient(ctx, tenantID, req.ClientID); err != nil {
		return nil, err
	}
	if err := s.ensureRegistrationFree(ctx, tenantID, req.RegistrationNumber); err != nil {
		return nil, err
	}

	var v *vehicle.Vehicle
	err := shared.RetryOnDuplicate(shared.MaxSaveAttempts, func() error {
		var err error
		v, err = newVehicleFromRequest(tenantID, req)
		if err != nil {
			return err
		}
		ref, err := s.vehicleRepo.GenerateReference(ctx)
		if err != nil {
			return err
		}
		if err := v.AssignReference(ref); err != nil {
			return err
		}
		return s.vehicleRepo.Save(ctx, v)
	})
	if err != nil {
		return nil, err
	}

	if err := shared.PublishAndClear(ctx, s.eventPublisher, v); err != nil {
		return nil, err
	}

	response := ToVehicleResponse(v)
	return &response, nil
}

func newVehicleFromRequest(tenantID uuid.UUID, req CreateVehicleRequest) (*vehicle.Vehicle, error) {
	v, err := vehicle.NewVehicle(
		tenantID,
		req.ClientID,
		req.RegistrationNumber,
		req.Brand,
		req.Model,
		vehicle.Class(req.Class),
		vehicle.EnergySource(req.Energy),
		req.Specs.toDomain(),
	)
	if err != nil {
		return nil, err
	}
	if req.ChassisNumber != "" || req.FirstRegistrationDate != nil {
		if err := v.UpdateDetails(v.Brand, v.Model, req.ChassisNumber, v.Energy, req.FirstRegistrationDate); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// GetByID retrieves a vehicle by ID
func (s *VehicleService) GetByID(ctx context.Context, tenantID, vehicleID uuid.UUID) (*VehicleResponse, error) {
	v, err := s.vehicleRepo.FindByIDForTenant(ctx, tenantID, vehicleID)
	if err != nil {
		return nil, err
	}

	response := ToVehicleResponse(v)
	return &response, nil
}

// List retrieves vehicles with filtering and pagination
func (s *VehicleService) List(ctx context.Context, tenantID uuid.UUID, filter VehicleListFilter) ([]VehicleResponse, int64, error) {
	domainFilter := shared.NewFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search)
	if filter.ClientID != "" {
		domainFilter.Filters["client_id"] = filter.ClientID
	}
	if filter.Class != "" {
		domainFilter.Filters["class"] = filter.Class
	}
	if filter.Energy != "" {
		domainFilter.Filters["energy"] = filter.Energy
	}

	vehicles, err := s.vehicleRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.vehicleRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToVehicleResponses(vehicles), total, nil
}

// ListByClient returns every vehicle of a client
func (s *VehicleService) ListByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]VehicleResponse, error) {
	if err := s.ensureClient(ctx, tenantID, clientID); err != nil {
		return nil, err
	}
	vehicles, err := s.vehicleRepo.FindByClient(ctx, tenantID, clientID)
	if err != nil {
		return nil, err
	}
	return ToVehicleResponses(vehicles), nil
}

// Update updates a vehicle. The class cannot change while a contract on
// the vehicle is still open, since contracts carry the class as their type.
func (s *VehicleService) Update(ctx context.Context, tenantID, vehicleID uuid.UUID, req UpdateVehicleRequest) (*VehicleResponse, error) {
	v, err := s.vehicleRepo.FindByIDForTenant(ctx, tenantID, vehicleID)
	if err != nil {
		return nil, err
	}
	expectedVersion := v.Version

	if req.RegistrationNumber != nil && vehicle.NormalizeRegistration(*req.RegistrationNumber) != v.RegistrationNumber {
		if err := s.ensureRegistrationFree(ctx, tenantID, *req.RegistrationNumber); err != nil {
			return nil, err
		}
		if err := v.ChangeRegistration(*req.RegistrationNumber); err != nil {
			return nil, err
		}
	}

	if req.Brand != nil || req.Model != nil || req.ChassisNumber != nil || req.Energy != nil || req.FirstRegistrationDate != nil {
		energy := v.Energy
		if req.Energy != nil {
			energy = vehicle.EnergySource(*req.Energy)
		}
		firstRegistration := v.FirstRegistrationDate
		if req.FirstRegistrationDate != nil {
			firstRegistration = req.FirstRegistrationDate
		}
		if err := v.UpdateDetails(
			stringOr(req.Brand, v.Brand),
			stringOr(req.Model, v.Model),
			stringOr(req.ChassisNumber, v.ChassisNumber),
			energy,
			firstRegistration,
		); err != nil {
			return nil, err
		}
	}

	if req.Class != nil || req.Specs != nil {
		class := v.Class
		if req.Class != nil {
			class = vehicle.Class(*req.Class)
		}
		if class != v.Class {
			open, err := s.contractRepo.ExistsOpenForVehicle(ctx, tenantID, v.ID)
			if err != nil {
				return nil, err
			}
			if open {
				return nil, shared.NewDomainError("VEHICLE_HAS_OPEN_CONTRACTS", "Vehicle class cannot change while a contract is open")
			}
		}
		specs := vehicle.Specs{
			FiscalPower:    v.FiscalPower,
			Payload:        v.Payload,
			EngineCapacity: v.EngineCapacity,
			Seats:          v.Seats,
		}
		if req.Specs != nil {
			specs = req.Specs.toDomain()
		}
		if err := v.UpdateSpecs(class, specs); err != nil {
			return nil, err
		}
	}

	if req.ClientID != nil && *req.ClientID != v.ClientID {
		if err := s.ensureClient(ctx, tenantID, *req.ClientID); err != nil {
			return nil, err
		}
		if err := v.TransferTo(*req.ClientID); err != nil {
			return nil, err
		}
	}

	if err := s.vehicleRepo.SaveWithLock(ctx, v, expectedVersion); err != nil {
		return nil, err
	}

	if err := shared.PublishAndClear(ctx, s.eventPublisher, v); err != nil {
		return nil, err
	}

	response := ToVehicleResponse(v)
	return &response, nil
}

// Delete deletes a vehicle. It is refused while the vehicle has a contract
// that is neither cancelled nor expired.
func (s *VehicleService) Delete(ctx context.Context, tenantID, vehicleID uuid.UUID) error {
	v, err := s.vehicleRepo.FindByIDForTenant(ctx, tenantID, vehicleID)
	if err != nil {
		return err
	}

	open, err := s.contractRepo.ExistsOpenForVehicle(ctx, tenantID, vehicleID)
	if err != nil {
		return err
	}
	if open {
		return shared.NewDomainError("VEHICLE_HAS_OPEN_CONTRACTS", "Vehicle has contracts that are not cancelled or expired")
	}

	if err := s.vehicleRepo.DeleteForTenant(ctx, tenantID, vehicleID); err != nil {
		return err
	}

	v.AddDomainEvent(vehicle.NewVehicleDeletedEvent(v))
	return shared.PublishAndClear(ctx, s.eventPublisher, v)
}

func (s *VehicleService) ensureClient(ctx context.Context, tenantID, clientID uuid.UUID) error {
	if _, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, clientID); err != nil {
		if shared.CodeOf(err) == shared.ErrNotFound.Code {
			return shared.NewDomainError("CLIENT_NOT_FOUND", "Client not found")
		}
		return err
	}
	return nil
}

func (s *VehicleService) ensureRegistrationFree(ctx context.Context, tenantID uuid.UUID, registration string) error {
	exists, err := s.vehicleRepo.ExistsByRegistration(ctx, tenantID, vehicle.NormalizeRegistration(registration))
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "A vehicle with this registration number already exists")
	}
	return nil
}

func stringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
