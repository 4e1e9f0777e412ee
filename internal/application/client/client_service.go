package client

import (
	"context"

	"github.com/courtage/backend/internal/domain/client"
	"github.com/courtage/backend/internal/domain/contract"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
)

// ClientService handles client-related business operations
type ClientService struct {
	clientRepo     client.ClientRepository
	professionRepo client.ProfessionRepository
	vehicleRepo    vehicle.VehicleRepository
	contractRepo   contract.ContractRepository
	eventPublisher shared.EventPublisher
}

// NewClientService creates a new ClientService
func NewClientService(
	clientRepo client.ClientRepository,
	professionRepo client.ProfessionRepository,
	vehicleRepo vehicle.VehicleRepository,
	contractRepo contract.ContractRepository,
) *ClientService {
	return &ClientService{
		clientRepo:     clientRepo,
		professionRepo: professionRepo,
		vehicleRepo:    vehicleRepo,
		contractRepo:   contractRepo,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *ClientService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new client and assigns its CLT reference
func (s *ClientService) Create(ctx context.Context, tenantID uuid.UUID, req CreateClientRequest) (*ClientResponse, error) {
	if req.ProfessionID != nil {
		if err := s.ensureProfession(ctx, tenantID, *req.ProfessionID); err != nil {
			return nil, err
		}
	}

	var c *client.Client
	err := shared.RetryOnDuplicate(shared.MaxSaveAttempts, func() error {
		var err error
		c, err = newClientFromRequest(tenantID, req)
		if err != nil {
			return err
		}
		ref, err := s.clientRepo.GenerateReference(ctx)
		if err != nil {
			return err
		}
		if err := c.AssignReference(ref); err != nil {
			return err
		}
		return s.clientRepo.Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	if err := shared.PublishAndClear(ctx, s.eventPublisher, c); err != nil {
		return nil, err
	}

	response := ToClientResponse(c)
	return &response, nil
}

func newClientFromRequest(tenantID uuid.UUID, req CreateClientRequest) (*client.Client, error) {
	c, err := client.NewClient(tenantID, client.Kind(req.Kind), client.Identity{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		return nil, err
	}
	if req.Phone != "" || req.Email != "" {
		if err := c.SetContact(req.Phone, req.Email); err != nil {
			return nil, err
		}
	}
	if req.Address != "" || req.City != "" {
		if err := c.SetAddress(req.Address, req.City); err != nil {
			return nil, err
		}
	}
	if req.IDDocumentNumber != "" {
		if err := c.SetIDDocument(req.IDDocumentNumber); err != nil {
			return nil, err
		}
	}
	if req.ProfessionID != nil {
		c.SetProfession(req.ProfessionID)
	}
	if req.Notes != "" {
		c.SetNotes(req.Notes)
	}
	return c, nil
}

// GetByID retrieves a client by ID
func (s *ClientService) GetByID(ctx context.Context, tenantID, clientID uuid.UUID) (*ClientResponse, error) {
	c, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, clientID)
	if err != nil {
		return nil, err
	}

	response := ToClientResponse(c)
	return &response, nil
}

// GetByReference retrieves a client by its CLT reference
func (s *ClientService) GetByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*ClientResponse, error) {
	c, err := s.clientRepo.FindByReference(ctx, tenantID, reference)
	if err != nil {
		return nil, err
	}

	response := ToClientResponse(c)
	return &response, nil
}

// List retrieves a list of clients with filtering and pagination
func (s *ClientService) List(ctx context.Context, tenantID uuid.UUID, filter ClientListFilter) ([]ClientResponse, int64, error) {
	domainFilter := shared.NewFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search)
	if filter.Kind != "" {
		domainFilter.Filters["kind"] = filter.Kind
	}
	if filter.ProfessionID != "" {
		domainFilter.Filters["profession_id"] = filter.ProfessionID
	}
	if filter.City != "" {
		domainFilter.Filters["city"] = filter.City
	}

	clients, err := s.clientRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.clientRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToClientResponses(clients), total, nil
}

// Update updates a client
func (s *ClientService) Update(ctx context.Context, tenantID, clientID uuid.UUID, req UpdateClientRequest) (*ClientResponse, error) {
	c, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, clientID)
	if err != nil {
		return nil, err
	}
	expectedVersion := c.Version

	if req.FirstName != nil || req.LastName != nil || req.CompanyName != nil {
		identity := client.Identity{
			FirstName:   stringOr(req.FirstName, c.FirstName),
			LastName:    stringOr(req.LastName, c.LastName),
			CompanyName: stringOr(req.CompanyName, c.CompanyName),
		}
		if err := c.Rename(identity); err != nil {
			return nil, err
		}
	}

	if req.Phone != nil || req.Email != nil {
		if err := c.SetContact(stringOr(req.Phone, c.Phone), stringOr(req.Email, c.Email)); err != nil {
			return nil, err
		}
	}

	if req.Address != nil || req.City != nil {
		if err := c.SetAddress(stringOr(req.Address, c.Address), stringOr(req.City, c.City)); err != nil {
			return nil, err
		}
	}

	if req.IDDocumentNumber != nil {
		if err := c.SetIDDocument(*req.IDDocumentNumber); err != nil {
			return nil, err
		}
	}

	switch {
	case req.ClearProfession:
		c.SetProfession(nil)
	case req.ProfessionID != nil:
		if err := s.ensureProfession(ctx, tenantID, *req.ProfessionID); err != nil {
			return nil, err
		}
		c.SetProfession(req.ProfessionID)
	}

	if req.Notes != nil {
		c.SetNotes(*req.Notes)
	}

	if err := s.clientRepo.SaveWithLock(ctx, c, expectedVersion); err != nil {
		return nil, err
	}

	if err := shared.PublishAndClear(ctx, s.eventPublisher, c); err != nil {
		return nil, err
	}

	response := ToClientResponse(c)
	return &response, nil
}

// Delete deletes a client. Clients that still own vehicles cannot be deleted.
func (s *ClientService) Delete(ctx context.Context, tenantID, clientID uuid.UUID) error {
	c, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, clientID)
	if err != nil {
		return err
	}

	open, err := s.contractRepo.ExistsOpenForClient(ctx, tenantID, clientID)
	if err != nil {
		return err
	}
	if open {
		return shared.NewDomainError("CLIENT_HAS_OPEN_CONTRACTS", "Client has contracts that are not cancelled or expired")
	}

	vehicles, err := s.vehicleRepo.FindByClient(ctx, tenantID, clientID)
	if err != nil {
		return err
	}
	if len(vehicles) > 0 {
		return shared.NewDomainError("CLIENT_HAS_VEHICLES", "Client still owns vehicles")
	}

	if err := s.clientRepo.DeleteForTenant(ctx, tenantID, clientID); err != nil {
		return err
	}

	c.AddDomainEvent(client.NewClientDeletedEvent(c))
	return shared.PublishAndClear(ctx, s.eventPublisher, c)
}

func (s *ClientService) ensureProfession(ctx context.Context, tenantID, professionID uuid.UUID) error {
	if _, err := s.professionRepo.FindByIDForTenant(ctx, tenantID, professionID); err != nil {
		if shared.CodeOf(err) == shared.ErrNotFound.Code {
			return shared.NewDomainError("PROFESSION_NOT_FOUND", "Profession not found")
		}
		return err
	}
	return nil
}

func stringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
