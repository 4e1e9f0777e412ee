package client

import (
	"context"

	"github.com/courtage/backend/internal/domain/client"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProfessionService manages the profession reference list and its discounts
type ProfessionService struct {
	professionRepo client.ProfessionRepository
}

// NewProfessionService creates a new ProfessionService
func NewProfessionService(professionRepo client.ProfessionRepository) *ProfessionService {
	return &ProfessionService{professionRepo: professionRepo}
}

// Create creates a profession
func (s *ProfessionService) Create(ctx context.Context, tenantID uuid.UUID, req CreateProfessionRequest) (*ProfessionResponse, error) {
	exists, err := s.professionRepo.ExistsByCode(ctx, tenantID, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Profession with this code already exists")
	}

	discount, err := req.Discount.toDomain()
	if err != nil {
		return nil, err
	}
	p, err := client.NewProfession(tenantID, req.Code, req.Name, discount)
	if err != nil {
		return nil, err
	}
	if err := s.professionRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	response := ToProfessionResponse(p)
	return &response, nil
}

// Update changes the name and discount of a profession
func (s *ProfessionService) Update(ctx context.Context, tenantID, professionID uuid.UUID, req UpdateProfessionRequest) (*ProfessionResponse, error) {
	p, err := s.professionRepo.FindByIDForTenant(ctx, tenantID, professionID)
	if err != nil {
		return nil, err
	}
	discount, err := req.Discount.toDomain()
	if err != nil {
		return nil, err
	}
	if err := p.Update(req.Name, discount); err != nil {
		return nil, err
	}
	if err := s.professionRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	response := ToProfessionResponse(p)
	return &response, nil
}

// GetByID retrieves a profession
func (s *ProfessionService) GetByID(ctx context.Context, tenantID, professionID uuid.UUID) (*ProfessionResponse, error) {
	p, err := s.professionRepo.FindByIDForTenant(ctx, tenantID, professionID)
	if err != nil {
		return nil, err
	}
	response := ToProfessionResponse(p)
	return &response, nil
}

// List returns every profession of the tenant
func (s *ProfessionService) List(ctx context.Context, tenantID uuid.UUID) ([]ProfessionResponse, error) {
	professions, err := s.professionRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	responses := make([]ProfessionResponse, len(professions))
	for i := range professions {
		responses[i] = ToProfessionResponse(&professions[i])
	}
	return responses, nil
}

// Delete removes a profession. Clients linked to it are detached.
func (s *ProfessionService) Delete(ctx context.Context, tenantID, professionID uuid.UUID) error {
	return s.professionRepo.DeleteForTenant(ctx, tenantID, professionID)
}
