package company

import (
	"context"
	"strings"

	"github.com/courtage/backend/internal/domain/company"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CompanyService handles insurer-related business operations
type CompanyService struct {
	companyRepo    company.CompanyRepository
	eventPublisher shared.EventPublisher
}

// NewCompanyService creates a new CompanyService
func NewCompanyService(companyRepo company.CompanyRepository) *CompanyService {
	return &CompanyService{companyRepo: companyRepo}
}

// SetEventPublisher sets the event publisher for domain events
func (s *CompanyService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create registers a new insurer
func (s *CompanyService) Create(ctx context.Context, tenantID uuid.UUID, req CreateCompanyRequest) (*CompanyResponse, error) {
	exists, err := s.companyRepo.ExistsByCode(ctx, tenantID, strings.ToUpper(strings.TrimSpace(req.Code)))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Company with this code already exists")
	}

	c, err := company.NewCompany(tenantID, req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if req.Email != "" || req.Phone != "" || req.Address != "" {
		if err := c.Update(c.Name, req.Email, req.Phone, req.Address); err != nil {
			return nil, err
		}
	}
	if req.DefaultCommission != nil {
		if err := c.SetDefaultCommission(*req.DefaultCommission); err != nil {
			return nil, err
		}
	}
	if req.PlatformCode != "" {
		c.SetPlatformCode(req.PlatformCode)
	}

	if err := s.companyRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	if err := shared.PublishAndClear(ctx, s.eventPublisher, c); err != nil {
		return nil, err
	}

	response := ToCompanyResponse(c)
	return &response, nil
}

// GetByID retrieves an insurer
func (s *CompanyService) GetByID(ctx context.Context, tenantID, companyID uuid.UUID) (*CompanyResponse, error) {
	c, err := s.companyRepo.FindByIDForTenant(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	response := ToCompanyResponse(c)
	return &response, nil
}

// List retrieves insurers with filtering and pagination
func (s *CompanyService) List(ctx context.Context, tenantID uuid.UUID, filter CompanyListFilter) ([]CompanyResponse, int64, error) {
	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "name"
		if filter.OrderDir == "" {
			filter.OrderDir = "asc"
		}
	}
	domainFilter := shared.NewFilter(filter.Page, filter.PageSize, orderBy, filter.OrderDir, filter.Search)
	if filter.Active != nil {
		domainFilter.Filters["active"] = *filter.Active
	}

	companies, err := s.companyRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.companyRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]CompanyResponse, len(companies))
	for i := range companies {
		responses[i] = ToCompanyResponse(&companies[i])
	}
	return responses, total, nil
}

// Update changes an insurer's details, default commission and platform code
func (s *CompanyService) Update(ctx context.Context, tenantID, companyID uuid.UUID, req UpdateCompanyRequest) (*CompanyResponse, error) {
	c, err := s.companyRepo.FindByIDForTenant(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Email != nil || req.Phone != nil || req.Address != nil {
		if err := c.Update(
			stringOr(req.Name, c.Name),
			stringOr(req.Email, c.Email),
			stringOr(req.Phone, c.Phone),
			stringOr(req.Address, c.Address),
		); err != nil {
			return nil, err
		}
	}
	if req.DefaultCommission != nil {
		if err := c.SetDefaultCommission(*req.DefaultCommission); err != nil {
			return nil, err
		}
	}
	if req.PlatformCode != nil {
		c.SetPlatformCode(*req.PlatformCode)
	}

	if err := s.companyRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	response := ToCompanyResponse(c)
	return &response, nil
}

// Activate makes an insurer selectable for new contracts
func (s *CompanyService) Activate(ctx context.Context, tenantID, companyID uuid.UUID) (*CompanyResponse, error) {
	return s.changeStatus(ctx, tenantID, companyID, (*company.Company).Activate)
}

// Deactivate hides an insurer from new contracts
func (s *CompanyService) Deactivate(ctx context.Context, tenantID, companyID uuid.UUID) (*CompanyResponse, error) {
	return s.changeStatus(ctx, tenantID, companyID, (*company.Company).Deactivate)
}

func (s *CompanyService) changeStatus(ctx context.Context, tenantID, companyID uuid.UUID, change func(*company.Company) error) (*CompanyResponse, error) {
	c, err := s.companyRepo.FindByIDForTenant(ctx, tenantID, companyID)
	if err != nil {
		return nil, err
	}
	if err := change(c); err != nil {
		return nil, err
	}
	if err := s.companyRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	if err := shared.PublishAndClear(ctx, s.eventPublisher, c); err != nil {
		return nil, err
	}

	response := ToCompanyResponse(c)
	return &response, nil
}

func stringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
