package certificate

import (
	"context"
	"errors"
	"time"

	"github.com/courtage/backend/internal/domain/certificate"
	"github.com/courtage/backend/internal/domain/client"
	"github.com/courtage/backend/internal/domain/company"
	"github.com/courtage/backend/internal/domain/contract"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// errAlreadyIssued reports a contract holding a pending or issued certificate
var errAlreadyIssued = shared.NewDomainError("CERTIFICATE_ALREADY_ISSUED", "Contract already has a pending or issued certificate")

// CertificateServiceDeps groups the repositories and the platform client
type CertificateServiceDeps struct {
	Certificates certificate.CertificateRepository
	Contracts    contract.ContractRepository
	Clients      client.ClientRepository
	Vehicles     vehicle.VehicleRepository
	Companies    company.CompanyRepository
	Provider     certificate.Provider
}

// CertificateService issues certificates through the external platform
type CertificateService struct {
	certificateRepo certificate.CertificateRepository
	contractRepo    contract.ContractRepository
	clientRepo      client.ClientRepository
	vehicleRepo     vehicle.VehicleRepository
	companyRepo     company.CompanyRepository
	provider        certificate.Provider
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
	now             func() time.Time
}

// NewCertificateService creates a new CertificateService
func NewCertificateService(deps CertificateServiceDeps, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		certificateRepo: deps.Certificates,
		contractRepo:    deps.Contracts,
		clientRepo:      deps.Clients,
		vehicleRepo:     deps.Vehicles,
		companyRepo:     deps.Companies,
		provider:        deps.Provider,
		logger:          logger,
		now:             time.Now,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *CertificateService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Issue requests a certificate for a validated or active contract. The
// attempt is recorded before the platform is called, so a failed call leaves
// a failed certificate behind and the error is returned.
func (s *CertificateService) Issue(ctx context.Context, tenantID uuid.UUID, req IssueCertificateRequest) (*CertificateResponse, error) {
	if s.provider == nil {
		return nil, shared.NewDomainError("CERTIFICATE_PLATFORM_DISABLED", "Certificate platform is not configured")
	}

	c, err := s.contractRepo.FindByIDForTenant(ctx, tenantID, req.ContractID)
	if err != nil {
		if shared.CodeOf(err) == shared.ErrNotFound.Code {
			return nil, shared.NewDomainError("CONTRACT_NOT_FOUND", "Contract not found")
		}
		return nil, err
	}
	if c.Status != contract.StatusValidated && c.Status != contract.StatusActive {
		return nil, shared.NewDomainError("CONTRACT_NOT_CERTIFIABLE", "Only validated or active contracts can get a certificate")
	}

	issued, err := s.certificateRepo.ExistsIssuedForContract(ctx, tenantID, c.ID)
	if err != nil {
		return nil, err
	}
	if issued {
		return nil, errAlreadyIssued
	}

	issueReq, err := s.buildIssueRequest(ctx, tenantID, c)
	if err != nil {
		return nil, err
	}

	cert, err := certificate.NewCertificate(tenantID, c.ID, c.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := s.certificateRepo.Save(ctx, cert); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, errAlreadyIssued
		}
		return nil, err
	}

	result, issueErr := s.provider.Issue(ctx, issueReq)
	if issueErr != nil {
		s.logger.Warn("certificate issuance failed",
			zap.String("contract", c.Reference),
			zap.String("certificate_id", cert.ID.String()),
			zap.Error(issueErr))
		if err := cert.MarkFailed(issueErr.Error()); err != nil {
			return nil, err
		}
		if err := s.certificateRepo.Save(ctx, cert); err != nil {
			return nil, err
		}
		if errors.Is(issueErr, certificate.ErrProviderUnavailable) {
			return nil, shared.NewDomainError("CERTIFICATE_PLATFORM_UNAVAILABLE", "Certificate platform is unavailable, try again later")
		}
		return nil, shared.NewDomainError("CERTIFICATE_REJECTED", "Certificate platform rejected the request: "+issueErr.Error())
	}

	if err := cert.MarkIssued(result); err != nil {
		return nil, err
	}
	if err := s.certificateRepo.Save(ctx, cert); err != nil {
		return nil, err
	}
	if err := shared.PublishAndClear(ctx, s.eventPublisher, cert); err != nil {
		return nil, err
	}

	s.logger.Info("certificate issued",
		zap.String("contract", c.Reference),
		zap.String("number", cert.Number))

	response := ToCertificateResponse(cert)
	return &response, nil
}

func (s *CertificateService) buildIssueRequest(ctx context.Context, tenantID uuid.UUID, c *contract.Contract) (certificate.IssueRequest, error) {
	comp, err := s.companyRepo.FindByIDForTenant(ctx, tenantID, c.CompanyID)
	if err != nil {
		return certificate.IssueRequest{}, err
	}
	if comp.PlatformCode == "" {
		return certificate.IssueRequest{}, shared.NewDomainError("COMPANY_NOT_ON_PLATFORM", "Company has no certificate platform code")
	}
	holder, err := s.clientRepo.FindByIDForTenant(ctx, tenantID, c.ClientID)
	if err != nil {
		return certificate.IssueRequest{}, err
	}
	v, err := s.vehicleRepo.FindByIDForTenant(ctx, tenantID, c.VehicleID)
	if err != nil {
		return certificate.IssueRequest{}, err
	}

	return certificate.IssueRequest{
		PlatformCode:      comp.PlatformCode,
		PolicyNumber:      c.PolicyNumber,
		ContractReference: c.Reference,
		InsuredName:       holder.DisplayName(),
		InsuredPhone:      holder.Phone,
		Registration:      v.RegistrationNumber,
		ChassisNumber:     v.ChassisNumber,
		Brand:             v.Brand,
		Model:             v.Model,
		VehicleClass:      string(v.Class),
		StartDate:         c.StartDate,
		EndDate:           c.EndDate,
		Premium:           c.Amounts.TotalAmount,
	}, nil
}

// Cancel voids an issued certificate on the platform, then locally
func (s *CertificateService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*CertificateResponse, error) {
	if s.provider == nil {
		return nil, shared.NewDomainError("CERTIFICATE_PLATFORM_DISABLED", "Certificate platform is not configured")
	}
	cert, err := s.certificateRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if cert.Status != certificate.StatusIssued {
		return nil, shared.NewDomainError("INVALID_STATE", "Only issued certificates can be cancelled")
	}

	if err := s.provider.Cancel(ctx, cert.Number); err != nil {
		if errors.Is(err, certificate.ErrProviderUnavailable) {
			return nil, shared.NewDomainError("CERTIFICATE_PLATFORM_UNAVAILABLE", "Certificate platform is unavailable, try again later")
		}
		return nil, err
	}

	if err := cert.Cancel(s.now()); err != nil {
		return nil, err
	}
	if err := s.certificateRepo.Save(ctx, cert); err != nil {
		return nil, err
	}
	if err := shared.PublishAndClear(ctx, s.eventPublisher, cert); err != nil {
		return nil, err
	}

	response := ToCertificateResponse(cert)
	return &response, nil
}

// GetByID retrieves a certificate
func (s *CertificateService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*CertificateResponse, error) {
	cert, err := s.certificateRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToCertificateResponse(cert)
	return &response, nil
}

// ListByContract returns every attempt for a contract, newest first
func (s *CertificateService) ListByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]CertificateResponse, error) {
	items, err := s.certificateRepo.FindByContract(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	return ToCertificateResponses(items), nil
}
