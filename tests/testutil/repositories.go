package testutil

import (
	"context"
	"io"
	"time"

	"github.com/courtage/backend/internal/domain/bordereau"
	"github.com/courtage/backend/internal/domain/certificate"
	"github.com/courtage/backend/internal/domain/client"
	"github.com/courtage/backend/internal/domain/company"
	"github.com/courtage/backend/internal/domain/contract"
	"github.com/courtage/backend/internal/domain/document"
	"github.com/courtage/backend/internal/domain/rategrid"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockClientRepository is a mock implementation of client.ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*client.Client, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.Client), args.Error(1)
}

func (m *MockClientRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*client.Client, error) {
	args := m.Called(ctx, tenantID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.Client), args.Error(1)
}

func (m *MockClientRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]client.Client, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]client.Client), args.Error(1)
}

func (m *MockClientRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]client.Client, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]client.Client), args.Error(1)
}

func (m *MockClientRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClientRepository) Save(ctx context.Context, c *client.Client) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockClientRepository) SaveWithLock(ctx context.Context, c *client.Client, expectedVersion int) error {
	return m.Called(ctx, c, expectedVersion).Error(0)
}

func (m *MockClientRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockClientRepository) GenerateReference(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockProfessionRepository is a mock implementation of client.ProfessionRepository
type MockProfessionRepository struct {
	mock.Mock
}

func (m *MockProfessionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*client.Profession, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.Profession), args.Error(1)
}

func (m *MockProfessionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]client.Profession, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]client.Profession), args.Error(1)
}

func (m *MockProfessionRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfessionRepository) Save(ctx context.Context, p *client.Profession) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProfessionRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// MockVehicleRepository is a mock implementation of vehicle.VehicleRepository
type MockVehicleRepository struct {
	mock.Mock
}

func (m *MockVehicleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*vehicle.Vehicle, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vehicle.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) FindByRegistration(ctx context.Context, tenantID uuid.UUID, registration string) (*vehicle.Vehicle, error) {
	args := m.Called(ctx, tenantID, registration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vehicle.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*vehicle.Vehicle, error) {
	args := m.Called(ctx, tenantID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vehicle.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]vehicle.Vehicle, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vehicle.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) FindByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]vehicle.Vehicle, error) {
	args := m.Called(ctx, tenantID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vehicle.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]vehicle.Vehicle, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vehicle.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVehicleRepository) Save(ctx context.Context, v *vehicle.Vehicle) error {
	return m.Called(ctx, v).Error(0)
}

func (m *MockVehicleRepository) SaveWithLock(ctx context.Context, v *vehicle.Vehicle, expectedVersion int) error {
	return m.Called(ctx, v, expectedVersion).Error(0)
}

func (m *MockVehicleRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockVehicleRepository) ExistsByRegistration(ctx context.Context, tenantID uuid.UUID, registration string) (bool, error) {
	args := m.Called(ctx, tenantID, registration)
	return args.Bool(0), args.Error(1)
}

func (m *MockVehicleRepository) GenerateReference(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockCompanyRepository is a mock implementation of company.CompanyRepository
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*company.Company, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*company.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*company.Company, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*company.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]company.Company, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]company.Company), args.Error(1)
}

func (m *MockCompanyRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCompanyRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockCompanyRepository) Save(ctx context.Context, c *company.Company) error {
	return m.Called(ctx, c).Error(0)
}

// MockRateRowRepository is a mock implementation of rategrid.RateRowRepository
type MockRateRowRepository struct {
	mock.Mock
}

func (m *MockRateRowRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*rategrid.RateRow, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rategrid.RateRow), args.Error(1)
}

func (m *MockRateRowRepository) FindByKey(ctx context.Context, tenantID uuid.UUID, key rategrid.Key) (*rategrid.RateRow, error) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rategrid.RateRow), args.Error(1)
}

func (m *MockRateRowRepository) FindByClass(ctx context.Context, tenantID uuid.UUID, class vehicle.Class) ([]rategrid.RateRow, error) {
	args := m.Called(ctx, tenantID, class)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rategrid.RateRow), args.Error(1)
}

func (m *MockRateRowRepository) Save(ctx context.Context, row *rategrid.RateRow) error {
	return m.Called(ctx, row).Error(0)
}

func (m *MockRateRowRepository) SaveBatch(ctx context.Context, rows []*rategrid.RateRow) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *MockRateRowRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// MockContractRepository is a mock implementation of contract.ContractRepository
type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*contract.Contract, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *MockContractRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*contract.Contract, error) {
	args := m.Called(ctx, tenantID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *MockContractRepository) FindByPolicyNumber(ctx context.Context, tenantID uuid.UUID, policyNumber string) ([]contract.Contract, error) {
	args := m.Called(ctx, tenantID, policyNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contract.Contract), args.Error(1)
}

func (m *MockContractRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]contract.Contract, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contract.Contract), args.Error(1)
}

func (m *MockContractRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockContractRepository) FindForSettlement(ctx context.Context, tenantID, companyID uuid.UUID, from, to time.Time, statuses []contract.Status) ([]contract.Contract, error) {
	args := m.Called(ctx, tenantID, companyID, from, to, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contract.Contract), args.Error(1)
}

func (m *MockContractRepository) FindDueForActivation(ctx context.Context, day time.Time, limit int) ([]contract.Contract, error) {
	args := m.Called(ctx, day, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contract.Contract), args.Error(1)
}

func (m *MockContractRepository) FindDueForExpiry(ctx context.Context, day time.Time, limit int) ([]contract.Contract, error) {
	args := m.Called(ctx, day, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contract.Contract), args.Error(1)
}

func (m *MockContractRepository) ExistsOpenForVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, vehicleID)
	return args.Bool(0), args.Error(1)
}

func (m *MockContractRepository) ExistsOpenForClient(ctx context.Context, tenantID, clientID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, clientID)
	return args.Bool(0), args.Error(1)
}

func (m *MockContractRepository) ExistsRenewalOf(ctx context.Context, tenantID, parentID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, parentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockContractRepository) Save(ctx context.Context, c *contract.Contract) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockContractRepository) SaveWithLock(ctx context.Context, c *contract.Contract, expectedVersion int) error {
	return m.Called(ctx, c, expectedVersion).Error(0)
}

func (m *MockContractRepository) GenerateReference(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockContractRepository) GeneratePolicyNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockBordereauRepository is a mock implementation of bordereau.BordereauRepository
type MockBordereauRepository struct {
	mock.Mock
}

func (m *MockBordereauRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*bordereau.Bordereau, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bordereau.Bordereau), args.Error(1)
}

func (m *MockBordereauRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]bordereau.Bordereau, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]bordereau.Bordereau), args.Error(1)
}

func (m *MockBordereauRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBordereauRepository) Save(ctx context.Context, b *bordereau.Bordereau) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBordereauRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockBordereauRepository) GenerateReference(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockCertificateRepository is a mock implementation of certificate.CertificateRepository
type MockCertificateRepository struct {
	mock.Mock
}

func (m *MockCertificateRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*certificate.Certificate, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certificate.Certificate), args.Error(1)
}

func (m *MockCertificateRepository) FindByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]certificate.Certificate, error) {
	args := m.Called(ctx, tenantID, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]certificate.Certificate), args.Error(1)
}

func (m *MockCertificateRepository) ExistsIssuedForContract(ctx context.Context, tenantID, contractID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, contractID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCertificateRepository) Save(ctx context.Context, c *certificate.Certificate) error {
	return m.Called(ctx, c).Error(0)
}

// MockCertificateProvider is a mock implementation of certificate.Provider
type MockCertificateProvider struct {
	mock.Mock
}

func (m *MockCertificateProvider) Issue(ctx context.Context, req certificate.IssueRequest) (certificate.IssueResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(certificate.IssueResult), args.Error(1)
}

func (m *MockCertificateProvider) Cancel(ctx context.Context, number string) error {
	return m.Called(ctx, number).Error(0)
}

// MockDocumentRepository is a mock implementation of document.DocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*document.Document, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByOwner(ctx context.Context, tenantID uuid.UUID, ownerType document.OwnerType, ownerID uuid.UUID) ([]document.Document, error) {
	args := m.Called(ctx, tenantID, ownerType, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.Document), args.Error(1)
}

func (m *MockDocumentRepository) Save(ctx context.Context, d *document.Document) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDocumentRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// MockObjectStorage is a mock implementation of document.ObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) PutObject(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	return m.Called(ctx, key, contentType, body, size).Error(0)
}

func (m *MockObjectStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// RecordingPublisher collects published domain events
type RecordingPublisher struct {
	Events []shared.DomainEvent
}

// Publish implements shared.EventPublisher
func (p *RecordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.Events = append(p.Events, events...)
	return nil
}

// EventTypes lists the types of the recorded events in order
func (p *RecordingPublisher) EventTypes() []string {
	types := make([]string, len(p.Events))
	for i, e := range p.Events {
		types[i] = e.EventType()
	}
	return types
}

var (
	_ client.ClientRepository           = (*MockClientRepository)(nil)
	_ client.ProfessionRepository       = (*MockProfessionRepository)(nil)
	_ vehicle.VehicleRepository         = (*MockVehicleRepository)(nil)
	_ company.CompanyRepository         = (*MockCompanyRepository)(nil)
	_ rategrid.RateRowRepository        = (*MockRateRowRepository)(nil)
	_ contract.ContractRepository       = (*MockContractRepository)(nil)
	_ bordereau.BordereauRepository     = (*MockBordereauRepository)(nil)
	_ certificate.CertificateRepository = (*MockCertificateRepository)(nil)
	_ certificate.Provider              = (*MockCertificateProvider)(nil)
	_ document.DocumentRepository       = (*MockDocumentRepository)(nil)
	_ document.ObjectStorage            = (*MockObjectStorage)(nil)
	_ shared.EventPublisher             = (*RecordingPublisher)(nil)
)
