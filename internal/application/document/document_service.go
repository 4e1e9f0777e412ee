package document

import (
	"context"
	"time"

	"github.com/courtage/backend/internal/domain/client"
	"github.com/courtage/backend/internal/domain/contract"
	"github.com/courtage/backend/internal/domain/document"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentServiceConfig holds presigned URL lifetimes
type DocumentServiceConfig struct {
	UploadURLExpiry   time.Duration
	DownloadURLExpiry time.Duration
}

// DefaultDocumentServiceConfig returns the default configuration
func DefaultDocumentServiceConfig() DocumentServiceConfig {
	return DocumentServiceConfig{
		UploadURLExpiry:   15 * time.Minute,
		DownloadURLExpiry: 1 * time.Hour,
	}
}

// DocumentServiceDeps groups the repositories and the object store
type DocumentServiceDeps struct {
	Documents document.DocumentRepository
	Clients   client.ClientRepository
	Vehicles  vehicle.VehicleRepository
	Contracts contract.ContractRepository
	Storage   document.ObjectStorage
}

// DocumentService manages attachments. Bytes never transit through the API:
// clients PUT to a presigned URL, then confirm.
type DocumentService struct {
	documentRepo document.DocumentRepository
	clientRepo   client.ClientRepository
	vehicleRepo  vehicle.VehicleRepository
	contractRepo contract.ContractRepository
	storage      document.ObjectStorage
	config       DocumentServiceConfig
	logger       *zap.Logger
	now          func() time.Time
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(deps DocumentServiceDeps, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		documentRepo: deps.Documents,
		clientRepo:   deps.Clients,
		vehicleRepo:  deps.Vehicles,
		contractRepo: deps.Contracts,
		storage:      deps.Storage,
		config:       DefaultDocumentServiceConfig(),
		logger:       logger,
		now:          time.Now,
	}
}

// SetConfig sets the service configuration
func (s *DocumentService) SetConfig(config DocumentServiceConfig) {
	if config.UploadURLExpiry > 0 {
		s.config.UploadURLExpiry = config.UploadURLExpiry
	}
	if config.DownloadURLExpiry > 0 {
		s.config.DownloadURLExpiry = config.DownloadURLExpiry
	}
}

// InitiateUpload creates a pending document and returns a presigned upload URL
func (s *DocumentService) InitiateUpload(ctx context.Context, tenantID uuid.UUID, req InitiateUploadRequest) (*InitiateUploadResponse, error) {
	if err := s.requireStorage(); err != nil {
		return nil, err
	}
	ownerType := document.OwnerType(req.OwnerType)
	if err := s.ensureOwner(ctx, tenantID, ownerType, req.OwnerID); err != nil {
		return nil, err
	}

	doc, err := document.NewDocument(tenantID, ownerType, req.OwnerID, req.FileName, req.ContentType, req.FileSize)
	if err != nil {
		return nil, err
	}

	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, doc.StorageKey, doc.ContentType, s.config.UploadURLExpiry)
	if err != nil {
		s.logger.Error("failed to presign upload", zap.String("key", doc.StorageKey), zap.Error(err))
		return nil, shared.NewDomainError("STORAGE_ERROR", "Failed to prepare upload")
	}

	if err := s.documentRepo.Save(ctx, doc); err != nil {
		return nil, err
	}

	return &InitiateUploadResponse{
		DocumentID: doc.ID,
		UploadURL:  uploadURL,
		ExpiresAt:  expiresAt,
	}, nil
}

// ConfirmUpload activates a document once its object exists in storage
func (s *DocumentService) ConfirmUpload(ctx context.Context, tenantID, id uuid.UUID) (*DocumentResponse, error) {
	if err := s.requireStorage(); err != nil {
		return nil, err
	}
	doc, err := s.documentRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.storage.ObjectExists(ctx, doc.StorageKey)
	if err != nil {
		s.logger.Error("failed to check uploaded object", zap.String("key", doc.StorageKey), zap.Error(err))
		return nil, shared.NewDomainError("STORAGE_CHECK_FAILED", "Failed to verify upload")
	}
	if !exists {
		return nil, shared.NewDomainError("UPLOAD_NOT_FOUND", "File not found in storage. Please upload the file first.")
	}

	if err := doc.Confirm(s.now()); err != nil {
		return nil, err
	}
	if err := s.documentRepo.Save(ctx, doc); err != nil {
		return nil, err
	}

	response := ToDocumentResponse(doc)
	if url, _, err := s.storage.GenerateDownloadURL(ctx, doc.StorageKey, s.config.DownloadURLExpiry); err == nil {
		response.URL = url
	}
	return &response, nil
}

// GetDownloadURL presigns a GET on an active document
func (s *DocumentService) GetDownloadURL(ctx context.Context, tenantID, id uuid.UUID) (*DownloadURLResponse, error) {
	if err := s.requireStorage(); err != nil {
		return nil, err
	}
	doc, err := s.documentRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !doc.IsActive() {
		return nil, shared.NewDomainError("DOCUMENT_NOT_UPLOADED", "Document upload has not been confirmed")
	}

	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, doc.StorageKey, s.config.DownloadURLExpiry)
	if err != nil {
		return nil, shared.NewDomainError("STORAGE_ERROR", "Failed to generate download URL")
	}
	return &DownloadURLResponse{URL: url, ExpiresAt: expiresAt}, nil
}

// Delete removes the object and the row. A missing object does not block the delete.
func (s *DocumentService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	doc, err := s.documentRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if s.storage != nil {
		if err := s.storage.DeleteObject(ctx, doc.StorageKey); err != nil {
			s.logger.Warn("failed to delete document from storage",
				zap.String("document_id", doc.ID.String()),
				zap.String("key", doc.StorageKey),
				zap.Error(err))
		}
	}

	return s.documentRepo.DeleteForTenant(ctx, tenantID, id)
}

// ListByOwner returns the active documents of an owner, with download URLs
func (s *DocumentService) ListByOwner(ctx context.Context, tenantID uuid.UUID, ownerType string, ownerID uuid.UUID) ([]DocumentResponse, error) {
	ot := document.OwnerType(ownerType)
	if !ot.IsValid() {
		return nil, shared.NewDomainError("INVALID_OWNER_TYPE", "Owner must be a client, vehicle or contract")
	}

	docs, err := s.documentRepo.FindByOwner(ctx, tenantID, ot, ownerID)
	if err != nil {
		return nil, err
	}

	responses := make([]DocumentResponse, len(docs))
	for i := range docs {
		responses[i] = ToDocumentResponse(&docs[i])
		if s.storage == nil {
			continue
		}
		url, _, err := s.storage.GenerateDownloadURL(ctx, docs[i].StorageKey, s.config.DownloadURLExpiry)
		if err != nil {
			s.logger.Warn("failed to presign document", zap.String("key", docs[i].StorageKey), zap.Error(err))
			continue
		}
		responses[i].URL = url
	}
	return responses, nil
}

func (s *DocumentService) requireStorage() error {
	if s.storage == nil {
		return shared.NewDomainError("STORAGE_UNAVAILABLE", "Object storage is not configured")
	}
	return nil
}

// ensureOwner checks that the owning aggregate exists in the tenant
func (s *DocumentService) ensureOwner(ctx context.Context, tenantID uuid.UUID, ownerType document.OwnerType, ownerID uuid.UUID) error {
	var err error
	switch ownerType {
	case document.OwnerClient:
		_, err = s.clientRepo.FindByIDForTenant(ctx, tenantID, ownerID)
	case document.OwnerVehicle:
		_, err = s.vehicleRepo.FindByIDForTenant(ctx, tenantID, ownerID)
	case document.OwnerContract:
		_, err = s.contractRepo.FindByIDForTenant(ctx, tenantID, ownerID)
	default:
		return shared.NewDomainError("INVALID_OWNER_TYPE", "Owner must be a client, vehicle or contract")
	}
	if err != nil {
		if shared.CodeOf(err) == shared.ErrNotFound.Code {
			return shared.NewDomainError("OWNER_NOT_FOUND", "Document owner not found")
		}
		return err
	}
	return nil
}
