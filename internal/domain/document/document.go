// Package document holds file attachments of clients, vehicles and contracts.
package document

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxFileSize is the largest accepted upload (20MB)
const MaxFileSize = 20 * 1024 * 1024

// OwnerType names the aggregate a document belongs to
type OwnerType string

const (
	OwnerClient   OwnerType = "client"
	OwnerVehicle  OwnerType = "vehicle"
	OwnerContract OwnerType = "contract"
)

// IsValid checks if the owner type is known
func (o OwnerType) IsValid() bool {
	switch o {
	case OwnerClient, OwnerVehicle, OwnerContract:
		return true
	}
	return false
}

// Status of a document
type Status string

const (
	StatusPending Status = "pending" // row created, object not yet uploaded
	StatusActive  Status = "active"
)

// AllowedContentTypes are the MIME types accepted for upload. SVG is excluded.
var AllowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"text/csv": true,
}

// Document is an uploaded file owned by a client, vehicle or contract
type Document struct {
	shared.TenantAggregateRoot
	OwnerType   OwnerType
	OwnerID     uuid.UUID
	FileName    string
	ContentType string
	Size        int64
	StorageKey  string
	Status      Status
	UploadedAt  *time.Time
	UploadedBy  *uuid.UUID
}

// NewDocument creates a pending document. The storage key is derived from the
// tenant, owner and document id so two uploads never collide.
func NewDocument(tenantID uuid.UUID, ownerType OwnerType, ownerID uuid.UUID, fileName, contentType string, size int64) (*Document, error) {
	if !ownerType.IsValid() {
		return nil, shared.NewDomainError("INVALID_OWNER_TYPE", "Owner must be a client, vehicle or contract")
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if err := validateFileName(fileName); err != nil {
		return nil, err
	}
	if !AllowedContentTypes[strings.ToLower(contentType)] {
		return nil, shared.NewDomainError("DISALLOWED_CONTENT_TYPE", fmt.Sprintf("Content type '%s' is not allowed", contentType))
	}
	if size <= 0 {
		return nil, shared.NewDomainError("INVALID_FILE_SIZE", "File size must be greater than 0")
	}
	if size > MaxFileSize {
		return nil, shared.NewDomainError("FILE_TOO_LARGE", "File size cannot exceed 20MB")
	}

	d := &Document{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OwnerType:           ownerType,
		OwnerID:             ownerID,
		FileName:            fileName,
		ContentType:         strings.ToLower(contentType),
		Size:                size,
		Status:              StatusPending,
	}
	d.StorageKey = StorageKey(tenantID, ownerType, ownerID, d.ID, fileName)
	return d, nil
}

// StorageKey builds the object key of a document
func StorageKey(tenantID uuid.UUID, ownerType OwnerType, ownerID, documentID uuid.UUID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("%s/documents/%s/%s/%s%s", tenantID, ownerType, ownerID, documentID, ext)
}

// Confirm activates the document once the object is in storage
func (d *Document) Confirm(at time.Time) error {
	if d.Status == StatusActive {
		return shared.NewDomainError("ALREADY_CONFIRMED", "Document is already confirmed")
	}
	d.Status = StatusActive
	d.UploadedAt = &at
	d.Touch()
	return nil
}

// IsActive returns true if the upload was confirmed
func (d *Document) IsActive() bool {
	return d.Status == StatusActive
}

func validateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot exceed 255 characters")
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return shared.NewDomainError("INVALID_FILE_NAME", "File name contains invalid characters")
		}
	}
	if strings.ContainsAny(name, `/\`) {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot contain path separators")
	}
	return nil
}
