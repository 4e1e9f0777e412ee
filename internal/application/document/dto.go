package document

import (
	"time"

	"github.com/courtage/backend/internal/domain/document"
	"github.com/google/uuid"
)

// InitiateUploadRequest represents a request to initiate a file upload
type InitiateUploadRequest struct {
	OwnerType   string    `json:"owner_type" binding:"required,oneof=client vehicle contract"`
	OwnerID     uuid.UUID `json:"owner_id" binding:"required"`
	FileName    string    `json:"file_name" binding:"required,min=1,max=255"`
	FileSize    int64     `json:"file_size" binding:"required,gt=0"`
	ContentType string    `json:"content_type" binding:"required"`
}

// ListByOwnerFilter selects the documents of one owner
type ListByOwnerFilter struct {
	OwnerType string `form:"owner_type" binding:"required,oneof=client vehicle contract"`
	OwnerID   string `form:"owner_id" binding:"required,uuid"`
}

// InitiateUploadResponse carries the presigned PUT URL
type InitiateUploadResponse struct {
	DocumentID uuid.UUID `json:"document_id"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// DownloadURLResponse carries a presigned GET URL
type DownloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentResponse represents a document in API responses
type DocumentResponse struct {
	ID          uuid.UUID  `json:"id"`
	OwnerType   string     `json:"owner_type"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	FileName    string     `json:"file_name"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	Status      string     `json:"status"`
	URL         string     `json:"url,omitempty"`
	UploadedAt  *time.Time `json:"uploaded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToDocumentResponse converts a domain Document to DocumentResponse
func ToDocumentResponse(d *document.Document) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID,
		OwnerType:   string(d.OwnerType),
		OwnerID:     d.OwnerID,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		Size:        d.Size,
		Status:      string(d.Status),
		UploadedAt:  d.UploadedAt,
		CreatedAt:   d.CreatedAt,
	}
}
