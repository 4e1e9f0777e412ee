package document

import (
	"strings"
	"testing"
	"time"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	tenantID, ownerID := uuid.New(), uuid.New()

	d, err := NewDocument(tenantID, OwnerVehicle, ownerID, "Carte Grise.PDF", "application/PDF", 2048)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, d.Status)
	assert.Equal(t, "application/pdf", d.ContentType)
	assert.True(t, strings.HasPrefix(d.StorageKey, tenantID.String()+"/documents/vehicle/"+ownerID.String()+"/"))
	assert.True(t, strings.HasSuffix(d.StorageKey, d.ID.String()+".pdf"))
	assert.NotContains(t, d.StorageKey, " ")

	tests := []struct {
		name        string
		owner       OwnerType
		ownerID     uuid.UUID
		fileName    string
		contentType string
		size        int64
		code        string
	}{
		{"unknown owner", OwnerType("company"), ownerID, "a.pdf", "application/pdf", 1, "INVALID_OWNER_TYPE"},
		{"nil owner", OwnerClient, uuid.Nil, "a.pdf", "application/pdf", 1, "INVALID_OWNER"},
		{"path in name", OwnerClient, ownerID, "../a.pdf", "application/pdf", 1, "INVALID_FILE_NAME"},
		{"svg", OwnerClient, ownerID, "a.svg", "image/svg+xml", 1, "DISALLOWED_CONTENT_TYPE"},
		{"empty", OwnerClient, ownerID, "a.pdf", "application/pdf", 0, "INVALID_FILE_SIZE"},
		{"too large", OwnerClient, ownerID, "a.pdf", "application/pdf", MaxFileSize + 1, "FILE_TOO_LARGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDocument(tenantID, tt.owner, tt.ownerID, tt.fileName, tt.contentType, tt.size)
			assert.Equal(t, tt.code, shared.CodeOf(err))
		})
	}
}

func TestDocument_Confirm(t *testing.T) {
	d, err := NewDocument(uuid.New(), OwnerContract, uuid.New(), "scan.png", "image/png", 10)
	require.NoError(t, err)

	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, d.Confirm(at))
	assert.True(t, d.IsActive())
	assert.Equal(t, at, *d.UploadedAt)
	assert.Equal(t, "ALREADY_CONFIRMED", shared.CodeOf(d.Confirm(at)))
}
