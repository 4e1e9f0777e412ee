package document

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courtage/backend/internal/domain/client"
	"github.com/courtage/backend/internal/domain/document"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/courtage/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)

type documentFixture struct {
	documents *testutil.MockDocumentRepository
	clients   *testutil.MockClientRepository
	vehicles  *testutil.MockVehicleRepository
	contracts *testutil.MockContractRepository
	storage   *testutil.MockObjectStorage
	service   *DocumentService
}

func newDocumentFixture() *documentFixture {
	f := &documentFixture{
		documents: new(testutil.MockDocumentRepository),
		clients:   new(testutil.MockClientRepository),
		vehicles:  new(testutil.MockVehicleRepository),
		contracts: new(testutil.MockContractRepository),
		storage:   new(testutil.MockObjectStorage),
	}
	f.service = NewDocumentService(DocumentServiceDeps{
		Documents: f.documents,
		Clients:   f.clients,
		Vehicles:  f.vehicles,
		Contracts: f.contracts,
		Storage:   f.storage,
	}, nil)
	f.service.now = func() time.Time { return fixedNow }
	return f
}

func pendingDocument(tenantID uuid.UUID) *document.Document {
	d, err := document.NewDocument(tenantID, document.OwnerClient, uuid.New(), "cni.pdf", "application/pdf", 1024)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDocumentService_InitiateUpload(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	vehicleID := uuid.New()

	t.Run("presigns a PUT for a pending document", func(t *testing.T) {
		f := newDocumentFixture()
		expires := fixedNow.Add(15 * time.Minute)
		f.vehicles.On("FindByIDForTenant", ctx, tenantID, vehicleID).Return(&vehicle.Vehicle{}, nil)
		f.storage.On("GenerateUploadURL", ctx, mock.AnythingOfType("string"), "application/pdf", 15*time.Minute).
			Return("https://s3.test/put", expires, nil)
		var saved *document.Document
		f.documents.On("Save", ctx, mock.Anything).
			Run(func(args mock.Arguments) { saved = args.Get(1).(*document.Document) }).
			Return(nil)

		resp, err := f.service.InitiateUpload(ctx, tenantID, InitiateUploadRequest{
			OwnerType:   "vehicle",
			OwnerID:     vehicleID,
			FileName:    "carte-grise.pdf",
			FileSize:    4096,
			ContentType: "application/pdf",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://s3.test/put", resp.UploadURL)
		assert.Equal(t, expires, resp.ExpiresAt)
		require.NotNil(t, saved)
		assert.Equal(t, saved.ID, resp.DocumentID)
		assert.Equal(t, document.StatusPending, saved.Status)
		f.storage.AssertCalled(t, "GenerateUploadURL", ctx, saved.StorageKey, "application/pdf", 15*time.Minute)
	})

	t.Run("owner must exist", func(t *testing.T) {
		f := newDocumentFixture()
		f.vehicles.On("FindByIDForTenant", ctx, tenantID, vehicleID).Return(nil, shared.ErrNotFound)

		_, err := f.service.InitiateUpload(ctx, tenantID, InitiateUploadRequest{
			OwnerType: "vehicle", OwnerID: vehicleID, FileName: "a.pdf", FileSize: 1, ContentType: "application/pdf",
		})
		assert.Equal(t, "OWNER_NOT_FOUND", shared.CodeOf(err))
	})

	t.Run("svg refused", func(t *testing.T) {
		f := newDocumentFixture()
		clientID := uuid.New()
		f.clients.On("FindByIDForTenant", ctx, tenantID, clientID).Return(&client.Client{}, nil)

		_, err := f.service.InitiateUpload(ctx, tenantID, InitiateUploadRequest{
			OwnerType: "client", OwnerID: clientID, FileName: "logo.svg", FileSize: 10, ContentType: "image/svg+xml",
		})
		assert.Equal(t, "DISALLOWED_CONTENT_TYPE", shared.CodeOf(err))
		f.documents.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("no storage configured", func(t *testing.T) {
		svc := NewDocumentService(DocumentServiceDeps{}, nil)
		_, err := svc.InitiateUpload(ctx, tenantID, InitiateUploadRequest{OwnerType: "client", OwnerID: uuid.New()})
		assert.Equal(t, "STORAGE_UNAVAILABLE", shared.CodeOf(err))
	})
}

func TestDocumentService_ConfirmUpload(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("activates once the object exists", func(t *testing.T) {
		f := newDocumentFixture()
		d := pendingDocument(tenantID)
		f.documents.On("FindByIDForTenant", ctx, tenantID, d.ID).Return(d, nil)
		f.storage.On("ObjectExists", ctx, d.StorageKey).Return(true, nil)
		f.documents.On("Save", ctx, d).Return(nil)
		f.storage.On("GenerateDownloadURL", ctx, d.StorageKey, time.Hour).Return("https://s3.test/get", fixedNow, nil)

		resp, err := f.service.ConfirmUpload(ctx, tenantID, d.ID)
		require.NoError(t, err)
		assert.Equal(t, "active", resp.Status)
		assert.Equal(t, "https://s3.test/get", resp.URL)
		require.NotNil(t, resp.UploadedAt)
		assert.Equal(t, fixedNow, *resp.UploadedAt)
	})

	t.Run("object missing", func(t *testing.T) {
		f := newDocumentFixture()
		d := pendingDocument(tenantID)
		f.documents.On("FindByIDForTenant", ctx, tenantID, d.ID).Return(d, nil)
		f.storage.On("ObjectExists", ctx, d.StorageKey).Return(false, nil)

		_, err := f.service.ConfirmUpload(ctx, tenantID, d.ID)
		assert.Equal(t, "UPLOAD_NOT_FOUND", shared.CodeOf(err))
		assert.Equal(t, document.StatusPending, d.Status)
	})

	t.Run("storage check fails", func(t *testing.T) {
		f := newDocumentFixture()
		d := pendingDocument(tenantID)
		f.documents.On("FindByIDForTenant", ctx, tenantID, d.ID).Return(d, nil)
		f.storage.On("ObjectExists", ctx, d.StorageKey).Return(false, errors.New("timeout"))

		_, err := f.service.ConfirmUpload(ctx, tenantID, d.ID)
		assert.Equal(t, "STORAGE_CHECK_FAILED", shared.CodeOf(err))
	})
}

func TestDocumentService_GetDownloadURL(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	f := newDocumentFixture()
	d := pendingDocument(tenantID)
	f.documents.On("FindByIDForTenant", ctx, tenantID, d.ID).Return(d, nil)

	_, err := f.service.GetDownloadURL(ctx, tenantID, d.ID)
	assert.Equal(t, "DOCUMENT_NOT_UPLOADED", shared.CodeOf(err))

	require.NoError(t, d.Confirm(fixedNow))
	expires := fixedNow.Add(time.Hour)
	f.storage.On("GenerateDownloadURL", ctx, d.StorageKey, time.Hour).Return("https://s3.test/get", expires, nil)

	resp, err := f.service.GetDownloadURL(ctx, tenantID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.test/get", resp.URL)
	assert.Equal(t, expires, resp.ExpiresAt)
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("object and row removed", func(t *testing.T) {
		f := newDocumentFixture()
		d := pendingDocument(tenantID)
		f.documents.On("FindByIDForTenant", ctx, tenantID, d.ID).Return(d, nil)
		f.storage.On("DeleteObject", ctx, d.StorageKey).Return(nil)
		f.documents.On("DeleteForTenant", ctx, tenantID, d.ID).Return(nil)

		require.NoError(t, f.service.Delete(ctx, tenantID, d.ID))
		f.storage.AssertExpectations(t)
		f.documents.AssertExpectations(t)
	})

	t.Run("row removed even when the object delete fails", func(t *testing.T) {
		f := newDocumentFixture()
		d := pendingDocument(tenantID)
		f.documents.On("FindByIDForTenant", ctx, tenantID, d.ID).Return(d, nil)
		f.storage.On("DeleteObject", ctx, d.StorageKey).Return(errors.New("access denied"))
		f.documents.On("DeleteForTenant", ctx, tenantID, d.ID).Return(nil)

		require.NoError(t, f.service.Delete(ctx, tenantID, d.ID))
		f.documents.AssertCalled(t, "DeleteForTenant", ctx, tenantID, d.ID)
	})
}

func TestDocumentService_ListByOwner(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	f := newDocumentFixture()
	d := pendingDocument(tenantID)
	require.NoError(t, d.Confirm(fixedNow))

	f.documents.On("FindByOwner", ctx, tenantID, document.OwnerClient, d.OwnerID).Return([]document.Document{*d}, nil)
	f.storage.On("GenerateDownloadURL", ctx, d.StorageKey, time.Hour).Return("https://s3.test/get", fixedNow, nil)

	items, err := f.service.ListByOwner(ctx, tenantID, "client", d.OwnerID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "cni.pdf", items[0].FileName)
	assert.Equal(t, "https://s3.test/get", items[0].URL)

	_, err = f.service.ListByOwner(ctx, tenantID, "company", d.OwnerID)
	assert.Equal(t, "INVALID_OWNER_TYPE", shared.CodeOf(err))
}
