package bordereau

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/courtage/backend/internal/domain/bordereau"
	"github.com/courtage/backend/internal/domain/client"
	"github.com/courtage/backend/internal/domain/company"
	"github.com/courtage/backend/internal/domain/contract"
	"github.com/courtage/backend/internal/domain/pricing"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/courtage/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)

type bordereauFixture struct {
	tenantID   uuid.UUID
	bordereaux *testutil.MockBordereauRepository
	contracts  *testutil.MockContractRepository
	clients    *testutil.MockClientRepository
	vehicles   *testutil.MockVehicleRepository
	companies  *testutil.MockCompanyRepository
	storage    *testutil.MockObjectStorage
	publisher  *testutil.RecordingPublisher
	service    *BordereauService

	company *company.Company
	client  *client.Client
	vehicle *vehicle.Vehicle
}

func newBordereauFixture(t *testing.T) *bordereauFixture {
	t.Helper()
	f := &bordereauFixture{
		tenantID:   uuid.New(),
		bordereaux: new(testutil.MockBordereauRepository),
		contracts:  new(testutil.MockContractRepository),
		clients:    new(testutil.MockClientRepository),
		vehicles:   new(testutil.MockVehicleRepository),
		companies:  new(testutil.MockCompanyRepository),
		storage:    new(testutil.MockObjectStorage),
		publisher:  &testutil.RecordingPublisher{},
	}
	f.service = NewBordereauService(BordereauServiceDeps{
		Bordereaux: f.bordereaux,
		Contracts:  f.contracts,
		Clients:    f.clients,
		Vehicles:   f.vehicles,
		Companies:  f.companies,
		Storage:    f.storage,
	}, zap.NewNop())
	f.service.SetEventPublisher(f.publisher)
	f.service.now = func() time.Time { return fixedNow }

	var err error
	f.company, err = company.NewCompany(f.tenantID, "AXA", "AXA Assurances")
	require.NoError(t, err)
	f.client, err = client.NewClient(f.tenantID, client.KindIndividual, client.Identity{FirstName: "Awa", LastName: "Diop"})
	require.NoError(t, err)
	f.vehicle, err = vehicle.NewVehicle(f.tenantID, f.client.ID, "DK-1234-AB", "Toyota", "Corolla",
		vehicle.ClassPrivate, vehicle.EnergyGasoline, vehicle.Specs{FiscalPower: 7, Seats: 5})
	require.NoError(t, err)
	return f
}

func (f *bordereauFixture) settledContract(ref string, total int64) contract.Contract {
	c := contract.Contract{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(f.tenantID),
		Reference:           ref,
		PolicyNumber:        "POL-2024-00001",
		ClientID:            f.client.ID,
		VehicleID:           f.vehicle.ID,
		CompanyID:           f.company.ID,
		Type:                vehicle.ClassPrivate,
		Status:              contract.StatusValidated,
		StartDate:           time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:             time.Date(2024, 9, 9, 0, 0, 0, 0, time.UTC),
		Amounts: pricing.Breakdown{
			BasePremium:   decimal.NewFromInt(total),
			GrossPremium:  decimal.NewFromInt(total),
			TotalDiscount: decimal.Zero,
			Commission:    decimal.Zero,
			TotalAmount:   decimal.NewFromInt(total),
		},
	}
	return c
}

func (f *bordereauFixture) expectLookups() {
	f.clients.On("FindByIDs", mock.Anything, f.tenantID, []uuid.UUID{f.client.ID}).Return([]client.Client{*f.client}, nil)
	f.vehicles.On("FindByIDs", mock.Anything, f.tenantID, []uuid.UUID{f.vehicle.ID}).Return([]vehicle.Vehicle{*f.vehicle}, nil)
}

func (f *bordereauFixture) draft(t *testing.T, lines ...bordereau.Line) *bordereau.Bordereau {
	t.Helper()
	period, err := bordereau.NewPeriod(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	b, err := bordereau.NewBordereau(f.tenantID, f.company.ID, period)
	require.NoError(t, err)
	require.NoError(t, b.AssignReference("BRD-2024-00001"))
	require.NoError(t, b.Fill(lines, fixedNow))
	b.ClearDomainEvents()
	return b
}

func TestBordereauService_Generate(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	t.Run("lists settled contracts with totals", func(t *testing.T) {
		f := newBordereauFixture(t)
		first := f.settledContract("CTR-2024-00001", 25100)
		second := f.settledContract("CTR-2024-00002", 14900)
		f.companies.On("FindByIDForTenant", ctx, f.tenantID, f.company.ID).Return(f.company, nil)
		f.contracts.On("FindForSettlement", ctx, f.tenantID, f.company.ID, start, end.AddDate(0, 0, 1), bordereau.SettledStatuses).
			Return([]contract.Contract{first, second}, nil)
		f.expectLookups()
		f.bordereaux.On("GenerateReference", ctx).Return("BRD-2024-00003", nil)
		f.bordereaux.On("Save", ctx, mock.AnythingOfType("*bordereau.Bordereau")).Return(nil)

		resp, err := f.service.Generate(ctx, f.tenantID, GenerateBordereauRequest{
			CompanyID: f.company.ID,
			StartDate: start.Add(13 * time.Hour),
			EndDate:   end,
			Notes:     "March settlement",
		})
		require.NoError(t, err)
		assert.Equal(t, "BRD-2024-00003", resp.Reference)
		assert.Equal(t, "draft", resp.Status)
		assert.Equal(t, "March settlement", resp.Notes)
		require.Len(t, resp.Lines, 2)
		assert.Equal(t, "Awa Diop", resp.Lines[0].ClientName)
		assert.Equal(t, "DK1234AB", resp.Lines[0].VehicleRegistration)
		assert.Equal(t, 2, resp.Totals.Count)
		assert.True(t, resp.Totals.TotalAmount.Equal(decimal.NewFromInt(40000)))
		assert.Equal(t, fixedNow, resp.GeneratedAt)
		assert.Equal(t, []string{bordereau.EventTypeBordereauGenerated}, f.publisher.EventTypes())
	})

	t.Run("empty window is not an error", func(t *testing.T) {
		f := newBordereauFixture(t)
		f.companies.On("FindByIDForTenant", ctx, f.tenantID, f.company.ID).Return(f.company, nil)
		f.contracts.On("FindForSettlement", ctx, f.tenantID, f.company.ID, start, end.AddDate(0, 0, 1), bordereau.SettledStatuses).
			Return([]contract.Contract{}, nil)
		f.bordereaux.On("GenerateReference", ctx).Return("BRD-2024-00004", nil)
		f.bordereaux.On("Save", ctx, mock.Anything).Return(nil)

		resp, err := f.service.Generate(ctx, f.tenantID, GenerateBordereauRequest{CompanyID: f.company.ID, StartDate: start, EndDate: end})
		require.NoError(t, err)
		assert.Empty(t, resp.Lines)
		assert.Equal(t, 0, resp.Totals.Count)
		assert.True(t, resp.Totals.TotalAmount.IsZero())
		f.clients.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("retries on a taken reference", func(t *testing.T) {
		f := newBordereauFixture(t)
		f.companies.On("FindByIDForTenant", ctx, f.tenantID, f.company.ID).Return(f.company, nil)
		f.contracts.On("FindForSettlement", ctx, f.tenantID, f.company.ID, start, end.AddDate(0, 0, 1), bordereau.SettledStatuses).
			Return([]contract.Contract{}, nil)
		f.bordereaux.On("GenerateReference", ctx).Return("BRD-2024-00005", nil).Once()
		f.bordereaux.On("GenerateReference", ctx).Return("BRD-2024-00006", nil).Once()
		f.bordereaux.On("Save", ctx, mock.Anything).Return(shared.ErrAlreadyExists).Once()
		f.bordereaux.On("Save", ctx, mock.Anything).Return(nil).Once()

		resp, err := f.service.Generate(ctx, f.tenantID, GenerateBordereauRequest{CompanyID: f.company.ID, StartDate: start, EndDate: end})
		require.NoError(t, err)
		assert.Equal(t, "BRD-2024-00006", resp.Reference)
	})

	t.Run("end before start", func(t *testing.T) {
		f := newBordereauFixture(t)
		_, err := f.service.Generate(ctx, f.tenantID, GenerateBordereauRequest{CompanyID: f.company.ID, StartDate: end, EndDate: start})
		assert.Equal(t, "INVALID_PERIOD", shared.CodeOf(err))
	})

	t.Run("unknown company", func(t *testing.T) {
		f := newBordereauFixture(t)
		missing := uuid.New()
		f.companies.On("FindByIDForTenant", ctx, f.tenantID, missing).Return(nil, shared.ErrNotFound)

		_, err := f.service.Generate(ctx, f.tenantID, GenerateBordereauRequest{CompanyID: missing, StartDate: start, EndDate: end})
		assert.Equal(t, "COMPANY_NOT_FOUND", shared.CodeOf(err))
	})
}

func TestBordereauService_Regenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the lines of a draft", func(t *testing.T) {
		f := newBordereauFixture(t)
		b := f.draft(t)
		c := f.settledContract("CTR-2024-00009", 30000)
		f.bordereaux.On("FindByIDForTenant", ctx, f.tenantID, b.ID).Return(b, nil)
		f.contracts.On("FindForSettlement", ctx, f.tenantID, f.company.ID, b.Period.Start, b.Period.Until(), bordereau.SettledStatuses).
			Return([]contract.Contract{c}, nil)
		f.expectLookups()
		f.bordereaux.On("Save", ctx, b).Return(nil)

		resp, err := f.service.Regenerate(ctx, f.tenantID, b.ID)
		require.NoError(t, err)
		require.Len(t, resp.Lines, 1)
		assert.Equal(t, "CTR-2024-00009", resp.Lines[0].ContractReference)
		assert.True(t, resp.Totals.TotalAmount.Equal(decimal.NewFromInt(30000)))
	})

	t.Run("closed bordereau", func(t *testing.T) {
		f := newBordereauFixture(t)
		b := f.draft(t)
		require.NoError(t, b.Close(fixedNow))
		f.bordereaux.On("FindByIDForTenant", ctx, f.tenantID, b.ID).Return(b, nil)

		_, err := f.service.Regenerate(ctx, f.tenantID, b.ID)
		assert.Equal(t, "INVALID_STATE", shared.CodeOf(err))
		f.contracts.AssertNotCalled(t, "FindForSettlement", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBordereauService_CloseAndDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("close then delete is refused", func(t *testing.T) {
		f := newBordereauFixture(t)
		b := f.draft(t)
		f.bordereaux.On("FindByIDForTenant", ctx, f.tenantID, b.ID).Return(b, nil)
		f.bordereaux.On("Save", ctx, b).Return(nil)

		resp, err := f.service.Close(ctx, f.tenantID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "closed", resp.Status)
		require.NotNil(t, resp.ClosedAt)
		assert.Equal(t, []string{bordereau.EventTypeBordereauClosed}, f.publisher.EventTypes())

		err = f.service.Delete(ctx, f.tenantID, b.ID)
		assert.Equal(t, "INVALID_STATE", shared.CodeOf(err))
		f.bordereaux.AssertNotCalled(t, "DeleteForTenant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("draft can be deleted", func(t *testing.T) {
		f := newBordereauFixture(t)
		b := f.draft(t)
		f.bordereaux.On("FindByIDForTenant", ctx, f.tenantID, b.ID).Return(b, nil)
		f.bordereaux.On("DeleteForTenant", ctx, f.tenantID, b.ID).Return(nil)

		require.NoError(t, f.service.Delete(ctx, f.tenantID, b.ID))
		f.bordereaux.AssertExpectations(t)
	})
}

func TestBordereauService_List(t *testing.T) {
	ctx := context.Background()
	f := newBordereauFixture(t)
	b := f.draft(t, bordereau.NewLine(&contract.Contract{Reference: "CTR-1"}, "A", "B"))

	f.bordereaux.On("FindAllForTenant", ctx, f.tenantID, mock.MatchedBy(func(filter shared.Filter) bool {
		return filter.Filters[bordereau.FilterStatus] == "draft" &&
			filter.Filters[bordereau.FilterCompanyID] == f.company.ID.String() &&
			filter.OrderBy == "created_at"
	})).Return([]bordereau.Bordereau{*b}, nil)
	f.bordereaux.On("CountForTenant", ctx, f.tenantID, mock.Anything).Return(int64(1), nil)

	items, total, err := f.service.List(ctx, f.tenantID, BordereauListFilter{Status: "draft", CompanyID: f.company.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Lines)
	assert.Equal(t, 1, items[0].Totals.Count)
}

type stubRenderer struct {
	mu      sync.Mutex
	data    []byte
	err     error
	printed []*Statement
}

func (r *stubRenderer) Render(_ context.Context, s *Statement) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printed = append(r.printed, s)
	return r.data, r.err
}

func TestBordereauService_Export(t *testing.T) {
	ctx := context.Background()
	expires := fixedNow.Add(15 * time.Minute)

	t.Run("renders and uploads every format", func(t *testing.T) {
		f := newBordereauFixture(t)
		b := f.draft(t)
		pdf := &stubRenderer{data: []byte("%PDF-1.4")}
		xlsx := &stubRenderer{data: []byte("PK")}
		f.service.SetRenderer(FormatPDF, pdf)
		f.service.SetRenderer(FormatXLSX, xlsx)

		pdfKey := "bordereaux/" + f.tenantID.String() + "/BRD-2024-00001.pdf"
		xlsxKey := "bordereaux/" + f.tenantID.String() + "/BRD-2024-00001.xlsx"
		f.bordereaux.On("FindByIDForTenant", ctx, f.tenantID, b.ID).Return(b, nil)
		f.companies.On("FindByIDForTenant", ctx, f.tenantID, f.company.ID).Return(f.company, nil)
		f.storage.On("PutObject", mock.Anything, pdfKey, "application/pdf", mock.Anything, int64(8)).Return(nil)
		f.storage.On("PutObject", mock.Anything, xlsxKey, FormatXLSX.ContentType(), mock.Anything, int64(2)).Return(nil)
		f.storage.On("GenerateDownloadURL", mock.Anything, pdfKey, defaultDownloadExpiry).Return("https://s3/pdf", expires, nil)
		f.storage.On("GenerateDownloadURL", mock.Anything, xlsxKey, defaultDownloadExpiry).Return("https://s3/xlsx", expires, nil)

		results, err := f.service.Export(ctx, f.tenantID, b.ID, FormatPDF, FormatXLSX, FormatPDF)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "pdf", results[0].Format)
		assert.Equal(t, "https://s3/pdf", results[0].DownloadURL)
		assert.Equal(t, "BRD-2024-00001.xlsx", results[1].FileName)
		assert.Equal(t, 2, results[1].Size)
		require.Len(t, pdf.printed, 1)
		assert.Equal(t, "AXA Assurances", pdf.printed[0].CompanyName)
		assert.Equal(t, fixedNow, pdf.printed[0].PrintedAt)
		f.storage.AssertExpectations(t)
	})

	t.Run("renderer failure", func(t *testing.T) {
		f := newBordereauFixture(t)
		b := f.draft(t)
		f.service.SetRenderer(FormatPDF, &stubRenderer{err: errors.New("chrome crashed")})
		f.bordereaux.On("FindByIDForTenant", ctx, f.tenantID, b.ID).Return(b, nil)
		f.companies.On("FindByIDForTenant", ctx, f.tenantID, f.company.ID).Return(f.company, nil)

		_, err := f.service.Export(ctx, f.tenantID, b.ID, FormatPDF)
		assert.Equal(t, "EXPORT_FAILED", shared.CodeOf(err))
		f.storage.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown format", func(t *testing.T) {
		f := newBordereauFixture(t)
		_, err := f.service.Export(ctx, f.tenantID, uuid.New(), Format("csv"))
		assert.Equal(t, "INVALID_FORMAT", shared.CodeOf(err))
	})

	t.Run("format without renderer", func(t *testing.T) {
		f := newBordereauFixture(t)
		_, err := f.service.Export(ctx, f.tenantID, uuid.New(), FormatXLSX)
		assert.Equal(t, "EXPORT_UNAVAILABLE", shared.CodeOf(err))
	})
}
