package contract

import (
	"context"
	"testing"
	"time"

	"github.com/courtage/backend/internal/domain/client"
	"github.com/courtage/backend/internal/domain/company"
	"github.com/courtage/backend/internal/domain/contract"
	"github.com/courtage/backend/internal/domain/pricing"
	"github.com/courtage/backend/internal/domain/rategrid"
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

var (
	fixedNow  = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	gridKey   = rategrid.Key{Class: vehicle.ClassPrivate, Duration: rategrid.Duration6Months, Bucket: rategrid.BucketCV7To10}
	gridPrice = rategrid.Components{
		CivilLiability:  decimal.NewFromInt(20000),
		DefenceRecourse: decimal.NewFromInt(5000),
	}
)

type contractFixture struct {
	tenantID    uuid.UUID
	contracts   *testutil.MockContractRepository
	clients     *testutil.MockClientRepository
	professions *testutil.MockProfessionRepository
	vehicles    *testutil.MockVehicleRepository
	companies   *testutil.MockCompanyRepository
	rates       *testutil.MockRateRowRepository
	publisher   *testutil.RecordingPublisher
	service     *ContractService

	client     *client.Client
	profession *client.Profession
	vehicle    *vehicle.Vehicle
	company    *company.Company
	row        *rategrid.RateRow
}

func newContractFixture(t *testing.T) *contractFixture {
	t.Helper()
	f := &contractFixture{
		tenantID:    uuid.New(),
		contracts:   new(testutil.MockContractRepository),
		clients:     new(testutil.MockClientRepository),
		professions: new(testutil.MockProfessionRepository),
		vehicles:    new(testutil.MockVehicleRepository),
		companies:   new(testutil.MockCompanyRepository),
		rates:       new(testutil.MockRateRowRepository),
		publisher:   &testutil.RecordingPublisher{},
	}
	f.service = NewContractService(ContractServiceDeps{
		Contracts:   f.contracts,
		Clients:     f.clients,
		Professions: f.professions,
		Vehicles:    f.vehicles,
		Companies:   f.companies,
		Rates:       f.rates,
	}, zap.NewNop())
	f.service.SetEventPublisher(f.publisher)
	f.service.now = func() time.Time { return fixedNow }

	var err error
	f.profession, err = client.NewProfession(f.tenantID, "ENSEIGNANT", "Enseignant",
		pricing.Discount{Kind: pricing.DiscountPercent, Value: decimal.NewFromInt(10)})
	require.NoError(t, err)

	f.client, err = client.NewClient(f.tenantID, client.KindIndividual, client.Identity{FirstName: "Awa", LastName: "Diop"})
	require.NoError(t, err)
	f.client.SetProfession(&f.profession.ID)

	f.vehicle, err = vehicle.NewVehicle(f.tenantID, f.client.ID, "DK-1234-AB", "Toyota", "Corolla",
		vehicle.ClassPrivate, vehicle.EnergyGasoline, vehicle.Specs{FiscalPower: 7, Seats: 5})
	require.NoError(t, err)

	f.company, err = company.NewCompany(f.tenantID, "AXA", "AXA Assurances")
	require.NoError(t, err)
	require.NoError(t, f.company.SetDefaultCommission(decimal.NewFromInt(3000)))

	f.row, err = rategrid.NewRateRow(f.tenantID, gridKey, gridPrice)
	require.NoError(t, err)
	return f
}

func (f *contractFixture) expectParties(ctx context.Context) {
	f.clients.On("FindByIDForTenant", ctx, f.tenantID, f.client.ID).Return(f.client, nil)
	f.vehicles.On("FindByIDForTenant", ctx, f.tenantID, f.vehicle.ID).Return(f.vehicle, nil)
	f.companies.On("FindByIDForTenant", ctx, f.tenantID, f.company.ID).Return(f.company, nil)
	f.professions.On("FindByIDForTenant", ctx, f.tenantID, f.profession.ID).Return(f.profession, nil)
}

// newDraft returns a priced draft with the default inputs of the fixture
func (f *contractFixture) newDraft(t *testing.T) *contract.Contract {
	t.Helper()
	inputs := pricing.Inputs{
		Commission:         decimal.NewFromInt(3000),
		ProfessionDiscount: f.profession.Discount,
	}
	c, err := contract.NewContract(f.tenantID, contract.Terms{
		Type:           vehicle.ClassPrivate,
		ClientID:       f.client.ID,
		VehicleID:      f.vehicle.ID,
		CompanyID:      f.company.ID,
		DurationMonths: 6,
		StartDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}, inputs)
	require.NoError(t, err)
	require.NoError(t, c.AssignReference("CTR-2024-00001"))
	b, err := pricing.Calculate(gridPrice, inputs)
	require.NoError(t, err)
	_, err = c.ApplyPricing(b, fixedNow.Add(-time.Hour))
	require.NoError(t, err)
	c.ClearDomainEvents()
	return c
}

func (f *contractFixture) newActive(t *testing.T) *contract.Contract {
	t.Helper()
	c := f.newDraft(t)
	require.NoError(t, c.AssignPolicyNumber("POL-2024-00007"))
	require.NoError(t, c.Validate(fixedNow.Add(-time.Hour)))
	require.NoError(t, c.Activate(fixedNow.Add(-time.Hour)))
	c.ClearDomainEvents()
	return c
}

func TestContractService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("prices with company commission and profession discount", func(t *testing.T) {
		f := newContractFixture(t)
		f.expectParties(ctx)
		f.rates.On("FindByKey", ctx, f.tenantID, gridKey).Return(f.row, nil)
		f.contracts.On("GenerateReference", ctx).Return("CTR-2024-00042", nil)
		f.contracts.On("Save", ctx, mock.AnythingOfType("*contract.Contract")).Return(nil)

		resp, err := f.service.Create(ctx, f.tenantID, CreateContractRequest{
			ClientID:       f.client.ID,
			VehicleID:      f.vehicle.ID,
			CompanyID:      f.company.ID,
			DurationMonths: 5,
			StartDate:      time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC),
			Inputs: PricingInputsRequest{
				Accessories:    decimal.NewFromInt(1000),
				BonusMalusRate: decimal.NewFromInt(5),
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "CTR-2024-00042", resp.Reference)
		assert.Equal(t, "VP", resp.Type)
		assert.Equal(t, "draft", resp.Status)
		assert.Equal(t, "priced", resp.PricingStatus)
		assert.Equal(t, time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC), resp.EndDate)
		assert.Empty(t, resp.PolicyNumber)

		a := resp.Amounts
		assert.True(t, a.BasePremium.Equal(decimal.NewFromInt(25000)), a.BasePremium.String())
		assert.True(t, a.GrossPremium.Equal(decimal.NewFromInt(26000)))
		assert.True(t, a.BonusMalusDiscount.Equal(decimal.NewFromInt(1300)))
		assert.True(t, a.ProfessionDiscount.Equal(decimal.NewFromInt(2600)))
		assert.True(t, a.Commission.Equal(decimal.NewFromInt(3000)))
		assert.True(t, a.TotalAmount.Equal(decimal.NewFromInt(25100)), a.TotalAmount.String())
		assert.Equal(t, []string{contract.EventTypeContractCreated, contract.EventTypeContractPriced}, f.publisher.EventTypes())
	})

	t.Run("explicit commission and discount override the defaults", func(t *testing.T) {
		f := newContractFixture(t)
		f.expectParties(ctx)
		f.rates.On("FindByKey", ctx, f.tenantID, gridKey).Return(f.row, nil)
		f.contracts.On("GenerateReference", ctx).Return("CTR-2024-00043", nil)
		f.contracts.On("Save", ctx, mock.Anything).Return(nil)

		commission := decimal.Zero
		resp, err := f.service.Create(ctx, f.tenantID, CreateContractRequest{
			ClientID: f.client.ID, VehicleID: f.vehicle.ID, CompanyID: f.company.ID,
			DurationMonths: 6, StartDate: fixedNow,
			Inputs: PricingInputsRequest{
				Commission:         &commission,
				ProfessionDiscount: &DiscountRequest{Kind: "flat", Value: decimal.NewFromInt(500)},
			},
		})
		require.NoError(t, err)
		assert.True(t, resp.Amounts.TotalAmount.Equal(decimal.NewFromInt(24500)))
		f.professions.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no grid row leaves the draft unpriced", func(t *testing.T) {
		f := newContractFixture(t)
		f.expectParties(ctx)
		f.rates.On("FindByKey", ctx, f.tenantID, gridKey).Return(nil, shared.ErrNotFound)
		f.contracts.On("GenerateReference", ctx).Return("CTR-2024-00044", nil)
		f.contracts.On("Save", ctx, mock.Anything).Return(nil)

		resp, err := f.service.Create(ctx, f.tenantID, CreateContractRequest{
			ClientID: f.client.ID, VehicleID: f.vehicle.ID, CompanyID: f.company.ID,
			DurationMonths: 6, StartDate: fixedNow,
		})
		require.NoError(t, err)
		assert.Equal(t, "no_rate", resp.PricingStatus)
		assert.True(t, resp.Amounts.TotalAmount.IsZero())
		assert.Equal(t, []string{contract.EventTypeContractCreated}, f.publisher.EventTypes())
	})

	t.Run("reference collision is retried", func(t *testing.T) {
		f := newContractFixture(t)
		f.expectParties(ctx)
		f.rates.On("FindByKey", ctx, f.tenantID, gridKey).Return(f.row, nil)
		f.contracts.On("GenerateReference", ctx).Return("CTR-2024-00001", nil).Once()
		f.contracts.On("GenerateReference", ctx).Return("CTR-2024-00002", nil).Once()
		f.contracts.On("Save", ctx, mock.Anything).Return(shared.ErrAlreadyExists).Once()
		f.contracts.On("Save", ctx, mock.Anything).Return(nil).Once()

		resp, err := f.service.Create(ctx, f.tenantID, CreateContractRequest{
			ClientID: f.client.ID, VehicleID: f.vehicle.ID, CompanyID: f.company.ID,
			DurationMonths: 6, StartDate: fixedNow,
		})
		require.NoError(t, err)
		assert.Equal(t, "CTR-2024-00002", resp.Reference)
		assert.Equal(t, []string{contract.EventTypeContractCreated, contract.EventTypeContractPriced}, f.publisher.EventTypes())
	})

	t.Run("inactive company", func(t *testing.T) {
		f := newContractFixture(t)
		require.NoError(t, f.company.Deactivate())
		f.expectParties(ctx)

		_, err := f.service.Create(ctx, f.tenantID, CreateContractRequest{
			ClientID: f.client.ID, VehicleID: f.vehicle.ID, CompanyID: f.company.ID,
			DurationMonths: 6, StartDate: fixedNow,
		})
		assert.Equal(t, "COMPANY_INACTIVE", shared.CodeOf(err))
	})

	t.Run("vehicle of another client", func(t *testing.T) {
		f := newContractFixture(t)
		other := uuid.New()
		require.NoError(t, f.vehicle.TransferTo(other))
		f.expectParties(ctx)

		_, err := f.service.Create(ctx, f.tenantID, CreateContractRequest{
			ClientID: f.client.ID, VehicleID: f.vehicle.ID, CompanyID: f.company.ID,
			DurationMonths: 6, StartDate: fixedNow,
		})
		assert.Equal(t, "VEHICLE_CLIENT_MISMATCH", shared.CodeOf(err))
	})

	t.Run("negative input", func(t *testing.T) {
		f := newContractFixture(t)
		f.expectParties(ctx)

		_, err := f.service.Create(ctx, f.tenantID, CreateContractRequest{
			ClientID: f.client.ID, VehicleID: f.vehicle.ID, CompanyID: f.company.ID,
			DurationMonths: 6, StartDate: fixedNow,
			Inputs: PricingInputsRequest{Accessories: decimal.NewFromInt(-5)},
		})
		assert.Equal(t, "INVALID_INPUT", shared.CodeOf(err))
		f.contracts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestContractService_Quote(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		f := newContractFixture(t)
		f.expectParties(ctx)
		f.rates.On("FindByKey", ctx, f.tenantID, gridKey).Return(f.row, nil)

		resp, err := f.service.Quote(ctx, f.tenantID, QuoteRequest{VehicleID: f.vehicle.ID, DurationMonths: 4, CompanyID: &f.company.ID})
		require.NoError(t, err)
		assert.True(t, resp.Found)
		assert.Equal(t, 6, resp.DurationBucket)
		assert.Equal(t, "CV_7_10", resp.Bucket)
		require.NotNil(t, resp.Breakdown)
		// 25000 - 10% + 3000
		assert.True(t, resp.Breakdown.TotalAmount.Equal(decimal.NewFromInt(25500)))
		f.contracts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("missing row is an empty result", func(t *testing.T) {
		f := newContractFixture(t)
		f.expectParties(ctx)
		f.rates.On("FindByKey", ctx, f.tenantID, gridKey).Return(nil, shared.ErrNotFound)

		resp, err := f.service.Quote(ctx, f.tenantID, QuoteRequest{VehicleID: f.vehicle.ID, DurationMonths: 6})
		require.NoError(t, err)
		assert.False(t, resp.Found)
		assert.Nil(t, resp.Breakdown)
	})
}

func TestContractService_Price(t *testing.T) {
	ctx := context.Background()

	t.Run("unchanged grid is a no-op", func(t *testing.T) {
		f := newContractFixture(t)
		c := f.newDraft(t)
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, c.ID).Return(c, nil)
		f.vehicles.On("FindByIDForTenant", ctx, f.tenantID, f.vehicle.ID).Return(f.vehicle, nil)
		f.rates.On("FindByKey", ctx, f.tenantID, gridKey).Return(f.row, nil)

		resp, err := f.service.Price(ctx, f.tenantID, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Version)
		f.contracts.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.EventTypes())
	})

	t.Run("new grid price is stored", func(t *testing.T) {
		f := newContractFixture(t)
		c := f.newDraft(t)
		_, err := f.row.ReplaceComponents(rategrid.Components{CivilLiability: decimal.NewFromInt(30000)})
		require.NoError(t, err)
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, c.ID).Return(c, nil)
		f.vehicles.On("FindByIDForTenant", ctx, f.tenantID, f.vehicle.ID).Return(f.vehicle, nil)
		f.rates.On("FindByKey", ctx, f.tenantID, gridKey).Return(f.row, nil)
		f.contracts.On("SaveWithLock", ctx, c, 2).Return(nil)

		resp, err := f.service.Price(ctx, f.tenantID, c.ID)
		require.NoError(t, err)
		assert.True(t, resp.Amounts.BasePremium.Equal(decimal.NewFromInt(30000)))
		assert.Equal(t, []string{contract.EventTypeContractPriced}, f.publisher.EventTypes())
	})

	t.Run("validated contracts are frozen", func(t *testing.T) {
		f := newContractFixture(t)
		c := f.newActive(t)
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, c.ID).Return(c, nil)
		f.vehicles.On("FindByIDForTenant", ctx, f.tenantID, f.vehicle.ID).Return(f.vehicle, nil)
		f.rates.On("FindByKey", ctx, f.tenantID, gridKey).Return(f.row, nil)

		_, err := f.service.Price(ctx, f.tenantID, c.ID)
		assert.Equal(t, "INVALID_STATE", shared.CodeOf(err))
	})
}

func TestContractService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("new inputs are repriced", func(t *testing.T) {
		f := newContractFixture(t)
		c := f.newDraft(t)
		f.expectParties(ctx)
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, c.ID).Return(c, nil)
		f.rates.On("FindByKey", ctx, f.tenantID, gridKey).Return(f.row, nil)
		f.contracts.On("SaveWithLock", ctx, c, 2).Return(nil)

		resp, err := f.service.Update(ctx, f.tenantID, c.ID, UpdateContractRequest{
			Inputs: &PricingInputsRequest{FlatDiscount: decimal.NewFromInt(1000)},
		})
		require.NoError(t, err)
		assert.Equal(t, "priced", resp.PricingStatus)
		assert.True(t, resp.Amounts.FlatDiscount.Equal(decimal.NewFromInt(1000)))
		// 25000 - 1000 - 2500 + 3000
		assert.True(t, resp.Amounts.TotalAmount.Equal(decimal.NewFromInt(24500)))
	})

	newInsurer := func(t *testing.T, f *contractFixture) *company.Company {
		t.Helper()
		co, err := company.NewCompany(f.tenantID, "NSIA", "NSIA Assurances")
		require.NoError(t, err)
		require.NoError(t, co.SetDefaultCommission(decimal.NewFromInt(500)))
		f.companies.On("FindByIDForTenant", ctx, f.tenantID, co.ID).Return(co, nil)
		return co
	}

	t.Run("defaulted commission follows a company switch", func(t *testing.T) {
		f := newContractFixture(t)
		c := f.newDraft(t)
		nsia := newInsurer(t, f)
		f.expectParties(ctx)
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, c.ID).Return(c, nil)
		f.rates.On("FindByKey", ctx, f.tenantID, gridKey).Return(f.row, nil)
		f.contracts.On("SaveWithLock", ctx, c, 2).Return(nil)

		resp, err := f.service.Update(ctx, f.tenantID, c.ID, UpdateContractRequest{CompanyID: &nsia.ID})
		require.NoError(t, err)
		assert.Equal(t, nsia.ID, c.CompanyID)
		assert.True(t, c.Inputs.Commission.Equal(decimal.NewFromInt(500)))
		assert.True(t, resp.Amounts.Commission.Equal(decimal.NewFromInt(500)))
		// 25000 - 2500 + 500
		assert.True(t, resp.Amounts.TotalAmount.Equal(decimal.NewFromInt(23000)), resp.Amounts.TotalAmount.String())
	})

	t.Run("explicit commission survives a company switch", func(t *testing.T) {
		f := newContractFixture(t)
		c := f.newDraft(t)
		c.Inputs.CommissionOverride = true
		nsia := newInsurer(t, f)
		f.expectParties(ctx)
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, c.ID).Return(c, nil)
		f.rates.On("FindByKey", ctx, f.tenantID, gridKey).Return(f.row, nil)
		f.contracts.On("SaveWithLock", ctx, c, 2).Return(nil)

		resp, err := f.service.Update(ctx, f.tenantID, c.ID, UpdateContractRequest{CompanyID: &nsia.ID})
		require.NoError(t, err)
		assert.True(t, resp.Amounts.Commission.Equal(decimal.NewFromInt(3000)))
		assert.True(t, resp.Amounts.TotalAmount.Equal(decimal.NewFromInt(25500)), resp.Amounts.TotalAmount.String())
	})

	t.Run("explicit commission in the request is kept", func(t *testing.T) {
		f := newContractFixture(t)
		c := f.newDraft(t)
		f.expectParties(ctx)
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, c.ID).Return(c, nil)
		f.rates.On("FindByKey", ctx, f.tenantID, gridKey).Return(f.row, nil)
		f.contracts.On("SaveWithLock", ctx, c, 2).Return(nil)

		commission := decimal.NewFromInt(1000)
		_, err := f.service.Update(ctx, f.tenantID, c.ID, UpdateContractRequest{
			Inputs: &PricingInputsRequest{Commission: &commission},
		})
		require.NoError(t, err)
		assert.True(t, c.Inputs.CommissionOverride)
		assert.True(t, c.Inputs.Commission.Equal(commission))
	})
}

func TestContractService_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("allocates a policy number and retries a collision", func(t *testing.T) {
		f := newContractFixture(t)
		first := f.newDraft(t)
		second := *first
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, first.ID).Return(first, nil).Once()
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, first.ID).Return(&second, nil).Once()
		f.contracts.On("GeneratePolicyNumber", ctx).Return("POL-2024-00001", nil).Once()
		f.contracts.On("GeneratePolicyNumber", ctx).Return("POL-2024-00002", nil).Once()
		f.contracts.On("SaveWithLock", ctx, first, 2).Return(shared.ErrAlreadyExists).Once()
		f.contracts.On("SaveWithLock", ctx, &second, 2).Return(nil).Once()

		resp, err := f.service.Validate(ctx, f.tenantID, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "POL-2024-00002", resp.PolicyNumber)
		assert.Equal(t, "validated", resp.Status)
		assert.Equal(t, fixedNow, *resp.ValidatedAt)
		f.contracts.AssertExpectations(t)
	})

	t.Run("inherited policy number is kept", func(t *testing.T) {
		f := newContractFixture(t)
		c := f.newDraft(t)
		require.NoError(t, c.AssignPolicyNumber("POL-2023-00099"))
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, c.ID).Return(c, nil)
		f.contracts.On("SaveWithLock", ctx, c, 2).Return(nil)

		resp, err := f.service.Validate(ctx, f.tenantID, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "POL-2023-00099", resp.PolicyNumber)
		f.contracts.AssertNotCalled(t, "GeneratePolicyNumber", mock.Anything)
	})

	t.Run("unpriced draft", func(t *testing.T) {
		f := newContractFixture(t)
		c := f.newDraft(t)
		_, err := c.MarkNoRate(fixedNow)
		require.NoError(t, err)
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, c.ID).Return(c, nil)
		f.contracts.On("GeneratePolicyNumber", ctx).Return("POL-2024-00003", nil)

		_, err = f.service.Validate(ctx, f.tenantID, c.ID)
		assert.Equal(t, "CONTRACT_NOT_PRICED", shared.CodeOf(err))
	})
}

func TestContractService_Transitions(t *testing.T) {
	ctx := context.Background()

	t.Run("cancel requires a reason", func(t *testing.T) {
		f := newContractFixture(t)
		c := f.newActive(t)
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, c.ID).Return(c, nil)

		_, err := f.service.Cancel(ctx, f.tenantID, c.ID, CancelContractRequest{Reason: " "})
		assert.Equal(t, "CANCELLATION_REASON_REQUIRED", shared.CodeOf(err))
	})

	t.Run("cancel an active contract", func(t *testing.T) {
		f := newContractFixture(t)
		c := f.newActive(t)
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, c.ID).Return(c, nil)
		f.contracts.On("SaveWithLock", ctx, c, c.Version).Return(nil)

		resp, err := f.service.Cancel(ctx, f.tenantID, c.ID, CancelContractRequest{Reason: "vehicle sold"})
		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)
		assert.Equal(t, []string{contract.EventTypeContractCancelled}, f.publisher.EventTypes())
	})

	t.Run("activate a draft", func(t *testing.T) {
		f := newContractFixture(t)
		c := f.newDraft(t)
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, c.ID).Return(c, nil)

		_, err := f.service.Activate(ctx, f.tenantID, c.ID)
		assert.Equal(t, "INVALID_STATE", shared.CodeOf(err))
	})

	t.Run("optimistic lock conflict", func(t *testing.T) {
		f := newContractFixture(t)
		c := f.newActive(t)
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, c.ID).Return(c, nil)
		f.contracts.On("SaveWithLock", ctx, c, mock.Anything).Return(shared.ErrConcurrencyConflict)

		_, err := f.service.Cancel(ctx, f.tenantID, c.ID, CancelContractRequest{Reason: "duplicate"})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Empty(t, f.publisher.EventTypes())
	})
}

func TestContractService_Renew(t *testing.T) {
	ctx := context.Background()

	t.Run("renewal before expiry keeps the policy number", func(t *testing.T) {
		f := newContractFixture(t)
		parent := f.newActive(t)
		f.expectParties(ctx)
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, parent.ID).Return(parent, nil)
		f.contracts.On("ExistsRenewalOf", ctx, f.tenantID, parent.ID).Return(false, nil)
		f.rates.On("FindByKey", ctx, f.tenantID, gridKey).Return(f.row, nil)
		f.contracts.On("GenerateReference", ctx).Return("CTR-2024-00100", nil)
		f.contracts.On("Save", ctx, mock.AnythingOfType("*contract.Contract")).Return(nil)

		resp, err := f.service.Renew(ctx, f.tenantID, parent.ID, RenewContractRequest{})
		require.NoError(t, err)
		assert.Equal(t, "POL-2024-00007", resp.PolicyNumber)
		assert.Equal(t, parent.ID, *resp.ParentID)
		assert.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), resp.StartDate)
		assert.Equal(t, "priced", resp.PricingStatus)
		assert.Contains(t, f.publisher.EventTypes(), contract.EventTypeContractRenewed)
	})

	t.Run("renewal after expiry gets a fresh number at validation", func(t *testing.T) {
		f := newContractFixture(t)
		parent := f.newActive(t)
		require.NoError(t, parent.Expire(fixedNow))
		f.expectParties(ctx)
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, parent.ID).Return(parent, nil)
		f.contracts.On("ExistsRenewalOf", ctx, f.tenantID, parent.ID).Return(false, nil)
		f.rates.On("FindByKey", ctx, f.tenantID, gridKey).Return(f.row, nil)
		f.contracts.On("GenerateReference", ctx).Return("CTR-2024-00101", nil)
		f.contracts.On("Save", ctx, mock.Anything).Return(nil)

		start := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
		resp, err := f.service.Renew(ctx, f.tenantID, parent.ID, RenewContractRequest{StartDate: &start})
		require.NoError(t, err)
		assert.Empty(t, resp.PolicyNumber)
		assert.Equal(t, start, resp.StartDate)
	})

	t.Run("only once", func(t *testing.T) {
		f := newContractFixture(t)
		parent := f.newActive(t)
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, parent.ID).Return(parent, nil)
		f.contracts.On("ExistsRenewalOf", ctx, f.tenantID, parent.ID).Return(true, nil)

		_, err := f.service.Renew(ctx, f.tenantID, parent.ID, RenewContractRequest{})
		assert.Equal(t, "CONTRACT_ALREADY_RENEWED", shared.CodeOf(err))
	})

	t.Run("drafts are not renewable", func(t *testing.T) {
		f := newContractFixture(t)
		parent := f.newDraft(t)
		f.expectParties(ctx)
		f.contracts.On("FindByIDForTenant", ctx, f.tenantID, parent.ID).Return(parent, nil)
		f.contracts.On("ExistsRenewalOf", ctx, f.tenantID, parent.ID).Return(false, nil)

		_, err := f.service.Renew(ctx, f.tenantID, parent.ID, RenewContractRequest{})
		assert.Equal(t, "CONTRACT_NOT_RENEWABLE", shared.CodeOf(err))
	})
}

func TestContractService_GetByPolicyNumber(t *testing.T) {
	ctx := context.Background()
	f := newContractFixture(t)
	c := f.newActive(t)
	f.contracts.On("FindByPolicyNumber", ctx, f.tenantID, "POL-2024-00007").Return([]contract.Contract{*c}, nil)
	f.contracts.On("FindByPolicyNumber", ctx, f.tenantID, "POL-0000-00000").Return([]contract.Contract{}, nil)

	chain, err := f.service.GetByPolicyNumber(ctx, f.tenantID, "POL-2024-00007")
	require.NoError(t, err)
	require.Len(t, chain, 1)

	_, err = f.service.GetByPolicyNumber(ctx, f.tenantID, "POL-0000-00000")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestContractService_List(t *testing.T) {
	ctx := context.Background()
	f := newContractFixture(t)
	from := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)
	f.contracts.On("FindAllForTenant", ctx, f.tenantID, mock.MatchedBy(func(filter shared.Filter) bool {
		return filter.Filters[contract.FilterStatus] == "active" &&
			filter.Filters[contract.FilterStartFrom] == time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	})).Return([]contract.Contract{}, nil)
	f.contracts.On("CountForTenant", ctx, f.tenantID, mock.Anything).Return(int64(0), nil)

	items, total, err := f.service.List(ctx, f.tenantID, ContractListFilter{Status: "active", StartFrom: &from})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
}

func TestContractService_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newContractFixture(t)
	day := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	due := f.newDraft(t)
	require.NoError(t, due.AssignPolicyNumber("POL-2024-00010"))
	require.NoError(t, due.Validate(fixedNow))
	due.ClearDomainEvents()

	conflicted := f.newDraft(t)
	require.NoError(t, conflicted.AssignPolicyNumber("POL-2024-00011"))
	require.NoError(t, conflicted.Validate(fixedNow))
	conflicted.ClearDomainEvents()

	ended := f.newActive(t)

	f.contracts.On("FindDueForActivation", ctx, day, lifecycleBatchSize).Return([]contract.Contract{*due, *conflicted}, nil)
	f.contracts.On("FindDueForExpiry", ctx, day, lifecycleBatchSize).Return([]contract.Contract{*ended}, nil)
	f.contracts.On("SaveWithLock", ctx, mock.MatchedBy(func(c *contract.Contract) bool { return c.ID == due.ID }), 3).Return(nil)
	f.contracts.On("SaveWithLock", ctx, mock.MatchedBy(func(c *contract.Contract) bool { return c.ID == conflicted.ID }), 3).
		Return(shared.ErrConcurrencyConflict)
	f.contracts.On("SaveWithLock", ctx, mock.MatchedBy(func(c *contract.Contract) bool { return c.ID == ended.ID }), 4).Return(nil)

	result, err := f.service.RunLifecycle(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Activated)
	assert.Equal(t, 1, result.Expired)
	assert.Zero(t, result.Failed)
	assert.Equal(t, []string{contract.EventTypeContractActivated, contract.EventTypeContractExpired}, f.publisher.EventTypes())
}
