package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	clientapp "github.com/courtage/backend/internal/application/client"
	companyapp "github.com/courtage/backend/internal/application/company"
	contractapp "github.com/courtage/backend/internal/application/contract"
	vehicleapp "github.com/courtage/backend/internal/application/vehicle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parties are the records a contract refers to
type parties struct {
	clientID  uuid.UUID
	vehicleID uuid.UUID
	companyID uuid.UUID
}

// seedParties creates a company, a VP grid cell, a client and a 7 CV car
// through the API.
func seedParties(t *testing.T, e *apiEnv) parties {
	t.Helper()

	w := e.do(http.MethodPost, "/api/v1/companies", map[string]any{
		"code":               "AXA",
		"name":               "AXA Assurances",
		"default_commission": "3000",
	})
	requireStatus(t, w, http.StatusCreated)
	company := decode[companyapp.CompanyResponse](t, w).Data

	w = e.do(http.MethodPut, "/api/v1/rate-grids/rows", map[string]any{
		"class":           "VP",
		"duration_months": 6,
		"bucket":          "CV_7_10",
		"components": map[string]any{
			"civil_liability":  "20000",
			"defence_recourse": "5000",
		},
	})
	requireStatus(t, w, http.StatusOK)

	w = e.do(http.MethodPost, "/api/v1/clients", map[string]any{
		"kind":       "individual",
		"first_name": "Awa",
		"last_name":  "Diop",
	})
	requireStatus(t, w, http.StatusCreated)
	client := decode[clientapp.ClientResponse](t, w).Data

	w = e.do(http.MethodPost, "/api/v1/vehicles", map[string]any{
		"client_id":           client.ID,
		"registration_number": "DK-1234-AB",
		"brand":               "Toyota",
		"model":               "Corolla",
		"energy":              "gasoline",
		"class":               "VP",
		"specs":               map[string]any{"fiscal_power": 7, "seats": 5},
	})
	requireStatus(t, w, http.StatusCreated)
	vehicle := decode[vehicleapp.VehicleResponse](t, w).Data

	return parties{clientID: client.ID, vehicleID: vehicle.ID, companyID: company.ID}
}

func createContract(t *testing.T, e *apiEnv, p parties, start time.Time) contractapp.ContractResponse {
	t.Helper()
	w := e.do(http.MethodPost, "/api/v1/contracts", map[string]any{
		"client_id":       p.clientID,
		"vehicle_id":      p.vehicleID,
		"company_id":      p.companyID,
		"duration_months": 6,
		"start_date":      start.Format(time.RFC3339),
	})
	requireStatus(t, w, http.StatusCreated)
	return decode[contractapp.ContractResponse](t, w).Data
}

func TestContractHandler_Quote(t *testing.T) {
	e := newAPIEnv(t, apiEnvOptions{})
	p := seedParties(t, e)

	w := e.do(http.MethodPost, "/api/v1/contracts/quote", map[string]any{
		"vehicle_id":      p.vehicleID,
		"duration_months": 6,
		"company_id":      p.companyID,
	})
	requireStatus(t, w, http.StatusOK)

	quote := decode[contractapp.QuoteResponse](t, w).Data
	assert.True(t, quote.Found)
	assert.Equal(t, "VP", quote.Class)
	assert.Equal(t, 6, quote.DurationBucket)
	assert.Equal(t, "CV_7_10", quote.Bucket)
	assert.True(t, quote.Inputs.Commission.Equal(decimal.NewFromInt(3000)))
	require.NotNil(t, quote.Breakdown)

	t.Run("no grid cell", func(t *testing.T) {
		w := e.do(http.MethodPost, "/api/v1/contracts/quote", map[string]any{
			"vehicle_id":      p.vehicleID,
			"duration_months": 12,
		})
		requireStatus(t, w, http.StatusOK)
		quote := decode[contractapp.QuoteResponse](t, w).Data
		assert.False(t, quote.Found)
		assert.Nil(t, quote.Breakdown)
	})

	t.Run("unknown vehicle", func(t *testing.T) {
		w := e.do(http.MethodPost, "/api/v1/contracts/quote", map[string]any{
			"vehicle_id":      uuid.New(),
			"duration_months": 6,
		})
		requireStatus(t, w, http.StatusNotFound)
	})
}

func TestContractHandler_Lifecycle(t *testing.T) {
	e := newAPIEnv(t, apiEnvOptions{})
	p := seedParties(t, e)
	start := time.Now().UTC().Truncate(24 * time.Hour)

	ct := createContract(t, e, p, start)
	assert.Equal(t, "draft", ct.Status)
	assert.Equal(t, "priced", ct.PricingStatus)
	assert.NotEmpty(t, ct.Reference)
	assert.Empty(t, ct.PolicyNumber)
	assert.True(t, ct.Amounts.Commission.Equal(decimal.NewFromInt(3000)))

	base := "/api/v1/contracts/" + ct.ID.String()

	w := e.do(http.MethodPost, base+"/price", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, ct.Version, decode[contractapp.ContractResponse](t, w).Data.Version, "pricing twice changes nothing")

	w = e.do(http.MethodPost, base+"/validate", nil)
	requireStatus(t, w, http.StatusOK)
	validated := decode[contractapp.ContractResponse](t, w).Data
	assert.Equal(t, "validated", validated.Status)
	require.NotEmpty(t, validated.PolicyNumber)

	w = e.do(http.MethodPut, base, map[string]any{"duration_months": 12})
	requireStatus(t, w, http.StatusUnprocessableEntity)

	w = e.do(http.MethodPost, base+"/activate", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "active", decode[contractapp.ContractResponse](t, w).Data.Status)

	w = e.do(http.MethodGet, "/api/v1/contracts/reference/"+ct.Reference, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, ct.ID, decode[contractapp.ContractResponse](t, w).Data.ID)

	w = e.do(http.MethodPost, base+"/renew", nil)
	requireStatus(t, w, http.StatusOK)
	renewal := decode[contractapp.ContractResponse](t, w).Data
	assert.Equal(t, "draft", renewal.Status)
	require.NotNil(t, renewal.ParentID)
	assert.Equal(t, ct.ID, *renewal.ParentID)
	assert.Equal(t, validated.PolicyNumber, renewal.PolicyNumber)
	assert.True(t, renewal.StartDate.After(validated.StartDate))

	w = e.do(http.MethodPost, base+"/renew", map[string]any{})
	requireStatus(t, w, http.StatusConflict)
	assert.Equal(t, "CONTRACT_ALREADY_RENEWED", decode[any](t, w).Error.Code)

	w = e.do(http.MethodGet, "/api/v1/contracts/policy/"+validated.PolicyNumber, nil)
	requireStatus(t, w, http.StatusOK)
	chain := decode[[]contractapp.ContractResponse](t, w).Data
	require.Len(t, chain, 2)

	w = e.do(http.MethodPost, base+"/cancel", map[string]any{})
	requireStatus(t, w, http.StatusBadRequest)

	w = e.do(http.MethodPost, base+"/cancel", map[string]any{"reason": "vehicle sold"})
	requireStatus(t, w, http.StatusOK)
	cancelled := decode[contractapp.ContractResponse](t, w).Data
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "vehicle sold", cancelled.CancellationReason)

	w = e.do(http.MethodGet, "/api/v1/contracts?status=draft&page=1&page_size=10", nil)
	requireStatus(t, w, http.StatusOK)
	list := decode[[]contractapp.ContractResponse](t, w)
	require.Len(t, list.Data, 1)
	assert.Equal(t, renewal.ID, list.Data[0].ID)
	require.NotNil(t, list.Meta)
	assert.Equal(t, int64(1), list.Meta.Total)
}

func TestContractHandler_CreateRejections(t *testing.T) {
	e := newAPIEnv(t, apiEnvOptions{})
	p := seedParties(t, e)
	start := time.Now().UTC().Format(time.RFC3339)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing vehicle",
			body:       map[string]any{"client_id": p.clientID, "company_id": p.companyID, "duration_months": 6, "start_date": start},
			wantStatus: http.StatusBadRequest,
			wantCode:   "ERR_VALIDATION",
		},
		{
			name:       "duration above a year",
			body:       map[string]any{"client_id": p.clientID, "vehicle_id": p.vehicleID, "company_id": p.companyID, "duration_months": 13, "start_date": start},
			wantStatus: http.StatusBadRequest,
			wantCode:   "ERR_VALIDATION",
		},
		{
			name:       "vehicle of another client",
			body:       map[string]any{"client_id": uuid.New(), "vehicle_id": p.vehicleID, "company_id": p.companyID, "duration_months": 6, "start_date": start},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown company",
			body:       map[string]any{"client_id": p.clientID, "vehicle_id": p.vehicleID, "company_id": uuid.New(), "duration_months": 6, "start_date": start},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/api/v1/contracts", tt.body)
			requireStatus(t, w, tt.wantStatus)
			resp := decode[any](t, w)
			assert.False(t, resp.Success)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, resp.Error.Code)
			}
		})
	}

	t.Run("inactive company", func(t *testing.T) {
		w := e.do(http.MethodPost, fmt.Sprintf("/api/v1/companies/%s/deactivate", p.companyID), nil)
		requireStatus(t, w, http.StatusOK)

		w = e.do(http.MethodPost, "/api/v1/contracts", map[string]any{
			"client_id": p.clientID, "vehicle_id": p.vehicleID, "company_id": p.companyID,
			"duration_months": 6, "start_date": start,
		})
		requireStatus(t, w, http.StatusUnprocessableEntity)
		assert.Equal(t, "COMPANY_INACTIVE", decode[any](t, w).Error.Code)
	})
}

func TestContractHandler_InvalidID(t *testing.T) {
	e := newAPIEnv(t, apiEnvOptions{})

	w := e.do(http.MethodGet, "/api/v1/contracts/not-a-uuid", nil)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "ERR_INVALID_INPUT", decode[any](t, w).Error.Code)

	w = e.do(http.MethodPost, "/api/v1/contracts/"+uuid.New().String()+"/validate", nil)
	requireStatus(t, w, http.StatusNotFound)
}
