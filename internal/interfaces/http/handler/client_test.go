package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	clientapp "github.com/courtage/backend/internal/application/client"
	rategridapp "github.com/courtage/backend/internal/application/rategrid"
	vehicleapp "github.com/courtage/backend/internal/application/vehicle"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientHandler_CRUD(t *testing.T) {
	e := newAPIEnv(t, apiEnvOptions{})

	w := e.do(http.MethodPost, "/api/v1/professions", map[string]any{
		"code":     "enseignant",
		"name":     "Enseignant",
		"discount": map[string]any{"kind": "percent", "value": "10"},
	})
	requireStatus(t, w, http.StatusCreated)
	profession := decode[clientapp.ProfessionResponse](t, w).Data
	assert.Equal(t, "ENSEIGNANT", profession.Code)

	w = e.do(http.MethodPost, "/api/v1/clients", map[string]any{
		"kind":          "individual",
		"first_name":    "Moussa",
		"last_name":     "Ndiaye",
		"email":         "moussa@example.com",
		"profession_id": profession.ID,
	})
	requireStatus(t, w, http.StatusCreated)
	created := decode[clientapp.ClientResponse](t, w).Data
	assert.NotEmpty(t, created.Reference)
	require.NotNil(t, created.ProfessionID)
	assert.Equal(t, profession.ID, *created.ProfessionID)

	w = e.do(http.MethodGet, "/api/v1/clients/reference/"+created.Reference, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, created.ID, decode[clientapp.ClientResponse](t, w).Data.ID)

	w = e.do(http.MethodPut, "/api/v1/clients/"+created.ID.String(), map[string]any{"city": "Dakar"})
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "Dakar", decode[clientapp.ClientResponse](t, w).Data.City)

	w = e.do(http.MethodGet, "/api/v1/clients?page=1&page_size=20", nil)
	requireStatus(t, w, http.StatusOK)
	list := decode[[]clientapp.ClientResponse](t, w)
	require.Len(t, list.Data, 1)
	assert.Equal(t, int64(1), list.Meta.Total)

	w = e.do(http.MethodPost, "/api/v1/vehicles", map[string]any{
		"client_id":           created.ID,
		"registration_number": "TH-0001-A",
		"brand":               "Yamaha",
		"energy":              "gasoline",
		"class":               "TWO_WHEELER",
		"specs":               map[string]any{"engine_capacity": 125},
	})
	requireStatus(t, w, http.StatusCreated)
	vehicle := decode[vehicleapp.VehicleResponse](t, w).Data

	w = e.do(http.MethodGet, "/api/v1/clients/"+created.ID.String()+"/vehicles", nil)
	requireStatus(t, w, http.StatusOK)
	vehicles := decode[[]vehicleapp.VehicleResponse](t, w).Data
	require.Len(t, vehicles, 1)
	assert.Equal(t, vehicle.ID, vehicles[0].ID)

	w = e.do(http.MethodDelete, "/api/v1/clients/"+created.ID.String(), nil)
	requireStatus(t, w, http.StatusUnprocessableEntity)
	assert.Equal(t, "CLIENT_HAS_VEHICLES", decode[any](t, w).Error.Code)

	w = e.do(http.MethodDelete, "/api/v1/vehicles/"+vehicle.ID.String(), nil)
	requireStatus(t, w, http.StatusNoContent)

	w = e.do(http.MethodDelete, "/api/v1/clients/"+created.ID.String(), nil)
	requireStatus(t, w, http.StatusNoContent)

	w = e.do(http.MethodGet, "/api/v1/clients/"+created.ID.String(), nil)
	requireStatus(t, w, http.StatusNotFound)
}

func TestClientHandler_Validation(t *testing.T) {
	e := newAPIEnv(t, apiEnvOptions{})

	tests := []struct {
		name      string
		body      map[string]any
		wantField string
	}{
		{name: "missing kind", body: map[string]any{"first_name": "A", "last_name": "B"}, wantField: "kind"},
		{name: "unknown kind", body: map[string]any{"kind": "robot"}, wantField: "kind"},
		{name: "bad email", body: map[string]any{"kind": "individual", "first_name": "A", "last_name": "B", "email": "nope"}, wantField: "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/api/v1/clients", tt.body)
			requireStatus(t, w, http.StatusBadRequest)
			resp := decode[any](t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "ERR_VALIDATION", resp.Error.Code)
			require.NotEmpty(t, resp.Error.Details)
			assert.Equal(t, tt.wantField, resp.Error.Details[0].Field)
		})
	}

	t.Run("company client without a name", func(t *testing.T) {
		w := e.do(http.MethodPost, "/api/v1/clients", map[string]any{"kind": "company"})
		requireStatus(t, w, http.StatusBadRequest)
	})
}

func TestClientHandler_TenantIsolation(t *testing.T) {
	e := newAPIEnv(t, apiEnvOptions{})

	w := e.do(http.MethodPost, "/api/v1/clients", map[string]any{
		"kind":         "company",
		"company_name": "Transports Sall",
	})
	requireStatus(t, w, http.StatusCreated)
	created := decode[clientapp.ClientResponse](t, w).Data

	e.tenantID = uuid.New()
	w = e.do(http.MethodGet, "/api/v1/clients/"+created.ID.String(), nil)
	requireStatus(t, w, http.StatusNotFound)
}

func TestRateGridHandler_Import(t *testing.T) {
	e := newAPIEnv(t, apiEnvOptions{})

	upload := func(contentType, body string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="grid.csv"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(body))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/rate-grids/import", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		e.engine.ServeHTTP(w, req)
		return w
	}

	const header = "class,duration_months,bucket,civil_liability,defence_recourse,passenger,driver_individual,recourse_advance,fire,theft,glass_breakage\n"

	t.Run("valid file", func(t *testing.T) {
		w := upload("text/csv", header+
			"VP,6,CV_7_10,25000,1000,0,0,0,500,0,0\n"+
			"VP,12,CV_7_10,40000,1000,,,,500,,\n")
		requireStatus(t, w, http.StatusOK)
		result := decode[rategridapp.ImportResult](t, w).Data
		assert.Equal(t, 2, result.TotalRows)
		assert.Equal(t, 2, result.Created)

		w = e.do(http.MethodGet, "/api/v1/rate-grids/rows/lookup?class=VP&duration_months=12&bucket=CV_7_10", nil)
		requireStatus(t, w, http.StatusOK)
		row := decode[rategridapp.RateRowResponse](t, w).Data
		assert.Equal(t, "40000", row.Components.CivilLiability.String())
	})

	t.Run("invalid rows are rejected as a whole", func(t *testing.T) {
		w := upload("text/csv", header+
			"VP,6,CV_7_10,1,0,0,0,0,0,0,0\n"+
			"VP,5,CV_7_10,1,0,0,0,0,0,0,0\n")
		requireStatus(t, w, http.StatusUnprocessableEntity)
		resp := decode[rategridapp.ImportResult](t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, "IMPORT_INVALID_ROWS", resp.Error.Code)
		assert.Positive(t, resp.Data.TotalErrors)

		w = e.do(http.MethodGet, "/api/v1/rate-grids/rows/lookup?class=VP&duration_months=6&bucket=CV_7_10", nil)
		requireStatus(t, w, http.StatusOK)
		assert.Equal(t, "25000", decode[rategridapp.RateRowResponse](t, w).Data.Components.CivilLiability.String())
	})

	t.Run("wrong content type", func(t *testing.T) {
		w := upload("image/png", header)
		requireStatus(t, w, http.StatusUnsupportedMediaType)
	})

	t.Run("missing file", func(t *testing.T) {
		w := e.do(http.MethodPost, "/api/v1/rate-grids/import", nil)
		requireStatus(t, w, http.StatusBadRequest)
	})
}
