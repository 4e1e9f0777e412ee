package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	bordereauapp "github.com/courtage/backend/internal/application/bordereau"
	certificateapp "github.com/courtage/backend/internal/application/certificate"
	clientapp "github.com/courtage/backend/internal/application/client"
	companyapp "github.com/courtage/backend/internal/application/company"
	contractapp "github.com/courtage/backend/internal/application/contract"
	documentapp "github.com/courtage/backend/internal/application/document"
	rategridapp "github.com/courtage/backend/internal/application/rategrid"
	vehicleapp "github.com/courtage/backend/internal/application/vehicle"
	"github.com/courtage/backend/internal/domain/certificate"
	"github.com/courtage/backend/internal/domain/document"
	"github.com/courtage/backend/internal/infrastructure/persistence"
	"github.com/courtage/backend/internal/interfaces/http/dto"
	"github.com/courtage/backend/internal/interfaces/http/middleware"
	"github.com/courtage/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// envelope mirrors dto.Response with a typed payload
type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

// apiEnv is a router over real services backed by an in-memory database.
// Every request is authenticated as userID on tenantID.
type apiEnv struct {
	t        *testing.T
	db       *gorm.DB
	tenantID uuid.UUID
	userID   uuid.UUID
	engine   *gin.Engine
}

// optional collaborators for services that talk to the outside world
type apiEnvOptions struct {
	storage   document.ObjectStorage
	provider  certificate.Provider
	renderers map[bordereauapp.Format]bordereauapp.Renderer
}

func newAPIEnv(t *testing.T, opts apiEnvOptions) *apiEnv {
	t.Helper()
	middleware.SetupValidator()

	e := &apiEnv{
		t:        t,
		db:       testutil.NewSQLiteDB(t),
		tenantID: uuid.New(),
		userID:   uuid.New(),
		engine:   gin.New(),
	}

	clients := persistence.NewGormClientRepository(e.db)
	professions := persistence.NewGormProfessionRepository(e.db)
	vehicles := persistence.NewGormVehicleRepository(e.db)
	companies := persistence.NewGormCompanyRepository(e.db)
	rates := persistence.NewGormRateRowRepository(e.db)
	contracts := persistence.NewGormContractRepository(e.db)
	bordereaux := persistence.NewGormBordereauRepository(e.db)
	certificates := persistence.NewGormCertificateRepository(e.db)
	documents := persistence.NewGormDocumentRepository(e.db)
	logger := zap.NewNop()

	clientService := clientapp.NewClientService(clients, professions, vehicles, contracts)
	professionService := clientapp.NewProfessionService(professions)
	vehicleService := vehicleapp.NewVehicleService(vehicles, clients, contracts)
	companyService := companyapp.NewCompanyService(companies)
	rateGridService := rategridapp.NewRateGridService(rates, logger)
	contractService := contractapp.NewContractService(contractapp.ContractServiceDeps{
		Contracts:   contracts,
		Clients:     clients,
		Professions: professions,
		Vehicles:    vehicles,
		Companies:   companies,
		Rates:       rates,
	}, logger)
	bordereauService := bordereauapp.NewBordereauService(bordereauapp.BordereauServiceDeps{
		Bordereaux: bordereaux,
		Contracts:  contracts,
		Clients:    clients,
		Vehicles:   vehicles,
		Companies:  companies,
		Storage:    opts.storage,
	}, logger)
	for format, r := range opts.renderers {
		bordereauService.SetRenderer(format, r)
	}
	certificateService := certificateapp.NewCertificateService(certificateapp.CertificateServiceDeps{
		Certificates: certificates,
		Contracts:    contracts,
		Clients:      clients,
		Vehicles:     vehicles,
		Companies:    companies,
		Provider:     opts.provider,
	}, logger)
	documentService := documentapp.NewDocumentService(documentapp.DocumentServiceDeps{
		Documents: documents,
		Clients:   clients,
		Vehicles:  vehicles,
		Contracts: contracts,
		Storage:   opts.storage,
	}, logger)

	e.engine.Use(func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, e.userID.String())
		c.Set(middleware.JWTTenantIDKey, e.tenantID.String())
		c.Set(middleware.TenantIDKey, e.tenantID)
		c.Next()
	})

	api := e.engine.Group("/api/v1")

	clientHandler := NewClientHandler(clientService, vehicleService)
	api.POST("/clients", clientHandler.Create)
	api.GET("/clients", clientHandler.List)
	api.GET("/clients/reference/:reference", clientHandler.GetByReference)
	api.GET("/clients/:id", clientHandler.Get)
	api.PUT("/clients/:id", clientHandler.Update)
	api.DELETE("/clients/:id", clientHandler.Delete)
	api.GET("/clients/:id/vehicles", clientHandler.ListVehicles)

	professionHandler := NewProfessionHandler(professionService)
	api.POST("/professions", professionHandler.Create)
	api.GET("/professions", professionHandler.List)
	api.GET("/professions/:id", professionHandler.Get)
	api.PUT("/professions/:id", professionHandler.Update)
	api.DELETE("/professions/:id", professionHandler.Delete)

	vehicleHandler := NewVehicleHandler(vehicleService)
	api.POST("/vehicles", vehicleHandler.Create)
	api.GET("/vehicles", vehicleHandler.List)
	api.GET("/vehicles/:id", vehicleHandler.Get)
	api.PUT("/vehicles/:id", vehicleHandler.Update)
	api.DELETE("/vehicles/:id", vehicleHandler.Delete)

	companyHandler := NewCompanyHandler(companyService)
	api.POST("/companies", companyHandler.Create)
	api.GET("/companies", companyHandler.List)
	api.GET("/companies/:id", companyHandler.Get)
	api.PUT("/companies/:id", companyHandler.Update)
	api.POST("/companies/:id/activate", companyHandler.Activate)
	api.POST("/companies/:id/deactivate", companyHandler.Deactivate)

	gridHandler := NewRateGridHandler(rateGridService)
	api.GET("/rate-grids/rows", gridHandler.ListRows)
	api.GET("/rate-grids/rows/lookup", gridHandler.FindRow)
	api.GET("/rate-grids/layout/:class", gridHandler.Layout)
	api.PUT("/rate-grids/rows", gridHandler.UpsertRow)
	api.DELETE("/rate-grids/rows/:id", gridHandler.DeleteRow)
	api.POST("/rate-grids/import", gridHandler.Import)

	contractHandler := NewContractHandler(contractService)
	certificateHandler := NewCertificateHandler(certificateService)
	api.POST("/contracts", contractHandler.Create)
	api.POST("/contracts/quote", contractHandler.Quote)
	api.GET("/contracts", contractHandler.List)
	api.GET("/contracts/reference/:reference", contractHandler.GetByReference)
	api.GET("/contracts/policy/:number", contractHandler.GetByPolicyNumber)
	api.GET("/contracts/:id", contractHandler.Get)
	api.PUT("/contracts/:id", contractHandler.Update)
	api.POST("/contracts/:id/price", contractHandler.Price)
	api.POST("/contracts/:id/validate", contractHandler.Validate)
	api.POST("/contracts/:id/activate", contractHandler.Activate)
	api.POST("/contracts/:id/cancel", contractHandler.Cancel)
	api.POST("/contracts/:id/renew", contractHandler.Renew)
	api.GET("/contracts/:id/certificates", certificateHandler.ListByContract)

	api.POST("/certificates", certificateHandler.Issue)
	api.GET("/certificates/:id", certificateHandler.Get)
	api.POST("/certificates/:id/cancel", certificateHandler.Cancel)

	bordereauHandler := NewBordereauHandler(bordereauService)
	api.POST("/bordereaux", bordereauHandler.Generate)
	api.GET("/bordereaux", bordereauHandler.List)
	api.GET("/bordereaux/:id", bordereauHandler.Get)
	api.POST("/bordereaux/:id/regenerate", bordereauHandler.Regenerate)
	api.PATCH("/bordereaux/:id/notes", bordereauHandler.UpdateNotes)
	api.POST("/bordereaux/:id/close", bordereauHandler.Close)
	api.DELETE("/bordereaux/:id", bordereauHandler.Delete)
	api.POST("/bordereaux/:id/export", bordereauHandler.Export)

	documentHandler := NewDocumentHandler(documentService)
	api.POST("/documents/upload", documentHandler.InitiateUpload)
	api.GET("/documents", documentHandler.ListByOwner)
	api.POST("/documents/:id/confirm", documentHandler.ConfirmUpload)
	api.GET("/documents/:id/download", documentHandler.DownloadURL)
	api.DELETE("/documents/:id", documentHandler.Delete)

	return e
}

// do sends body as JSON, or no body when it is nil
func (e *apiEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

// decode parses a response envelope, failing the test on malformed JSON
func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var resp envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp
}

// requireStatus fails with the response body when the status differs
func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, "body: %s", w.Body.String())
}
