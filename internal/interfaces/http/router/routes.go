package router

import (
	"github.com/courtage/backend/internal/interfaces/http/handler"
	"github.com/courtage/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// RoleAdmin is the role required by the account and outbox routes
const RoleAdmin = "admin"

// Handlers bundles the HTTP handlers of the API
type Handlers struct {
	Auth        *handler.AuthHandler
	User        *handler.UserHandler
	Client      *handler.ClientHandler
	Profession  *handler.ProfessionHandler
	Vehicle     *handler.VehicleHandler
	Company     *handler.CompanyHandler
	RateGrid    *handler.RateGridHandler
	Contract    *handler.ContractHandler
	Certificate *handler.CertificateHandler
	Bordereau   *handler.BordereauHandler
	Document    *handler.DocumentHandler
	Outbox      *handler.OutboxHandler
	System      *handler.SystemHandler
}

// Domains returns the route groups of the API. loginLimit runs in front of
// the login route only and may be nil.
func Domains(h Handlers, loginLimit gin.HandlerFunc) []*DomainGroup {
	auth := NewDomainGroup("auth", "/auth")
	if loginLimit != nil {
		auth.POST("/login", loginLimit, h.Auth.Login)
	} else {
		auth.POST("/login", h.Auth.Login)
	}
	auth.POST("/refresh", h.Auth.RefreshToken)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.GetCurrentUser)

	users := NewDomainGroup("users", "/users").Use(middleware.RequireRole(RoleAdmin))
	users.POST("", h.User.Create)
	users.GET("", h.User.List)
	users.GET("/:id", h.User.Get)
	users.POST("/:id/deactivate", h.User.Deactivate)

	clients := NewDomainGroup("clients", "/clients")
	clients.POST("", h.Client.Create)
	clients.GET("", h.Client.List)
	clients.GET("/reference/:reference", h.Client.GetByReference)
	clients.GET("/:id", h.Client.Get)
	clients.PUT("/:id", h.Client.Update)
	clients.DELETE("/:id", h.Client.Delete)
	clients.GET("/:id/vehicles", h.Client.ListVehicles)

	professions := NewDomainGroup("professions", "/professions")
	professions.POST("", h.Profession.Create)
	professions.GET("", h.Profession.List)
	professions.GET("/:id", h.Profession.Get)
	professions.PUT("/:id", h.Profession.Update)
	professions.DELETE("/:id", h.Profession.Delete)

	vehicles := NewDomainGroup("vehicles", "/vehicles")
	vehicles.POST("", h.Vehicle.Create)
	vehicles.GET("", h.Vehicle.List)
	vehicles.GET("/:id", h.Vehicle.Get)
	vehicles.PUT("/:id", h.Vehicle.Update)
	vehicles.DELETE("/:id", h.Vehicle.Delete)

	companies := NewDomainGroup("companies", "/companies")
	companies.POST("", h.Company.Create)
	companies.GET("", h.Company.List)
	companies.GET("/:id", h.Company.Get)
	companies.PUT("/:id", h.Company.Update)
	companies.POST("/:id/activate", h.Company.Activate)
	companies.POST("/:id/deactivate", h.Company.Deactivate)

	grids := NewDomainGroup("rate-grids", "/rate-grids")
	grids.GET("/rows", h.RateGrid.ListRows)
	grids.GET("/rows/lookup", h.RateGrid.FindRow)
	grids.PUT("/rows", h.RateGrid.UpsertRow)
	grids.DELETE("/rows/:id", h.RateGrid.DeleteRow)
	grids.GET("/layout/:class", h.RateGrid.Layout)
	grids.POST("/import", h.RateGrid.Import)

	contracts := NewDomainGroup("contracts", "/contracts")
	contracts.POST("", h.Contract.Create)
	contracts.POST("/quote", h.Contract.Quote)
	contracts.GET("", h.Contract.List)
	contracts.GET("/reference/:reference", h.Contract.GetByReference)
	contracts.GET("/policy/:number", h.Contract.GetByPolicyNumber)
	contracts.GET("/:id", h.Contract.Get)
	contracts.PUT("/:id", h.Contract.Update)
	contracts.POST("/:id/price", h.Contract.Price)
	contracts.POST("/:id/validate", h.Contract.Validate)
	contracts.POST("/:id/activate", h.Contract.Activate)
	contracts.POST("/:id/cancel", h.Contract.Cancel)
	contracts.POST("/:id/renew", h.Contract.Renew)
	contracts.GET("/:id/certificates", h.Certificate.ListByContract)

	certificates := NewDomainGroup("certificates", "/certificates")
	certificates.POST("", h.Certificate.Issue)
	certificates.GET("/:id", h.Certificate.Get)
	certificates.POST("/:id/cancel", h.Certificate.Cancel)

	bordereaux := NewDomainGroup("bordereaux", "/bordereaux")
	bordereaux.POST("", h.Bordereau.Generate)
	bordereaux.GET("", h.Bordereau.List)
	bordereaux.GET("/:id", h.Bordereau.Get)
	bordereaux.POST("/:id/regenerate", h.Bordereau.Regenerate)
	bordereaux.PATCH("/:id/notes", h.Bordereau.UpdateNotes)
	bordereaux.POST("/:id/close", h.Bordereau.Close)
	bordereaux.POST("/:id/export", h.Bordereau.Export)
	bordereaux.DELETE("/:id", h.Bordereau.Delete)

	documents := NewDomainGroup("documents", "/documents")
	documents.POST("/upload", h.Document.InitiateUpload)
	documents.GET("", h.Document.ListByOwner)
	documents.POST("/:id/confirm", h.Document.ConfirmUpload)
	documents.GET("/:id/download", h.Document.DownloadURL)
	documents.DELETE("/:id", h.Document.Delete)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)

	groups := []*DomainGroup{auth, users, clients, professions, vehicles, companies, grids, contracts, certificates, bordereaux, documents, system}

	if h.Outbox != nil {
		outbox := NewDomainGroup("outbox", "/admin/outbox").Use(middleware.RequireRole(RoleAdmin))
		outbox.GET("/stats", h.Outbox.GetStats)
		outbox.GET("/dead", h.Outbox.GetDeadLetterEntries)
		outbox.POST("/dead/retry-all", h.Outbox.RetryAllDeadEntries)
		outbox.GET("/:id", h.Outbox.GetEntry)
		outbox.POST("/:id/retry", h.Outbox.RetryDeadEntry)
		groups = append(groups, outbox)
	}
	return groups
}

// Probes registers the liveness and readiness endpoints on the engine root,
// outside authentication.
func Probes(engine *gin.Engine, system *handler.SystemHandler) {
	engine.GET("/health", system.Live)
	engine.GET("/ready", system.Ready)
}
