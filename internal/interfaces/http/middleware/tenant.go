package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantIDKey holds the parsed tenant uuid.UUID in gin.Context
const TenantIDKey = "tenant_uuid"

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// DefaultTenantID is used for unauthenticated routes that still touch
	// tenant data. uuid.Nil means those requests are rejected.
	DefaultTenantID uuid.UUID
	SkipPaths       []string
}

// DefaultTenantConfig returns default tenant middleware configuration
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		SkipPaths: []string{"/health", "/ready", "/metrics", "/api/v1/health", "/api/v1/auth/login", "/api/v1/auth/refresh"},
	}
}

// TenantMiddleware resolves the brokerage office of the request. It must run
// after JWTAuthMiddleware; the tenant always comes from the token claims.
func TenantMiddleware(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		raw := GetJWTTenantID(c)
		if raw == "" {
			if cfg.DefaultTenantID == uuid.Nil {
				abortWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "Tenant identification required")
				return
			}
			c.Set(TenantIDKey, cfg.DefaultTenantID)
			c.Next()
			return
		}

		tenantID, err := uuid.Parse(raw)
		if err != nil || tenantID == uuid.Nil {
			abortWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "Invalid tenant ID format")
			return
		}
		c.Set(TenantIDKey, tenantID)
		c.Next()
	}
}

// GetTenantID returns the tenant resolved by TenantMiddleware
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(TenantIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
