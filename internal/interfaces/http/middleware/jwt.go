package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/courtage/backend/internal/infrastructure/auth"
	"github.com/courtage/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Keys under which the authenticated identity is stored on the gin context
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	JWTTenantIDKey = "jwt_tenant_id"
	JWTUsernameKey = "jwt_username"
	JWTRoleKey     = "jwt_role"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

// JWTMiddlewareConfig configures bearer authentication
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist is optional
	TokenBlacklist   auth.TokenBlacklist
	SkipPaths        []string
	SkipPathPrefixes []string
	// OnError replaces the 401 envelope
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// DefaultJWTConfig leaves the probes, the metrics scrape and the login
// endpoints open
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/ready",
			"/metrics",
			"/api/v1/health",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
		},
	}
}

// JWTAuthMiddleware authenticates with the default open paths
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// tokenGuard holds one middleware instance's settings
type tokenGuard struct {
	cfg JWTMiddlewareConfig
	log *zap.Logger
}

// authFailure is a rejected request: the cause and what the log line says
type authFailure struct {
	cause  error
	reason string
}

// JWTAuthMiddlewareWithConfig requires a valid access token on every path
// not listed in cfg. Revocation lookups that fail let the request through;
// the signature already proved the token.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	g := &tokenGuard{cfg: cfg, log: cfg.Logger}
	if g.log == nil {
		g.log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if g.open(c.Request.URL.Path) {
			c.Next()
			return
		}
		claims, failure := g.authenticate(c)
		if failure != nil {
			g.reject(c, failure)
			return
		}
		bindIdentity(c, claims)
		c.Next()
	}
}

func (g *tokenGuard) open(path string) bool {
	if slices.Contains(g.cfg.SkipPaths, path) {
		return true
	}
	return slices.ContainsFunc(g.cfg.SkipPathPrefixes, func(prefix string) bool {
		return strings.HasPrefix(path, prefix)
	})
}

func (g *tokenGuard) authenticate(c *gin.Context) (*auth.Claims, *authFailure) {
	raw, found := strings.CutPrefix(c.GetHeader(AuthHeaderKey), BearerPrefix)
	if !found || raw == "" {
		return nil, &authFailure{auth.ErrInvalidToken, "missing bearer token"}
	}
	claims, err := g.cfg.JWTService.ValidateAccessToken(raw)
	if err != nil {
		return nil, &authFailure{err, "token rejected"}
	}
	if g.cfg.TokenBlacklist != nil && g.revoked(c.Request.Context(), claims) {
		return nil, &authFailure{auth.ErrTokenBlacklisted, "token revoked"}
	}
	return claims, nil
}

// revoked checks the token itself, then every token of its user
func (g *tokenGuard) revoked(ctx context.Context, claims *auth.Claims) bool {
	if claims.ID != "" {
		hit, err := g.cfg.TokenBlacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			g.log.Error("Revocation lookup failed", zap.String("jti", claims.ID), zap.Error(err))
		} else if hit {
			return true
		}
	}
	hit, err := g.cfg.TokenBlacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		g.log.Error("User revocation lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return false
	}
	return hit
}

func (g *tokenGuard) reject(c *gin.Context, f *authFailure) {
	if g.cfg.OnError != nil {
		g.cfg.OnError(c, f.cause)
		return
	}
	g.log.Warn("Authentication refused",
		zap.String("reason", f.reason),
		zap.String("path", c.Request.URL.Path),
		zap.Error(f.cause),
	)
	code, message := authErrorCode(f.cause)
	abortWithError(c, http.StatusUnauthorized, code, message)
}

func authErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "ERR_TOKEN_EXPIRED", "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		return "TOKEN_REVOKED", "Token has been revoked"
	case errors.Is(err, auth.ErrInvalidTokenType):
		return "ERR_TOKEN_INVALID", "An access token is required"
	case errors.Is(err, auth.ErrInvalidToken):
		return "ERR_TOKEN_INVALID", "Invalid token"
	}
	return "ERR_UNAUTHORIZED", "Authentication required"
}

// bindIdentity exposes the claims to handlers, the access log and the
// request-scoped logger
func bindIdentity(c *gin.Context, claims *auth.Claims) {
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTUserIDKey, claims.UserID)
	c.Set(JWTTenantIDKey, claims.TenantID)
	c.Set(JWTUsernameKey, claims.Username)
	c.Set(JWTRoleKey, claims.Role)
	c.Set(logger.TenantIDKey, claims.TenantID)
	c.Set(logger.UserIDKey, claims.UserID)

	ctx := c.Request.Context()
	scoped := logger.FromContext(ctx).With(
		zap.String("tenant_id", claims.TenantID),
		zap.String("user_id", claims.UserID),
	)
	c.Request = c.Request.WithContext(logger.WithContext(ctx, scoped))
}

// RequireRole admits tokens carrying one of roles. Mount it behind the
// authentication middleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		switch {
		case claims == nil:
			abortWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "Authentication required")
		case !slices.ContainsFunc(roles, claims.HasRole):
			abortWithError(c, http.StatusForbidden, "ERR_FORBIDDEN", "Insufficient role for this operation")
		default:
			c.Next()
		}
	}
}

// GetJWTClaims is nil on unauthenticated requests
func GetJWTClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(JWTClaimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}

func GetJWTUserID(c *gin.Context) string   { return c.GetString(JWTUserIDKey) }
func GetJWTTenantID(c *gin.Context) string { return c.GetString(JWTTenantIDKey) }
func GetJWTRole(c *gin.Context) string     { return c.GetString(JWTRoleKey) }
