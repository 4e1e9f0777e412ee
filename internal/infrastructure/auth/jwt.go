package auth

import (
	"errors"
	"time"

	"github.com/courtage/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType tells access tokens from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidTokenType   = errors.New("invalid token type")
	ErrInvalidClaims      = errors.New("invalid token claims")
	ErrMaxRefreshExceeded = errors.New("maximum refresh count exceeded")
	ErrTokenBlacklisted   = errors.New("token has been revoked")
)

// Claims are carried by both token types. Role is only set on access tokens;
// it is reloaded from the user at each refresh.
type Claims struct {
	jwt.RegisteredClaims
	TenantID     string    `json:"tenant_id"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	Role         string    `json:"role,omitempty"`
	TokenType    TokenType `json:"token_type"`
	RefreshCount int       `json:"refresh_count,omitempty"`
}

// GetTenantUUID parses the tenant claim
func (c *Claims) GetTenantUUID() (uuid.UUID, error) { return uuid.Parse(c.TenantID) }

// GetUserUUID parses the user claim
func (c *Claims) GetUserUUID() (uuid.UUID, error) { return uuid.Parse(c.UserID) }

// HasRole reports whether the token was issued for role
func (c *Claims) HasRole(role string) bool { return c.Role == role }

// GetIssuedAtTime is the zero time when iat is missing
func (c *Claims) GetIssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// GetRemainingTTL is how long the token stays valid, never negative
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}

// TokenPair is what login and refresh hand back to the client
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// GenerateTokenInput identifies the user a pair is issued to
type GenerateTokenInput struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Username string
	Role     string
}

// JWTService signs and verifies HS256 tokens. Refresh tokens use their own
// secret when one is configured.
type JWTService struct {
	secrets    map[TokenType][]byte
	lifetimes  map[TokenType]time.Duration
	issuer     string
	maxRefresh int
	now        func() time.Time
}

// NewJWTService creates a JWTService from the jwt config section
func NewJWTService(cfg config.JWTConfig) *JWTService {
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Secret
	}
	return &JWTService{
		secrets: map[TokenType][]byte{
			TokenTypeAccess:  []byte(cfg.Secret),
			TokenTypeRefresh: []byte(refreshSecret),
		},
		lifetimes: map[TokenType]time.Duration{
			TokenTypeAccess:  cfg.AccessTokenExpiration,
			TokenTypeRefresh: cfg.RefreshTokenExpiration,
		},
		issuer:     cfg.Issuer,
		maxRefresh: cfg.MaxRefreshCount,
		now:        time.Now,
	}
}

// GenerateTokenPair issues a fresh pair at login
func (s *JWTService) GenerateTokenPair(input GenerateTokenInput) (*TokenPair, error) {
	return s.issue(input, 0)
}

// RefreshTokenPair exchanges a refresh token for a new pair carrying role,
// which the caller reloads so role changes apply at the next refresh
func (s *JWTService) RefreshTokenPair(refreshToken, role string) (*TokenPair, error) {
	claims, err := s.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.RefreshCount >= s.maxRefresh {
		return nil, ErrMaxRefreshExceeded
	}
	tenantID, tenantErr := claims.GetTenantUUID()
	userID, userErr := claims.GetUserUUID()
	if tenantErr != nil || userErr != nil {
		return nil, ErrInvalidClaims
	}
	return s.issue(GenerateTokenInput{
		TenantID: tenantID,
		UserID:   userID,
		Username: claims.Username,
		Role:     role,
	}, claims.RefreshCount+1)
}

// ValidateAccessToken verifies an access token
func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	return s.validate(token, TokenTypeAccess)
}

// ValidateRefreshToken verifies a refresh token
func (s *JWTService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.validate(token, TokenTypeRefresh)
}

func (s *JWTService) issue(input GenerateTokenInput, refreshCount int) (*TokenPair, error) {
	now := s.now()
	access := s.claims(input, TokenTypeAccess, now)
	access.Role = input.Role
	refresh := s.claims(input, TokenTypeRefresh, now)
	refresh.RefreshCount = refreshCount

	pair := &TokenPair{TokenType: "Bearer"}
	var err error
	if pair.AccessToken, err = s.sign(access); err != nil {
		return nil, err
	}
	if pair.RefreshToken, err = s.sign(refresh); err != nil {
		return nil, err
	}
	pair.AccessTokenExpiresAt = access.ExpiresAt.Time
	pair.RefreshTokenExpiresAt = refresh.ExpiresAt.Time
	return pair, nil
}

func (s *JWTService) claims(input GenerateTokenInput, typ TokenType, now time.Time) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetimes[typ])),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID:  input.TenantID.String(),
		UserID:    input.UserID.String(),
		Username:  input.Username,
		TokenType: typ,
	}
}

func (s *JWTService) sign(c *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secrets[c.TokenType])
}

func (s *JWTService) validate(raw string, want TokenType) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return s.secrets[want], nil }, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	case claims.TokenType != want:
		return nil, ErrInvalidTokenType
	case claims.TenantID == "" || claims.UserID == "":
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
