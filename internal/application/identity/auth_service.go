package identity

import (
	"context"
	"errors"
	"time"

	"github.com/courtage/backend/internal/domain/identity"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	errInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	errAccountDeactivated = shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	errAccountLocked      = shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later or contact an administrator")
	errAccountInactive    = shared.NewDomainError("ACCOUNT_INACTIVE", "Account is no longer active")
	errTokenRevoked       = shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	errUserNotFound       = shared.NewDomainError("USER_NOT_FOUND", "User not found")
)

// LockoutPolicy locks an account after MaxAttempts consecutive wrong
// passwords. A non-positive MaxAttempts never locks.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{MaxAttempts: 5, Duration: 15 * time.Minute}
}

// AuthService signs users in and out and rotates their tokens
type AuthService struct {
	users     identity.UserRepository
	tokens    *auth.JWTService
	blacklist auth.TokenBlacklist
	lockout   LockoutPolicy
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService creates an AuthService. Without a blacklist, logout only
// clears client state and revoked users keep refreshing until their tokens
// expire.
func NewAuthService(users identity.UserRepository, tokens *auth.JWTService, blacklist auth.TokenBlacklist, lockout LockoutPolicy, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		blacklist: blacklist,
		lockout:   lockout,
		logger:    logger,
		now:       time.Now,
	}
}

// Login checks the credentials and issues a token pair. Unknown users and
// wrong passwords get the same error.
func (s *AuthService) Login(ctx context.Context, cred Credentials) (*Session, error) {
	log := s.logger.With(zap.String("username", cred.Username))

	user, err := s.users.FindByUsername(ctx, cred.Username)
	if err != nil {
		log.Warn("Login for unknown user")
		return nil, errInvalidCredentials
	}

	now := s.now()
	switch {
	case user.Status == identity.UserStatusDeactivated:
		log.Warn("Login refused, account deactivated")
		return nil, errAccountDeactivated
	case !user.CanLogin(now):
		log.Warn("Login refused, account locked")
		return nil, errAccountLocked
	case !user.VerifyPassword(cred.Password):
		return nil, s.loginFailed(ctx, log, user, now)
	}

	pair, err := s.tokens.GenerateTokenPair(auth.GenerateTokenInput{
		TenantID: user.TenantID,
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	})
	if err != nil {
		log.Error("Failed to sign tokens", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	user.RecordLoginSuccess(cred.IP, now)
	if err := s.users.Save(ctx, user); err != nil {
		log.Error("Failed to record login", zap.Error(err))
	}
	log.Info("User logged in", zap.String("user_id", user.ID.String()))
	return &Session{Token: pair, User: toUserInfo(user)}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, log *zap.Logger, user *identity.User, now time.Time) error {
	locked := user.RecordLoginFailure(s.lockout.MaxAttempts, s.lockout.Duration, now)
	if err := s.users.Save(ctx, user); err != nil {
		log.Error("Failed to record login failure", zap.Error(err))
	}
	if locked {
		log.Warn("Account locked", zap.Int("attempts", user.FailedAttempts), zap.Duration("for", s.lockout.Duration))
		return shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
	}
	log.Warn("Wrong password", zap.Int("failed_attempts", user.FailedAttempts))
	return errInvalidCredentials
}

// Refresh exchanges a refresh token for a new pair. The role is reloaded
// from the user so a demotion applies at the next refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.logger.Warn("Refresh token rejected", zap.Error(err))
		return nil, tokenError(err)
	}
	userID, userErr := claims.GetUserUUID()
	tenantID, tenantErr := claims.GetTenantUUID()
	if userErr != nil || tenantErr != nil {
		return nil, tokenError(auth.ErrInvalidClaims)
	}
	log := s.logger.With(zap.String("user_id", claims.UserID))

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
		if err != nil {
			log.Error("Failed to check token revocation", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to refresh token")
		}
		if revoked {
			return nil, errTokenRevoked
		}
	}

	user, err := s.users.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		log.Warn("Refresh for unknown user")
		return nil, errUserNotFound
	}
	if !user.CanLogin(s.now()) {
		log.Warn("Refresh refused, account inactive")
		return nil, errAccountInactive
	}

	pair, err := s.tokens.RefreshTokenPair(refreshToken, string(user.Role))
	if err != nil {
		log.Warn("Token refresh failed", zap.Error(err))
		return nil, tokenError(err)
	}
	log.Info("Token refreshed", zap.Int("refresh_count", claims.RefreshCount+1))
	return pair, nil
}

// Logout revokes the presented access token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	s.logger.Info("User logout", zap.String("user_id", claims.UserID), zap.String("tenant_id", claims.TenantID))
	if s.blacklist == nil || claims.ID == "" {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke token", zap.String("jti", claims.ID), zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to revoke token")
	}
	return nil
}

// CurrentUser backs GET /auth/me
func (s *AuthService) CurrentUser(ctx context.Context, tenantID, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.users.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, errUserNotFound
	}
	info := toUserInfo(user)
	return &info, nil
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrInvalidClaims):
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
	return shared.NewDomainError("TOKEN_ERROR", "Failed to validate refresh token")
}
