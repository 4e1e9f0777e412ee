package identity

import (
	"context"
	"testing"
	"time"

	"github.com/courtage/backend/internal/domain/identity"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/infrastructure/auth"
	"github.com/courtage/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]identity.User, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockUserRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func newTestUser(tenantID uuid.UUID, role identity.Role) *identity.User {
	user, err := identity.NewUser(tenantID, "testuser", "Password123", role)
	if err != nil {
		panic(err)
	}
	user.ClearDomainEvents()
	return user
}

func testJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-32-characters-long",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        10,
	})
}

func newAuthService(users *MockUserRepository, blacklist auth.TokenBlacklist) *AuthService {
	return NewAuthService(users, testJWTService(), blacklist, DefaultLockoutPolicy(), zap.NewNop())
}

// signedIn logs testuser in against a repository that also serves lookups by id
func signedIn(t *testing.T, blacklist auth.TokenBlacklist) (*AuthService, *identity.User, *Session) {
	t.Helper()
	ctx := context.Background()
	users := new(MockUserRepository)
	user := newTestUser(uuid.New(), identity.RoleAgent)
	users.On("FindByUsername", ctx, "testuser").Return(user, nil)
	users.On("Save", ctx, user).Return(nil)
	users.On("FindByIDForTenant", ctx, user.TenantID, user.ID).Return(user, nil)

	svc := newAuthService(users, blacklist)
	session, err := svc.Login(ctx, Credentials{Username: "testuser", Password: "Password123", IP: "10.0.0.7"})
	require.NoError(t, err)
	return svc, user, session
}

func TestAuthService_Login(t *testing.T) {
	_, user, session := signedIn(t, nil)

	assert.Equal(t, "Bearer", session.Token.TokenType)
	assert.NotEmpty(t, session.Token.RefreshToken)
	assert.Equal(t, user.TenantID, session.User.TenantID)
	assert.Equal(t, "agent", session.User.Role)
	assert.Equal(t, "10.0.0.7", user.LastLoginIP)
	require.NotNil(t, user.LastLoginAt)

	claims, err := testJWTService().ValidateAccessToken(session.Token.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.HasRole("agent"))
}

func TestAuthService_Login_Refusals(t *testing.T) {
	ctx := context.Background()
	deactivated := newTestUser(uuid.New(), identity.RoleAgent)
	require.NoError(t, deactivated.Deactivate())

	tests := []struct {
		name     string
		user     *identity.User
		password string
		code     string
		saved    bool
	}{
		{"unknown user", nil, "Password123", "INVALID_CREDENTIALS", false},
		{"wrong password", newTestUser(uuid.New(), identity.RoleAgent), "wrongpassword1", "INVALID_CREDENTIALS", true},
		{"deactivated", deactivated, "Password123", "ACCOUNT_DEACTIVATED", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			if tt.user == nil {
				users.On("FindByUsername", ctx, "testuser").Return(nil, shared.ErrNotFound)
			} else {
				users.On("FindByUsername", ctx, "testuser").Return(tt.user, nil)
				users.On("Save", ctx, tt.user).Return(nil)
			}

			session, err := newAuthService(users, nil).Login(ctx, Credentials{Username: "testuser", Password: tt.password})

			assert.Nil(t, session)
			assert.Equal(t, tt.code, shared.CodeOf(err))
			if tt.saved {
				users.AssertCalled(t, "Save", ctx, tt.user)
			} else {
				users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestAuthService_Login_LocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	user := newTestUser(uuid.New(), identity.RoleAgent)
	users.On("FindByUsername", ctx, "testuser").Return(user, nil)
	users.On("Save", ctx, user).Return(nil)

	svc := NewAuthService(users, testJWTService(), nil, LockoutPolicy{MaxAttempts: 3, Duration: time.Minute}, nil)

	var err error
	for range 3 {
		_, err = svc.Login(ctx, Credentials{Username: "testuser", Password: "wrongpassword1"})
	}
	assert.Equal(t, "ACCOUNT_LOCKED", shared.CodeOf(err))

	// the right password is refused while the lock holds
	_, err = svc.Login(ctx, Credentials{Username: "testuser", Password: "Password123"})
	assert.Equal(t, "ACCOUNT_LOCKED", shared.CodeOf(err))

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.Login(ctx, Credentials{Username: "testuser", Password: "Password123"})
	require.NoError(t, err)
	assert.Equal(t, identity.UserStatusActive, user.Status)
	assert.Zero(t, user.FailedAttempts)
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	svc, user, session := signedIn(t, auth.NewInMemoryTokenBlacklist())

	t.Run("carries the current role", func(t *testing.T) {
		user.Role = identity.RoleAdmin
		defer func() { user.Role = identity.RoleAgent }()

		pair, err := svc.Refresh(ctx, session.Token.RefreshToken)
		require.NoError(t, err)

		claims, err := testJWTService().ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Role)
	})

	for name, token := range map[string]string{"access token": session.Token.AccessToken, "garbage": "not-a-token"} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Refresh(ctx, token)
			assert.Equal(t, "TOKEN_INVALID", shared.CodeOf(err))
		})
	}
}

func TestAuthService_Refresh_AfterUserRevocation(t *testing.T) {
	ctx := context.Background()
	blacklist := auth.NewInMemoryTokenBlacklist()
	svc, user, session := signedIn(t, blacklist)

	require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), time.Hour))

	_, err := svc.Refresh(ctx, session.Token.RefreshToken)
	assert.Equal(t, "TOKEN_REVOKED", shared.CodeOf(err))
}

func TestAuthService_Refresh_DeactivatedUser(t *testing.T) {
	svc, user, session := signedIn(t, nil)
	require.NoError(t, user.Deactivate())

	_, err := svc.Refresh(context.Background(), session.Token.RefreshToken)
	assert.Equal(t, "ACCOUNT_INACTIVE", shared.CodeOf(err))
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	blacklist := auth.NewInMemoryTokenBlacklist()
	svc, _, session := signedIn(t, blacklist)
	claims, err := testJWTService().ValidateAccessToken(session.Token.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))

	revoked, err := blacklist.IsBlacklisted(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	withoutBlacklist, _, _ := signedIn(t, nil)
	assert.NoError(t, withoutBlacklist.Logout(ctx, claims))
}

func TestAuthService_CurrentUser(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	user := newTestUser(uuid.New(), identity.RoleAgent)
	require.NoError(t, user.SetDisplayName("Awa Diop"))
	users.On("FindByIDForTenant", ctx, user.TenantID, user.ID).Return(user, nil)
	users.On("FindByIDForTenant", ctx, user.TenantID, mock.Anything).Return(nil, shared.ErrNotFound)

	svc := newAuthService(users, nil)

	info, err := svc.CurrentUser(ctx, user.TenantID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Awa Diop", info.DisplayName)

	_, err = svc.CurrentUser(ctx, user.TenantID, uuid.New())
	assert.Equal(t, "USER_NOT_FOUND", shared.CodeOf(err))
}
