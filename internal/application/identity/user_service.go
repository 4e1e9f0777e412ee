package identity

import (
	"context"
	"time"

	"github.com/courtage/backend/internal/domain/identity"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService handles user management operations. Callers are expected to
// have checked the admin role already.
type UserService struct {
	userRepo      identity.UserRepository
	blacklist     auth.TokenBlacklist
	revocationTTL time.Duration
	publisher     shared.EventPublisher
	logger        *zap.Logger
}

// NewUserService creates a new user service. revocationTTL should cover the
// refresh token lifetime so every outstanding token of a deactivated user
// stays rejected.
func NewUserService(
	userRepo identity.UserRepository,
	blacklist auth.TokenBlacklist,
	revocationTTL time.Duration,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:      userRepo,
		blacklist:     blacklist,
		revocationTTL: revocationTTL,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *UserService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// Create creates a new user
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*UserDTO, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Username is already taken")
	}

	role := identity.Role(input.Role)
	if role == "" {
		role = identity.RoleAgent
	}
	user, err := identity.NewUser(input.TenantID, input.Username, input.Password, role)
	if err != nil {
		return nil, err
	}
	if input.DisplayName != "" {
		if err := user.SetDisplayName(input.DisplayName); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	if err := shared.PublishAndClear(ctx, s.publisher, user); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Error(err))
	}

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))

	return toUserDTO(user), nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toUserDTO(user), nil
}

// List retrieves the users of a tenant
func (s *UserService) List(ctx context.Context, tenantID uuid.UUID, filter UserListFilter) ([]UserDTO, int64, error) {
	domainFilter := shared.NewFilter(filter.Page, filter.PageSize, "username", "asc", filter.Search)
	if filter.Role != "" {
		domainFilter.Filters["role"] = filter.Role
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	users, err := s.userRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.userRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]UserDTO, len(users))
	for i := range users {
		dtos[i] = *toUserDTO(&users[i])
	}
	return dtos, total, nil
}

// Deactivate deactivates a user and invalidates every token issued so far.
// An admin cannot deactivate their own account.
func (s *UserService) Deactivate(ctx context.Context, tenantID, actorID, id uuid.UUID) (*UserDTO, error) {
	if actorID == id {
		return nil, shared.NewDomainError("CANNOT_DEACTIVATE_SELF", "You cannot deactivate your own account")
	}

	user, err := s.userRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := user.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	if s.blacklist != nil {
		if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), s.revocationTTL); err != nil {
			s.logger.Error("Failed to invalidate tokens of deactivated user",
				zap.String("user_id", user.ID.String()),
				zap.Error(err))
		}
	}
	if err := shared.PublishAndClear(ctx, s.publisher, user); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Error(err))
	}

	s.logger.Info("User deactivated", zap.String("user_id", id.String()))
	return toUserDTO(user), nil
}
