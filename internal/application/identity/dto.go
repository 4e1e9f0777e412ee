package identity

import (
	"time"

	"github.com/courtage/backend/internal/domain/identity"
	"github.com/courtage/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
)

// Credentials are what a user presents at login. IP is recorded on success.
type Credentials struct {
	Username string
	Password string
	IP       string
}

// Session is handed back by a successful login
type Session struct {
	Token *auth.TokenPair `json:"token"`
	User  UserInfo        `json:"user"`
}

// UserInfo is the part of a user the signed-in client sees
type UserInfo struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
}

func toUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Username:    u.Username,
		DisplayName: u.Label(),
		Role:        string(u.Role),
	}
}

type CreateUserInput struct {
	TenantID    uuid.UUID
	Username    string
	Password    string
	DisplayName string
	Role        string
}

// UserDTO is the administration view of a user
type UserDTO struct {
	UserInfo
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toUserDTO(u *identity.User) *UserDTO {
	return &UserDTO{
		UserInfo:    toUserInfo(u),
		Status:      string(u.Status),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// UserListFilter narrows the user listing; empty fields match everything
type UserListFilter struct {
	Search   string
	Role     string
	Status   string
	Page     int
	PageSize int
}
