package identity

import (
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserStatus string

const (
	UserStatusActive UserStatus = "active"
	// UserStatusLocked follows too many failed logins; it lifts itself once
	// LockedUntil passes
	UserStatusLocked      UserStatus = "locked"
	UserStatusDeactivated UserStatus = "deactivated"
)

// Role is the access level of a back-office user
type Role string

const (
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
)

var roles = []Role{RoleAdmin, RoleAgent}

func (r Role) IsValid() bool { return slices.Contains(roles, r) }

const (
	hashCost       = 12
	maxDisplayName = 200
	minUsernameLen = 3
	maxUsernameLen = 100
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt ignores anything longer
)

var loginName = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+$`)

var (
	errUnknownRole        = shared.NewDomainError("INVALID_ROLE", "Role must be admin or agent")
	errAlreadyDeactivated = shared.NewDomainError("ALREADY_DEACTIVATED", "User is already deactivated")
	errHashing            = shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
)

// User is a back-office account of a brokerage office
type User struct {
	shared.TenantAggregateRoot
	Username       string
	PasswordHash   string
	DisplayName    string
	Role           Role
	Status         UserStatus
	LastLoginAt    *time.Time
	LastLoginIP    string
	FailedAttempts int
	LockedUntil    *time.Time
}

// NewUser opens an active account. The username is stored lower-cased.
func NewUser(tenantID uuid.UUID, username, password string, role Role) (*User, error) {
	name, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, errUnknownRole
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Username:            name,
		PasswordHash:        hash,
		Role:                role,
		Status:              UserStatusActive,
	}
	u.AddDomainEvent(NewUserCreatedEvent(u))
	return u, nil
}

func (u *User) SetDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if len(name) > maxDisplayName {
		return shared.NewDomainError("INVALID_DISPLAY_NAME", "Display name is limited to 200 characters")
	}
	u.DisplayName = name
	u.Touch()
	return nil
}

func (u *User) SetPassword(password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.Touch()
	return nil
}

func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// IsAdmin reports whether the user may manage other users
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Label is what screens and documents print for the user
func (u *User) Label() string {
	if u.DisplayName == "" {
		return u.Username
	}
	return u.DisplayName
}

func (u *User) Deactivate() error {
	if u.Status == UserStatusDeactivated {
		return errAlreadyDeactivated
	}
	u.Status = UserStatusDeactivated
	u.Touch()
	u.AddDomainEvent(NewUserDeactivatedEvent(u))
	return nil
}

// RecordLoginSuccess clears the failure count and any lock
func (u *User) RecordLoginSuccess(ip string, at time.Time) {
	u.LastLoginAt, u.LastLoginIP = &at, ip
	u.FailedAttempts = 0
	if u.Status == UserStatusLocked {
		u.Status, u.LockedUntil = UserStatusActive, nil
	}
	u.Touch()
}

// RecordLoginFailure counts a failed attempt and reports whether it locked
// the account for lockFor. A maxAttempts of zero disables locking.
func (u *User) RecordLoginFailure(maxAttempts int, lockFor time.Duration, at time.Time) bool {
	u.FailedAttempts++
	u.Touch()
	switch {
	case u.Status == UserStatusDeactivated, maxAttempts <= 0, u.FailedAttempts < maxAttempts:
		return false
	}
	until := at.Add(lockFor)
	u.Status, u.LockedUntil = UserStatusLocked, &until
	return true
}

// IsLocked reports whether a lock is still in force at the given time
func (u *User) IsLocked(at time.Time) bool {
	return u.Status == UserStatusLocked && (u.LockedUntil == nil || at.Before(*u.LockedUntil))
}

func (u *User) CanLogin(at time.Time) bool {
	return u.Status != UserStatusDeactivated && !u.IsLocked(at)
}

func normalizeUsername(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	var reason string
	switch {
	case len(name) < minUsernameLen:
		reason = "Username needs at least 3 characters"
	case len(name) > maxUsernameLen:
		reason = "Username is limited to 100 characters"
	case !loginName.MatchString(name):
		reason = "Username may only use letters, digits, dots, dashes and underscores"
	default:
		return strings.ToLower(name), nil
	}
	return "", shared.NewDomainError("INVALID_USERNAME", reason)
}

// checkPassword wants 8 to 72 bytes mixing letters and digits
func checkPassword(password string) error {
	var reason string
	switch {
	case len(password) < minPasswordLen:
		reason = "Password needs at least 8 characters"
	case len(password) > maxPasswordLen:
		reason = "Password is limited to 72 bytes"
	case !strings.ContainsFunc(password, unicode.IsLetter), !strings.ContainsFunc(password, unicode.IsDigit):
		reason = "Password must mix letters and digits"
	default:
		return nil
	}
	return shared.NewDomainError("INVALID_PASSWORD", reason)
}

func hashPassword(password string) (string, error) {
	if err := checkPassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", errHashing
	}
	return string(hash), nil
}
