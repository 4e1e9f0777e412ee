package company

import (
	"regexp"
	"strings"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Company is an insurer the brokerage places contracts with
type Company struct {
	shared.TenantAggregateRoot
	Code              string
	Name              string
	Email             string
	Phone             string
	Address           string
	DefaultCommission decimal.Decimal
	// PlatformCode identifies the insurer on the certificate-issuing platform
	PlatformCode string
	Active       bool
}

var codePattern = regexp.MustCompile(`^[A-Z0-9_\-]{2,50}$`)

// NewCompany creates an active insurer.
func NewCompany(tenantID uuid.UUID, code, name string) (*Company, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !codePattern.MatchString(code) {
		return nil, shared.NewDomainError("INVALID_COMPANY_CODE", "Company code must be 2 to 50 letters, digits, '-' or '_'")
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	c := &Company{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                strings.TrimSpace(name),
		DefaultCommission:   decimal.Zero,
		Active:              true,
	}
	c.AddDomainEvent(NewCompanyCreatedEvent(c))
	return c, nil
}

// Update changes the descriptive fields.
func (c *Company) Update(name, email, phone, address string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if len(email) > 200 || len(phone) > 50 || len(address) > 500 {
		return shared.NewDomainError("INVALID_COMPANY_CONTACT", "Company contact fields are too long")
	}
	c.Name = strings.TrimSpace(name)
	c.Email = strings.ToLower(strings.TrimSpace(email))
	c.Phone = strings.TrimSpace(phone)
	c.Address = strings.TrimSpace(address)
	c.Touch()
	return nil
}

// SetDefaultCommission sets the commission amount proposed on new contracts.
func (c *Company) SetDefaultCommission(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_COMMISSION", "Commission cannot be negative")
	}
	c.DefaultCommission = amount.Round(2)
	c.Touch()
	return nil
}

// SetPlatformCode links the insurer to its certificate-platform identifier.
func (c *Company) SetPlatformCode(code string) {
	c.PlatformCode = strings.TrimSpace(code)
	c.Touch()
}

// Activate makes the insurer selectable for new contracts.
func (c *Company) Activate() error {
	if c.Active {
		return shared.NewDomainError("ALREADY_ACTIVE", "Company is already active")
	}
	c.Active = true
	c.Touch()
	c.AddDomainEvent(NewCompanyStatusChangedEvent(c))
	return nil
}

// Deactivate hides the insurer from new contracts. Existing contracts are untouched.
func (c *Company) Deactivate() error {
	if !c.Active {
		return shared.NewDomainError("ALREADY_INACTIVE", "Company is already inactive")
	}
	c.Active = false
	c.Touch()
	c.AddDomainEvent(NewCompanyStatusChangedEvent(c))
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_COMPANY_NAME", "Company name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_COMPANY_NAME", "Company name cannot exceed 200 characters")
	}
	return nil
}
