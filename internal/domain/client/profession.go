package client

import (
	"strings"
	"time"

	"github.com/courtage/backend/internal/domain/pricing"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Profession is a reference entry that carries a profession-linked discount
type Profession struct {
	shared.BaseEntity
	TenantID uuid.UUID
	Code     string
	Name     string
	Discount pricing.Discount
}

// NewProfession creates a profession with its discount rule.
func NewProfession(tenantID uuid.UUID, code, name string, discount pricing.Discount) (*Profession, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_PROFESSION_CODE", "Profession code must be 1 to 50 characters")
	}
	if err := validateProfessionName(name); err != nil {
		return nil, err
	}
	if err := discount.Validate(); err != nil {
		return nil, err
	}
	return &Profession{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		Code:       code,
		Name:       strings.TrimSpace(name),
		Discount:   discount,
	}, nil
}

// Update changes the name and discount rule.
func (p *Profession) Update(name string, discount pricing.Discount) error {
	if err := validateProfessionName(name); err != nil {
		return err
	}
	if err := discount.Validate(); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(name)
	p.Discount = discount
	p.UpdatedAt = time.Now()
	return nil
}

func validateProfessionName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return shared.NewDomainError("INVALID_PROFESSION_NAME", "Profession name must be 1 to 200 characters")
	}
	return nil
}
