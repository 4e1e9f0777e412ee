package contract

import (
	"strings"
	"time"

	"github.com/courtage/backend/internal/domain/pricing"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
)

// Status is the lifecycle state of a contract
type Status string

const (
	StatusDraft     Status = "draft"
	StatusValidated Status = "validated"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusValidated, StatusActive, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusExpired
}

// PricingStatus tells whether the stored amounts reflect the current terms
type PricingStatus string

const (
	PricingUnpriced PricingStatus = "unpriced"
	PricingPriced   PricingStatus = "priced"
	PricingNoRate   PricingStatus = "no_rate"
)

// MaxDurationMonths is the longest contract term.
const MaxDurationMonths = 12

// Contract is the auto insurance policy aggregate root
type Contract struct {
	shared.TenantAggregateRoot
	Reference          string
	PolicyNumber       string
	Type               vehicle.Class
	ClientID           uuid.UUID
	VehicleID          uuid.UUID
	CompanyID          uuid.UUID
	DurationMonths     int
	StartDate          time.Time
	EndDate            time.Time
	Status             Status
	ParentID           *uuid.UUID
	Inputs             pricing.Inputs
	Amounts            pricing.Breakdown
	PricingStatus      PricingStatus
	PricedAt           *time.Time
	ValidatedAt        *time.Time
	ActivatedAt        *time.Time
	CancelledAt        *time.Time
	ExpiredAt          *time.Time
	CancellationReason string
}

// Terms are the coverage parameters of a new contract
type Terms struct {
	Type           vehicle.Class
	ClientID       uuid.UUID
	VehicleID      uuid.UUID
	CompanyID      uuid.UUID
	DurationMonths int
	StartDate      time.Time
}

// NewContract creates a draft contract. Amounts stay empty until priced.
func NewContract(tenantID uuid.UUID, terms Terms, inputs pricing.Inputs) (*Contract, error) {
	if err := validateTerms(terms); err != nil {
		return nil, err
	}
	if err := inputs.Validate(); err != nil {
		return nil, err
	}

	start := DateOnly(terms.StartDate)
	c := &Contract{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Type:                terms.Type,
		ClientID:            terms.ClientID,
		VehicleID:           terms.VehicleID,
		CompanyID:           terms.CompanyID,
		DurationMonths:      terms.DurationMonths,
		StartDate:           start,
		EndDate:             EndDateFor(start, terms.DurationMonths),
		Status:              StatusDraft,
		Inputs:              inputs,
		PricingStatus:       PricingUnpriced,
	}
	c.AddDomainEvent(NewContractCreatedEvent(c))
	return c, nil
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndDateFor returns the last covered day of a term starting on start.
func EndDateFor(start time.Time, months int) time.Time {
	return DateOnly(start).AddDate(0, months, -1)
}

// ExpiresAt is the first instant no longer covered.
func (c *Contract) ExpiresAt() time.Time {
	return c.EndDate.AddDate(0, 0, 1)
}

// AssignReference sets the CTR reference. It can only be set once.
func (c *Contract) AssignReference(ref string) error {
	if c.Reference != "" {
		return shared.NewDomainError("REFERENCE_ALREADY_SET", "Contract reference is immutable once assigned")
	}
	if strings.TrimSpace(ref) == "" {
		return shared.NewDomainError("INVALID_REFERENCE", "Reference cannot be empty")
	}
	c.Reference = ref
	return nil
}

// NeedsPolicyNumber reports whether validation must allocate a fresh policy number.
func (c *Contract) NeedsPolicyNumber() bool {
	return c.PolicyNumber == ""
}

// AssignPolicyNumber sets the policy number. It can only be set once.
func (c *Contract) AssignPolicyNumber(number string) error {
	if c.PolicyNumber != "" {
		return shared.NewDomainError("POLICY_NUMBER_ALREADY_SET", "Policy number is immutable once assigned")
	}
	if strings.TrimSpace(number) == "" {
		return shared.NewDomainError("INVALID_POLICY_NUMBER", "Policy number cannot be empty")
	}
	c.PolicyNumber = number
	return nil
}

// UpdateTerms changes company, duration and start date of a draft. A new duration
// makes the stored amounts stale.
func (c *Contract) UpdateTerms(companyID uuid.UUID, durationMonths int, startDate time.Time) error {
	if err := c.requireDraft("update terms"); err != nil {
		return err
	}
	terms := Terms{
		Type:           c.Type,
		ClientID:       c.ClientID,
		VehicleID:      c.VehicleID,
		CompanyID:      companyID,
		DurationMonths: durationMonths,
		StartDate:      startDate,
	}
	if err := validateTerms(terms); err != nil {
		return err
	}

	start := DateOnly(startDate)
	if c.CompanyID == companyID && c.DurationMonths == durationMonths && c.StartDate.Equal(start) {
		return nil
	}
	durationChanged := c.DurationMonths != durationMonths
	c.CompanyID = companyID
	c.DurationMonths = durationMonths
	c.StartDate = start
	c.EndDate = EndDateFor(start, durationMonths)
	if durationChanged {
		c.PricingStatus = PricingUnpriced
	}
	c.Touch()
	return nil
}

// UpdateInputs replaces the pricing adjustments of a draft. Stored amounts become stale.
func (c *Contract) UpdateInputs(inputs pricing.Inputs) error {
	if err := c.requireDraft("update pricing inputs"); err != nil {
		return err
	}
	if err := inputs.Validate(); err != nil {
		return err
	}
	c.Inputs = inputs
	c.PricingStatus = PricingUnpriced
	c.Touch()
	return nil
}

// ApplyPricing stores a computed breakdown. Re-applying identical amounts is a
// no-op and reports false.
func (c *Contract) ApplyPricing(b pricing.Breakdown, at time.Time) (bool, error) {
	if err := c.requireDraft("price"); err != nil {
		return false, err
	}
	if c.PricingStatus == PricingPriced && c.Amounts.Equal(b) {
		return false, nil
	}
	c.Amounts = b
	c.PricingStatus = PricingPriced
	c.PricedAt = &at
	c.Touch()
	c.AddDomainEvent(NewContractPricedEvent(c))
	return true, nil
}

// MarkNoRate records that no grid row applies. Stored amounts are cleared.
func (c *Contract) MarkNoRate(at time.Time) (bool, error) {
	if err := c.requireDraft("price"); err != nil {
		return false, err
	}
	if c.PricingStatus == PricingNoRate {
		return false, nil
	}
	c.Amounts = pricing.Breakdown{}
	c.PricingStatus = PricingNoRate
	c.PricedAt = &at
	c.Touch()
	return true, nil
}

// Validate confirms a priced draft. A policy number must be assigned first.
func (c *Contract) Validate(at time.Time) error {
	if err := c.requireDraft("validate"); err != nil {
		return err
	}
	if c.PricingStatus != PricingPriced {
		return shared.NewDomainError("CONTRACT_NOT_PRICED", "Contract must be priced before validation")
	}
	if c.PolicyNumber == "" {
		return shared.NewDomainError("POLICY_NUMBER_REQUIRED", "Contract needs a policy number before validation")
	}
	c.Status = StatusValidated
	c.ValidatedAt = &at
	c.Touch()
	c.AddDomainEvent(NewContractStatusChangedEvent(c, StatusDraft, EventTypeContractValidated))
	return nil
}

// Activate starts coverage of a validated contract.
func (c *Contract) Activate(at time.Time) error {
	if c.Status != StatusValidated {
		return shared.NewDomainError("INVALID_STATE", "Only validated contracts can be activated")
	}
	c.Status = StatusActive
	c.ActivatedAt = &at
	c.Touch()
	c.AddDomainEvent(NewContractStatusChangedEvent(c, StatusValidated, EventTypeContractActivated))
	return nil
}

// Expire ends coverage of an active contract.
func (c *Contract) Expire(at time.Time) error {
	if c.Status != StatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active contracts can expire")
	}
	c.Status = StatusExpired
	c.ExpiredAt = &at
	c.Touch()
	c.AddDomainEvent(NewContractStatusChangedEvent(c, StatusActive, EventTypeContractExpired))
	return nil
}

// Cancel terminates a contract that is not already terminal.
func (c *Contract) Cancel(reason string, at time.Time) error {
	if c.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Contract is already "+string(c.Status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("CANCELLATION_REASON_REQUIRED", "A cancellation reason is required")
	}
	if len(reason) > 500 {
		return shared.NewDomainError("INVALID_REASON", "Cancellation reason cannot exceed 500 characters")
	}
	from := c.Status
	c.Status = StatusCancelled
	c.CancelledAt = &at
	c.CancellationReason = reason
	c.Touch()
	c.AddDomainEvent(NewContractStatusChangedEvent(c, from, EventTypeContractCancelled))
	return nil
}

// IsDueForActivation reports whether a validated contract's coverage has started on day.
func (c *Contract) IsDueForActivation(day time.Time) bool {
	return c.Status == StatusValidated && !c.StartDate.After(DateOnly(day))
}

// IsDueForExpiry reports whether an active contract's last covered day is before day.
func (c *Contract) IsDueForExpiry(day time.Time) bool {
	return c.Status == StatusActive && c.EndDate.Before(DateOnly(day))
}

// IsRenewable reports whether the contract can be renewed.
func (c *Contract) IsRenewable() bool {
	return c.Status == StatusActive || c.Status == StatusExpired
}

// Renew creates a draft continuing parent. A nil startDate continues the day
// after the parent ends. Renewing before the parent expires keeps its policy
// number; otherwise a fresh number is allocated at validation.
func Renew(parent *Contract, startDate *time.Time, now time.Time) (*Contract, error) {
	if !parent.IsRenewable() {
		return nil, shared.NewDomainError("CONTRACT_NOT_RENEWABLE", "Only active or expired contracts can be renewed")
	}

	start := parent.ExpiresAt()
	if startDate != nil {
		start = DateOnly(*startDate)
		if !start.After(parent.StartDate) {
			return nil, shared.NewDomainError("INVALID_RENEWAL_START", "Renewal must start after the parent contract starts")
		}
	}

	child, err := NewContract(parent.TenantID, Terms{
		Type:           parent.Type,
		ClientID:       parent.ClientID,
		VehicleID:      parent.VehicleID,
		CompanyID:      parent.CompanyID,
		DurationMonths: parent.DurationMonths,
		StartDate:      start,
	}, parent.Inputs)
	if err != nil {
		return nil, err
	}
	parentID := parent.ID
	child.ParentID = &parentID

	reused := RenewedBeforeExpiry(parent, now)
	if reused {
		child.PolicyNumber = parent.PolicyNumber
	}
	child.AddDomainEvent(NewContractRenewedEvent(child, parent, reused))
	return child, nil
}

// RenewedBeforeExpiry reports whether a renewal made at now keeps the parent's policy number.
func RenewedBeforeExpiry(parent *Contract, now time.Time) bool {
	return parent.Status != StatusExpired && parent.PolicyNumber != "" && now.Before(parent.ExpiresAt())
}

func (c *Contract) requireDraft(action string) error {
	if c.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot "+action+" a "+string(c.Status)+" contract")
	}
	return nil
}

func validateTerms(t Terms) error {
	if !t.Type.IsValid() {
		return shared.NewDomainError("INVALID_CONTRACT_TYPE", "Contract type must be VP, TPC, TPM or TWO_WHEELER")
	}
	if t.ClientID == uuid.Nil || t.VehicleID == uuid.Nil || t.CompanyID == uuid.Nil {
		return shared.NewDomainError("INVALID_CONTRACT_PARTIES", "Client, vehicle and company are required")
	}
	if t.DurationMonths <= 0 || t.DurationMonths > MaxDurationMonths {
		return shared.NewDomainError("INVALID_DURATION", "Duration must be between 1 and 12 months")
	}
	if t.StartDate.IsZero() {
		return shared.NewDomainError("INVALID_START_DATE", "Start date is required")
	}
	return nil
}
