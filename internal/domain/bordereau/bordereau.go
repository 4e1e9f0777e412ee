// Package bordereau models settlement statements sent to insurers: the list of
// a company's contracts created over a period with their amounts.
package bordereau

import (
	"strings"
	"time"

	"github.com/courtage/backend/internal/domain/contract"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/shared/valueobject"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of a bordereau
type Status string

const (
	StatusDraft  Status = "draft"
	StatusClosed Status = "closed"
)

// SettledStatuses are the contract statuses listed on a bordereau.
var SettledStatuses = []contract.Status{
	contract.StatusValidated,
	contract.StatusActive,
	contract.StatusExpired,
}

// Period is an inclusive range of whole days
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod truncates both bounds to days and checks their order.
func NewPeriod(start, end time.Time) (Period, error) {
	if start.IsZero() || end.IsZero() {
		return Period{}, shared.NewDomainError("INVALID_PERIOD", "Period start and end are required")
	}
	p := Period{Start: contract.DateOnly(start), End: contract.DateOnly(end)}
	if p.End.Before(p.Start) {
		return Period{}, shared.NewDomainError("INVALID_PERIOD", "Period end must not be before its start")
	}
	return p, nil
}

// Until is the first instant after the period.
func (p Period) Until() time.Time {
	return p.End.AddDate(0, 0, 1)
}

// Contains reports whether t falls on one of the period's days.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.Until())
}

// Line is the snapshot of one contract on the statement
type Line struct {
	ContractID          uuid.UUID
	ContractReference   string
	PolicyNumber        string
	ClientName          string
	VehicleRegistration string
	ContractType        vehicle.Class
	StartDate           time.Time
	EndDate             time.Time
	BasePremium         decimal.Decimal
	GrossPremium        decimal.Decimal
	TotalDiscount       decimal.Decimal
	Commission          decimal.Decimal
	TotalAmount         decimal.Decimal
}

// NewLine snapshots c. Client name and registration come from the caller
// because the contract only holds ids.
func NewLine(c *contract.Contract, clientName, registration string) Line {
	return Line{
		ContractID:          c.ID,
		ContractReference:   c.Reference,
		PolicyNumber:        c.PolicyNumber,
		ClientName:          clientName,
		VehicleRegistration: registration,
		ContractType:        c.Type,
		StartDate:           c.StartDate,
		EndDate:             c.EndDate,
		BasePremium:         c.Amounts.BasePremium,
		GrossPremium:        c.Amounts.GrossPremium,
		TotalDiscount:       c.Amounts.TotalDiscount,
		Commission:          c.Amounts.Commission,
		TotalAmount:         c.Amounts.TotalAmount,
	}
}

// Totals sums every amount column
type Totals struct {
	Count         int
	BasePremium   decimal.Decimal
	GrossPremium  decimal.Decimal
	TotalDiscount decimal.Decimal
	Commission    decimal.Decimal
	TotalAmount   decimal.Decimal
}

// ComputeTotals sums lines. No lines yields zero totals.
func ComputeTotals(lines []Line) Totals {
	t := Totals{
		Count:         len(lines),
		BasePremium:   decimal.Zero,
		GrossPremium:  decimal.Zero,
		TotalDiscount: decimal.Zero,
		Commission:    decimal.Zero,
		TotalAmount:   decimal.Zero,
	}
	for _, l := range lines {
		t.BasePremium = t.BasePremium.Add(l.BasePremium)
		t.GrossPremium = t.GrossPremium.Add(l.GrossPremium)
		t.TotalDiscount = t.TotalDiscount.Add(l.TotalDiscount)
		t.Commission = t.Commission.Add(l.Commission)
		t.TotalAmount = t.TotalAmount.Add(l.TotalAmount)
	}
	t.BasePremium = valueobject.RoundAmount(t.BasePremium)
	t.GrossPremium = valueobject.RoundAmount(t.GrossPremium)
	t.TotalDiscount = valueobject.RoundAmount(t.TotalDiscount)
	t.Commission = valueobject.RoundAmount(t.Commission)
	t.TotalAmount = valueobject.RoundAmount(t.TotalAmount)
	return t
}

// Bordereau is the settlement statement aggregate root
type Bordereau struct {
	shared.TenantAggregateRoot
	Reference   string
	CompanyID   uuid.UUID
	Period      Period
	Status      Status
	Lines       []Line
	Totals      Totals
	GeneratedAt time.Time
	ClosedAt    *time.Time
	Notes       string
}

// NewBordereau creates an empty draft for companyID over period
func NewBordereau(tenantID, companyID uuid.UUID, period Period) (*Bordereau, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company is required")
	}
	if period.Start.IsZero() || period.End.Before(period.Start) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period is invalid")
	}
	return &Bordereau{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CompanyID:           companyID,
		Period:              period,
		Status:              StatusDraft,
		Lines:               []Line{},
		Totals:              ComputeTotals(nil),
	}, nil
}

// AssignReference sets the BRD reference. It can only be set once.
func (b *Bordereau) AssignReference(ref string) error {
	if b.Reference != "" {
		return shared.NewDomainError("REFERENCE_ALREADY_SET", "Bordereau reference is immutable once assigned")
	}
	if strings.TrimSpace(ref) == "" {
		return shared.NewDomainError("INVALID_REFERENCE", "Reference cannot be empty")
	}
	b.Reference = ref
	return nil
}

// Fill replaces the lines of a draft and recomputes totals. Lines are kept in
// the order given.
func (b *Bordereau) Fill(lines []Line, at time.Time) error {
	if b.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft bordereaux can be regenerated")
	}
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, l := range lines {
		if _, dup := seen[l.ContractID]; dup {
			return shared.NewDomainError("DUPLICATE_LINE", "A contract appears twice on the bordereau")
		}
		seen[l.ContractID] = struct{}{}
	}
	if lines == nil {
		lines = []Line{}
	}
	b.Lines = lines
	b.Totals = ComputeTotals(lines)
	b.GeneratedAt = at
	b.Touch()
	b.AddDomainEvent(NewBordereauGeneratedEvent(b))
	return nil
}

// SetNotes sets the free text printed under the totals
func (b *Bordereau) SetNotes(notes string) error {
	if b.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Closed bordereaux cannot be edited")
	}
	if len(notes) > 2000 {
		return shared.NewDomainError("INVALID_NOTES", "Notes cannot exceed 2000 characters")
	}
	b.Notes = strings.TrimSpace(notes)
	b.Touch()
	return nil
}

// Close freezes the statement.
func (b *Bordereau) Close(at time.Time) error {
	if b.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Bordereau is already closed")
	}
	b.Status = StatusClosed
	b.ClosedAt = &at
	b.Touch()
	b.AddDomainEvent(NewBordereauClosedEvent(b))
	return nil
}

// CanDelete reports whether the bordereau may be removed.
func (b *Bordereau) CanDelete() error {
	if b.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Closed bordereaux cannot be deleted")
	}
	return nil
}

// IsEmpty reports whether no contract matched the period.
func (b *Bordereau) IsEmpty() bool {
	return len(b.Lines) == 0
}
