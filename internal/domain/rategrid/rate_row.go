package rategrid

import (
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/shared/valueobject"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Components holds the eight premium guarantees priced by a grid row.
type Components struct {
	CivilLiability   decimal.Decimal `json:"civil_liability"`
	DefenceRecourse  decimal.Decimal `json:"defence_recourse"`
	Passenger        decimal.Decimal `json:"passenger"`
	DriverIndividual decimal.Decimal `json:"driver_individual"`
	RecourseAdvance  decimal.Decimal `json:"recourse_advance"`
	Fire             decimal.Decimal `json:"fire"`
	Theft            decimal.Decimal `json:"theft"`
	GlassBreakage    decimal.Decimal `json:"glass_breakage"`
}

// Values returns the components in their canonical order.
func (c Components) Values() []decimal.Decimal {
	return []decimal.Decimal{
		c.CivilLiability,
		c.DefenceRecourse,
		c.Passenger,
		c.DriverIndividual,
		c.RecourseAdvance,
		c.Fire,
		c.Theft,
		c.GlassBreakage,
	}
}

// Sum adds the eight components.
func (c Components) Sum() decimal.Decimal {
	return valueobject.SumAmounts(c.Values()...)
}

// Validate rejects negative components.
func (c Components) Validate() error {
	for _, v := range c.Values() {
		if v.IsNegative() {
			return shared.NewDomainError("INVALID_COMPONENT", "Premium components cannot be negative")
		}
	}
	return nil
}

// Rounded returns the components rounded to the stored amount scale.
func (c Components) Rounded() Components {
	return Components{
		CivilLiability:   valueobject.RoundAmount(c.CivilLiability),
		DefenceRecourse:  valueobject.RoundAmount(c.DefenceRecourse),
		Passenger:        valueobject.RoundAmount(c.Passenger),
		DriverIndividual: valueobject.RoundAmount(c.DriverIndividual),
		RecourseAdvance:  valueobject.RoundAmount(c.RecourseAdvance),
		Fire:             valueobject.RoundAmount(c.Fire),
		Theft:            valueobject.RoundAmount(c.Theft),
		GlassBreakage:    valueobject.RoundAmount(c.GlassBreakage),
	}
}

// Equal compares component values numerically.
func (c Components) Equal(o Components) bool {
	a, b := c.Values(), o.Values()
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Key identifies a grid row: one per class, duration and attribute bucket.
type Key struct {
	Class    vehicle.Class
	Duration DurationBucket
	Bucket   AttributeBucket
}

// Validate checks that the key addresses a real cell of the class grid.
func (k Key) Validate() error {
	if !k.Class.IsValid() {
		return shared.NewDomainError("INVALID_CLASS", "Unsupported vehicle class")
	}
	if !k.Duration.IsValid() {
		return shared.NewDomainError("INVALID_DURATION", "Duration must be one of 1, 2, 3, 6 or 12 months")
	}
	if !k.Bucket.ValidFor(k.Class) {
		return shared.NewDomainError("INVALID_BUCKET", "Attribute bucket does not belong to the vehicle class")
	}
	return nil
}

// RateRow is one priced cell of a class rate grid
type RateRow struct {
	shared.TenantAggregateRoot
	Key
	Components Components
}

// NewRateRow creates a grid row.
func NewRateRow(tenantID uuid.UUID, key Key, components Components) (*RateRow, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if err := components.Validate(); err != nil {
		return nil, err
	}
	row := &RateRow{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Key:                 key,
		Components:          components.Rounded(),
	}
	row.AddDomainEvent(NewRateRowChangedEvent(row))
	return row, nil
}

// ReplaceComponents overwrites the premiums. It reports whether anything changed.
func (r *RateRow) ReplaceComponents(components Components) (bool, error) {
	if err := components.Validate(); err != nil {
		return false, err
	}
	components = components.Rounded()
	if r.Components.Equal(components) {
		return false, nil
	}
	r.Components = components
	r.Touch()
	r.AddDomainEvent(NewRateRowChangedEvent(r))
	return true, nil
}

// BasePremium is the sum of the eight components.
func (r *RateRow) BasePremium() decimal.Decimal {
	return r.Components.Sum()
}
