package pricing

import (
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DiscountKind tells how a discount value applies to the gross premium.
type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFlat    DiscountKind = "flat"
)

// IsValid reports whether k is a supported kind.
func (k DiscountKind) IsValid() bool {
	return k == DiscountPercent || k == DiscountFlat
}

// Discount is a percent-of-gross or flat reduction, as used for profession-linked discounts.
type Discount struct {
	Kind  DiscountKind    `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// NoDiscount is a zero flat discount.
func NoDiscount() Discount {
	return Discount{Kind: DiscountFlat, Value: decimal.Zero}
}

// NewDiscount validates a discount rule.
func NewDiscount(kind DiscountKind, value decimal.Decimal) (Discount, error) {
	disc := Discount{Kind: kind, Value: value}
	if err := disc.Validate(); err != nil {
		return Discount{}, err
	}
	return disc, nil
}

// Validate checks the kind and the value range.
func (d Discount) Validate() error {
	if d.Kind == "" && d.Value.IsZero() {
		return nil
	}
	if !d.Kind.IsValid() {
		return shared.NewDomainError("INVALID_DISCOUNT_KIND", "Discount kind must be percent or flat")
	}
	if d.Value.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount value cannot be negative")
	}
	if d.Kind == DiscountPercent && d.Value.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Percent discount cannot exceed 100")
	}
	return nil
}

// AmountOn returns the discount amount for the given gross premium.
func (d Discount) AmountOn(gross decimal.Decimal) decimal.Decimal {
	switch d.Kind {
	case DiscountPercent:
		return valueobject.MustPercentage(d.Value).Of(gross)
	case DiscountFlat:
		return valueobject.RoundAmount(d.Value)
	}
	return decimal.Zero
}

// IsZero reports whether the discount has no effect.
func (d Discount) IsZero() bool {
	return d.Value.IsZero()
}
