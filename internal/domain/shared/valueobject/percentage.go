package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Percentage is a rate expressed in percent, bounded to [0, 100].
type Percentage struct {
	value decimal.Decimal
}

// NewPercentage validates and wraps a percent value.
func NewPercentage(v decimal.Decimal) (Percentage, error) {
	if v.IsNegative() {
		return Percentage{}, fmt.Errorf("percentage cannot be negative: %s", v.String())
	}
	if v.GreaterThan(hundred) {
		return Percentage{}, fmt.Errorf("percentage cannot exceed 100: %s", v.String())
	}
	return Percentage{value: v}, nil
}

// MustPercentage panics on invalid input. Intended for constants and tests.
func MustPercentage(v decimal.Decimal) Percentage {
	p, err := NewPercentage(v)
	if err != nil {
		panic(err)
	}
	return p
}

// ZeroPercentage returns 0%.
func ZeroPercentage() Percentage {
	return Percentage{value: decimal.Zero}
}

// Decimal returns the raw percent value (12.5 for 12.5%).
func (p Percentage) Decimal() decimal.Decimal {
	return p.value
}

// IsZero reports whether the rate is 0%.
func (p Percentage) IsZero() bool {
	return p.value.IsZero()
}

// Of returns the share of amount this percentage represents, rounded to AmountScale.
func (p Percentage) Of(amount decimal.Decimal) decimal.Decimal {
	return RoundAmount(amount.Mul(p.value).Div(hundred))
}

// String renders the percentage as "12.5%".
func (p Percentage) String() string {
	return p.value.String() + "%"
}
