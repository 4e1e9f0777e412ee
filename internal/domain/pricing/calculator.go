// Package pricing computes contract premiums from rate-grid rows.
//
// The computation is:
//
//	base     = sum of the eight grid components
//	gross    = base + accessories
//	discount = flat + gross*bns% + gross*commission% + profession (percent of gross or flat)
//	total    = max(0, gross - discount + commission)
//
// Every stored amount is rounded to two decimals. A missing grid row is not an
// error: Quote returns a Result with Found set to false.
package pricing

import (
	"github.com/courtage/backend/internal/domain/rategrid"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Inputs are the contract-level adjustments layered on top of the grid premium.
// CommissionOverride marks a commission entered by hand rather than taken from
// the company default.
type Inputs struct {
	Accessories            decimal.Decimal `json:"accessories"`
	FlatDiscount           decimal.Decimal `json:"flat_discount"`
	BonusMalusRate         decimal.Decimal `json:"bns_rate"`
	CommissionDiscountRate decimal.Decimal `json:"commission_discount_rate"`
	ProfessionDiscount     Discount        `json:"profession_discount"`
	Commission             decimal.Decimal `json:"commission"`
	CommissionOverride     bool            `json:"commission_override"`
}

// Validate rejects negative amounts and rates outside [0, 100].
func (in Inputs) Validate() error {
	for _, amount := range []decimal.Decimal{in.Accessories, in.FlatDiscount, in.Commission} {
		if amount.IsNegative() {
			return shared.NewDomainError("INVALID_INPUT", "Pricing amounts cannot be negative")
		}
	}
	for _, rate := range []decimal.Decimal{in.BonusMalusRate, in.CommissionDiscountRate} {
		if _, err := valueobject.NewPercentage(rate); err != nil {
			return shared.NewDomainError("INVALID_INPUT", "Discount rates must be between 0 and 100")
		}
	}
	return in.ProfessionDiscount.Validate()
}

// Breakdown is the full set of stored amounts of a priced contract.
type Breakdown struct {
	Components         rategrid.Components `json:"components"`
	BasePremium        decimal.Decimal     `json:"base_premium"`
	Accessories        decimal.Decimal     `json:"accessories"`
	GrossPremium       decimal.Decimal     `json:"gross_premium"`
	FlatDiscount       decimal.Decimal     `json:"flat_discount"`
	BonusMalusDiscount decimal.Decimal     `json:"bns_discount"`
	CommissionDiscount decimal.Decimal     `json:"commission_discount"`
	ProfessionDiscount decimal.Decimal     `json:"profession_discount"`
	TotalDiscount      decimal.Decimal     `json:"total_discount"`
	Commission         decimal.Decimal     `json:"commission"`
	TotalAmount        decimal.Decimal     `json:"total_amount"`
}

// Equal compares every amount numerically.
func (b Breakdown) Equal(o Breakdown) bool {
	if !b.Components.Equal(o.Components) {
		return false
	}
	left, right := b.amounts(), o.amounts()
	for i := range left {
		if !left[i].Equal(right[i]) {
			return false
		}
	}
	return true
}

func (b Breakdown) amounts() []decimal.Decimal {
	return []decimal.Decimal{
		b.BasePremium, b.Accessories, b.GrossPremium,
		b.FlatDiscount, b.BonusMalusDiscount, b.CommissionDiscount, b.ProfessionDiscount,
		b.TotalDiscount, b.Commission, b.TotalAmount,
	}
}

// Calculate applies the discount stack to a grid row's components.
func Calculate(components rategrid.Components, in Inputs) (Breakdown, error) {
	if err := components.Validate(); err != nil {
		return Breakdown{}, err
	}
	if err := in.Validate(); err != nil {
		return Breakdown{}, err
	}

	components = components.Rounded()
	base := components.Sum()
	accessories := valueobject.RoundAmount(in.Accessories)
	gross := base.Add(accessories)

	flat := valueobject.RoundAmount(in.FlatDiscount)
	bns := valueobject.MustPercentage(in.BonusMalusRate).Of(gross)
	commissionDiscount := valueobject.MustPercentage(in.CommissionDiscountRate).Of(gross)
	profession := in.ProfessionDiscount.AmountOn(gross)
	totalDiscount := valueobject.SumAmounts(flat, bns, commissionDiscount, profession)

	commission := valueobject.RoundAmount(in.Commission)
	total := valueobject.FloorAtZero(valueobject.RoundAmount(gross.Sub(totalDiscount).Add(commission)))

	return Breakdown{
		Components:         components,
		BasePremium:        base,
		Accessories:        accessories,
		GrossPremium:       gross,
		FlatDiscount:       flat,
		BonusMalusDiscount: bns,
		CommissionDiscount: commissionDiscount,
		ProfessionDiscount: profession,
		TotalDiscount:      totalDiscount,
		Commission:         commission,
		TotalAmount:        total,
	}, nil
}
