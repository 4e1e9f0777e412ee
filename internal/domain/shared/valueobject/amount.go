package valueobject

import "github.com/shopspring/decimal"

// AmountScale is the number of decimal places kept on stored monetary amounts.
const AmountScale int32 = 2

// RoundAmount rounds half away from zero to AmountScale.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

// FloorAtZero returns d, or zero when d is negative.
func FloorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// SumAmounts adds the given amounts.
func SumAmounts(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
