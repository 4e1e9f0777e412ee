package pricing

import (
	"math/rand"
	"testing"

	"github.com/courtage/backend/internal/domain/rategrid"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// 48 000 base premium.
func gridComponents() rategrid.Components {
	return rategrid.Components{
		CivilLiability:   d("25000"),
		DefenceRecourse:  d("3000"),
		Passenger:        d("4500"),
		DriverIndividual: d("2000"),
		RecourseAdvance:  d("1500"),
		Fire:             d("5000"),
		Theft:            d("6000"),
		GlassBreakage:    d("1000"),
	}
}

func TestCalculate(t *testing.T) {
	t.Run("no adjustments", func(t *testing.T) {
		b, err := Calculate(gridComponents(), Inputs{})
		require.NoError(t, err)

		assert.True(t, b.BasePremium.Equal(d("48000")))
		assert.True(t, b.GrossPremium.Equal(d("48000")))
		assert.True(t, b.TotalDiscount.IsZero())
		assert.True(t, b.TotalAmount.Equal(d("48000")))
	})

	t.Run("full discount stack", func(t *testing.T) {
		in := Inputs{
			Accessories:            d("2000"),
			FlatDiscount:           d("1000"),
			BonusMalusRate:         d("10"),
			CommissionDiscountRate: d("5"),
			ProfessionDiscount:     Discount{Kind: DiscountPercent, Value: d("2.5")},
			Commission:             d("3000"),
		}
		b, err := Calculate(gridComponents(), in)
		require.NoError(t, err)

		// gross 50 000; bns 5 000; commission discount 2 500; profession 1 250
		assert.True(t, b.GrossPremium.Equal(d("50000")))
		assert.True(t, b.BonusMalusDiscount.Equal(d("5000")))
		assert.True(t, b.CommissionDiscount.Equal(d("2500")))
		assert.True(t, b.ProfessionDiscount.Equal(d("1250")))
		assert.True(t, b.TotalDiscount.Equal(d("9750")))
		assert.True(t, b.TotalAmount.Equal(d("43250")))
	})

	t.Run("flat profession discount", func(t *testing.T) {
		b, err := Calculate(gridComponents(), Inputs{ProfessionDiscount: Discount{Kind: DiscountFlat, Value: d("800")}})
		require.NoError(t, err)
		assert.True(t, b.ProfessionDiscount.Equal(d("800")))
		assert.True(t, b.TotalAmount.Equal(d("47200")))
	})

	t.Run("floors at zero", func(t *testing.T) {
		b, err := Calculate(gridComponents(), Inputs{
			FlatDiscount:   d("40000"),
			BonusMalusRate: d("50"),
			Commission:     d("100"),
		})
		require.NoError(t, err)
		assert.True(t, b.TotalDiscount.GreaterThan(b.GrossPremium))
		assert.True(t, b.TotalAmount.IsZero())
	})

	t.Run("rounds percentages to cents", func(t *testing.T) {
		c := rategrid.Components{CivilLiability: d("333.33")}
		b, err := Calculate(c, Inputs{BonusMalusRate: d("12.5")})
		require.NoError(t, err)
		assert.Equal(t, "41.67", b.BonusMalusDiscount.StringFixed(2))
		assert.Equal(t, "291.66", b.TotalAmount.StringFixed(2))
	})

	t.Run("rejects invalid inputs", func(t *testing.T) {
		cases := map[string]struct {
			in   Inputs
			code string
		}{
			"negative accessories":   {Inputs{Accessories: d("-1")}, "INVALID_INPUT"},
			"negative flat":          {Inputs{FlatDiscount: d("-0.01")}, "INVALID_INPUT"},
			"bns above 100":          {Inputs{BonusMalusRate: d("100.5")}, "INVALID_INPUT"},
			"negative commission %":  {Inputs{CommissionDiscountRate: d("-2")}, "INVALID_INPUT"},
			"negative commission":    {Inputs{Commission: d("-5")}, "INVALID_INPUT"},
			"profession above 100 %": {Inputs{ProfessionDiscount: Discount{Kind: DiscountPercent, Value: d("120")}}, "INVALID_DISCOUNT"},
			"unknown profession":     {Inputs{ProfessionDiscount: Discount{Kind: "bogus", Value: d("1")}}, "INVALID_DISCOUNT_KIND"},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := Calculate(gridComponents(), tc.in)
				require.Error(t, err)
				assert.Equal(t, tc.code, shared.CodeOf(err))
			})
		}
		assert.ErrorIs(t, Inputs{Accessories: d("-1")}.Validate(), shared.ErrInvalidInput)
	})
}

func randomAmount(r *rand.Rand, max int64) decimal.Decimal {
	return decimal.New(r.Int63n(max*100), -2)
}

func randomRate(r *rand.Rand) decimal.Decimal {
	return decimal.New(r.Int63n(10001), -2)
}

func TestCalculate_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		components := rategrid.Components{
			CivilLiability:   randomAmount(r, 100000),
			DefenceRecourse:  randomAmount(r, 10000),
			Passenger:        randomAmount(r, 10000),
			DriverIndividual: randomAmount(r, 10000),
			RecourseAdvance:  randomAmount(r, 10000),
			Fire:             randomAmount(r, 20000),
			Theft:            randomAmount(r, 20000),
			GlassBreakage:    randomAmount(r, 5000),
		}
		kind := DiscountPercent
		profession := randomRate(r)
		if r.Intn(2) == 0 {
			kind = DiscountFlat
			profession = randomAmount(r, 50000)
		}
		in := Inputs{
			Accessories:            randomAmount(r, 10000),
			FlatDiscount:           randomAmount(r, 100000),
			BonusMalusRate:         randomRate(r),
			CommissionDiscountRate: randomRate(r),
			ProfessionDiscount:     Discount{Kind: kind, Value: profession},
			Commission:             randomAmount(r, 20000),
		}

		first, err := Calculate(components, in)
		require.NoError(t, err)
		second, err := Calculate(components, in)
		require.NoError(t, err)

		require.False(t, first.TotalAmount.IsNegative(), "total must never be negative: %+v", in)
		require.True(t, first.Equal(second), "calculation must be deterministic")
		require.True(t, first.GrossPremium.Equal(first.BasePremium.Add(first.Accessories)))
		require.True(t, first.TotalDiscount.Equal(
			first.FlatDiscount.Add(first.BonusMalusDiscount).Add(first.CommissionDiscount).Add(first.ProfessionDiscount)))
	}
}

func TestDiscount(t *testing.T) {
	disc, err := NewDiscount(DiscountPercent, d("10"))
	require.NoError(t, err)
	assert.True(t, disc.AmountOn(d("1234.50")).Equal(d("123.45")))

	_, err = NewDiscount(DiscountFlat, d("-3"))
	assert.Error(t, err)

	assert.True(t, NoDiscount().AmountOn(d("1000")).IsZero())
	assert.NoError(t, Discount{}.Validate())
}
