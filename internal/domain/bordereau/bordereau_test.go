package bordereau

import (
	"testing"
	"time"

	"github.com/courtage/backend/internal/domain/contract"
	"github.com/courtage/backend/internal/domain/pricing"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func march(t *testing.T) Period {
	t.Helper()
	p, err := NewPeriod(time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC), time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return p
}

func line(total, commission string) Line {
	return Line{
		ContractID:    uuid.New(),
		BasePremium:   decimal.RequireFromString(total),
		GrossPremium:  decimal.RequireFromString(total),
		TotalDiscount: decimal.Zero,
		Commission:    decimal.RequireFromString(commission),
		TotalAmount:   decimal.RequireFromString(total).Add(decimal.RequireFromString(commission)),
	}
}

func TestPeriod(t *testing.T) {
	p := march(t)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), p.Start)

	assert.True(t, p.Contains(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.Contains(time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC)))

	_, err := NewPeriod(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "INVALID_PERIOD", shared.CodeOf(err))

	single, err := NewPeriod(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, single.Contains(time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)))
}

func TestComputeTotals(t *testing.T) {
	empty := ComputeTotals(nil)
	assert.Zero(t, empty.Count)
	assert.True(t, empty.TotalAmount.IsZero())

	totals := ComputeTotals([]Line{line("100.10", "5"), line("200.205", "10")})
	assert.Equal(t, 2, totals.Count)
	assert.Equal(t, "300.31", totals.BasePremium.StringFixed(2))
	assert.Equal(t, "15.00", totals.Commission.StringFixed(2))
	assert.Equal(t, "315.31", totals.TotalAmount.StringFixed(2))
}

func TestNewLine(t *testing.T) {
	c, err := contract.NewContract(uuid.New(), contract.Terms{
		Type:           vehicle.ClassTwoWheeler,
		ClientID:       uuid.New(),
		VehicleID:      uuid.New(),
		CompanyID:      uuid.New(),
		DurationMonths: 3,
		StartDate:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}, pricing.Inputs{})
	require.NoError(t, err)
	c.Reference = "CTR-2026-00007"
	c.PolicyNumber = "POL-2026-00003"
	c.Amounts = pricing.Breakdown{BasePremium: decimal.NewFromInt(12000), GrossPremium: decimal.NewFromInt(12000), TotalAmount: decimal.NewFromInt(12000)}

	l := NewLine(c, "Moussa Fall", "DK-1234-AB")
	assert.Equal(t, c.ID, l.ContractID)
	assert.Equal(t, "POL-2026-00003", l.PolicyNumber)
	assert.Equal(t, "Moussa Fall", l.ClientName)
	assert.Equal(t, vehicle.ClassTwoWheeler, l.ContractType)
	assert.Equal(t, time.Date(2026, 6, 9, 0, 0, 0, 0, time.UTC), l.EndDate)
	assert.True(t, l.TotalAmount.Equal(decimal.NewFromInt(12000)))
}

func TestBordereau_Lifecycle(t *testing.T) {
	b, err := NewBordereau(uuid.New(), uuid.New(), march(t))
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, b.Status)
	assert.True(t, b.IsEmpty())

	at := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	t.Run("empty window is not an error", func(t *testing.T) {
		require.NoError(t, b.Fill(nil, at))
		assert.NotNil(t, b.Lines)
		assert.Zero(t, b.Totals.Count)
		assert.True(t, b.Totals.TotalAmount.IsZero())
	})

	t.Run("fill computes totals", func(t *testing.T) {
		require.NoError(t, b.Fill([]Line{line("1000", "100")}, at))
		assert.Equal(t, 1, b.Totals.Count)
		assert.Equal(t, "1100.00", b.Totals.TotalAmount.StringFixed(2))
	})

	t.Run("rejects duplicate contracts", func(t *testing.T) {
		l := line("10", "0")
		assert.Equal(t, "DUPLICATE_LINE", shared.CodeOf(b.Fill([]Line{l, l}, at)))
	})

	t.Run("closed is frozen", func(t *testing.T) {
		require.NoError(t, b.Close(at))
		assert.Equal(t, StatusClosed, b.Status)
		assert.Equal(t, "INVALID_STATE", shared.CodeOf(b.Fill(nil, at)))
		assert.Equal(t, "INVALID_STATE", shared.CodeOf(b.Close(at)))
		assert.Equal(t, "INVALID_STATE", shared.CodeOf(b.CanDelete()))
		assert.Equal(t, "INVALID_STATE", shared.CodeOf(b.SetNotes("late")))
	})

	t.Run("reference is immutable", func(t *testing.T) {
		require.NoError(t, b.AssignReference("BRD-2026-00001"))
		assert.Equal(t, "REFERENCE_ALREADY_SET", shared.CodeOf(b.AssignReference("BRD-2026-00002")))
	})
}

func TestNewBordereau_Invalid(t *testing.T) {
	_, err := NewBordereau(uuid.New(), uuid.Nil, march(t))
	assert.Equal(t, "INVALID_COMPANY", shared.CodeOf(err))

	_, err = NewBordereau(uuid.New(), uuid.New(), Period{})
	assert.Equal(t, "INVALID_PERIOD", shared.CodeOf(err))
}
