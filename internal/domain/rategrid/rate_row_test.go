package rategrid

import (
	"testing"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleComponents() Components {
	return Components{
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

func TestNewRateRow(t *testing.T) {
	key := Key{Class: vehicle.ClassPrivate, Duration: Duration12Months, Bucket: BucketCV7To10}

	t.Run("valid row", func(t *testing.T) {
		row, err := NewRateRow(uuid.New(), key, sampleComponents())
		require.NoError(t, err)
		assert.True(t, row.BasePremium().Equal(d("48000")))
		assert.Len(t, row.GetDomainEvents(), 1)
	})

	t.Run("rejects bucket of another class", func(t *testing.T) {
		_, err := NewRateRow(uuid.New(), Key{Class: vehicle.ClassPrivate, Duration: Duration1Month, Bucket: BucketT5To10}, sampleComponents())
		assert.Equal(t, "INVALID_BUCKET", shared.CodeOf(err))
	})

	t.Run("rejects unpriced duration", func(t *testing.T) {
		_, err := NewRateRow(uuid.New(), Key{Class: vehicle.ClassPrivate, Duration: DurationBucket(4), Bucket: BucketCV1To2}, sampleComponents())
		assert.Equal(t, "INVALID_DURATION", shared.CodeOf(err))
	})

	t.Run("rejects negative component", func(t *testing.T) {
		c := sampleComponents()
		c.Theft = d("-1")
		_, err := NewRateRow(uuid.New(), key, c)
		assert.Equal(t, "INVALID_COMPONENT", shared.CodeOf(err))
	})
}

func TestRateRow_ReplaceComponents(t *testing.T) {
	row, err := NewRateRow(uuid.New(), Key{Class: vehicle.ClassTwoWheeler, Duration: Duration3Months, Bucket: BucketCC51To125}, sampleComponents())
	require.NoError(t, err)
	row.ClearDomainEvents()
	version := row.Version

	changed, err := row.ReplaceComponents(sampleComponents())
	require.NoError(t, err)
	assert.False(t, changed, "identical premiums are a no-op")
	assert.Equal(t, version, row.Version)
	assert.Empty(t, row.GetDomainEvents())

	c := sampleComponents()
	c.Fire = d("5500.456")
	changed, err = row.ReplaceComponents(c)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, row.Components.Fire.Equal(d("5500.46")))
	assert.Equal(t, version+1, row.Version)
}
