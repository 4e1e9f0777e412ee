package shared

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatReference(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "CTR-2024-00042", FormatReference(ReferenceContract, at, 42))
	assert.Equal(t, "POL-2024-", ReferenceYearPrefix(ReferencePolicy, at))
}

func TestReferenceSequence(t *testing.T) {
	n, ok := ReferenceSequence("BRD-2024-00107")
	assert.True(t, ok)
	assert.Equal(t, int64(107), n)

	_, ok = ReferenceSequence("BRD-2024")
	assert.False(t, ok)
	_, ok = ReferenceSequence("BRD-2024-abc")
	assert.False(t, ok)
}

func TestRetryOnDuplicate(t *testing.T) {
	t.Run("stops on success", func(t *testing.T) {
		calls := 0
		err := RetryOnDuplicate(3, func() error {
			calls++
			if calls < 2 {
				return ErrAlreadyExists
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		calls := 0
		err := RetryOnDuplicate(3, func() error {
			calls++
			return NewDomainError("ALREADY_EXISTS", "duplicate reference")
		})
		assert.ErrorIs(t, err, ErrAlreadyExists)
		assert.Equal(t, 3, calls)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := RetryOnDuplicate(3, func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})
}
