package company

import (
	"testing"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompany(t *testing.T) {
	c, err := NewCompany(uuid.New(), " saham-ci ", "Saham Assurance")
	require.NoError(t, err)
	assert.Equal(t, "SAHAM-CI", c.Code)
	assert.True(t, c.Active)
	assert.True(t, c.DefaultCommission.IsZero())

	_, err = NewCompany(uuid.New(), "x", "Too short code")
	assert.Equal(t, "INVALID_COMPANY_CODE", shared.CodeOf(err))

	_, err = NewCompany(uuid.New(), "AXA", "  ")
	assert.Equal(t, "INVALID_COMPANY_NAME", shared.CodeOf(err))
}

func TestCompany_ActivationCycle(t *testing.T) {
	c, err := NewCompany(uuid.New(), "NSIA", "NSIA Assurances")
	require.NoError(t, err)
	c.ClearDomainEvents()

	assert.Equal(t, "ALREADY_ACTIVE", shared.CodeOf(c.Activate()))
	require.NoError(t, c.Deactivate())
	assert.False(t, c.Active)
	assert.Equal(t, "ALREADY_INACTIVE", shared.CodeOf(c.Deactivate()))
	require.NoError(t, c.Activate())
	assert.Len(t, c.GetDomainEvents(), 2)
}

func TestCompany_SetDefaultCommission(t *testing.T) {
	c, err := NewCompany(uuid.New(), "SUNU", "Sunu Assurances")
	require.NoError(t, err)

	require.NoError(t, c.SetDefaultCommission(decimal.RequireFromString("2500.555")))
	assert.Equal(t, "2500.56", c.DefaultCommission.StringFixed(2))
	assert.Error(t, c.SetDefaultCommission(decimal.NewFromInt(-1)))
}
