package client

import (
	"testing"

	"github.com/courtage/backend/internal/domain/pricing"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tenantID := uuid.New()

	t.Run("individual", func(t *testing.T) {
		c, err := NewClient(tenantID, KindIndividual, Identity{FirstName: " Awa ", LastName: "Kone"})
		require.NoError(t, err)
		assert.Equal(t, "Awa Kone", c.DisplayName())
		assert.Equal(t, tenantID, c.TenantID)
		require.Len(t, c.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeClientCreated, c.GetDomainEvents()[0].EventType())
	})

	t.Run("company", func(t *testing.T) {
		c, err := NewClient(tenantID, KindCompany, Identity{CompanyName: "Transports Ouattara SARL"})
		require.NoError(t, err)
		assert.Equal(t, "Transports Ouattara SARL", c.DisplayName())
	})

	t.Run("validation", func(t *testing.T) {
		_, err := NewClient(tenantID, KindIndividual, Identity{FirstName: "Awa"})
		assert.Equal(t, "INVALID_CLIENT_NAME", shared.CodeOf(err))

		_, err = NewClient(tenantID, KindCompany, Identity{LastName: "Kone"})
		assert.Equal(t, "INVALID_CLIENT_NAME", shared.CodeOf(err))

		_, err = NewClient(tenantID, Kind("robot"), Identity{LastName: "R2"})
		assert.Equal(t, "INVALID_CLIENT_KIND", shared.CodeOf(err))
	})
}

func TestClient_AssignReference(t *testing.T) {
	c, err := NewClient(uuid.New(), KindIndividual, Identity{LastName: "Kone"})
	require.NoError(t, err)

	require.NoError(t, c.AssignReference("CLT-2026-00007"))
	err = c.AssignReference("CLT-2026-00008")
	assert.Equal(t, "REFERENCE_ALREADY_SET", shared.CodeOf(err))
	assert.Equal(t, "CLT-2026-00007", c.Reference)
}

func TestClient_SetContact(t *testing.T) {
	c, err := NewClient(uuid.New(), KindIndividual, Identity{LastName: "Kone"})
	require.NoError(t, err)

	require.NoError(t, c.SetContact("+225 07 00 00 00", "Awa.Kone@Example.com"))
	assert.Equal(t, "awa.kone@example.com", c.Email)

	assert.Equal(t, "INVALID_PHONE", shared.CodeOf(c.SetContact("call me", "")))
	assert.Equal(t, "INVALID_EMAIL", shared.CodeOf(c.SetContact("", "not-an-email")))
}

func TestClient_Rename(t *testing.T) {
	c, err := NewClient(uuid.New(), KindIndividual, Identity{LastName: "Kone"})
	require.NoError(t, err)
	c.ClearDomainEvents()
	version := c.Version

	require.NoError(t, c.Rename(Identity{FirstName: "Mariam", LastName: "Kone"}))
	assert.Equal(t, "Mariam Kone", c.DisplayName())
	assert.Equal(t, version+1, c.Version)
	assert.Len(t, c.GetDomainEvents(), 1)
}

func TestNewProfession(t *testing.T) {
	p, err := NewProfession(uuid.New(), "enseignant", "Enseignant", pricing.Discount{Kind: pricing.DiscountPercent, Value: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.Equal(t, "ENSEIGNANT", p.Code)

	_, err = NewProfession(uuid.New(), "", "Enseignant", pricing.NoDiscount())
	assert.Equal(t, "INVALID_PROFESSION_CODE", shared.CodeOf(err))

	_, err = NewProfession(uuid.New(), "DOC", "Médecin", pricing.Discount{Kind: pricing.DiscountPercent, Value: decimal.NewFromInt(150)})
	assert.Error(t, err)

	require.NoError(t, p.Update("Enseignant public", pricing.Discount{Kind: pricing.DiscountFlat, Value: decimal.NewFromInt(2000)}))
	assert.Equal(t, pricing.DiscountFlat, p.Discount.Kind)
}
