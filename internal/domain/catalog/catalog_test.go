package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
)

func testPackages() []Package {
	return []Package{
		{ID: "starter", Name: "Starter", Credits: 5, Price: decimal.RequireFromString("4.99"), Currency: "usd", PriceRef: "P_STARTER"},
		{ID: "basic", Name: "Basic", Credits: 15, Price: decimal.RequireFromString("9.99"), Currency: "usd", PriceRef: "P_BASIC"},
		{ID: "premium", Name: "Premium", Credits: 35, Price: decimal.RequireFromString("19.99"), Currency: "usd", PriceRef: "P_PREMIUM"},
		{ID: "enterprise", Name: "Enterprise", Credits: 100, Price: decimal.RequireFromString("49.99"), Currency: "usd", PriceRef: "P_ENTERPRISE"},
	}
}

func TestCatalog_Lookups(t *testing.T) {
	c, err := New(testPackages())
	require.NoError(t, err)

	p, err := c.ByID("basic")
	require.NoError(t, err)
	assert.Equal(t, int64(15), p.Credits)

	p, ok := c.ByPriceRef("P_ENTERPRISE")
	require.True(t, ok)
	assert.Equal(t, "enterprise", p.ID)

	_, ok = c.ByPriceRef("P_UNKNOWN")
	assert.False(t, ok)

	_, err = c.ByID("gold")
	assert.ErrorIs(t, err, domainerrors.ErrPackageNotFound)

	assert.Len(t, c.Packages(), 4)
	assert.Equal(t, "starter", c.Packages()[0].ID)
}

func TestCatalog_PricePerCredit(t *testing.T) {
	p := Package{Credits: 15, Price: decimal.RequireFromString("9.99")}
	assert.Equal(t, "0.67", p.PricePerCredit().StringFixed(2))
	assert.True(t, Package{}.PricePerCredit().IsZero())
}

func TestCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		packages []Package
	}{
		{"empty", nil},
		{"zero credits", []Package{{ID: "a", Credits: 0, PriceRef: "P_A"}}},
		{"missing price ref", []Package{{ID: "a", Credits: 5}}},
		{"duplicate id", []Package{{ID: "a", Credits: 5, PriceRef: "P_A"}, {ID: "a", Credits: 5, PriceRef: "P_B"}}},
		{"duplicate price ref", []Package{{ID: "a", Credits: 5, PriceRef: "P_A"}, {ID: "b", Credits: 5, PriceRef: "P_A"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.packages)
			assert.Error(t, err)
		})
	}
}
