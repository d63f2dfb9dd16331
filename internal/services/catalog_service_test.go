package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unavailable := false
	_, err := env.catalog.CreateProduct(ctx, CreateProductRequest{Name: " Old Special ", Price: dec("9"), Available: &unavailable, BaseUnitID: env.unitID})
	require.NoError(t, err)
	burger := env.addProduct(t, "Burger", "12.50", false)

	got, err := env.catalog.GetProduct(ctx, burger)
	require.NoError(t, err)
	assert.True(t, got.Available)
	assert.True(t, got.CurrentStock.IsZero())

	all, err := env.catalog.ListProducts(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Old Special", all[1].Name)

	available, err := env.catalog.ListProducts(ctx, true)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, burger, available[0].ID)

	_, err = env.catalog.GetProduct(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogCreateProductValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.catalog.CreateProduct(ctx, CreateProductRequest{Name: "  ", Price: dec("1"), BaseUnitID: env.unitID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.catalog.CreateProduct(ctx, CreateProductRequest{Name: "Soup", Price: dec("-1"), BaseUnitID: env.unitID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.catalog.CreateProduct(ctx, CreateProductRequest{Name: "Soup", Price: dec("4.005"), BaseUnitID: env.unitID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.catalog.CreateProduct(ctx, CreateProductRequest{Name: "Soup", Price: dec("4"), BaseUnitID: 999})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogUnits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	kg, err := env.catalog.CreateUnit(ctx, CreateUnitRequest{Name: " kilogram ", Symbol: "kg", ConversionFactor: dec("1000")})
	require.NoError(t, err)
	assert.Equal(t, "kilogram", kg.Name)

	got, err := env.catalog.GetUnit(ctx, kg.ID)
	require.NoError(t, err)
	assert.True(t, got.ConversionFactor.Equal(dec("1000")))

	units, err := env.catalog.ListUnits(ctx)
	require.NoError(t, err)
	assert.Len(t, units, 2)

	_, err = env.catalog.CreateUnit(ctx, CreateUnitRequest{Name: "kilo", Symbol: "kg", ConversionFactor: dec("1000")})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.catalog.CreateUnit(ctx, CreateUnitRequest{Name: "gram", Symbol: "g", ConversionFactor: decimal.Zero})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.catalog.CreateUnit(ctx, CreateUnitRequest{Name: "gram", Symbol: " ", ConversionFactor: dec("1")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.catalog.GetUnit(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogRestaurantSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rest, err := env.catalog.UpdateRestaurantSettings(ctx, env.restaurantID, UpdateRestaurantSettingsRequest{
		ServiceChargeRate: decimal.NewNullDecimal(dec("0.12")),
	})
	require.NoError(t, err)
	assert.True(t, rest.ServiceChargeRate.Equal(dec("0.12")))

	for _, bad := range []UpdateRestaurantSettingsRequest{
		{},
		{ServiceChargeRate: decimal.NewNullDecimal(dec("-0.01"))},
		{ServiceChargeRate: decimal.NewNullDecimal(dec("1.01"))},
	} {
		_, err = env.catalog.UpdateRestaurantSettings(ctx, env.restaurantID, bad)
		assert.ErrorIs(t, err, ErrValidation)
	}

	_, err = env.catalog.UpdateRestaurantSettings(ctx, 999, UpdateRestaurantSettingsRequest{ServiceChargeRate: decimal.NewNullDecimal(dec("0.1"))})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.catalog.GetRestaurantSettings(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
