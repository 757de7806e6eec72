package seed

import (
	"context"
	"testing"

	"github.com/andresuchdata/eco-inventory/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()

	summary, err := Load(ctx, repo, Options{Seed: 7, WithRecommendations: true})
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Stores)
	assert.Equal(t, 26, summary.Products)
	assert.Equal(t, 10, summary.Recommendations)
	assert.GreaterOrEqual(t, summary.Inventory, len(scenarioInventory()))

	parka, err := repo.GetInventory(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 60, parka.Quantity)
	assert.Equal(t, 0.1, parka.WeeklySalesVelocity)

	products, err := repo.ListProducts(ctx)
	require.NoError(t, err)
	assert.Nil(t, products[13].ImageURL)
	require.NotNil(t, products[0].ImageURL)
	assert.Contains(t, *products[0].ImageURL, "photo-1539533018447-63fcce6a25e8")
}

func TestLoad_IsDeterministicAndRerunnable(t *testing.T) {
	ctx := context.Background()

	first := memory.NewRepository()
	_, err := Load(ctx, first, Options{Seed: 42, WithRecommendations: true})
	require.NoError(t, err)
	second := memory.NewRepository()
	_, err = Load(ctx, second, Options{Seed: 42, WithRecommendations: true})
	require.NoError(t, err)

	a, err := first.ListInventory(ctx)
	require.NoError(t, err)
	b, err := second.ListInventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// loading again overwrites rather than duplicates
	_, err = Load(ctx, first, Options{Seed: 42, WithRecommendations: true})
	require.NoError(t, err)
	again, err := first.ListInventory(ctx)
	require.NoError(t, err)
	assert.Len(t, again, len(a))

	recs, err := first.ListRecommendations(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 10)
}

func TestFillerInventorySkipsScenarioPairs(t *testing.T) {
	scenario := map[[2]int64]bool{}
	taken := map[[2]int64]bool{}
	for _, rec := range scenarioInventory() {
		scenario[[2]int64{rec.StoreID, rec.ProductID}] = true
		taken[[2]int64{rec.StoreID, rec.ProductID}] = true
	}

	filler := fillerInventory(Products(), taken, newRand(3))
	require.NotEmpty(t, filler)
	for _, rec := range filler {
		assert.False(t, scenario[[2]int64{rec.StoreID, rec.ProductID}])
		assert.Contains(t, []int64{1, 2}, rec.StoreID)
		assert.GreaterOrEqual(t, rec.Quantity, 5)
		assert.LessOrEqual(t, rec.Quantity, 30)
	}
}
