package routing

import (
	"context"
	"sync"
	"testing"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// customer sits on the equator; one degree of longitude there is ~111.2 km.
func fixture(t *testing.T) *memory.Repository {
	t.Helper()
	ctx := context.Background()
	repo := memory.NewRepository()

	stores := []domain.Store{
		{Name: "Far Outlet", Lat: 0, Lon: 0.8993, Type: domain.StoreTypeOutlet},
		{Name: "Corner Flagship", Lat: 0, Lon: 0.017986, Type: domain.StoreTypeFlagship},
	}
	for i := range stores {
		require.NoError(t, repo.SaveStore(ctx, &stores[i]))
	}
	require.NoError(t, repo.SaveProduct(ctx, &domain.Product{Name: "Rain Jacket", Category: "Outerwear", Price: 90, CarbonFootprintWeight: 12}))

	require.NoError(t, repo.SaveInventory(ctx, &domain.InventoryRecord{StoreID: 1, ProductID: 1, Quantity: 5, WeeklySalesVelocity: 1.5}))
	require.NoError(t, repo.SaveInventory(ctx, &domain.InventoryRecord{StoreID: 2, ProductID: 1, Quantity: 9, WeeklySalesVelocity: 8}))
	return repo
}

func TestRoute_PrefersDeadStockOverDistance(t *testing.T) {
	repo := fixture(t)
	ctx := context.Background()

	got, err := NewRouter(repo, 0).Route(ctx, domain.Order{ProductID: 1, Quantity: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(1), got.StoreID)
	assert.Equal(t, "Far Outlet", got.StoreName)
	assert.Equal(t, domain.ReasonDeadStockClearance, got.Reason)
	assert.InDelta(t, 100.0, got.DistanceKm, 0.01)
	assert.Equal(t, 4, got.RemainingQuantity)
}

func TestRoute_NearestWhenDeadStockCannotCover(t *testing.T) {
	repo := fixture(t)
	ctx := context.Background()

	got, err := NewRouter(repo, 0).Route(ctx, domain.Order{ProductID: 1, Quantity: 6})
	require.NoError(t, err)

	assert.Equal(t, int64(2), got.StoreID)
	assert.Equal(t, domain.ReasonNearestStock, got.Reason)
	assert.InDelta(t, 2.0, got.DistanceKm, 0.01)
	assert.Equal(t, 3, got.RemainingQuantity)
}

func TestRoute_OutOfStockLeavesInventoryUntouched(t *testing.T) {
	repo := fixture(t)
	ctx := context.Background()

	before, err := repo.ListInventory(ctx)
	require.NoError(t, err)

	_, err = NewRouter(repo, 0).Route(ctx, domain.Order{ProductID: 1, Quantity: 10})
	require.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.Equal(t, "product 1 quantity 10: Out of Stock", err.Error())

	after, err := repo.ListInventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRoute_InvalidInput(t *testing.T) {
	router := NewRouter(fixture(t), 0)
	ctx := context.Background()

	_, err := router.Route(ctx, domain.Order{ProductID: 1, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = router.Route(ctx, domain.Order{ProductID: 77, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoute_ConcurrentOrdersNeverOversell(t *testing.T) {
	repo := fixture(t)
	ctx := context.Background()
	router := NewRouter(repo, 0)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		served int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := router.Route(ctx, domain.Order{ProductID: 1, Quantity: 1}); err == nil {
				mu.Lock()
				served++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 14, served)
	records, err := repo.ListInventory(ctx)
	require.NoError(t, err)
	for _, rec := range records {
		assert.Zero(t, rec.Quantity)
	}
}
