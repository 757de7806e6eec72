package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests run against a disposable database named by TEST_DATABASE_URL;
// every table the engine owns is truncated first.
func newIntegrationRepo(t *testing.T) *Repository {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping PostgreSQL integration tests")
	}

	conn, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	db := Wrap(conn, 4)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, EnsureSchema(ctx, db))
	_, err = db.ExecContext(ctx, `TRUNCATE manager_feedback, transfer_recommendations, store_affinity, inventory, products, stores RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	repo := NewRepository(db)
	require.NoError(t, repo.SaveStore(ctx, &domain.Store{Name: "Manhattan", Lat: 40.7128, Lon: -74.0060, Type: domain.StoreTypeFlagship}))
	require.NoError(t, repo.SaveStore(ctx, &domain.Store{Name: "Brooklyn", Lat: 40.6782, Lon: -73.9442, Type: domain.StoreTypeOutlet}))
	require.NoError(t, repo.SaveProduct(ctx, &domain.Product{Name: "Winter Parka", Category: "Outerwear", Size: "L", Price: 120, CarbonFootprintWeight: 15}))
	require.NoError(t, repo.SaveInventory(ctx, &domain.InventoryRecord{StoreID: 1, ProductID: 1, Quantity: 60, WeeklySalesVelocity: 0.1}))
	return repo
}

func TestIntegration_DecrementInventoryIsConditional(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()

	remaining, err := repo.DecrementInventory(ctx, 1, 1, 15)
	require.NoError(t, err)
	assert.Equal(t, 45, remaining)

	remaining, err = repo.DecrementInventory(ctx, 1, 1, 46)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 45, remaining)

	rec, err := repo.GetInventory(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 45, rec.Quantity)

	_, err = repo.DecrementInventory(ctx, 2, 1, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	total, err := repo.IncrementInventory(ctx, 2, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	byID, err := repo.GetInventoryByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byID.StoreID)
	_, err = repo.GetInventoryByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIntegration_WithTxRollsBack(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.WithTx(ctx, func(tx repository.Repository) error {
		if _, err := tx.DecrementInventory(ctx, 1, 1, 10); err != nil {
			return err
		}
		if _, err := tx.IncrementInventory(ctx, 2, 1, 10); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rec, err := repo.GetInventory(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 60, rec.Quantity)
	_, err = repo.GetInventory(ctx, 2, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIntegration_UpsertRecommendationsFoldsOnlineKey(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()

	online := domain.TransferRecommendation{
		SourceStoreID: 1, ProductID: 1, Quantity: 18, CO2Saved: 2.5,
		Status: domain.StatusPending, Method: domain.MethodOnlineSale,
	}
	first, err := repo.UpsertRecommendations(ctx, []domain.TransferRecommendation{online})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Nil(t, first[0].DestStoreID)

	online.Quantity = 12
	second, err := repo.UpsertRecommendations(ctx, []domain.TransferRecommendation{online, {
		SourceStoreID: 1, DestStoreID: domain.Int64Ptr(2), ProductID: 1, Quantity: 6,
		Status: domain.StatusPending, Method: domain.MethodStoreTransfer,
	}})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[0].CreatedAt, second[0].CreatedAt)

	all, err := repo.ListRecommendations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 12, all[0].Quantity)
	require.NotNil(t, all[1].DestStoreID)
	assert.Equal(t, int64(2), *all[1].DestStoreID)
}

func TestIntegration_ReplaceAffinity(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAffinity(ctx, 1, []domain.AffinityScore{
		{Category: "Outerwear", Score: 9},
		{Category: "Tops", Score: 6},
	}))
	require.NoError(t, repo.ReplaceAffinity(ctx, 1, []domain.AffinityScore{{Category: "Outerwear", Score: 12}}))

	scores, err := repo.ListAffinity(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.AffinityScore{{StoreID: 1, Category: "Outerwear", Score: 12}}, scores)

	require.NoError(t, repo.ReplaceAffinity(ctx, 1, nil))
	all, err := repo.ListAllAffinity(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.ErrorIs(t, repo.ReplaceAffinity(ctx, 9, nil), domain.ErrNotFound)
}

func TestIntegration_FeedbackCascadesWithStore(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()

	comment := "too warm for the season"
	fb := &domain.ManagerFeedback{StoreID: 2, ProductID: 1, Comment: &comment, FeedbackType: "reject"}
	require.NoError(t, repo.SaveFeedback(ctx, fb))
	assert.NotZero(t, fb.ID)
	assert.False(t, fb.CreatedAt.IsZero())

	err := repo.SaveFeedback(ctx, &domain.ManagerFeedback{StoreID: 9, ProductID: 1, FeedbackType: "reject"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	listed, err := repo.ListFeedback(ctx, 2)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].Comment)
	assert.Equal(t, comment, *listed[0].Comment)

	require.NoError(t, repo.DeleteStore(ctx, 2))
	listed, err = repo.ListFeedback(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
