package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()
	repo := NewRepository()

	require.NoError(t, repo.SaveStore(ctx, &domain.Store{Name: "Manhattan", Lat: 40.7128, Lon: -74.0060, Type: domain.StoreTypeFlagship}))
	require.NoError(t, repo.SaveStore(ctx, &domain.Store{Name: "Brooklyn", Lat: 40.6782, Lon: -73.9442, Type: domain.StoreTypeOutlet}))
	require.NoError(t, repo.SaveProduct(ctx, &domain.Product{Name: "Winter Parka", Category: "Outerwear", Price: 120, CarbonFootprintWeight: 15}))
	require.NoError(t, repo.SaveInventory(ctx, &domain.InventoryRecord{StoreID: 1, ProductID: 1, Quantity: 60, WeeklySalesVelocity: 0.1}))
	return repo
}

func TestRepository_AssignsIDs(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	stores, err := repo.ListStores(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, int64(1), stores[0].ID)
	assert.Equal(t, int64(2), stores[1].ID)

	_, err = repo.GetStore(ctx, 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_SaveInventoryUpsertsByStoreAndProduct(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	rec := &domain.InventoryRecord{StoreID: 1, ProductID: 1, Quantity: 5, WeeklySalesVelocity: 3}
	require.NoError(t, repo.SaveInventory(ctx, rec))
	assert.Equal(t, int64(1), rec.ID)

	all, err := repo.ListInventory(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 5, all[0].Quantity)

	err = repo.SaveInventory(ctx, &domain.InventoryRecord{StoreID: 7, ProductID: 1, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_DecrementInventory(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	left, err := repo.DecrementInventory(ctx, 1, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 50, left)

	_, err = repo.DecrementInventory(ctx, 1, 1, 51)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = repo.DecrementInventory(ctx, 2, 1, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.DecrementInventory(ctx, 1, 1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	rec, err := repo.GetInventory(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 50, rec.Quantity)
}

func TestRepository_IncrementCreatesMissingRecord(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	qty, err := repo.IncrementInventory(ctx, 2, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, qty)

	rec, err := repo.GetInventory(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Quantity)
	assert.Equal(t, 0.0, rec.WeeklySalesVelocity)
}

func TestRepository_WithTxRollsBackOnError(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.WithTx(ctx, func(tx repository.Repository) error {
		if _, err := tx.DecrementInventory(ctx, 1, 1, 20); err != nil {
			return err
		}
		if _, err := tx.IncrementInventory(ctx, 2, 1, 20); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	src, err := repo.GetInventory(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 60, src.Quantity)
	_, err = repo.GetInventory(ctx, 2, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_WithTxCommits(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	err := repo.WithTx(ctx, func(tx repository.Repository) error {
		_, err := tx.DecrementInventory(ctx, 1, 1, 20)
		return err
	})
	require.NoError(t, err)

	src, err := repo.GetInventory(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 40, src.Quantity)
}

func TestRepository_ReplaceAffinity(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAffinity(ctx, 1, []domain.AffinityScore{
		{Category: "Tops", Score: 6},
		{Category: "Outerwear", Score: 9},
	}))
	require.NoError(t, repo.ReplaceAffinity(ctx, 1, []domain.AffinityScore{
		{Category: "Outerwear", Score: 7},
	}))

	scores, err := repo.ListAffinity(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.AffinityScore{{StoreID: 1, Category: "Outerwear", Score: 7}}, scores)

	require.NoError(t, repo.ReplaceAffinity(ctx, 1, nil))
	scores, err = repo.ListAffinity(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestRepository_UpsertRecommendationsIsKeyed(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	rec := domain.TransferRecommendation{
		SourceStoreID: 1, DestStoreID: domain.Int64Ptr(2), ProductID: 1,
		Quantity: 18, CO2Saved: 1.94, Status: domain.StatusPending, Method: domain.MethodStoreTransfer,
	}
	online := domain.TransferRecommendation{
		SourceStoreID: 1, ProductID: 1, Quantity: 30, Status: domain.StatusApproved, Method: domain.MethodOnlineSale,
	}

	first, err := repo.UpsertRecommendations(ctx, []domain.TransferRecommendation{rec, online})
	require.NoError(t, err)
	require.Len(t, first, 2)

	rec.Quantity = 12
	second, err := repo.UpsertRecommendations(ctx, []domain.TransferRecommendation{rec, online})
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[1].ID, second[1].ID)

	all, err := repo.ListRecommendations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 12, all[0].Quantity)
}

func TestRepository_DeleteStoreCascades(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAffinity(ctx, 1, []domain.AffinityScore{{Category: "Outerwear", Score: 9}}))
	_, err := repo.UpsertRecommendations(ctx, []domain.TransferRecommendation{{
		SourceStoreID: 2, DestStoreID: domain.Int64Ptr(1), ProductID: 1, Quantity: 1,
		Status: domain.StatusPending, Method: domain.MethodStoreTransfer,
	}})
	require.NoError(t, err)
	require.NoError(t, repo.SaveFeedback(ctx, &domain.ManagerFeedback{StoreID: 1, ProductID: 1, FeedbackType: "reject"}))

	require.NoError(t, repo.DeleteStore(ctx, 1))

	inv, err := repo.ListInventoryByStore(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, inv)
	all, err := repo.ListAllAffinity(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	recs, err := repo.ListRecommendations(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
	fb, err := repo.ListFeedback(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, fb)
}

func TestRepository_GetInventoryByID(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	rec, err := repo.GetInventoryByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.StoreID)
	assert.Equal(t, 60, rec.Quantity)

	_, err = repo.GetInventoryByID(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_SaveFeedback(t *testing.T) {
	repo := seeded(t)
	ctx := context.Background()

	comment := "customers keep asking for larger sizes"
	first := &domain.ManagerFeedback{StoreID: 2, ProductID: 1, Comment: &comment, FeedbackType: "demand"}
	require.NoError(t, repo.SaveFeedback(ctx, first))
	assert.Equal(t, int64(1), first.ID)
	assert.False(t, first.CreatedAt.IsZero())
	require.NoError(t, repo.SaveFeedback(ctx, &domain.ManagerFeedback{StoreID: 2, ProductID: 1, FeedbackType: "reject"}))

	err := repo.SaveFeedback(ctx, &domain.ManagerFeedback{StoreID: 9, ProductID: 1, FeedbackType: "reject"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	err = repo.SaveFeedback(ctx, &domain.ManagerFeedback{StoreID: 1, ProductID: 9, FeedbackType: "reject"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := repo.ListFeedback(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "demand", got[0].FeedbackType)
	require.NotNil(t, got[0].Comment)
	assert.Equal(t, comment, *got[0].Comment)
	assert.Nil(t, got[1].Comment)
}
