package transfer

import (
	"context"
	"testing"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T) *memory.Repository {
	t.Helper()
	ctx := context.Background()
	repo := memory.NewRepository()

	require.NoError(t, repo.SaveStore(ctx, &domain.Store{Name: "Manhattan", Lat: 40.7128, Lon: -74.0060, Type: domain.StoreTypeFlagship}))
	require.NoError(t, repo.SaveStore(ctx, &domain.Store{Name: "Brooklyn", Lat: 40.6782, Lon: -73.9442, Type: domain.StoreTypeOutlet}))
	require.NoError(t, repo.SaveProduct(ctx, &domain.Product{Name: "Winter Parka", Category: "Outerwear", Price: 120, CarbonFootprintWeight: 15}))
	require.NoError(t, repo.SaveInventory(ctx, &domain.InventoryRecord{StoreID: 1, ProductID: 1, Quantity: 60, WeeklySalesVelocity: 0.1}))
	return repo
}

func quantity(t *testing.T, repo *memory.Repository, storeID int64) int {
	t.Helper()
	rec, err := repo.GetInventory(context.Background(), storeID, 1)
	if err != nil {
		return -1
	}
	return rec.Quantity
}

func recommend(t *testing.T, repo *memory.Repository, rec domain.TransferRecommendation) int64 {
	t.Helper()
	saved, err := repo.UpsertRecommendations(context.Background(), []domain.TransferRecommendation{rec})
	require.NoError(t, err)
	return saved[0].ID
}

func TestApprove_StoreTransferCreatesDestinationRecord(t *testing.T) {
	repo := fixture(t)
	ctx := context.Background()
	id := recommend(t, repo, domain.TransferRecommendation{
		SourceStoreID: 1, DestStoreID: domain.Int64Ptr(2), ProductID: 1, Quantity: 18,
		Status: domain.StatusPending, Method: domain.MethodStoreTransfer,
	})

	approved, err := NewService(repo).Approve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 18, approved.Quantity)

	assert.Equal(t, 42, quantity(t, repo, 1))
	assert.Equal(t, 18, quantity(t, repo, 2))

	dest, err := repo.GetInventory(ctx, 2, 1)
	require.NoError(t, err)
	assert.Zero(t, dest.WeeklySalesVelocity)

	_, err = repo.GetRecommendation(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApprove_OnlineSaleOnlyDecrementsSource(t *testing.T) {
	repo := fixture(t)
	id := recommend(t, repo, domain.TransferRecommendation{
		SourceStoreID: 1, ProductID: 1, Quantity: 30,
		Status: domain.StatusApproved, Method: domain.MethodOnlineSale,
	})

	_, err := NewService(repo).Approve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 30, quantity(t, repo, 1))
	assert.Equal(t, -1, quantity(t, repo, 2))
}

func TestApprove_InsufficientStockChangesNothing(t *testing.T) {
	repo := fixture(t)
	ctx := context.Background()
	id := recommend(t, repo, domain.TransferRecommendation{
		SourceStoreID: 1, DestStoreID: domain.Int64Ptr(2), ProductID: 1, Quantity: 18,
		Status: domain.StatusPending, Method: domain.MethodStoreTransfer,
	})
	// an order drained the source after the recommendation was made
	_, err := repo.DecrementInventory(ctx, 1, 1, 50)
	require.NoError(t, err)

	_, err = NewService(repo).Approve(ctx, id)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 10, quantity(t, repo, 1))
	assert.Equal(t, -1, quantity(t, repo, 2))
	_, err = repo.GetRecommendation(ctx, id)
	assert.NoError(t, err)
}

func TestApprove_UnknownRecommendation(t *testing.T) {
	_, err := NewService(fixture(t)).Approve(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReject(t *testing.T) {
	repo := fixture(t)
	ctx := context.Background()
	id := recommend(t, repo, domain.TransferRecommendation{
		SourceStoreID: 1, DestStoreID: domain.Int64Ptr(2), ProductID: 1, Quantity: 500,
		Status: domain.StatusPending, Method: domain.MethodStoreTransfer,
	})
	svc := NewService(repo)

	require.NoError(t, svc.Reject(ctx, id))
	assert.Equal(t, 60, quantity(t, repo, 1))

	assert.ErrorIs(t, svc.Reject(ctx, id), domain.ErrNotFound)
}

func TestTransfer(t *testing.T) {
	repo := fixture(t)
	ctx := context.Background()
	svc := NewService(repo)

	result, err := svc.Transfer(ctx, domain.ManualTransfer{SourceStoreID: 1, DestStoreID: 2, ProductID: 1, Quantity: 25})
	require.NoError(t, err)
	assert.Equal(t, 35, result.NewSourceQty)
	assert.Equal(t, 25, result.NewDestQty)
	assert.Equal(t, 35, quantity(t, repo, 1))
	assert.Equal(t, 25, quantity(t, repo, 2))

	_, err = svc.Transfer(ctx, domain.ManualTransfer{SourceStoreID: 2, DestStoreID: 1, ProductID: 1, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 40, quantity(t, repo, 1))
	assert.Equal(t, 20, quantity(t, repo, 2))
}

func TestTransfer_ByInventoryID(t *testing.T) {
	repo := fixture(t)
	ctx := context.Background()
	svc := NewService(repo)

	source, err := repo.GetInventory(ctx, 1, 1)
	require.NoError(t, err)

	result, err := svc.Transfer(ctx, domain.ManualTransfer{InventoryID: source.ID, DestStoreID: 2, Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.SourceStoreID)
	assert.Equal(t, int64(1), result.ProductID)
	assert.Equal(t, 50, result.NewSourceQty)
	assert.Equal(t, 50, quantity(t, repo, 1))
	assert.Equal(t, 10, quantity(t, repo, 2))

	_, err = svc.Transfer(ctx, domain.ManualTransfer{InventoryID: 999, DestStoreID: 2, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Transfer(ctx, domain.ManualTransfer{InventoryID: source.ID, DestStoreID: 1, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Equal(t, 50, quantity(t, repo, 1))
}

func TestTransfer_Rejections(t *testing.T) {
	repo := fixture(t)
	ctx := context.Background()
	svc := NewService(repo)

	tests := []struct {
		name    string
		req     domain.ManualTransfer
		wantErr error
	}{
		{"no source", domain.ManualTransfer{DestStoreID: 2, Quantity: 1}, domain.ErrInvalidRequest},
		{"zero quantity", domain.ManualTransfer{SourceStoreID: 1, DestStoreID: 2, ProductID: 1}, domain.ErrInvalidQuantity},
		{"same store", domain.ManualTransfer{SourceStoreID: 1, DestStoreID: 1, ProductID: 1, Quantity: 1}, domain.ErrInvalidQuantity},
		{"more than on hand", domain.ManualTransfer{SourceStoreID: 1, DestStoreID: 2, ProductID: 1, Quantity: 61}, domain.ErrInsufficientStock},
		{"unknown destination", domain.ManualTransfer{SourceStoreID: 1, DestStoreID: 9, ProductID: 1, Quantity: 1}, domain.ErrNotFound},
		{"no source record", domain.ManualTransfer{SourceStoreID: 2, DestStoreID: 1, ProductID: 1, Quantity: 1}, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Transfer(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 60, quantity(t, repo, 1))
		})
	}
}
