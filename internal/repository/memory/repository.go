package memory

import (
	"context"
	"sync"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/repository"
)

// Repository is an in-memory repository.Repository. Every call is serialized
// by a single mutex; WithTx works on a copy that is swapped in on success.
type Repository struct {
	mu sync.Mutex
	st *state
}

// NewRepository creates an empty in-memory repository
func NewRepository() *Repository {
	return &Repository{st: newState()}
}

// Verify interface compliance
var (
	_ repository.Repository = (*Repository)(nil)
	_ repository.Repository = (*view)(nil)
)

func (r *Repository) do(fn func(v *view) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&view{st: r.st})
}

// WithTx runs fn on a snapshot of the data and commits it only if fn succeeds
func (r *Repository) WithTx(ctx context.Context, fn func(tx repository.Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.st.clone()
	if err := fn(&view{st: snapshot}); err != nil {
		return err
	}
	r.st = snapshot
	return nil
}

func (r *Repository) ListStores(ctx context.Context) (out []domain.Store, err error) {
	err = r.do(func(v *view) error {
		out, err = v.ListStores(ctx)
		return err
	})
	return
}

func (r *Repository) GetStore(ctx context.Context, id int64) (out *domain.Store, err error) {
	err = r.do(func(v *view) error {
		out, err = v.GetStore(ctx, id)
		return err
	})
	return
}

func (r *Repository) SaveStore(ctx context.Context, store *domain.Store) error {
	return r.do(func(v *view) error {
		return v.SaveStore(ctx, store)
	})
}

func (r *Repository) DeleteStore(ctx context.Context, id int64) error {
	return r.do(func(v *view) error {
		return v.DeleteStore(ctx, id)
	})
}

func (r *Repository) ListProducts(ctx context.Context) (out []domain.Product, err error) {
	err = r.do(func(v *view) error {
		out, err = v.ListProducts(ctx)
		return err
	})
	return
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (out *domain.Product, err error) {
	err = r.do(func(v *view) error {
		out, err = v.GetProduct(ctx, id)
		return err
	})
	return
}

func (r *Repository) SaveProduct(ctx context.Context, product *domain.Product) error {
	return r.do(func(v *view) error {
		return v.SaveProduct(ctx, product)
	})
}

func (r *Repository) ListInventory(ctx context.Context) (out []domain.InventoryRecord, err error) {
	err = r.do(func(v *view) error {
		out, err = v.ListInventory(ctx)
		return err
	})
	return
}

func (r *Repository) ListInventoryByStore(ctx context.Context, storeID int64) (out []domain.InventoryRecord, err error) {
	err = r.do(func(v *view) error {
		out, err = v.ListInventoryByStore(ctx, storeID)
		return err
	})
	return
}

func (r *Repository) ListInventoryByProduct(ctx context.Context, productID int64, minQuantity int) (out []domain.InventoryRecord, err error) {
	err = r.do(func(v *view) error {
		out, err = v.ListInventoryByProduct(ctx, productID, minQuantity)
		return err
	})
	return
}

func (r *Repository) GetInventory(ctx context.Context, storeID, productID int64) (out *domain.InventoryRecord, err error) {
	err = r.do(func(v *view) error {
		out, err = v.GetInventory(ctx, storeID, productID)
		return err
	})
	return
}

func (r *Repository) GetInventoryByID(ctx context.Context, id int64) (out *domain.InventoryRecord, err error) {
	err = r.do(func(v *view) error {
		out, err = v.GetInventoryByID(ctx, id)
		return err
	})
	return
}

func (r *Repository) SaveInventory(ctx context.Context, record *domain.InventoryRecord) error {
	return r.do(func(v *view) error {
		return v.SaveInventory(ctx, record)
	})
}

func (r *Repository) DecrementInventory(ctx context.Context, storeID, productID int64, qty int) (out int, err error) {
	err = r.do(func(v *view) error {
		out, err = v.DecrementInventory(ctx, storeID, productID, qty)
		return err
	})
	return
}

func (r *Repository) IncrementInventory(ctx context.Context, storeID, productID int64, qty int) (out int, err error) {
	err = r.do(func(v *view) error {
		out, err = v.IncrementInventory(ctx, storeID, productID, qty)
		return err
	})
	return
}

func (r *Repository) ReplaceAffinity(ctx context.Context, storeID int64, scores []domain.AffinityScore) error {
	return r.do(func(v *view) error {
		return v.ReplaceAffinity(ctx, storeID, scores)
	})
}

func (r *Repository) ListAffinity(ctx context.Context, storeID int64) (out []domain.AffinityScore, err error) {
	err = r.do(func(v *view) error {
		out, err = v.ListAffinity(ctx, storeID)
		return err
	})
	return
}

func (r *Repository) ListAllAffinity(ctx context.Context) (out []domain.AffinityScore, err error) {
	err = r.do(func(v *view) error {
		out, err = v.ListAllAffinity(ctx)
		return err
	})
	return
}

func (r *Repository) UpsertRecommendations(ctx context.Context, recs []domain.TransferRecommendation) (out []domain.TransferRecommendation, err error) {
	err = r.do(func(v *view) error {
		out, err = v.UpsertRecommendations(ctx, recs)
		return err
	})
	return
}

func (r *Repository) ListRecommendations(ctx context.Context) (out []domain.TransferRecommendation, err error) {
	err = r.do(func(v *view) error {
		out, err = v.ListRecommendations(ctx)
		return err
	})
	return
}

func (r *Repository) GetRecommendation(ctx context.Context, id int64) (out *domain.TransferRecommendation, err error) {
	err = r.do(func(v *view) error {
		out, err = v.GetRecommendation(ctx, id)
		return err
	})
	return
}

func (r *Repository) DeleteRecommendation(ctx context.Context, id int64) error {
	return r.do(func(v *view) error {
		return v.DeleteRecommendation(ctx, id)
	})
}

func (r *Repository) SaveFeedback(ctx context.Context, feedback *domain.ManagerFeedback) error {
	return r.do(func(v *view) error {
		return v.SaveFeedback(ctx, feedback)
	})
}

func (r *Repository) ListFeedback(ctx context.Context, storeID int64) (out []domain.ManagerFeedback, err error) {
	err = r.do(func(v *view) error {
		out, err = v.ListFeedback(ctx, storeID)
		return err
	})
	return
}
