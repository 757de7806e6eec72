package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/repository"
)

type state struct {
	stores          map[int64]domain.Store
	products        map[int64]domain.Product
	inventory       map[int64]domain.InventoryRecord
	affinity        map[int64][]domain.AffinityScore
	recommendations map[int64]domain.TransferRecommendation
	feedback        map[int64]domain.ManagerFeedback

	nextStoreID          int64
	nextProductID        int64
	nextInventoryID      int64
	nextRecommendationID int64
	nextFeedbackID       int64
}

func newState() *state {
	return &state{
		stores:          make(map[int64]domain.Store),
		products:        make(map[int64]domain.Product),
		inventory:       make(map[int64]domain.InventoryRecord),
		affinity:        make(map[int64][]domain.AffinityScore),
		recommendations: make(map[int64]domain.TransferRecommendation),
		feedback:        make(map[int64]domain.ManagerFeedback),
	}
}

func (s *state) clone() *state {
	c := &state{
		stores:               make(map[int64]domain.Store, len(s.stores)),
		products:             make(map[int64]domain.Product, len(s.products)),
		inventory:            make(map[int64]domain.InventoryRecord, len(s.inventory)),
		affinity:             make(map[int64][]domain.AffinityScore, len(s.affinity)),
		recommendations:      make(map[int64]domain.TransferRecommendation, len(s.recommendations)),
		feedback:             make(map[int64]domain.ManagerFeedback, len(s.feedback)),
		nextStoreID:          s.nextStoreID,
		nextProductID:        s.nextProductID,
		nextInventoryID:      s.nextInventoryID,
		nextRecommendationID: s.nextRecommendationID,
		nextFeedbackID:       s.nextFeedbackID,
	}
	for k, v := range s.stores {
		c.stores[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.inventory {
		c.inventory[k] = v
	}
	for k, v := range s.affinity {
		c.affinity[k] = append([]domain.AffinityScore(nil), v...)
	}
	for k, v := range s.recommendations {
		c.recommendations[k] = v
	}
	for k, v := range s.feedback {
		c.feedback[k] = v
	}
	return c
}

// view implements repository.Repository over a state without locking; the
// owning Repository provides serialization.
type view struct {
	st *state
}

func (v *view) WithTx(ctx context.Context, fn func(tx repository.Repository) error) error {
	return fn(v)
}

func (v *view) ListStores(ctx context.Context) ([]domain.Store, error) {
	stores := make([]domain.Store, 0, len(v.st.stores))
	for _, s := range v.st.stores {
		stores = append(stores, s)
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i].ID < stores[j].ID })
	return stores, nil
}

func (v *view) GetStore(ctx context.Context, id int64) (*domain.Store, error) {
	s, ok := v.st.stores[id]
	if !ok {
		return nil, fmt.Errorf("store %d: %w", id, domain.ErrNotFound)
	}
	return &s, nil
}

func (v *view) SaveStore(ctx context.Context, store *domain.Store) error {
	if store.ID == 0 {
		v.st.nextStoreID++
		store.ID = v.st.nextStoreID
	} else if store.ID > v.st.nextStoreID {
		v.st.nextStoreID = store.ID
	}
	v.st.stores[store.ID] = *store
	return nil
}

func (v *view) DeleteStore(ctx context.Context, id int64) error {
	if _, ok := v.st.stores[id]; !ok {
		return fmt.Errorf("store %d: %w", id, domain.ErrNotFound)
	}
	delete(v.st.stores, id)
	delete(v.st.affinity, id)
	for recID, rec := range v.st.inventory {
		if rec.StoreID == id {
			delete(v.st.inventory, recID)
		}
	}
	for recID, rec := range v.st.recommendations {
		if rec.SourceStoreID == id || (rec.DestStoreID != nil && *rec.DestStoreID == id) {
			delete(v.st.recommendations, recID)
		}
	}
	for fbID, fb := range v.st.feedback {
		if fb.StoreID == id {
			delete(v.st.feedback, fbID)
		}
	}
	return nil
}

func (v *view) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0, len(v.st.products))
	for _, p := range v.st.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (v *view) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, ok := v.st.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (v *view) SaveProduct(ctx context.Context, product *domain.Product) error {
	if product.ID == 0 {
		v.st.nextProductID++
		product.ID = v.st.nextProductID
	} else if product.ID > v.st.nextProductID {
		v.st.nextProductID = product.ID
	}
	v.st.products[product.ID] = *product
	return nil
}

func (v *view) filterInventory(keep func(domain.InventoryRecord) bool) []domain.InventoryRecord {
	records := make([]domain.InventoryRecord, 0)
	for _, rec := range v.st.inventory {
		if keep(rec) {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

func (v *view) ListInventory(ctx context.Context) ([]domain.InventoryRecord, error) {
	return v.filterInventory(func(domain.InventoryRecord) bool { return true }), nil
}

func (v *view) ListInventoryByStore(ctx context.Context, storeID int64) ([]domain.InventoryRecord, error) {
	return v.filterInventory(func(rec domain.InventoryRecord) bool {
		return rec.StoreID == storeID
	}), nil
}

func (v *view) ListInventoryByProduct(ctx context.Context, productID int64, minQuantity int) ([]domain.InventoryRecord, error) {
	return v.filterInventory(func(rec domain.InventoryRecord) bool {
		return rec.ProductID == productID && rec.Quantity >= minQuantity
	}), nil
}

func (v *view) findInventory(storeID, productID int64) (domain.InventoryRecord, bool) {
	for _, rec := range v.st.inventory {
		if rec.StoreID == storeID && rec.ProductID == productID {
			return rec, true
		}
	}
	return domain.InventoryRecord{}, false
}

func (v *view) GetInventory(ctx context.Context, storeID, productID int64) (*domain.InventoryRecord, error) {
	rec, ok := v.findInventory(storeID, productID)
	if !ok {
		return nil, fmt.Errorf("inventory store=%d product=%d: %w", storeID, productID, domain.ErrNotFound)
	}
	return &rec, nil
}

func (v *view) GetInventoryByID(ctx context.Context, id int64) (*domain.InventoryRecord, error) {
	rec, ok := v.st.inventory[id]
	if !ok {
		return nil, fmt.Errorf("inventory %d: %w", id, domain.ErrNotFound)
	}
	return &rec, nil
}

func (v *view) SaveInventory(ctx context.Context, record *domain.InventoryRecord) error {
	if record.Quantity < 0 {
		return fmt.Errorf("inventory quantity %d: %w", record.Quantity, domain.ErrInvalidQuantity)
	}
	if _, ok := v.st.stores[record.StoreID]; !ok {
		return fmt.Errorf("store %d: %w", record.StoreID, domain.ErrNotFound)
	}
	if _, ok := v.st.products[record.ProductID]; !ok {
		return fmt.Errorf("product %d: %w", record.ProductID, domain.ErrNotFound)
	}

	if existing, ok := v.findInventory(record.StoreID, record.ProductID); ok {
		record.ID = existing.ID
	} else if record.ID == 0 {
		v.st.nextInventoryID++
		record.ID = v.st.nextInventoryID
	} else if record.ID > v.st.nextInventoryID {
		v.st.nextInventoryID = record.ID
	}
	v.st.inventory[record.ID] = *record
	return nil
}

func (v *view) DecrementInventory(ctx context.Context, storeID, productID int64, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("decrement by %d: %w", qty, domain.ErrInvalidQuantity)
	}
	rec, ok := v.findInventory(storeID, productID)
	if !ok {
		return 0, fmt.Errorf("inventory store=%d product=%d: %w", storeID, productID, domain.ErrNotFound)
	}
	if rec.Quantity < qty {
		return rec.Quantity, fmt.Errorf("store %d product %d has %d, need %d: %w",
			storeID, productID, rec.Quantity, qty, domain.ErrInsufficientStock)
	}
	rec.Quantity -= qty
	v.st.inventory[rec.ID] = rec
	return rec.Quantity, nil
}

func (v *view) IncrementInventory(ctx context.Context, storeID, productID int64, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("increment by %d: %w", qty, domain.ErrInvalidQuantity)
	}
	rec, ok := v.findInventory(storeID, productID)
	if !ok {
		rec = domain.InventoryRecord{StoreID: storeID, ProductID: productID}
		if err := v.SaveInventory(ctx, &rec); err != nil {
			return 0, err
		}
	}
	rec.Quantity += qty
	v.st.inventory[rec.ID] = rec
	return rec.Quantity, nil
}

func (v *view) ReplaceAffinity(ctx context.Context, storeID int64, scores []domain.AffinityScore) error {
	if _, ok := v.st.stores[storeID]; !ok {
		return fmt.Errorf("store %d: %w", storeID, domain.ErrNotFound)
	}
	if len(scores) == 0 {
		delete(v.st.affinity, storeID)
		return nil
	}

	byCategory := make(map[string]domain.AffinityScore, len(scores))
	for _, s := range scores {
		s.StoreID = storeID
		byCategory[s.Category] = s
	}
	replaced := make([]domain.AffinityScore, 0, len(byCategory))
	for _, s := range byCategory {
		replaced = append(replaced, s)
	}
	sortAffinity(replaced)
	v.st.affinity[storeID] = replaced
	return nil
}

func (v *view) ListAffinity(ctx context.Context, storeID int64) ([]domain.AffinityScore, error) {
	return append([]domain.AffinityScore{}, v.st.affinity[storeID]...), nil
}

func (v *view) ListAllAffinity(ctx context.Context) ([]domain.AffinityScore, error) {
	all := make([]domain.AffinityScore, 0)
	for _, scores := range v.st.affinity {
		all = append(all, scores...)
	}
	sortAffinity(all)
	return all, nil
}

func sortAffinity(scores []domain.AffinityScore) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].StoreID != scores[j].StoreID {
			return scores[i].StoreID < scores[j].StoreID
		}
		return scores[i].Category < scores[j].Category
	})
}

func (v *view) UpsertRecommendations(ctx context.Context, recs []domain.TransferRecommendation) ([]domain.TransferRecommendation, error) {
	byKey := make(map[domain.RecommendationKey]int64, len(v.st.recommendations))
	for id, rec := range v.st.recommendations {
		byKey[rec.Key()] = id
	}

	now := time.Now().UTC()
	saved := make([]domain.TransferRecommendation, 0, len(recs))
	for _, rec := range recs {
		if rec.Quantity <= 0 {
			return nil, fmt.Errorf("recommendation quantity %d: %w", rec.Quantity, domain.ErrInvalidQuantity)
		}

		if id, ok := byKey[rec.Key()]; ok {
			existing := v.st.recommendations[id]
			rec.ID = id
			rec.CreatedAt = existing.CreatedAt
		} else {
			v.st.nextRecommendationID++
			rec.ID = v.st.nextRecommendationID
			rec.CreatedAt = now
			byKey[rec.Key()] = rec.ID
		}
		rec.UpdatedAt = now
		v.st.recommendations[rec.ID] = rec
		saved = append(saved, rec)
	}
	return saved, nil
}

func (v *view) ListRecommendations(ctx context.Context) ([]domain.TransferRecommendation, error) {
	recs := make([]domain.TransferRecommendation, 0, len(v.st.recommendations))
	for _, rec := range v.st.recommendations {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	return recs, nil
}

func (v *view) GetRecommendation(ctx context.Context, id int64) (*domain.TransferRecommendation, error) {
	rec, ok := v.st.recommendations[id]
	if !ok {
		return nil, fmt.Errorf("recommendation %d: %w", id, domain.ErrNotFound)
	}
	return &rec, nil
}

func (v *view) DeleteRecommendation(ctx context.Context, id int64) error {
	if _, ok := v.st.recommendations[id]; !ok {
		return fmt.Errorf("recommendation %d: %w", id, domain.ErrNotFound)
	}
	delete(v.st.recommendations, id)
	return nil
}

func (v *view) SaveFeedback(ctx context.Context, feedback *domain.ManagerFeedback) error {
	if _, ok := v.st.stores[feedback.StoreID]; !ok {
		return fmt.Errorf("store %d: %w", feedback.StoreID, domain.ErrNotFound)
	}
	if _, ok := v.st.products[feedback.ProductID]; !ok {
		return fmt.Errorf("product %d: %w", feedback.ProductID, domain.ErrNotFound)
	}

	v.st.nextFeedbackID++
	feedback.ID = v.st.nextFeedbackID
	feedback.CreatedAt = time.Now().UTC()
	v.st.feedback[feedback.ID] = *feedback
	return nil
}

func (v *view) ListFeedback(ctx context.Context, storeID int64) ([]domain.ManagerFeedback, error) {
	out := make([]domain.ManagerFeedback, 0)
	for _, fb := range v.st.feedback {
		if fb.StoreID == storeID {
			out = append(out, fb)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
