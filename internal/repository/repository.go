// internal/repository/repository.go
package repository

import (
	"context"

	"github.com/andresuchdata/eco-inventory/internal/domain"
)

type StoreRepository interface {
	// ListStores returns all stores ordered by ascending ID.
	ListStores(ctx context.Context) ([]domain.Store, error)
	GetStore(ctx context.Context, id int64) (*domain.Store, error)
	// SaveStore inserts a store when ID is zero (assigning the ID) and updates it otherwise.
	SaveStore(ctx context.Context, store *domain.Store) error
	// DeleteStore removes the store together with its inventory, affinity,
	// recommendations and feedback.
	DeleteStore(ctx context.Context, id int64) error
}

type ProductRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	SaveProduct(ctx context.Context, product *domain.Product) error
}

type InventoryRepository interface {
	// ListInventory returns every inventory record ordered by ascending ID.
	ListInventory(ctx context.Context) ([]domain.InventoryRecord, error)
	ListInventoryByStore(ctx context.Context, storeID int64) ([]domain.InventoryRecord, error)
	// ListInventoryByProduct returns records of a product holding at least minQuantity units.
	ListInventoryByProduct(ctx context.Context, productID int64, minQuantity int) ([]domain.InventoryRecord, error)
	GetInventory(ctx context.Context, storeID, productID int64) (*domain.InventoryRecord, error)
	GetInventoryByID(ctx context.Context, id int64) (*domain.InventoryRecord, error)
	// SaveInventory upserts the record keyed by (store, product).
	SaveInventory(ctx context.Context, record *domain.InventoryRecord) error
	// DecrementInventory removes qty units only if at least qty are on hand at
	// commit time, returning the remaining quantity.
	DecrementInventory(ctx context.Context, storeID, productID int64, qty int) (int, error)
	// IncrementInventory adds qty units, creating the record when missing.
	IncrementInventory(ctx context.Context, storeID, productID int64, qty int) (int, error)
}

type AffinityRepository interface {
	// ReplaceAffinity atomically swaps the store's scores for the given set.
	ReplaceAffinity(ctx context.Context, storeID int64, scores []domain.AffinityScore) error
	ListAffinity(ctx context.Context, storeID int64) ([]domain.AffinityScore, error)
	ListAllAffinity(ctx context.Context) ([]domain.AffinityScore, error)
}

type RecommendationRepository interface {
	// UpsertRecommendations stores recommendations keyed by (source, destination, product),
	// replacing any existing row with the same key, and returns them with IDs assigned.
	UpsertRecommendations(ctx context.Context, recs []domain.TransferRecommendation) ([]domain.TransferRecommendation, error)
	ListRecommendations(ctx context.Context) ([]domain.TransferRecommendation, error)
	GetRecommendation(ctx context.Context, id int64) (*domain.TransferRecommendation, error)
	DeleteRecommendation(ctx context.Context, id int64) error
}

type FeedbackRepository interface {
	// SaveFeedback inserts the feedback, assigning ID and CreatedAt. The store
	// and product must exist.
	SaveFeedback(ctx context.Context, feedback *domain.ManagerFeedback) error
	// ListFeedback returns a store's feedback, oldest first.
	ListFeedback(ctx context.Context, storeID int64) ([]domain.ManagerFeedback, error)
}

// Repository is the full persistence surface consumed by the engine.
type Repository interface {
	StoreRepository
	ProductRepository
	InventoryRepository
	AffinityRepository
	RecommendationRepository
	FeedbackRepository

	// WithTx runs fn against a transactional view; any error rolls back every
	// write made through tx. Nested calls join the outer transaction.
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
