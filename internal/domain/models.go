// internal/domain/models.go
package domain

import "time"

// Store represents a physical store location
type Store struct {
	ID   int64     `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
	Lat  float64   `json:"lat" db:"lat"`
	Lon  float64   `json:"lon" db:"lon"`
	Type StoreType `json:"type" db:"type"`
}

// Product is immutable catalog data
type Product struct {
	ID                    int64   `json:"id" db:"id"`
	Name                  string  `json:"name" db:"name"`
	Category              string  `json:"category" db:"category"`
	Size                  string  `json:"size" db:"size"`
	Price                 float64 `json:"price" db:"price"`
	CarbonFootprintWeight float64 `json:"carbon_footprint_weight" db:"carbon_footprint_weight"`
	ImageURL              *string `json:"image_url,omitempty" db:"image_url"`
}

// InventoryRecord is the on-hand stock of one product in one store
type InventoryRecord struct {
	ID                  int64      `json:"id" db:"id"`
	StoreID             int64      `json:"store_id" db:"store_id"`
	ProductID           int64      `json:"product_id" db:"product_id"`
	Quantity            int        `json:"quantity" db:"quantity"`
	WeeklySalesVelocity float64    `json:"weekly_sales_velocity" db:"weekly_sales_velocity"`
	LastRestockDate     *time.Time `json:"last_restock_date,omitempty" db:"last_restock_date"`
}

// AffinityScore is a store's derived propensity to sell a category
type AffinityScore struct {
	StoreID  int64   `json:"store_id" db:"store_id"`
	Category string  `json:"category" db:"category"`
	Score    float64 `json:"score" db:"score"`
}

// TransferRecommendation moves overstock to another store or to the online channel.
// A nil DestStoreID means online/direct sale.
type TransferRecommendation struct {
	ID            int64                `json:"id" db:"id"`
	SourceStoreID int64                `json:"source_store_id" db:"source_store_id"`
	DestStoreID   *int64               `json:"dest_store_id" db:"dest_store_id"`
	ProductID     int64                `json:"product_id" db:"product_id"`
	Quantity      int                  `json:"quantity" db:"quantity"`
	CO2Saved      float64              `json:"co2_saved" db:"co2_saved"`
	Status        RecommendationStatus `json:"status" db:"status"`
	Method        TransferMethod       `json:"method" db:"method"`
	CreatedAt     time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" db:"updated_at"`
}

// IsOnline reports whether the recommendation targets the online channel.
func (r TransferRecommendation) IsOnline() bool {
	return r.DestStoreID == nil
}

// Key returns the identity used to upsert recommendations across optimizer runs.
func (r TransferRecommendation) Key() RecommendationKey {
	var dest int64
	if r.DestStoreID != nil {
		dest = *r.DestStoreID
	}
	return RecommendationKey{SourceStoreID: r.SourceStoreID, DestStoreID: dest, ProductID: r.ProductID}
}

// RecommendationKey identifies a (source, destination, product) triple. DestStoreID 0 is online.
type RecommendationKey struct {
	SourceStoreID int64
	DestStoreID   int64
	ProductID     int64
}

// ManualTransfer is an operator-initiated stock move between two stores.
// The source is named either by InventoryID or by SourceStoreID and ProductID.
type ManualTransfer struct {
	InventoryID   int64 `json:"inventory_id"`
	SourceStoreID int64 `json:"source_store_id"`
	DestStoreID   int64 `json:"dest_store_id" binding:"required"`
	ProductID     int64 `json:"product_id"`
	Quantity      int   `json:"quantity" binding:"required"`
}

// TransferResult reports the stock left on both sides of a manual transfer
type TransferResult struct {
	InventoryID   int64 `json:"inventory_id"`
	SourceStoreID int64 `json:"source_store_id"`
	DestStoreID   int64 `json:"dest_store_id"`
	ProductID     int64 `json:"product_id"`
	Quantity      int   `json:"quantity"`
	NewSourceQty  int   `json:"new_source_qty"`
	NewDestQty    int   `json:"new_dest_qty"`
}

// ManagerFeedback is a store manager's note on a product, e.g. a rejected
// transfer or a local demand signal.
type ManagerFeedback struct {
	ID           int64     `json:"id" db:"id"`
	StoreID      int64     `json:"store_id" db:"store_id" binding:"required"`
	ProductID    int64     `json:"product_id" db:"product_id" binding:"required"`
	Comment      *string   `json:"comment,omitempty" db:"comment"`
	FeedbackType string    `json:"feedback_type" db:"feedback_type" binding:"required"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Central Park, used when a purchase arrives without a customer location.
const (
	DefaultCustomerLat = 40.785091
	DefaultCustomerLon = -73.968285
)

// Order is a single-item customer purchase to be routed to a store
type Order struct {
	CustomerLat float64 `json:"customer_lat"`
	CustomerLon float64 `json:"customer_lon"`
	ProductID   int64   `json:"product_id" binding:"required"`
	Quantity    int     `json:"quantity"`
}

// Fulfillment describes the store chosen to serve an order
type Fulfillment struct {
	StoreID           int64   `json:"store_id"`
	StoreName         string  `json:"store_name"`
	DistanceKm        float64 `json:"distance_km"`
	Reason            string  `json:"reason"`
	RemainingQuantity int     `json:"remaining_quantity"`
}

// Int64Ptr is a small helper for optional identifiers.
func Int64Ptr(v int64) *int64 {
	return &v
}
