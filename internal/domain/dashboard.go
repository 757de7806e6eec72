package domain

// StoreSummary is a store with its aggregate weekly velocity
type StoreSummary struct {
	Store
	TotalVelocity float64 `json:"total_velocity"`
}

// ProductForecast is the next-week demand forecast of one product
type ProductForecast struct {
	ProductID         int64   `json:"product_id"`
	ProductName       string  `json:"product_name"`
	PredictedNextWeek float64 `json:"predicted_next_week"`
	Trend             string  `json:"trend"`
}

// InventoryItem is an inventory row joined with its product
type InventoryItem struct {
	ProductName string  `json:"product_name"`
	Category    string  `json:"category"`
	Quantity    int     `json:"quantity"`
	Velocity    float64 `json:"velocity"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// StoreAnalytics is the per-store profile view
type StoreAnalytics struct {
	StoreName  string          `json:"store_name"`
	DNA        []AffinityScore `json:"dna"`
	HighDemand []InventoryItem `json:"high_demand"`
	DeadStock  []InventoryItem `json:"dead_stock"`
}

// InventoryOverviewRow is one line of the network-wide inventory listing
type InventoryOverviewRow struct {
	ID           int64   `json:"id"`
	ProductName  string  `json:"product_name"`
	ProductImage *string `json:"product_image,omitempty"`
	StoreName    string  `json:"store_name"`
	Quantity     int     `json:"quantity"`
	Status       string  `json:"status"`
	SKU          string  `json:"sku"`
}

// Anomalies groups inventory rows needing attention
type Anomalies struct {
	DeadStock    []InventoryRecord `json:"dead_stock"`
	StockoutRisk []InventoryRecord `json:"stockout_risk"`
}

// RecommendationView is a recommendation joined with its stores and product
type RecommendationView struct {
	TransferRecommendation
	SourceStore *Store   `json:"source_store"`
	DestStore   *Store   `json:"dest_store"`
	Product     *Product `json:"product"`
}
