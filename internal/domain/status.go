package domain

import (
	"fmt"
	"strings"
)

// StoreType is the channel tag of a store.
type StoreType string

const (
	StoreTypeFlagship StoreType = "Flagship"
	StoreTypeOutlet   StoreType = "Outlet"
)

// RecommendationStatus is the lifecycle tag of a transfer recommendation.
type RecommendationStatus string

const (
	StatusPending  RecommendationStatus = "Pending"
	StatusApproved RecommendationStatus = "Approved"
	StatusRejected RecommendationStatus = "Rejected"
)

// TransferMethod distinguishes physical transfers from online liquidation.
type TransferMethod string

const (
	MethodStoreTransfer TransferMethod = "StoreTransfer"
	MethodOnlineSale    TransferMethod = "OnlineSale"
)

const (
	ReasonDeadStockClearance = "Clearance of Dead Stock"
	ReasonNearestStock       = "Nearest Available Stock"
)

const (
	InventoryStatusDeadStock = "Dead Stock"
	InventoryStatusHealthy   = "Healthy"
)

const (
	TrendRising = "Rising"
	TrendStable = "Stable"
)

var storeTypes = map[string]StoreType{
	"flagship": StoreTypeFlagship,
	"outlet":   StoreTypeOutlet,
}

var recommendationStatuses = map[string]RecommendationStatus{
	"pending":  StatusPending,
	"approved": StatusApproved,
	"rejected": StatusRejected,
}

// ParseStoreType returns the store type for a given label (case-insensitive).
func ParseStoreType(label string) (StoreType, error) {
	if t, ok := storeTypes[strings.ToLower(strings.TrimSpace(label))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown store type %q", label)
}

// ParseRecommendationStatus returns the status for a given label (case-insensitive).
func ParseRecommendationStatus(label string) (RecommendationStatus, bool) {
	status, ok := recommendationStatuses[strings.ToLower(strings.TrimSpace(label))]
	return status, ok
}

// SKU builds the display SKU of an inventory row.
func SKU(productID, storeID int64) string {
	return fmt.Sprintf("SKU-%d-%d", productID, storeID)
}
