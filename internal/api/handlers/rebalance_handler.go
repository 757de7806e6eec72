package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type RebalanceHandler struct {
	service *service.RebalanceService
}

func NewRebalanceHandler(service *service.RebalanceService) *RebalanceHandler {
	return &RebalanceHandler{service: service}
}

type purchaseRequest struct {
	CustomerLat *float64 `json:"customer_lat"`
	CustomerLon *float64 `json:"customer_lon"`
	ProductID   int64    `json:"product_id" binding:"required"`
	Quantity    *int     `json:"quantity"`
}

func (r purchaseRequest) order() domain.Order {
	order := domain.Order{
		CustomerLat: domain.DefaultCustomerLat,
		CustomerLon: domain.DefaultCustomerLon,
		ProductID:   r.ProductID,
		Quantity:    1,
	}
	if r.CustomerLat != nil && r.CustomerLon != nil {
		order.CustomerLat, order.CustomerLon = *r.CustomerLat, *r.CustomerLon
	}
	if r.Quantity != nil {
		order.Quantity = *r.Quantity
	}
	return order
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrStorageDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg(message)
	}
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *RebalanceHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"forecast": h.service.ForecastStatus(),
	})
}

func (h *RebalanceHandler) GetStores(c *gin.Context) {
	stores, err := h.service.Stores(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch stores")
		return
	}
	c.JSON(http.StatusOK, stores)
}

func (h *RebalanceHandler) GetStoreAnalytics(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	analytics, err := h.service.StoreAnalytics(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to fetch store analytics")
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (h *RebalanceHandler) RebuildAffinity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	scores, err := h.service.RebuildAffinity(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to rebuild store affinity")
		return
	}
	c.JSON(http.StatusOK, gin.H{"store_id": id, "dna": scores})
}

func (h *RebalanceHandler) GetProducts(c *gin.Context) {
	products, err := h.service.AvailableProducts(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch products")
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetRecommendations rebuilds store profiles and lists recommendations,
// generating them when none exist yet; ?refresh=true always regenerates.
func (h *RebalanceHandler) GetRecommendations(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))
	views, err := h.service.LoadRecommendations(c.Request.Context(), refresh)
	if err != nil {
		respondError(c, err, "failed to fetch recommendations")
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *RebalanceHandler) RefreshRecommendations(c *gin.Context) {
	result, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to refresh recommendations")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RebalanceHandler) ApproveRecommendation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	rec, err := h.service.Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to approve recommendation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Approved", "recommendation": rec})
}

func (h *RebalanceHandler) RejectRecommendation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.Reject(c.Request.Context(), id); err != nil {
		respondError(c, err, "failed to reject recommendation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rejected"})
}

func (h *RebalanceHandler) Purchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase request", "details": err.Error()})
		return
	}

	fulfillment, err := h.service.Route(c.Request.Context(), req.order())
	if errors.Is(err, domain.ErrOutOfStock) {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrOutOfStock.Error()})
		return
	}
	if err != nil {
		respondError(c, err, "failed to place order")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":             "Order Placed Successfully",
		"fulfillment_details": fulfillment,
	})
}

func (h *RebalanceHandler) Transfer(c *gin.Context) {
	var req domain.ManualTransfer
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transfer request", "details": err.Error()})
		return
	}
	result, err := h.service.Transfer(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "transfer failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Transfer Successful",
		"new_source_qty": result.NewSourceQty,
		"transfer":       result,
	})
}

func (h *RebalanceHandler) SubmitFeedback(c *gin.Context) {
	var req domain.ManagerFeedback
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feedback request", "details": err.Error()})
		return
	}
	if err := h.service.RecordFeedback(c.Request.Context(), &req); err != nil {
		respondError(c, err, "failed to record feedback")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Feedback received", "feedback": req})
}

func (h *RebalanceHandler) GetStoreFeedback(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	feedback, err := h.service.StoreFeedback(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to fetch feedback")
		return
	}
	c.JSON(http.StatusOK, feedback)
}

func (h *RebalanceHandler) GetInventory(c *gin.Context) {
	rows, err := h.service.InventoryOverview(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch inventory")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *RebalanceHandler) GetAnomalies(c *gin.Context) {
	anomalies, err := h.service.Anomalies(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to detect anomalies")
		return
	}
	c.JSON(http.StatusOK, anomalies)
}

func (h *RebalanceHandler) GetForecast(c *gin.Context) {
	forecasts, err := h.service.Forecasts(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to forecast demand")
		return
	}
	c.JSON(http.StatusOK, forecasts)
}

func (h *RebalanceHandler) GetForecastStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ForecastStatus())
}

func (h *RebalanceHandler) RetrainForecast(c *gin.Context) {
	status, err := h.service.Retrain(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to retrain forecast model")
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *RebalanceHandler) DownloadReport(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.service.WriteReport(c.Request.Context(), &buf); err != nil {
		respondError(c, err, "failed to build report")
		return
	}

	filename := fmt.Sprintf("recommendations-%s.csv", time.Now().UTC().Format(time.DateOnly))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func (h *RebalanceHandler) DownloadSpreadsheet(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.service.WriteSpreadsheet(c.Request.Context(), &buf); err != nil {
		respondError(c, err, "failed to build report")
		return
	}

	filename := fmt.Sprintf("recommendations-%s.xlsx", time.Now().UTC().Format(time.DateOnly))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *RebalanceHandler) UploadReport(c *gin.Context) {
	key, err := h.service.UploadReport(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to upload report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key})
}

func (h *RebalanceHandler) ListReports(c *gin.Context) {
	reports, err := h.service.Reports(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to list reports")
		return
	}
	c.JSON(http.StatusOK, reports)
}
