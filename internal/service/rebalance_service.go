package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/andresuchdata/eco-inventory/internal/affinity"
	"github.com/andresuchdata/eco-inventory/internal/cache"
	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/forecast"
	"github.com/andresuchdata/eco-inventory/internal/mathx"
	"github.com/andresuchdata/eco-inventory/internal/optimizer"
	"github.com/andresuchdata/eco-inventory/internal/report"
	"github.com/andresuchdata/eco-inventory/internal/repository"
	"github.com/andresuchdata/eco-inventory/internal/routing"
	"github.com/andresuchdata/eco-inventory/internal/storage"
	"github.com/andresuchdata/eco-inventory/internal/transfer"
	"github.com/rs/zerolog/log"
)

const (
	risingTrendThreshold  = 40.0
	highDemandVelocity    = 5.0
	anomalyDeadStockQty   = 20
	stockoutRiskVelocity  = 10.0
	stockoutRiskMaxQty    = 5
	defaultDeadStockSpeed = routing.DefaultDeadStockVelocity
)

// ErrStorageDisabled is returned when a report upload is requested without object storage.
var ErrStorageDisabled = errors.New("object storage is not configured")

// Components are the engine parts a RebalanceService drives.
type Components struct {
	Repo       repository.Repository
	Forecaster *forecast.Forecaster
	Affinity   *affinity.Builder
	Optimizer  *optimizer.Optimizer
	Router     *routing.Router
	Transfers  *transfer.Service
	Cache      cache.ForecastCache
	// Storage is optional; without it reports can only be written locally.
	Storage storage.ObjectStorage
	// DeadStockVelocity is the weekly velocity below which stock is flagged as dead.
	DeadStockVelocity float64
	Now               func() time.Time
}

type RebalanceService struct {
	repo       repository.Repository
	forecaster *forecast.Forecaster
	affinity   *affinity.Builder
	optimizer  *optimizer.Optimizer
	router     *routing.Router
	transfers  *transfer.Service
	cache      cache.ForecastCache
	storage    storage.ObjectStorage
	deadStock  float64
	now        func() time.Time
}

func NewRebalanceService(c Components) *RebalanceService {
	if c.Cache == nil {
		c.Cache = cache.NewNoopForecastCache()
	}
	if c.DeadStockVelocity <= 0 {
		c.DeadStockVelocity = defaultDeadStockSpeed
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return &RebalanceService{
		repo:       c.Repo,
		forecaster: c.Forecaster,
		affinity:   c.Affinity,
		optimizer:  c.Optimizer,
		router:     c.Router,
		transfers:  c.Transfers,
		cache:      c.Cache,
		storage:    c.Storage,
		deadStock:  c.DeadStockVelocity,
		now:        c.Now,
	}
}

// Refresh rebuilds every store profile and then runs the optimizer on them.
func (s *RebalanceService) Refresh(ctx context.Context) (*optimizer.Result, error) {
	if _, err := s.affinity.RebuildAll(ctx); err != nil {
		return nil, fmt.Errorf("refresh affinity: %w", err)
	}
	return s.optimizer.Run(ctx)
}

func (s *RebalanceService) RebuildAffinity(ctx context.Context, storeID int64) ([]domain.AffinityScore, error) {
	return s.affinity.Rebuild(ctx, storeID)
}

// RebuildAllAffinity recomputes every store profile, keyed by store ID.
func (s *RebalanceService) RebuildAllAffinity(ctx context.Context) (map[int64][]domain.AffinityScore, error) {
	return s.affinity.RebuildAll(ctx)
}

func (s *RebalanceService) Route(ctx context.Context, order domain.Order) (*domain.Fulfillment, error) {
	return s.router.Route(ctx, order)
}

func (s *RebalanceService) Approve(ctx context.Context, id int64) (*domain.TransferRecommendation, error) {
	return s.transfers.Approve(ctx, id)
}

func (s *RebalanceService) Reject(ctx context.Context, id int64) error {
	return s.transfers.Reject(ctx, id)
}

func (s *RebalanceService) Transfer(ctx context.Context, req domain.ManualTransfer) (*domain.TransferResult, error) {
	return s.transfers.Transfer(ctx, req)
}

// RecordFeedback stores a manager's note about a product in their store.
func (s *RebalanceService) RecordFeedback(ctx context.Context, feedback *domain.ManagerFeedback) error {
	feedback.FeedbackType = strings.TrimSpace(feedback.FeedbackType)
	if feedback.FeedbackType == "" {
		return fmt.Errorf("feedback type is empty: %w", domain.ErrInvalidRequest)
	}
	if feedback.Comment != nil && strings.TrimSpace(*feedback.Comment) == "" {
		feedback.Comment = nil
	}

	if err := s.repo.SaveFeedback(ctx, feedback); err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}
	log.Info().
		Int64("feedback_id", feedback.ID).
		Int64("store_id", feedback.StoreID).
		Int64("product_id", feedback.ProductID).
		Str("feedback_type", feedback.FeedbackType).
		Msg("rebalance: manager feedback recorded")
	return nil
}

// StoreFeedback lists the feedback left for a store, oldest first.
func (s *RebalanceService) StoreFeedback(ctx context.Context, storeID int64) ([]domain.ManagerFeedback, error) {
	if _, err := s.repo.GetStore(ctx, storeID); err != nil {
		return nil, err
	}
	return s.repo.ListFeedback(ctx, storeID)
}

func (s *RebalanceService) ForecastStatus() forecast.Status {
	return s.forecaster.Status()
}

// Retrain replaces the demand model with one trained on the current catalog.
func (s *RebalanceService) Retrain(ctx context.Context) (forecast.Status, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return forecast.Status{}, err
	}
	if err := s.forecaster.Train(ctx, products); err != nil {
		return s.forecaster.Status(), err
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("rebalance: cache invalidate after retrain failed")
	}
	return s.forecaster.Status(), nil
}

// LoadRecommendations rebuilds every store profile and returns the stored
// recommendations. The optimizer runs first when refresh is set or when
// nothing has been recommended yet.
func (s *RebalanceService) LoadRecommendations(ctx context.Context, refresh bool) ([]domain.RecommendationView, error) {
	if _, err := s.affinity.RebuildAll(ctx); err != nil {
		return nil, fmt.Errorf("refresh affinity: %w", err)
	}
	if !refresh {
		recs, err := s.repo.ListRecommendations(ctx)
		if err != nil {
			return nil, err
		}
		refresh = len(recs) == 0
	}
	if refresh {
		if _, err := s.optimizer.Run(ctx); err != nil {
			return nil, err
		}
	}
	return s.Recommendations(ctx)
}

// Recommendations lists stored recommendations joined with their stores and product.
func (s *RebalanceService) Recommendations(ctx context.Context) ([]domain.RecommendationView, error) {
	recs, err := s.repo.ListRecommendations(ctx)
	if err != nil {
		return nil, err
	}
	stores, products, err := s.lookups(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]domain.RecommendationView, 0, len(recs))
	for _, rec := range recs {
		view := domain.RecommendationView{TransferRecommendation: rec}
		if st, ok := stores[rec.SourceStoreID]; ok {
			view.SourceStore = &st
		}
		if rec.DestStoreID != nil {
			if st, ok := stores[*rec.DestStoreID]; ok {
				view.DestStore = &st
			}
		}
		if p, ok := products[rec.ProductID]; ok {
			view.Product = &p
		}
		views = append(views, view)
	}
	return views, nil
}

// Forecasts predicts next-week demand for the whole catalog, training the
// model first if needed.
func (s *RebalanceService) Forecasts(ctx context.Context) ([]domain.ProductForecast, error) {
	if err := s.forecaster.EnsureTrained(ctx, s.repo.ListProducts); err != nil {
		return nil, err
	}

	modelID := s.forecaster.Status().ModelID
	today := s.now()
	if cached, ok, err := s.cache.GetForecasts(ctx, modelID, today); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("rebalance: cache get forecasts failed")
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	forecasts := make([]domain.ProductForecast, 0, len(products))
	for _, p := range products {
		predicted := s.forecaster.PredictNextWeek(p)
		trend := domain.TrendStable
		if predicted > risingTrendThreshold {
			trend = domain.TrendRising
		}
		forecasts = append(forecasts, domain.ProductForecast{
			ProductID:         p.ID,
			ProductName:       p.Name,
			PredictedNextWeek: predicted,
			Trend:             trend,
		})
	}

	if err := s.cache.SetForecasts(ctx, modelID, today, forecasts); err != nil {
		log.Warn().Err(err).Msg("rebalance: cache set forecasts failed")
	}
	return forecasts, nil
}

// Stores lists every store with the summed weekly velocity of its inventory.
func (s *RebalanceService) Stores(ctx context.Context) ([]domain.StoreSummary, error) {
	stores, err := s.repo.ListStores(ctx)
	if err != nil {
		return nil, err
	}
	inventory, err := s.repo.ListInventory(ctx)
	if err != nil {
		return nil, err
	}

	velocity := make(map[int64]float64, len(stores))
	for _, rec := range inventory {
		velocity[rec.StoreID] += rec.WeeklySalesVelocity
	}

	summaries := make([]domain.StoreSummary, 0, len(stores))
	for _, st := range stores {
		summaries = append(summaries, domain.StoreSummary{
			Store:         st,
			TotalVelocity: mathx.Round(velocity[st.ID], 1),
		})
	}
	return summaries, nil
}

// AvailableProducts lists products with stock on hand in at least one store.
func (s *RebalanceService) AvailableProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	inventory, err := s.repo.ListInventory(ctx)
	if err != nil {
		return nil, err
	}

	inStock := make(map[int64]bool)
	for _, rec := range inventory {
		if rec.Quantity > 0 {
			inStock[rec.ProductID] = true
		}
	}

	available := make([]domain.Product, 0, len(inStock))
	for _, p := range products {
		if inStock[p.ID] {
			available = append(available, p)
		}
	}
	return available, nil
}

// StoreAnalytics reports a store's profile alongside its best sellers and dead stock.
func (s *RebalanceService) StoreAnalytics(ctx context.Context, storeID int64) (*domain.StoreAnalytics, error) {
	store, err := s.repo.GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	dna, err := s.affinity.Profile(ctx, storeID)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.ListInventoryByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	_, products, err := s.lookups(ctx)
	if err != nil {
		return nil, err
	}

	analytics := &domain.StoreAnalytics{
		StoreName:  store.Name,
		DNA:        dna,
		HighDemand: make([]domain.InventoryItem, 0),
		DeadStock:  make([]domain.InventoryItem, 0),
	}
	for _, rec := range records {
		p, ok := products[rec.ProductID]
		if !ok {
			continue
		}
		item := domain.InventoryItem{
			ProductName: p.Name,
			Category:    p.Category,
			Quantity:    rec.Quantity,
			Velocity:    rec.WeeklySalesVelocity,
			ImageURL:    p.ImageURL,
		}
		if rec.WeeklySalesVelocity > highDemandVelocity {
			analytics.HighDemand = append(analytics.HighDemand, item)
		}
		if rec.WeeklySalesVelocity < s.deadStock && rec.Quantity > 0 {
			analytics.DeadStock = append(analytics.DeadStock, item)
		}
	}
	return analytics, nil
}

// InventoryOverview lists every inventory row across the network.
func (s *RebalanceService) InventoryOverview(ctx context.Context) ([]domain.InventoryOverviewRow, error) {
	inventory, err := s.repo.ListInventory(ctx)
	if err != nil {
		return nil, err
	}
	stores, products, err := s.lookups(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.InventoryOverviewRow, 0, len(inventory))
	for _, rec := range inventory {
		st, okStore := stores[rec.StoreID]
		p, okProduct := products[rec.ProductID]
		if !okStore || !okProduct {
			continue
		}
		status := domain.InventoryStatusHealthy
		if rec.WeeklySalesVelocity < s.deadStock {
			status = domain.InventoryStatusDeadStock
		}
		rows = append(rows, domain.InventoryOverviewRow{
			ID:           rec.ID,
			ProductName:  p.Name,
			ProductImage: p.ImageURL,
			StoreName:    st.Name,
			Quantity:     rec.Quantity,
			Status:       status,
			SKU:          domain.SKU(p.ID, st.ID),
		})
	}
	return rows, nil
}

// Anomalies flags slow movers piling up and fast movers about to run out.
func (s *RebalanceService) Anomalies(ctx context.Context) (*domain.Anomalies, error) {
	inventory, err := s.repo.ListInventory(ctx)
	if err != nil {
		return nil, err
	}

	anomalies := &domain.Anomalies{
		DeadStock:    make([]domain.InventoryRecord, 0),
		StockoutRisk: make([]domain.InventoryRecord, 0),
	}
	for _, rec := range inventory {
		switch {
		case rec.WeeklySalesVelocity < s.deadStock && rec.Quantity > anomalyDeadStockQty:
			anomalies.DeadStock = append(anomalies.DeadStock, rec)
		case rec.WeeklySalesVelocity > stockoutRiskVelocity && rec.Quantity < stockoutRiskMaxQty:
			anomalies.StockoutRisk = append(anomalies.StockoutRisk, rec)
		}
	}
	return anomalies, nil
}

// WriteReport renders the current recommendations as CSV.
func (s *RebalanceService) WriteReport(ctx context.Context, w io.Writer) error {
	views, err := s.Recommendations(ctx)
	if err != nil {
		return err
	}
	return report.WriteRecommendations(w, views)
}

// WriteSpreadsheet renders the current recommendations as an XLSX workbook.
func (s *RebalanceService) WriteSpreadsheet(ctx context.Context, w io.Writer) error {
	views, err := s.Recommendations(ctx)
	if err != nil {
		return err
	}
	return report.WriteSpreadsheet(w, views)
}

// UploadReport stores today's recommendation report in object storage and
// returns its key.
func (s *RebalanceService) UploadReport(ctx context.Context) (string, error) {
	if s.storage == nil {
		return "", ErrStorageDisabled
	}
	views, err := s.Recommendations(ctx)
	if err != nil {
		return "", err
	}
	return report.Upload(ctx, s.storage, s.now(), views)
}

// Reports lists the recommendation reports held in object storage.
func (s *RebalanceService) Reports(ctx context.Context) ([]storage.ObjectInfo, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	return report.List(ctx, s.storage)
}

// FetchReport downloads the report uploaded for day into destPath.
func (s *RebalanceService) FetchReport(ctx context.Context, day time.Time, destPath string) error {
	if s.storage == nil {
		return ErrStorageDisabled
	}
	return report.Fetch(ctx, s.storage, day, destPath)
}

func (s *RebalanceService) lookups(ctx context.Context) (map[int64]domain.Store, map[int64]domain.Product, error) {
	stores, err := s.repo.ListStores(ctx)
	if err != nil {
		return nil, nil, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, nil, err
	}

	storesByID := make(map[int64]domain.Store, len(stores))
	for _, st := range stores {
		storesByID[st.ID] = st
	}
	productsByID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}
	return storesByID, productsByID, nil
}
