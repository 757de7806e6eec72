package optimizer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/forecast"
	"github.com/andresuchdata/eco-inventory/internal/geo"
	"github.com/andresuchdata/eco-inventory/internal/mathx"
	"github.com/andresuchdata/eco-inventory/internal/repository"
	"github.com/rs/zerolog/log"
)

// Config holds the optimizer's thresholds. Zero fields fall back to DefaultConfig.
type Config struct {
	// OverstockWeeks is how many weeks of forecast demand a record may hold
	// before it counts as overstock.
	OverstockWeeks      float64
	MinOverstockQty     int
	ProximityKm         float64
	ProximityBonus      float64
	AffinityWeight      float64
	AcceptanceThreshold float64
	TransferFraction    float64
	OnlineFraction      float64
	CO2Factor           float64
}

func DefaultConfig() Config {
	return Config{
		OverstockWeeks:      4,
		MinOverstockQty:     10,
		ProximityKm:         50,
		ProximityBonus:      200,
		AffinityWeight:      5,
		AcceptanceThreshold: 100,
		TransferFraction:    0.3,
		OnlineFraction:      0.5,
		CO2Factor:           0.2,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.OverstockWeeks <= 0 {
		c.OverstockWeeks = def.OverstockWeeks
	}
	if c.MinOverstockQty <= 0 {
		c.MinOverstockQty = def.MinOverstockQty
	}
	if c.ProximityKm <= 0 {
		c.ProximityKm = def.ProximityKm
	}
	if c.ProximityBonus <= 0 {
		c.ProximityBonus = def.ProximityBonus
	}
	if c.AffinityWeight <= 0 {
		c.AffinityWeight = def.AffinityWeight
	}
	if c.AcceptanceThreshold == 0 {
		c.AcceptanceThreshold = def.AcceptanceThreshold
	}
	if c.TransferFraction <= 0 {
		c.TransferFraction = def.TransferFraction
	}
	if c.OnlineFraction <= 0 {
		c.OnlineFraction = def.OnlineFraction
	}
	if c.CO2Factor <= 0 {
		c.CO2Factor = def.CO2Factor
	}
	return c
}

// CompositeScore ranks a destination; lower is better. Destinations closer
// than ProximityKm get ProximityBonus added to their affinity.
func (c Config) CompositeScore(distanceKm, affinity float64) float64 {
	if distanceKm < c.ProximityKm {
		affinity += c.ProximityBonus
	}
	return distanceKm - c.AffinityWeight*affinity
}

// DemandForecaster predicts weekly demand per product.
type DemandForecaster interface {
	EnsureTrained(ctx context.Context, catalog forecast.CatalogFunc) error
	PredictNextWeek(p domain.Product) float64
}

// Assessment is an inventory record paired with its forecast demand.
type Assessment struct {
	Record domain.InventoryRecord `json:"record"`
	Demand float64                `json:"predicted_weekly_demand"`
}

// Result is the outcome of one optimizer pass.
type Result struct {
	Recommendations []domain.TransferRecommendation `json:"recommendations"`
	Overstock       []Assessment                    `json:"overstock"`
	// Shortages are reported only; no restock recommendation is produced.
	Shortages []Assessment `json:"shortages"`
}

type Optimizer struct {
	repo       repository.Repository
	forecaster DemandForecaster
	cfg        Config
}

func New(repo repository.Repository, forecaster DemandForecaster, cfg Config) *Optimizer {
	return &Optimizer{
		repo:       repo,
		forecaster: forecaster,
		cfg:        cfg.withDefaults(),
	}
}

func (o *Optimizer) Config() Config {
	return o.cfg
}

// destination is the best-scoring candidate for one overstock record.
type destination struct {
	store      domain.Store
	distanceKm float64
	composite  float64
}

// Run classifies every inventory record against forecast demand and persists
// a recommendation for each overstocked one. Recommendations are upserted by
// (source, destination, product), so repeated runs replace rather than append.
func (o *Optimizer) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	if err := o.forecaster.EnsureTrained(ctx, o.repo.ListProducts); err != nil {
		return nil, fmt.Errorf("train forecaster: %w", err)
	}

	stores, err := o.repo.ListStores(ctx)
	if err != nil {
		return nil, err
	}
	products, err := o.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	inventory, err := o.repo.ListInventory(ctx)
	if err != nil {
		return nil, err
	}
	affinity, err := o.affinityIndex(ctx)
	if err != nil {
		return nil, err
	}

	storesByID := make(map[int64]domain.Store, len(stores))
	for _, s := range stores {
		storesByID[s.ID] = s
	}
	productsByID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}

	demand := make(map[int64]float64, len(products))
	result := &Result{
		Overstock: make([]Assessment, 0),
		Shortages: make([]Assessment, 0),
	}
	recs := make([]domain.TransferRecommendation, 0)

	for _, rec := range inventory {
		product, ok := productsByID[rec.ProductID]
		if !ok {
			log.Warn().Int64("inventory_id", rec.ID).Int64("product_id", rec.ProductID).Msg("optimizer: skipping record with unknown product")
			continue
		}
		source, ok := storesByID[rec.StoreID]
		if !ok {
			log.Warn().Int64("inventory_id", rec.ID).Int64("store_id", rec.StoreID).Msg("optimizer: skipping record with unknown store")
			continue
		}

		predicted, ok := demand[product.ID]
		if !ok {
			predicted = o.forecaster.PredictNextWeek(product)
			demand[product.ID] = predicted
		}
		assessment := Assessment{Record: rec, Demand: predicted}

		if !o.isOverstock(rec, predicted) {
			if float64(rec.Quantity) < predicted {
				result.Shortages = append(result.Shortages, assessment)
			}
			continue
		}
		result.Overstock = append(result.Overstock, assessment)

		best, found := o.bestDestination(source, product.Category, stores, affinity)
		recs = append(recs, o.recommend(rec, product, best, found))
	}

	if len(recs) > 0 {
		saved, err := o.repo.UpsertRecommendations(ctx, recs)
		if err != nil {
			return nil, fmt.Errorf("persist recommendations: %w", err)
		}
		result.Recommendations = saved
	} else {
		result.Recommendations = recs
	}

	log.Info().
		Int("records", len(inventory)).
		Int("overstock", len(result.Overstock)).
		Int("shortages", len(result.Shortages)).
		Int("recommendations", len(result.Recommendations)).
		Dur("elapsed", time.Since(start)).
		Msg("optimizer: run complete")

	return result, nil
}

func (o *Optimizer) isOverstock(rec domain.InventoryRecord, demand float64) bool {
	qty := float64(rec.Quantity)
	return qty > o.cfg.OverstockWeeks*demand && rec.Quantity > o.cfg.MinOverstockQty
}

// bestDestination scans the other stores in the given order and keeps the
// strictly lowest composite score, so the first store wins ties.
func (o *Optimizer) bestDestination(source domain.Store, category string, stores []domain.Store, affinity map[int64]map[string]float64) (destination, bool) {
	var best destination
	found := false

	for _, candidate := range stores {
		if candidate.ID == source.ID {
			continue
		}
		distance := geo.DistanceKm(source.Lat, source.Lon, candidate.Lat, candidate.Lon)
		score := o.cfg.CompositeScore(distance, affinity[candidate.ID][category])

		if !found || score < best.composite {
			best = destination{store: candidate, distanceKm: distance, composite: score}
			found = true
		}
	}

	return best, found
}

func (o *Optimizer) recommend(rec domain.InventoryRecord, product domain.Product, best destination, found bool) domain.TransferRecommendation {
	if found && best.composite < o.cfg.AcceptanceThreshold {
		qty := int(math.Floor(o.cfg.TransferFraction * float64(rec.Quantity)))
		if qty < 1 {
			qty = 1
		}
		return domain.TransferRecommendation{
			SourceStoreID: rec.StoreID,
			DestStoreID:   domain.Int64Ptr(best.store.ID),
			ProductID:     rec.ProductID,
			Quantity:      qty,
			CO2Saved:      mathx.Round(best.distanceKm*product.CarbonFootprintWeight*o.cfg.CO2Factor, 2),
			Status:        domain.StatusPending,
			Method:        domain.MethodStoreTransfer,
		}
	}

	return domain.TransferRecommendation{
		SourceStoreID: rec.StoreID,
		ProductID:     rec.ProductID,
		Quantity:      int(math.Floor(o.cfg.OnlineFraction * float64(rec.Quantity))),
		CO2Saved:      0,
		Status:        domain.StatusApproved,
		Method:        domain.MethodOnlineSale,
	}
}

func (o *Optimizer) affinityIndex(ctx context.Context) (map[int64]map[string]float64, error) {
	scores, err := o.repo.ListAllAffinity(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[int64]map[string]float64)
	for _, s := range scores {
		if index[s.StoreID] == nil {
			index[s.StoreID] = make(map[string]float64)
		}
		index[s.StoreID][s.Category] = s.Score
	}
	return index, nil
}
