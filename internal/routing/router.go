package routing

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/geo"
	"github.com/andresuchdata/eco-inventory/internal/mathx"
	"github.com/andresuchdata/eco-inventory/internal/repository"
	"github.com/rs/zerolog/log"
)

// DefaultDeadStockVelocity is the weekly velocity below which stock counts as dead.
const DefaultDeadStockVelocity = 2.0

// Router picks the store that fulfils a single-item order.
type Router struct {
	repo              repository.Repository
	deadStockVelocity float64
}

func NewRouter(repo repository.Repository, deadStockVelocity float64) *Router {
	if deadStockVelocity <= 0 {
		deadStockVelocity = DefaultDeadStockVelocity
	}
	return &Router{repo: repo, deadStockVelocity: deadStockVelocity}
}

type candidate struct {
	store      domain.Store
	distanceKm float64
	deadStock  bool
}

// Route ships the order from dead stock first and otherwise from the nearest
// store holding enough units. The decrement is conditional, so a candidate
// drained by a concurrent writer is skipped in favour of the next one.
func (r *Router) Route(ctx context.Context, order domain.Order) (*domain.Fulfillment, error) {
	if order.Quantity <= 0 {
		return nil, fmt.Errorf("order quantity %d: %w", order.Quantity, domain.ErrInvalidQuantity)
	}
	if _, err := r.repo.GetProduct(ctx, order.ProductID); err != nil {
		return nil, err
	}

	candidates, err := r.candidates(ctx, order)
	if err != nil {
		return nil, err
	}

	for _, c := range candidates {
		remaining, err := r.repo.DecrementInventory(ctx, c.store.ID, order.ProductID, order.Quantity)
		if errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrNotFound) {
			log.Debug().Int64("store_id", c.store.ID).Int64("product_id", order.ProductID).Msg("routing: candidate drained, trying next")
			continue
		}
		if err != nil {
			return nil, err
		}

		reason := domain.ReasonNearestStock
		if c.deadStock {
			reason = domain.ReasonDeadStockClearance
		}
		return &domain.Fulfillment{
			StoreID:           c.store.ID,
			StoreName:         c.store.Name,
			DistanceKm:        mathx.Round(c.distanceKm, 2),
			Reason:            reason,
			RemainingQuantity: remaining,
		}, nil
	}

	return nil, fmt.Errorf("product %d quantity %d: %w", order.ProductID, order.Quantity, domain.ErrOutOfStock)
}

// candidates returns the stores able to serve the order, ranked.
func (r *Router) candidates(ctx context.Context, order domain.Order) ([]candidate, error) {
	records, err := r.repo.ListInventoryByProduct(ctx, order.ProductID, order.Quantity)
	if err != nil {
		return nil, err
	}

	customer := geo.Point{Lat: order.CustomerLat, Lon: order.CustomerLon}
	candidates := make([]candidate, 0, len(records))
	for _, rec := range records {
		store, err := r.repo.GetStore(ctx, rec.StoreID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate{
			store:      *store,
			distanceKm: customer.DistanceTo(geo.Point{Lat: store.Lat, Lon: store.Lon}),
			deadStock:  rec.WeeklySalesVelocity < r.deadStockVelocity,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].deadStock != candidates[j].deadStock {
			return candidates[i].deadStock
		}
		return candidates[i].distanceKm < candidates[j].distanceKm
	})
	return candidates, nil
}
