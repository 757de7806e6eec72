package affinity

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultThreshold is the category velocity a store must exceed for the
// category to enter its profile.
const DefaultThreshold = 5.0

// Builder derives per-store category profiles ("DNA") from inventory velocity.
type Builder struct {
	repo      repository.Repository
	threshold float64
	workers   int
}

func NewBuilder(repo repository.Repository, threshold float64, workers int) *Builder {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Builder{repo: repo, threshold: threshold, workers: workers}
}

// CategoryTotals sums weekly sales velocity per category. Records whose
// product is not in products are skipped.
func CategoryTotals(records []domain.InventoryRecord, products map[int64]domain.Product) map[string]float64 {
	totals := make(map[string]float64)
	for _, rec := range records {
		p, ok := products[rec.ProductID]
		if !ok {
			continue
		}
		totals[p.Category] += rec.WeeklySalesVelocity
	}
	return totals
}

// Significant keeps categories whose total strictly exceeds threshold,
// ordered by category name.
func Significant(storeID int64, totals map[string]float64, threshold float64) []domain.AffinityScore {
	scores := make([]domain.AffinityScore, 0, len(totals))
	for category, total := range totals {
		if total > threshold {
			scores = append(scores, domain.AffinityScore{StoreID: storeID, Category: category, Score: total})
		}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].Category < scores[j].Category })
	return scores
}

// Rebuild recomputes the store's profile and replaces the stored one.
// A store without inventory ends up with an empty profile.
func (b *Builder) Rebuild(ctx context.Context, storeID int64) ([]domain.AffinityScore, error) {
	products, err := b.catalog(ctx)
	if err != nil {
		return nil, err
	}
	return b.rebuild(ctx, storeID, products)
}

func (b *Builder) rebuild(ctx context.Context, storeID int64, products map[int64]domain.Product) ([]domain.AffinityScore, error) {
	var scores []domain.AffinityScore

	err := b.repo.WithTx(ctx, func(tx repository.Repository) error {
		if _, err := tx.GetStore(ctx, storeID); err != nil {
			return err
		}

		records, err := tx.ListInventoryByStore(ctx, storeID)
		if err != nil {
			return err
		}

		scores = Significant(storeID, CategoryTotals(records, products), b.threshold)
		return tx.ReplaceAffinity(ctx, storeID, scores)
	})
	if err != nil {
		return nil, fmt.Errorf("rebuild affinity for store %d: %w", storeID, err)
	}

	log.Debug().Int64("store_id", storeID).Int("categories", len(scores)).Msg("affinity: profile rebuilt")
	return scores, nil
}

// RebuildAll rebuilds every store's profile, several stores at a time.
func (b *Builder) RebuildAll(ctx context.Context) (map[int64][]domain.AffinityScore, error) {
	stores, err := b.repo.ListStores(ctx)
	if err != nil {
		return nil, err
	}
	products, err := b.catalog(ctx)
	if err != nil {
		return nil, err
	}

	results := make([][]domain.AffinityScore, len(stores))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, store := range stores {
		g.Go(func() error {
			scores, err := b.rebuild(gctx, store.ID, products)
			if err != nil {
				return err
			}
			results[i] = scores
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	profiles := make(map[int64][]domain.AffinityScore, len(stores))
	for i, store := range stores {
		profiles[store.ID] = results[i]
	}
	log.Info().Int("stores", len(stores)).Msg("affinity: all profiles rebuilt")
	return profiles, nil
}

// Score returns the store's score for category, 0 when the category is absent.
func (b *Builder) Score(ctx context.Context, storeID int64, category string) (float64, error) {
	scores, err := b.repo.ListAffinity(ctx, storeID)
	if err != nil {
		return 0, err
	}
	for _, s := range scores {
		if s.Category == category {
			return s.Score, nil
		}
	}
	return 0, nil
}

// Profile returns the store's scores ordered from strongest to weakest.
func (b *Builder) Profile(ctx context.Context, storeID int64) ([]domain.AffinityScore, error) {
	if _, err := b.repo.GetStore(ctx, storeID); err != nil {
		return nil, err
	}
	scores, err := b.repo.ListAffinity(ctx, storeID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores, nil
}

func (b *Builder) catalog(ctx context.Context) (map[int64]domain.Product, error) {
	products, err := b.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}
