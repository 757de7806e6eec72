package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/repository"
	"github.com/jmoiron/sqlx"
)

func (r *Repository) ReplaceAffinity(ctx context.Context, storeID int64, scores []domain.AffinityScore) error {
	return r.WithTx(ctx, func(txRepo repository.Repository) error {
		tx := txRepo.(*Repository)

		if _, err := tx.GetStore(ctx, storeID); err != nil {
			return err
		}
		if _, err := tx.ext.ExecContext(ctx, `DELETE FROM store_affinity WHERE store_id = $1`, storeID); err != nil {
			return fmt.Errorf("failed to clear affinity for store %d: %w", storeID, err)
		}

		query := `
			INSERT INTO store_affinity (store_id, category, score)
			VALUES ($1, $2, $3)
			ON CONFLICT (store_id, category) DO UPDATE SET score = EXCLUDED.score
		`
		for _, s := range scores {
			if _, err := tx.ext.ExecContext(ctx, query, storeID, s.Category, s.Score); err != nil {
				return fmt.Errorf("failed to insert affinity %q for store %d: %w", s.Category, storeID, err)
			}
		}
		return nil
	})
}

func (r *Repository) ListAffinity(ctx context.Context, storeID int64) ([]domain.AffinityScore, error) {
	scores := make([]domain.AffinityScore, 0)
	query := `SELECT store_id, category, score FROM store_affinity WHERE store_id = $1 ORDER BY category`
	if err := sqlx.SelectContext(ctx, r.ext, &scores, query, storeID); err != nil {
		return nil, fmt.Errorf("failed to list affinity for store %d: %w", storeID, err)
	}
	return scores, nil
}

func (r *Repository) ListAllAffinity(ctx context.Context) ([]domain.AffinityScore, error) {
	scores := make([]domain.AffinityScore, 0)
	query := `SELECT store_id, category, score FROM store_affinity ORDER BY store_id, category`
	if err := sqlx.SelectContext(ctx, r.ext, &scores, query); err != nil {
		return nil, fmt.Errorf("failed to list affinity: %w", err)
	}
	return scores, nil
}
