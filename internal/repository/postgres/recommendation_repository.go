package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/repository"
	"github.com/jmoiron/sqlx"
)

const recommendationColumns = `id, source_store_id, dest_store_id, product_id, quantity, co2_saved, status, method, created_at, updated_at`

func (r *Repository) UpsertRecommendations(ctx context.Context, recs []domain.TransferRecommendation) ([]domain.TransferRecommendation, error) {
	saved := make([]domain.TransferRecommendation, 0, len(recs))

	err := r.WithTx(ctx, func(txRepo repository.Repository) error {
		tx := txRepo.(*Repository)

		query := `
			INSERT INTO transfer_recommendations
				(source_store_id, dest_store_id, product_id, quantity, co2_saved, status, method)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (source_store_id, (COALESCE(dest_store_id, 0)), product_id) DO UPDATE SET
				quantity = EXCLUDED.quantity,
				co2_saved = EXCLUDED.co2_saved,
				status = EXCLUDED.status,
				method = EXCLUDED.method,
				updated_at = NOW()
			RETURNING ` + recommendationColumns

		for _, rec := range recs {
			if rec.Quantity <= 0 {
				return fmt.Errorf("recommendation quantity %d: %w", rec.Quantity, domain.ErrInvalidQuantity)
			}

			var row domain.TransferRecommendation
			err := sqlx.GetContext(ctx, tx.ext, &row, query,
				rec.SourceStoreID, rec.DestStoreID, rec.ProductID, rec.Quantity, rec.CO2Saved, rec.Status, rec.Method)
			if err != nil {
				return fmt.Errorf("failed to upsert recommendation %+v: %w", rec.Key(), err)
			}
			saved = append(saved, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *Repository) ListRecommendations(ctx context.Context) ([]domain.TransferRecommendation, error) {
	recs := make([]domain.TransferRecommendation, 0)
	query := `SELECT ` + recommendationColumns + ` FROM transfer_recommendations ORDER BY id`
	if err := sqlx.SelectContext(ctx, r.ext, &recs, query); err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	return recs, nil
}

func (r *Repository) GetRecommendation(ctx context.Context, id int64) (*domain.TransferRecommendation, error) {
	var rec domain.TransferRecommendation
	query := `SELECT ` + recommendationColumns + ` FROM transfer_recommendations WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.ext, &rec, query, id); err != nil {
		return nil, notFound(err, "recommendation %d", id)
	}
	return &rec, nil
}

func (r *Repository) DeleteRecommendation(ctx context.Context, id int64) error {
	res, err := r.ext.ExecContext(ctx, `DELETE FROM transfer_recommendations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recommendation %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("recommendation %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
