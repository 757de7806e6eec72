package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/jmoiron/sqlx"
)

func (r *Repository) SaveFeedback(ctx context.Context, feedback *domain.ManagerFeedback) error {
	if err := r.requireStoreAndProduct(ctx, feedback.StoreID, feedback.ProductID); err != nil {
		return err
	}

	query := `
		INSERT INTO manager_feedback (store_id, product_id, comment, feedback_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	row := r.ext.QueryRowxContext(ctx, query, feedback.StoreID, feedback.ProductID, feedback.Comment, feedback.FeedbackType)
	if err := row.Scan(&feedback.ID, &feedback.CreatedAt); err != nil {
		return fmt.Errorf("failed to save feedback for store %d: %w", feedback.StoreID, err)
	}
	return nil
}

func (r *Repository) ListFeedback(ctx context.Context, storeID int64) ([]domain.ManagerFeedback, error) {
	feedback := make([]domain.ManagerFeedback, 0)
	query := `
		SELECT id, store_id, product_id, comment, feedback_type, created_at
		FROM manager_feedback
		WHERE store_id = $1
		ORDER BY id
	`
	if err := sqlx.SelectContext(ctx, r.ext, &feedback, query, storeID); err != nil {
		return nil, fmt.Errorf("failed to list feedback for store %d: %w", storeID, err)
	}
	return feedback, nil
}
