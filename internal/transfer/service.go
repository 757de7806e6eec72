package transfer

import (
	"context"
	"fmt"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/repository"
	"github.com/rs/zerolog/log"
)

// Service executes approved stock movements. Each call is all-or-nothing.
type Service struct {
	repo repository.Repository
}

func NewService(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// Approve moves the recommended quantity out of the source store, into the
// destination store when there is one, and deletes the recommendation.
func (s *Service) Approve(ctx context.Context, id int64) (*domain.TransferRecommendation, error) {
	var approved domain.TransferRecommendation

	err := s.repo.WithTx(ctx, func(tx repository.Repository) error {
		rec, err := tx.GetRecommendation(ctx, id)
		if err != nil {
			return err
		}

		var dest int64
		if rec.DestStoreID != nil {
			dest = *rec.DestStoreID
		}
		if err := move(ctx, tx, rec.SourceStoreID, dest, rec.ProductID, rec.Quantity); err != nil {
			return err
		}

		approved = *rec
		return tx.DeleteRecommendation(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("approve recommendation %d: %w", id, err)
	}

	log.Info().
		Int64("recommendation_id", id).
		Int64("source_store_id", approved.SourceStoreID).
		Int64("product_id", approved.ProductID).
		Int("quantity", approved.Quantity).
		Str("method", string(approved.Method)).
		Msg("transfer: recommendation approved")
	return &approved, nil
}

// Reject discards a recommendation without touching inventory.
func (s *Service) Reject(ctx context.Context, id int64) error {
	if err := s.repo.DeleteRecommendation(ctx, id); err != nil {
		return fmt.Errorf("reject recommendation %d: %w", id, err)
	}
	log.Info().Int64("recommendation_id", id).Msg("transfer: recommendation rejected")
	return nil
}

// Transfer performs an operator-initiated move between two stores. The
// source is req.InventoryID when set, otherwise (SourceStoreID, ProductID).
func (s *Service) Transfer(ctx context.Context, req domain.ManualTransfer) (*domain.TransferResult, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("transfer quantity %d: %w", req.Quantity, domain.ErrInvalidQuantity)
	}
	if req.InventoryID == 0 && (req.SourceStoreID == 0 || req.ProductID == 0) {
		return nil, fmt.Errorf("transfer needs inventory_id or source_store_id and product_id: %w", domain.ErrInvalidRequest)
	}

	result := domain.TransferResult{
		InventoryID:   req.InventoryID,
		SourceStoreID: req.SourceStoreID,
		DestStoreID:   req.DestStoreID,
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
	}
	err := s.repo.WithTx(ctx, func(tx repository.Repository) error {
		if req.InventoryID != 0 {
			source, err := tx.GetInventoryByID(ctx, req.InventoryID)
			if err != nil {
				return err
			}
			result.SourceStoreID, result.ProductID = source.StoreID, source.ProductID
		}
		if result.SourceStoreID == result.DestStoreID {
			return fmt.Errorf("transfer from store %d to itself: %w", result.SourceStoreID, domain.ErrInvalidQuantity)
		}
		if _, err := tx.GetStore(ctx, result.DestStoreID); err != nil {
			return err
		}

		remaining, err := tx.DecrementInventory(ctx, result.SourceStoreID, result.ProductID, result.Quantity)
		if err != nil {
			return err
		}
		total, err := tx.IncrementInventory(ctx, result.DestStoreID, result.ProductID, result.Quantity)
		if err != nil {
			return err
		}
		result.NewSourceQty, result.NewDestQty = remaining, total
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("transfer %d of product %d from store %d to %d: %w",
			result.Quantity, result.ProductID, result.SourceStoreID, result.DestStoreID, err)
	}

	log.Info().
		Int64("source_store_id", result.SourceStoreID).
		Int64("dest_store_id", result.DestStoreID).
		Int64("product_id", result.ProductID).
		Int("quantity", result.Quantity).
		Int("new_source_qty", result.NewSourceQty).
		Msg("transfer: manual transfer completed")
	return &result, nil
}

// move decrements the source and, when destStoreID is non-zero, credits the
// destination. It must run inside a transaction.
func move(ctx context.Context, tx repository.Repository, sourceStoreID, destStoreID, productID int64, qty int) error {
	if _, err := tx.DecrementInventory(ctx, sourceStoreID, productID, qty); err != nil {
		return err
	}
	if destStoreID == 0 {
		return nil
	}
	_, err := tx.IncrementInventory(ctx, destStoreID, productID, qty)
	return err
}
