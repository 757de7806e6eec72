package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/jmoiron/sqlx"
)

const inventoryColumns = `id, store_id, product_id, quantity, weekly_sales_velocity, last_restock_date`

func (r *Repository) ListInventory(ctx context.Context) ([]domain.InventoryRecord, error) {
	records := make([]domain.InventoryRecord, 0)
	if err := sqlx.SelectContext(ctx, r.ext, &records, `SELECT `+inventoryColumns+` FROM inventory ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return records, nil
}

func (r *Repository) ListInventoryByStore(ctx context.Context, storeID int64) ([]domain.InventoryRecord, error) {
	records := make([]domain.InventoryRecord, 0)
	query := `SELECT ` + inventoryColumns + ` FROM inventory WHERE store_id = $1 ORDER BY id`
	if err := sqlx.SelectContext(ctx, r.ext, &records, query, storeID); err != nil {
		return nil, fmt.Errorf("failed to list inventory for store %d: %w", storeID, err)
	}
	return records, nil
}

func (r *Repository) ListInventoryByProduct(ctx context.Context, productID int64, minQuantity int) ([]domain.InventoryRecord, error) {
	records := make([]domain.InventoryRecord, 0)
	query := `SELECT ` + inventoryColumns + ` FROM inventory WHERE product_id = $1 AND quantity >= $2 ORDER BY id`
	if err := sqlx.SelectContext(ctx, r.ext, &records, query, productID, minQuantity); err != nil {
		return nil, fmt.Errorf("failed to list inventory for product %d: %w", productID, err)
	}
	return records, nil
}

func (r *Repository) GetInventory(ctx context.Context, storeID, productID int64) (*domain.InventoryRecord, error) {
	var rec domain.InventoryRecord
	query := `SELECT ` + inventoryColumns + ` FROM inventory WHERE store_id = $1 AND product_id = $2`
	if err := sqlx.GetContext(ctx, r.ext, &rec, query, storeID, productID); err != nil {
		return nil, notFound(err, "inventory store=%d product=%d", storeID, productID)
	}
	return &rec, nil
}

func (r *Repository) GetInventoryByID(ctx context.Context, id int64) (*domain.InventoryRecord, error) {
	var rec domain.InventoryRecord
	query := `SELECT ` + inventoryColumns + ` FROM inventory WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.ext, &rec, query, id); err != nil {
		return nil, notFound(err, "inventory %d", id)
	}
	return &rec, nil
}

// requireStoreAndProduct maps missing foreign keys onto domain.ErrNotFound
// before a write would fail with a driver-specific constraint error.
func (r *Repository) requireStoreAndProduct(ctx context.Context, storeID, productID int64) error {
	var exists bool
	if err := sqlx.GetContext(ctx, r.ext, &exists, `SELECT EXISTS (SELECT 1 FROM stores WHERE id = $1)`, storeID); err != nil {
		return fmt.Errorf("failed to check store %d: %w", storeID, err)
	}
	if !exists {
		return fmt.Errorf("store %d: %w", storeID, domain.ErrNotFound)
	}
	if err := sqlx.GetContext(ctx, r.ext, &exists, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID); err != nil {
		return fmt.Errorf("failed to check product %d: %w", productID, err)
	}
	if !exists {
		return fmt.Errorf("product %d: %w", productID, domain.ErrNotFound)
	}
	return nil
}

func (r *Repository) SaveInventory(ctx context.Context, record *domain.InventoryRecord) error {
	if record.Quantity < 0 {
		return fmt.Errorf("inventory quantity %d: %w", record.Quantity, domain.ErrInvalidQuantity)
	}
	if err := r.requireStoreAndProduct(ctx, record.StoreID, record.ProductID); err != nil {
		return err
	}

	query := `
		INSERT INTO inventory (store_id, product_id, quantity, weekly_sales_velocity, last_restock_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (store_id, product_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			weekly_sales_velocity = EXCLUDED.weekly_sales_velocity,
			last_restock_date = EXCLUDED.last_restock_date
		RETURNING id
	`
	err := sqlx.GetContext(ctx, r.ext, &record.ID, query,
		record.StoreID, record.ProductID, record.Quantity, record.WeeklySalesVelocity, record.LastRestockDate)
	if err != nil {
		return fmt.Errorf("failed to save inventory store=%d product=%d: %w", record.StoreID, record.ProductID, err)
	}
	return nil
}

func (r *Repository) DecrementInventory(ctx context.Context, storeID, productID int64, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("decrement by %d: %w", qty, domain.ErrInvalidQuantity)
	}

	var remaining int
	query := `
		UPDATE inventory SET quantity = quantity - $3
		WHERE store_id = $1 AND product_id = $2 AND quantity >= $3
		RETURNING quantity
	`
	err := sqlx.GetContext(ctx, r.ext, &remaining, query, storeID, productID, qty)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to decrement inventory store=%d product=%d: %w", storeID, productID, err)
	}

	// the guard rejected the update; tell a missing row from a short one
	rec, getErr := r.GetInventory(ctx, storeID, productID)
	if getErr != nil {
		return 0, getErr
	}
	return rec.Quantity, fmt.Errorf("store %d product %d has %d, need %d: %w",
		storeID, productID, rec.Quantity, qty, domain.ErrInsufficientStock)
}

func (r *Repository) IncrementInventory(ctx context.Context, storeID, productID int64, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("increment by %d: %w", qty, domain.ErrInvalidQuantity)
	}
	if err := r.requireStoreAndProduct(ctx, storeID, productID); err != nil {
		return 0, err
	}

	var total int
	query := `
		INSERT INTO inventory (store_id, product_id, quantity, weekly_sales_velocity)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (store_id, product_id) DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity
		RETURNING quantity
	`
	if err := sqlx.GetContext(ctx, r.ext, &total, query, storeID, productID, qty); err != nil {
		return 0, fmt.Errorf("failed to increment inventory store=%d product=%d: %w", storeID, productID, err)
	}
	return total, nil
}
