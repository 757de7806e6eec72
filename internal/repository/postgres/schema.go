package postgres

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stores (
		id   BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		lat  DOUBLE PRECISION NOT NULL,
		lon  DOUBLE PRECISION NOT NULL,
		type VARCHAR(20) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id                      BIGSERIAL PRIMARY KEY,
		name                    VARCHAR(100) NOT NULL,
		category                VARCHAR(50) NOT NULL,
		size                    VARCHAR(10) NOT NULL,
		price                   DOUBLE PRECISION NOT NULL,
		carbon_footprint_weight DOUBLE PRECISION NOT NULL,
		image_url               VARCHAR(500)
	)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		id                    BIGSERIAL PRIMARY KEY,
		store_id              BIGINT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
		product_id            BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		quantity              INTEGER NOT NULL CHECK (quantity >= 0),
		weekly_sales_velocity DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (weekly_sales_velocity >= 0),
		last_restock_date     TIMESTAMPTZ,
		UNIQUE (store_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS store_affinity (
		store_id BIGINT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
		category VARCHAR(50) NOT NULL,
		score    DOUBLE PRECISION NOT NULL CHECK (score >= 0),
		PRIMARY KEY (store_id, category)
	)`,
	`CREATE TABLE IF NOT EXISTS transfer_recommendations (
		id              BIGSERIAL PRIMARY KEY,
		source_store_id BIGINT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
		dest_store_id   BIGINT REFERENCES stores(id) ON DELETE CASCADE,
		product_id      BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		quantity        INTEGER NOT NULL CHECK (quantity > 0),
		co2_saved       DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (co2_saved >= 0),
		status          VARCHAR(20) NOT NULL DEFAULT 'Pending',
		method          VARCHAR(20) NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS manager_feedback (
		id            BIGSERIAL PRIMARY KEY,
		store_id      BIGINT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
		product_id    BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		comment       TEXT,
		feedback_type VARCHAR(50) NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	// online recommendations have no destination; COALESCE folds them onto one key
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_transfer_recommendations_key
		ON transfer_recommendations (source_store_id, (COALESCE(dest_store_id, 0)), product_id)`,
	`CREATE INDEX IF NOT EXISTS ix_inventory_product ON inventory (product_id, quantity)`,
	`CREATE INDEX IF NOT EXISTS ix_manager_feedback_store ON manager_feedback (store_id, id)`,
}

// EnsureSchema creates the tables the engine reads and writes if they are missing.
func EnsureSchema(ctx context.Context, db *DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
