package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/repository"
	"github.com/jmoiron/sqlx"
)

var _ repository.Repository = (*Repository)(nil)

// Repository implements repository.Repository on PostgreSQL.
type Repository struct {
	db   *DB
	ext  sqlx.ExtContext
	inTx bool
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db, ext: db.DB}
}

// WithTx runs fn inside a single database transaction. A repository that is
// already transactional runs fn directly so nested calls share the outer tx.
func (r *Repository) WithTx(ctx context.Context, fn func(tx repository.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&Repository{db: r.db, ext: tx, inTx: true})
	})
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf(format+": %w", append(args, domain.ErrNotFound)...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// syncSequence moves a serial sequence past rows inserted with explicit IDs.
func (r *Repository) syncSequence(ctx context.Context, table string) error {
	query := fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), GREATEST((SELECT COALESCE(MAX(id), 0) FROM %[1]s), 1))`,
		table,
	)
	if _, err := r.ext.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to sync %s sequence: %w", table, err)
	}
	return nil
}

func (r *Repository) ListStores(ctx context.Context) ([]domain.Store, error) {
	stores := make([]domain.Store, 0)
	if err := sqlx.SelectContext(ctx, r.ext, &stores, `SELECT id, name, lat, lon, type FROM stores ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	return stores, nil
}

func (r *Repository) GetStore(ctx context.Context, id int64) (*domain.Store, error) {
	var store domain.Store
	err := sqlx.GetContext(ctx, r.ext, &store, `SELECT id, name, lat, lon, type FROM stores WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "store %d", id)
	}
	return &store, nil
}

func (r *Repository) SaveStore(ctx context.Context, store *domain.Store) error {
	if store.ID == 0 {
		query := `INSERT INTO stores (name, lat, lon, type) VALUES ($1, $2, $3, $4) RETURNING id`
		if err := sqlx.GetContext(ctx, r.ext, &store.ID, query, store.Name, store.Lat, store.Lon, store.Type); err != nil {
			return fmt.Errorf("failed to insert store: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO stores (id, name, lat, lon, type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			type = EXCLUDED.type
	`
	if _, err := r.ext.ExecContext(ctx, query, store.ID, store.Name, store.Lat, store.Lon, store.Type); err != nil {
		return fmt.Errorf("failed to save store %d: %w", store.ID, err)
	}
	return r.syncSequence(ctx, "stores")
}

func (r *Repository) DeleteStore(ctx context.Context, id int64) error {
	res, err := r.ext.ExecContext(ctx, `DELETE FROM stores WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete store %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

const productColumns = `id, name, category, size, price, carbon_footprint_weight, image_url`

func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0)
	if err := sqlx.SelectContext(ctx, r.ext, &products, `SELECT `+productColumns+` FROM products ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	err := sqlx.GetContext(ctx, r.ext, &product, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "product %d", id)
	}
	return &product, nil
}

func (r *Repository) SaveProduct(ctx context.Context, p *domain.Product) error {
	if p.ID == 0 {
		query := `
			INSERT INTO products (name, category, size, price, carbon_footprint_weight, image_url)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`
		err := sqlx.GetContext(ctx, r.ext, &p.ID, query, p.Name, p.Category, p.Size, p.Price, p.CarbonFootprintWeight, p.ImageURL)
		if err != nil {
			return fmt.Errorf("failed to insert product: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO products (id, name, category, size, price, carbon_footprint_weight, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			size = EXCLUDED.size,
			price = EXCLUDED.price,
			carbon_footprint_weight = EXCLUDED.carbon_footprint_weight,
			image_url = EXCLUDED.image_url
	`
	_, err := r.ext.ExecContext(ctx, query, p.ID, p.Name, p.Category, p.Size, p.Price, p.CarbonFootprintWeight, p.ImageURL)
	if err != nil {
		return fmt.Errorf("failed to save product %d: %w", p.ID, err)
	}
	return r.syncSequence(ctx, "products")
}
