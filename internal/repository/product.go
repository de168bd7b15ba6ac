package repository

import (
	"context"
	"fmt"
	"orderchat/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type ProductRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{
		db: db,
	}
}

// UpsertProducts inserts or updates catalog rows by code
func (r *ProductRepository) UpsertProducts(ctx context.Context, products []entities.Product) error {
	if len(products) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(`
			INSERT INTO products (code, name, unit_price, active, updated_at)
			VALUES ($1, $2, $3::numeric, TRUE, NOW())
			ON CONFLICT (code) DO UPDATE
			SET name = EXCLUDED.name,
			    unit_price = EXCLUDED.unit_price,
			    active = TRUE,
			    updated_at = NOW();
		`, p.ID, p.Name, p.UnitPrice.String())
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()
	for _, p := range products {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to sync product %s: %w", p.ID, err)
		}
	}
	return nil
}

// ListCatalog returns all active products ordered by name
func (r *ProductRepository) ListCatalog(ctx context.Context) ([]entities.Product, error) {
	rows, err := r.db.Query(ctx, "SELECT code, name, unit_price::text FROM products WHERE active ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProducts(rows)
}

// SearchCatalog returns active products whose name contains query, ignoring case
func (r *ProductRepository) SearchCatalog(ctx context.Context, query string) ([]entities.Product, error) {
	rows, err := r.db.Query(ctx, "SELECT code, name, unit_price::text FROM products WHERE active AND name ILIKE $1 ORDER BY name", "%"+escapeLike(query)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]entities.Product, error) {
	products := []entities.Product{}
	for rows.Next() {
		var p entities.Product
		var price string
		if err := rows.Scan(&p.ID, &p.Name, &price); err != nil {
			return nil, err
		}
		unit, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("invalid price for %s: %w", p.ID, err)
		}
		p.UnitPrice = unit
		products = append(products, p)
	}
	return products, rows.Err()
}
