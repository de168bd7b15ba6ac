package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(ctx context.Context, connString string, log zerolog.Logger) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}

	// Auto-migrate schema
	if err := client.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	log.Info().Msg("postgres schema ready")

	return client, nil
}

func (p *PostgresClient) Migrate(ctx context.Context) error {
	// Users Table
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) DEFAULT 'user',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	// Products Table (seeded from the catalog CSV)
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			code VARCHAR(50) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			unit_price NUMERIC(12, 2) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create products table: %w", err)
	}

	// Open cart lines, one row per owner and product
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS cart_items (
			owner_id VARCHAR(64) NOT NULL,
			product_code VARCHAR(50) NOT NULL REFERENCES products(code),
			quantity INT NOT NULL CHECK (quantity > 0),
			unit_price NUMERIC(12, 2) NOT NULL,
			added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (owner_id, product_code)
		);
	`)
	if err != nil {
		return fmt.Errorf("create cart_items table: %w", err)
	}

	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			owner_id VARCHAR(64) NOT NULL,
			total NUMERIC(12, 2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'placed',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create orders table: %w", err)
	}

	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS order_items (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_name VARCHAR(255) NOT NULL,
			quantity INT NOT NULL,
			unit_price NUMERIC(12, 2) NOT NULL,
			total_price NUMERIC(12, 2) NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create order_items table: %w", err)
	}

	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}
