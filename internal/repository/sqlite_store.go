package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"orderchat/internal/entities"
	"strings"

	"github.com/shopspring/decimal"
)

// SQLiteStore is the embedded single-file backend used when no Postgres URL
// is configured. Prices are stored as TEXT and parsed with decimal.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) UpsertProducts(ctx context.Context, products []entities.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range products {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (code, name, unit_price, active, updated_at)
			VALUES (?, ?, ?, 1, CURRENT_TIMESTAMP)
			ON CONFLICT (code) DO UPDATE
			SET name = excluded.name,
			    unit_price = excluded.unit_price,
			    active = 1,
			    updated_at = CURRENT_TIMESTAMP`,
			p.ID, p.Name, p.UnitPrice.String())
		if err != nil {
			return fmt.Errorf("failed to sync product %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListCatalog(ctx context.Context) ([]entities.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, name, unit_price FROM products WHERE active = 1 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSQLiteProducts(rows)
}

// SearchCatalog matches names containing query; LIKE ignores ASCII case in sqlite
func (s *SQLiteStore) SearchCatalog(ctx context.Context, query string) ([]entities.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name, unit_price FROM products WHERE active = 1 AND name LIKE ? ESCAPE '\' ORDER BY name`,
		"%"+escapeLike(query)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSQLiteProducts(rows)
}

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanSQLiteProducts(rows *sql.Rows) ([]entities.Product, error) {
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

func (s *SQLiteStore) AddToCart(ctx context.Context, ownerID, productID string) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_items (owner_id, product_code, quantity, unit_price, added_at)
		SELECT ?, code, 1, unit_price, CURRENT_TIMESTAMP FROM products WHERE code = ? AND active = 1
		ON CONFLICT (owner_id, product_code)
		DO UPDATE SET quantity = cart_items.quantity + 1`,
		ownerID, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	return nil
}

const sqliteCartQuery = `
	SELECT p.name, ci.quantity, ci.unit_price
	FROM cart_items ci
	JOIN products p ON p.code = ci.product_code
	WHERE ci.owner_id = ?
	ORDER BY ci.added_at, ci.rowid`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func sqliteCartLines(ctx context.Context, q queryer, ownerID string) ([]cartLine, error) {
	rows, err := q.QueryContext(ctx, sqliteCartQuery, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []cartLine
	for rows.Next() {
		var l cartLine
		if err := rows.Scan(&l.ProductName, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *SQLiteStore) GetCart(ctx context.Context, ownerID string) (*entities.CartSnapshot, error) {
	lines, err := sqliteCartLines(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	return buildCart(lines)
}

func (s *SQLiteStore) RemoveAllItems(ctx context.Context, ownerID string) (string, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE owner_id = ?`, ownerID)
	if err != nil {
		return "", err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return NothingToRemoveText, nil
	}
	return RemovedAllText, nil
}

func (s *SQLiteStore) Checkout(ctx context.Context, ownerID string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	lines, err := sqliteCartLines(ctx, tx, ownerID)
	if err != nil {
		return "", err
	}
	cart, err := buildCart(lines)
	if err != nil {
		return "", err
	}
	if cart.IsEmpty() {
		return NothingToCheckoutText, nil
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO orders (owner_id, total, status, created_at) VALUES (?, ?, 'placed', CURRENT_TIMESTAMP)`,
		ownerID, cart.GrandTotal.String())
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return "", err
	}

	for _, item := range cart.Items {
		_, err := tx.ExecContext(ctx, `INSERT INTO order_items (order_id, product_name, quantity, unit_price, total_price) VALUES (?, ?, ?, ?, ?)`,
			orderID, item.ProductName, item.Quantity, item.UnitPrice.String(), item.TotalPrice.String())
		if err != nil {
			return "", fmt.Errorf("create order item: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE owner_id = ?`, ownerID); err != nil {
		return "", fmt.Errorf("clear cart: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return orderPlacedText(orderID, cart.GrandTotal), nil
}

// OrderCount returns how many orders the owner has placed
func (s *SQLiteStore) OrderCount(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE owner_id = ?`, ownerID).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Create(ctx context.Context, user *entities.User) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		user.Username, user.PasswordHash, user.Role)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = int(id)
	return nil
}

func (s *SQLiteStore) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	err := s.db.QueryRowContext(ctx, `SELECT id, username, password_hash, role FROM users WHERE username = ?`, username).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
