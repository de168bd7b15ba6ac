package repository

import (
	"context"
	"fmt"
	"orderchat/internal/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CartRepository keeps one open cart per owner and turns it into an order on checkout
type CartRepository struct {
	db *pgxpool.Pool
}

func NewCartRepository(db *pgxpool.Pool) *CartRepository {
	return &CartRepository{db: db}
}

// AddToCart adds one unit of the product, or bumps the quantity when it is already in the cart
func (r *CartRepository) AddToCart(ctx context.Context, ownerID, productID string) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO cart_items (owner_id, product_code, quantity, unit_price, added_at)
		SELECT $1, code, 1, unit_price, NOW() FROM products WHERE code = $2 AND active
		ON CONFLICT (owner_id, product_code)
		DO UPDATE SET quantity = cart_items.quantity + 1
	`, ownerID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	return nil
}

const pgCartQuery = `
	SELECT p.name, ci.quantity, ci.unit_price::text
	FROM cart_items ci
	JOIN products p ON p.code = ci.product_code
	WHERE ci.owner_id = $1
	ORDER BY ci.added_at, p.name`

// GetCart returns nil when the owner has nothing in the cart
func (r *CartRepository) GetCart(ctx context.Context, ownerID string) (*entities.CartSnapshot, error) {
	rows, err := r.db.Query(ctx, pgCartQuery, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines, err := scanCartLines(rows)
	if err != nil {
		return nil, err
	}
	return buildCart(lines)
}

func (r *CartRepository) RemoveAllItems(ctx context.Context, ownerID string) (string, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM cart_items WHERE owner_id = $1", ownerID)
	if err != nil {
		return "", err
	}
	if tag.RowsAffected() == 0 {
		return NothingToRemoveText, nil
	}
	return RemovedAllText, nil
}

// Checkout moves the cart into a new order and empties it, in one transaction
func (r *CartRepository) Checkout(ctx context.Context, ownerID string) (string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, pgCartQuery+" FOR UPDATE OF ci", ownerID)
	if err != nil {
		return "", err
	}
	lines, err := scanCartLines(rows)
	rows.Close()
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

	var orderID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (owner_id, total, status, created_at)
		VALUES ($1, $2::numeric, 'placed', NOW())
		RETURNING id
	`, ownerID, cart.GrandTotal.String()).Scan(&orderID)
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}

	for _, item := range cart.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_name, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4::numeric, $5::numeric)
		`, orderID, item.ProductName, item.Quantity, item.UnitPrice.String(), item.TotalPrice.String())
		if err != nil {
			return "", fmt.Errorf("create order item: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM cart_items WHERE owner_id = $1", ownerID); err != nil {
		return "", fmt.Errorf("clear cart: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return orderPlacedText(orderID, cart.GrandTotal), nil
}

func scanCartLines(rows pgx.Rows) ([]cartLine, error) {
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
