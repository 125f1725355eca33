package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-storefront/internal/domain/cart"
)

const (
	listCartLinesSQL = `SELECT product_id, size, quantity FROM cart_items
		WHERE user_id = $1 ORDER BY added_at, product_id, size`

	incrementCartLineSQL = `INSERT INTO cart_items (user_id, product_id, size, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id, size)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING quantity`

	setCartLineSQL = `INSERT INTO cart_items (user_id, product_id, size, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id, size)
		DO UPDATE SET quantity = EXCLUDED.quantity`

	removeCartLineSQL = `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2 AND size = $3`

	clearCartSQL = `DELETE FROM cart_items WHERE user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Lines returns the user's cart lines in insertion order.
func (r *CartRepository) Lines(ctx context.Context, userID string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, listCartLinesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart of %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Line, error) {
		var l cart.Line
		err := row.Scan(&l.Key.ProductID, &l.Key.Size, &l.Quantity)
		return l, err
	})
}

func (r *CartRepository) Increment(ctx context.Context, userID string, k cart.Key, qty int) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, incrementCartLineSQL, userID, k.ProductID, k.Size, qty).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("incrementing cart line %s: %w", k, err)
	}
	return total, nil
}

func (r *CartRepository) Set(ctx context.Context, userID string, k cart.Key, qty int) error {
	if _, err := r.pool.Exec(ctx, setCartLineSQL, userID, k.ProductID, k.Size, qty); err != nil {
		return fmt.Errorf("setting cart line %s: %w", k, err)
	}
	return nil
}

func (r *CartRepository) Remove(ctx context.Context, userID string, k cart.Key) error {
	tag, err := r.pool.Exec(ctx, removeCartLineSQL, userID, k.ProductID, k.Size)
	if err != nil {
		return fmt.Errorf("removing cart line %s: %w", k, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, clearCartSQL, userID); err != nil {
		return fmt.Errorf("clearing cart of %q: %w", userID, err)
	}
	return nil
}

// clearCart empties the cart inside an order transaction.
func clearCart(ctx context.Context, tx pgx.Tx, userID string) error {
	if _, err := tx.Exec(ctx, clearCartSQL, userID); err != nil {
		return fmt.Errorf("clearing cart of %q: %w", userID, err)
	}
	return nil
}
