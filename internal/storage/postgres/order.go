package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-storefront/internal/domain/address"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/wire"
)

const (
	orderColumns = `id, user_id, items, shipping_address, subtotal, shipping, tax, amount,
		payment_method, payment_ref, status, created_at`

	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC, id`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND id = $2`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Items
// and the shipping address are frozen into JSONB columns.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order and empties the owner's cart in the same
// transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertOrder(ctx, tx, o); err != nil {
			return err
		}
		return clearCart(ctx, tx, o.UserID)
	})
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders of %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

func (r *OrderRepository) GetByID(ctx context.Context, userID, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, userID, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	items, addr := encodeFrozen(o.Items, o.ShippingAddress)
	_, err := tx.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, items, addr, o.Subtotal, o.Shipping, o.Tax, o.Amount,
		string(o.Method), o.PaymentRef, string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o              order.Order
		items, addr    []byte
		method, status string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &items, &addr, &o.Subtotal, &o.Shipping, &o.Tax, &o.Amount,
		&method, &o.PaymentRef, &status, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}
	o.Method = order.Method(method)
	o.Status = order.Status(status)
	o.Items, o.ShippingAddress, err = decodeFrozen(items, addr)
	if err != nil {
		return o, fmt.Errorf("order %q: %w", o.ID, err)
	}
	return o, nil
}

func encodeFrozen(items []order.Item, f address.Fields) (itemsJSON, addrJSON []byte) {
	itemsJSON = wire.Encode(func(e *jx.Encoder) { wire.EncodeOrderItems(e, items) })
	addrJSON = wire.Encode(func(e *jx.Encoder) { wire.EncodeFields(e, f) })
	return itemsJSON, addrJSON
}

func decodeFrozen(itemsJSON, addrJSON []byte) ([]order.Item, address.Fields, error) {
	var (
		items []order.Item
		f     address.Fields
	)
	err := wire.Decode(itemsJSON, func(d *jx.Decoder) (err error) {
		items, err = wire.DecodeOrderItems(d)
		return err
	})
	if err != nil {
		return nil, f, fmt.Errorf("decoding items: %w", err)
	}
	err = wire.Decode(addrJSON, func(d *jx.Decoder) (err error) {
		f, err = wire.DecodeFields(d)
		return err
	})
	if err != nil {
		return nil, f, fmt.Errorf("decoding shipping address: %w", err)
	}
	return items, f, nil
}
