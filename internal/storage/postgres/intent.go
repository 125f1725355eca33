package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/payment"
)

const (
	createIntentSQL = `INSERT INTO payment_intents
		(id, user_id, gateway_order_id, key_id, amount, currency,
		 items, shipping_address, subtotal, shipping, tax, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	getIntentSQL = `SELECT id, user_id, gateway_order_id, key_id, amount, currency,
		items, shipping_address, subtotal, shipping, tax, created_at
		FROM payment_intents WHERE user_id = $1 AND gateway_order_id = $2`

	consumeIntentSQL = `UPDATE payment_intents SET consumed_at = now(), order_id = $2
		WHERE id = $1 AND consumed_at IS NULL`

	getIntentOrderSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE id = (SELECT order_id FROM payment_intents WHERE id = $1)`

	dropPaidLineSQL = `DELETE FROM cart_items
		WHERE user_id = $1 AND product_id = $2 AND size = $3 AND quantity <= $4`

	shrinkPaidLineSQL = `UPDATE cart_items SET quantity = quantity - $4
		WHERE user_id = $1 AND product_id = $2 AND size = $3 AND quantity > $4`
)

var errConsumed = errors.New("intent already consumed")

var _ payment.Repository = (*IntentRepository)(nil)

// IntentRepository implements payment.Repository backed by PostgreSQL.
type IntentRepository struct {
	pool *pgxpool.Pool
}

// NewIntentRepository returns an IntentRepository that uses the given pool.
func NewIntentRepository(pool *pgxpool.Pool) *IntentRepository {
	return &IntentRepository{pool: pool}
}

// Create stores the intent together with its frozen draft.
func (r *IntentRepository) Create(ctx context.Context, in *payment.Intent) error {
	d := in.Draft
	items, addr := encodeFrozen(d.Items, d.Address)
	_, err := r.pool.Exec(ctx, createIntentSQL,
		in.ID, in.UserID, in.GatewayOrderID, in.KeyID, in.Amount, in.Currency,
		items, addr, d.Price.Subtotal, d.Price.Shipping, d.Price.Tax, in.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating intent %q: %w", in.GatewayOrderID, err)
	}
	return nil
}

func (r *IntentRepository) GetByGatewayOrderID(ctx context.Context, userID, gatewayOrderID string) (*payment.Intent, error) {
	rows, err := r.pool.Query(ctx, getIntentSQL, userID, gatewayOrderID)
	if err != nil {
		return nil, fmt.Errorf("getting intent %q: %w", gatewayOrderID, err)
	}

	in, err := pgx.CollectExactlyOneRow(rows, scanIntent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrIntentNotFound
		}
		return nil, fmt.Errorf("getting intent %q: %w", gatewayOrderID, err)
	}
	return &in, nil
}

// Commit inserts o, marks the intent consumed and takes the paid items out
// of the cart in one transaction. Only the quantities frozen in o leave the
// cart; lines added after the intent was created stay. The consume update
// only matches an unconsumed intent, so a concurrent second commit blocks
// on the row lock and then matches nothing.
func (r *IntentRepository) Commit(ctx context.Context, intentID string, o *order.Order) (*order.Order, bool, error) {
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertOrder(ctx, tx, o); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, consumeIntentSQL, intentID, o.ID)
		if err != nil {
			return fmt.Errorf("consuming intent %q: %w", intentID, err)
		}
		if tag.RowsAffected() == 0 {
			return errConsumed
		}
		return releasePaidItems(ctx, tx, o.UserID, o.Items)
	})
	switch {
	case err == nil:
		return o, false, nil
	case errors.Is(err, errConsumed):
		prev, err := r.committedOrder(ctx, intentID)
		if err != nil {
			return nil, false, err
		}
		return prev, true, nil
	default:
		return nil, false, err
	}
}

func (r *IntentRepository) committedOrder(ctx context.Context, intentID string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getIntentOrderSQL, intentID)
	if err != nil {
		return nil, fmt.Errorf("getting order of intent %q: %w", intentID, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("getting order of intent %q: %w", intentID, err)
	}
	return &o, nil
}

// releasePaidItems subtracts the paid quantities from the cart, dropping
// lines that reach zero.
func releasePaidItems(ctx context.Context, tx pgx.Tx, userID string, items []order.Item) error {
	b := &pgx.Batch{}
	for _, it := range items {
		b.Queue(dropPaidLineSQL, userID, it.ProductID, it.Size, it.Quantity)
		b.Queue(shrinkPaidLineSQL, userID, it.ProductID, it.Size, it.Quantity)
	}
	if err := tx.SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("releasing paid items of %q: %w", userID, err)
	}
	return nil
}

func scanIntent(row pgx.CollectableRow) (payment.Intent, error) {
	var (
		in          payment.Intent
		items, addr []byte
	)
	err := row.Scan(
		&in.ID, &in.UserID, &in.GatewayOrderID, &in.KeyID, &in.Amount, &in.Currency,
		&items, &addr, &in.Draft.Price.Subtotal, &in.Draft.Price.Shipping, &in.Draft.Price.Tax,
		&in.CreatedAt,
	)
	if err != nil {
		return in, err
	}
	in.Draft.Items, in.Draft.Address, err = decodeFrozen(items, addr)
	if err != nil {
		return in, fmt.Errorf("intent %q: %w", in.GatewayOrderID, err)
	}
	in.Draft.UserID = in.UserID
	in.Draft.Price.Total = in.Amount
	in.Draft.Price.ItemCount = itemCount(in.Draft.Items)
	return in, nil
}

func itemCount(items []order.Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
