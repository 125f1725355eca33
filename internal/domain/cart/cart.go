package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrLineNotFound is returned when a mutation targets a line item that
	// is not in the cart.
	ErrLineNotFound = errors.New("cart item not found")
	// ErrInvalidQuantity is returned for quantities below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Key identifies a line item. Two items with the same product but a
// different size are distinct lines. An empty Size means "no variant".
type Key struct {
	ProductID string
	Size      string
}

func (k Key) String() string {
	if k.Size == "" {
		return k.ProductID
	}
	return k.ProductID + "/" + k.Size
}

// Item is a single cart line with the unit price snapshot taken when the
// server last reported the cart.
type Item struct {
	ProductID     string
	Name          string
	Size          string
	Quantity      int
	UnitPrice     decimal.Decimal
	OriginalPrice *decimal.Decimal
}

// Key returns the line identity of the item.
func (i Item) Key() Key {
	return Key{ProductID: i.ProductID, Size: i.Size}
}

// LineTotal is UnitPrice * Quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is a snapshot of a user's cart. Count and Subtotal are always derived.
type Cart struct {
	Items []Item
}

// Count returns the total number of units across all lines.
func (c Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Subtotal returns the sum of all line totals.
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Find returns the line with the given key.
func (c Cart) Find(k Key) (Item, bool) {
	for _, it := range c.Items {
		if it.Key() == k {
			return it, true
		}
	}
	return Item{}, false
}

// Clone returns a deep copy that shares no memory with c.
func (c Cart) Clone() Cart {
	items := make([]Item, len(c.Items))
	for i, it := range c.Items {
		if it.OriginalPrice != nil {
			op := *it.OriginalPrice
			it.OriginalPrice = &op
		}
		items[i] = it
	}
	return Cart{Items: items}
}

// InsufficientStockError is returned when a requested quantity exceeds the
// units available for a product.
type InsufficientStockError struct {
	ProductID string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d left in stock for product %s", e.Available, e.ProductID)
}

// Line is the stored form of a cart row, without price data.
type Line struct {
	Key      Key
	Quantity int
}

// Repository defines persistence operations for per-user carts.
type Repository interface {
	Lines(ctx context.Context, userID string) ([]Line, error)
	// Increment adds qty to the line, creating it when absent, and returns
	// the resulting quantity.
	Increment(ctx context.Context, userID string, k Key, qty int) (int, error)
	// Set overwrites the line quantity, creating it when absent.
	Set(ctx context.Context, userID string, k Key, qty int) error
	// Remove deletes a line and returns ErrLineNotFound when it is absent.
	Remove(ctx context.Context, userID string, k Key) error
	Clear(ctx context.Context, userID string) error
}
