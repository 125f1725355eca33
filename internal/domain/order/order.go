package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/domain/address"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/pricing"
)

// ErrNotFound is returned when an order does not exist for the caller.
var ErrNotFound = errors.New("order not found")

// Method is the fulfillment path an order was placed through.
type Method string

const (
	MethodCOD    Method = "COD"
	MethodOnline Method = "Online"
)

// Status is the fulfillment status. It is set once at creation; later
// transitions belong to the fulfillment service.
type Status string

const (
	// StatusPending marks a COD order awaiting payment on delivery.
	StatusPending Status = "Pending"
	// StatusPaid marks an order whose online payment was verified.
	StatusPaid Status = "Paid"
)

// Item is a frozen copy of a cart line at purchase time.
type Item struct {
	ProductID string
	Name      string
	Size      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Order is the terminal record of a successful checkout. Items and
// ShippingAddress are copies, never references.
type Order struct {
	ID              string
	UserID          string
	Items           []Item
	ShippingAddress address.Fields
	Subtotal        decimal.Decimal
	Shipping        decimal.Decimal
	Tax             decimal.Decimal
	Amount          decimal.Decimal
	Method          Method
	PaymentRef      string
	Status          Status
	CreatedAt       time.Time
}

// FreezeItems copies cart lines into order items.
func FreezeItems(items []cart.Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Size:      it.Size,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}
	return out
}

// Draft holds everything needed to create an order, frozen at the moment
// the customer committed to the amount.
type Draft struct {
	UserID  string
	Items   []Item
	Address address.Fields
	Price   pricing.Breakdown
}

// Build turns a draft into an order with the given method and payment
// reference. ID and CreatedAt are left for the caller.
func (d Draft) Build(m Method, paymentRef string) *Order {
	status := StatusPending
	if m == MethodOnline {
		status = StatusPaid
	}
	return &Order{
		UserID:          d.UserID,
		Items:           d.Items,
		ShippingAddress: d.Address,
		Subtotal:        d.Price.Subtotal,
		Shipping:        d.Price.Shipping,
		Tax:             d.Price.Tax,
		Amount:          d.Price.Total,
		Method:          m,
		PaymentRef:      paymentRef,
		Status:          status,
	}
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create stores the order and empties the owner's cart in one
	// transaction.
	Create(ctx context.Context, o *Order) error
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	GetByID(ctx context.Context, userID, id string) (*Order, error)
}
