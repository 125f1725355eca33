package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/kart-storefront/internal/domain/address"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/pricing"
)

// Sentinel errors for order placement.
var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrAmountMismatch = errors.New("amount does not match cart total")
)

// AmountMismatchError is returned when the amount the client displayed
// differs from the total computed from the server cart.
type AmountMismatchError struct {
	Expected decimal.Decimal
	Actual   decimal.Decimal
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount %s does not match cart total %s", e.Actual, e.Expected)
}

func (e *AmountMismatchError) Is(target error) bool {
	return target == ErrAmountMismatch
}

// CartSource returns the priced cart of a user.
type CartSource interface {
	Get(ctx context.Context, userID string) (cart.Cart, error)
}

// AddressSource returns a saved address of a user.
type AddressSource interface {
	Get(ctx context.Context, userID, id string) (*address.Address, error)
}

// Drafter freezes a user's cart and chosen address into an order draft.
type Drafter struct {
	carts      CartSource
	addresses  AddressSource
	thresholds pricing.Thresholds
}

// NewDrafter creates a Drafter.
func NewDrafter(carts CartSource, addresses AddressSource, t pricing.Thresholds) *Drafter {
	return &Drafter{carts: carts, addresses: addresses, thresholds: t}
}

// Thresholds returns the pricing configuration drafts are computed with.
func (d *Drafter) Thresholds() pricing.Thresholds {
	return d.thresholds
}

// Draft prices the current cart and checks it against the amount the
// client showed the customer.
func (d *Drafter) Draft(ctx context.Context, userID, addressID string, amount decimal.Decimal) (*Draft, error) {
	c, err := d.carts.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	addr, err := d.addresses.Get(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	b := pricing.Compute(c.Items, d.thresholds)
	if !b.Total.Equal(amount) {
		return nil, &AmountMismatchError{Expected: b.Total, Actual: amount}
	}
	return &Draft{
		UserID:  userID,
		Items:   FreezeItems(c.Items),
		Address: addr.Fields,
		Price:   b,
	}, nil
}

// PlaceCODRequest holds the input for a cash-on-delivery order.
type PlaceCODRequest struct {
	AddressID string
	// Amount is the total the customer confirmed.
	Amount decimal.Decimal
}

// Service encapsulates order placement and history.
type Service struct {
	drafter *Drafter
	orders  Repository
	now     func() time.Time
	placed  metric.Int64Counter
}

// NewService creates an order Service. Placed orders are counted on meter.
func NewService(drafter *Drafter, orders Repository, meter metric.Meter) (*Service, error) {
	placed, err := meter.Int64Counter("kart.orders.placed",
		metric.WithDescription("Orders committed, by payment method"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders counter")
	}
	return &Service{
		drafter: drafter,
		orders:  orders,
		now:     time.Now,
		placed:  placed,
	}, nil
}

// PlaceCOD creates a cash-on-delivery order from the user's cart and clears
// the cart.
func (s *Service) PlaceCOD(ctx context.Context, userID string, req PlaceCODRequest) (*Order, error) {
	d, err := s.drafter.Draft(ctx, userID, req.AddressID, req.Amount)
	if err != nil {
		return nil, err
	}

	o := d.Build(MethodCOD, "")
	o.ID = uuid.NewString()
	o.CreatedAt = s.now().UTC()
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	s.record(ctx, o)
	return o, nil
}

// record counts a committed order.
func (s *Service) record(ctx context.Context, o *Order) {
	s.placed.Add(ctx, 1, metric.WithAttributes(attribute.String("method", string(o.Method))))
}

// List returns the user's orders, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Order, error) {
	list, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return list, nil
}

// Get returns one order of the user.
func (s *Service) Get(ctx context.Context, userID, id string) (*Order, error) {
	return s.orders.GetByID(ctx, userID, id)
}
