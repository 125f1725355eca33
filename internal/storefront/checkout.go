package storefront

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-storefront/internal/domain/address"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/payment"
	"github.com/xenking/kart-storefront/internal/domain/pricing"
	"github.com/xenking/kart-storefront/internal/wire"
)

// Checkout starts checkout attempts from the current cart and selected
// address.
type Checkout struct {
	cart      *Cart
	addresses *AddressBook
	payments  PaymentBackend
	auth      *AuthContext
	currency  string
	lg        *zap.Logger
	tracer    trace.Tracer

	mu         sync.Mutex
	thresholds pricing.Thresholds
	lastTotal  *decimal.Decimal
}

// SetThresholds replaces the pricing configuration used by new attempts.
func (c *Checkout) SetThresholds(t pricing.Thresholds) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thresholds = t
}

// Thresholds returns the pricing configuration used by new attempts.
func (c *Checkout) Thresholds() pricing.Thresholds {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thresholds
}

// Prepare loads the cart and the addresses concurrently.
func (c *Checkout) Prepare(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.cart.Load(ctx)
	})
	g.Go(func() error {
		_, err := c.addresses.List(ctx)
		return err
	})
	return g.Wait()
}

// Begin opens an attempt for method. It fails with ErrNoAddress without a
// selected saved address and with ErrEmptyCart for an empty cart. The cart
// is frozen and priced once here; the attempt never reprices.
func (c *Checkout) Begin(method Method) (*Attempt, error) {
	if method == nil {
		return nil, errors.New("payment method is required")
	}
	addr, ok := c.addresses.Selected()
	if !ok {
		return nil, ErrNoAddress
	}
	snapshot := c.cart.Snapshot()
	if snapshot.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if o, ok := method.(Online); ok && o.Widget == nil {
		return nil, errors.New("online payment needs a widget")
	}
	return &Attempt{
		co:        c,
		method:    method,
		Address:   addr,
		Cart:      snapshot,
		Breakdown: pricing.Compute(snapshot.Items, c.Thresholds()),
		state:     Idle,
	}, nil
}

// LastOrderTotal returns the amount of the most recently committed order,
// for the confirmation screen shown after the cart has been cleared.
func (c *Checkout) LastOrderTotal() (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastTotal == nil {
		return decimal.Zero, false
	}
	return *c.lastTotal, true
}

func (c *Checkout) committed(ctx context.Context, a *Attempt) {
	total := a.Breakdown.Total
	c.mu.Lock()
	c.lastTotal = &total
	c.mu.Unlock()

	// The server already took the paid items out of the cart; a committed
	// checkout still leaves the cart empty.
	if err := c.cart.Clear(ctx); err != nil {
		c.lg.Warn("Clear cart after order", zap.Error(err))
		c.cart.reset()
	}
}

// Attempt is one run of the checkout state machine. It is not reusable: a
// failed attempt is retried by beginning a new one against the same cart.
type Attempt struct {
	co     *Checkout
	method Method

	// Address, Cart and Breakdown are frozen when the attempt begins.
	Address   address.Address
	Cart      cart.Cart
	Breakdown pricing.Breakdown

	mu          sync.Mutex
	state       State
	intent      *payment.Intent
	verifyCalls int
}

// State returns the current state.
func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Intent returns the gateway intent of an online attempt, if created.
func (a *Attempt) Intent() *payment.Intent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.intent
}

// Run drives the attempt to Committed and returns the order, or to Failed
// and returns the reason. Server reasons are returned verbatim. If ctx ends
// while the payment widget is open, the attempt stays in GatewayWidgetOpen
// and the context error is returned.
func (a *Attempt) Run(ctx context.Context) (*order.Order, error) {
	if !a.begin() {
		return nil, ErrAttemptStarted
	}

	kind := a.method.Kind()
	ctx, span := a.co.tracer.Start(ctx, "checkout.Attempt",
		trace.WithAttributes(
			attribute.String("payment.method", string(kind)),
			attribute.String("checkout.total", a.Breakdown.Total.String()),
			attribute.Int("checkout.items", a.Breakdown.ItemCount),
		),
	)
	defer span.End()
	lg := a.co.lg.With(zap.String("method", string(kind)), zap.Stringer("total", a.Breakdown.Total))

	o, err := a.method.run(ctx, a)
	if err != nil {
		var abandoned *abandonedError
		if errors.As(err, &abandoned) {
			lg.Info("Payment widget abandoned")
			span.SetAttributes(attribute.Bool("checkout.abandoned", true))
			return nil, abandoned.err
		}
		if ferr := a.fire(evFailed); ferr != nil {
			lg.Debug("Mark attempt failed", zap.Error(ferr))
		}
		lg.Info("Checkout failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := a.fire(evCommitted); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", o.ID))
	lg.Info("Order committed", zap.String("order_id", o.ID))

	a.co.committed(ctx, a)
	return o, nil
}

// begin leaves Idle through the method's start event. Only the first of
// concurrent callers gets true.
func (a *Attempt) begin() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Idle {
		return false
	}
	a.state = transitions[Idle][a.method.start()]
	return true
}

// fire applies ev to the current state.
func (a *Attempt) fire(ev event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	next, ok := transitions[a.state][ev]
	if !ok {
		return errors.Errorf("checkout: no transition from %s on event %d", a.state, ev)
	}
	a.state = next
	return nil
}

func (a *Attempt) setIntent(in *payment.Intent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.intent = in
}

// verify forwards the confirmation to the server, at most once per attempt.
func (a *Attempt) verify(ctx context.Context, confirmation []byte) (wire.VerifyResult, error) {
	a.mu.Lock()
	if a.verifyCalls > 0 {
		a.mu.Unlock()
		return wire.VerifyResult{}, ErrAlreadyVerified
	}
	a.verifyCalls++
	a.mu.Unlock()

	return guard(ctx, a.co.auth, func(ctx context.Context, token string) (wire.VerifyResult, error) {
		return a.co.payments.VerifyPayment(ctx, token, confirmation)
	})
}

// committedView builds the local view of the order committed by this
// attempt from its frozen data.
func (a *Attempt) committedView(m order.Method, s order.Status) *order.Order {
	return &order.Order{
		Items:           order.FreezeItems(a.Cart.Items),
		ShippingAddress: a.Address.Fields,
		Subtotal:        a.Breakdown.Subtotal,
		Shipping:        a.Breakdown.Shipping,
		Tax:             a.Breakdown.Tax,
		Amount:          a.Breakdown.Total,
		Method:          m,
		Status:          s,
	}
}
