package storefront

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/pricing"
)

// Options configures a Client.
type Options struct {
	// Currency of online payments. Defaults to INR.
	Currency string
	// Thresholds used until SyncPricing succeeds. Defaults to
	// pricing.DefaultThresholds.
	Thresholds     *pricing.Thresholds
	Logger         *zap.Logger
	TracerProvider trace.TracerProvider
}

func (o *Options) setDefaults() {
	if o.Currency == "" {
		o.Currency = "INR"
	}
	if o.Thresholds == nil {
		t := pricing.DefaultThresholds
		o.Thresholds = &t
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.TracerProvider == nil {
		o.TracerProvider = otel.GetTracerProvider()
	}
}

// Client wires the storefront components around one AuthContext.
type Client struct {
	Auth      *AuthContext
	Cart      *Cart
	Addresses *AddressBook
	Checkout  *Checkout
	Orders    *Orders

	pricing PricingBackend
}

// New creates a Client on top of backend.
func New(backend Backend, auth *AuthContext, opts Options) *Client {
	opts.setDefaults()
	lg := opts.Logger

	c := NewCart(backend, auth, lg.Named("cart"))
	book := NewAddressBook(backend, auth)
	return &Client{
		Auth:      auth,
		Cart:      c,
		Addresses: book,
		Checkout: &Checkout{
			cart:       c,
			addresses:  book,
			payments:   backend,
			auth:       auth,
			currency:   opts.Currency,
			lg:         lg.Named("checkout"),
			tracer:     opts.TracerProvider.Tracer("github.com/xenking/kart-storefront/internal/storefront"),
			thresholds: *opts.Thresholds,
		},
		Orders:  NewOrders(backend, auth),
		pricing: backend,
	}
}

// SyncPricing adopts the thresholds published by the server so local
// totals match the amounts the server will accept.
func (c *Client) SyncPricing(ctx context.Context) error {
	t, err := c.pricing.Thresholds(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch pricing")
	}
	c.Checkout.SetThresholds(t)
	return nil
}

// Breakdown prices the current local cart.
func (c *Client) Breakdown() pricing.Breakdown {
	return pricing.Compute(c.Cart.Snapshot().Items, c.Checkout.Thresholds())
}
