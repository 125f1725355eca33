// Package handler serves the storefront REST API over net/http.
package handler

import (
	"context"
	"net/http"

	"github.com/xenking/kart-storefront/internal/domain/address"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/payment"
	"github.com/xenking/kart-storefront/internal/domain/pricing"
	"github.com/xenking/kart-storefront/internal/domain/product"
)

// CartService is the server side of the cart.
type CartService interface {
	Get(ctx context.Context, userID string) (cart.Cart, error)
	Add(ctx context.Context, userID string, k cart.Key, qty int) error
	SetQuantity(ctx context.Context, userID string, k cart.Key, qty int) error
	Remove(ctx context.Context, userID string, k cart.Key) error
	Clear(ctx context.Context, userID string) error
}

// AddressService manages saved addresses.
type AddressService interface {
	List(ctx context.Context, userID string) ([]address.Address, error)
	Create(ctx context.Context, userID string, f address.Fields) (*address.Address, error)
	Update(ctx context.Context, userID, id string, p address.Patch) (*address.Address, error)
	Delete(ctx context.Context, userID, id string) error
}

// OrderService places COD orders and serves order history.
type OrderService interface {
	PlaceCOD(ctx context.Context, userID string, req order.PlaceCODRequest) (*order.Order, error)
	List(ctx context.Context, userID string) ([]order.Order, error)
	Get(ctx context.Context, userID, id string) (*order.Order, error)
}

// PaymentService creates and verifies online payment intents.
type PaymentService interface {
	CreateIntent(ctx context.Context, userID string, req payment.CreateIntentRequest) (*payment.Intent, error)
	Verify(ctx context.Context, userID string, c payment.Confirmation) (*payment.Result, error)
}

var (
	_ CartService    = (*cart.Service)(nil)
	_ AddressService = (*address.Service)(nil)
	_ OrderService   = (*order.Service)(nil)
	_ PaymentService = (*payment.Service)(nil)
)

// Handler holds the domain services behind the API routes.
type Handler struct {
	products   product.Repository
	carts      CartService
	addresses  AddressService
	orders     OrderService
	payments   PaymentService
	thresholds pricing.Thresholds
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	carts CartService,
	addresses AddressService,
	orders OrderService,
	payments PaymentService,
	thresholds pricing.Thresholds,
) *Handler {
	return &Handler{
		products:   products,
		carts:      carts,
		addresses:  addresses,
		orders:     orders,
		payments:   payments,
		thresholds: thresholds,
	}
}

// Register mounts every API route on mux. Catalog and pricing routes are
// public; everything else goes through auth.
func (h *Handler) Register(mux *http.ServeMux, auth *Authenticator) {
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /api/pricing", h.GetPricing)

	private := func(pattern string, fn func(w http.ResponseWriter, r *http.Request, userID string)) {
		mux.Handle(pattern, auth.Require(fn))
	}
	private("GET /api/cart", h.GetCart)
	private("DELETE /api/cart", h.ClearCart)
	private("POST /api/cart/items", h.AddItem)
	private("PUT /api/cart/items", h.SetQuantity)
	private("DELETE /api/cart/items", h.RemoveItem)

	private("GET /api/addresses", h.ListAddresses)
	private("POST /api/addresses", h.CreateAddress)
	private("PATCH /api/addresses/{id}", h.UpdateAddress)
	private("DELETE /api/addresses/{id}", h.DeleteAddress)

	private("POST /api/orders/cod", h.PlaceCOD)
	private("GET /api/orders", h.ListOrders)
	private("GET /api/orders/{id}", h.GetOrder)

	private("POST /api/payments/intents", h.CreateIntent)
	private("POST /api/payments/verify", h.VerifyPayment)
}
