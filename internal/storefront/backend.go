// Package storefront is the client side of cart and checkout: it keeps a
// local cart consistent with the server-owned one, manages the delivery
// address selection and drives a checkout attempt to a committed order.
//
// All network access goes through the Backend ports below; every call is
// given the bearer token explicitly by the AuthContext guard.
package storefront

import (
	"context"

	"github.com/xenking/kart-storefront/internal/domain/address"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/payment"
	"github.com/xenking/kart-storefront/internal/domain/pricing"
	"github.com/xenking/kart-storefront/internal/wire"
)

// CartBackend is the server-owned per-user cart.
type CartBackend interface {
	FetchCart(ctx context.Context, token string) (cart.Cart, error)
	AddItem(ctx context.Context, token string, k cart.Key, qty int) error
	// SetQuantity returns ErrUnsupported when the backend has no
	// set-quantity endpoint.
	SetQuantity(ctx context.Context, token string, k cart.Key, qty int) error
	RemoveItem(ctx context.Context, token string, k cart.Key) error
	// ClearCart returns ErrUnsupported when the backend has no bulk clear
	// endpoint.
	ClearCart(ctx context.Context, token string) error
}

// AddressBackend stores the user's delivery addresses.
type AddressBackend interface {
	ListAddresses(ctx context.Context, token string) ([]address.Address, error)
	CreateAddress(ctx context.Context, token string, f address.Fields) (address.Address, error)
	UpdateAddress(ctx context.Context, token, id string, p address.Patch) (address.Address, error)
	DeleteAddress(ctx context.Context, token, id string) error
}

// PaymentBackend places COD orders and runs the online payment protocol.
type PaymentBackend interface {
	PlaceCOD(ctx context.Context, token string, req wire.CheckoutRequest) (*order.Order, error)
	CreateIntent(ctx context.Context, token string, req wire.CheckoutRequest) (*payment.Intent, error)
	// VerifyPayment forwards the widget confirmation payload untouched.
	VerifyPayment(ctx context.Context, token string, confirmation []byte) (wire.VerifyResult, error)
}

// OrderBackend reads order history.
type OrderBackend interface {
	ListOrders(ctx context.Context, token string) ([]order.Order, error)
	GetOrder(ctx context.Context, token, id string) (*order.Order, error)
}

// PricingBackend publishes the server's pricing thresholds.
type PricingBackend interface {
	Thresholds(ctx context.Context) (pricing.Thresholds, error)
}

// Backend is the full storefront API.
type Backend interface {
	CartBackend
	AddressBackend
	PaymentBackend
	OrderBackend
	PricingBackend
}
