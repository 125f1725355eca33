package storefront

import (
	"context"

	"github.com/xenking/kart-storefront/internal/domain/order"
)

// Orders reads the signed-in user's order history.
type Orders struct {
	backend OrderBackend
	auth    *AuthContext
}

// NewOrders creates an Orders reader.
func NewOrders(backend OrderBackend, auth *AuthContext) *Orders {
	return &Orders{backend: backend, auth: auth}
}

// List returns the user's orders as the backend orders them.
func (o *Orders) List(ctx context.Context) ([]order.Order, error) {
	return guard(ctx, o.auth, o.backend.ListOrders)
}

// Get returns one order, or ErrNotFound.
func (o *Orders) Get(ctx context.Context, id string) (*order.Order, error) {
	return guard(ctx, o.auth, func(ctx context.Context, token string) (*order.Order, error) {
		return o.backend.GetOrder(ctx, token, id)
	})
}
