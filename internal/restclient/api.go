package restclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/domain/address"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/payment"
	"github.com/xenking/kart-storefront/internal/domain/pricing"
	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/wire"
)

func (c *Client) FetchCart(ctx context.Context, token string) (cart.Cart, error) {
	b, err := c.do(ctx, request{method: http.MethodGet, path: "/api/cart", token: token})
	if err != nil {
		return cart.Cart{}, err
	}
	return decode(b, wire.DecodeCart)
}

func lineBody(k cart.Key, qty int) []byte {
	return wire.Encode(func(e *jx.Encoder) {
		wire.EncodeLine(e, cart.Line{Key: k, Quantity: qty})
	})
}

func (c *Client) AddItem(ctx context.Context, token string, k cart.Key, qty int) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/cart/items",
		token:  token,
		body:   lineBody(k, qty),
	})
	return err
}

func (c *Client) SetQuantity(ctx context.Context, token string, k cart.Key, qty int) error {
	_, err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/api/cart/items",
		token:  token,
		body:   lineBody(k, qty),
	})
	return unsupported(err)
}

func (c *Client) RemoveItem(ctx context.Context, token string, k cart.Key) error {
	q := url.Values{"productId": {k.ProductID}}
	if k.Size != "" {
		q.Set("size", k.Size)
	}
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/api/cart/items",
		query:  q,
		token:  token,
	})
	return err
}

func (c *Client) ClearCart(ctx context.Context, token string) error {
	_, err := c.do(ctx, request{method: http.MethodDelete, path: "/api/cart", token: token})
	return unsupported(err)
}

func (c *Client) ListAddresses(ctx context.Context, token string) ([]address.Address, error) {
	b, err := c.do(ctx, request{method: http.MethodGet, path: "/api/addresses", token: token})
	if err != nil {
		return nil, err
	}
	return decode(b, wire.DecodeAddresses)
}

func (c *Client) CreateAddress(ctx context.Context, token string, f address.Fields) (address.Address, error) {
	b, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/addresses",
		token:  token,
		body:   wire.Encode(func(e *jx.Encoder) { wire.EncodeFields(e, f) }),
	})
	if err != nil {
		return address.Address{}, err
	}
	return decode(b, wire.DecodeAddress)
}

func (c *Client) UpdateAddress(ctx context.Context, token, id string, p address.Patch) (address.Address, error) {
	b, err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/api/addresses/" + url.PathEscape(id),
		token:  token,
		body:   wire.Encode(func(e *jx.Encoder) { wire.EncodePatch(e, p) }),
	})
	if err != nil {
		return address.Address{}, err
	}
	return decode(b, wire.DecodeAddress)
}

func (c *Client) DeleteAddress(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/api/addresses/" + url.PathEscape(id),
		token:  token,
	})
	return err
}

func (c *Client) PlaceCOD(ctx context.Context, token string, req wire.CheckoutRequest) (*order.Order, error) {
	b, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/orders/cod",
		token:  token,
		body:   wire.Encode(func(e *jx.Encoder) { wire.EncodeCheckoutRequest(e, req) }),
	})
	if err != nil {
		return nil, err
	}
	o, err := decode(b, wire.DecodeOrder)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) CreateIntent(ctx context.Context, token string, req wire.CheckoutRequest) (*payment.Intent, error) {
	b, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/payments/intents",
		token:  token,
		body:   wire.Encode(func(e *jx.Encoder) { wire.EncodeCheckoutRequest(e, req) }),
	})
	if err != nil {
		return nil, err
	}
	return decode(b, wire.DecodeIntent)
}

func (c *Client) VerifyPayment(ctx context.Context, token string, confirmation []byte) (wire.VerifyResult, error) {
	b, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/payments/verify",
		token:  token,
		body:   confirmation,
	})
	if err != nil {
		return wire.VerifyResult{}, err
	}
	return decode(b, wire.DecodeVerifyResult)
}

func (c *Client) ListOrders(ctx context.Context, token string) ([]order.Order, error) {
	b, err := c.do(ctx, request{method: http.MethodGet, path: "/api/orders", token: token})
	if err != nil {
		return nil, err
	}
	return decode(b, wire.DecodeOrders)
}

func (c *Client) GetOrder(ctx context.Context, token, id string) (*order.Order, error) {
	b, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/orders/" + url.PathEscape(id),
		token:  token,
	})
	if err != nil {
		return nil, err
	}
	o, err := decode(b, wire.DecodeOrder)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) Thresholds(ctx context.Context) (pricing.Thresholds, error) {
	b, err := c.do(ctx, request{method: http.MethodGet, path: "/api/pricing"})
	if err != nil {
		return pricing.Thresholds{}, err
	}
	return decode(b, wire.DecodeThresholds)
}

// ListProducts returns the catalog. It needs no token.
func (c *Client) ListProducts(ctx context.Context) ([]product.Product, error) {
	b, err := c.do(ctx, request{method: http.MethodGet, path: "/api/products"})
	if err != nil {
		return nil, err
	}
	return decode(b, wire.DecodeProducts)
}

// GetProduct returns one catalog product.
func (c *Client) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	b, err := c.do(ctx, request{method: http.MethodGet, path: "/api/products/" + url.PathEscape(id)})
	if err != nil {
		return nil, err
	}
	p, err := decode(b, wire.DecodeProduct)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
