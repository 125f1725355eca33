package restclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/storefront"
	"github.com/xenking/kart-storefront/internal/wire"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New(Config{BaseURL: "localhost:8080"})
	require.Error(t, err)
}

func TestClient_FetchCart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/cart", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`{"items":[{"productId":"A","size":"M","quantity":2,"price":"500"}],"count":2}`))
	})

	got, err := c.FetchCart(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, cart.Key{ProductID: "A", Size: "M"}, got.Items[0].Key())
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.NewFromInt(500)))
}

func TestClient_AddItemBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.JSONEq(t, `{"productId":"A","size":"","quantity":3}`, string(b))
		w.WriteHeader(http.StatusCreated)
	})
	require.NoError(t, c.AddItem(context.Background(), "tok", cart.Key{ProductID: "A"}, 3))
}

func TestClient_RemoveItemQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "A", r.URL.Query().Get("productId"))
		assert.Equal(t, "L", r.URL.Query().Get("size"))
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.RemoveItem(context.Background(), "tok", cart.Key{ProductID: "A", Size: "L"}))
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		call     func(c *Client) error
		wantKind error
		wantMsg  string
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"error":"invalid token"}`,
			call: func(c *Client) error {
				_, err := c.FetchCart(context.Background(), "tok")
				return err
			},
			wantKind: storefront.ErrUnauthorized,
			wantMsg:  "invalid token",
		},
		{
			name:   "missing line item",
			status: http.StatusNotFound,
			body:   `{"code":404,"message":"Item not found in cart"}`,
			call: func(c *Client) error {
				return c.RemoveItem(context.Background(), "tok", cart.Key{ProductID: "A"})
			},
			wantKind: storefront.ErrNotFound,
			wantMsg:  "Item not found in cart",
		},
		{
			name:   "missing line item on set is not a missing route",
			status: http.StatusNotFound,
			body:   `{"code":404,"message":"Item not found in cart"}`,
			call: func(c *Client) error {
				return c.SetQuantity(context.Background(), "tok", cart.Key{ProductID: "A"}, 2)
			},
			wantKind: storefront.ErrNotFound,
			wantMsg:  "Item not found in cart",
		},
		{
			name:   "set quantity route missing",
			status: http.StatusNotFound,
			body:   "404 page not found",
			call: func(c *Client) error {
				return c.SetQuantity(context.Background(), "tok", cart.Key{ProductID: "A"}, 2)
			},
			wantKind: storefront.ErrUnsupported,
		},
		{
			name:   "clear not allowed",
			status: http.StatusMethodNotAllowed,
			call: func(c *Client) error {
				return c.ClearCart(context.Background(), "tok")
			},
			wantKind: storefront.ErrUnsupported,
		},
		{
			name:   "business error is verbatim",
			status: http.StatusConflict,
			body:   `{"code":409,"message":"only 1 left in stock for product A"}`,
			call: func(c *Client) error {
				return c.AddItem(context.Background(), "tok", cart.Key{ProductID: "A"}, 5)
			},
			wantMsg: "only 1 left in stock for product A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			err := tt.call(c)

			var re *storefront.RequestError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.status, re.Status)
			if tt.wantKind != nil {
				require.ErrorIs(t, err, tt.wantKind)
			}
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url})
	require.NoError(t, err)

	_, err = c.FetchCart(context.Background(), "tok")
	require.ErrorIs(t, err, storefront.ErrNetwork)
}

func TestClient_VerifyForwardsPayloadVerbatim(t *testing.T) {
	payload := []byte(`{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","razorpay_signature":"ab","extra":true}`)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, payload, b)
		_, _ = w.Write([]byte(`{"success":true,"orderId":"o-1","message":"ok"}`))
	})

	res, err := c.VerifyPayment(context.Background(), "tok", payload)
	require.NoError(t, err)
	assert.Equal(t, wire.VerifyResult{Success: true, OrderID: "o-1", Message: "ok"}, res)
}

func TestClient_CreateIntent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"addressId":"a1","amount":414,"currency":"INR"}`, string(b))
		_, _ = w.Write([]byte(`{"intentId":"order_x","amount":414,"currency":"INR","keyId":"rzp_test"}`))
	})

	in, err := c.CreateIntent(context.Background(), "tok", wire.CheckoutRequest{
		AddressID: "a1",
		Amount:    decimal.NewFromInt(414),
		Currency:  "INR",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_x", in.GatewayOrderID)
	assert.Equal(t, "414", in.Amount.String())
	assert.Equal(t, "rzp_test", in.KeyID)
}

func TestClient_Thresholds(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"freeShippingThreshold":1000,"shippingFee":99,"taxRate":0.05}`))
	})

	th, err := c.Thresholds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1000", th.FreeShippingAt.String())
	assert.Equal(t, "0.05", th.TaxRate.String())
}
