package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xenking/kart-storefront/internal/domain/address"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/pricing"
)

// --- Mock implementations ---

type mockCarts struct {
	cart cart.Cart
}

func (m *mockCarts) Get(_ context.Context, _ string) (cart.Cart, error) {
	return m.cart.Clone(), nil
}

type mockAddresses struct{}

func (mockAddresses) Get(_ context.Context, _, id string) (*address.Address, error) {
	if id != "addr-1" {
		return nil, address.ErrNotFound
	}
	return &address.Address{ID: id, Fields: address.Fields{FullName: "Asha Rao"}}, nil
}

type mockIntentRepo struct {
	intents   map[string]*Intent
	committed map[string]*order.Order
	commits   int
	carts     *mockCarts
}

func newMockIntentRepo(carts *mockCarts) *mockIntentRepo {
	return &mockIntentRepo{
		intents:   make(map[string]*Intent),
		committed: make(map[string]*order.Order),
		carts:     carts,
	}
}

func (m *mockIntentRepo) Create(_ context.Context, in *Intent) error {
	m.intents[in.GatewayOrderID] = in
	return nil
}

func (m *mockIntentRepo) GetByGatewayOrderID(_ context.Context, userID, id string) (*Intent, error) {
	in, ok := m.intents[id]
	if !ok || in.UserID != userID {
		return nil, ErrIntentNotFound
	}
	return in, nil
}

func (m *mockIntentRepo) Commit(_ context.Context, intentID string, o *order.Order) (*order.Order, bool, error) {
	if prev, ok := m.committed[intentID]; ok {
		return prev, true, nil
	}
	m.commits++
	m.committed[intentID] = o
	m.carts.cart = cart.Cart{}
	return o, false, nil
}

// --- Helpers ---

const testSecret = "s3cret"

func newTestService(t *testing.T) (*Service, *mockIntentRepo, *mockCarts) {
	t.Helper()

	carts := &mockCarts{cart: cart.Cart{Items: []cart.Item{{
		ProductID: "B", Name: "B", Quantity: 1, UnitPrice: decimal.NewFromInt(300),
	}}}}
	intents := newMockIntentRepo(carts)
	drafter := order.NewDrafter(carts, mockAddresses{}, pricing.DefaultThresholds)

	svc, err := NewService(drafter, intents, NewSigner("rzp_test_key", testSecret), "INR",
		noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	return svc, intents, carts
}

func createIntent(t *testing.T, svc *Service) *Intent {
	t.Helper()
	in, err := svc.CreateIntent(context.Background(), "user-1", CreateIntentRequest{
		AddressID: "addr-1",
		Amount:    decimal.NewFromInt(414),
	})
	require.NoError(t, err)
	return in
}

func confirm(in *Intent, secret string) Confirmation {
	paymentID := NewPaymentID()
	return Confirmation{
		GatewayOrderID: in.GatewayOrderID,
		PaymentID:      paymentID,
		Signature:      NewSigner("", secret).Sign(in.GatewayOrderID, paymentID),
	}
}

// --- Tests ---

func TestService_CreateIntent(t *testing.T) {
	svc, _, _ := newTestService(t)
	in := createIntent(t, svc)

	assert.NotEmpty(t, in.ID)
	assert.Contains(t, in.GatewayOrderID, "order_")
	assert.Equal(t, "rzp_test_key", in.KeyID)
	assert.Equal(t, "INR", in.Currency)
	assert.Equal(t, "414", in.Amount.String())
	assert.Equal(t, "Asha Rao", in.Draft.Address.FullName)
	require.Len(t, in.Draft.Items, 1)
}

func TestService_CreateIntent_Errors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateIntent(ctx, "user-1", CreateIntentRequest{AddressID: "addr-1", Amount: decimal.NewFromInt(315)})
	require.ErrorIs(t, err, order.ErrAmountMismatch)

	_, err = svc.CreateIntent(ctx, "user-1", CreateIntentRequest{
		AddressID: "addr-1", Amount: decimal.NewFromInt(414), Currency: "USD",
	})
	require.ErrorIs(t, err, ErrUnsupportedCurrency)

	_, err = svc.CreateIntent(ctx, "user-1", CreateIntentRequest{AddressID: "other", Amount: decimal.NewFromInt(414)})
	require.ErrorIs(t, err, address.ErrNotFound)
}

func TestService_Verify(t *testing.T) {
	svc, intents, carts := newTestService(t)
	in := createIntent(t, svc)
	c := confirm(in, testSecret)

	res, err := svc.Verify(context.Background(), "user-1", c)
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.NotNil(t, res.Order)
	assert.Equal(t, order.MethodOnline, res.Order.Method)
	assert.Equal(t, order.StatusPaid, res.Order.Status)
	assert.Equal(t, c.PaymentID, res.Order.PaymentRef)
	assert.Equal(t, "414", res.Order.Amount.String())
	assert.Equal(t, 1, intents.commits)
	assert.True(t, carts.cart.IsEmpty())
}

func TestService_Verify_SecondCallIsNoOp(t *testing.T) {
	svc, intents, _ := newTestService(t)
	in := createIntent(t, svc)
	c := confirm(in, testSecret)

	first, err := svc.Verify(context.Background(), "user-1", c)
	require.NoError(t, err)
	second, err := svc.Verify(context.Background(), "user-1", c)
	require.NoError(t, err)

	assert.True(t, second.Success)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, 1, intents.commits)
}

func TestService_Verify_BadSignature(t *testing.T) {
	svc, intents, carts := newTestService(t)
	in := createIntent(t, svc)

	res, err := svc.Verify(context.Background(), "user-1", confirm(in, "wrong"))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Nil(t, res.Order)
	assert.Equal(t, 0, intents.commits)
	assert.False(t, carts.cart.IsEmpty())
}

func TestService_Verify_Errors(t *testing.T) {
	svc, _, _ := newTestService(t)
	in := createIntent(t, svc)
	ctx := context.Background()

	_, err := svc.Verify(ctx, "user-1", Confirmation{GatewayOrderID: in.GatewayOrderID})
	require.ErrorIs(t, err, ErrMalformedConfirmation)

	_, err = svc.Verify(ctx, "user-2", confirm(in, testSecret))
	require.ErrorIs(t, err, ErrIntentNotFound)
}

func TestSigner(t *testing.T) {
	s := NewSigner("key", "secret")
	sig := s.Sign("order_1", "pay_1")
	assert.Len(t, sig, 64)

	assert.True(t, s.Verify(Confirmation{GatewayOrderID: "order_1", PaymentID: "pay_1", Signature: sig}))
	assert.False(t, s.Verify(Confirmation{GatewayOrderID: "order_1", PaymentID: "pay_2", Signature: sig}))
	assert.False(t, s.Verify(Confirmation{GatewayOrderID: "order_1", PaymentID: "pay_1", Signature: "00"}))
}
