package storefront

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/kart-storefront/internal/domain/address"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/payment"
	"github.com/xenking/kart-storefront/internal/domain/pricing"
	"github.com/xenking/kart-storefront/internal/wire"
)

// --- Mock implementations ---

const goodToken = "good-token"

// fakeBackend is an in-memory storefront server for one user.
type fakeBackend struct {
	mu sync.Mutex

	prices  map[string]decimal.Decimal
	lines   []cart.Item
	calls   []string
	nextID  int
	revoked bool

	noSetQuantity bool
	noClear       bool
	removeErr     map[cart.Key]error
	afterRemove   func()
	afterFetch    func()
	beforeCOD     func()
	beforeSet     func(k cart.Key)

	addresses []address.Address

	orders     []order.Order
	intents    map[string]*payment.Intent
	intentSkew decimal.Decimal
	verifyRes  *wire.VerifyResult
	verifyErr  error
	verified   [][]byte
	codErr     error
	codReqs    []wire.CheckoutRequest
	intentReqs []wire.CheckoutRequest
}

var _ Backend = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		prices: map[string]decimal.Decimal{
			"A": decimal.NewFromInt(500),
			"B": decimal.NewFromInt(300),
			"C": decimal.NewFromInt(100),
		},
		removeErr: make(map[cart.Key]error),
		intents:   make(map[string]*payment.Intent),
	}
}

func unauthorized() error {
	return &RequestError{Status: http.StatusUnauthorized, Message: "invalid token", Kind: ErrUnauthorized}
}

func (f *fakeBackend) check(token string) error {
	if f.revoked || token != goodToken {
		return unauthorized()
	}
	return nil
}

func (f *fakeBackend) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) seed(items ...cart.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, items...)
}

func (f *fakeBackend) findLocked(k cart.Key) int {
	for i, it := range f.lines {
		if it.Key() == k {
			return i
		}
	}
	return -1
}

func (f *fakeBackend) FetchCart(_ context.Context, token string) (cart.Cart, error) {
	c, err := f.fetch(token)
	if f.afterFetch != nil {
		f.afterFetch()
	}
	return c, err
}

func (f *fakeBackend) fetch(token string) (cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return cart.Cart{}, err
	}
	return cart.Cart{Items: f.lines}.Clone(), nil
}

func (f *fakeBackend) AddItem(_ context.Context, token string, k cart.Key, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return err
	}
	f.record("add %s %d", k, qty)
	if i := f.findLocked(k); i >= 0 {
		f.lines[i].Quantity += qty
		return nil
	}
	f.lines = append(f.lines, cart.Item{
		ProductID: k.ProductID,
		Name:      k.ProductID,
		Size:      k.Size,
		Quantity:  qty,
		UnitPrice: f.prices[k.ProductID],
	})
	return nil
}

func (f *fakeBackend) SetQuantity(_ context.Context, token string, k cart.Key, qty int) error {
	if f.beforeSet != nil {
		f.beforeSet(k)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return err
	}
	if f.noSetQuantity {
		return &RequestError{Status: http.StatusNotFound, Kind: ErrUnsupported}
	}
	f.record("set %s %d", k, qty)
	i := f.findLocked(k)
	if i < 0 {
		return &RequestError{Status: http.StatusNotFound, Message: "Item not found in cart", Kind: ErrNotFound}
	}
	f.lines[i].Quantity = qty
	return nil
}

func (f *fakeBackend) RemoveItem(_ context.Context, token string, k cart.Key) error {
	err := f.remove(token, k)
	if err == nil && f.afterRemove != nil {
		f.afterRemove()
	}
	return err
}

func (f *fakeBackend) remove(token string, k cart.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return err
	}
	f.record("remove %s", k)
	if err := f.removeErr[k]; err != nil {
		return err
	}
	i := f.findLocked(k)
	if i < 0 {
		return &RequestError{Status: http.StatusNotFound, Message: "Item not found in cart", Kind: ErrNotFound}
	}
	f.lines = append(f.lines[:i], f.lines[i+1:]...)
	return nil
}

func (f *fakeBackend) ClearCart(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return err
	}
	if f.noClear {
		return &RequestError{Status: http.StatusMethodNotAllowed, Kind: ErrUnsupported}
	}
	f.record("clear")
	f.lines = nil
	return nil
}

func (f *fakeBackend) ListAddresses(_ context.Context, token string) ([]address.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return nil, err
	}
	return append([]address.Address(nil), f.addresses...), nil
}

func (f *fakeBackend) CreateAddress(_ context.Context, token string, fields address.Fields) (address.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return address.Address{}, err
	}
	f.record("create address")
	f.nextID++
	a := address.Address{ID: "addr-" + strconv.Itoa(f.nextID), Fields: fields}
	f.addresses = append([]address.Address{a}, f.addresses...)
	return a, nil
}

func (f *fakeBackend) UpdateAddress(_ context.Context, token, id string, p address.Patch) (address.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return address.Address{}, err
	}
	f.record("update address %s", id)
	for i := range f.addresses {
		if f.addresses[i].ID == id {
			f.addresses[i].Fields = p.Apply(f.addresses[i].Fields)
			return f.addresses[i], nil
		}
	}
	return address.Address{}, &RequestError{Status: http.StatusNotFound, Message: "Address not found", Kind: ErrNotFound}
}

func (f *fakeBackend) DeleteAddress(_ context.Context, token, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return err
	}
	for i := range f.addresses {
		if f.addresses[i].ID == id {
			f.addresses = append(f.addresses[:i], f.addresses[i+1:]...)
			return nil
		}
	}
	return &RequestError{Status: http.StatusNotFound, Message: "Address not found", Kind: ErrNotFound}
}

func (f *fakeBackend) totalLocked() decimal.Decimal {
	return pricing.Compute(f.lines, pricing.DefaultThresholds).Total
}

func (f *fakeBackend) commitLocked(m order.Method) order.Order {
	f.nextID++
	o := order.Order{
		ID:     "order-" + strconv.Itoa(f.nextID),
		Items:  order.FreezeItems(f.lines),
		Amount: f.totalLocked(),
		Method: m,
	}
	f.orders = append(f.orders, o)
	f.lines = nil
	return o
}

func (f *fakeBackend) PlaceCOD(_ context.Context, token string, req wire.CheckoutRequest) (*order.Order, error) {
	if f.beforeCOD != nil {
		f.beforeCOD()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return nil, err
	}
	f.record("cod")
	f.codReqs = append(f.codReqs, req)
	if f.codErr != nil {
		return nil, f.codErr
	}
	if !req.Amount.Equal(f.totalLocked()) {
		return nil, &RequestError{Status: http.StatusConflict, Message: "amount does not match cart total"}
	}
	o := f.commitLocked(order.MethodCOD)
	return &o, nil
}

func (f *fakeBackend) CreateIntent(_ context.Context, token string, req wire.CheckoutRequest) (*payment.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return nil, err
	}
	f.record("intent")
	f.intentReqs = append(f.intentReqs, req)
	in := &payment.Intent{
		GatewayOrderID: payment.NewGatewayOrderID(),
		KeyID:          "rzp_test",
		Amount:         f.totalLocked().Add(f.intentSkew),
		Currency:       req.Currency,
	}
	f.intents[in.GatewayOrderID] = in
	return in, nil
}

func (f *fakeBackend) VerifyPayment(_ context.Context, token string, confirmation []byte) (wire.VerifyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return wire.VerifyResult{}, err
	}
	f.record("verify")
	f.verified = append(f.verified, confirmation)
	if f.verifyErr != nil {
		return wire.VerifyResult{}, f.verifyErr
	}
	if f.verifyRes != nil {
		return *f.verifyRes, nil
	}
	o := f.commitLocked(order.MethodOnline)
	return wire.VerifyResult{Success: true, OrderID: o.ID, Message: "Payment verified"}, nil
}

func (f *fakeBackend) ListOrders(_ context.Context, token string) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return nil, err
	}
	return append([]order.Order(nil), f.orders...), nil
}

func (f *fakeBackend) GetOrder(_ context.Context, token, id string) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(token); err != nil {
		return nil, err
	}
	for _, o := range f.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, &RequestError{Status: http.StatusNotFound, Message: "Order not found", Kind: ErrNotFound}
}

func (f *fakeBackend) Thresholds(_ context.Context) (pricing.Thresholds, error) {
	return pricing.DefaultThresholds, nil
}

type widgetFunc func(ctx context.Context, req WidgetRequest) ([]byte, error)

func (fn widgetFunc) Open(ctx context.Context, req WidgetRequest) ([]byte, error) {
	return fn(ctx, req)
}

// redirects records sign-in redirects.
type redirects struct {
	mu   sync.Mutex
	seen []string
}

func (r *redirects) redirect(returnTo string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, returnTo)
}

func (r *redirects) Seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

// --- Helpers ---

type testEnv struct {
	client    *Client
	backend   *fakeBackend
	store     *MemoryTokenStore
	redirects *redirects
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend := newFakeBackend()
	store := &MemoryTokenStore{}
	_ = store.Save(goodToken)
	r := &redirects{}
	lg := zaptest.NewLogger(t)
	auth := NewAuthContext(store, r.redirect, lg)

	return &testEnv{
		client:    New(backend, auth, Options{Logger: lg}),
		backend:   backend,
		store:     store,
		redirects: r,
	}
}

func line(id string, qty int) cart.Item {
	prices := newFakeBackend().prices
	return cart.Item{ProductID: id, Name: id, Quantity: qty, UnitPrice: prices[id]}
}

func key(id string) cart.Key {
	return cart.Key{ProductID: id}
}

func validAddress() address.Fields {
	return address.Fields{
		FullName:     "Asha Rao",
		MobileNumber: "9876543210",
		Pincode:      "560001",
		Locality:     "MG Road",
		AddressLine1: "12 Residency Lane",
		City:         "Bengaluru",
		State:        "Karnataka",
	}
}
