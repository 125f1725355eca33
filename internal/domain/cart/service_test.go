package cart

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-storefront/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID map[string]product.Product
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockLineRepo struct {
	lines []Line
}

func (m *mockLineRepo) Lines(_ context.Context, _ string) ([]Line, error) {
	return append([]Line(nil), m.lines...), nil
}

func (m *mockLineRepo) Increment(_ context.Context, _ string, k Key, qty int) (int, error) {
	for i := range m.lines {
		if m.lines[i].Key == k {
			m.lines[i].Quantity += qty
			return m.lines[i].Quantity, nil
		}
	}
	m.lines = append(m.lines, Line{Key: k, Quantity: qty})
	return qty, nil
}

func (m *mockLineRepo) Set(_ context.Context, _ string, k Key, qty int) error {
	for i := range m.lines {
		if m.lines[i].Key == k {
			m.lines[i].Quantity = qty
			return nil
		}
	}
	m.lines = append(m.lines, Line{Key: k, Quantity: qty})
	return nil
}

func (m *mockLineRepo) Remove(_ context.Context, _ string, k Key) error {
	for i := range m.lines {
		if m.lines[i].Key == k {
			m.lines = append(m.lines[:i], m.lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

func (m *mockLineRepo) Clear(_ context.Context, _ string) error {
	m.lines = nil
	return nil
}

// --- Helpers ---

func newTestService() (*Service, *mockLineRepo) {
	mrp := decimal.NewFromInt(799)
	products := &mockProductRepo{byID: map[string]product.Product{
		"tee": {
			ID: "tee", Name: "Tee", Price: decimal.NewFromInt(499), MRP: &mrp,
			Sizes: []string{"S", "M", "L"}, Stock: 5,
		},
		"mug": {ID: "mug", Name: "Mug", Price: decimal.NewFromInt(250), Stock: 10},
	}}
	lines := &mockLineRepo{}
	return NewService(lines, products), lines
}

// --- Tests ---

func TestService_Add(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "u", Key{ProductID: "tee", Size: "M"}, 2))
	require.NoError(t, svc.Add(ctx, "u", Key{ProductID: "tee", Size: "M"}, 1))
	require.NoError(t, svc.Add(ctx, "u", Key{ProductID: "tee", Size: "L"}, 1))

	c, err := svc.Get(ctx, "u")
	require.NoError(t, err)
	require.Len(t, c.Items, 2, "sizes are distinct lines")

	m, ok := c.Find(Key{ProductID: "tee", Size: "M"})
	require.True(t, ok)
	assert.Equal(t, 3, m.Quantity)
	assert.Equal(t, "Tee", m.Name)
	require.NotNil(t, m.OriginalPrice)
	assert.Equal(t, "799", m.OriginalPrice.String())
	assert.Equal(t, 4, c.Count())
	assert.Equal(t, "1996", c.Subtotal().String())
}

func TestService_Add_Errors(t *testing.T) {
	tests := []struct {
		name    string
		key     Key
		qty     int
		wantErr error
	}{
		{name: "zero quantity", key: Key{ProductID: "mug"}, qty: 0, wantErr: ErrInvalidQuantity},
		{name: "unknown product", key: Key{ProductID: "nope"}, qty: 1, wantErr: product.ErrNotFound},
		{name: "size required", key: Key{ProductID: "tee"}, qty: 1, wantErr: product.ErrInvalidSize},
		{name: "size not offered", key: Key{ProductID: "tee", Size: "XXL"}, qty: 1, wantErr: product.ErrInvalidSize},
		{name: "size on unsized product", key: Key{ProductID: "mug", Size: "M"}, qty: 1, wantErr: product.ErrInvalidSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService()
			err := svc.Add(context.Background(), "u", tt.key, tt.qty)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Add_Stock(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	k := Key{ProductID: "tee", Size: "S"}

	require.NoError(t, svc.Add(ctx, "u", k, 4))
	err := svc.Add(ctx, "u", k, 2)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 5, stockErr.Available)
}

func TestService_SetQuantity(t *testing.T) {
	svc, lines := newTestService()
	ctx := context.Background()
	k := Key{ProductID: "mug"}

	require.NoError(t, svc.Add(ctx, "u", k, 3))
	require.NoError(t, svc.SetQuantity(ctx, "u", k, 1))
	assert.Equal(t, []Line{{Key: k, Quantity: 1}}, lines.lines)

	require.NoError(t, svc.SetQuantity(ctx, "u", k, 0))
	assert.Empty(t, lines.lines)

	require.ErrorIs(t, svc.SetQuantity(ctx, "u", k, 0), ErrLineNotFound)
}

func TestService_RemoveAndClear(t *testing.T) {
	svc, lines := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "u", Key{ProductID: "mug"}, 1))
	require.NoError(t, svc.Add(ctx, "u", Key{ProductID: "tee", Size: "S"}, 1))

	require.NoError(t, svc.Remove(ctx, "u", Key{ProductID: "mug"}))
	require.ErrorIs(t, svc.Remove(ctx, "u", Key{ProductID: "mug"}), ErrLineNotFound)

	require.NoError(t, svc.Clear(ctx, "u"))
	assert.Empty(t, lines.lines)
}

func TestService_Get_DropsMissingProducts(t *testing.T) {
	svc, lines := newTestService()
	lines.lines = []Line{
		{Key: Key{ProductID: "mug"}, Quantity: 2},
		{Key: Key{ProductID: "gone"}, Quantity: 1},
	}

	c, err := svc.Get(context.Background(), "u")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "mug", c.Items[0].ProductID)
}

func TestCart_Clone(t *testing.T) {
	op := decimal.NewFromInt(10)
	c := Cart{Items: []Item{{ProductID: "a", Quantity: 1, OriginalPrice: &op}}}
	cp := c.Clone()
	cp.Items[0].Quantity = 5
	*cp.Items[0].OriginalPrice = decimal.NewFromInt(20)

	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, "10", c.Items[0].OriginalPrice.String())
}
