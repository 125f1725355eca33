package storefront

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/cart"
)

// Cart mirrors the server cart of the signed-in user. The server is the
// source of truth: every successful mutation is followed by a full reload
// and the local list is never edited optimistically.
//
// Mutations of the same line item run one at a time in call order;
// mutations of different line items run concurrently.
type Cart struct {
	backend CartBackend
	auth    *AuthContext
	lg      *zap.Logger
	locks   *keyLocks

	mu        sync.Mutex
	current   cart.Cart
	holds     int
	holdGen   uint64
	observers map[int]func(cart.Cart)
	nextObs   int
}

// NewCart creates a Cart. The local cart is emptied whenever auth
// invalidates the token.
func NewCart(backend CartBackend, auth *AuthContext, lg *zap.Logger) *Cart {
	if lg == nil {
		lg = zap.NewNop()
	}
	c := &Cart{
		backend:   backend,
		auth:      auth,
		lg:        lg,
		locks:     newKeyLocks(),
		observers: make(map[int]func(cart.Cart)),
	}
	auth.OnInvalidate(c.reset)
	return c
}

// Snapshot returns a copy of the last published cart.
func (c *Cart) Snapshot() cart.Cart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Clone()
}

// OnChange registers fn to receive every published cart. The returned
// function unregisters it.
func (c *Cart) OnChange(fn func(cart.Cart)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// Load replaces the local cart with the server cart. A fetch that overlaps
// a multi-step mutation is discarded; the mutation publishes its own reload.
func (c *Cart) Load(ctx context.Context) error {
	gen := c.generation()
	fetched, err := guard(ctx, c.auth, c.backend.FetchCart)
	if err != nil {
		return err
	}
	c.set(fetched, gen, false)
	return nil
}

// Add increments a line item by qty, creating it when absent.
func (c *Cart) Add(ctx context.Context, k cart.Key, qty int) error {
	if qty < 1 {
		return cart.ErrInvalidQuantity
	}
	return c.mutate(ctx, k, func(ctx context.Context, token string) error {
		return c.backend.AddItem(ctx, token, k, qty)
	})
}

// Remove deletes a line item. Removing an absent item fails with
// ErrNotFound.
func (c *Cart) Remove(ctx context.Context, k cart.Key) error {
	return c.mutate(ctx, k, func(ctx context.Context, token string) error {
		return c.backend.RemoveItem(ctx, token, k)
	})
}

// UpdateQuantity sets the quantity of a line item. A quantity below 1
// removes it.
//
// Backends without a set-quantity endpoint get a fallback computed from the
// last loaded cart: an add of the difference when growing, or a remove
// followed by an add of qty when shrinking. The intermediate state of the
// shrinking case is never published, including by concurrent Load calls
// that fetched it.
func (c *Cart) UpdateQuantity(ctx context.Context, k cart.Key, qty int) error {
	if qty < 1 {
		return c.Remove(ctx, k)
	}

	unlock, err := c.locks.lock(ctx, k)
	if err != nil {
		return err
	}
	defer unlock()

	err = guardErr(ctx, c.auth, func(ctx context.Context, token string) error {
		return c.backend.SetQuantity(ctx, token, k, qty)
	})
	switch {
	case errors.Is(err, ErrUnsupported):
		return c.setByDelta(ctx, k, qty)
	case err != nil:
		return err
	}
	return c.Load(ctx)
}

func (c *Cart) setByDelta(ctx context.Context, k cart.Key, qty int) error {
	current := 0
	if it, ok := c.Snapshot().Find(k); ok {
		current = it.Quantity
	}
	delta := qty - current
	lg := c.lg.With(zap.Stringer("item", k), zap.Int("delta", delta))

	switch {
	case delta == 0:
		return nil
	case delta > 0:
		lg.Debug("Set quantity by add")
		if err := c.add(ctx, k, delta); err != nil {
			return err
		}
		return c.Load(ctx)
	}

	lg.Debug("Set quantity by remove and re-add")
	c.hold()
	err := guardErr(ctx, c.auth, func(ctx context.Context, token string) error {
		return c.backend.RemoveItem(ctx, token, k)
	})
	if err == nil {
		err = c.add(ctx, k, qty)
	}
	c.unhold()

	if errors.Is(err, ErrUnauthorized) {
		return err
	}
	if loadErr := c.Load(ctx); err == nil {
		err = loadErr
	}
	return err
}

func (c *Cart) add(ctx context.Context, k cart.Key, qty int) error {
	return guardErr(ctx, c.auth, func(ctx context.Context, token string) error {
		return c.backend.AddItem(ctx, token, k, qty)
	})
}

// Clear empties the cart with a single server call. Backends without a
// bulk clear endpoint get one removal per line item; a failure midway is
// returned as a *PartialFailureError after the cart is reloaded.
func (c *Cart) Clear(ctx context.Context) error {
	err := guardErr(ctx, c.auth, c.backend.ClearCart)
	switch {
	case errors.Is(err, ErrUnsupported):
		err = c.clearEach(ctx)
	case err != nil:
		return err
	}
	if errors.Is(err, ErrUnauthorized) {
		return err
	}
	if loadErr := c.Load(ctx); err == nil {
		err = loadErr
	}
	return err
}

func (c *Cart) clearEach(ctx context.Context) error {
	var done []cart.Key
	for _, it := range c.Snapshot().Items {
		k := it.Key()
		err := c.removeLocked(ctx, k)
		if errors.Is(err, ErrNotFound) {
			err = nil
		}
		if errors.Is(err, ErrUnauthorized) {
			return err
		}
		if err != nil {
			return &PartialFailureError{Done: done, Failed: k, Err: err}
		}
		done = append(done, k)
	}
	return nil
}

func (c *Cart) removeLocked(ctx context.Context, k cart.Key) error {
	unlock, err := c.locks.lock(ctx, k)
	if err != nil {
		return err
	}
	defer unlock()
	return guardErr(ctx, c.auth, func(ctx context.Context, token string) error {
		return c.backend.RemoveItem(ctx, token, k)
	})
}

func (c *Cart) mutate(ctx context.Context, k cart.Key, op func(ctx context.Context, token string) error) error {
	unlock, err := c.locks.lock(ctx, k)
	if err != nil {
		return err
	}
	defer unlock()

	if err := guardErr(ctx, c.auth, op); err != nil {
		return err
	}
	return c.Load(ctx)
}

// hold defers publishing while a multi-step mutation is in flight. Carts
// fetched while any hold was active, or across its start or end, are
// dropped; the mutation reloads when done.
func (c *Cart) hold() {
	c.mu.Lock()
	c.holds++
	c.holdGen++
	c.mu.Unlock()
}

func (c *Cart) unhold() {
	c.mu.Lock()
	c.holds--
	c.holdGen++
	c.mu.Unlock()
}

func (c *Cart) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.holdGen
}

// reset empties the local cart even while publishing is on hold.
func (c *Cart) reset() {
	c.set(cart.Cart{}, 0, true)
}

// set publishes next unless it was fetched at hold generation gen and a
// hold has been active since.
func (c *Cart) set(next cart.Cart, gen uint64, force bool) {
	c.mu.Lock()
	if !force && (c.holds > 0 || c.holdGen != gen) {
		c.mu.Unlock()
		c.lg.Debug("Cart reload dropped", zap.Uint64("fetched_at", gen))
		return
	}
	c.current = next
	observers := make([]func(cart.Cart), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(next.Clone())
	}
}
