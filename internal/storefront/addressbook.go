package storefront

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/kart-storefront/internal/domain/address"
)

// SelectionChange tells the caller whether a deletion moved the selection,
// so dependent form state can be refreshed.
type SelectionChange struct {
	Changed bool
	// Selected is the new selection, nil when none is left.
	Selected *address.Address
}

// AddressBook holds the user's saved addresses and the one selected for
// checkout. The first address in the list is the default selection.
type AddressBook struct {
	backend AddressBackend
	auth    *AuthContext

	mu       sync.Mutex
	list     []address.Address
	selected string
}

// NewAddressBook creates an AddressBook. It is emptied whenever auth
// invalidates the token.
func NewAddressBook(backend AddressBackend, auth *AuthContext) *AddressBook {
	b := &AddressBook{backend: backend, auth: auth}
	auth.OnInvalidate(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.list, b.selected = nil, ""
	})
	return b
}

// List fetches the addresses in backend order. A selection that no longer
// exists falls back to the first address.
func (b *AddressBook) List(ctx context.Context) ([]address.Address, error) {
	list, err := guard(ctx, b.auth, b.backend.ListAddresses)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.list = list
	if b.indexLocked(b.selected) < 0 {
		b.selected = b.firstLocked()
	}
	return slices.Clone(list), nil
}

// Addresses returns the locally known addresses.
func (b *AddressBook) Addresses() []address.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.list)
}

// Create saves a new address, even when an identical one exists. Invalid
// input fails with *address.ValidationError before any request is made.
// The new address goes to the head of the list and becomes selected.
func (b *AddressBook) Create(ctx context.Context, f address.Fields) (address.Address, error) {
	f = f.Normalize()
	if err := address.Validate(f); err != nil {
		return address.Address{}, err
	}
	a, err := guard(ctx, b.auth, func(ctx context.Context, token string) (address.Address, error) {
		return b.backend.CreateAddress(ctx, token, f)
	})
	if err != nil {
		return address.Address{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.list = append([]address.Address{a}, b.list...)
	b.selected = a.ID
	return a, nil
}

// Update sends only the fields present in p. When the address is known
// locally, the merged result is validated first.
func (b *AddressBook) Update(ctx context.Context, id string, p address.Patch) (address.Address, error) {
	b.mu.Lock()
	i := b.indexLocked(id)
	var local address.Address
	if i >= 0 {
		local = b.list[i]
	}
	b.mu.Unlock()

	if i >= 0 {
		if err := address.Validate(p.Apply(local.Fields)); err != nil {
			return address.Address{}, err
		}
	}
	a, err := guard(ctx, b.auth, func(ctx context.Context, token string) (address.Address, error) {
		return b.backend.UpdateAddress(ctx, token, id, p)
	})
	if err != nil {
		return address.Address{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexLocked(id); i >= 0 {
		b.list[i] = a
	}
	return a, nil
}

// Delete removes an address. Deleting the selected address selects the
// first remaining one, or nothing.
func (b *AddressBook) Delete(ctx context.Context, id string) (SelectionChange, error) {
	err := guardErr(ctx, b.auth, func(ctx context.Context, token string) error {
		return b.backend.DeleteAddress(ctx, token, id)
	})
	if err != nil {
		return SelectionChange{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexLocked(id); i >= 0 {
		b.list = slices.Delete(b.list, i, i+1)
	}
	if b.selected != id {
		return SelectionChange{}, nil
	}
	b.selected = b.firstLocked()
	change := SelectionChange{Changed: true}
	if b.selected != "" {
		a := b.list[0]
		change.Selected = &a
	}
	return change, nil
}

// Select marks a known address as the checkout address.
func (b *AddressBook) Select(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.indexLocked(id) < 0 {
		return ErrNotFound
	}
	b.selected = id
	return nil
}

// Selected returns the checkout address.
func (b *AddressBook) Selected() (address.Address, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexLocked(b.selected)
	if i < 0 {
		return address.Address{}, false
	}
	return b.list[i], true
}

func (b *AddressBook) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(b.list, func(a address.Address) bool { return a.ID == id })
}

func (b *AddressBook) firstLocked() string {
	if len(b.list) == 0 {
		return ""
	}
	return b.list[0].ID
}
