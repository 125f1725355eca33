package address

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when an address does not exist for the caller.
var ErrNotFound = errors.New("address not found")

// Type tags an address as a home or a work location.
type Type string

const (
	TypeHome Type = "Home"
	TypeWork Type = "Work"
)

// Fields holds the user-editable part of an address. Orders embed a copy of
// Fields so later edits never reach historical orders.
type Fields struct {
	FullName       string `json:"fullName" validate:"required,max=100"`
	MobileNumber   string `json:"mobileNumber" validate:"required,number,len=10"`
	Pincode        string `json:"pincode" validate:"required,number,len=6"`
	Locality       string `json:"locality" validate:"required,max=100"`
	AddressLine1   string `json:"addressLine1" validate:"required,max=200"`
	AddressLine2   string `json:"addressLine2" validate:"max=200"`
	City           string `json:"city" validate:"required,max=100"`
	State          string `json:"state" validate:"required,max=100"`
	Landmark       string `json:"landmark" validate:"max=100"`
	AlternatePhone string `json:"alternatePhone" validate:"omitempty,number,len=10"`
	Type           Type   `json:"addressType" validate:"oneof=Home Work"`
}

// Normalize fills defaults: an unset Type means Home.
func (f Fields) Normalize() Fields {
	if f.Type == "" {
		f.Type = TypeHome
	}
	return f
}

// Address is a saved delivery address owned by one user.
type Address struct {
	ID        string
	Fields
	CreatedAt time.Time
}

// Patch is a partial update: nil fields are left untouched.
type Patch struct {
	FullName       *string
	MobileNumber   *string
	Pincode        *string
	Locality       *string
	AddressLine1   *string
	AddressLine2   *string
	City           *string
	State          *string
	Landmark       *string
	AlternatePhone *string
	Type           *Type
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Apply returns f with every present patch field written over it.
func (p Patch) Apply(f Fields) Fields {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&f.FullName, p.FullName)
	set(&f.MobileNumber, p.MobileNumber)
	set(&f.Pincode, p.Pincode)
	set(&f.Locality, p.Locality)
	set(&f.AddressLine1, p.AddressLine1)
	set(&f.AddressLine2, p.AddressLine2)
	set(&f.City, p.City)
	set(&f.State, p.State)
	set(&f.Landmark, p.Landmark)
	set(&f.AlternatePhone, p.AlternatePhone)
	if p.Type != nil {
		f.Type = *p.Type
	}
	return f
}

// Repository defines persistence operations for addresses. Every call is
// scoped to the owning user.
type Repository interface {
	// List returns the user's addresses, newest first.
	List(ctx context.Context, userID string) ([]Address, error)
	Get(ctx context.Context, userID, id string) (*Address, error)
	Create(ctx context.Context, userID string, a *Address) error
	Update(ctx context.Context, userID string, a *Address) error
	Delete(ctx context.Context, userID, id string) error
}
