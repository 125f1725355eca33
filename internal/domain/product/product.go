package product

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrInvalidSize is returned when a size is not offered for a product.
var ErrInvalidSize = errors.New("size not available for product")

// Product represents a catalog item available for purchase.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	// MRP is the pre-discount price shown struck through; nil when the
	// product is not discounted.
	MRP      *decimal.Decimal
	Category string
	Sizes    []string
	Stock    int
	ImageURL string
}

// CheckSize reports whether size is a valid variant key for the product.
// Products without sizes accept only the empty size.
func (p Product) CheckSize(size string) error {
	if len(p.Sizes) == 0 {
		if size == "" {
			return nil
		}
		return ErrInvalidSize
	}
	if !slices.Contains(p.Sizes, size) {
		return ErrInvalidSize
	}
	return nil
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
