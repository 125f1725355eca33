// Package pricing turns a cart snapshot into a price breakdown. It is the
// only place totals are computed, so the cart view, the checkout view and the
// amount sent to the payment gateway always agree.
package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/domain/cart"
)

// Thresholds holds the business constants used by Compute.
type Thresholds struct {
	// FreeShippingAt is the subtotal from which shipping is free.
	FreeShippingAt decimal.Decimal
	// ShippingFee is charged below FreeShippingAt.
	ShippingFee decimal.Decimal
	// TaxRate is a fraction, e.g. 0.05 for 5%.
	TaxRate decimal.Decimal
}

// DefaultThresholds is the canonical storefront configuration.
var DefaultThresholds = Thresholds{
	FreeShippingAt: decimal.NewFromInt(1000),
	ShippingFee:    decimal.NewFromInt(99),
	TaxRate:        decimal.RequireFromString("0.05"),
}

// ParseThresholds builds Thresholds from their decimal string forms.
func ParseThresholds(freeShippingAt, shippingFee, taxRate string) (Thresholds, error) {
	var (
		t   Thresholds
		err error
	)
	if t.FreeShippingAt, err = decimal.NewFromString(freeShippingAt); err != nil {
		return Thresholds{}, errors.Wrap(err, "free shipping threshold")
	}
	if t.ShippingFee, err = decimal.NewFromString(shippingFee); err != nil {
		return Thresholds{}, errors.Wrap(err, "shipping fee")
	}
	if t.TaxRate, err = decimal.NewFromString(taxRate); err != nil {
		return Thresholds{}, errors.Wrap(err, "tax rate")
	}
	if err := t.Validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}

// Validate rejects negative amounts and tax rates outside [0, 1].
func (t Thresholds) Validate() error {
	switch {
	case t.FreeShippingAt.IsNegative():
		return errors.New("free shipping threshold must not be negative")
	case t.ShippingFee.IsNegative():
		return errors.New("shipping fee must not be negative")
	case t.TaxRate.IsNegative() || t.TaxRate.GreaterThan(decimal.NewFromInt(1)):
		return errors.New("tax rate must be between 0 and 1")
	}
	return nil
}

// Breakdown is the derived price summary of a cart. It is never persisted.
type Breakdown struct {
	ItemCount int
	Subtotal  decimal.Decimal
	Shipping  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal

	freeShippingAt decimal.Decimal
}

// FreeShipping reports whether the shipping charge was waived.
func (b Breakdown) FreeShipping() bool {
	return b.Shipping.IsZero()
}

// AmountToFreeShipping returns how much more the subtotal needs to reach the
// free shipping threshold, or zero once it is reached.
func (b Breakdown) AmountToFreeShipping() decimal.Decimal {
	rest := b.freeShippingAt.Sub(b.Subtotal)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// Compute derives the breakdown for items. Tax is rounded to whole currency
// units, half away from zero.
func Compute(items []cart.Item, t Thresholds) Breakdown {
	c := cart.Cart{Items: items}
	b := Breakdown{
		ItemCount:      c.Count(),
		Subtotal:       c.Subtotal(),
		Shipping:       decimal.Zero,
		freeShippingAt: t.FreeShippingAt,
	}
	if b.Subtotal.LessThan(t.FreeShippingAt) {
		b.Shipping = t.ShippingFee
	}
	b.Tax = b.Subtotal.Mul(t.TaxRate).Round(0)
	b.Total = b.Subtotal.Add(b.Shipping).Add(b.Tax)
	return b
}
