package wire

import (
	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/domain/pricing"
	"github.com/xenking/kart-storefront/internal/domain/product"
)

// EncodeProduct writes a catalog product.
func EncodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	fieldStr(e, "id", p.ID)
	fieldStr(e, "name", p.Name)
	fieldDecimal(e, "price", p.Price)
	e.FieldStart("mrp")
	encodeOptDecimal(e, p.MRP)
	fieldStr(e, "category", p.Category)
	e.FieldStart("sizes")
	encodeStrings(e, p.Sizes)
	fieldInt(e, "stock", p.Stock)
	fieldStr(e, "imageUrl", p.ImageURL)
	e.ObjEnd()
}

// EncodeProducts writes a product list.
func EncodeProducts(e *jx.Encoder, list []product.Product) {
	e.ArrStart()
	for _, p := range list {
		EncodeProduct(e, p)
	}
	e.ArrEnd()
}

// DecodeProduct reads a catalog product.
func DecodeProduct(d *jx.Decoder) (product.Product, error) {
	var (
		p   product.Product
		err error
	)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			p.ID, err = d.Str()
		case "name":
			p.Name, err = d.Str()
		case "price":
			p.Price, err = decodeDecimal(d)
		case "mrp":
			p.MRP, err = decodeOptDecimal(d)
		case "category":
			p.Category, err = decodeOptStr(d)
		case "sizes":
			p.Sizes, err = decodeStrings(d)
		case "stock":
			p.Stock, err = d.Int()
		case "imageUrl":
			p.ImageURL, err = decodeOptStr(d)
		default:
			return d.Skip()
		}
		return err
	})
	return p, err
}

// DecodeProducts reads a product list.
func DecodeProducts(d *jx.Decoder) ([]product.Product, error) {
	var out []product.Product
	err := d.Arr(func(d *jx.Decoder) error {
		p, err := DecodeProduct(d)
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

// EncodeThresholds writes the published pricing configuration.
func EncodeThresholds(e *jx.Encoder, t pricing.Thresholds) {
	e.ObjStart()
	fieldDecimal(e, "freeShippingThreshold", t.FreeShippingAt)
	fieldDecimal(e, "shippingFee", t.ShippingFee)
	fieldDecimal(e, "taxRate", t.TaxRate)
	e.ObjEnd()
}

// DecodeThresholds reads the published pricing configuration.
func DecodeThresholds(d *jx.Decoder) (pricing.Thresholds, error) {
	var (
		t   pricing.Thresholds
		err error
	)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "freeShippingThreshold":
			t.FreeShippingAt, err = decodeDecimal(d)
		case "shippingFee":
			t.ShippingFee, err = decodeDecimal(d)
		case "taxRate":
			t.TaxRate, err = decodeDecimal(d)
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return pricing.Thresholds{}, err
	}
	return t, t.Validate()
}
