package wire

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/domain/cart"
)

// EncodeCart writes a cart with its derived count and subtotal. Clients
// ignore the derived fields and recompute them.
func EncodeCart(e *jx.Encoder, c cart.Cart) {
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range c.Items {
		e.ObjStart()
		fieldStr(e, "productId", it.ProductID)
		fieldStr(e, "name", it.Name)
		fieldStr(e, "size", it.Size)
		fieldInt(e, "quantity", it.Quantity)
		fieldDecimal(e, "price", it.UnitPrice)
		e.FieldStart("originalPrice")
		encodeOptDecimal(e, it.OriginalPrice)
		e.ObjEnd()
	}
	e.ArrEnd()
	fieldInt(e, "count", c.Count())
	fieldDecimal(e, "subtotal", c.Subtotal())
	e.ObjEnd()
}

// DecodeCart reads a cart. Lines with a quantity below 1 are rejected.
func DecodeCart(d *jx.Decoder) (cart.Cart, error) {
	var c cart.Cart
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "items" {
			return d.Skip()
		}
		if d.Next() == jx.Null {
			return d.Null()
		}
		return d.Arr(func(d *jx.Decoder) error {
			it, err := decodeCartItem(d)
			if err != nil {
				return err
			}
			c.Items = append(c.Items, it)
			return nil
		})
	})
	return c, err
}

func decodeCartItem(d *jx.Decoder) (cart.Item, error) {
	var (
		it  cart.Item
		err error
	)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "productId":
			it.ProductID, err = d.Str()
		case "name":
			it.Name, err = decodeOptStr(d)
		case "size":
			it.Size, err = decodeOptStr(d)
		case "quantity":
			it.Quantity, err = d.Int()
		case "price":
			it.UnitPrice, err = decodeDecimal(d)
		case "originalPrice":
			it.OriginalPrice, err = decodeOptDecimal(d)
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return cart.Item{}, err
	}
	if it.Quantity < 1 {
		return cart.Item{}, errors.Errorf("cart item %s: quantity %d", it.Key(), it.Quantity)
	}
	return it, nil
}

// EncodeLine writes a {productId, size, quantity} mutation body.
func EncodeLine(e *jx.Encoder, l cart.Line) {
	e.ObjStart()
	fieldStr(e, "productId", l.Key.ProductID)
	fieldStr(e, "size", l.Key.Size)
	fieldInt(e, "quantity", l.Quantity)
	e.ObjEnd()
}

// DecodeLine reads a mutation body. A missing quantity defaults to 1.
func DecodeLine(d *jx.Decoder) (cart.Line, error) {
	var (
		l   = cart.Line{Quantity: 1}
		err error
	)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "productId":
			l.Key.ProductID, err = d.Str()
		case "size":
			l.Key.Size, err = decodeOptStr(d)
		case "quantity":
			l.Quantity, err = d.Int()
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return cart.Line{}, err
	}
	if l.Key.ProductID == "" {
		return cart.Line{}, errors.New("productId is required")
	}
	return l, nil
}
