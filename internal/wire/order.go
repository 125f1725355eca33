package wire

import (
	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/domain/order"
)

// EncodeOrder writes an order with its frozen items and address.
func EncodeOrder(e *jx.Encoder, o order.Order) {
	e.ObjStart()
	fieldStr(e, "id", o.ID)
	e.FieldStart("items")
	EncodeOrderItems(e, o.Items)
	e.FieldStart("shippingAddress")
	EncodeFields(e, o.ShippingAddress)
	fieldDecimal(e, "subtotal", o.Subtotal)
	fieldDecimal(e, "shipping", o.Shipping)
	fieldDecimal(e, "tax", o.Tax)
	fieldDecimal(e, "amount", o.Amount)
	fieldStr(e, "paymentMethod", string(o.Method))
	fieldStr(e, "paymentRef", o.PaymentRef)
	fieldStr(e, "status", string(o.Status))
	e.FieldStart("createdAt")
	encodeTime(e, o.CreatedAt)
	e.ObjEnd()
}

// EncodeOrderItems writes frozen order lines.
func EncodeOrderItems(e *jx.Encoder, items []order.Item) {
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		fieldStr(e, "productId", it.ProductID)
		fieldStr(e, "name", it.Name)
		fieldStr(e, "size", it.Size)
		fieldInt(e, "quantity", it.Quantity)
		fieldDecimal(e, "price", it.UnitPrice)
		e.ObjEnd()
	}
	e.ArrEnd()
}

// EncodeOrders writes an order list.
func EncodeOrders(e *jx.Encoder, list []order.Order) {
	e.ArrStart()
	for _, o := range list {
		EncodeOrder(e, o)
	}
	e.ArrEnd()
}

// DecodeOrder reads an order.
func DecodeOrder(d *jx.Decoder) (order.Order, error) {
	var (
		o   order.Order
		err error
	)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id", "_id":
			o.ID, err = d.Str()
		case "items":
			o.Items, err = DecodeOrderItems(d)
		case "shippingAddress":
			o.ShippingAddress, err = DecodeFields(d)
		case "subtotal":
			o.Subtotal, err = decodeDecimal(d)
		case "shipping":
			o.Shipping, err = decodeDecimal(d)
		case "tax":
			o.Tax, err = decodeDecimal(d)
		case "amount":
			o.Amount, err = decodeDecimal(d)
		case "paymentMethod":
			var s string
			s, err = d.Str()
			o.Method = order.Method(s)
		case "paymentRef":
			o.PaymentRef, err = decodeOptStr(d)
		case "status":
			var s string
			s, err = d.Str()
			o.Status = order.Status(s)
		case "createdAt":
			o.CreatedAt, err = decodeTime(d)
		default:
			return d.Skip()
		}
		return err
	})
	return o, err
}

// DecodeOrderItems reads frozen order lines.
func DecodeOrderItems(d *jx.Decoder) ([]order.Item, error) {
	var out []order.Item
	err := d.Arr(func(d *jx.Decoder) error {
		var (
			it  order.Item
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
			default:
				return d.Skip()
			}
			return err
		})
		if err != nil {
			return err
		}
		out = append(out, it)
		return nil
	})
	return out, err
}

// DecodeOrders reads an order list.
func DecodeOrders(d *jx.Decoder) ([]order.Order, error) {
	var out []order.Order
	err := d.Arr(func(d *jx.Decoder) error {
		o, err := DecodeOrder(d)
		if err != nil {
			return err
		}
		out = append(out, o)
		return nil
	})
	return out, err
}
