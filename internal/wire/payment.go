package wire

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/domain/payment"
)

// CheckoutRequest is the body of both COD placement and intent creation.
type CheckoutRequest struct {
	AddressID string
	Amount    decimal.Decimal
	Currency  string
}

// EncodeCheckoutRequest writes a checkout request. Currency is omitted when
// empty.
func EncodeCheckoutRequest(e *jx.Encoder, r CheckoutRequest) {
	e.ObjStart()
	fieldStr(e, "addressId", r.AddressID)
	fieldDecimal(e, "amount", r.Amount)
	if r.Currency != "" {
		fieldStr(e, "currency", r.Currency)
	}
	e.ObjEnd()
}

// DecodeCheckoutRequest reads a checkout request.
func DecodeCheckoutRequest(d *jx.Decoder) (CheckoutRequest, error) {
	var (
		r         CheckoutRequest
		hasAmount bool
		err       error
	)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "addressId":
			r.AddressID, err = d.Str()
		case "amount":
			r.Amount, err = decodeDecimal(d)
			hasAmount = true
		case "currency":
			r.Currency, err = decodeOptStr(d)
		default:
			return d.Skip()
		}
		return err
	})
	switch {
	case err != nil:
		return CheckoutRequest{}, err
	case r.AddressID == "":
		return CheckoutRequest{}, errors.New("addressId is required")
	case !hasAmount:
		return CheckoutRequest{}, errors.New("amount is required")
	}
	return r, nil
}

// EncodeIntent writes what the gateway widget needs to collect a payment.
func EncodeIntent(e *jx.Encoder, in *payment.Intent) {
	e.ObjStart()
	fieldStr(e, "intentId", in.GatewayOrderID)
	fieldDecimal(e, "amount", in.Amount)
	fieldStr(e, "currency", in.Currency)
	fieldStr(e, "keyId", in.KeyID)
	e.ObjEnd()
}

// DecodeIntent reads a created intent. Only the widget-facing fields are
// set.
func DecodeIntent(d *jx.Decoder) (*payment.Intent, error) {
	var (
		in  payment.Intent
		err error
	)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "intentId":
			in.GatewayOrderID, err = d.Str()
		case "amount":
			in.Amount, err = decodeDecimal(d)
		case "currency":
			in.Currency, err = d.Str()
		case "keyId":
			in.KeyID, err = decodeOptStr(d)
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if in.GatewayOrderID == "" {
		return nil, errors.New("intentId is missing")
	}
	return &in, nil
}

// EncodeConfirmation writes a gateway confirmation in the provider's
// field names.
func EncodeConfirmation(e *jx.Encoder, c payment.Confirmation) {
	e.ObjStart()
	fieldStr(e, "razorpay_order_id", c.GatewayOrderID)
	fieldStr(e, "razorpay_payment_id", c.PaymentID)
	fieldStr(e, "razorpay_signature", c.Signature)
	e.ObjEnd()
}

// DecodeConfirmation reads a gateway confirmation. Missing fields are left
// empty for payment.Confirmation.Validate to reject.
func DecodeConfirmation(d *jx.Decoder) (payment.Confirmation, error) {
	var (
		c   payment.Confirmation
		err error
	)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "razorpay_order_id":
			c.GatewayOrderID, err = decodeOptStr(d)
		case "razorpay_payment_id":
			c.PaymentID, err = decodeOptStr(d)
		case "razorpay_signature":
			c.Signature, err = decodeOptStr(d)
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return payment.Confirmation{}, errors.Wrap(payment.ErrMalformedConfirmation, err.Error())
	}
	return c, nil
}

// VerifyResult is the body of a verification response.
type VerifyResult struct {
	Success bool
	OrderID string
	Message string
}

// EncodeVerifyResult writes {success, orderId, message}.
func EncodeVerifyResult(e *jx.Encoder, r VerifyResult) {
	e.ObjStart()
	e.FieldStart("success")
	e.Bool(r.Success)
	if r.OrderID != "" {
		fieldStr(e, "orderId", r.OrderID)
	}
	fieldStr(e, "message", r.Message)
	e.ObjEnd()
}

// DecodeVerifyResult reads a verification response. A missing or non-bool
// success field decodes as an unsuccessful result.
func DecodeVerifyResult(d *jx.Decoder) (VerifyResult, error) {
	var (
		r   VerifyResult
		err error
	)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "success":
			if d.Next() != jx.Bool {
				return d.Skip()
			}
			r.Success, err = d.Bool()
		case "orderId":
			r.OrderID, err = decodeOptStr(d)
		case "message":
			r.Message, err = decodeOptStr(d)
		default:
			return d.Skip()
		}
		return err
	})
	return r, err
}
