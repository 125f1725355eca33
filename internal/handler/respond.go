package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/address"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/payment"
	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/wire"
)

const maxBodySize = 1 << 20

// errBadRequest marks request bodies or parameters that could not be parsed.
var errBadRequest = errors.New("invalid request")

func badRequest(err error) error {
	return errors.Errorf("%w: %s", errBadRequest, err)
}

func writeJSON(w http.ResponseWriter, status int, f func(e *jx.Encoder)) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(wire.Encode(f))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		wire.EncodeError(e, wire.Error{Code: status, Message: msg})
	})
}

// readBody decodes the request body with f.
func readBody[T any](r *http.Request, f func(d *jx.Decoder) (T, error)) (T, error) {
	var zero T
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return zero, badRequest(err)
	}
	var v T
	err = wire.Decode(b, func(d *jx.Decoder) (err error) {
		v, err = f(d)
		return err
	})
	if err != nil {
		return zero, badRequest(err)
	}
	return v, nil
}

// fail maps a domain error to its HTTP response.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *address.ValidationError
		stock      *cart.InsufficientStockError
		mismatch   *order.AmountMismatchError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("code")
			e.Int(http.StatusBadRequest)
			e.FieldStart("message")
			e.Str(validation.Error())
			e.FieldStart("errors")
			e.ArrStart()
			for _, m := range validation.Messages() {
				e.Str(m)
			}
			e.ArrEnd()
			e.ObjEnd()
		})
	case errors.As(err, &stock):
		writeError(w, http.StatusConflict, stock.Error())
	case errors.As(err, &mismatch):
		writeError(w, http.StatusConflict, mismatch.Error())
	case errors.Is(err, errBadRequest),
		errors.Is(err, payment.ErrMalformedConfirmation),
		errors.Is(err, payment.ErrUnsupportedCurrency),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, product.ErrInvalidSize):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "Your cart is empty")
	case errors.Is(err, cart.ErrLineNotFound):
		writeError(w, http.StatusNotFound, "Item not found in cart")
	case errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, address.ErrNotFound):
		writeError(w, http.StatusNotFound, "Address not found")
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, payment.ErrIntentNotFound):
		writeError(w, http.StatusNotFound, "Payment not found")
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
