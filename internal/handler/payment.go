package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/payment"
	"github.com/xenking/kart-storefront/internal/wire"
)

// CreateIntent registers a gateway order for the server-computed total.
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request, userID string) {
	req, err := readBody(r, wire.DecodeCheckoutRequest)
	if err != nil {
		fail(w, r, err)
		return
	}
	in, err := h.payments.CreateIntent(r.Context(), userID, payment.CreateIntentRequest{
		AddressID: req.AddressID,
		Amount:    req.Amount,
		Currency:  req.Currency,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { wire.EncodeIntent(e, in) })
}

// VerifyPayment checks a gateway confirmation. A bad signature is not an
// HTTP error: the body reports success false with the reason.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request, userID string) {
	c, err := readBody(r, wire.DecodeConfirmation)
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.payments.Verify(r.Context(), userID, c)
	if err != nil {
		fail(w, r, err)
		return
	}

	out := wire.VerifyResult{Success: res.Success, Message: res.Message}
	if res.Order != nil {
		out.OrderID = res.Order.ID
	}
	if !res.Success {
		zctx.From(r.Context()).Warn("Payment verification rejected",
			zap.String("gateway_order_id", c.GatewayOrderID),
		)
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeVerifyResult(e, out) })
}
