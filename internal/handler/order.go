package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/wire"
)

// PlaceCOD creates a cash-on-delivery order for the amount the customer
// confirmed.
func (h *Handler) PlaceCOD(w http.ResponseWriter, r *http.Request, userID string) {
	req, err := readBody(r, wire.DecodeCheckoutRequest)
	if err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.orders.PlaceCOD(r.Context(), userID, order.PlaceCODRequest{
		AddressID: req.AddressID,
		Amount:    req.Amount,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { wire.EncodeOrder(e, *o) })
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request, userID string) {
	list, err := h.orders.List(r.Context(), userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeOrders(e, list) })
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, userID string) {
	o, err := h.orders.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeOrder(e, *o) })
}
