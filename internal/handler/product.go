package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/wire"
)

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.products.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeProducts(e, list) })
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeProduct(e, *p) })
}

// GetPricing publishes the thresholds clients use to preview totals.
func (h *Handler) GetPricing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeThresholds(e, h.thresholds) })
}
