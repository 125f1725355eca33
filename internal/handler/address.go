package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/wire"
)

func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request, userID string) {
	list, err := h.addresses.List(r.Context(), userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeAddresses(e, list) })
}

func (h *Handler) CreateAddress(w http.ResponseWriter, r *http.Request, userID string) {
	f, err := readBody(r, wire.DecodeFields)
	if err != nil {
		fail(w, r, err)
		return
	}
	a, err := h.addresses.Create(r.Context(), userID, f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { wire.EncodeAddress(e, *a) })
}

func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request, userID string) {
	p, err := readBody(r, wire.DecodePatch)
	if err != nil {
		fail(w, r, err)
		return
	}
	a, err := h.addresses.Update(r.Context(), userID, r.PathValue("id"), p)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeAddress(e, *a) })
}

func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request, userID string) {
	if err := h.addresses.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
