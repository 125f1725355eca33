package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/wire"
)

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request, userID string) {
	h.respondCart(w, r, userID, http.StatusOK)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request, userID string) {
	l, err := readBody(r, wire.DecodeLine)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.carts.Add(r.Context(), userID, l.Key, l.Quantity); err != nil {
		fail(w, r, err)
		return
	}
	h.respondCart(w, r, userID, http.StatusOK)
}

// SetQuantity overwrites a line quantity; zero removes the line.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request, userID string) {
	l, err := readBody(r, wire.DecodeLine)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.carts.SetQuantity(r.Context(), userID, l.Key, l.Quantity); err != nil {
		fail(w, r, err)
		return
	}
	h.respondCart(w, r, userID, http.StatusOK)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request, userID string) {
	q := r.URL.Query()
	k := cart.Key{ProductID: q.Get("productId"), Size: q.Get("size")}
	if k.ProductID == "" {
		fail(w, r, badRequest(errors.New("productId is required")))
		return
	}
	if err := h.carts.Remove(r.Context(), userID, k); err != nil {
		fail(w, r, err)
		return
	}
	h.respondCart(w, r, userID, http.StatusOK)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request, userID string) {
	if err := h.carts.Clear(r.Context(), userID); err != nil {
		fail(w, r, err)
		return
	}
	h.respondCart(w, r, userID, http.StatusOK)
}

func (h *Handler) respondCart(w http.ResponseWriter, r *http.Request, userID string, status int) {
	c, err := h.carts.Get(r.Context(), userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, status, func(e *jx.Encoder) { wire.EncodeCart(e, c) })
}
