package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Cart возвращает корзину сессии.
func (h *Handler) Cart(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.service.Cart(sess))
}

type addToCartRequest struct {
	MenuItemID string `json:"menuItemId"`
}

// AddToCart добавляет позицию каталога в корзину.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req addToCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.MenuItemID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if _, err := h.service.AddToCart(sess, req.MenuItemID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Cart(sess))
}

type quantityRequest struct {
	Delta int `json:"delta"`
}

// ChangeQuantity меняет количество позиции в корзине.
func (h *Handler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req quantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.service.ChangeQuantity(sess, chi.URLParam(r, "id"), req.Delta))
}

// RemoveFromCart удаляет позицию из корзины.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.service.RemoveFromCart(sess, chi.URLParam(r, "id")))
}

// OpenCart открывает панель корзины.
func (h *Handler) OpenCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.service.SetCartOpen(sess, true))
}

// CloseCart закрывает панель корзины.
func (h *Handler) CloseCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.service.SetCartOpen(sess, false))
}
