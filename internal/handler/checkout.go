package handler

import (
	"net/http"

	"github.com/mmeshcher/dosirak-shop/internal/checkout"
)

// GetCheckout возвращает состояние окна оформления.
func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.service.Checkout(sess))
}

// OpenCheckout открывает окно оформления.
func (h *Handler) OpenCheckout(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	snap, err := h.service.OpenCheckout(sess)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// UpdateCheckout сохраняет данные доставки.
func (h *Handler) UpdateCheckout(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var form checkout.Form
	if !decodeJSON(w, r, &form) {
		return
	}

	snap, err := h.service.UpdateCheckout(sess, form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// CloseCheckout закрывает окно оформления.
func (h *Handler) CloseCheckout(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	snap, err := h.service.CloseCheckout(sess)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// SubmitCheckout оформляет заказ. Анонимный пользователь получает 401 с
// признаком signInRequired, по которому клиент запускает вход.
func (h *Handler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	order, err := h.service.SubmitCheckout(r.Context(), sess)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}
