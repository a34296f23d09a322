package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/dosirak-shop/internal/admin"
	"github.com/mmeshcher/dosirak-shop/internal/model"
)

type createdResponse struct {
	ID string `json:"id"`
}

// AddMenuItem добавляет позицию меню.
func (h *Handler) AddMenuItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var form admin.MenuForm
	if !decodeJSON(w, r, &form) {
		return
	}

	id, err := h.service.AddMenuItem(r.Context(), sess, form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// UpdateMenuItem изменяет поля позиции меню.
func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var patch model.MenuItemPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	if err := h.service.UpdateMenuItem(r.Context(), sess, chi.URLParam(r, "id"), patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deleteRequestResponse struct {
	Token string `json:"token"`
}

// RequestMenuDelete выдаёт токен подтверждения удаления.
func (h *Handler) RequestMenuDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	token, err := h.service.RequestMenuDelete(sess, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, deleteRequestResponse{Token: token})
}

type confirmDeleteRequest struct {
	Token  string `json:"token"`
	Accept bool   `json:"accept"`
}

type confirmDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// ConfirmMenuDelete подтверждает или отменяет удаление.
func (h *Handler) ConfirmMenuDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req confirmDeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deleted, err := h.service.ConfirmMenuDelete(r.Context(), sess, req.Token, req.Accept)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmDeleteResponse{Deleted: deleted})
}

type ordersResponse struct {
	Ready  bool          `json:"ready"`
	Orders []model.Order `json:"orders"`
}

// AdminOrders возвращает снимок заказов.
func (h *Handler) AdminOrders(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	orders, ready, err := h.service.AdminOrders(sess)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, ordersResponse{Ready: ready, Orders: orders})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus меняет статус заказа.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status, err := model.ParseOrderStatus(req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.UpdateOrderStatus(r.Context(), sess, chi.URLParam(r, "id"), status); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Revenue возвращает выручку по дням недели.
func (h *Handler) Revenue(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	rev, err := h.service.Revenue(sess)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}
