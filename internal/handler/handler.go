// Package handler содержит HTTP-обработчики API витрины.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/dosirak-shop/internal/admin"
	"github.com/mmeshcher/dosirak-shop/internal/checkout"
	"github.com/mmeshcher/dosirak-shop/internal/identity"
	"github.com/mmeshcher/dosirak-shop/internal/middleware"
	"github.com/mmeshcher/dosirak-shop/internal/model"
	"github.com/mmeshcher/dosirak-shop/internal/repository"
	"github.com/mmeshcher/dosirak-shop/internal/service"
	"github.com/mmeshcher/dosirak-shop/internal/session"
	"github.com/mmeshcher/dosirak-shop/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	SignIn(ctx context.Context, sess *session.Session, in identity.SignInRequest) (model.UserProfile, error)
	SignOut(sess *session.Session)
	CurrentUser(sess *session.Session) *model.UserProfile
	View(sess *session.Session, page model.Page, category string) any
	Notifications(sess *session.Session) []model.Notification
	DismissNotification(sess *session.Session, id string) bool

	Menus() ([]model.MenuItem, bool)
	SubscribeMenus(onUpdate func([]model.MenuItem)) (unsubscribe func())

	Cart(sess *session.Session) service.CartView
	AddToCart(sess *session.Session, menuItemID string) (model.CartItem, error)
	ChangeQuantity(sess *session.Session, menuItemID string, delta int) service.CartView
	RemoveFromCart(sess *session.Session, menuItemID string) service.CartView
	SetCartOpen(sess *session.Session, open bool) service.CartView

	OpenCheckout(sess *session.Session) (checkout.Snapshot, error)
	UpdateCheckout(sess *session.Session, form checkout.Form) (checkout.Snapshot, error)
	CloseCheckout(sess *session.Session) (checkout.Snapshot, error)
	Checkout(sess *session.Session) checkout.Snapshot
	SubmitCheckout(ctx context.Context, sess *session.Session) (model.Order, error)

	AddMenuItem(ctx context.Context, sess *session.Session, f admin.MenuForm) (string, error)
	UpdateMenuItem(ctx context.Context, sess *session.Session, id string, patch model.MenuItemPatch) error
	RequestMenuDelete(sess *session.Session, id string) (string, error)
	ConfirmMenuDelete(ctx context.Context, sess *session.Session, token string, accept bool) (bool, error)
	UpdateOrderStatus(ctx context.Context, sess *session.Session, id string, status model.OrderStatus) error
	AdminOrders(sess *session.Session) ([]model.Order, bool, error)
	SubscribeOrders(ctx context.Context, sess *session.Session, onUpdate func([]model.Order)) (context.Context, func(), error)
	Revenue(sess *session.Session) ([]admin.DailyRevenue, error)
}

// Handler реализует HTTP-обработчики API витрины.
type Handler struct {
	service  Service
	logger   *zap.Logger
	sessions *middleware.SessionMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, sessions *middleware.SessionMiddleware) *Handler {
	return &Handler{
		service:  s,
		logger:   logger,
		sessions: sessions,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	return true
}

func sessionFrom(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return nil, false
	}
	return sess, true
}

type errorResponse struct {
	Error          string `json:"error"`
	Code           string `json:"code,omitempty"`
	SignInRequired bool   `json:"signInRequired,omitempty"`
}

// writeError переводит ошибку сервиса в HTTP-ответ.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *identity.Error
	switch {
	case errors.Is(err, service.ErrSignInRequired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), SignInRequired: true})
	case errors.As(err, &authErr):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: identity.UserMessage(err), Code: string(authErr.Code)})
	case errors.Is(err, identity.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: identity.UserMessage(identity.ErrInvalidToken)})
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	case errors.Is(err, repository.ErrMenuItemNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, admin.ErrUnknownConfirmation):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, checkout.ErrNotOpen),
		errors.Is(err, checkout.ErrSubmitting),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, service.ErrUnavailable):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, checkout.ErrIncomplete),
		errors.Is(err, checkout.ErrInvalidSlot),
		errors.Is(err, validation.ErrRequired),
		errors.Is(err, validation.ErrInvalidPrice),
		errors.Is(err, validation.ErrInvalidDate),
		errors.Is(err, validation.ErrDateInPast),
		errors.Is(err, admin.ErrInvalidCategory),
		errors.Is(err, admin.ErrEmptyPatch),
		errors.Is(err, model.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrCatalogNotReady):
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
	default:
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type signInRequest struct {
	Credential string `json:"credential"`
}

// SignIn выполняет вход через провайдера идентификации.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req signInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.service.SignIn(r.Context(), sess, identity.SignInRequest{
		Credential: req.Credential,
		Origin:     r.Header.Get("Origin"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// SignOut завершает сеанс пользователя.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	h.service.SignOut(sess)
	w.WriteHeader(http.StatusNoContent)
}

// Me возвращает текущего пользователя или null.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.service.CurrentUser(sess))
}

// View возвращает модель страницы. Админка для не-администратора заменяется главной.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	page, err := model.ParsePage(chi.URLParam(r, "page"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, h.service.View(sess, page, r.URL.Query().Get("category")))
}

// Notifications возвращает очередь уведомлений сессии.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.service.Notifications(sess))
}

// DismissNotification убирает уведомление.
func (h *Handler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	if !h.service.DismissNotification(sess, chi.URLParam(r, "id")) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Menus возвращает текущий снимок каталога.
func (h *Handler) Menus(w http.ResponseWriter, r *http.Request) {
	items, ready := h.service.Menus()
	if !ready {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Health отвечает 200, пока процесс жив.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
