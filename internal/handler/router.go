package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/dosirak-shop/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware витрины.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.sessions.Middleware)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signin", h.SignIn)
			r.Post("/signout", h.SignOut)
			r.Get("/me", h.Me)
		})

		r.Get("/view/{page}", h.View)

		r.Get("/menus", h.Menus)
		r.Get("/menus/stream", h.MenusStream)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart)
			r.Post("/items", h.AddToCart)
			r.Patch("/items/{id}", h.ChangeQuantity)
			r.Delete("/items/{id}", h.RemoveFromCart)
			r.Post("/open", h.OpenCart)
			r.Post("/close", h.CloseCart)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", h.GetCheckout)
			r.Put("/", h.UpdateCheckout)
			r.Post("/open", h.OpenCheckout)
			r.Post("/submit", h.SubmitCheckout)
			r.Post("/close", h.CloseCheckout)
		})

		r.Get("/notifications", h.Notifications)
		r.Delete("/notifications/{id}", h.DismissNotification)

		r.Route("/admin", func(r chi.Router) {
			r.Use(custommiddleware.RequireAdmin)

			r.Post("/menus", h.AddMenuItem)
			r.Patch("/menus/{id}", h.UpdateMenuItem)
			r.Post("/menus/{id}/delete", h.RequestMenuDelete)
			r.Post("/menus/{id}/delete/confirm", h.ConfirmMenuDelete)

			r.Get("/orders", h.AdminOrders)
			r.Get("/orders/stream", h.OrdersStream)
			r.Put("/orders/{id}/status", h.UpdateOrderStatus)

			r.Get("/revenue", h.Revenue)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
