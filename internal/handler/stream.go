package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mmeshcher/dosirak-shop/internal/model"
)

const streamHeartbeat = 15 * time.Second

// latest оставляет в канале только последний снимок: медленный клиент
// пропускает промежуточные, но не задерживает ленту.
func latest[T any](ch chan []T, items []T) {
	for {
		select {
		case ch <- items:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// stream отправляет снимки ленты как server-sent events, пока не отменён ctx.
func stream[T any](ctx context.Context, w http.ResponseWriter, updates <-chan []T) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case items := <-updates:
			if items == nil {
				items = []T{}
			}
			data, err := json.Marshal(items)
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// MenusStream передаёт снимки каталога.
func (h *Handler) MenusStream(w http.ResponseWriter, r *http.Request) {
	updates := make(chan []model.MenuItem, 1)
	unsubscribe := h.service.SubscribeMenus(func(items []model.MenuItem) { latest(updates, items) })
	defer unsubscribe()

	stream(r.Context(), w, updates)
}

// OrdersStream передаёт снимки заказов администратору. Поток закрывается,
// когда сессия теряет права администратора.
func (h *Handler) OrdersStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	updates := make(chan []model.Order, 1)
	ctx, stop, err := h.service.SubscribeOrders(r.Context(), sess, func(orders []model.Order) { latest(updates, orders) })
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer stop()

	stream(ctx, w, updates)
}
