// Package events публикует события жизненного цикла заказа в Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/dosirak-shop/internal/model"
)

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
)

const producerName = "dosirak-shop"

// Envelope: общая обёртка события.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// OrderCreatedPayload: содержимое order.created.
type OrderCreatedPayload struct {
	OrderID      string             `json:"order_id"`
	UserID       string             `json:"user_id"`
	TotalAmount  int64              `json:"total_amount"`
	Items        []OrderItemPayload `json:"items"`
	DeliveryDate string             `json:"delivery_date"`
	DeliveryTime string             `json:"delivery_time"`
}

// OrderItemPayload: строка заказа в событии.
type OrderItemPayload struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Price      int64  `json:"price"`
}

// StatusChangedPayload: содержимое order.status_changed.
type StatusChangedPayload struct {
	OrderID string `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// Publisher публикует события заказа. Ошибки доставки не возвращаются
// вызывающему: заказ уже сохранён, события вторичны.
type Publisher interface {
	OrderCreated(ctx context.Context, o model.Order)
	OrderStatusChanged(ctx context.Context, orderID string, from, to model.OrderStatus)
}

// Nop не публикует ничего. Используется, когда брокеры не настроены.
type Nop struct{}

func (Nop) OrderCreated(context.Context, model.Order) {}

func (Nop) OrderStatusChanged(context.Context, string, model.OrderStatus, model.OrderStatus) {}

func newEnvelope(eventType, orderID string, payload any) ([]byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producerName,
		CorrelationID: orderID,
		Payload:       p,
	})
}

func orderCreatedPayload(o model.Order) OrderCreatedPayload {
	items := make([]OrderItemPayload, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemPayload{MenuItemID: it.ID, Quantity: it.Quantity, Price: it.Price})
	}
	return OrderCreatedPayload{
		OrderID:      o.ID,
		UserID:       o.UserID,
		TotalAmount:  o.TotalAmount,
		Items:        items,
		DeliveryDate: o.DeliveryDate,
		DeliveryTime: string(o.DeliveryTime),
	}
}
