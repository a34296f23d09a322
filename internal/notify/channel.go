// Package notify реализует очередь пользовательских уведомлений.
package notify

import (
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/dosirak-shop/internal/model"
)

const (
	// DefaultTTL: время жизни уведомления.
	DefaultTTL = 5 * time.Second
	// DefaultCapacity: максимальная длина очереди.
	DefaultCapacity = 8
)

// Channel: упорядоченная очередь уведомлений. Показывается одно, самое
// старое; его таймер запускается в момент показа, ожидающие в очереди не истекают.
type Channel struct {
	queue    []model.Notification
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// New создаёт канал уведомлений. now может быть nil.
func New(now func() time.Time) *Channel {
	if now == nil {
		now = time.Now
	}
	return &Channel{
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
		now:      now,
	}
}

// Notify ставит уведомление в очередь и возвращает его.
func (c *Channel) Notify(message string, severity model.Severity) model.Notification {
	c.prune()

	n := model.Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		CreatedAt: c.now(),
	}

	c.queue = append(c.queue, n)
	if len(c.queue) > c.capacity {
		c.queue = c.queue[len(c.queue)-c.capacity:]
	}
	c.prune()

	for _, q := range c.queue {
		if q.ID == n.ID {
			return q
		}
	}
	return n
}

// Success: сокращение для уведомления об успехе.
func (c *Channel) Success(message string) model.Notification {
	return c.Notify(message, model.SeveritySuccess)
}

// Error: сокращение для уведомления об ошибке.
func (c *Channel) Error(message string) model.Notification {
	return c.Notify(message, model.SeverityError)
}

// Current возвращает видимое уведомление.
func (c *Channel) Current() (model.Notification, bool) {
	c.prune()
	if len(c.queue) == 0 {
		return model.Notification{}, false
	}
	return c.queue[0], true
}

// Pending возвращает все неистёкшие уведомления.
func (c *Channel) Pending() []model.Notification {
	c.prune()
	res := make([]model.Notification, len(c.queue))
	copy(res, c.queue)
	return res
}

// Dismiss убирает уведомление до истечения его таймера. Следующее в очереди
// сразу становится видимым.
func (c *Channel) Dismiss(id string) bool {
	for i, n := range c.queue {
		if n.ID == id {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			c.prune()
			return true
		}
	}
	return false
}

// prune снимает истёкшие уведомления с головы очереди. Следующее получает
// таймер с момента истечения предыдущего, а если показ ещё не начат, с now.
func (c *Channel) prune() {
	now := c.now()
	for len(c.queue) > 0 {
		head := &c.queue[0]
		if head.ExpiresAt.IsZero() {
			head.ExpiresAt = now.Add(c.ttl)
		}
		if now.Before(head.ExpiresAt) {
			return
		}
		shownUntil := head.ExpiresAt
		c.queue = c.queue[1:]
		if len(c.queue) > 0 {
			c.queue[0].ExpiresAt = shownUntil.Add(c.ttl)
		}
	}
}
