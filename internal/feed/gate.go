package feed

import (
	"context"
	"sync"
)

// Gate держит ленту запущенной, пока у неё есть хотя бы один держатель.
// Последний Release немедленно останавливает подписку.
type Gate[T any] struct {
	base context.Context
	feed *Feed[T]

	mu      sync.Mutex
	holders int
}

// NewGate создаёт шлюз. base ограничивает время жизни запущенной ленты.
func NewGate[T any](base context.Context, f *Feed[T]) *Gate[T] {
	return &Gate[T]{base: base, feed: f}
}

// Acquire добавляет держателя, запуская ленту при переходе 0 -> 1.
func (g *Gate[T]) Acquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.holders == 0 {
		if err := g.feed.Start(g.base); err != nil {
			return err
		}
	}
	g.holders++
	return nil
}

// Release убирает держателя, останавливая ленту при переходе 1 -> 0.
func (g *Gate[T]) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.holders == 0 {
		return
	}
	g.holders--
	if g.holders == 0 {
		g.feed.Stop()
	}
}

// Holders возвращает число держателей.
func (g *Gate[T]) Holders() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holders
}

// Feed возвращает ленту под шлюзом.
func (g *Gate[T]) Feed() *Feed[T] {
	return g.feed
}

// Snapshot возвращает снимок ленты под шлюзом.
func (g *Gate[T]) Snapshot() ([]T, bool) {
	return g.feed.Snapshot()
}

// Subscribe подписывается на ленту под шлюзом.
func (g *Gate[T]) Subscribe(onUpdate func([]T)) (unsubscribe func()) {
	return g.feed.Subscribe(onUpdate)
}
