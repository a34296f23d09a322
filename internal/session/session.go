// Package session хранит состояние витрины для каждого браузера.
package session

import (
	"sync"
	"time"

	"github.com/mmeshcher/dosirak-shop/internal/cart"
	"github.com/mmeshcher/dosirak-shop/internal/checkout"
	"github.com/mmeshcher/dosirak-shop/internal/model"
	"github.com/mmeshcher/dosirak-shop/internal/notify"
)

// Session: состояние одного браузера. Поля State читаются и меняются только под Lock.
type Session struct {
	ID string

	mu sync.Mutex
	State

	// feedMu упорядочивает захват и освобождение ленты заказов этой сессией.
	feedMu sync.Mutex

	adminStreams map[uint64]func()
	nextStream   uint64

	lastSeen time.Time
}

// State: изменяемая часть сессии.
type State struct {
	User          *model.UserProfile
	Page          model.Page
	CartOpen      bool
	Cart          *cart.Cart
	Checkout      *checkout.Flow
	Notifications *notify.Channel

	// OrderFeedHeld: сессия держит ленту заказов администратора.
	OrderFeedHeld bool

	// PendingDeletes: ожидающие подтверждения удаления: токен -> позиция меню.
	PendingDeletes map[string]string
}

func newSession(id string, loc *time.Location, now func() time.Time) *Session {
	return &Session{
		ID: id,
		State: State{
			Page:           model.PageHome,
			Cart:           cart.New(),
			Checkout:       checkout.New(loc, now),
			Notifications:  notify.New(now),
			PendingDeletes: make(map[string]string),
		},
		adminStreams: make(map[uint64]func()),
		lastSeen:     now(),
	}
}

// Lock захватывает сессию.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock освобождает сессию.
func (s *Session) Unlock() { s.mu.Unlock() }

// LockOrderFeed захватывается на всё время решения о ленте заказов и вызова
// Acquire/Release. Берётся до Lock.
func (s *Session) LockOrderFeed() { s.feedMu.Lock() }

// UnlockOrderFeed освобождает LockOrderFeed.
func (s *Session) UnlockOrderFeed() { s.feedMu.Unlock() }

// TrackAdminStream запоминает отмену потока, доступного только администратору.
// Вызывать под Lock. untrack сам захватывает сессию.
func (s *Session) TrackAdminStream(revoke func()) (untrack func()) {
	id := s.nextStream
	s.nextStream++
	s.adminStreams[id] = revoke
	return func() {
		s.mu.Lock()
		delete(s.adminStreams, id)
		s.mu.Unlock()
	}
}

// TakeAdminStreams забирает все отмены потоков администратора. Вызывать под
// Lock, а сами отмены выполнять после Unlock.
func (s *Session) TakeAdminStreams() []func() {
	res := make([]func(), 0, len(s.adminStreams))
	for id, revoke := range s.adminStreams {
		res = append(res, revoke)
		delete(s.adminStreams, id)
	}
	return res
}

// IsAdmin сообщает, вошёл ли в сессию администратор. Вызывать под Lock.
func (s *Session) IsAdmin() bool {
	return s.User != nil && s.User.IsAdmin
}

// Reset сбрасывает сессию к анонимному состоянию: без пользователя, с пустой
// корзиной, на главной странице. Вызывать под Lock.
func (s *Session) Reset() {
	s.User = nil
	s.Page = model.PageHome
	s.CartOpen = false
	s.Cart.Clear()
	_ = s.Checkout.Close()
	s.PendingDeletes = make(map[string]string)
}
