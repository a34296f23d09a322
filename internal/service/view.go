package service

import (
	"github.com/mmeshcher/dosirak-shop/internal/model"
	"github.com/mmeshcher/dosirak-shop/internal/session"
	"github.com/mmeshcher/dosirak-shop/internal/view"
)

// Navigate переключает страницу сессии и возвращает фактически открытую.
func (s *Service) Navigate(sess *session.Session, page model.Page) model.Page {
	sess.Lock()
	defer sess.Unlock()
	sess.Page = view.Navigate(page, sess.IsAdmin())
	return sess.Page
}

// View переключает страницу и собирает её модель.
func (s *Service) View(sess *session.Session, page model.Page, category string) any {
	sess.Lock()
	sess.Page = view.Navigate(page, sess.IsAdmin())
	chrome := view.Chrome{
		Page:      sess.Page,
		CartCount: sess.Cart.Count(),
		CartOpen:  sess.CartOpen,
	}
	if sess.User != nil {
		u := *sess.User
		chrome.User = &u
	}
	if n, ok := sess.Notifications.Current(); ok {
		chrome.Notification = &n
	}
	sess.Unlock()

	items, _ := s.catalog.Snapshot()

	switch chrome.Page {
	case model.PageMenu:
		return view.BuildMenu(chrome, items, category)
	case model.PageAdmin:
		orders, ready := s.orders.Snapshot()
		return view.BuildAdmin(chrome, items, orders, ready, s.policy, s.loc)
	default:
		return view.BuildHome(chrome, items)
	}
}
