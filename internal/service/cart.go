package service

import (
	"fmt"

	"github.com/mmeshcher/dosirak-shop/internal/locale"
	"github.com/mmeshcher/dosirak-shop/internal/model"
	"github.com/mmeshcher/dosirak-shop/internal/repository"
	"github.com/mmeshcher/dosirak-shop/internal/session"
)

// CartView: корзина для отображения.
type CartView struct {
	Items      []model.CartItem `json:"items"`
	Count      int              `json:"count"`
	Total      int64            `json:"total"`
	TotalLabel string           `json:"totalLabel"`
	Open       bool             `json:"open"`
}

func cartView(sess *session.Session) CartView {
	total := sess.Cart.Total()
	return CartView{
		Items:      sess.Cart.Items(),
		Count:      sess.Cart.Count(),
		Total:      total,
		TotalLabel: locale.FormatKRW(total),
		Open:       sess.CartOpen,
	}
}

// Cart возвращает корзину сессии.
func (s *Service) Cart(sess *session.Session) CartView {
	sess.Lock()
	defer sess.Unlock()
	return cartView(sess)
}

// AddToCart добавляет позицию каталога в корзину и сообщает об этом.
func (s *Service) AddToCart(sess *session.Session, menuItemID string) (model.CartItem, error) {
	item, err := s.lookup(menuItemID)
	if err != nil {
		return model.CartItem{}, err
	}

	sess.Lock()
	defer sess.Unlock()

	ci := sess.Cart.Add(item)
	sess.Notifications.Success(fmt.Sprintf("%s이(가) 장바구니에 추가되었습니다.", item.Name))
	return ci, nil
}

func (s *Service) lookup(id string) (model.MenuItem, error) {
	items, ready := s.catalog.Snapshot()
	if !ready {
		return model.MenuItem{}, ErrCatalogNotReady
	}
	for _, it := range items {
		if it.ID != id {
			continue
		}
		if !it.Available {
			return model.MenuItem{}, fmt.Errorf("%w: %s", ErrUnavailable, id)
		}
		return it, nil
	}
	return model.MenuItem{}, fmt.Errorf("%w: %s", repository.ErrMenuItemNotFound, id)
}

// ChangeQuantity меняет количество позиции на delta, не опуская его ниже 1.
func (s *Service) ChangeQuantity(sess *session.Session, menuItemID string, delta int) CartView {
	sess.Lock()
	defer sess.Unlock()
	sess.Cart.SetQuantity(menuItemID, delta)
	return cartView(sess)
}

// RemoveFromCart удаляет позицию из корзины.
func (s *Service) RemoveFromCart(sess *session.Session, menuItemID string) CartView {
	sess.Lock()
	defer sess.Unlock()
	sess.Cart.Remove(menuItemID)
	return cartView(sess)
}

// SetCartOpen открывает или закрывает панель корзины.
func (s *Service) SetCartOpen(sess *session.Session, open bool) CartView {
	sess.Lock()
	defer sess.Unlock()
	sess.CartOpen = open
	return cartView(sess)
}
