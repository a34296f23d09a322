package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/mmeshcher/dosirak-shop/internal/checkout"
	"github.com/mmeshcher/dosirak-shop/internal/model"
	"github.com/mmeshcher/dosirak-shop/internal/session"
)

// OpenCheckout открывает окно оформления для непустой корзины.
func (s *Service) OpenCheckout(sess *session.Session) (checkout.Snapshot, error) {
	sess.Lock()
	defer sess.Unlock()

	if sess.Cart.Len() == 0 {
		return sess.Checkout.Snapshot(), ErrEmptyCart
	}
	sess.Checkout.Open()
	return sess.Checkout.Snapshot(), nil
}

// UpdateCheckout заменяет данные доставки в открытом окне.
func (s *Service) UpdateCheckout(sess *session.Session, form checkout.Form) (checkout.Snapshot, error) {
	sess.Lock()
	defer sess.Unlock()

	err := sess.Checkout.Update(form)
	return sess.Checkout.Snapshot(), err
}

// CloseCheckout закрывает окно оформления.
func (s *Service) CloseCheckout(sess *session.Session) (checkout.Snapshot, error) {
	sess.Lock()
	defer sess.Unlock()

	err := sess.Checkout.Close()
	return sess.Checkout.Snapshot(), err
}

// Checkout возвращает состояние окна оформления.
func (s *Service) Checkout(sess *session.Session) checkout.Snapshot {
	sess.Lock()
	defer sess.Unlock()
	return sess.Checkout.Snapshot()
}

// SubmitCheckout сохраняет заказ из текущей корзины. При успехе корзина
// очищается, окно оформления и панель корзины закрываются. При ошибке
// корзина и окно остаются как были.
func (s *Service) SubmitCheckout(ctx context.Context, sess *session.Session) (model.Order, error) {
	sess.Lock()
	if sess.User == nil {
		sess.Notifications.Error("주문하려면 로그인이 필요합니다.")
		sess.Unlock()
		return model.Order{}, ErrSignInRequired
	}
	if sess.Cart.Len() == 0 {
		sess.Unlock()
		return model.Order{}, ErrEmptyCart
	}

	form, token, err := sess.Checkout.Begin()
	if err != nil {
		sess.Unlock()
		return model.Order{}, err
	}

	order := model.Order{
		UserID:         sess.User.ID,
		UserEmail:      sess.User.Email,
		Items:          sess.Cart.Items(),
		TotalAmount:    sess.Cart.Total(),
		Status:         model.OrderStatusPending,
		Address:        form.Address,
		Contact:        form.Contact,
		DeliveryDate:   form.DeliveryDate,
		DeliveryTime:   form.DeliveryTime,
		IdempotencyKey: token,
		CreatedAt:      s.now(),
	}
	sess.Unlock()

	id, existed, err := s.createOrder(ctx, order)
	if err != nil {
		s.logger.Error("failed to create order", zap.String("user", order.UserID), zap.Error(err))

		sess.Lock()
		sess.Checkout.Fail()
		sess.Notifications.Error("주문 처리 중 오류가 발생했습니다. 다시 시도해주세요.")
		sess.Unlock()
		return model.Order{}, err
	}
	order.ID = id

	sess.Lock()
	sess.Cart.Subtract(order.Items)
	sess.Checkout.Succeed()
	sess.CartOpen = false
	sess.Notifications.Success("주문이 완료되었습니다!")
	sess.Unlock()

	if !existed {
		s.events.OrderCreated(ctx, order)
	}
	s.logger.Info("order created",
		zap.String("id", id),
		zap.String("user", order.UserID),
		zap.Int64("total", order.TotalAmount),
		zap.Bool("duplicate", existed),
	)
	return order, nil
}

func (s *Service) createOrder(ctx context.Context, order model.Order) (string, bool, error) {
	id, ok, err := s.cache.Lookup(ctx, order.IdempotencyKey)
	if err != nil {
		s.logger.Warn("idempotency cache lookup failed", zap.Error(err))
	}
	if ok {
		return id, true, nil
	}

	id, existed, err := s.store.CreateOrder(ctx, order)
	if err != nil {
		return "", false, err
	}

	if err := s.cache.Remember(ctx, order.IdempotencyKey, id); err != nil {
		s.logger.Warn("idempotency cache store failed", zap.Error(err))
	}
	return id, existed, nil
}
