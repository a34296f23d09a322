package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/dosirak-shop/internal/admin"
	"github.com/mmeshcher/dosirak-shop/internal/model"
	"github.com/mmeshcher/dosirak-shop/internal/session"
)

// IsAdmin сообщает, вошёл ли в сессию администратор.
func (s *Service) IsAdmin(sess *session.Session) bool {
	sess.Lock()
	defer sess.Unlock()
	return sess.IsAdmin()
}

func (s *Service) requireAdmin(sess *session.Session) error {
	if !s.IsAdmin(sess) {
		return ErrForbidden
	}
	return nil
}

func (s *Service) notify(sess *session.Session, err error, ok, failed string) {
	sess.Lock()
	defer sess.Unlock()
	if err != nil {
		sess.Notifications.Error(failed)
		return
	}
	sess.Notifications.Success(ok)
}

// AddMenuItem добавляет позицию меню. Обновлённый список приходит через каталог.
func (s *Service) AddMenuItem(ctx context.Context, sess *session.Session, f admin.MenuForm) (string, error) {
	if err := s.requireAdmin(sess); err != nil {
		return "", err
	}

	id, err := s.console.AddMenuItem(ctx, f)
	if err != nil {
		s.logger.Warn("failed to add menu item", zap.Error(err))
	}
	s.notify(sess, err, "메뉴가 추가되었습니다.", "메뉴 추가 중 오류가 발생했습니다.")
	return id, err
}

// UpdateMenuItem изменяет поля позиции меню.
func (s *Service) UpdateMenuItem(ctx context.Context, sess *session.Session, id string, patch model.MenuItemPatch) error {
	if err := s.requireAdmin(sess); err != nil {
		return err
	}

	err := s.console.UpdateMenuItem(ctx, id, patch)
	if err != nil {
		s.logger.Warn("failed to update menu item", zap.String("id", id), zap.Error(err))
	}
	s.notify(sess, err, "메뉴가 수정되었습니다.", "메뉴 수정 중 오류가 발생했습니다.")
	return err
}

// RequestMenuDelete начинает удаление позиции и возвращает токен подтверждения.
// Само удаление выполняет только ConfirmMenuDelete.
func (s *Service) RequestMenuDelete(sess *session.Session, id string) (string, error) {
	sess.Lock()
	defer sess.Unlock()

	if !sess.IsAdmin() {
		return "", ErrForbidden
	}
	return s.console.RequestDelete(sess.PendingDeletes, id), nil
}

// ConfirmMenuDelete расходует токен подтверждения. При accept удаление
// выполняется ровно один раз, при отказе хранилище не затрагивается.
func (s *Service) ConfirmMenuDelete(ctx context.Context, sess *session.Session, token string, accept bool) (bool, error) {
	sess.Lock()
	if !sess.IsAdmin() {
		sess.Unlock()
		return false, ErrForbidden
	}
	id, proceed, err := s.console.ResolveDelete(sess.PendingDeletes, token, accept)
	sess.Unlock()

	if err != nil || !proceed {
		return false, err
	}

	err = s.console.DeleteMenuItem(ctx, id)
	if err != nil {
		s.logger.Warn("failed to delete menu item", zap.String("id", id), zap.Error(err))
	}
	s.notify(sess, err, "메뉴가 삭제되었습니다.", "메뉴 삭제 중 오류가 발생했습니다.")
	return err == nil, err
}

// UpdateOrderStatus меняет статус заказа согласно политике статусов.
func (s *Service) UpdateOrderStatus(ctx context.Context, sess *session.Session, id string, status model.OrderStatus) error {
	if err := s.requireAdmin(sess); err != nil {
		return err
	}

	from, err := s.console.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		s.logger.Warn("failed to update order status", zap.String("id", id), zap.Error(err))
	}
	s.notify(sess, err, "주문 상태가 변경되었습니다.", "주문 상태 변경 중 오류가 발생했습니다.")
	if err != nil {
		return err
	}

	s.events.OrderStatusChanged(ctx, id, from, status)
	return nil
}

// AdminOrders возвращает снимок ленты заказов.
func (s *Service) AdminOrders(sess *session.Session) ([]model.Order, bool, error) {
	if err := s.requireAdmin(sess); err != nil {
		return nil, false, err
	}
	orders, ready := s.orders.Snapshot()
	return orders, ready, nil
}

// SubscribeOrders подписывает администратора на снимки заказов. Подписка
// отзывается, как только сессия теряет права администратора: снимки перестают
// доставляться, а возвращённый контекст отменяется. stop снимает подписку.
func (s *Service) SubscribeOrders(ctx context.Context, sess *session.Session, onUpdate func([]model.Order)) (context.Context, func(), error) {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &orderSubscription{onUpdate: onUpdate, cancel: cancel}

	sess.Lock()
	if !sess.IsAdmin() {
		sess.Unlock()
		cancel()
		return nil, nil, ErrForbidden
	}
	untrack := sess.TrackAdminStream(sub.revoke)
	sess.Unlock()

	sub.attach(s.orders.Subscribe(sub.deliver))

	stop := func() {
		untrack()
		sub.revoke()
	}
	return subCtx, stop, nil
}

// orderSubscription: отзываемая подписка сессии на ленту заказов.
type orderSubscription struct {
	onUpdate func([]model.Order)
	cancel   context.CancelFunc

	mu          sync.Mutex
	revoked     bool
	unsubscribe func()
}

func (o *orderSubscription) deliver(orders []model.Order) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.revoked {
		return
	}
	o.onUpdate(orders)
}

func (o *orderSubscription) attach(unsubscribe func()) {
	o.mu.Lock()
	if !o.revoked {
		o.unsubscribe = unsubscribe
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()
	unsubscribe()
}

func (o *orderSubscription) revoke() {
	o.mu.Lock()
	o.revoked = true
	unsubscribe := o.unsubscribe
	o.unsubscribe = nil
	o.mu.Unlock()

	o.cancel()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Revenue возвращает выручку по дням недели из текущего снимка заказов.
func (s *Service) Revenue(sess *session.Session) ([]admin.DailyRevenue, error) {
	orders, _, err := s.AdminOrders(sess)
	if err != nil {
		return nil, err
	}
	return admin.Revenue(orders, s.loc), nil
}
