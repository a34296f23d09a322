// Package service реализует бизнес-логику витрины готовой еды.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/dosirak-shop/internal/admin"
	"github.com/mmeshcher/dosirak-shop/internal/events"
	"github.com/mmeshcher/dosirak-shop/internal/identity"
	"github.com/mmeshcher/dosirak-shop/internal/model"
	"github.com/mmeshcher/dosirak-shop/internal/redisx"
	"github.com/mmeshcher/dosirak-shop/internal/session"
)

var (
	// ErrSignInRequired возвращается, если действие требует входа.
	ErrSignInRequired = errors.New("sign in required")
	// ErrForbidden возвращается, если действие доступно только администратору.
	ErrForbidden = errors.New("administrator only")
	// ErrEmptyCart возвращается при оформлении пустой корзины.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrUnavailable возвращается при добавлении недоступной позиции.
	ErrUnavailable = errors.New("menu item is unavailable")
	// ErrCatalogNotReady возвращается, пока каталог не загружен.
	ErrCatalogNotReady = errors.New("catalog is not loaded yet")
)

// Catalog: лента меню.
type Catalog interface {
	Snapshot() ([]model.MenuItem, bool)
	Subscribe(onUpdate func([]model.MenuItem)) (unsubscribe func())
}

// OrderFeed: лента заказов, активная только пока её держит администратор.
type OrderFeed interface {
	Acquire() error
	Release()
	Snapshot() ([]model.Order, bool)
	Subscribe(onUpdate func([]model.Order)) (unsubscribe func())
}

// Authenticator выполняет вход через провайдера.
type Authenticator interface {
	SignIn(ctx context.Context, key string, in identity.SignInRequest) (model.UserProfile, error)
}

// OrderStore сохраняет заказы.
type OrderStore interface {
	CreateOrder(ctx context.Context, o model.Order) (string, bool, error)
}

// Deps: зависимости сервиса.
type Deps struct {
	Catalog  Catalog
	Orders   OrderFeed
	Auth     Authenticator
	Store    OrderStore
	Console  *admin.Console
	Cache    redisx.OrderCache
	Events   events.Publisher
	Policy   model.StatusPolicy
	Location *time.Location
	Logger   *zap.Logger
	Now      func() time.Time
}

// Service содержит бизнес-логику витрины.
type Service struct {
	catalog Catalog
	orders  OrderFeed
	auth    Authenticator
	store   OrderStore
	console *admin.Console
	cache   redisx.OrderCache
	events  events.Publisher
	policy  model.StatusPolicy
	loc     *time.Location
	logger  *zap.Logger
	now     func() time.Time
}

// NewService создаёт сервис. Незаданные кеш и издатель событий заменяются пустыми.
func NewService(d Deps) *Service {
	s := &Service{
		catalog: d.Catalog,
		orders:  d.Orders,
		auth:    d.Auth,
		store:   d.Store,
		console: d.Console,
		cache:   d.Cache,
		events:  d.Events,
		policy:  d.Policy,
		loc:     d.Location,
		logger:  d.Logger,
		now:     d.Now,
	}
	if s.cache == nil {
		s.cache = redisx.Nop{}
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.policy == "" {
		s.policy = model.StatusPolicyStrict
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SignIn выполняет вход и обновляет сессию. Ставший администратором
// получает ленту заказов, потерявший права её отпускает.
func (s *Service) SignIn(ctx context.Context, sess *session.Session, in identity.SignInRequest) (model.UserProfile, error) {
	profile, err := s.auth.SignIn(ctx, sess.ID, in)
	if err != nil {
		sess.Lock()
		sess.Notifications.Error(identity.UserMessage(err))
		sess.Unlock()
		s.logger.Warn("sign in failed", zap.String("session", sess.ID), zap.Error(err))
		return model.UserProfile{}, err
	}

	sess.LockOrderFeed()
	defer sess.UnlockOrderFeed()

	sess.Lock()
	changed := sess.User != nil && sess.User.ID != profile.ID
	if changed {
		// смена личности: корзина прежнего пользователя не переносится
		sess.Reset()
	}
	var revoke []func()
	if changed || !profile.IsAdmin {
		revoke = sess.TakeAdminStreams()
	}
	u := profile
	sess.User = &u
	acquire := profile.IsAdmin && !sess.OrderFeedHeld
	release := !profile.IsAdmin && sess.OrderFeedHeld
	sess.OrderFeedHeld = profile.IsAdmin
	if !profile.IsAdmin && sess.Page == model.PageAdmin {
		sess.Page = model.PageHome
	}
	sess.Notifications.Success("로그인되었습니다.")
	sess.Unlock()

	for _, fn := range revoke {
		fn()
	}
	if release {
		s.orders.Release()
	}
	if acquire {
		if err := s.orders.Acquire(); err != nil {
			s.logger.Error("failed to start order feed", zap.Error(err))
			sess.Lock()
			sess.OrderFeedHeld = false
			sess.Notifications.Error("주문 목록을 불러오지 못했습니다.")
			sess.Unlock()
		}
	}
	return profile, nil
}

// SignOut завершает сеанс: корзина очищается, страница возвращается на главную.
func (s *Service) SignOut(sess *session.Session) {
	s.endSession(sess)

	sess.Lock()
	sess.Notifications.Success("로그아웃되었습니다.")
	sess.Unlock()
}

// Expire освобождает ресурсы истёкшей сессии.
func (s *Service) Expire(sess *session.Session) {
	s.endSession(sess)
}

func (s *Service) endSession(sess *session.Session) {
	sess.LockOrderFeed()
	defer sess.UnlockOrderFeed()

	sess.Lock()
	held := sess.OrderFeedHeld
	sess.OrderFeedHeld = false
	revoke := sess.TakeAdminStreams()
	sess.Reset()
	sess.Unlock()

	for _, fn := range revoke {
		fn()
	}
	if held {
		s.orders.Release()
	}
}

// CurrentUser возвращает пользователя сессии или nil.
func (s *Service) CurrentUser(sess *session.Session) *model.UserProfile {
	sess.Lock()
	defer sess.Unlock()
	if sess.User == nil {
		return nil
	}
	u := *sess.User
	return &u
}

// Notifications возвращает ожидающие уведомления, первым идёт показываемое.
func (s *Service) Notifications(sess *session.Session) []model.Notification {
	sess.Lock()
	defer sess.Unlock()
	return sess.Notifications.Pending()
}

// DismissNotification убирает уведомление.
func (s *Service) DismissNotification(sess *session.Session, id string) bool {
	sess.Lock()
	defer sess.Unlock()
	return sess.Notifications.Dismiss(id)
}

// Menus возвращает текущий снимок каталога.
func (s *Service) Menus() ([]model.MenuItem, bool) {
	return s.catalog.Snapshot()
}

// SubscribeMenus подписывает на снимки каталога.
func (s *Service) SubscribeMenus(onUpdate func([]model.MenuItem)) (unsubscribe func()) {
	return s.catalog.Subscribe(onUpdate)
}
