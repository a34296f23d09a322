// Package admin реализует консоль администратора: меню, статусы заказов, выручку.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/dosirak-shop/internal/model"
	"github.com/mmeshcher/dosirak-shop/internal/validation"
)

// ErrUnknownConfirmation возвращается для неизвестного или уже использованного токена подтверждения.
var ErrUnknownConfirmation = errors.New("unknown delete confirmation")

// ErrInvalidCategory возвращается для категории вне допустимого набора.
var ErrInvalidCategory = errors.New("invalid menu category")

// ErrEmptyPatch возвращается, если изменение не затрагивает ни одного поля.
var ErrEmptyPatch = errors.New("nothing to update")

const placeholderImage = "https://placehold.co/400x300?text="

// MenuStore: запись в коллекцию меню.
type MenuStore interface {
	InsertMenuItem(ctx context.Context, item model.MenuItem) (string, error)
	UpdateMenuItem(ctx context.Context, id string, patch model.MenuItemPatch) error
	DeleteMenuItem(ctx context.Context, id string) error
}

// OrderStore: запись статуса заказа.
type OrderStore interface {
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, policy model.StatusPolicy) (model.OrderStatus, error)
}

// MenuForm: поля формы добавления позиции меню в том виде, как их ввёл администратор.
type MenuForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	Calories    string `json:"calories"`
	Available   *bool  `json:"available"`
}

// Console выполняет действия администратора над хранилищем. Локальное
// состояние не меняется: обновлённые списки приходят только через ленты.
type Console struct {
	menus  MenuStore
	orders OrderStore
	policy model.StatusPolicy
	logger *zap.Logger
}

// NewConsole создаёт консоль администратора.
func NewConsole(menus MenuStore, orders OrderStore, policy model.StatusPolicy, logger *zap.Logger) *Console {
	if policy == "" {
		policy = model.StatusPolicyStrict
	}
	return &Console{menus: menus, orders: orders, policy: policy, logger: logger}
}

// BuildMenuItem проверяет форму и собирает позицию меню.
func BuildMenuItem(f MenuForm) (model.MenuItem, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return model.MenuItem{}, fmt.Errorf("%w: name", validation.ErrRequired)
	}

	price, err := validation.ParsePrice(f.Price)
	if err != nil {
		return model.MenuItem{}, err
	}

	category := model.CategoryRegular
	if f.Category != "" {
		category = model.Category(f.Category)
		if !category.Valid() {
			return model.MenuItem{}, fmt.Errorf("%w: %q", ErrInvalidCategory, f.Category)
		}
	}

	var calories *int
	if c := strings.TrimSpace(f.Calories); c != "" {
		v, err := strconv.Atoi(c)
		if err != nil || v < 0 {
			return model.MenuItem{}, fmt.Errorf("invalid calories %q", f.Calories)
		}
		calories = &v
	}

	image := strings.TrimSpace(f.Image)
	if image == "" {
		image = placeholderImage + url.QueryEscape(name)
	}

	available := true
	if f.Available != nil {
		available = *f.Available
	}

	return model.MenuItem{
		Name:        name,
		Description: strings.TrimSpace(f.Description),
		Price:       price,
		Image:       image,
		Category:    category,
		Calories:    calories,
		Available:   available,
	}, nil
}

// AddMenuItem проверяет форму и сохраняет новую позицию меню.
func (c *Console) AddMenuItem(ctx context.Context, f MenuForm) (string, error) {
	item, err := BuildMenuItem(f)
	if err != nil {
		return "", err
	}

	id, err := c.menus.InsertMenuItem(ctx, item)
	if err != nil {
		return "", err
	}

	c.logger.Info("menu item added", zap.String("id", id), zap.String("name", item.Name))
	return id, nil
}

// UpdateMenuItem изменяет поля позиции меню.
func (c *Console) UpdateMenuItem(ctx context.Context, id string, patch model.MenuItemPatch) error {
	if patch.Empty() {
		return ErrEmptyPatch
	}
	if patch.Name != nil && validation.Blank(*patch.Name) {
		return fmt.Errorf("%w: name", validation.ErrRequired)
	}
	if patch.Price != nil && *patch.Price <= 0 {
		return fmt.Errorf("%w: %d", validation.ErrInvalidPrice, *patch.Price)
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, *patch.Category)
	}

	if err := c.menus.UpdateMenuItem(ctx, id, patch); err != nil {
		return err
	}

	c.logger.Info("menu item updated", zap.String("id", id))
	return nil
}

// RequestDelete регистрирует намерение удалить позицию и возвращает токен подтверждения.
// pending принадлежит сессии администратора.
func (c *Console) RequestDelete(pending map[string]string, id string) string {
	token := uuid.NewString()
	pending[token] = id
	return token
}

// ResolveDelete расходует токен подтверждения. Возвращает позицию меню и
// признак того, что администратор подтвердил удаление.
func (c *Console) ResolveDelete(pending map[string]string, token string, accept bool) (string, bool, error) {
	id, ok := pending[token]
	if !ok {
		return "", false, ErrUnknownConfirmation
	}
	delete(pending, token)
	return id, accept, nil
}

// DeleteMenuItem безвозвратно удаляет позицию меню.
func (c *Console) DeleteMenuItem(ctx context.Context, id string) error {
	if err := c.menus.DeleteMenuItem(ctx, id); err != nil {
		return err
	}

	c.logger.Info("menu item deleted", zap.String("id", id))
	return nil
}

// UpdateOrderStatus меняет статус заказа и возвращает прежний.
func (c *Console) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (model.OrderStatus, error) {
	from, err := c.orders.UpdateOrderStatus(ctx, id, status, c.policy)
	if err != nil {
		return "", err
	}

	c.logger.Info("order status updated",
		zap.String("id", id),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
	)
	return from, nil
}
