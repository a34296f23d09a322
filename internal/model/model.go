// Package model содержит доменные сущности магазина готовой еды.
package model

import (
	"errors"
	"time"
)

// Category описывает категорию позиции меню.
type Category string

const (
	CategoryPremium Category = "premium"
	CategoryRegular Category = "regular"
	CategoryDiet    Category = "diet"
)

// Valid сообщает, входит ли категория в допустимый набор.
func (c Category) Valid() bool {
	switch c {
	case CategoryPremium, CategoryRegular, CategoryDiet:
		return true
	}
	return false
}

// MenuItem представляет позицию меню.
type MenuItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Image       string    `json:"image"`
	Category    Category  `json:"category"`
	Calories    *int      `json:"calories,omitempty"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CartItem: снимок позиции меню с количеством.
type CartItem struct {
	MenuItem
	Quantity int `json:"quantity"`
}

// Subtotal возвращает стоимость строки корзины.
func (c CartItem) Subtotal() int64 {
	return c.Price * int64(c.Quantity)
}

// DeliverySlot описывает окно доставки.
type DeliverySlot string

const (
	SlotLunch  DeliverySlot = "lunch"
	SlotDinner DeliverySlot = "dinner"
)

// Valid сообщает, является ли окно доставки допустимым.
func (s DeliverySlot) Valid() bool {
	return s == SlotLunch || s == SlotDinner
}

// Order описывает заказ покупателя.
type Order struct {
	ID             string       `json:"id"`
	UserID         string       `json:"userId"`
	UserEmail      string       `json:"userEmail"`
	Items          []CartItem   `json:"items"`
	TotalAmount    int64        `json:"totalAmount"`
	Status         OrderStatus  `json:"status"`
	Address        string       `json:"address"`
	Contact        string       `json:"contact"`
	DeliveryDate   string       `json:"deliveryDate"`
	DeliveryTime   DeliverySlot `json:"deliveryTime"`
	IdempotencyKey string       `json:"-"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// UserProfile описывает аутентифицированного пользователя.
type UserProfile struct {
	ID          string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"photoURL"`
	IsAdmin     bool   `json:"isAdmin"`
}

// Severity описывает тип уведомления.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification: короткое сообщение пользователю.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// Page описывает страницу витрины.
type Page string

const (
	PageHome  Page = "home"
	PageMenu  Page = "menu"
	PageAdmin Page = "admin"
)

// ParsePage разбирает имя страницы.
func ParsePage(s string) (Page, error) {
	switch p := Page(s); p {
	case PageHome, PageMenu, PageAdmin:
		return p, nil
	}
	return "", ErrUnknownPage
}

// ErrUnknownPage возвращается для неизвестного имени страницы.
var ErrUnknownPage = errors.New("unknown page")

// MenuItemPatch: частичное изменение позиции меню; nil-поля не меняются.
type MenuItemPatch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *int64    `json:"price,omitempty"`
	Image       *string   `json:"image,omitempty"`
	Category    *Category `json:"category,omitempty"`
	Calories    *int      `json:"calories,omitempty"`
	Available   *bool     `json:"available,omitempty"`
}

// Empty сообщает, что изменение не затрагивает ни одного поля.
func (p MenuItemPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Image == nil &&
		p.Category == nil && p.Calories == nil && p.Available == nil
}
