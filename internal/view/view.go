// Package view собирает модели страниц витрины: главная, меню, админка.
package view

import (
	"time"

	"github.com/mmeshcher/dosirak-shop/internal/admin"
	"github.com/mmeshcher/dosirak-shop/internal/locale"
	"github.com/mmeshcher/dosirak-shop/internal/model"
)

// FeaturedLimit: сколько позиций показывается на главной.
const FeaturedLimit = 6

// Navigate возвращает страницу, которую покажет роутер. Админка без прав
// администратора заменяется главной.
func Navigate(page model.Page, isAdmin bool) model.Page {
	if page == model.PageAdmin && !isAdmin {
		return model.PageHome
	}
	return page
}

// Chrome: общая часть всех страниц: шапка, корзина, уведомление.
type Chrome struct {
	Page         model.Page          `json:"page"`
	User         *model.UserProfile  `json:"user"`
	CartCount    int                 `json:"cartCount"`
	CartOpen     bool                `json:"cartOpen"`
	Notification *model.Notification `json:"notification,omitempty"`
}

// MenuCard: позиция меню в готовом для отображения виде.
type MenuCard struct {
	model.MenuItem
	PriceLabel    string `json:"priceLabel"`
	CategoryLabel string `json:"categoryLabel"`
}

// Card оформляет позицию меню.
func Card(item model.MenuItem) MenuCard {
	return MenuCard{
		MenuItem:      item,
		PriceLabel:    locale.FormatKRW(item.Price),
		CategoryLabel: locale.CategoryLabel(string(item.Category)),
	}
}

// Home: модель главной страницы.
type Home struct {
	Chrome
	Featured []MenuCard `json:"featured"`
}

// BuildHome выбирает первые доступные позиции каталога.
func BuildHome(chrome Chrome, items []model.MenuItem) Home {
	featured := make([]MenuCard, 0, FeaturedLimit)
	for _, it := range items {
		if !it.Available {
			continue
		}
		featured = append(featured, Card(it))
		if len(featured) == FeaturedLimit {
			break
		}
	}
	return Home{Chrome: chrome, Featured: featured}
}

// Menu: модель страницы меню.
type Menu struct {
	Chrome
	Category   string     `json:"category"`
	Categories []string   `json:"categories"`
	Items      []MenuCard `json:"items"`
}

var categories = []string{
	string(model.CategoryPremium),
	string(model.CategoryRegular),
	string(model.CategoryDiet),
}

// BuildMenu фильтрует каталог по категории; пустая категория означает все.
// Порядок каталога сохраняется.
func BuildMenu(chrome Chrome, items []model.MenuItem, category string) Menu {
	cards := make([]MenuCard, 0, len(items))
	for _, it := range items {
		if category != "" && string(it.Category) != category {
			continue
		}
		cards = append(cards, Card(it))
	}
	return Menu{Chrome: chrome, Category: category, Categories: categories, Items: cards}
}

// OrderRow: заказ в таблице администратора.
type OrderRow struct {
	model.Order
	TotalLabel  string   `json:"totalLabel"`
	StatusLabel string   `json:"statusLabel"`
	SlotLabel   string   `json:"slotLabel"`
	NextStatus  []string `json:"nextStatus"`
}

// RevenueBar: столбец графика выручки.
type RevenueBar struct {
	admin.DailyRevenue
	Label string `json:"label"`
}

// Admin: модель страницы администратора.
type Admin struct {
	Chrome
	Menu         []MenuCard   `json:"menu"`
	Orders       []OrderRow   `json:"orders"`
	OrdersReady  bool         `json:"ordersReady"`
	Revenue      []RevenueBar `json:"revenue"`
	RevenueTotal string       `json:"revenueTotal"`
}

// BuildAdmin собирает страницу администратора из снимков обеих лент.
func BuildAdmin(chrome Chrome, items []model.MenuItem, orders []model.Order, ordersReady bool, policy model.StatusPolicy, loc *time.Location) Admin {
	menu := make([]MenuCard, 0, len(items))
	for _, it := range items {
		menu = append(menu, Card(it))
	}

	rows := make([]OrderRow, 0, len(orders))
	var total int64
	for _, o := range orders {
		total += o.TotalAmount
		rows = append(rows, OrderRow{
			Order:       o,
			TotalLabel:  locale.FormatKRW(o.TotalAmount),
			StatusLabel: locale.StatusLabel(string(o.Status)),
			SlotLabel:   locale.SlotLabel(string(o.DeliveryTime)),
			NextStatus:  nextStatus(o.Status, policy),
		})
	}

	daily := admin.Revenue(orders, loc)
	bars := make([]RevenueBar, 0, len(daily))
	for _, d := range daily {
		bars = append(bars, RevenueBar{DailyRevenue: d, Label: locale.FormatKRW(d.Total)})
	}

	return Admin{
		Chrome:       chrome,
		Menu:         menu,
		Orders:       rows,
		OrdersReady:  ordersReady,
		Revenue:      bars,
		RevenueTotal: locale.FormatKRW(total),
	}
}

var allStatus = []model.OrderStatus{
	model.OrderStatusPending,
	model.OrderStatusPreparing,
	model.OrderStatusDelivering,
	model.OrderStatusCompleted,
	model.OrderStatusCancelled,
}

func nextStatus(from model.OrderStatus, policy model.StatusPolicy) []string {
	res := make([]string, 0, len(allStatus))
	for _, to := range allStatus {
		if to == from {
			continue
		}
		if policy.Allows(from, to) == nil {
			res = append(res, string(to))
		}
	}
	return res
}
