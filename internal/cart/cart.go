// Package cart реализует корзину текущей сессии.
package cart

import "github.com/mmeshcher/dosirak-shop/internal/model"

// Cart хранит не более одной строки на позицию меню. Не потокобезопасна,
// синхронизация лежит на владельце сессии.
type Cart struct {
	items map[string]*model.CartItem
	order []string
}

// New создаёт пустую корзину.
func New() *Cart {
	return &Cart{items: make(map[string]*model.CartItem)}
}

// Add добавляет позицию или увеличивает её количество на единицу.
func (c *Cart) Add(item model.MenuItem) model.CartItem {
	if ci, ok := c.items[item.ID]; ok {
		ci.Quantity++
		return *ci
	}

	ci := &model.CartItem{MenuItem: item, Quantity: 1}
	c.items[item.ID] = ci
	c.order = append(c.order, item.ID)
	return *ci
}

// SetQuantity изменяет количество на delta, но не ниже единицы.
func (c *Cart) SetQuantity(id string, delta int) {
	ci, ok := c.items[id]
	if !ok {
		return
	}
	ci.Quantity = max(1, ci.Quantity+delta)
}

// Remove удаляет позицию из корзины.
func (c *Cart) Remove(id string) {
	if _, ok := c.items[id]; !ok {
		return
	}
	delete(c.items, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear очищает корзину.
func (c *Cart) Clear() {
	c.items = make(map[string]*model.CartItem)
	c.order = nil
}

// Subtract убирает из корзины заказанные строки: количество каждой позиции
// уменьшается на заказанное, опустевшие строки удаляются. Добавленное после
// снимка заказа остаётся в корзине.
func (c *Cart) Subtract(ordered []model.CartItem) {
	for _, o := range ordered {
		ci, ok := c.items[o.ID]
		if !ok {
			continue
		}
		ci.Quantity -= o.Quantity
		if ci.Quantity <= 0 {
			c.Remove(o.ID)
		}
	}
}

// Total возвращает сумму price*quantity по всем строкам.
func (c *Cart) Total() int64 {
	var total int64
	for _, ci := range c.items {
		total += ci.Subtotal()
	}
	return total
}

// Items возвращает копию строк корзины в порядке добавления.
func (c *Cart) Items() []model.CartItem {
	res := make([]model.CartItem, 0, len(c.order))
	for _, id := range c.order {
		res = append(res, *c.items[id])
	}
	return res
}

// Len возвращает количество строк.
func (c *Cart) Len() int {
	return len(c.items)
}

// Count возвращает общее количество единиц товара.
func (c *Cart) Count() int {
	n := 0
	for _, ci := range c.items {
		n += ci.Quantity
	}
	return n
}
