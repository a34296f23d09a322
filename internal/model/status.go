package model

import (
	"errors"
	"fmt"
)

// OrderStatus описывает статус обработки заказа.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPreparing  OrderStatus = "preparing"
	OrderStatusDelivering OrderStatus = "delivering"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ErrInvalidStatus возвращается для статуса вне допустимого набора.
var ErrInvalidStatus = errors.New("invalid order status")

// ErrInvalidTransition возвращается при недопустимой смене статуса.
var ErrInvalidTransition = errors.New("invalid order status transition")

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:    {OrderStatusPreparing: true, OrderStatusCancelled: true},
	OrderStatusPreparing:  {OrderStatusDelivering: true, OrderStatusCancelled: true},
	OrderStatusDelivering: {OrderStatusCompleted: true, OrderStatusCancelled: true},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

// ParseOrderStatus разбирает статус заказа.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if _, ok := validNext[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Terminal сообщает, является ли статус конечным.
func (s OrderStatus) Terminal() bool {
	return len(validNext[s]) == 0
}

// CanTransition проверяет переход по таблице статусов.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// StatusPolicy определяет, как проверяются смены статуса администратором.
type StatusPolicy string

const (
	// StatusPolicyStrict разрешает только переходы из таблицы.
	StatusPolicyStrict StatusPolicy = "strict"
	// StatusPolicyPermissive разрешает любой переход между допустимыми статусами.
	StatusPolicyPermissive StatusPolicy = "permissive"
)

// Allows проверяет переход from -> to согласно политике.
func (p StatusPolicy) Allows(from, to OrderStatus) error {
	if _, ok := validNext[to]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if p == StatusPolicyPermissive {
		return nil
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
