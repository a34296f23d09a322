// Package redisx держит быстрый путь идемпотентности оформления заказа в Redis.
package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KeyIdemOrderCreate: idem:order:create:{token} -> order_id.
	KeyIdemOrderCreate = "idem:order:create:%s"
)

// TTLIdempotency: срок хранения ключа идемпотентности.
var TTLIdempotency = 24 * time.Hour

// New создаёт клиент Redis.
func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// IdempotencyKey возвращает ключ для токена оформления.
func IdempotencyKey(token string) string {
	return fmt.Sprintf(KeyIdemOrderCreate, token)
}

// OrderCache запоминает, какой заказ создан по токену оформления.
// Источник истины остаётся в базе, кеш только отсекает повторы раньше.
type OrderCache interface {
	Lookup(ctx context.Context, token string) (string, bool, error)
	Remember(ctx context.Context, token, orderID string) error
}

// Cache: OrderCache поверх Redis.
type Cache struct {
	rdb redis.Cmdable
}

// NewCache создаёт кеш поверх клиента.
func NewCache(rdb redis.Cmdable) *Cache {
	return &Cache{rdb: rdb}
}

// Lookup возвращает заказ, созданный по токену, если он известен.
func (c *Cache) Lookup(ctx context.Context, token string) (string, bool, error) {
	id, err := c.rdb.Get(ctx, IdempotencyKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// Remember сохраняет заказ для токена на TTLIdempotency.
func (c *Cache) Remember(ctx context.Context, token, orderID string) error {
	return c.rdb.Set(ctx, IdempotencyKey(token), orderID, TTLIdempotency).Err()
}

// Nop: кеш без хранилища, когда Redis не настроен.
type Nop struct{}

func (Nop) Lookup(context.Context, string) (string, bool, error) { return "", false, nil }

func (Nop) Remember(context.Context, string, string) error { return nil }
