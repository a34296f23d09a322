// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/dosirak-shop/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Каналы уведомлений об изменении коллекций.
const (
	ChannelMenus  = "menus_changed"
	ChannelOrders = "orders_changed"
)

var (
	// ErrMenuItemNotFound возвращается, если позиция меню не найдена.
	ErrMenuItemNotFound = errors.New("menu item not found")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
)

const dateLayout = "2006-01-02"

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	cfg.HealthCheckPeriod = 30 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// retryDelays: паузы между повторами записи.
var retryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := retryDelays

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if (isRetryablePgError(err) || isConnectionError(err)) && i < len(delays) {
			timer := time.NewTimer(delays[i])
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			continue
		}

		break
	}
	return err
}

func isRetryablePgError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// ListMenuItems возвращает меню, упорядоченное по категории.
func (r *PostgresRepository) ListMenuItems(ctx context.Context) ([]model.MenuItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, price, image, category, calories, available, created_at
		 FROM menus
		 ORDER BY category, created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("select menus: %w", err)
	}
	defer rows.Close()

	var items []model.MenuItem
	for rows.Next() {
		var (
			it       model.MenuItem
			category string
		)
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.Image,
			&category, &it.Calories, &it.Available, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		it.Category = model.Category(category)
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// InsertMenuItem сохраняет новую позицию меню и возвращает присвоенный идентификатор.
func (r *PostgresRepository) InsertMenuItem(ctx context.Context, item model.MenuItem) (string, error) {
	id := uuid.NewString()
	err := r.withRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO menus (id, name, description, price, image, category, calories, available)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			id, item.Name, item.Description, item.Price, item.Image,
			string(item.Category), item.Calories, item.Available,
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("insert menu item: %w", err)
	}
	return id, nil
}

// UpdateMenuItem изменяет заданные поля позиции меню.
func (r *PostgresRepository) UpdateMenuItem(ctx context.Context, id string, patch model.MenuItemPatch) error {
	var category *string
	if patch.Category != nil {
		c := string(*patch.Category)
		category = &c
	}

	var affected int64
	err := r.withRetry(ctx, func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE menus SET
			   name        = COALESCE($2, name),
			   description = COALESCE($3, description),
			   price       = COALESCE($4, price),
			   image       = COALESCE($5, image),
			   category    = COALESCE($6, category),
			   calories    = COALESCE($7, calories),
			   available   = COALESCE($8, available)
			 WHERE id = $1`,
			id, patch.Name, patch.Description, patch.Price, patch.Image,
			category, patch.Calories, patch.Available,
		)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	if affected == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// DeleteMenuItem удаляет позицию меню.
func (r *PostgresRepository) DeleteMenuItem(ctx context.Context, id string) error {
	return r.deleteMenuItem(ctx, r.pool, id)
}

func (r *PostgresRepository) deleteMenuItem(ctx context.Context, db execer, id string) error {
	var affected int64
	err := r.withRetry(ctx, func() error {
		tag, err := db.Exec(ctx, `DELETE FROM menus WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	if affected == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

// ListOrders возвращает все заказы, новые первыми.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, user_email, items, total_amount, status, address, contact,
		        delivery_date, delivery_time, idempotency_key, created_at
		 FROM orders
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var (
			o            model.Order
			items        []byte
			status       string
			deliveryDate time.Time
			deliveryTime string
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.UserEmail, &items, &o.TotalAmount, &status,
			&o.Address, &o.Contact, &deliveryDate, &deliveryTime, &o.IdempotencyKey, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode order items %s: %w", o.ID, err)
		}
		o.Status = model.OrderStatus(status)
		o.DeliveryDate = deliveryDate.Format(dateLayout)
		o.DeliveryTime = model.DeliverySlot(deliveryTime)
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// CreateOrder сохраняет заказ. Повторный вызов с тем же ключом идемпотентности
// возвращает ранее созданный заказ и признак existed.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o model.Order) (string, bool, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return "", false, fmt.Errorf("encode order items: %w", err)
	}
	deliveryDate, err := time.Parse(dateLayout, o.DeliveryDate)
	if err != nil {
		return "", false, fmt.Errorf("parse delivery date: %w", err)
	}

	var (
		id      string
		existed bool
	)
	err = r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		newID := uuid.NewString()
		tag, err := tx.Exec(ctx,
			`INSERT INTO orders (id, user_id, user_email, items, total_amount, status, address, contact,
			                     delivery_date, delivery_time, idempotency_key)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 ON CONFLICT (idempotency_key) DO NOTHING`,
			newID, o.UserID, o.UserEmail, items, o.TotalAmount, string(o.Status), o.Address, o.Contact,
			deliveryDate, string(o.DeliveryTime), o.IdempotencyKey,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if tag.RowsAffected() == 1 {
			id, existed = newID, false
		} else {
			err = tx.QueryRow(ctx,
				`SELECT id FROM orders WHERE idempotency_key = $1`,
				o.IdempotencyKey,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("select existing order: %w", err)
			}
			existed = true
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}

	return id, existed, nil
}

// UpdateOrderStatus меняет статус заказа согласно политике и возвращает прежний статус.
// Строка заказа блокируется на время проверки перехода.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, policy model.StatusPolicy) (model.OrderStatus, error) {
	var from model.OrderStatus
	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var current string
		err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}
		from = model.OrderStatus(current)

		if err := policy.Allows(from, status); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, string(status)); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return from, nil
}

// UpsertProfile создаёт или обновляет профиль пользователя.
func (r *PostgresRepository) UpsertProfile(ctx context.Context, p model.UserProfile) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO profiles (id, email, display_name, avatar_url, last_seen_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (id) DO UPDATE SET
		   email = EXCLUDED.email,
		   display_name = EXCLUDED.display_name,
		   avatar_url = EXCLUDED.avatar_url,
		   last_seen_at = now()`,
		p.ID, p.Email, p.DisplayName, p.AvatarURL,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// HasRole проверяет наличие роли у пользователя.
func (r *PostgresRepository) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM roles WHERE user_id = $1 AND role = $2)`,
		userID, role,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("select role: %w", err)
	}
	return exists, nil
}

// GrantRole выдаёт роль пользователю.
func (r *PostgresRepository) GrantRole(ctx context.Context, userID, role string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, role,
	)
	if err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}
