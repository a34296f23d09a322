package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const relistenDelay = time.Second

// Listen подписывается на канал LISTEN/NOTIFY и сигнализирует о каждом изменении.
// Несколько уведомлений подряд могут слиться в один сигнал. После потери
// соединения подписка восстанавливается, и отправляется внеочередной сигнал,
// чтобы получатель перечитал снимок. Канал закрывается при отмене ctx.
func (r *PostgresRepository) Listen(ctx context.Context, channel string) (<-chan struct{}, error) {
	conn, err := r.listenConn(ctx, channel)
	if err != nil {
		return nil, err
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for {
			waitLoop(ctx, conn, out)
			conn.Close(context.Background())
			if ctx.Err() != nil {
				return
			}

			for {
				timer := time.NewTimer(relistenDelay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
				c, err := r.listenConn(ctx, channel)
				if err == nil {
					conn = c
					break
				}
			}
			signal(out)
		}
	}()

	return out, nil
}

func (r *PostgresRepository) listenConn(ctx context.Context, channel string) (*pgx.Conn, error) {
	pc, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen conn: %w", err)
	}
	conn := pc.Hijack()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		conn.Close(context.Background())
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}
	return conn, nil
}

func waitLoop(ctx context.Context, conn *pgx.Conn, out chan<- struct{}) {
	for {
		if _, err := conn.WaitForNotification(ctx); err != nil {
			return
		}
		signal(out)
	}
}

func signal(out chan<- struct{}) {
	select {
	case out <- struct{}{}:
	default:
	}
}
