// Package feed реализует живые ленты коллекций хранилища: каждая лента
// доставляет подписчикам полный снимок коллекции после каждого изменения.
package feed

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrAlreadyStarted возвращается при повторном запуске ленты.
var ErrAlreadyStarted = errors.New("feed already started")

// Loader загружает полный снимок коллекции.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Notifier сообщает об изменениях в канале хранилища.
type Notifier interface {
	Listen(ctx context.Context, channel string) (<-chan struct{}, error)
}

// Feed: подписка на коллекцию с кешированным снимком.
type Feed[T any] struct {
	name     string
	channel  string
	load     Loader[T]
	notifier Notifier
	logger   *zap.Logger

	mu       sync.Mutex
	subs     map[int]func([]T)
	nextID   int
	snapshot []T
	ready    bool
	cancel   context.CancelFunc
	done     chan struct{}

	// deliverMu сохраняет порядок снимков для каждого подписчика.
	deliverMu sync.Mutex
}

// New создаёт ленту. channel: имя канала уведомлений хранилища.
func New[T any](name, channel string, load Loader[T], notifier Notifier, logger *zap.Logger) *Feed[T] {
	return &Feed[T]{
		name:     name,
		channel:  channel,
		load:     load,
		notifier: notifier,
		logger:   logger.With(zap.String("feed", name)),
		subs:     make(map[int]func([]T)),
	}
}

// Start подписывается на изменения, загружает первый снимок и запускает цикл доставки.
func (f *Feed[T]) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.cancel != nil {
		f.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})
	done := f.done
	f.mu.Unlock()

	// Подписка раньше загрузки, чтобы не пропустить изменение между ними.
	changes, err := f.notifier.Listen(ctx, f.channel)
	if err != nil {
		f.abort(cancel, done)
		return err
	}

	items, err := f.load(ctx)
	if err != nil {
		f.abort(cancel, done)
		return err
	}
	f.publish(items)

	go f.run(ctx, changes, done)

	f.logger.Info("feed started", zap.Int("items", len(items)))
	return nil
}

func (f *Feed[T]) abort(cancel context.CancelFunc, done chan struct{}) {
	cancel()
	close(done)
	f.mu.Lock()
	f.cancel = nil
	f.mu.Unlock()
}

func (f *Feed[T]) run(ctx context.Context, changes <-chan struct{}, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			items, err := f.load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				f.logger.Error("reload snapshot", zap.Error(err))
				continue
			}
			f.publish(items)
		}
	}
}

// Stop отменяет подписку на хранилище и отключает всех подписчиков.
func (f *Feed[T]) Stop() {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel = nil
	f.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	f.mu.Lock()
	f.snapshot = nil
	f.ready = false
	f.subs = make(map[int]func([]T))
	f.mu.Unlock()

	f.logger.Info("feed stopped")
}

// Subscribe регистрирует получателя снимков. Если снимок уже загружен,
// получатель сразу получает его. Снимки нельзя изменять.
func (f *Feed[T]) Subscribe(onUpdate func([]T)) (unsubscribe func()) {
	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = onUpdate
	snapshot, ready := f.snapshot, f.ready
	f.mu.Unlock()

	if ready {
		onUpdate(snapshot)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Snapshot возвращает последний снимок и признак того, что он загружен.
func (f *Feed[T]) Snapshot() ([]T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot, f.ready
}

// Running сообщает, запущена ли лента.
func (f *Feed[T]) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancel != nil
}

func (f *Feed[T]) publish(items []T) {
	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()

	f.mu.Lock()
	f.snapshot = items
	f.ready = true
	subs := make([]func([]T), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn(items)
	}
}
