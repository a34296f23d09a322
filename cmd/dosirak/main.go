// Package main запускает HTTP-сервер витрины готовой еды.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/dosirak-shop/internal/admin"
	"github.com/mmeshcher/dosirak-shop/internal/config"
	"github.com/mmeshcher/dosirak-shop/internal/events"
	"github.com/mmeshcher/dosirak-shop/internal/feed"
	"github.com/mmeshcher/dosirak-shop/internal/handler"
	"github.com/mmeshcher/dosirak-shop/internal/identity"
	"github.com/mmeshcher/dosirak-shop/internal/middleware"
	"github.com/mmeshcher/dosirak-shop/internal/model"
	"github.com/mmeshcher/dosirak-shop/internal/redisx"
	"github.com/mmeshcher/dosirak-shop/internal/repository"
	"github.com/mmeshcher/dosirak-shop/internal/service"
	"github.com/mmeshcher/dosirak-shop/internal/session"
)

const eventBuffer = 256

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}
	loc := cfg.Location()

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	catalog := feed.New[model.MenuItem]("menus", repository.ChannelMenus, repo.ListMenuItems, repo, logger)
	if err := catalog.Start(ctx); err != nil {
		sugar.Fatalw("catalog feed error", "error", err.Error())
	}
	defer catalog.Stop()

	orderFeed := feed.New[model.Order]("orders", repository.ChannelOrders, repo.ListOrders, repo, logger)
	orders := feed.NewGate(ctx, orderFeed)
	defer orderFeed.Stop()

	var provider identity.Provider
	if cfg.IdentityProviderURL != "" {
		provider = identity.NewClient(cfg.IdentityProviderURL)
	} else {
		sugar.Warn("identity provider is not configured, sign-in is disabled")
	}

	var adminPolicy identity.AdminPolicy = identity.EmailPolicy{Email: cfg.AdminEmail}
	if cfg.AdminPolicy == config.AdminPolicyRole {
		adminPolicy = identity.RolePolicy{Roles: repo, BootstrapEmail: cfg.AdminEmail}
	}

	auth := identity.NewAdapter(
		provider,
		identity.NewVerifier(cfg.IdentityTokenSecret, cfg.IdentityIssuer),
		repo,
		adminPolicy,
		logger,
	)

	var cache redisx.OrderCache = redisx.Nop{}
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			sugar.Warnw("redis is unavailable, idempotency falls back to database", "error", err.Error())
		}
		cache = redisx.NewCache(rdb)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(events.NewWriter(cfg.KafkaBrokers), eventBuffer, logger)
		publisher = producer
		g.Go(func() error {
			producer.Run(ctx)
			return nil
		})
	}

	svc := service.NewService(service.Deps{
		Catalog:  catalog,
		Orders:   orders,
		Auth:     auth,
		Store:    repo,
		Console:  admin.NewConsole(repo, repo, cfg.Policy(), logger),
		Cache:    cache,
		Events:   publisher,
		Policy:   cfg.Policy(),
		Location: loc,
		Logger:   logger,
	})

	sessions := session.NewManager(cfg.SessionTTL, loc, logger)
	sessions.OnExpire(svc.Expire)

	sessionMiddleware := middleware.NewSessionMiddleware(cfg.SessionSecret, sessions, logger)
	h := handler.NewHandler(svc, logger, sessionMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
		// потоки SSE завершаются вместе с процессом
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// Удаление простаивающих сессий
	g.Go(func() error {
		sessions.Run(ctx)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting dosirak server", "addr", cfg.RunAddress, "timezone", loc.String())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
