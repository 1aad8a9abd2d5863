package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/locker-service/internal/api/http"
	"github.com/spec-kit/locker-service/internal/api/http/handlers"
	"github.com/spec-kit/locker-service/internal/auth"
	"github.com/spec-kit/locker-service/internal/config"
	"github.com/spec-kit/locker-service/internal/events"
	"github.com/spec-kit/locker-service/internal/observability"
	"github.com/spec-kit/locker-service/internal/persistence"
	"github.com/spec-kit/locker-service/internal/repository"
	"github.com/spec-kit/locker-service/internal/service"
	"github.com/spec-kit/locker-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer rdb.Close()

	pool := pg.PoolHandle()
	repos := repository.New(pool)
	txManager := repository.NewTxManager(pool)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	revoker := auth.NewRedisRevoker(rdb.Client, rdb.Prefix)

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(logger, rdb.Client, cfg.Notification)
	notifyWorker := worker.StartNotificationWorker(dispatcher, notifications, logger)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:     repos.Users,
		TokenManager: tokens,
		Revoker:      revoker,
		Logger:       logger,
	})
	rentalService := service.NewRentalService(cfg.Rental, service.RentalDependencies{
		Repos:      repos,
		TxManager:  txManager,
		Limiter:    service.NewRedisRateLimiter(rdb.Client, rdb.Prefix),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	inventoryService := service.NewInventoryService(service.InventoryDependencies{
		Repos:      repos,
		TxManager:  txManager,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	dashboardService := service.NewDashboardService(repos, txManager, logger)

	authMiddleware := auth.NewAuthMiddleware(tokens, repos.Users, revoker, cfg.Auth.SessionCookieName, logger)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.App.RequestTimeout(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	var redisPinger handlers.Pinger
	if rdb.Available() {
		redisPinger = rdb
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisPinger, metrics),
		Auth:           handlers.NewAuthHandler(authService, cfg.Auth.SessionCookieName, cfg.App.Env == "production"),
		Lockers:        handlers.NewLockersHandler(inventoryService),
		Rentals:        handlers.NewRentalsHandler(rentalService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		AuthMiddleware: authMiddleware.Handle,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if notifyWorker != nil {
		notifyWorker.Stop()
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
