package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/shift-scheduler/internal/api/http"
	"github.com/spec-kit/shift-scheduler/internal/api/http/handlers"
	"github.com/spec-kit/shift-scheduler/internal/auth"
	"github.com/spec-kit/shift-scheduler/internal/config"
	"github.com/spec-kit/shift-scheduler/internal/docstore"
	"github.com/spec-kit/shift-scheduler/internal/events"
	"github.com/spec-kit/shift-scheduler/internal/identity"
	"github.com/spec-kit/shift-scheduler/internal/observability"
	"github.com/spec-kit/shift-scheduler/internal/persistence"
	"github.com/spec-kit/shift-scheduler/internal/repository"
	"github.com/spec-kit/shift-scheduler/internal/service"
	"github.com/spec-kit/shift-scheduler/internal/worker"
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

	if cfg.Postgres.RunMigrations && pg.Configured() {
		if err := persistence.RunMigrations(ctx, pg.Pool, persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var store docstore.Store
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		store = docstore.NewPostgresStore(pg.Pool)
	default:
		store = docstore.NewMemoryStore()
	}

	var locks repository.NameLocker
	if redis.Configured() {
		locks = repository.NewRedisNameLocker(redis.Client, cfg.Redis.LockTTL())
	} else {
		locks = repository.NewMemoryNameLocker()
	}

	provider := newIdentityProvider(cfg.Identity)
	profileRepo := repository.NewProfileRepository(store)
	departmentRepo := repository.NewDepartmentRepository(store, locks)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))

	known := service.DefaultKnownDepartments()
	accountService := service.NewAccountService(service.AccountDependencies{
		Provider:         provider,
		ProfileRepo:      profileRepo,
		DepartmentRepo:   departmentRepo,
		Dispatcher:       dispatcher,
		Logger:           logger,
		KnownDepartments: known,
	})
	departmentService := service.NewDepartmentService(departmentRepo, dispatcher, logger)
	if _, err := departmentService.SeedPredefined(ctx, known); err != nil {
		logger.Fatal("failed to seed departments", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	readiness := map[string]handlers.Pinger{}
	if pg.Configured() {
		readiness["postgres"] = pg
	}
	if redis.Configured() {
		readiness["redis"] = redis
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness),
		Accounts:       handlers.NewAccountsHandler(accountService),
		Departments:    handlers.NewDepartmentsHandler(departmentService),
		AuthMiddleware: auth.NewAuthMiddleware(provider, profileRepo),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func newIdentityProvider(cfg config.IdentityConfig) identity.Provider {
	switch cfg.Provider {
	case config.IdentityProviderToolkit:
		return identity.NewToolkitProvider(cfg.BaseURL, cfg.APIKey, nil, cfg.Timeout())
	default:
		return identity.NewMemoryProvider(identity.MemoryProviderOptions{
			Tokens:            identity.NewTokenManager(cfg.TokenSecret, cfg.TokenTTLMinutes),
			BcryptCost:        cfg.BcryptCost,
			MinPasswordLength: cfg.MinPasswordLength,
		})
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
