package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/identity-service/internal/api/http"
	"github.com/spec-kit/identity-service/internal/api/http/handlers"
	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/config"
	"github.com/spec-kit/identity-service/internal/events"
	"github.com/spec-kit/identity-service/internal/observability"
	"github.com/spec-kit/identity-service/internal/persistence"
	"github.com/spec-kit/identity-service/internal/repository"
	"github.com/spec-kit/identity-service/internal/service"
	"github.com/spec-kit/identity-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	signer, err := auth.LoadSessionSigner(cfg.Auth.PrivateKeyPath, cfg.Auth.Issuer, cfg.Auth.SessionTTL())
	if err != nil {
		logger.Error("session signing disabled: private key unavailable", zap.Error(err))
	}

	pool := pg.PoolHandle()
	identityRepo := repository.NewIdentityRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	txManager := repository.NewTxManager(pool)

	publisher := events.NewStreamPublisher(redis.Client, logger, metrics)

	accountService := service.NewAccountService(cfg.Auth, service.AccountDependencies{
		TxManager:    txManager,
		IdentityRepo: identityRepo,
		Signer:       signer,
		Publisher:    publisher,
		Logger:       logger,
	})

	if cfg.Sweeper.Enabled {
		sweeper := worker.NewSweeper(identityRepo, tokenRepo, logger, metrics, cfg.Sweeper.Hour)
		go sweeper.Run(ctx)
	}

	if cfg.Notification.Enabled {
		consumer := worker.NewEmailConsumer(redis.Client, logger, cfg.Notification, "$")
		go consumer.Run(ctx)
	}

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	authHandler := handlers.NewAuthHandler(accountService)
	passwordHandler := handlers.NewPasswordHandler(accountService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   healthHandler,
		Auth:     authHandler,
		Password: passwordHandler,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
	publisher.Close()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
