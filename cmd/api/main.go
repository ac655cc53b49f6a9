// @title                       Seller Panel Account Service
// @version                     1.0
// @description                 Account lifecycle and authentication for the seller/admin panel.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sellerpanel/account-service/internal/api"
	"github.com/sellerpanel/account-service/internal/api/handler"
	"github.com/sellerpanel/account-service/internal/core/ports"
	"github.com/sellerpanel/account-service/internal/core/service"
	mongostore "github.com/sellerpanel/account-service/internal/infrastructure/db/mongo"
	"github.com/sellerpanel/account-service/internal/infrastructure/db/postgres"
	redisstore "github.com/sellerpanel/account-service/internal/infrastructure/db/redis"
	"github.com/sellerpanel/account-service/internal/infrastructure/queue"
	"github.com/sellerpanel/account-service/internal/infrastructure/security"
	"github.com/sellerpanel/account-service/internal/pkg/config"
	"github.com/sellerpanel/account-service/pkg/logger"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "account-service",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("service stopped")
	}
	log.Info().Msg("service stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	tokens, err := security.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		return err
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	checks := map[string]handler.Check{"redis": redisstore.Pinger(rdb)}

	var (
		accounts ports.AccountRepository
		events   ports.EventRepository
	)
	switch cfg.StoreBackend {
	case config.StorePostgres:
		pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		accounts = postgres.NewAccountRepository(pool)
		events = postgres.NewEventRepository(pool)
		checks["postgres"] = pool.Ping
	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		repo := mongostore.NewAccountRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		accounts = repo
		events = mongostore.NewEventRepository(db)
		checks["mongodb"] = mongostore.Pinger(db)
	}
	log.Info().Str("backend", cfg.StoreBackend).Msg("account store ready")

	// Workers outlive the signal context so buffered events drain after the
	// server stops accepting requests.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	dispatcher := queue.NewDispatcher(cfg.EventWorkers, service.NewEventService(events, logger.Component("events")), logger.Component("dispatcher"))
	dispatcher.Start(workerCtx)

	accountService := service.NewAccountService(
		accounts,
		security.NewBcryptHasher(security.DefaultCost, cfg.HashConcurrency),
		tokens,
		redisstore.NewTokenRevoker(rdb),
		dispatcher,
		logger.Component("accounts"),
	)

	e := api.NewRouter(api.Dependencies{
		Accounts:     accountService,
		Tokens:       tokens,
		Revoker:      redisstore.NewTokenRevoker(rdb),
		Checks:       checks,
		Logger:       logger.Component("http"),
		CookieSecure: cfg.CookieSecure,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	stopWorkers()
	dispatcher.Wait()
	return nil
}
