// ReWear exchange API entry point: loads configuration, connects MongoDB
// and Redis, starts the counter dispatcher, and serves HTTP until a
// shutdown signal arrives.
//
// @title        ReWear Exchange API
// @version      1.0
// @description  Peer-to-peer clothing exchange: list garments, swap them, or redeem them with points.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rewear-app/exchange-api/internal/api"
	"github.com/rewear-app/exchange-api/internal/infrastructure/config"
	mongodb "github.com/rewear-app/exchange-api/internal/infrastructure/db/mongo"
	redisdb "github.com/rewear-app/exchange-api/internal/infrastructure/db/redis"
	"github.com/rewear-app/exchange-api/internal/infrastructure/queue"
	"github.com/rewear-app/exchange-api/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- MongoDB ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	userRepo := mongodb.NewUserRepository(db)
	itemRepo := mongodb.NewItemRepository(db)
	tradeRepo := mongodb.NewTradeRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user index creation failed")
	}
	if err := itemRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("item index creation failed")
	}
	if err := tradeRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("trade index creation failed")
	}

	// --- Redis ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	// --- Counter dispatcher ---
	counters := queue.NewDispatcher(cfg.CounterWorkers, itemRepo, log)
	counters.Start(ctx)

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Counters: counters,
		Logger:   log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
