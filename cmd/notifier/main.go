package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/swiftloan/backend/internal/config"
	"github.com/swiftloan/backend/internal/db"
	"github.com/swiftloan/backend/internal/feed"
	"github.com/swiftloan/backend/internal/observability"
	postgresrepo "github.com/swiftloan/backend/internal/repository/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env, cfg.LogLevel)

	if !cfg.UseRedis() {
		logger.Error("notifier requires REDIS_ADDR")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect redis", "err", err)
		os.Exit(1)
	}
	bus := feed.NewRedisBus(rdb, cfg.RedisChannel, logger)
	defer bus.Close()

	relay := feed.NewRelay(
		postgresrepo.NewChangeListener(pool, logger),
		postgresrepo.NewApplicationRepository(pool),
		bus,
		logger,
		cfg.ListenerRetryInterval,
	)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("notifier started", "notify_channel", postgresrepo.NotifyChannel, "redis_channel", cfg.RedisChannel)
	if err := relay.Run(sigCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("notifier failed", "err", err)
		os.Exit(1)
	}
	logger.Info("notifier stopped")
}
