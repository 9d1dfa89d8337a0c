package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/swiftloan/backend/internal/config"
	"github.com/swiftloan/backend/internal/db"
	admindomain "github.com/swiftloan/backend/internal/domain/admin"
	"github.com/swiftloan/backend/internal/domain/application"
	"github.com/swiftloan/backend/internal/feed"
	"github.com/swiftloan/backend/internal/http/handlers"
	"github.com/swiftloan/backend/internal/observability"
	memoryrepo "github.com/swiftloan/backend/internal/repository/memory"
	postgresrepo "github.com/swiftloan/backend/internal/repository/postgres"
	"github.com/swiftloan/backend/internal/server"
	"github.com/swiftloan/backend/internal/tracking"
	"github.com/swiftloan/backend/internal/ws"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env, cfg.LogLevel)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	broker := feed.NewBroker()
	defer broker.Close()

	var (
		repo   application.Repository
		audit  admindomain.AuditRepository
		pinger handlers.Pinger
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		memRepo := memoryrepo.NewApplicationRepository()
		memRepo.OnUpdate(func(app application.Application) {
			_ = broker.Publish(context.Background(), feed.Change{Event: feed.EventUpdate, Table: feed.TableApplications, Record: app})
		})
		repo, audit, pinger = memRepo, memoryrepo.NewAuditRepository(), memRepo
		logger.Warn("using in-memory application store")
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := db.NewPostgresPool(ctx, cfg)
		cancel()
		if err != nil {
			logger.Error("failed to connect postgres", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		pgRepo := postgresrepo.NewApplicationRepository(pool)
		repo, audit, pinger = pgRepo, postgresrepo.NewAdminAuditRepository(pool), pool

		if err := startFeed(sigCtx, cfg, logger, broker, func() *feed.Relay {
			listener := postgresrepo.NewChangeListener(pool, logger)
			return feed.NewRelay(listener, pgRepo, broker, logger, cfg.ListenerRetryInterval)
		}); err != nil {
			logger.Error("failed to start change feed", "err", err)
			os.Exit(1)
		}
	}

	service := application.NewService(repo)
	hub := ws.NewHub()
	wsHandler := ws.NewHandler(tracking.Backend{Applications: service, Feed: broker}, hub, logger, cfg.ReconcileTimeout)

	r := server.NewRouter(cfg, logger, server.Dependencies{
		Pinger:             pinger,
		ApplicationHandler: handlers.NewApplicationHandler(service),
		AdminHandler:       handlers.NewAdminHandler(admindomain.NewService(service, audit, logger)),
		WSHandler:          wsHandler,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api server starting", "addr", cfg.Addr(), "store", cfg.StoreDriver, "redis", cfg.UseRedis())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	<-sigCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	hub.CloseAll()
	_ = httpServer.Shutdown(shutdownCtx)
	logger.Info("api server stopped")
}

// startFeed wires row changes into the local broker. With redis configured the
// notifier process owns the database listener and this instance consumes the
// bus; otherwise the relay runs in process.
func startFeed(ctx context.Context, cfg config.Config, logger *slog.Logger, broker *feed.Broker, newRelay func() *feed.Relay) error {
	if cfg.UseRedis() {
		rdb, err := db.NewRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		bus := feed.NewRedisBus(rdb, cfg.RedisChannel, logger)
		go func() {
			<-ctx.Done()
			_ = bus.Close()
		}()
		return bus.StartForwarder(ctx, func(change feed.Change) {
			_ = broker.Publish(ctx, change)
		})
	}

	relay := newRelay()
	go func() {
		if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("change relay stopped", "err", err)
		}
	}()
	return nil
}
