package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"searchsync/internal/cache"
	"searchsync/internal/config"
	"searchsync/internal/content"
	"searchsync/internal/events"
	"searchsync/internal/index"
	"searchsync/internal/notify"
	"searchsync/internal/payments"
	"searchsync/internal/server"
	syncer "searchsync/internal/sync"
	"searchsync/internal/telemetry"
)

func main() {
	baseHandler := slog.NewJSONHandler(os.Stdout, nil)
	logger := slog.New(telemetry.NewTraceHandler(baseHandler))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		slog.Error("Worker terminated with error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	logger.Info("Starting search sync worker", "env", cfg.Env)

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := telemetry.InitTracer("search-sync-worker", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("Tracing disabled, collector unreachable", "error", err)
		} else {
			defer shutdownTracer(context.Background())
		}
	}

	// Database (the CMS content tables, read-only from here).
	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping db: %w", err)
	}

	// Event bus.
	bus, err := events.NewNATSBus(cfg.NatsURL, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to nats: %w", err)
	}

	// Response cache. Missing Redis degrades the search proxy to
	// uncached, it does not stop the worker.
	var rdb *cache.RedisClient
	if cfg.Redis.Addr != "" {
		rdb, err = cache.NewRedisClient(cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn("Redis unavailable, search responses will not be cached", "error", err)
			rdb = nil
		}
	}

	// Search index client and sync services.
	indexer := index.NewTypesenseIndexer(index.TypesenseConfig{
		URL:         cfg.Typesense.URL,
		APIKey:      cfg.Typesense.APIKey,
		Collection:  cfg.Typesense.Collection,
		ConnTimeout: cfg.Typesense.ConnTimeout,
	})

	repo := content.NewPostgresRepository(dbPool)
	normalizer := syncer.NewNormalizer(logger)
	svc := syncer.NewService(indexer, repo, normalizer, logger, syncer.Options{
		BatchSize:  cfg.Sync.BatchSize,
		BatchPause: cfg.Sync.BatchPause,
	})

	orchestrator := syncer.NewOrchestrator(indexer, repo, svc, logger,
		cfg.Sync.StartupDelay, cfg.Sync.ResyncThreshold)
	go orchestrator.Start(ctx)

	scheduler := cron.New()
	if err := orchestrator.ArmDailyResync(scheduler, cfg.Sync.CronSpec); err != nil {
		return fmt.Errorf("failed to arm daily resync: %w", err)
	}
	scheduler.Start()

	// Publish notifications (optional, needs SMTP config).
	var listener events.PublishListener
	if cfg.SMTP.Host != "" && len(cfg.SMTP.PublishRecipients) > 0 {
		mailer := notify.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port,
			cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
		listener = notify.NewNotifier(mailer, cfg.SMTP.PublishRecipients, logger)
	}

	// Incremental sync: one subscription per tracked content model.
	hooks := events.NewHooks(svc, listener, logger)
	reader := events.NewEventReader(bus, events.NewEventConfig(), logger)
	for _, entity := range content.TrackedEntities {
		if err := reader.SubscribeContentEvents(string(entity), hooks.Handle); err != nil {
			return fmt.Errorf("failed to subscribe to %s events: %w", entity, err)
		}
	}

	logger.Info("Worker is running and listening for events")

	// HTTP surface: health, search proxy, payment orders.
	paymentsHandler := payments.NewHandler(payments.NewService(
		payments.NewRazorpayCreator(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret), logger))
	searchHandler := server.NewSearchHandler(indexer, rdb, logger)
	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: server.New(logger, dbPool, searchHandler, paymentsHandler,
			orchestrator, cfg.CORSAllowedOrigins).Mount(),
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.Info("Shutting down worker", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	// Stop the cron scheduler and wait for a running resync to finish.
	<-scheduler.Stop().Done()

	// Drain NATS so in-flight events finish indexing.
	if err := bus.Close(); err != nil {
		logger.Error("NATS drain error", "error", err)
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("Redis close error", "error", err)
		}
	}

	dbPool.Close()

	logger.Info("Shutdown complete")
	return nil
}
