package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appevent "github.com/supportdesk/backend/internal/application/event"
	"github.com/supportdesk/backend/internal/application/quoting"
	"github.com/supportdesk/backend/internal/application/resolution"
	appticketing "github.com/supportdesk/backend/internal/application/ticketing"
	"github.com/supportdesk/backend/internal/domain/shared"
	"github.com/supportdesk/backend/internal/infrastructure/cache"
	"github.com/supportdesk/backend/internal/infrastructure/commerce"
	"github.com/supportdesk/backend/internal/infrastructure/config"
	"github.com/supportdesk/backend/internal/infrastructure/event"
	"github.com/supportdesk/backend/internal/infrastructure/logger"
	"github.com/supportdesk/backend/internal/infrastructure/persistence"
	"github.com/supportdesk/backend/internal/infrastructure/telemetry"
	"github.com/supportdesk/backend/internal/interfaces/http/handler"
	"github.com/supportdesk/backend/internal/interfaces/http/router"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log, err := logger.NewForEnvironment(cfg.App.Env)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	resolutionMetrics, err := telemetry.NewResolutionMetrics()
	if err != nil {
		log.Warn("failed to create resolution metrics", zap.Error(err))
		resolutionMetrics = nil
	}

	// Database
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	// Idempotency store: Redis with in-memory fallback outside production
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		return fmt.Errorf("create idempotency store: %w", err)
	}
	defer func() {
		_ = idempotencyStore.Close()
	}()

	// Customer platform adapter
	platformConfig := commerce.NewStorefrontConfig(cfg.Platform.APIBaseURL, cfg.Platform.AccessToken)
	platformConfig.TimeoutSeconds = cfg.Platform.TimeoutSeconds
	platform, err := commerce.NewStorefrontAdapter(platformConfig)
	if err != nil {
		return fmt.Errorf("create storefront adapter: %w", err)
	}

	// Application services
	resolver := resolution.NewResolver(platform, resolution.RetryPolicy{
		MaxAttempts: cfg.Resolution.MaxAttempts,
		BaseBackoff: cfg.Resolution.BaseBackoff,
	}, log, resolutionMetrics)
	importService := resolution.NewImportService(resolver, platform, log)

	outboxRepo := event.NewGormOutboxRepository(db.DB)
	syncService := appevent.NewSyncService(outboxRepo, log, resolutionMetrics)

	ticketStore := persistence.NewGormTicketStore(db.DB)
	ticketService := appticketing.NewTicketService(ticketStore, syncService, log)

	quoteRepo := persistence.NewGormQuoteRepository(db.DB)
	quoteService := quoting.NewQuoteService(quoteRepo, syncService, log)

	// Outbox worker
	workerConfig := event.DefaultOutboxWorkerConfig()
	if cfg.Event.BatchSize > 0 {
		workerConfig.BatchSize = cfg.Event.BatchSize
	}
	if cfg.Event.PollInterval > 0 {
		workerConfig.PollInterval = cfg.Event.PollInterval
	}
	workerConfig.CleanupEnabled = cfg.Event.CleanupEnabled
	if cfg.Event.CleanupRetention > 0 {
		workerConfig.CleanupRetention = cfg.Event.CleanupRetention
	}

	idemConfig := shared.DefaultIdempotencyConfig()
	if cfg.Event.IdempotencyTTL > 0 {
		idemConfig.TTL = cfg.Event.IdempotencyTTL
	}

	worker := event.NewOutboxWorker(outboxRepo, resolver, idempotencyStore, idemConfig, workerConfig, log)
	if cfg.Event.WorkerEnabled {
		if err := worker.Start(ctx); err != nil {
			return fmt.Errorf("start outbox worker: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := worker.Stop(stopCtx); err != nil {
				log.Warn("outbox worker shutdown failed", zap.Error(err))
			}
		}()
	}

	// HTTP server
	engine := router.New(cfg, log, router.Handlers{
		Customer: handler.NewCustomerHandler(resolver, importService, resolutionMetrics),
		Ticket:   handler.NewTicketHandler(ticketService),
		Quote:    handler.NewQuoteHandler(quoteService),
		Outbox:   handler.NewOutboxHandler(syncService),
		System:   handler.NewSystemHandler(db.DB),
	})

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
