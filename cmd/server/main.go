package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	app "github.com/orderdesk/backend/internal/application/orders"
	"github.com/orderdesk/backend/internal/infrastructure/cache"
	"github.com/orderdesk/backend/internal/infrastructure/config"
	"github.com/orderdesk/backend/internal/infrastructure/logger"
	"github.com/orderdesk/backend/internal/infrastructure/persistence"
	"github.com/orderdesk/backend/internal/infrastructure/remote"
	"github.com/orderdesk/backend/internal/infrastructure/telemetry"
	"github.com/orderdesk/backend/internal/interfaces/http/handler"
	"github.com/orderdesk/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting OrderDesk backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if tracerProvider.IsEnabled() {
		if err := db.EnableTracing(); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected")

	// Durable view store
	store, err := cache.NewStoreFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to open view store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing view store", zap.Error(err))
		}
	}()

	// Repositories
	lineItemRepo := persistence.NewGormLineItemRepository(db.DB)
	mappingRepo := persistence.NewGormSkuMappingRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	historyRepo := persistence.NewGormProcessingRecordRepository(db.DB)

	// Remote collaborator client
	remoteClient, err := remote.NewClient(cfg.Remote, log)
	if err != nil {
		log.Fatal("Failed to create remote client", zap.Error(err))
	}

	// Sync engine
	syncMetrics, err := telemetry.NewSyncMetrics(meterProvider.Meter(telemetry.TracerName), log)
	if err != nil {
		log.Fatal("Failed to register sync metrics", zap.Error(err))
	}
	enricher := app.NewEnricher(mappingRepo, productRepo, historyRepo, log)
	poller := app.NewPoller(lineItemRepo, log,
		app.WithPollInterval(cfg.Sync.PollInterval),
		app.WithPollTimeout(cfg.Sync.PollTimeout),
	)
	engine := app.NewOrchestrator(
		store,
		lineItemRepo,
		remoteClient,
		remoteClient,
		remoteClient,
		enricher,
		poller,
		log,
		app.WithObserver(syncMetrics),
	)

	// HTTP
	r := router.New(cfg.App, tracerProvider.IsEnabled(), log)
	r.Register(handler.NewOrdersHandler(engine, log))
	ginEngine := r.Setup(handler.NewHealthHandler(db))

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        ginEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Let in-flight background syncs land their results before the store closes.
	engine.Wait()

	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Meter provider shutdown error", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer provider shutdown error", zap.Error(err))
	}

	log.Info("Shutdown complete")
}
