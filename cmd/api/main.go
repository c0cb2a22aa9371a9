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

	"github.com/dejobratic/orderdesk/internal/config"
	"github.com/dejobratic/orderdesk/internal/database"
	idemmemory "github.com/dejobratic/orderdesk/internal/idempotency/memory"
	idempostgres "github.com/dejobratic/orderdesk/internal/idempotency/postgres"
	"github.com/dejobratic/orderdesk/internal/kafka"
	"github.com/dejobratic/orderdesk/internal/orders/adapters"
	httpadapter "github.com/dejobratic/orderdesk/internal/orders/adapters/http"
	ordersmemory "github.com/dejobratic/orderdesk/internal/orders/adapters/memory"
	orderspostgres "github.com/dejobratic/orderdesk/internal/orders/adapters/postgres"
	ordersapp "github.com/dejobratic/orderdesk/internal/orders/app"
	ordersmetrics "github.com/dejobratic/orderdesk/internal/orders/metrics"
	"github.com/dejobratic/orderdesk/internal/orders/ports"
	"github.com/dejobratic/orderdesk/internal/query"
	"github.com/dejobratic/orderdesk/internal/telemetry"
	"go.opentelemetry.io/otel/metric"
)

// orderStore is what both storage backends provide.
type orderStore interface {
	ports.OrderRepository
	ports.CatalogLookup
	ports.OrderQueries
}

type instruments struct {
	query    *query.Metrics
	database *database.Metrics
	kafka    *kafka.Metrics
	orders   *ordersmetrics.Metrics
	http     *httpadapter.Metrics
}

func main() {
	if err := run(); err != nil {
		slog.Error("service stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := telemetry.ParseLevel(cfg.Telemetry.LogLevel)
	if err != nil {
		return err
	}
	logger := telemetry.NewLogger(os.Stdout, level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	meters, err := newInstruments(telemetry.Meter(cfg.Service.Name))
	if err != nil {
		return err
	}

	var (
		store     orderStore
		idemStore ports.IdempotencyStore
		ready     httpadapter.Pinger
	)

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		repo := ordersmemory.NewRepository(meters.query, ordersmemory.WithLogger(logger))
		seedCatalog(repo)
		store = repo
		idemStore = idemmemory.NewStore(cfg.Storage.IdempotencyTTL)
		logger.Warn("using in-memory storage; data is lost on restart")
	default:
		pool, err := database.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("create database pool: %w", err)
		}
		defer pool.Close()

		if cfg.Database.AutoMigrate {
			logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
			version, err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath)
			if err != nil {
				return err
			}
			logger.Info("migrations completed", "schema_version", version)
		}

		policy := database.DefaultRetryPolicy()
		policy.MaxRetries = cfg.Database.TxMaxRetries
		policy.MaxDelay = cfg.Database.TxMaxRetryDelay

		store = orderspostgres.NewRepository(pool, meters.query,
			orderspostgres.WithRetryPolicy(policy),
			orderspostgres.WithLogger(logger),
			orderspostgres.WithDatabaseMetrics(meters.database),
		)
		idemStore = idempostgres.NewStore(pool, cfg.Storage.IdempotencyTTL)
		ready = database.HealthCheck{DB: pool}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		logger.Info("kafka brokers configured; order events are logged only", "brokers", cfg.Kafka.Brokers)
	}

	service := ordersapp.NewService(ordersapp.Dependencies{
		Repo:        adapters.NewObservableRepository(store, meters.database),
		Catalog:     store,
		Queries:     store,
		Events:      adapters.NewObservableEventBus(kafka.NewNoopEventBus(logger), meters.kafka),
		Idempotency: idemStore,
		Logger:      logger,
		Metrics:     meters.orders,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           httpadapter.NewRouter(httpadapter.NewHandler(service, logger), logger, meters.http, ready),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}

func newInstruments(meter metric.Meter) (instruments, error) {
	var (
		m   instruments
		err error
	)
	if m.query, err = query.NewMetrics(meter); err != nil {
		return m, fmt.Errorf("query metrics: %w", err)
	}
	if m.database, err = database.NewMetrics(meter); err != nil {
		return m, fmt.Errorf("database metrics: %w", err)
	}
	if m.kafka, err = kafka.NewMetrics(meter); err != nil {
		return m, fmt.Errorf("kafka metrics: %w", err)
	}
	if m.orders, err = ordersmetrics.NewMetrics(meter); err != nil {
		return m, fmt.Errorf("order metrics: %w", err)
	}
	if m.http, err = httpadapter.NewMetrics(meter); err != nil {
		return m, fmt.Errorf("http metrics: %w", err)
	}
	return m, nil
}
