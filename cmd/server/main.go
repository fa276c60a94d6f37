package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/karkyon/dump-tracker-system-sub000/internal"
	"github.com/karkyon/dump-tracker-system-sub000/internal/email"
	"github.com/karkyon/dump-tracker-system-sub000/internal/event"
	"github.com/karkyon/dump-tracker-system-sub000/internal/handler"
	"github.com/karkyon/dump-tracker-system-sub000/internal/metrics"
	"github.com/karkyon/dump-tracker-system-sub000/internal/middleware"
	"github.com/karkyon/dump-tracker-system-sub000/internal/repository"
	"github.com/karkyon/dump-tracker-system-sub000/internal/repository/memory"
	"github.com/karkyon/dump-tracker-system-sub000/internal/service"
	"github.com/karkyon/dump-tracker-system-sub000/internal/subscriber"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// store is everything the server needs from persistence. Both the
// PostgreSQL repository and the in-memory store satisfy it.
type store interface {
	service.InspectionStore
	service.VehicleLookup
	service.UserLookup
	subscriber.VehicleUpdater
	subscriber.AlertRecorder
	subscriber.EventStore
	handler.FleetStore
	handler.EventLister
}

var (
	_ store = (*repository.Store)(nil)
	_ store = (*memory.Store)(nil)
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize persistence
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// ==========================================================================
	// Event bus and subscribers
	// ==========================================================================

	escalators, err := buildEscalators(cfg, logger)
	if err != nil {
		return fmt.Errorf("escalator initialization failed: %w", err)
	}

	// Registration order is dispatch order: the vehicle status must be
	// written before the alert reads it back, and the journal runs last.
	bus := event.New(logger)
	subscriber.NewVehicleStatusSynchronizer(st, logger).Register(bus)
	subscriber.NewMaintenanceNotifier(st, st, logger, escalators...).Register(bus)
	subscriber.NewEventJournal(st, logger).Register(bus)

	// Initialize services
	inspectionService := service.NewInspectionService(st, st, st, bus, logger)
	statisticsService := service.NewStatisticsService(st, st, st, logger,
		service.WithTrendDays(cfg.StatsTrendDays))

	// Initialize handlers
	inspectionHandler := handler.NewInspectionHandler(inspectionService, logger)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService, bus, logger)
	fleetHandler := handler.NewFleetHandler(st, logger)
	eventHandler := handler.NewEventHandler(st, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.Health)

	// Prometheus metrics
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	if !metricsAuth.Enabled() && !cfg.IsDevelopment() {
		logger.Warn("metrics endpoint is unprotected; set METRICS_USERNAME and METRICS_PASSWORD")
	}
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	inspectionHandler.RegisterRoutes(mux)
	statisticsHandler.RegisterRoutes(mux)
	fleetHandler.RegisterRoutes(mux)
	eventHandler.RegisterRoutes(mux)

	// ==========================================================================
	// Global middleware
	// ==========================================================================

	chain := []func(http.Handler) http.Handler{
		metrics.Middleware,
		middleware.NewRequestLoggingMiddleware(logger).Handler,
		middleware.NewSecurityHeadersMiddleware(!cfg.IsDevelopment()).Handler,
	}
	if cfg.RateLimitWrites > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitWrites, cfg.RateLimitWindow)
		chain = append(chain, middleware.NewWriteThrottle(limiter, logger).Handler)
	}

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           middleware.Stack(chain...)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// openStore connects the configured backend. The returned close function is
// always safe to call.
func openStore(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (store, func(), error) {
	if cfg.StoreDriver == internal.StoreDriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.New(), func() {}, nil
	}

	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	closeDB := func() { _ = db.Close() }

	if err := db.PingContext(ctx); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := internal.RunMigrations(ctx, db, logger); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	return repository.NewStore(db), closeDB, nil
}

// buildEscalators returns the maintenance escalation channels in the order
// they fire. The log channel is always first.
func buildEscalators(cfg *internal.Config, logger *slog.Logger) ([]subscriber.Escalator, error) {
	escalators := []subscriber.Escalator{subscriber.NewLogEscalator(logger)}

	if cfg.SlackWebhookURL != "" {
		escalators = append(escalators, subscriber.NewSlackEscalator(cfg.SlackWebhookURL))
		logger.Info("slack escalation enabled")
	}

	if cfg.EmailAlertsEnabled() {
		emails, err := email.NewSMTPEmailService(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		}, logger)
		if err != nil {
			return nil, err
		}
		escalators = append(escalators, subscriber.NewEmailEscalator(emails, cfg.AlertEmailTo...))
		logger.Info("email escalation enabled", "recipients", len(cfg.AlertEmailTo))
	}

	return escalators, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
