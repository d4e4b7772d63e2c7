// Package main - entry point of the e-portfolio data API.
//
// The data API is the single read surface between the analytical
// warehouse and the CV generation pipeline: it hydrates normalized
// eport_gold tables into nested domain objects (full student profiles,
// role and job-description taxonomies, template metadata) and serves
// them over a versioned REST API, one warehouse round trip per read.
//
// The layout follows Clean Architecture:
// - Domain: entities and repository contracts, no external dependencies
// - Application: composed reads (generation bundle, enriched JD)
// - Infrastructure: warehouse access, schema registry, scheduler, metrics
// - Interface: HTTP server and handlers
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eportlabs/eport-data-api/config"

	// Application layer
	"github.com/eportlabs/eport-data-api/internal/application/query"

	// Infrastructure layer
	"github.com/eportlabs/eport-data-api/internal/infrastructure/observability"
	"github.com/eportlabs/eport-data-api/internal/infrastructure/persistence/warehouse"
	"github.com/eportlabs/eport-data-api/internal/infrastructure/scheduler"
	"github.com/eportlabs/eport-data-api/internal/infrastructure/scheduler/jobs"

	// Interface layer
	httpserver "github.com/eportlabs/eport-data-api/internal/interface/http"
	"github.com/eportlabs/eport-data-api/internal/interface/http/handlers"

	// Packages
	"github.com/eportlabs/eport-data-api/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Warehouse.DSN == "" {
		return fmt.Errorf("WAREHOUSE_DSN is required")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting e-portfolio data API",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", string(cfg.App.Environment),
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. SCHEMA CATALOG
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("loading schema catalog", "path", cfg.Warehouse.CatalogPath)
	catalog, err := config.LoadCatalog(cfg.Warehouse.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	log.Info("schema catalog loaded", "schema", catalog.Schema)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. WAREHOUSE CONNECTION
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to warehouse...")
	conn, err := warehouse.NewConnection(ctx, warehouse.Config{
		DSN:             cfg.Warehouse.DSN,
		MaxConns:        int32(cfg.Warehouse.MaxConns),
		MinConns:        int32(cfg.Warehouse.MinConns),
		MaxConnLifetime: cfg.Warehouse.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Warehouse.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	defer func() {
		log.Info("closing warehouse connection...")
		conn.Close()
	}()
	log.Info("warehouse connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. SCHEMA REGISTRY
	// ─────────────────────────────────────────────────────────────────────────
	registry, err := warehouse.NewRegistry(catalog)
	if err != nil {
		return fmt.Errorf("failed to build schema registry: %w", err)
	}

	// The registry must observe the live catalog once before the service
	// answers reads; afterwards only the refresh job changes its flags.
	refreshCtx, refreshCancel := context.WithTimeout(ctx, cfg.Scheduler.JobTimeout)
	err = registry.Refresh(refreshCtx, conn)
	refreshCancel()
	if err != nil {
		return fmt.Errorf("initial schema refresh failed: %w", err)
	}

	snapshot := registry.Snapshot()
	if len(snapshot.AbsentTables) > 0 {
		log.Warn("schema registry initialized with absent relation tables",
			"schema", snapshot.Schema,
			"absent_tables", snapshot.AbsentTables,
		)
	} else {
		log.Info("schema registry initialized",
			"schema", snapshot.Schema,
			"relation_tables", snapshot.RelationTables,
		)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. METRICS
	// ─────────────────────────────────────────────────────────────────────────
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics()
		metrics.SetSchemaRefreshedAt(snapshot.LastRefreshed)
		log.Info("prometheus metrics enabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	composer := warehouse.NewComposer(registry)

	clientOpts := []warehouse.ClientOption{
		warehouse.WithRetryPolicy(
			cfg.Retry.MaxAttempts,
			cfg.Retry.InitialDelay,
			cfg.Retry.MaxDelay,
			cfg.Retry.Multiplier,
		),
		warehouse.WithQueryTimeout(cfg.Warehouse.QueryTimeout),
		warehouse.WithQueryLogging(cfg.Warehouse.LogQueries),
		warehouse.WithLogger(log),
	}
	if metrics != nil {
		clientOpts = append(clientOpts, warehouse.WithMetrics(metrics))
	}
	whClient := warehouse.NewClient(conn, clientOpts...)

	studentRepo := warehouse.NewStudentRepository(composer, whClient)
	roleRepo := warehouse.NewRoleRepository(composer, whClient)
	jdRepo := warehouse.NewJDRepository(composer, whClient)
	templateRepo := warehouse.NewTemplateRepository(composer, whClient)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	bundleHandler := query.NewGetGenerationBundleHandler(studentRepo, roleRepo, jdRepo, templateRepo)
	enrichedJDHandler := query.NewGetEnrichedJDHandler(jdRepo, roleRepo, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{Logger: log})

	var refreshMetrics jobs.RefreshMetrics
	if metrics != nil {
		refreshMetrics = metrics
	}
	refreshJob, err := jobs.NewRefreshSchemaJob(registry, conn, refreshMetrics, log,
		jobs.RefreshSchemaConfig{Timeout: cfg.Scheduler.JobTimeout})
	if err != nil {
		return fmt.Errorf("failed to create refresh job: %w", err)
	}

	// Register unconditionally so the admin endpoint can trigger the job
	// even when the periodic schedule is disabled.
	if err := sched.Register(refreshJob, scheduler.NewIntervalSchedule(cfg.Scheduler.SchemaRefreshInterval)); err != nil {
		return fmt.Errorf("failed to register refresh job: %w", err)
	}

	schedulerStarted := false
	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		schedulerStarted = true
		log.Info("scheduler started",
			"schema_refresh_interval", cfg.Scheduler.SchemaRefreshInterval.String(),
		)
	} else {
		log.Info("scheduler disabled; schema refresh runs only on demand")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	checker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	checker.AddCheck("warehouse", handlers.NewWarehouseCheck(conn))

	// The registry is stale when three refresh windows pass without a
	// successful run; without a schedule there is no staleness bound.
	var maxRegistryAge time.Duration
	if cfg.Scheduler.Enabled {
		maxRegistryAge = 3 * cfg.Scheduler.SchemaRefreshInterval
	}
	checker.AddCheck("schema_registry", handlers.NewSchemaRegistryCheck(registry, maxRegistryAge))

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.RequestTimeout = cfg.HTTP.RequestTimeout
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.EnableMetrics = cfg.Observability.MetricsEnabled
	httpConfig.AdminToken = cfg.HTTP.AdminToken

	httpDeps := httpserver.Dependencies{
		Students:          studentRepo,
		Roles:             roleRepo,
		JDs:               jdRepo,
		Templates:         templateRepo,
		BundleHandler:     bundleHandler,
		EnrichedJDHandler: enrichedJDHandler,
		Logger: logger.New(logger.Options{
			Level:     logger.ParseLevel(cfg.Observability.LogLevel),
			AddCaller: true,
		}),
		HealthChecker: checker,
		RefreshRunner: sched,
		Registry:      registry,
	}
	if metrics != nil {
		httpDeps.MetricsHandler = metrics.Handler()
		httpDeps.RequestMetrics = metrics
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 12. STARTUP & GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := httpServer.StartAsync()

	log.Info("e-portfolio data API is running",
		"address", httpServer.Address(),
		"schema", snapshot.Schema,
		"admin_endpoint", cfg.HTTP.AdminToken != "",
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			log.Error("http server error", "error", err)
			return err
		}
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error

	if schedulerStarted {
		log.Info("stopping scheduler...")
		if err := sched.Stop(); err != nil {
			log.Error("failed to stop scheduler", "error", err)
			shutdownErr = err
		}
	}

	log.Info("stopping HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		shutdownErr = err
	}

	if shutdownErr != nil {
		log.Warn("shutdown completed with errors")
	} else {
		log.Info("shutdown completed successfully")
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger builds the process-wide structured logger.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slogLevel(cfg.Observability.LogLevel),
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		// JSON is the default; log aggregators parse it directly.
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// slogLevel maps the configured level name to a slog level.
func slogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
