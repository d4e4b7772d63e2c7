// Package main - one-shot CLI that provisions a local warehouse: it runs
// the embedded eport_gold migrations and loads CSV extracts into the
// catalog tables. Deployments pointing at an externally managed warehouse
// never run it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/eportlabs/eport-data-api/config"
	"github.com/eportlabs/eport-data-api/internal/infrastructure/persistence/warehouse"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	var (
		dir         = flag.String("dir", "seed", "directory with CSV extracts, one file per table")
		skipMigrate = flag.Bool("skip-migrate", false, "do not run the embedded migrations first")
		timeout     = flag.Duration("timeout", 5*time.Minute, "overall deadline for the run")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Warehouse.DSN == "" {
		return fmt.Errorf("WAREHOUSE_DSN is required")
	}

	catalog, err := config.LoadCatalog(cfg.Warehouse.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(log)
	log.Info("seeding warehouse", "schema", catalog.Schema, "dir", *dir)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. WAREHOUSE CONNECTION
	// ─────────────────────────────────────────────────────────────────────────
	conn, err := warehouse.NewConnection(ctx, warehouse.Config{
		DSN:      cfg.Warehouse.DSN,
		MaxConns: 4,
		MinConns: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	defer conn.Close()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	if *skipMigrate {
		log.Info("skipping migrations")
	} else {
		log.Info("running migrations...")
		migrator := warehouse.NewMigrator(conn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("warehouse schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. SEED
	// ─────────────────────────────────────────────────────────────────────────
	registry, err := warehouse.NewRegistry(catalog)
	if err != nil {
		return fmt.Errorf("failed to build schema registry: %w", err)
	}

	seeder := warehouse.NewSeeder(conn, registry, log)
	report, err := seeder.SeedDir(ctx, *dir)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	log.Info("seeding completed", "tables", report.Tables, "rows", report.Rows)
	return nil
}
