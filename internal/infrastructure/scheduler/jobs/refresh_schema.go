// Package jobs contains the scheduled jobs of the data API.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eportlabs/eport-data-api/internal/infrastructure/persistence/warehouse"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH SCHEMA JOB
// Recomputes the schema registry's known-absent flags against the live
// warehouse. This is the only path that changes the flags after boot.
// ══════════════════════════════════════════════════════════════════════════════

// SchemaRegistry is the slice of the registry the job needs.
type SchemaRegistry interface {
	Refresh(ctx context.Context, q warehouse.Querier) error
	Snapshot() warehouse.Snapshot
}

// RefreshMetrics records refresh outcomes.
type RefreshMetrics interface {
	AddSchemaRefresh(outcome string)
	SetSchemaRefreshedAt(t time.Time)
}

// RefreshSchemaJob reconciles the registry with information_schema.
type RefreshSchemaJob struct {
	registry SchemaRegistry
	querier  warehouse.Querier
	metrics  RefreshMetrics
	logger   *slog.Logger

	config RefreshSchemaConfig
}

// RefreshSchemaConfig contains configuration for the refresh job.
type RefreshSchemaConfig struct {
	// Timeout bounds a single refresh run.
	Timeout time.Duration
}

// DefaultRefreshSchemaConfig returns sensible defaults.
func DefaultRefreshSchemaConfig() RefreshSchemaConfig {
	return RefreshSchemaConfig{
		Timeout: 30 * time.Second,
	}
}

// NewRefreshSchemaJob creates the refresh job. metrics may be nil.
func NewRefreshSchemaJob(
	registry SchemaRegistry,
	querier warehouse.Querier,
	metrics RefreshMetrics,
	logger *slog.Logger,
	config RefreshSchemaConfig,
) (*RefreshSchemaJob, error) {
	if registry == nil {
		return nil, fmt.Errorf("refresh schema job: registry is required")
	}
	if querier == nil {
		return nil, fmt.Errorf("refresh schema job: querier is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &RefreshSchemaJob{
		registry: registry,
		querier:  querier,
		metrics:  metrics,
		logger:   logger,
		config:   config,
	}, nil
}

// Name returns the job name.
func (j *RefreshSchemaJob) Name() string {
	return "schema_refresh"
}

// Description returns a human-readable description.
func (j *RefreshSchemaJob) Description() string {
	return "Reconciles the schema registry's known-absent relation flags with the warehouse"
}

// Run executes one refresh.
func (j *RefreshSchemaJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if err := j.registry.Refresh(ctx, j.querier); err != nil {
		if j.metrics != nil {
			j.metrics.AddSchemaRefresh("error")
		}
		j.logger.Error("schema refresh failed", "error", err)
		return fmt.Errorf("schema refresh: %w", err)
	}

	snapshot := j.registry.Snapshot()
	if j.metrics != nil {
		j.metrics.AddSchemaRefresh("success")
		j.metrics.SetSchemaRefreshedAt(snapshot.LastRefreshed)
	}

	if len(snapshot.AbsentTables) > 0 {
		j.logger.Warn("schema refresh found absent relation tables",
			"schema", snapshot.Schema,
			"absent_tables", snapshot.AbsentTables,
		)
	} else {
		j.logger.Info("schema refresh completed",
			"schema", snapshot.Schema,
			"relation_tables", snapshot.RelationTables,
		)
	}

	return nil
}
