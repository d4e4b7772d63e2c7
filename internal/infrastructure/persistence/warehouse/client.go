package warehouse

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"
	"github.com/eportlabs/eport-data-api/pkg/retry"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXECUTION CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Record is one result row keyed by column name.
type Record map[string]any

// RowSet is a forward-only cursor over an executed query's rows. It cannot
// be restarted; once a row has been passed it is gone.
//
// Rows are drained from the wire inside Execute so that a mid-read failure
// can be retried as a whole statement. The cursor therefore never touches
// the connection.
type RowSet struct {
	records []Record
	pos     int
}

func newRowSet(records []Record) *RowSet {
	return &RowSet{records: records, pos: -1}
}

// Next advances the cursor. It returns false once the set is exhausted.
func (rs *RowSet) Next() bool {
	if rs.pos+1 >= len(rs.records) {
		rs.pos = len(rs.records)
		return false
	}
	rs.pos++
	return true
}

// Record returns the current row, or nil before the first Next or after
// exhaustion.
func (rs *RowSet) Record() Record {
	if rs.pos < 0 || rs.pos >= len(rs.records) {
		return nil
	}
	return rs.records[rs.pos]
}

// One consumes and returns the next row. ok is false when the set is
// exhausted. Single-row reads use this instead of the Next/Record pair.
func (rs *RowSet) One() (Record, bool) {
	if !rs.Next() {
		return nil, false
	}
	return rs.Record(), true
}

// Len returns the total number of rows in the set.
func (rs *RowSet) Len() int {
	return len(rs.records)
}

// ─────────────────────────────────────────────────────────────────────────────
// Metrics hook
// ─────────────────────────────────────────────────────────────────────────────

// QueryMetrics receives execution observations. The observability package
// provides the Prometheus-backed implementation.
type QueryMetrics interface {
	ObserveQuery(name, outcome string, elapsed time.Duration)
	AddRetries(name string, n int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveQuery(string, string, time.Duration) {}
func (nopMetrics) AddRetries(string, int)                     {}

// ─────────────────────────────────────────────────────────────────────────────
// Client
// ─────────────────────────────────────────────────────────────────────────────

// Client executes composed queries against the warehouse with a bounded
// retry budget. Transient failures are retried inside Execute; fatal
// classifications and context cancellation surface immediately. Callers
// always receive either a complete RowSet or an error, never a partial
// result.
type Client struct {
	querier    Querier
	retrier    *retry.Retrier
	logger     *slog.Logger
	metrics    QueryMetrics
	timeout    time.Duration
	logQueries bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRetryPolicy sets the retry budget from configuration values.
func WithRetryPolicy(maxAttempts int, initialDelay, maxDelay time.Duration, multiplier float64) ClientOption {
	return func(c *Client) {
		c.retrier = retry.FromConfig(retry.Config{
			MaxAttempts:  maxAttempts,
			InitialDelay: initialDelay,
			MaxDelay:     maxDelay,
			Multiplier:   multiplier,
			JitterFactor: 0.2,
			RetryIf:      retryableExecution,
		})
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m QueryMetrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithQueryTimeout bounds a whole Execute call, retries included. Zero
// disables the internal deadline.
func WithQueryTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithQueryLogging enables debug logging of composed statement text.
func WithQueryLogging(enabled bool) ClientOption {
	return func(c *Client) {
		c.logQueries = enabled
	}
}

// retryableExecution gates the retry loop: only transient classifications
// are retried, and never a caller-driven abort.
func retryableExecution(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// A closed pool never heals within the process; do not burn the budget.
	if errors.Is(err, ErrConnectionClosed) {
		return false
	}
	return shared.IsRetryable(err)
}

// NewClient creates an execution client over a warehouse connection.
func NewClient(conn *Connection, opts ...ClientOption) *Client {
	c := &Client{
		querier: conn,
		logger:  slog.Default(),
		metrics: nopMetrics{},
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retrier == nil {
		c.retrier = retry.FromConfig(retry.Config{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.2,
			RetryIf:      retryableExecution,
		})
	}
	return c
}

// newClientWithQuerier is the test seam; production code goes through
// NewClient.
func newClientWithQuerier(q Querier, opts ...ClientOption) *Client {
	c := NewClient(&Connection{}, opts...)
	c.querier = q
	return c
}

// Execute runs a composed query and returns its rows. Errors are already
// classified; context cancellation and deadline expiry pass through
// unchanged and are never retried.
func (c *Client) Execute(ctx context.Context, q Query) (*RowSet, error) {
	queryID := uuid.New().String()
	start := time.Now()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.logQueries {
		c.logger.Debug("executing warehouse query",
			slog.String("query", q.Name),
			slog.String("query_id", queryID),
			slog.String("sql", q.Text),
		)
	}

	var records []Record
	attempt := 0
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		attempt++
		recs, execErr := c.executeOnce(ctx, q, queryID, attempt)
		if execErr != nil {
			return execErr
		}
		records = recs
		return nil
	})

	elapsed := time.Since(start)
	if attempt > 1 {
		c.metrics.AddRetries(q.Name, attempt-1)
	}

	if err != nil {
		c.metrics.ObserveQuery(q.Name, "error", elapsed)
		c.logger.Error("warehouse query failed",
			slog.String("query", q.Name),
			slog.String("query_id", queryID),
			slog.Int("attempts", attempt),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.metrics.ObserveQuery(q.Name, "success", elapsed)
	c.logger.Debug("warehouse query completed",
		slog.String("query", q.Name),
		slog.String("query_id", queryID),
		slog.Int("attempts", attempt),
		slog.Int("rows", len(records)),
		slog.Duration("elapsed", elapsed),
	)

	return newRowSet(records), nil
}

// executeOnce runs one attempt and drains the result fully, so a retry
// always replays the whole statement rather than resuming a broken read.
func (c *Client) executeOnce(ctx context.Context, q Query, queryID string, attempt int) ([]Record, error) {
	rows, err := c.querier.Query(ctx, q.Text, q.Params...)
	if err != nil {
		return nil, c.attemptFailed(q, queryID, attempt, Classify("Execute", err))
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()

	var records []Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, c.attemptFailed(q, queryID, attempt, Classify("Execute", err))
		}
		rec := make(Record, len(fields))
		for i := range fields {
			if i < len(values) {
				rec[fields[i].Name] = values[i]
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, c.attemptFailed(q, queryID, attempt, Classify("Execute", err))
	}

	return records, nil
}

func (c *Client) attemptFailed(q Query, queryID string, attempt int, err error) error {
	if retryableExecution(err) {
		c.logger.Warn("warehouse query attempt failed",
			slog.String("query", q.Name),
			slog.String("query_id", queryID),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
	}
	return err
}
