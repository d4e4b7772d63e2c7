package warehouse

import (
	"context"
	"errors"
	"net"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR CLASSIFICATION
// ══════════════════════════════════════════════════════════════════════════════
//
// Every raw execution error is mapped onto a small failure taxonomy before it
// leaves this package:
//
//   transient       retryable; infrastructure hiccups that clear on their own
//   configuration   fatal; credentials, missing database or schema
//   query syntax    fatal; the composed statement is malformed
//   schema mismatch fatal; catalog and warehouse disagree on tables/columns
//
// Context cancellation and deadline errors pass through unchanged so callers
// can distinguish "caller gave up" from "warehouse failed".

// SQLState returns the PostgreSQL error code of err, or "" if err does not
// carry one.
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Classify maps a raw execution error onto the failure taxonomy. op names
// the warehouse operation for the error chain.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	// Caller-driven aborts are never the warehouse's fault.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	// Row absence is an outcome, not a failure. Repositories translate it.
	if errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if errors.Is(err, ErrConnectionClosed) {
		return shared.WrapError("warehouse", op, shared.ErrServiceUnavailable, "connection pool is closed", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifySQLState(op, pgErr)
	}

	// Errors that occurred before the statement reached the server are
	// always safe to retry.
	if pgconn.SafeToRetry(err) {
		return shared.WrapError("warehouse", op, shared.ErrTransient, "request never reached the warehouse", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return shared.WrapError("warehouse", op, shared.ErrTransient, "network failure", err)
	}

	// Remaining non-PgError failures from the driver are connection-level
	// I/O problems.
	return shared.WrapError("warehouse", op, shared.ErrTransient, "warehouse execution failed", err)
}

func classifySQLState(op string, pgErr *pgconn.PgError) error {
	code := pgErr.Code
	class := ""
	if len(code) >= 2 {
		class = code[:2]
	}

	switch {
	// Connection exceptions: the session died under us.
	case class == "08":
		return wrapPg(op, shared.ErrTransient, pgErr)

	// Server shutdown, crash recovery, or refusing connections.
	case code == "57P01", code == "57P02", code == "57P03":
		return wrapPg(op, shared.ErrTransient, pgErr)

	// Statement cancelled server-side (statement_timeout).
	case code == "57014":
		return wrapPg(op, shared.ErrTransient, pgErr)

	// Insufficient resources: out of memory, disk full, too many connections.
	case class == "53":
		return wrapPg(op, shared.ErrTransient, pgErr)

	// Serialization failure or deadlock; retry wins these.
	case code == "40001", code == "40P01":
		return wrapPg(op, shared.ErrTransient, pgErr)

	// Bad credentials.
	case class == "28":
		return wrapPg(op, shared.ErrConfiguration, pgErr)

	// Database or schema does not exist.
	case code == "3D000", code == "3F000":
		return wrapPg(op, shared.ErrConfiguration, pgErr)

	// Missing table or column: the catalog is stale against the warehouse.
	case code == "42P01", code == "42703":
		return wrapPg(op, shared.ErrSchemaMismatch, pgErr)

	// Privilege problems are deployment problems, not query problems.
	case code == "42501":
		return wrapPg(op, shared.ErrConfiguration, pgErr)

	// Remaining class 42: the composed statement itself is malformed.
	case class == "42":
		return wrapPg(op, shared.ErrQuerySyntax, pgErr)

	default:
		return wrapPg(op, shared.ErrTransient, pgErr)
	}
}

func wrapPg(op string, kind error, pgErr *pgconn.PgError) error {
	msg := pgErr.Message
	if msg == "" {
		msg = "warehouse error " + pgErr.Code
	}
	return shared.WrapError("warehouse", op, kind, msg, pgErr)
}
