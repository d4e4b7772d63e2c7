package warehouse

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/eportlabs/eport-data-api/internal/domain/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func pgErr(code string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, Message: "sqlstate " + code}
}

func TestClassify_SQLStates(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		check func(error) bool
	}{
		{"connection failure", "08006", shared.IsTransient},
		{"connection does not exist", "08003", shared.IsTransient},
		{"admin shutdown", "57P01", shared.IsTransient},
		{"crash shutdown", "57P02", shared.IsTransient},
		{"cannot connect now", "57P03", shared.IsTransient},
		{"statement timeout", "57014", shared.IsTransient},
		{"too many connections", "53300", shared.IsTransient},
		{"out of memory", "53200", shared.IsTransient},
		{"serialization failure", "40001", shared.IsTransient},
		{"deadlock", "40P01", shared.IsTransient},
		{"invalid authorization", "28000", shared.IsConfiguration},
		{"bad password", "28P01", shared.IsConfiguration},
		{"database missing", "3D000", shared.IsConfiguration},
		{"schema missing", "3F000", shared.IsConfiguration},
		{"insufficient privilege", "42501", shared.IsConfiguration},
		{"undefined table", "42P01", shared.IsSchemaMismatch},
		{"undefined column", "42703", shared.IsSchemaMismatch},
		{"syntax error", "42601", shared.IsQuerySyntax},
		{"undefined function", "42883", shared.IsQuerySyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify("Execute", pgErr(tt.code))
			assert.Error(t, err)
			assert.True(t, tt.check(err), "code %s misclassified: %v", tt.code, err)
		})
	}
}

func TestClassify_RetryabilityPartition(t *testing.T) {
	assert.True(t, shared.IsRetryable(Classify("Execute", pgErr("08006"))))
	assert.False(t, shared.IsRetryable(Classify("Execute", pgErr("42601"))))
	assert.False(t, shared.IsRetryable(Classify("Execute", pgErr("42P01"))))
	assert.False(t, shared.IsRetryable(Classify("Execute", pgErr("28P01"))))

	assert.True(t, shared.IsFatal(Classify("Execute", pgErr("42601"))))
	assert.False(t, shared.IsFatal(Classify("Execute", pgErr("08006"))))
}

func TestClassify_ContextErrorsPassThrough(t *testing.T) {
	assert.Equal(t, context.Canceled, Classify("Execute", context.Canceled))
	assert.Equal(t, context.DeadlineExceeded, Classify("Execute", context.DeadlineExceeded))

	// Wrapped cancellation keeps its identity and gains no taxonomy kind.
	wrapped := fmt.Errorf("query aborted: %w", context.Canceled)
	got := Classify("Execute", wrapped)
	assert.True(t, errors.Is(got, context.Canceled))
	assert.False(t, shared.IsTransient(got))
}

func TestClassify_NoRowsPassesThrough(t *testing.T) {
	got := Classify("Execute", pgx.ErrNoRows)
	assert.True(t, errors.Is(got, pgx.ErrNoRows))
	assert.False(t, shared.IsTransient(got))
}

func TestClassify_Nil(t *testing.T) {
	assert.NoError(t, Classify("Execute", nil))
}

func TestClassify_WrappedPgError(t *testing.T) {
	err := fmt.Errorf("exec failed: %w", pgErr("42P01"))
	got := Classify("Execute", err)
	assert.True(t, shared.IsSchemaMismatch(got))
	assert.Equal(t, "42P01", SQLState(got))
}

func TestClassify_ClosedPool(t *testing.T) {
	got := Classify("Execute", ErrConnectionClosed)
	assert.True(t, errors.Is(got, shared.ErrServiceUnavailable))
	assert.True(t, errors.Is(got, ErrConnectionClosed))
	assert.False(t, retryableExecution(got), "a closed pool must not be retried")
}

func TestClassify_UnknownErrorsAreTransient(t *testing.T) {
	got := Classify("Execute", errors.New("connection reset by peer"))
	assert.True(t, shared.IsTransient(got))
}

func TestSQLState(t *testing.T) {
	assert.Equal(t, "08006", SQLState(pgErr("08006")))
	assert.Equal(t, "", SQLState(errors.New("plain")))
	assert.Equal(t, "", SQLState(nil))
}
