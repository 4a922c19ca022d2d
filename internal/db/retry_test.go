package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"non-transient", errors.New("syntax error"), false},
		{"SQLITE_BUSY text", errors.New("SQLITE_BUSY"), true},
		{"SQLITE_LOCKED text", errors.New("SQLITE_LOCKED"), true},
		{"database is locked", errors.New("database is locked"), true},
		{"code 5", errors.New("sqlite: (5) database is busy"), true},
		{"code 522", errors.New("sqlite: (522) short read"), true},
		{"wrapped busy", fmt.Errorf("insert reservation: %w", errors.New("SQLITE_BUSY")), true},
		{"pg serialization failure", &pgconn.PgError{Code: pgerrcode.SerializationFailure}, true},
		{"pg deadlock", fmt.Errorf("tx: %w", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}), true},
		{"pg exclusion violation", &pgconn.PgError{Code: pgerrcode.ExclusionViolation}, false},
		{"pg unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestRetry_SucceedsImmediately(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetry, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_NonTransientErrorNoRetry(t *testing.T) {
	calls := 0
	permanent := errors.New("syntax error near SELECT")
	err := Retry(context.Background(), fastRetry, func(ctx context.Context) error {
		calls++
		return permanent
	})
	assert.Same(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_RetriesOnTransientError(t *testing.T) {
	calls := 0
	var retried []int
	cfg := fastRetry
	cfg.OnRetry = func(attempt int, err error) { retried = append(retried, attempt) }

	err := Retry(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("SQLITE_BUSY")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetry_ExhaustsRetries(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	err := Retry(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	})
	require.Error(t, err)
	// Initial attempt plus two retries.
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: time.Second}

	calls := 0
	err := Retry(ctx, cfg, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("SQLITE_BUSY")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestBackoffDelay(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 50 * time.Millisecond, MaxDelay: 500 * time.Millisecond}

	d0 := backoffDelay(cfg, 0)
	assert.GreaterOrEqual(t, d0, 50*time.Millisecond)
	assert.Less(t, d0, 100*time.Millisecond)

	d2 := backoffDelay(cfg, 2)
	assert.GreaterOrEqual(t, d2, 200*time.Millisecond)
	assert.Less(t, d2, 250*time.Millisecond)
}

func TestBackoffDelay_CapsAtMax(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: 200 * time.Millisecond}

	d := backoffDelay(cfg, 5)
	assert.Less(t, d, 300*time.Millisecond)
	assert.GreaterOrEqual(t, d, 200*time.Millisecond)
}
