package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

// TestRetryableBatchErr verifies which failures rerun the batch in a fresh
// transaction: the stale-snapshot session race and serialization failures
// retry; everything else surfaces to the caller.
func TestRetryableBatchErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "session race",
			err:  errSessionRace,
			want: true,
		},
		{
			name: "wrapped session race",
			err:  fmt.Errorf("creating session: %w", errSessionRace),
			want: true,
		},
		{
			name: "serialization failure",
			err:  fmt.Errorf("committing batch: %w", &pgconn.PgError{Code: "40001"}),
			want: true,
		},
		{
			name: "unique violation",
			err:  fmt.Errorf("inserting exercise log: %w", &pgconn.PgError{Code: "23505"}),
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("connection refused"),
			want: false,
		},
		{
			name: "nil",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryableBatchErr(tt.err); got != tt.want {
				t.Errorf("retryableBatchErr(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
