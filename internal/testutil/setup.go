package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"searchsync/internal/telemetry"
)

// NewMockDB creates a pgxmock pool and handles cleanup via t.Cleanup.
func NewMockDB(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)

	t.Cleanup(func() {
		mockPool.Close()
	})

	return mockPool
}

// NewTestLogger creates a standardized silent logger for tests.
func NewTestLogger() *slog.Logger {
	baseHandler := slog.NewJSONHandler(io.Discard, nil)
	return slog.New(telemetry.NewTraceHandler(baseHandler))
}
