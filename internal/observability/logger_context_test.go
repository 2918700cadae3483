package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerContextRoundTrip(t *testing.T) {
	t.Parallel()

	lg := slog.Default().With(slog.String("component", "test"))
	ctx := ContextWithLogger(context.Background(), lg)
	assert.Same(t, lg, LoggerFromContext(ctx, nil))

	fallback := slog.Default().With(slog.String("component", "fallback"))
	assert.Same(t, fallback, LoggerFromContext(context.Background(), fallback))
	assert.NotNil(t, LoggerFromContext(context.Background(), nil))
}

func TestRequestIDContextRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := ContextWithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))

	// Empty IDs are not stored.
	ctx = ContextWithRequestID(context.Background(), "")
	assert.Empty(t, RequestIDFromContext(ctx))
}
