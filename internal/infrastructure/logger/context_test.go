package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sampledContext() context.Context {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10},
		SpanID:     trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestWithContext(t *testing.T) {
	l := zap.NewExample()
	ctx := WithContext(context.Background(), l)

	assert.Same(t, l, FromContext(ctx))
}

func TestFromContext_NotFound(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}

func TestWithRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	ctx, l := WithRequestID(context.Background(), zap.New(core), "req-123")
	l.Info("hello")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "req-123", recorded.All()[0].ContextMap()["request_id"])
}

func TestGetRequestID_Empty(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestGetTraceID(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", GetTraceID(sampledContext()))
}

func TestWithTraceContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	assert.Same(t, base, WithTraceContext(context.Background(), base))

	WithTraceContext(sampledContext(), base).Info("traced")
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", fields["trace_id"])
	assert.Equal(t, "0102030405060708", fields["span_id"])
}

func TestFor(t *testing.T) {
	t.Run("prefers the request logger", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		ctx := WithContext(context.Background(), zap.New(core))

		For(ctx, zap.NewNop()).Info("from request")
		assert.Equal(t, 1, recorded.Len())
	})

	t.Run("falls back and carries request id", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		ctx := context.WithValue(context.Background(), RequestIDKey, "req-9")

		For(ctx, zap.New(core)).Info("fallback")
		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, "req-9", recorded.All()[0].ContextMap()["request_id"])
	})

	t.Run("nil fallback is safe", func(t *testing.T) {
		assert.NotPanics(t, func() {
			For(context.Background(), nil).Info("dropped")
		})
	})
}
