package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/requestctx"
)

func TestInitialize_InvalidLevelFallsBackToInfo(t *testing.T) {
	original := Log
	t.Cleanup(func() { Log = original })

	require.NoError(t, Initialize("not-a-level"))
	assert.True(t, Log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, Log.Core().Enabled(zapcore.DebugLevel))
}

func TestFromContext_AddsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := WithLogger(context.Background(), zap.New(core))
	ctx = requestctx.WithRequestID(ctx, "req-42")

	FromContext(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
}

func TestFromContext_NilContextReturnsGlobal(t *testing.T) {
	assert.Equal(t, Log, FromContext(nil))
}

func TestFromContextOr(t *testing.T) {
	fallback := zap.NewNop()
	assert.Equal(t, fallback, FromContextOr(context.Background(), fallback))

	scoped := zap.NewExample()
	ctx := WithLogger(context.Background(), scoped)
	assert.Equal(t, scoped, FromContextOr(ctx, fallback))

	assert.Equal(t, Log, FromContextOr(context.Background(), nil))
}
