package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "uniformshop/internal/core/context"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{zap.New(core).Sugar()}, logs
}

func TestFromContextEnrichesEntries(t *testing.T) {
	l, logs := observed()

	ctx := WithLogger(context.Background(), l)
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "u-1", Role: "staff"})

	Info(ctx, "order placed", "invoice_id", "INV0001")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "INV0001", fields["invoice_id"])
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "staff", fields["role"])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	l, logs := observed()
	prev := Default()
	SetDefault(l)
	t.Cleanup(func() { SetDefault(prev) })

	Warn(context.Background(), "no request logger")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
	assert.Empty(t, logs.All()[0].Context)
}

func TestWithComponent(t *testing.T) {
	l, logs := observed()
	l.WithComponent("worker").Infow("tick")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "worker", logs.All()[0].ContextMap()["component"])
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	l, err := New(Config{Level: "loud", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.True(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))
}
