// Package logger provides structured logging with context support.
package logger

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appctx "uniformshop/internal/core/context"
)

// Logger wraps zap.SugaredLogger with context-aware logging.
type Logger struct {
	*zap.SugaredLogger
}

type loggerKey struct{}

// Config holds logger configuration.
type Config struct {
	Level       string // debug, info, warn, error
	Development bool   // console encoder with colours
	// Service is attached to every entry; defaults to "uniformshop".
	Service     string
	OutputPaths []string
}

// New creates a new Logger from configuration.
// An unknown level falls back to info.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}

	service := cfg.Service
	if service == "" {
		service = "uniformshop"
	}

	z, err := zc.Build(zap.AddCallerSkip(1), zap.Fields(zap.String("service", service)))
	if err != nil {
		return nil, err
	}
	return &Logger{z.Sugar()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

var defaultLogger atomic.Pointer[Logger]

// Default returns the process-wide logger; until SetDefault is called it is a
// production logger writing to stdout.
func Default() *Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{"stdout"}
	z, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		z = zap.NewNop()
	}
	l := &Logger{z.Sugar()}
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	return defaultLogger.Load()
}

// SetDefault replaces the logger used when the context carries none.
func SetDefault(l *Logger) {
	defaultLogger.Store(l)
}

// WithContext adds request and principal fields from ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	var fields []any
	if t := appctx.GetTrace(ctx); t != nil {
		fields = append(fields, "trace_id", t.TraceID, "request_id", t.RequestID)
	}
	if u := appctx.GetUser(ctx); u != nil {
		fields = append(fields, "user_id", u.UserID, "role", u.Role)
	}
	if len(fields) == 0 {
		return l
	}
	return &Logger{l.SugaredLogger.With(fields...)}
}

// WithComponent names the subsystem emitting the entries.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{l.SugaredLogger.With("component", name)}
}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the request logger, enriched from ctx, or the default one.
func FromContext(ctx context.Context) *Logger {
	l, ok := ctx.Value(loggerKey{}).(*Logger)
	if !ok {
		l = Default()
	}
	return l.WithContext(ctx)
}

func Debug(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Debugw(msg, keysAndValues...)
}

func Info(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Infow(msg, keysAndValues...)
}

func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Warnw(msg, keysAndValues...)
}

func Error(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Errorw(msg, keysAndValues...)
}
