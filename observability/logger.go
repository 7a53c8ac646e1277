package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"fundamental-analyst/models"
)

// Logger is the global logger instance
var Logger *slog.Logger

// InitLogger initializes the global logger with the appropriate handler
// For production, use JSON format; for development, use text format
func InitLogger(production bool) {
	InitLoggerWithLevel(production, slog.LevelInfo)
}

// InitLoggerWithLevel initializes the logger with a specific log level.
// Logs go to stderr so command output on stdout stays clean.
func InitLoggerWithLevel(production bool, level slog.Level) {
	Logger = newLogger(os.Stderr, production, level)
	slog.SetDefault(Logger)
}

// Configure initializes the global logger from LOG_FORMAT / LOG_LEVEL style
// settings.
func Configure(format, level string) {
	InitLoggerWithLevel(strings.EqualFold(format, "json"), ParseLevel(level))
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, production bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if production {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func logger() *slog.Logger {
	if Logger == nil {
		InitLogger(false)
	}
	return Logger
}

// WithContext returns a logger with context fields
func WithContext(ctx context.Context) *slog.Logger {
	l := logger()
	if runID, ok := RunIDFromContext(ctx); ok {
		l = l.With("run_id", runID)
	}
	return l
}

// Info logs an info message
func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}

// Fatal logs an error message and exits
func Fatal(msg string, args ...any) {
	logger().Error(msg, args...)
	os.Exit(1)
}

// WithTicker returns the context logger with a ticker field
func WithTicker(ctx context.Context, ticker string) *slog.Logger {
	return WithContext(ctx).With("ticker", ticker)
}

// WithStage returns the context logger with ticker and pipeline stage fields
func WithStage(ctx context.Context, ticker string, stage models.Stage) *slog.Logger {
	return WithTicker(ctx, ticker).With("stage", string(stage))
}

type runIDKey struct{}

// ContextWithRunID attaches a pipeline run ID to ctx for log correlation.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run ID stored by ContextWithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}
