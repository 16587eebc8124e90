package agglo

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/agglo/node"
)

// Logger wraps slog.Logger with agglo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithKind adds a node kind field to the logger.
func (l *Logger) WithKind(kind node.Kind) *Logger {
	return &Logger{
		Logger: l.Logger.With("kind", kind.String()),
	}
}

// WithRun adds a run identifier to the logger (useful for tagging builds).
func (l *Logger) WithRun(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run", id),
	}
}

// LogBuild logs a finished build.
func (l *Logger) LogBuild(ctx context.Context, nodes, merges int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"nodes", nodes,
			"merges", merges,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "build completed",
			"nodes", nodes,
			"merges", merges,
			"duration", duration,
		)
	}
}

// LogMerge logs one merge round.
func (l *Logger) LogMerge(ctx context.Context, round int, kind node.Kind, utility float64, forced bool) {
	if forced {
		l.WarnContext(ctx, "forced merge of nodes without shared attributes",
			"round", round,
			"kind", kind.String(),
		)
	} else {
		l.DebugContext(ctx, "merge completed",
			"round", round,
			"kind", kind.String(),
			"utility", utility,
		)
	}
}
