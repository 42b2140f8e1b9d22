package sqlgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with sqlgo-specific context.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithModel adds a model id field to the logger.
func (l *Logger) WithModel(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("model", id),
	}
}

// WithExample adds an example id field to the logger.
func (l *Logger) WithExample(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("example", id),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogLoad logs a corpus load.
func (l *Logger) LogLoad(ctx context.Context, source string, loaded, quarantined int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "corpus load failed",
			"source", source,
			"error", err,
		)
	} else if quarantined > 0 {
		l.WarnContext(ctx, "corpus loaded with quarantined records",
			"source", source,
			"loaded", loaded,
			"quarantined", quarantined,
		)
	} else {
		l.InfoContext(ctx, "corpus loaded",
			"source", source,
			"loaded", loaded,
		)
	}
}

// LogSelect logs an example selection.
func (l *Logger) LogSelect(ctx context.Context, max, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "selection failed",
			"max", max,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "selection completed",
			"max", max,
			"results", results,
		)
	}
}

// LogFeedback logs a quality feedback update.
func (l *Logger) LogFeedback(ctx context.Context, exampleID string, success bool, err error) {
	if err != nil {
		l.WarnContext(ctx, "feedback update failed",
			"example", exampleID,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "feedback applied",
			"example", exampleID,
			"success", success,
		)
	}
}

// LogGenerate logs a fallback generation.
func (l *Logger) LogGenerate(ctx context.Context, modelUsed string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "generation failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "generation completed",
			"model", modelUsed,
		)
	}
}

// LogEnsemble logs an ensemble generation.
func (l *Logger) LogEnsemble(ctx context.Context, primary string, successes int, consensus float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "ensemble generation failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "ensemble generation completed",
			"primary", primary,
			"successes", successes,
			"consensus", consensus,
		)
	}
}

// LogSatisfaction logs a satisfaction attachment.
func (l *Logger) LogSatisfaction(ctx context.Context, sampleID string, score float64, err error) {
	if err != nil {
		l.WarnContext(ctx, "satisfaction attachment failed",
			"sample", sampleID,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "satisfaction attached",
			"sample", sampleID,
			"score", score,
		)
	}
}
