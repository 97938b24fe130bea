// Package log provides structured logging for additive-model training.
//
// The package defines a minimal, slog-compatible Logger interface so the
// training core can emit structured records without binding callers to a
// concrete backend. The default provider is backed by zerolog; tests swap in
// the in-memory TestLogger. Attribute keys for common training fields live in
// attributes.go so per-iteration records stay machine-parseable.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("additive.trainer").With(
//	    log.EstimatorIDKey, runID,
//	)
//	logger.Info("iteration finished",
//	    log.IterationKey, iter,
//	    log.LossKey, meanLoss,
//	)
package log

import (
	"context"
)

// Logger is a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. An error value passed as a field is
// rendered with its message and, for errors carrying one, a stacktrace
// attribute. With returns a derived logger that includes the given fields in
// every subsequent record.
type Logger interface {
	// Debug logs detailed diagnostic information, typically disabled outside
	// development runs.
	Debug(msg string, fields ...any)

	// Info logs operational events: run start, iteration summaries,
	// checkpoint writes.
	Info(msg string, fields ...any)

	// Warn logs recoverable anomalies such as a skipped malformed prior
	// entry.
	Warn(msg string, fields ...any)

	// Error logs failures that abort an operation.
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	// Use it to skip expensive field construction.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level. Values match slog.Level so handlers can
// be shared between backends.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates and configures loggers. A provider is installed
// process-wide with SetProvider; libraries obtain loggers through GetLogger
// and GetLoggerWithName.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component identifier.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum level for loggers created by this provider.
	SetLevel(level Level)
}
