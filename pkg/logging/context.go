package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey int

// loggerKey is the context key for the logger.
const loggerKey contextKey = 0

// Fields a sync run tags its log lines with.
const (
	FieldRunID     = "run_id"
	FieldPhase     = "phase"
	FieldGroup     = "group"
	FieldDirectory = "directory"
	FieldDocument  = "document"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}

	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}

	return Default()
}

// WithRunID tags the context logger with the ID of a sync run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return withField(ctx, FieldRunID, runID)
}

// WithGroup adds the directory group being synced to the logger.
func WithGroup(ctx context.Context, group string) context.Context {
	return withField(ctx, FieldGroup, group)
}

// WithDirectory adds the directory backend name to the logger.
func WithDirectory(ctx context.Context, directory string) context.Context {
	return withField(ctx, FieldDirectory, directory)
}

// WithPhase adds the current sync phase to the logger. Derive each phase
// from the run context; zerolog repeats a key added twice.
func WithPhase(ctx context.Context, phase string) context.Context {
	return withField(ctx, FieldPhase, phase)
}

// WithDocument adds the access document path to the logger.
func WithDocument(ctx context.Context, path string) context.Context {
	return withField(ctx, FieldDocument, path)
}

func withField(ctx context.Context, key, value string) context.Context {
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, &logger)
}
