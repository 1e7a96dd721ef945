// Package logging provides structured logging for the accesssync system using zerolog.
// It offers human-readable console output when attached to a terminal and
// structured JSON output when run from cron or a systemd timer.
//
// A sync run carries its logger through the context, tagged with the run ID
// and the phase in progress:
//
//	ctx := logging.WithLogger(context.Background(), logger)
//	ctx = logging.WithRunID(ctx, runID)
//	logging.FromContext(logging.WithPhase(ctx, "lookup")).
//	    Warn().
//	    Err(err).
//	    Msg("Group lookup failed")
package logging

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultLogger is the global logger instance.
var defaultLogger = NewLoggerFromConfig(&Config{
	Level:   levelFromEnv(),
	Format:  os.Getenv("LOG_FORMAT"),
	NoColor: os.Getenv("NO_COLOR") != "",
})

// Default returns the default global logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault sets the default global logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger // Also update zerolog's global logger
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// levelFromEnv reads LOG_LEVEL, with DEBUG as a shortcut for debug.
func levelFromEnv() string {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		return level
	}
	if os.Getenv("DEBUG") != "" {
		return "debug"
	}
	return "info"
}
