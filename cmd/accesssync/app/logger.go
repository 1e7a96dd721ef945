package app

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/accesssync/pkg/logging"
)

// NewLogger creates the run logger. --log-level (or LOG_LEVEL) beats
// -q/--quiet, which beats -v/--verbose. Debug and trace runs log the caller.
func NewLogger(config *Config) zerolog.Logger {
	level := logLevel(config, os.Stderr)
	return logging.NewLoggerFromConfig(&logging.Config{
		Level:     level.String(),
		Format:    config.LogFormat,
		Output:    config.LogOutput,
		NoColor:   config.NoColor,
		AddCaller: level <= zerolog.DebugLevel,
	})
}

// logLevel resolves the configured level, writing a warning to w when the
// flags are contradictory or the level is unknown.
func logLevel(config *Config, w io.Writer) zerolog.Level {
	if config.LogLevel != "" {
		level, err := logging.ParseLevel(config.LogLevel)
		if err != nil {
			fmt.Fprintf(w, "Warning: %v, using info\n", err)
		}
		return level
	}

	switch {
	case config.Quiet:
		if config.Verbose {
			fmt.Fprintln(w, "Warning: both --verbose and --quiet specified, using --quiet")
		}
		return zerolog.WarnLevel
	case config.Verbose:
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
