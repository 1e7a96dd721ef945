package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/accesssync/pkg/constants"
)

// Config holds logger configuration options
type Config struct {
	// Level is the minimum log level to output
	Level string

	// Format is json, console or auto. Auto picks console on a terminal.
	Format string

	// Output is stderr, stdout, discard or a file path opened for append
	Output string

	// NoColor disables color output in console mode
	NoColor bool

	// AddCaller includes file:line in log output
	AddCaller bool
}

// NewLoggerFromConfig creates a new logger from configuration. An
// unparseable level falls back to info.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = &Config{}
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(newWriter(cfg)).
		Level(level).
		With().
		Timestamp().
		Logger()

	if cfg.AddCaller {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// ParseLevel parses the levels a sync run may log at. The empty string is
// info.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "off", "disabled":
		return zerolog.Disabled, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

func newWriter(cfg *Config) io.Writer {
	var out io.Writer
	var file *os.File
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		file = os.Stdout
	case "", "stderr":
		file = os.Stderr
	case "discard", "none":
		out = io.Discard
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.SecureFilePermissions)
		if err != nil {
			f = os.Stderr
		}
		file = f
	}
	if file != nil {
		out = file
	}

	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		return consoleWriter(out, cfg.NoColor)
	case "", "auto":
		if (file == os.Stderr || file == os.Stdout) && isTerminal(file) {
			return consoleWriter(out, cfg.NoColor)
		}
	}
	return out
}

// consoleWriter prints the short run ID and the phase ahead of the message.
func consoleWriter(out io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: "15:04:05",
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			FieldRunID,
			FieldPhase,
			zerolog.MessageFieldName,
			zerolog.CallerFieldName,
		},
		FieldsExclude:         []string{FieldRunID, FieldPhase},
		FormatPartValueByName: formatRunPart,
	}
}

func formatRunPart(value any, name string) string {
	s, ok := value.(string)
	if !ok || s == "" {
		return ""
	}
	switch name {
	case FieldRunID:
		if len(s) > 8 {
			s = s[:8]
		}
		return s
	case FieldPhase:
		return "[" + s + "]"
	}
	return s
}
