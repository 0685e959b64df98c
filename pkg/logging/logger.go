// Package logging configures zerolog for the exporter.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// App is attached to every log line.
const App = "launch-export"

// Field names shared by all packages.
const (
	FieldComponent = "component"
	FieldEndpoint  = "endpoint"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level written; unknown values mean info.
	Level LogLevel

	// Pretty selects the colored console writer instead of JSON lines.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns JSON logging at info level to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// Setup installs the global logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Str("app", App).Logger()
	return log.Logger
}

func parseLevel(level LogLevel) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(string(level)))
	if name == "warning" {
		name = "warn"
	}

	switch parsed, err := zerolog.ParseLevel(name); {
	case err != nil, name == "", parsed == zerolog.NoLevel:
		return zerolog.InfoLevel
	default:
		return parsed
	}
}

// NewLogger returns a child of the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str(FieldComponent, component).Logger()
}

// WithEndpoint tags logger with an endpoint name.
func WithEndpoint(logger zerolog.Logger, endpoint string) zerolog.Logger {
	return logger.With().Str(FieldEndpoint, endpoint).Logger()
}

// Level guidelines:
//
// Debug: per-request detail (attempts, cache hits, worker start/stop)
// Info: progress an operator watches (pages detected, CSV written, workbook saved)
// Warn: data missing from the export (failed pages, skipped endpoints, rate limits)
// Error: the run cannot produce its output
