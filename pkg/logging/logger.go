// Package logging configures the process-wide zerolog logger and hands out
// component-scoped child loggers.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

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

// Component names used across the module. Keeping them here avoids typos in
// log queries.
const (
	ComponentClient       = "gateway-client"
	ComponentCache        = "cache"
	ComponentRateLimit    = "ratelimit"
	ComponentBookService  = "book-service"
	ComponentReadService  = "reading-service"
	ComponentVisitService = "visit-service"
	ComponentMiscService  = "misc-service"
	ComponentStore        = "store"
	ComponentOrchestrator = "orchestrator"
	ComponentPerf         = "perf"
	ComponentServer       = "server"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: JSON).
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.DurationFieldUnit = time.Millisecond

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// WithSession tags a logger with a load-session id so that every line of one
// page load can be correlated.
func WithSession(logger zerolog.Logger, sessionID string) zerolog.Logger {
	if sessionID == "" {
		return logger
	}
	return logger.With().Str("session", sessionID).Logger()
}

// Log Level Guidelines:
//
// Debug: cache hit/miss, conditional requests, store state transitions,
// individual timer start/end.
//
// Info: load waves started/settled, server startup/shutdown, report export.
//
// Warn: optional widget failures swallowed with a default, retry attempts,
// cache errors (fallback to direct request), batch fallback, timers ended
// without a start.
//
// Error: critical loads failing (summary, latest book, detail), retry
// exhaustion, configuration errors.
//
// Context fields:
//   - endpoint: gateway path
//   - status: HTTP status code
//   - duration: elapsed time in milliseconds
//   - error_class: client, server, rate_limit, network, envelope
//   - field: store field name
//   - session: load session id
