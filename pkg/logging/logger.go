// Package logging configures zerolog for the inventory client and proxy.
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

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// Service is added to every line as "service" when set.
	Service string
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
	zerolog.SetGlobalLevel(ParseLevel(string(cfg.Level)))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	log.Logger = logger

	return logger
}

// ParseLevel converts a level name to zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// ForFetch scopes logger to one inventory fetch.
func ForFetch(logger zerolog.Logger, fetchID, provider string) zerolog.Logger {
	return logger.With().
		Str("fetch_id", fetchID).
		Str("provider", provider).
		Logger()
}

// Log Level Guidelines:
//
// Debug: per-page flow
//   - Provider requests (host, path)
//   - Pages accumulated (assets, running totals, more_items)
//   - Cooldown waits
//
// Info: normal operation events
//   - Fetch completed (items, currency, pages, duration)
//   - Server startup/shutdown
//
// Warn: conditions that don't stop a fetch
//   - Transient failures and retries
//   - Provider cooldowns recorded or rejecting requests
//   - Redis errors while recording cooldowns
//
// Error: terminal failures
//   - Fetch failed (private profile, bad key, exhausted retries)
//   - Configuration errors
//
// Context Fields:
//   - component: inventory-client, ratelimit, pagination, inventory, proxy
//   - fetch_id: uuid of one inventory fetch
//   - provider: community, webapi, steamapis, steamsupply, steamapiio
//   - steamid, appid, contextid: inventory being fetched
//   - host, status, error_class: transport details
//   - attempt, retries_left, backoff, cursor: retry state
