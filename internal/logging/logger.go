// Package logging builds zerolog loggers and carries them through contexts.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Environment variables read by NewFromEnv.
const (
	EnvLevel  = "KEYBIND_LOG_LEVEL"
	EnvFormat = "KEYBIND_LOG_FORMAT"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config holds logging configuration.
type Config struct {
	Level      zerolog.Level
	Format     string // "json" or "console"
	TimeFormat string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:      zerolog.InfoLevel,
		Format:     FormatConsole,
		TimeFormat: time.RFC3339,
	}
}

// New creates a new zerolog logger with the given configuration.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var output io.Writer = out
	if cfg.Format != FormatJSON {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: cfg.TimeFormat,
		}
	}

	return zerolog.New(output).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
}

// NewFromEnv creates a logger based on environment variables.
// KEYBIND_LOG_LEVEL: trace, debug, info, warn, error (default: info)
// KEYBIND_LOG_FORMAT: json, console (default: console)
func NewFromEnv() zerolog.Logger {
	cfg := DefaultConfig()

	if level, err := ParseLevel(os.Getenv(EnvLevel)); err == nil {
		cfg.Level = level
	}

	if format, err := ParseFormat(os.Getenv(EnvFormat)); err == nil {
		cfg.Format = format
	}

	return New(cfg)
}

// ParseLevel parses a level name. The empty string is info.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(s) {
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
	case "disabled", "off":
		return zerolog.Disabled, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat validates a format name. The empty string is console.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(s) {
	case "", FormatConsole:
		return FormatConsole, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown log format %q", s)
}
