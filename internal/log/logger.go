// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log builds the structured loggers used by the controller and by
// processes. Everything is log/slog; this package only decides handler,
// level and destination.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format represents the log output format.
type Format string

const (
	// FormatJSON outputs logs in JSON format for machine parsing.
	FormatJSON Format = "json"
	// FormatText outputs logs in human-readable text format.
	FormatText Format = "text"
)

// LevelTrace is more verbose than Debug.
const LevelTrace = slog.Level(-8)

// Standard field keys for structured logging.
const (
	// RunIDKey is the field key for run identifiers.
	RunIDKey = "run_id"
	// ServiceKey is the field key for service names.
	ServiceKey = "service"
	// ProcessKey is the field key for process names.
	ProcessKey = "process"
	// DurationKey is the field key for duration in milliseconds.
	DurationKey = "duration_ms"
	// EventKey is the field key for event types.
	EventKey = "event"
)

// Config holds the logging configuration.
type Config struct {
	// Level is the minimum level: trace, debug, info, warn or error.
	Level string

	// Format selects the handler. Anything but text is JSON.
	Format Format

	// Output defaults to os.Stderr when nil.
	Output io.Writer

	// AddSource records file and line on every entry.
	AddSource bool
}

// DefaultConfig logs JSON at info level to stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: FormatJSON,
		Output: os.Stderr,
	}
}

// FromEnv reads the logging configuration from the process environment.
// See FromLookup for the variables consulted.
func FromEnv() *Config {
	return FromLookup(os.Getenv)
}

// FromLookup builds a Config from the variables returned by getenv:
//   - LOLA_DEBUG=1|true forces debug level with source locations
//   - LOLA_LOG_LEVEL, falling back to LOG_LEVEL, sets the level
//   - LOG_FORMAT selects json or text
//   - LOG_SOURCE=1 adds source locations
func FromLookup(getenv func(string) string) *Config {
	cfg := DefaultConfig()

	switch debug := getenv("LOLA_DEBUG"); debug {
	case "1", "true":
		cfg.Level = "debug"
		cfg.AddSource = true
	case "":
		for _, key := range []string{"LOLA_LOG_LEVEL", "LOG_LEVEL"} {
			if level := getenv(key); level != "" {
				cfg.Level = strings.ToLower(level)
				break
			}
		}
	}

	if format := getenv("LOG_FORMAT"); format != "" {
		cfg.Format = Format(strings.ToLower(format))
	}
	if getenv("LOG_SOURCE") == "1" {
		cfg.AddSource = true
	}
	return cfg
}

// New creates a logger from cfg.
func New(cfg *Config) *slog.Logger {
	logger, _ := NewWithLevel(cfg)
	return logger
}

// NewWithLevel creates a logger whose minimum level can be changed later
// through the returned LevelVar. The controller applies logging.level this
// way once configuration has been layered.
func NewWithLevel(cfg *Config) (*slog.Logger, *slog.LevelVar) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	level := new(slog.LevelVar)
	level.Set(ParseLevel(cfg.Level))
	return slog.New(newHandler(cfg, level)), level
}

func newHandler(cfg *Config, level slog.Leveler) slog.Handler {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}
	if cfg.Format == FormatText {
		return slog.NewTextHandler(output, opts)
	}
	return slog.NewJSONHandler(output, opts)
}

// ParseLevel converts a string level to slog.Level. Unknown values map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "critical", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything. Useful as a default in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// WithRunContext returns a new logger with run context fields.
func WithRunContext(logger *slog.Logger, runID, service string) *slog.Logger {
	return logger.With(
		slog.String(RunIDKey, runID),
		slog.String(ServiceKey, service),
	)
}

// WithProcessContext returns a new logger scoped to a single process.
func WithProcessContext(logger *slog.Logger, process string) *slog.Logger {
	return logger.With(slog.String(ProcessKey, process))
}
