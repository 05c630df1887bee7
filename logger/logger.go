// Package logger builds the zerolog logger shared by the service components
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const service = "account-projector"

// Config represents logger configuration
type Config struct {
	Level  string
	Pretty bool
}

// New returns a logger writing to stdout. Invalid levels fall back to info.
func New(cfg Config) zerolog.Logger {
	var out io.Writer = os.Stdout

	if cfg.Pretty {
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	return NewWithWriter(cfg, out)
}

// NewWithWriter returns a logger writing to w
func NewWithWriter(cfg Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
