package server

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexand-dev/vid-skool/internal/config"
)

// NewLogger builds the service logger: JSON on stdout, or a console writer in development.
func NewLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	if cfg.Development() {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", "vid-skool").
		Logger()

	if cfg.Development() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger
}
