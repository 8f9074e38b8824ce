// Package logger provides structured logging for AdEvaluator.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration
type Config struct {
	Level  string // zerolog level name: debug, info, warn, error, ...
	Pretty bool   // Enable pretty console output
}

// New creates a new structured logger. Logs go to stderr so the headless
// mode's report on stdout stays clean for piping.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stderr
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		}
	}

	log := zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()

	if err != nil {
		log.Warn().Str("level", cfg.Level).Msg("Unknown log level, using info")
	}
	return log
}
