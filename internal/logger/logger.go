// Package logger configures the global zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup sets the global level and output format. Format is "console" or "json".
func Setup(level, format string) error {
	return SetupWriter(os.Stdout, level, format)
}

// SetupWriter is Setup with an explicit output.
func SetupWriter(out io.Writer, level, format string) error {
	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	switch format {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05"}
	case "json":
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger()
	return nil
}
