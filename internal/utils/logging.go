package utils

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger creates the CLI logger. Output goes to stderr so piped
// exports on stdout stay clean; debug raises the level and switches to
// the human-readable console writer.
func NewLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	var logger zerolog.Logger
	if debug {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
