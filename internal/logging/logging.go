// Package logging wraps zerolog with the server's level/format config,
// replacing the teacher's bare log.Printf calls with structured,
// leveled logging.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger at the given level ("trace".."fatal") and
// format ("text" for a console writer, anything else for raw JSON).
func New(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var out = os.Stdout
	logger := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	if format != "json" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}).
			Level(lvl).With().Timestamp().Logger()
	}
	return logger
}

// SetLevel updates a logger's minimum level in place, used by the config
// package's hot-reload of log_level.
func SetLevel(logger *zerolog.Logger, level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return
	}
	*logger = logger.Level(lvl)
}
