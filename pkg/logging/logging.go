// Package logging configures the process-wide slog logger.
//
// In development the output is colored, human-readable text from tint.
// Everywhere else it is JSON on stderr, one object per line.
//
// Levels: debug, info, warn, error (default: info).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// EnvDevelopment selects the tint handler.
const EnvDevelopment = "development"

// Setup installs the default logger for appEnv at the named level and
// returns it.
func Setup(level, appEnv string) *slog.Logger {
	logger := New(os.Stderr, ParseLevel(level), appEnv)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger writing to w without touching the default logger.
func New(w io.Writer, level slog.Level, appEnv string) *slog.Logger {
	if strings.EqualFold(appEnv, EnvDevelopment) {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// ParseLevel maps a level name to a slog.Level. Unknown names are INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
