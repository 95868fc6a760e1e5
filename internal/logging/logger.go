package logging

import (
	"log/slog"
	"os"
	"strings"
)

var (
	logLevel = new(slog.LevelVar)
	logger   *slog.Logger
)

func init() {
	logLevel.Set(ParseLevel(os.Getenv("CONSOSCAN_DEBUG")))

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger = slog.New(handler)
}

// Logger returns the shared process logger.
func Logger() *slog.Logger {
	return logger
}

// SetLevel adjusts the level of the shared logger at runtime.
func SetLevel(level slog.Level) {
	logLevel.Set(level)
}

// ParseLevel converts config file and CONSOSCAN_DEBUG values to slog levels.
// Accepts named levels (error, warn, info, debug) and the numeric shorthand
// 0=Error, 1=Warn, 2=Info, 3=Debug.
// Default: Warn if not set or invalid
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "0", "error":
		return slog.LevelError
	case "1", "warn", "warning":
		return slog.LevelWarn
	case "2", "info":
		return slog.LevelInfo
	case "3", "debug":
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}
