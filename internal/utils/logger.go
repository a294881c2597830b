package utils

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the engine's root slog.Logger. Every line carries a
// service attribute so the API and metrics listeners stay attributable in
// aggregated logs.
func NewLogger(level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler).With(slog.String("service", "admit-engine"))
}

// parseLevel maps a config string to a slog level, defaulting to Info for
// anything unrecognized.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
