// Package logging builds the slog loggers shared by the CLI and the
// embedding API. Loggers are plain instances, never installed globally, so
// embedders keep their own logging configuration.
package logging

import (
	"io"
	"log/slog"
)

// New builds a logger writing to w at the named level in the named format.
// Unknown names fall back to info-level text output; callers that want to
// reject them validate with ValidLevel and ValidFormat first.
func New(level, format string, w io.Writer) *slog.Logger {
	var lv slog.Level
	switch level {
	case "debug":
		lv = slog.LevelDebug
	case "info":
		lv = slog.LevelInfo
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lv}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ValidLevel reports whether name is an accepted log level.
func ValidLevel(name string) bool {
	switch name {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// ValidFormat reports whether name is an accepted log format.
func ValidFormat(name string) bool {
	return name == "text" || name == "json"
}
