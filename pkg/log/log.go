// Package log owns the process-wide slog setup. stdout carries the MCP
// framing, so every handler writes to stderr.
package log

import (
	"log/slog"
	"os"
)

var (
	root  *slog.Logger
	level slog.LevelVar
)

func init() {
	level.Set(slog.LevelInfo)
	root = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: &level,
	}))
}

// SetDebug toggles debug-level logging for every logger in the process.
func SetDebug(enabled bool) {
	if enabled {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}

// WithComponent returns a child logger tagged with the component name.
func WithComponent(component string) *slog.Logger {
	return root.With(slog.String("component", component))
}
