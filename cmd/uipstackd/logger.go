package main

import (
	"log/slog"
	"os"

	"github.com/tinynet/uip/internal/config"
)

// logger is the daemon's top-level slog.Logger, configured from cfg.Log.
type logger = *slog.Logger

// newLogger builds a slog.Logger writing to stderr, in the configured
// level and format ("json" or text).
func newLogger(cfg config.LogConfig) logger {
	opts := &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
