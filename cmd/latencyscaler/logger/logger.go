// Package logger provides structured logging configuration for latencyscaler.
//
// It creates slog.Logger instances configured according to the Config,
// supporting both text and JSON output formats, and configurable log levels
// (debug, info, warn, error).
//
// The CLI modes print their result on stdout, so the caller chooses the
// writer: stderr for metric/evaluate, stdout for serve.
package logger

import (
	"io"
	"log/slog"
	"strings"

	"github.com/HatiCode/latencyscaler/cmd/latencyscaler/config"
)

func New(cfg *config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
