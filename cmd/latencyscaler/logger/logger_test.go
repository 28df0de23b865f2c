package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/HatiCode/latencyscaler/cmd/latencyscaler/config"
)

func TestNew_LogLevels(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		wantFunc func(*slog.Logger) bool
	}{
		{
			name:     "debug level",
			logLevel: "debug",
			wantFunc: func(l *slog.Logger) bool {
				return l.Enabled(context.TODO(), slog.LevelDebug)
			},
		},
		{
			name:     "info level",
			logLevel: "info",
			wantFunc: func(l *slog.Logger) bool {
				return l.Enabled(context.TODO(), slog.LevelInfo) && !l.Enabled(context.TODO(), slog.LevelDebug)
			},
		},
		{
			name:     "warn level",
			logLevel: "WARN",
			wantFunc: func(l *slog.Logger) bool {
				return l.Enabled(context.TODO(), slog.LevelWarn) && !l.Enabled(context.TODO(), slog.LevelInfo)
			},
		},
		{
			name:     "error level",
			logLevel: "error",
			wantFunc: func(l *slog.Logger) bool {
				return l.Enabled(context.TODO(), slog.LevelError) && !l.Enabled(context.TODO(), slog.LevelWarn)
			},
		},
		{
			name:     "empty level defaults to info",
			logLevel: "",
			wantFunc: func(l *slog.Logger) bool {
				return l.Enabled(context.TODO(), slog.LevelInfo) && !l.Enabled(context.TODO(), slog.LevelDebug)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{LogFormat: "text", LogLevel: tt.logLevel}

			if !tt.wantFunc(New(cfg, io.Discard)) {
				t.Errorf("logger level configuration incorrect for %q", tt.logLevel)
			}
		})
	}
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&config.Config{LogFormat: "json", LogLevel: "info"}, &buf)

	logger.Info("decision", "target_replicas", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v: %s", err, buf.String())
	}
	if entry["msg"] != "decision" {
		t.Errorf("msg = %v, want decision", entry["msg"])
	}
	if entry["target_replicas"] != float64(3) {
		t.Errorf("target_replicas = %v, want 3", entry["target_replicas"])
	}
}

func TestNew_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&config.Config{LogFormat: "text", LogLevel: "debug"}, &buf)

	logger.Debug("debug message", "resource", "api")

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "resource=api") {
		t.Errorf("unexpected text output: %s", out)
	}
}
