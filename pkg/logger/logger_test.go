package logger

import (
	"errors"
	"log/slog"
	"testing"
)

func TestScope(t *testing.T) {
	attr := Scope("relations.svc")
	if attr.Key != "scope" {
		t.Errorf("Scope() key = %q, want %q", attr.Key, "scope")
	}
	if attr.Value.String() != "relations.svc" {
		t.Errorf("Scope() value = %q, want %q", attr.Value.String(), "relations.svc")
	}
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := Error(err)
	if attr.Key != "error" {
		t.Errorf("Error() key = %q, want %q", attr.Key, "error")
	}
	if attr.Value.Any() != err {
		t.Errorf("Error() value = %v, want %v", attr.Value.Any(), err)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		level    slog.Level
		enabled  bool
	}{
		{"default is info", "", slog.LevelInfo, true},
		{"default hides debug", "", slog.LevelDebug, false},
		{"debug", "debug", slog.LevelDebug, true},
		{"warn", "warn", slog.LevelWarn, true},
		{"warn hides info", "warn", slog.LevelInfo, false},
		{"warning alias", "warning", slog.LevelWarn, true},
		{"error", "error", slog.LevelError, true},
		{"error hides warn", "error", slog.LevelWarn, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.logLevel)

			log := NewLogger()
			if log == nil {
				t.Fatal("NewLogger() returned nil")
			}
			if got := log.Enabled(nil, tt.level); got != tt.enabled {
				t.Errorf("Enabled(%v) = %v, want %v", tt.level, got, tt.enabled)
			}
		})
	}
}
