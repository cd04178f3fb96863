package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/couchcryptid/opioid-sample-etl/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestNewLogger_Handlers(t *testing.T) {
	jsonLogger := NewLogger(&config.Config{LogLevel: "warn", LogFormat: "json"})
	_, isJSON := jsonLogger.Handler().(*slog.JSONHandler)
	assert.True(t, isJSON)
	assert.False(t, jsonLogger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, jsonLogger.Enabled(context.Background(), slog.LevelWarn))

	textLogger := NewLogger(&config.Config{LogLevel: "debug", LogFormat: "text"})
	_, isText := textLogger.Handler().(*slog.TextHandler)
	assert.True(t, isText)
	assert.True(t, textLogger.Enabled(context.Background(), slog.LevelDebug))
}
