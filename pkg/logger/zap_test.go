package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/duccv/movie-rating-api/internal/constant"
)

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		env   string
		want  zapcore.Level
	}{
		{"debug in development", "debug", "development", zapcore.DebugLevel},
		{"debug forced up in production", "debug", "production", zapcore.InfoLevel},
		{"warn kept in production", "warn", "production", zapcore.WarnLevel},
		{"garbage falls back", "loud", "development", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getLogLevel(tt.level, tt.env).Level())
		})
	}
}

func TestFromContext_AddsCorrelationID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	ctx := context.WithValue(context.Background(), constant.CorrelationIDKey, "abc-123")
	FromContext(ctx).Info("hello")
	FromContext(context.Background()).Info("plain")

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "abc-123", entries[0].ContextMap()["correlation_id"])
		assert.NotContains(t, entries[1].ContextMap(), "correlation_id")
	}
}
