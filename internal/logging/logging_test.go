package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/ideascore/internal/model"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, model.LoggingConfig{Level: "info", Format: "json"})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.With("component", "pipeline").Info("scored", "idea", "idea-1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "scored", record["msg"])
	assert.Equal(t, "pipeline", record["component"])
	assert.Equal(t, "idea-1", record["idea"])
	assert.Contains(t, record, "timestamp")
	assert.NotContains(t, record, "time")
}

func TestNew_TextDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, model.LoggingConfig{Level: "debug", Format: "text"})
	require.NoError(t, err)

	logger.Debug("dropping unknown factor", "key", "XX1")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "key=XX1")
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(&bytes.Buffer{}, model.LoggingConfig{Level: "loud"})
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, model.LoggingConfig{Format: "xml"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}
