package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" info ", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Level: "info", Format: "json"}, &buf)

	logger.Debug("hidden")
	logger.Info("Searching", "term", "Hola")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Searching", entry["msg"])
	assert.Equal(t, "Hola", entry["term"])
}

func TestSetLevelAffectsExistingLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Level: "error"}, &buf)

	logger.Info("before")
	assert.Empty(t, buf.String())

	SetLevel("debug")
	t.Cleanup(func() { SetLevel("info") })
	assert.Equal(t, slog.LevelDebug, Level())

	logger.Debug("after")
	assert.Contains(t, buf.String(), "msg=after")
}

func TestTee(t *testing.T) {
	var primary, sink bytes.Buffer
	tee := NewTee(&primary)

	detach := tee.Attach(&sink)
	_, err := tee.Write([]byte("one\n"))
	require.NoError(t, err)

	detach()
	_, err = tee.Write([]byte("two\n"))
	require.NoError(t, err)

	assert.Equal(t, "one\ntwo\n", primary.String())
	assert.Equal(t, "one\n", sink.String())
}
