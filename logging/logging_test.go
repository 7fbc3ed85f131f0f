package logging

import (
	"bytes"
	"encoding/json"
	"github.com/saylorsolutions/olaui/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMergeHandlers(t *testing.T) {
	var bufA, bufB, bufC strings.Builder
	log := slog.New(MergeHandlers(
		slog.NewTextHandler(&bufA, &slog.HandlerOptions{}),
		slog.NewTextHandler(&bufB, &slog.HandlerOptions{}),
		slog.NewTextHandler(&bufC, &slog.HandlerOptions{Level: slog.LevelWarn}),
	))
	log.With("session", "abc").Info("A message", "test", "test")
	a, b, c := bufA.String(), bufB.String(), bufC.String()
	assert.Contains(t, a, "session=abc")
	assert.Equal(t, a, b)
	assert.Empty(t, c, "Handler should not receive records below its level")

	log.Info("Another message")
	assert.NotContains(t, strings.Split(strings.TrimSpace(bufA.String()), "\n")[1], "session", "Derived loggers must not affect the parent")
}

func TestMergeHandlers_Nil(t *testing.T) {
	assert.Panics(t, func() {
		MergeHandlers(slog.NewTextHandler(&bytes.Buffer{}, nil), nil)
	})
}

func TestDedupeHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewDedupeHandler(slog.NewTextHandler(&buf, nil)))
	log = log.With("request", 1)
	log = log.With("request", 2)
	log.Info("Test", "request", 3)
	assert.Equal(t, 1, strings.Count(buf.String(), "request="))
	assert.Contains(t, buf.String(), "request=3")
}

func TestDedupeHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewDedupeHandler(slog.NewTextHandler(&buf, nil)))
	log = log.With("key", 1).With("key", 2)
	log = log.WithGroup("group").With("inner", 1).With("inner", 2)
	log.Info("Test")
	assert.Equal(t, 1, strings.Count(buf.String(), "key="))
	assert.Equal(t, 1, strings.Count(buf.String(), "group.inner="))
	assert.Contains(t, buf.String(), "group.inner=2")
}

func TestDedupeHandler_NilImpl(t *testing.T) {
	assert.Panics(t, func() {
		NewDedupeHandler(nil)
	})
}

func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer
	handler, err := NewHandler(&buf, config.FormatAuto, slog.LevelInfo)
	require.NoError(t, err)
	slog.New(handler).Info("Test")
	assert.True(t, json.Valid(buf.Bytes()), "Non-terminal output should be JSON")

	buf.Reset()
	handler, err = NewHandler(&buf, config.FormatText, slog.LevelInfo)
	require.NoError(t, err)
	slog.New(handler).Info("Test")
	assert.Contains(t, buf.String(), "msg=Test")

	_, err = NewHandler(&buf, "xml", slog.LevelInfo)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "olaui.log")
	var buf bytes.Buffer
	log, closer, err := New(config.Log{Level: "warn", Format: config.FormatText, File: path}, &buf)
	require.NoError(t, err)

	log.Info("Hidden")
	log.Warn("Shown", "universe", 1)
	require.NoError(t, closer.Close())

	assert.NotContains(t, buf.String(), "Hidden")
	assert.Contains(t, buf.String(), "msg=Shown")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
	assert.Equal(t, "Shown", record["msg"])
	assert.Equal(t, float64(1), record["universe"])

	_, _, err = New(config.Log{Level: "loud", Format: config.FormatText}, &buf)
	assert.Error(t, err)
}
