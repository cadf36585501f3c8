package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePoster struct {
	tags []string
	msgs []map[string]interface{}
}

func (p *fakePoster) Post(tag string, message interface{}) error {
	p.tags = append(p.tags, tag)
	p.msgs = append(p.msgs, message.(map[string]interface{}))
	return errors.New("collector down")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "parseLevel(%q)", in)
	}
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "info", "json"))

	logger.Debug("hidden")
	logger.Info("row synced", "codigo", "000042")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "row synced", entry["msg"])
	assert.Equal(t, "000042", entry["codigo"])
}

func TestNewHandler_TintWritesText(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, "debug", "tint")).Debug("hello", "k", "v")

	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "DBG")
}

func TestFluentHandler_ForwardsAndPassesThrough(t *testing.T) {
	var buf bytes.Buffer
	poster := &fakePoster{}
	h := NewFluentHandler(NewHandler(&buf, "info", "json"), poster, "app")

	logger := slog.New(h).With("run_id", "r-1").WithGroup("row")
	logger.Info("synced", "position", 2, "err", errors.New("boom"))

	require.Len(t, poster.msgs, 1)
	assert.Equal(t, "app", poster.tags[0])

	msg := poster.msgs[0]
	assert.Equal(t, "synced", msg["msg"])
	assert.Equal(t, "INFO", msg["level"])
	assert.Equal(t, "r-1", msg["run_id"])
	assert.Equal(t, int64(2), msg["row.position"])
	assert.Equal(t, "boom", msg["row.err"])

	// The post error must not stop local output.
	assert.Contains(t, buf.String(), `"msg":"synced"`)
}

func TestFluentHandler_RespectsLevel(t *testing.T) {
	poster := &fakePoster{}
	logger := slog.New(NewFluentHandler(NewHandler(&bytes.Buffer{}, "warn", "text"), poster, "app"))

	logger.Info("dropped")
	logger.Warn("kept")

	require.Len(t, poster.msgs, 1)
	assert.Equal(t, "kept", poster.msgs[0]["msg"])
}

func TestFromContext_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(NewHandler(&buf, "info", "json")))
	defer slog.SetDefault(prev)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-123")
	FromContext(ctx).Info("handled")

	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
}

func TestWithFields_KeepsRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(NewHandler(&buf, "info", "json")))
	defer slog.SetDefault(prev)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-9")
	WithFields(ctx, "run_id", "run-1").Info("row synced")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-9", entry["request_id"])
	assert.Equal(t, "run-1", entry["run_id"])
}
