package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewLoggerJSON(t *testing.T) {
	out := &bytes.Buffer{}
	logger := NewLogger(Config{Level: "warn", Format: "json", Output: out})

	logger.Info("hidden")
	logger.WithRequestID("req-1").Warn("schema built", slog.Int("types", 3))

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &record))
	assert.Equal(t, "schema built", record["msg"])
	assert.Equal(t, "req-1", record["request_id"])
	assert.EqualValues(t, 3, record["types"])
}

func TestMultiHandlerWritesEveryDestination(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(a, nil),
		slog.NewTextHandler(b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	logger := slog.New(h).With(slog.String("component", "test"))

	logger.Info("first")
	logger.Error("second")

	assert.Contains(t, a.String(), "first")
	assert.Contains(t, a.String(), "component=test")
	assert.NotContains(t, b.String(), "first")
	assert.Contains(t, b.String(), "second")
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, slog.Default(), FromContext(ctx).Logger)
	assert.Empty(t, GetRequestID(ctx))

	logger := NewLogger(Config{Output: &bytes.Buffer{}})
	ctx = WithLogger(ctx, logger)
	assert.Same(t, logger, FromContext(ctx))

	id := NewRequestID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	ctx = WithRequestIDContext(ctx, id)
	assert.Equal(t, id, GetRequestID(ctx))
}
