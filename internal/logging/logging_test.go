package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/txcast/internal/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.DebugLevel).WithComponent("forecast")

	logger.Info("Forecast completed", "horizon", 4, "error", errors.New("boom"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "Forecast completed", entries[0]["message"])
	assert.Equal(t, "forecast", entries[0]["component"])
	assert.Equal(t, float64(4), entries[0]["horizon"])
	assert.Equal(t, "boom", entries[0]["error"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.WarnLevel)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "warn", entries[0]["level"])
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)

	ctx := WithLogger(context.Background(), logger)
	ctx = WithRequestID(ctx, "req-1")
	InfoCtx(ctx, "hello")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "req-1", entries[0]["request_id"])
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Same(t, Global(), FromContext(context.Background()))
}

func TestNewFromConfig(t *testing.T) {
	logger, err := NewFromConfig(config.LoggingConfig{Level: "debug", Format: "json", OutputPath: "stderr"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	path := t.TempDir() + "/logs/app.log"
	logger, err = NewFromConfig(config.LoggingConfig{Level: "nonsense", Format: "console", OutputPath: path})
	require.NoError(t, err)
	logger.Info("written to file")
}

func TestFiberMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)

	app := fiber.New()
	app.Use(FiberMiddleware(logger, DefaultMiddlewareConfig()))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/v1/forecast", func(c *fiber.Ctx) error {
		assert.NotEmpty(t, RequestID(c.UserContext()))
		return c.SendStatus(fiber.StatusBadRequest)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	req := httptest.NewRequest("GET", "/v1/forecast", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", resp.Header.Get(RequestIDHeader))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1, "health checks are not logged")
	assert.Equal(t, "Client error", entries[0]["message"])
	assert.Equal(t, "fixed-id", entries[0]["request_id"])
}
