package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/txcast/internal/cache"
	"github.com/soltixdb/txcast/internal/config"
	"github.com/soltixdb/txcast/internal/dataset"
	"github.com/soltixdb/txcast/internal/logging"
	"github.com/soltixdb/txcast/internal/services"
)

const adminKey = "0123456789abcdef0123456789abcdef"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := logging.Nop()
	cfg := config.DefaultConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKeys = []string{adminKey}

	store := dataset.NewStaticStore(&dataset.Snapshot{
		Version:  "router-v1",
		LoadedAt: time.Now(),
		Records: []dataset.Record{
			{Year: 2022, Quarter: 1, State: "Goa", Type: "Merchant payments", Count: 10},
			{Year: 2022, Quarter: 2, State: "Goa", Type: "Merchant payments", Count: 12},
		},
	}, logger)

	return New(logger, Services{
		Forecast:   services.NewForecastService(logger, store, cache.Typed{}, nil, cfg),
		TimeSeries: services.NewTimeSeriesService(logger, store, cfg),
		Dataset:    services.NewDatasetService(logger, store, nil),
	}, cfg)
}

func TestRouter_PublicRoutes(t *testing.T) {
	app := newTestApp(t)

	for _, target := range []string{"/health", "/v1/summary", "/v1/states", "/v1/timeseries"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, target)
	}
}

func TestRouter_AdminRequiresKey(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/admin/reload", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/admin/reload", nil)
	req.Header.Set("X-API-Key", adminKey)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRouter_CORSPreflight(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/forecast", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "POST"))
}

func TestRouter_UnknownRoute(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v2/forecast", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
