package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/txcast/internal/cache"
	"github.com/soltixdb/txcast/internal/config"
	"github.com/soltixdb/txcast/internal/dataset"
	"github.com/soltixdb/txcast/internal/logging"
	"github.com/soltixdb/txcast/internal/middleware"
	"github.com/soltixdb/txcast/internal/services"
)

// testRecords covers 2018Q1..2022Q4 for two states; the national count
// grows by 15 each quarter from 150
func testRecords() []dataset.Record {
	var records []dataset.Record
	for i := 0; i < 20; i++ {
		year, quarter := 2018+i/4, i%4+1
		records = append(records,
			dataset.Record{Year: year, Quarter: quarter, State: "Tamil Nadu", Type: "Peer-to-peer payments",
				Count: float64(100 + 10*i), Amount: float64(1000 + 100*i)},
			dataset.Record{Year: year, Quarter: quarter, State: "Delhi", Type: "Merchant payments",
				Count: float64(50 + 5*i), Amount: float64(500 + 50*i)},
		)
	}
	return records
}

func loadedStore() *dataset.Store {
	return dataset.NewStaticStore(&dataset.Snapshot{
		Version:  "handler-v1",
		Source:   "memory",
		LoadedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Records:  testRecords(),
		Users: []dataset.Record{
			{Year: 2021, Quarter: 1, Brand: "Xiaomi", Count: 300},
			{Year: 2021, Quarter: 1, Brand: "Realme", Count: 100},
		},
	}, logging.Nop())
}

// newTestApp wires a handler over store the way the router does
func newTestApp(t *testing.T, store *dataset.Store) *fiber.App {
	t.Helper()

	logger := logging.Nop()
	cfg := config.DefaultConfig()

	resultCache, err := cache.NewTyped(cfg.Cache)
	require.NoError(t, err)

	h := New(logger,
		services.NewForecastService(logger, store, resultCache, nil, cfg),
		services.NewTimeSeriesService(logger, store, cfg),
		services.NewDatasetService(logger, store, nil),
	)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	app.Use(logging.FiberMiddleware(logger, logging.DefaultMiddlewareConfig()))
	app.Get("/health", h.Health)
	app.Get("/v1/summary", h.Summary)
	app.Get("/v1/states", h.States)
	app.Get("/v1/states/:state", h.State)
	app.Get("/v1/types", h.Types)
	app.Get("/v1/brands", h.Brands)
	app.Get("/v1/export", h.Export)
	app.Get("/v1/timeseries", h.TimeSeries)
	app.Get("/v1/forecast", h.Forecast)
	app.Post("/v1/forecast", h.ForecastPost)
	app.Get("/v1/forecast/export", h.ForecastExport)
	app.Post("/admin/reload", h.Reload)
	app.Use(h.NotFound)
	return app
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func get(t *testing.T, app *fiber.App, target string) (*http.Response, []byte) {
	t.Helper()
	return doRequest(t, app, httptest.NewRequest(http.MethodGet, target, nil))
}

func decode(t *testing.T, body []byte, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body, v), string(body))
}
