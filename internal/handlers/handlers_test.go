package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/txcast/internal/dataset"
	"github.com/soltixdb/txcast/internal/logging"
	"github.com/soltixdb/txcast/internal/models"
	"github.com/soltixdb/txcast/internal/services"
)

func TestHandler_Health(t *testing.T) {
	app := newTestApp(t, loadedStore())

	resp, body := get(t, app, "/health")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var health models.HealthResponse
	decode(t, body, &health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, Version, health.Version)
	assert.NotEmpty(t, health.Timestamp)
	require.NotNil(t, health.Dataset)
	assert.Equal(t, "handler-v1", health.Dataset.Version)
	assert.Equal(t, 40, health.Dataset.Records)
	assert.Equal(t, 2, health.Dataset.Users)
}

func TestHandler_Health_Degraded(t *testing.T) {
	app := newTestApp(t, dataset.NewStore("", "", logging.Nop()))

	resp, body := get(t, app, "/health")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var health models.HealthResponse
	decode(t, body, &health)
	assert.Equal(t, "degraded", health.Status)
	assert.Nil(t, health.Dataset)
}

func TestHandler_NotFound(t *testing.T) {
	app := newTestApp(t, loadedStore())

	resp, body := get(t, app, "/nonexistent")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var errResp models.ErrorResponse
	decode(t, body, &errResp)
	assert.Equal(t, "NOT_FOUND", errResp.Error.Code)
	assert.Equal(t, "Route not found", errResp.Error.Message)
	assert.Equal(t, "/nonexistent", errResp.Error.Path)
}

func TestHandler_Summary(t *testing.T) {
	app := newTestApp(t, loadedStore())

	resp, body := get(t, app, "/v1/summary")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var summary dataset.Summary
	decode(t, body, &summary)
	assert.InDelta(t, 5850, summary.TotalTransactions, 1e-9)

	resp, body = get(t, app, "/v1/summary?year=2019&quarter=1")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, body, &summary)
	// quarter index 4: 140 + 70
	assert.InDelta(t, 210, summary.TotalTransactions, 1e-9)
}

func TestHandler_Summary_BadParameters(t *testing.T) {
	app := newTestApp(t, loadedStore())

	for _, target := range []string{"/v1/summary?year=abc", "/v1/summary?quarter=5"} {
		resp, body := get(t, app, target)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, target)

		var errResp models.ErrorResponse
		decode(t, body, &errResp)
		assert.Equal(t, services.CodeInvalidParameter, errResp.Error.Code, target)
	}
}

func TestHandler_States(t *testing.T) {
	app := newTestApp(t, loadedStore())

	resp, body := get(t, app, "/v1/states?limit=1")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var states models.StatesResponse
	decode(t, body, &states)
	require.Len(t, states.States, 1)
	assert.Equal(t, "Tamil Nadu", states.States[0].Name)

	resp, _ = get(t, app, "/v1/states?limit=500")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandler_State(t *testing.T) {
	app := newTestApp(t, loadedStore())

	resp, body := get(t, app, "/v1/states/Tamil%20Nadu")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var detail services.StateResponse
	decode(t, body, &detail)
	assert.Equal(t, "Tamil Nadu", detail.State)
	assert.Len(t, detail.TimeSeries, 20)

	resp, body = get(t, app, "/v1/states/Atlantis")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var errResp models.ErrorResponse
	decode(t, body, &errResp)
	assert.Equal(t, "State 'Atlantis' not found", errResp.Error.Message)
}

func TestHandler_TypesAndBrands(t *testing.T) {
	app := newTestApp(t, loadedStore())

	resp, body := get(t, app, "/v1/types?type=Merchant%20payments")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var types models.TypesResponse
	decode(t, body, &types)
	require.Len(t, types.Types, 1)
	assert.Equal(t, "Merchant payments", types.Types[0].Name)

	resp, body = get(t, app, "/v1/brands")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var brands models.BrandsResponse
	decode(t, body, &brands)
	require.Len(t, brands.Brands, 2)
	assert.Equal(t, "Xiaomi", brands.Brands[0].Name)
	assert.InDelta(t, 75, brands.Brands[0].Percentage, 1e-9)
}

func TestHandler_TimeSeries(t *testing.T) {
	app := newTestApp(t, loadedStore())

	resp, body := get(t, app, "/v1/timeseries?state=Delhi&granularity=Y")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var ts services.TimeSeriesResponse
	decode(t, body, &ts)
	assert.Equal(t, "Y", ts.Granularity)
	require.Len(t, ts.Points, 5)
	// 2018: 50+55+60+65
	assert.Equal(t, services.Point{Date: "2018-12-31", Value: 230}, ts.Points[0])

	resp, _ = get(t, app, "/v1/timeseries?granularity=W")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandler_Forecast_Get(t *testing.T) {
	app := newTestApp(t, loadedStore())

	resp, body := get(t, app, "/v1/forecast?model=naive&horizon=2")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var fc services.ForecastResponse
	decode(t, body, &fc)
	assert.Equal(t, "naive", fc.Model)
	assert.Equal(t, "handler-v1", fc.DatasetVersion)
	assert.Equal(t, []services.Point{
		{Date: "2023-03-31", Value: 435},
		{Date: "2023-06-30", Value: 435},
	}, fc.Forecast)
	assert.InDelta(t, 37.5, fc.Metrics.MAE, 1e-9)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestHandler_Forecast_Post(t *testing.T) {
	app := newTestApp(t, loadedStore())

	req := httptest.NewRequest(http.MethodPost, "/v1/forecast",
		strings.NewReader(`{"model":"naive","horizon":1,"state":"Delhi"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, body := doRequest(t, app, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

	var fc services.ForecastResponse
	decode(t, body, &fc)
	assert.Equal(t, "Delhi", fc.State)
	// last Delhi quarter: 50 + 5*19
	assert.Equal(t, []services.Point{{Date: "2023-03-31", Value: 145}}, fc.Forecast)
}

func TestHandler_Forecast_Errors(t *testing.T) {
	app := newTestApp(t, loadedStore())

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"malformed horizon", "/v1/forecast?horizon=abc", fiber.StatusBadRequest, services.CodeInvalidHorizon},
		{"horizon out of range", "/v1/forecast?horizon=40", fiber.StatusBadRequest, services.CodeInvalidHorizon},
		{"zero horizon", "/v1/forecast?horizon=0", fiber.StatusBadRequest, services.CodeInvalidHorizon},
		{"zero horizon export", "/v1/forecast/export?horizon=0&format=csv", fiber.StatusBadRequest, services.CodeInvalidHorizon},
		{"unknown model", "/v1/forecast?model=prophet", fiber.StatusBadRequest, services.CodeInvalidModel},
		{"unknown state", "/v1/forecast?state=Atlantis", fiber.StatusNotFound, services.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, app, tt.target)
			assert.Equal(t, tt.status, resp.StatusCode)

			var errResp models.ErrorResponse
			decode(t, body, &errResp)
			assert.Equal(t, tt.code, errResp.Error.Code)
		})
	}
}

func TestHandler_ForecastPost_Horizon(t *testing.T) {
	app := newTestApp(t, loadedStore())

	post := func(payload string) (*http.Response, []byte) {
		req := httptest.NewRequest(http.MethodPost, "/v1/forecast", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		return doRequest(t, app, req)
	}

	resp, body := post(`{"model":"naive","horizon":0}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode, string(body))
	var errResp models.ErrorResponse
	decode(t, body, &errResp)
	assert.Equal(t, services.CodeInvalidHorizon, errResp.Error.Code)

	// absent horizon takes the configured default
	resp, body = post(`{"model":"naive"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	var fc services.ForecastResponse
	decode(t, body, &fc)
	assert.Equal(t, 4, fc.Horizon)
	assert.Len(t, fc.Forecast, 4)
}

func TestHandler_ForecastPost_InvalidJSON(t *testing.T) {
	app := newTestApp(t, loadedStore())

	req := httptest.NewRequest(http.MethodPost, "/v1/forecast", strings.NewReader(`{"horizon":`))
	req.Header.Set("Content-Type", "application/json")
	resp, body := doRequest(t, app, req)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var errResp models.ErrorResponse
	decode(t, body, &errResp)
	assert.Equal(t, "INVALID_JSON", errResp.Error.Code)
}

func TestHandler_ForecastExport(t *testing.T) {
	app := newTestApp(t, loadedStore())

	resp, body := get(t, app, "/v1/forecast/export?model=naive&horizon=2&format=csv")
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="upi_forecast.csv"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "date,forecast\n2023-03-31,435\n2023-06-30,435\n", string(body))

	resp, _ = get(t, app, "/v1/forecast/export?format=pdf")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandler_Export(t *testing.T) {
	app := newTestApp(t, loadedStore())

	resp, body := get(t, app, "/v1/export?format=json")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="upi_data.json"`, resp.Header.Get("Content-Disposition"))
	assert.Contains(t, string(body), "Tamil Nadu")
}

func TestHandler_Reload(t *testing.T) {
	app := newTestApp(t, loadedStore())

	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var reload models.ReloadResponse
	decode(t, body, &reload)
	assert.Equal(t, "Dataset reloaded", reload.Message)
	require.NotNil(t, reload.Dataset)
	assert.Equal(t, "handler-v1", reload.Dataset.Version)
}

func TestHandler_Reload_Unavailable(t *testing.T) {
	app := newTestApp(t, dataset.NewStore("", "", logging.Nop()))

	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var errResp models.ErrorResponse
	decode(t, body, &errResp)
	assert.Equal(t, services.CodeDatasetUnavailable, errResp.Error.Code)
}
