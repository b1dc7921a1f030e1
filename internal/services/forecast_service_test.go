package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/txcast/internal/cache"
	"github.com/soltixdb/txcast/internal/dataset"
	"github.com/soltixdb/txcast/internal/events"
	"github.com/soltixdb/txcast/internal/logging"
)

func TestForecastService_Execute_Naive(t *testing.T) {
	f := newFixture(t, linearRecords())

	resp, err := f.forecast.Execute(context.Background(), &ForecastRequest{Model: "naive", Horizon: horizon(3)})
	require.NoError(t, err)

	assert.Equal(t, "naive", resp.Model)
	assert.Equal(t, "Q", resp.Granularity)
	assert.Equal(t, "count", resp.Metric)
	assert.Equal(t, "test-v1", resp.DatasetVersion)
	assert.False(t, resp.Cached)

	require.Len(t, resp.Historical, 20)
	assert.Equal(t, Point{Date: "2018-03-31", Value: 150}, resp.Historical[0])
	assert.Equal(t, Point{Date: "2022-12-31", Value: 435}, resp.Historical[19])

	assert.Equal(t, []Point{
		{Date: "2023-03-31", Value: 435},
		{Date: "2023-06-30", Value: 435},
		{Date: "2023-09-30", Value: 435},
	}, resp.Forecast)

	// Holdout of 4 quarters predicted flat at 375
	assert.Equal(t, 16, resp.Backtest.TrainSize)
	assert.Equal(t, 4, resp.Backtest.HoldoutSize)
	assert.InDelta(t, 37.5, resp.Metrics.MAE, 1e-9)
	assert.InDelta(t, 41.08, resp.Metrics.RMSE, 1e-9)
	assert.InDelta(t, 8.94, resp.Metrics.MAPE, 1e-9)

	require.Len(t, resp.Backtest.Models, 2)
	models := map[string]ModelScore{}
	for _, m := range resp.Backtest.Models {
		models[m.Model] = m
	}
	assert.Contains(t, models, "naive")
	assert.Contains(t, models, "trend_smoothing")
	assert.Less(t, models["trend_smoothing"].Metrics.MAE, models["naive"].Metrics.MAE)
	assert.Equal(t, "2022-03-31", models["naive"].Predicted[0].Date)
}

func TestForecastService_Execute_Defaults(t *testing.T) {
	f := newFixture(t, linearRecords())

	resp, err := f.forecast.Execute(context.Background(), &ForecastRequest{})
	require.NoError(t, err)

	assert.Equal(t, "trend_smoothing", resp.Model)
	require.Len(t, resp.Forecast, 4)
	assert.Equal(t, "2023-12-31", resp.Forecast[3].Date)

	// Exact linear data: the trend continues
	assert.InDelta(t, 450, resp.Forecast[0].Value, 1)
	assert.InDelta(t, 495, resp.Forecast[3].Value, 1)
	assert.False(t, resp.ModelInfo.Fallback)
	assert.Equal(t, 20, resp.ModelInfo.DataPoints)
}

func TestForecastService_Execute_Filters(t *testing.T) {
	f := newFixture(t, linearRecords())

	resp, err := f.forecast.Execute(context.Background(), &ForecastRequest{
		SeriesQuery: SeriesQuery{State: "karnataka", Granularity: "Y", Metric: "amount"},
		Model:       "naive",
		Horizon:     horizon(2),
	})
	require.NoError(t, err)

	assert.Equal(t, "Y", resp.Granularity)
	assert.Equal(t, "amount", resp.Metric)
	require.Len(t, resp.Historical, 5)
	// 2018: 1000+1100+1200+1300
	assert.Equal(t, Point{Date: "2018-12-31", Value: 4600}, resp.Historical[0])
	assert.Equal(t, "2024-12-31", resp.Forecast[1].Date)
}

func TestForecastService_Execute_Validation(t *testing.T) {
	f := newFixture(t, linearRecords())
	ctx := context.Background()

	tests := []struct {
		name string
		req  ForecastRequest
		code string
	}{
		{"horizon too large", ForecastRequest{Horizon: horizon(13)}, CodeInvalidHorizon},
		{"negative horizon", ForecastRequest{Horizon: horizon(-1)}, CodeInvalidHorizon},
		{"zero horizon", ForecastRequest{Horizon: horizon(0)}, CodeInvalidHorizon},
		{"unknown model", ForecastRequest{Model: "prophet"}, CodeInvalidModel},
		{"bad granularity", ForecastRequest{SeriesQuery: SeriesQuery{Granularity: "W"}}, CodeInvalidGranularity},
		{"bad metric", ForecastRequest{SeriesQuery: SeriesQuery{Metric: "users"}}, CodeInvalidMetric},
		{"unknown state", ForecastRequest{SeriesQuery: SeriesQuery{State: "Atlantis"}}, CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.forecast.Execute(ctx, &req)
			requireServiceError(t, err, tt.code)
		})
	}
}

func TestForecastService_Execute_InsufficientData(t *testing.T) {
	f := newFixture(t, []dataset.Record{
		{Year: 2022, Quarter: 4, State: "Goa", Count: 10},
	})

	_, err := f.forecast.Execute(context.Background(), &ForecastRequest{Model: "naive"})
	requireServiceError(t, err, CodeInsufficientData)
}

func TestForecastService_Execute_NotLoaded(t *testing.T) {
	logger := logging.Nop()
	store := dataset.NewStore("", "", logger)
	svc := NewForecastService(logger, store, cache.Typed{}, nil, testConfig())

	_, err := svc.Execute(context.Background(), &ForecastRequest{})
	requireServiceError(t, err, CodeDatasetUnavailable)
}

func TestForecastService_Execute_Cached(t *testing.T) {
	f := newFixture(t, linearRecords())
	ctx := context.Background()

	first, err := f.forecast.Execute(ctx, &ForecastRequest{Model: "naive", Horizon: horizon(2)})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := f.forecast.Execute(ctx, &ForecastRequest{Model: "naive", Horizon: horizon(2)})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Forecast, second.Forecast)
	assert.Equal(t, first.Metrics, second.Metrics)

	// Different horizon is a different entry
	third, err := f.forecast.Execute(ctx, &ForecastRequest{Model: "naive", Horizon: horizon(3)})
	require.NoError(t, err)
	assert.False(t, third.Cached)
}

func TestForecastService_Execute_PublishesEvent(t *testing.T) {
	f := newFixture(t, linearRecords())

	got := make(chan events.Event, 1)
	require.NoError(t, f.emitter.On(events.TypeForecastCompleted, func(_ context.Context, ev events.Event) error {
		got <- ev
		return nil
	}))

	_, err := f.forecast.Execute(context.Background(), &ForecastRequest{Model: "naive", RequestID: "req-1"})
	require.NoError(t, err)

	select {
	case ev := <-got:
		var payload events.ForecastCompleted
		require.NoError(t, json.Unmarshal(ev.Data, &payload))
		assert.Equal(t, "req-1", payload.RequestID)
		assert.Equal(t, "naive", payload.Model)
		assert.Equal(t, 4, payload.Horizon)
		assert.Equal(t, 20, payload.DataPoints)
		assert.Equal(t, "test-v1", payload.DatasetVersion)
	case <-time.After(5 * time.Second):
		t.Fatal("forecast.completed not published")
	}
}

func TestForecastService_Export(t *testing.T) {
	f := newFixture(t, linearRecords())

	result, err := f.forecast.Export(context.Background(), &ForecastRequest{Model: "naive", Horizon: horizon(2)}, "csv")
	require.NoError(t, err)

	assert.Equal(t, "upi_forecast.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "date,forecast\n2023-03-31,435\n2023-06-30,435\n", string(result.Data))

	result, err = f.forecast.Export(context.Background(), &ForecastRequest{Model: "naive", Horizon: horizon(2)}, "json")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(result.Data), `"history"`))

	_, err = f.forecast.Export(context.Background(), &ForecastRequest{}, "pdf")
	requireServiceError(t, err, CodeInvalidFormat)
}
