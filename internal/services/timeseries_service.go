package services

import (
	"context"

	"github.com/soltixdb/txcast/internal/config"
	"github.com/soltixdb/txcast/internal/dataset"
	"github.com/soltixdb/txcast/internal/logging"
)

// TimeSeriesService serves regularized series for charting
type TimeSeriesService struct {
	logger      *logging.Logger
	store       *dataset.Store
	defaultGran string
	skipInvalid bool
}

// NewTimeSeriesService creates a new TimeSeriesService
func NewTimeSeriesService(logger *logging.Logger, store *dataset.Store, cfg *config.Config) *TimeSeriesService {
	return &TimeSeriesService{
		logger:      logger.WithComponent("timeseries"),
		store:       store,
		defaultGran: cfg.Forecast.DefaultGranularity,
		skipInvalid: cfg.Dataset.SkipInvalidMarkers,
	}
}

// TimeSeriesResponse is a gap-filled series
type TimeSeriesResponse struct {
	Granularity string  `json:"granularity"`
	Metric      string  `json:"metric"`
	Points      []Point `json:"timeseries"`
	Filled      int     `json:"filled_periods"`
	Skipped     int     `json:"skipped_records"`
}

// Execute aggregates the records matching q
func (s *TimeSeriesService) Execute(_ context.Context, q SeriesQuery) (*TimeSeriesResponse, error) {
	gran, err := resolveGranularity(q.Granularity, s.defaultGran)
	if err != nil {
		return nil, err
	}

	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, translateError(err)
	}

	series, report, err := buildSeries(snap, q, gran, s.skipInvalid)
	if err != nil {
		return nil, err
	}

	metric, _ := dataset.ParseMetric(q.Metric)
	s.logger.Debug("Time series built",
		"granularity", gran,
		"periods", report.Periods,
		"filled", report.Filled,
		"skipped", report.Skipped)

	return &TimeSeriesResponse{
		Granularity: string(gran),
		Metric:      string(metric),
		Points:      toPoints(series.Points),
		Filled:      report.Filled,
		Skipped:     report.Skipped,
	}, nil
}
