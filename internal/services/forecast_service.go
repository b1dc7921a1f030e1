package services

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"github.com/soltixdb/txcast/internal/analytics/backtest"
	"github.com/soltixdb/txcast/internal/analytics/forecast"
	"github.com/soltixdb/txcast/internal/cache"
	"github.com/soltixdb/txcast/internal/config"
	"github.com/soltixdb/txcast/internal/dataset"
	"github.com/soltixdb/txcast/internal/events"
	"github.com/soltixdb/txcast/internal/export"
	"github.com/soltixdb/txcast/internal/logging"
)

// ForecastService backtests the forecasting strategies on a regularized
// series and projects it forward
type ForecastService struct {
	logger      *logging.Logger
	store       *dataset.Store
	cache       cache.Typed
	emitter     *events.Emitter
	cfg         config.ForecastConfig
	skipInvalid bool
}

// NewForecastService creates a new ForecastService
func NewForecastService(
	logger *logging.Logger,
	store *dataset.Store,
	resultCache cache.Typed,
	emitter *events.Emitter,
	cfg *config.Config,
) *ForecastService {
	if resultCache.Cache == nil {
		resultCache.Cache = cache.NewNop()
	}
	if emitter == nil {
		emitter = events.NewEmitter(events.NewNop(), "", logger)
	}
	return &ForecastService{
		logger:      logger.WithComponent("forecast"),
		store:       store,
		cache:       resultCache,
		emitter:     emitter,
		cfg:         cfg.Forecast,
		skipInvalid: cfg.Dataset.SkipInvalidMarkers,
	}
}

// ForecastRequest represents a forecast request. Empty fields take the
// configured defaults; an explicit horizon is always range checked.
type ForecastRequest struct {
	SeriesQuery
	Model     string
	Horizon   *int
	RequestID string
}

// ModelScore is the holdout accuracy of one strategy
type ModelScore struct {
	Model     string           `json:"model"`
	Metrics   backtest.Metrics `json:"metrics"`
	Predicted []Point          `json:"predicted"`
	Fallback  bool             `json:"fallback"`
}

// BacktestResult describes the holdout evaluation
type BacktestResult struct {
	TrainSize   int               `json:"train_size"`
	HoldoutSize int               `json:"holdout_size"`
	Holdout     []Point           `json:"holdout"`
	Models      []ModelScore      `json:"models"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// ForecastResponse represents the complete forecast response
type ForecastResponse struct {
	Model           string             `json:"model"`
	Granularity     string             `json:"granularity"`
	Horizon         int                `json:"horizon"`
	Metric          string             `json:"metric"`
	State           string             `json:"state,omitempty"`
	TransactionType string             `json:"transaction_type,omitempty"`
	Historical      []Point            `json:"historical"`
	Forecast        []Point            `json:"forecast"`
	Metrics         backtest.Metrics   `json:"metrics"`
	Backtest        BacktestResult     `json:"backtest"`
	ModelInfo       forecast.ModelInfo `json:"model_info"`
	DatasetVersion  string             `json:"dataset_version"`
	Cached          bool               `json:"cached"`
}

// ExportResult is a rendered forecast file
type ExportResult struct {
	Data        []byte
	ContentType string
	Filename    string
}

// resolved holds a validated request
type resolved struct {
	strategy forecast.Strategy
	horizon  int
}

func (s *ForecastService) resolve(req *ForecastRequest) (resolved, error) {
	model := req.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}
	strategy, err := forecast.ParseStrategy(model)
	if err != nil {
		return resolved{}, NewServiceErrorWithDetails(CodeInvalidModel, err.Error(), map[string]interface{}{
			"available": forecast.Strategies(),
		})
	}

	horizon := s.cfg.DefaultHorizon
	if req.Horizon != nil {
		horizon = *req.Horizon
	}
	if horizon < s.cfg.MinHorizon || horizon > s.cfg.MaxHorizon {
		return resolved{}, NewServiceErrorWithDetails(CodeInvalidHorizon, "horizon out of range", map[string]interface{}{
			"horizon": horizon,
			"min":     s.cfg.MinHorizon,
			"max":     s.cfg.MaxHorizon,
		})
	}

	return resolved{strategy: strategy, horizon: horizon}, nil
}

func (s *ForecastService) fitConfig() forecast.Config {
	return forecast.Config{
		FallbackToNaive: s.cfg.FallbackToNaive,
		MaxIterations:   s.cfg.MaxIterations,
	}
}

// Execute backtests both strategies on the holdout, scores the requested
// one and assembles its forecast over the full series
func (s *ForecastService) Execute(ctx context.Context, req *ForecastRequest) (*ForecastResponse, error) {
	startExec := time.Now()

	r, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	gran, err := resolveGranularity(req.Granularity, s.cfg.DefaultGranularity)
	if err != nil {
		return nil, err
	}
	metric, err := dataset.ParseMetric(req.Metric)
	if err != nil {
		return nil, NewServiceError(CodeInvalidMetric, err.Error())
	}

	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, translateError(err)
	}

	key := cache.Key("forecast", snap.Version, string(r.strategy), string(gran), strconv.Itoa(r.horizon),
		string(metric), req.State, req.TransactionType)

	var cached ForecastResponse
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.Warn("Forecast cache read failed", "key", key, "error", err)
	} else if hit {
		cached.Cached = true
		s.logger.Debug("Forecast served from cache", "key", key)
		return &cached, nil
	}

	series, report, err := buildSeries(snap, req.SeriesQuery, gran, s.skipInvalid)
	if err != nil {
		return nil, err
	}
	if report.Skipped > 0 {
		s.logger.Warn("Skipped unusable records", "skipped", report.Skipped, "records", report.Records)
	}

	fitCfg := s.fitConfig()

	cmp, err := backtest.Compare(series, fitCfg)
	if err != nil {
		return nil, translateError(err)
	}

	result := BacktestResult{Errors: cmp.Errors}
	var selected *backtest.Evaluation
	for _, eval := range cmp.Evaluations {
		result.TrainSize = eval.Train
		result.HoldoutSize = len(eval.Holdout)
		result.Holdout = toPoints(eval.Holdout)

		predicted := make([]Point, len(eval.Predicted))
		for i, v := range eval.Predicted {
			predicted[i] = Point{Date: result.Holdout[i].Date, Value: v}
		}
		result.Models = append(result.Models, ModelScore{
			Model:     string(eval.Strategy),
			Metrics:   eval.Metrics.Round(s.cfg.MetricDecimals),
			Predicted: predicted,
			Fallback:  eval.ModelInfo.Fallback,
		})
		if eval.Strategy == r.strategy {
			selected = eval
		}
	}
	if selected == nil {
		// The requested strategy could not be backtested; report why
		_, err := backtest.Evaluate(series, r.strategy, fitCfg)
		return nil, translateError(err)
	}

	fc, err := forecast.Assemble(series, r.horizon, r.strategy, fitCfg)
	if err != nil {
		return nil, translateError(err)
	}

	resp := &ForecastResponse{
		Model:           string(r.strategy),
		Granularity:     string(gran),
		Horizon:         r.horizon,
		Metric:          string(metric),
		State:           req.State,
		TransactionType: req.TransactionType,
		Historical:      toPoints(series.Points),
		Forecast:        toPoints(fc.Points),
		Metrics:         selected.Metrics.Round(s.cfg.MetricDecimals),
		Backtest:        result,
		ModelInfo:       fc.ModelInfo,
		DatasetVersion:  snap.Version,
	}

	if err := s.cache.Set(ctx, key, resp); err != nil {
		s.logger.Warn("Forecast cache write failed", "key", key, "error", err)
	}

	latency := time.Since(startExec)
	if fc.ModelInfo.Fallback {
		s.logger.Warn("Trend smoothing fell back to naive", "reason", fc.ModelInfo.FallbackReason)
	}
	s.logger.Info("Forecast completed",
		"model", resp.Model,
		"granularity", resp.Granularity,
		"horizon", resp.Horizon,
		"data_points", series.Len(),
		"mae", resp.Metrics.MAE,
		"fallback", fc.ModelInfo.Fallback,
		"latency_ms", latency.Milliseconds())

	s.emitter.EmitAsync(events.TypeForecastCompleted, events.ForecastCompleted{
		RequestID:       req.RequestID,
		Model:           resp.Model,
		Requested:       req.Model,
		Granularity:     resp.Granularity,
		Horizon:         resp.Horizon,
		State:           req.State,
		TransactionType: req.TransactionType,
		DataPoints:      series.Len(),
		MAE:             resp.Metrics.MAE,
		RMSE:            resp.Metrics.RMSE,
		MAPE:            resp.Metrics.MAPE,
		Fallback:        fc.ModelInfo.Fallback,
		DatasetVersion:  snap.Version,
		LatencyMs:       latency.Milliseconds(),
	})

	return resp, nil
}

// Export renders the forecast of req as a downloadable file. The
// historical series is included as a second table for JSON and XLSX.
func (s *ForecastService) Export(ctx context.Context, req *ForecastRequest, format string) (*ExportResult, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, NewServiceError(CodeInvalidFormat, err.Error())
	}

	resp, err := s.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	tables := []export.Table{
		pointsTable("forecast", "forecast", resp.Forecast),
		pointsTable("history", "value", resp.Historical),
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, f, tables...); err != nil {
		return nil, NewServiceError(CodeInternal, err.Error())
	}

	return &ExportResult{
		Data:        buf.Bytes(),
		ContentType: f.ContentType(),
		Filename:    f.Filename("upi_forecast"),
	}, nil
}

// pointsTable lays out response points as date,<column> rows
func pointsTable(name, column string, points []Point) export.Table {
	rows := make([][]interface{}, len(points))
	for i, p := range points {
		if t, err := time.Parse(export.DateLayout, p.Date); err == nil {
			rows[i] = []interface{}{t, p.Value}
		} else {
			rows[i] = []interface{}{p.Date, p.Value}
		}
	}
	return export.Table{Name: name, Header: []string{"date", column}, Rows: rows}
}
