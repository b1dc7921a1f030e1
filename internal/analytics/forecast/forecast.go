// Package forecast fits the supported forecasting strategies to a regular
// series and assembles labelled forecasts.
package forecast

import (
	"fmt"
	"strings"

	"github.com/soltixdb/txcast/internal/analytics"
)

// Strategy is the closed set of forecasting strategies
type Strategy string

const (
	// Naive repeats the last observed value
	Naive Strategy = "naive"
	// TrendSmoothing is additive-trend exponential smoothing (Holt linear)
	TrendSmoothing Strategy = "trend_smoothing"
)

// Strategies lists every strategy in comparison order: baseline first
func Strategies() []Strategy {
	return []Strategy{Naive, TrendSmoothing}
}

// ParseStrategy resolves a strategy name. The dashboard's historical
// names for the smoothing model are accepted as aliases.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "naive", "baseline", "last":
		return Naive, nil
	case "trend_smoothing", "trend", "holt", "holt_winters", "hw":
		return TrendSmoothing, nil
	default:
		return "", fmt.Errorf("unknown strategy: %s", name)
	}
}

// String returns the wire name of the strategy
func (s Strategy) String() string {
	return string(s)
}

// Config tunes the fit. The zero value is valid and strict.
type Config struct {
	// FallbackToNaive returns the naive forecast, flagged in ModelInfo,
	// when the smoothing fit does not converge. When false a
	// *analytics.ConvergenceError is returned instead.
	FallbackToNaive bool
	// MaxIterations bounds the optimizer's major iterations. 0 means
	// DefaultMaxIterations.
	MaxIterations int
}

// DefaultMaxIterations bounds the smoothing parameter search
const DefaultMaxIterations = 2000

// DefaultConfig returns the configuration used by the service layer
func DefaultConfig() Config {
	return Config{
		FallbackToNaive: true,
		MaxIterations:   DefaultMaxIterations,
	}
}

// ModelInfo contains metadata about the fitted model
type ModelInfo struct {
	Algorithm      string                 `json:"algorithm"`
	Requested      string                 `json:"requested"`
	Parameters     map[string]interface{} `json:"parameters,omitempty"`
	DataPoints     int                    `json:"data_points"`
	SSE            float64                `json:"sse,omitempty"`
	Fallback       bool                   `json:"fallback"`
	FallbackReason string                 `json:"fallback_reason,omitempty"`
}

// Fit is the output of a strategy: the horizon predictions and, for
// smoothing, the in-sample one-step-ahead predictions.
type Fit struct {
	Values    []float64 `json:"values"`
	Fitted    []float64 `json:"fitted,omitempty"`
	ModelInfo ModelInfo `json:"model_info"`
}

// Run fits strategy s to values and predicts horizon steps ahead.
// It is the single dispatch point over the strategy set.
func Run(s Strategy, values []float64, horizon int, cfg Config) (*Fit, error) {
	if horizon < 1 {
		return nil, analytics.ErrInvalidHorizon
	}

	switch s {
	case Naive:
		return naive(values, horizon)
	case TrendSmoothing:
		return trendSmoothing(values, horizon, cfg)
	default:
		return nil, fmt.Errorf("unknown strategy: %s", s)
	}
}
