package forecast

import (
	"github.com/soltixdb/txcast/internal/analytics"
	"github.com/soltixdb/txcast/internal/analytics/period"
)

// Forecast is a strategy's prediction labelled with the future periods
// that immediately follow the input series.
type Forecast struct {
	Strategy    Strategy                 `json:"strategy"`
	Granularity period.Granularity       `json:"granularity"`
	Points      analytics.TimeSeriesData `json:"points"`
	Fitted      []float64                `json:"fitted,omitempty"`
	ModelInfo   ModelInfo                `json:"model_info"`
}

// Len returns the horizon of the forecast
func (f *Forecast) Len() int {
	return len(f.Points)
}

// Assemble fits strategy s on the full series and labels the horizon
// predictions with the periods following the last observed one.
func Assemble(series analytics.Series, horizon int, s Strategy, cfg Config) (*Forecast, error) {
	if horizon < 1 {
		return nil, analytics.ErrInvalidHorizon
	}
	if series.Len() == 0 {
		return nil, &analytics.InsufficientDataError{Op: "assemble", Need: 1, Have: 0}
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	fit, err := Run(s, series.Values(), horizon, cfg)
	if err != nil {
		return nil, err
	}

	last := series.Last().Time
	points := make(analytics.TimeSeriesData, horizon)
	for i, v := range fit.Values {
		points[i] = analytics.TimeSeriesPoint{
			Time:  period.Advance(last, series.Granularity, i+1),
			Value: v,
		}
	}

	return &Forecast{
		Strategy:    s,
		Granularity: series.Granularity,
		Points:      points,
		Fitted:      fit.Fitted,
		ModelInfo:   fit.ModelInfo,
	}, nil
}
