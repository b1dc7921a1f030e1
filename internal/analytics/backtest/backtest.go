package backtest

import (
	"fmt"

	"github.com/soltixdb/txcast/internal/analytics"
	"github.com/soltixdb/txcast/internal/analytics/forecast"
)

// Evaluation is the holdout result of one strategy
type Evaluation struct {
	Strategy  forecast.Strategy        `json:"strategy"`
	Train     int                      `json:"train_size"`
	Holdout   analytics.TimeSeriesData `json:"holdout"`
	Predicted []float64                `json:"predicted"`
	Metrics   Metrics                  `json:"metrics"`
	ModelInfo forecast.ModelInfo       `json:"model_info"`
}

// Evaluate fits s on the training prefix, predicts the holdout and scores it
func Evaluate(series analytics.Series, s forecast.Strategy, cfg forecast.Config) (*Evaluation, error) {
	train, test, err := Split(series)
	if err != nil {
		return nil, err
	}

	fit, err := forecast.Run(s, train.Values(), test.Len(), cfg)
	if err != nil {
		return nil, fmt.Errorf("backtest %s: %w", s, err)
	}

	metrics, err := Score(test.Values(), fit.Values)
	if err != nil {
		return nil, fmt.Errorf("backtest %s: %w", s, err)
	}

	return &Evaluation{
		Strategy:  s,
		Train:     train.Len(),
		Holdout:   test.Points,
		Predicted: fit.Values,
		Metrics:   metrics,
		ModelInfo: fit.ModelInfo,
	}, nil
}

// Comparison is the outcome of evaluating several strategies on one split
type Comparison struct {
	Evaluations []*Evaluation     `json:"evaluations"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// Compare evaluates each strategy on the same holdout. A strategy that
// cannot be evaluated (for example trend smoothing on a one-period
// training set) is reported in Errors without failing the others.
func Compare(series analytics.Series, cfg forecast.Config, strategies ...forecast.Strategy) (*Comparison, error) {
	if len(strategies) == 0 {
		strategies = forecast.Strategies()
	}
	if _, _, err := Split(series); err != nil {
		return nil, err
	}

	cmp := &Comparison{}
	for _, s := range strategies {
		eval, err := Evaluate(series, s, cfg)
		if err != nil {
			if cmp.Errors == nil {
				cmp.Errors = make(map[string]string)
			}
			cmp.Errors[string(s)] = err.Error()
			continue
		}
		cmp.Evaluations = append(cmp.Evaluations, eval)
	}
	return cmp, nil
}
