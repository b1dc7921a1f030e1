package backtest

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"

	"github.com/soltixdb/txcast/internal/analytics"
)

// Metrics holds the accuracy of a prediction against actual values.
// MAPE is a percentage.
type Metrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	MAPE float64 `json:"mape"`
}

// Round returns a copy with every metric rounded to the given decimals
func (m Metrics) Round(decimals int) Metrics {
	return Metrics{
		MAE:  scalar.Round(m.MAE, decimals),
		RMSE: scalar.Round(m.RMSE, decimals),
		MAPE: scalar.Round(m.MAPE, decimals),
	}
}

// Score computes MAE, RMSE and MAPE. For MAPE an actual value of zero is
// divided by one instead, so zero-volume periods contribute their absolute
// error rather than an undefined ratio.
func Score(actual, predicted []float64) (Metrics, error) {
	if len(actual) != len(predicted) {
		return Metrics{}, &analytics.ShapeMismatchError{Actual: len(actual), Predicted: len(predicted)}
	}
	if len(actual) == 0 {
		return Metrics{}, &analytics.InsufficientDataError{Op: "score", Need: 1, Have: 0}
	}

	n := len(actual)
	residuals := floats.SubTo(make([]float64, n), actual, predicted)

	absErr := make([]float64, n)
	sqErr := make([]float64, n)
	pctErr := make([]float64, n)
	for i, r := range residuals {
		absErr[i] = math.Abs(r)
		sqErr[i] = r * r

		denom := actual[i]
		if denom == 0 {
			denom = 1
		}
		pctErr[i] = math.Abs(r / denom)
	}

	return Metrics{
		MAE:  stat.Mean(absErr, nil),
		RMSE: math.Sqrt(stat.Mean(sqErr, nil)),
		MAPE: stat.Mean(pctErr, nil) * 100,
	}, nil
}
