package forecast

import (
	"github.com/soltixdb/txcast/internal/analytics"
)

// naive repeats the last value horizon times
func naive(values []float64, horizon int) (*Fit, error) {
	if len(values) == 0 {
		return nil, &analytics.InsufficientDataError{Op: string(Naive), Need: 1, Have: 0}
	}

	last := values[len(values)-1]
	predictions := make([]float64, horizon)
	for i := range predictions {
		predictions[i] = last
	}

	return &Fit{
		Values: predictions,
		ModelInfo: ModelInfo{
			Algorithm: string(Naive),
			Requested: string(Naive),
			Parameters: map[string]interface{}{
				"last_value": last,
			},
			DataPoints: len(values),
		},
	}, nil
}
