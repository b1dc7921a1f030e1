package forecast

import (
	"math"
	"time"

	"github.com/soltixdb/txcast/internal/analytics"
	"github.com/soltixdb/txcast/internal/analytics/period"
)

// Common test data and helpers for all forecast tests

var testStart = time.Date(2018, time.March, 31, 0, 0, 0, 0, time.UTC)

// quarterly builds a quarterly series starting at testStart
func quarterly(values ...float64) analytics.Series {
	points := make(analytics.TimeSeriesData, len(values))
	for i, v := range values {
		points[i] = analytics.TimeSeriesPoint{Time: period.Advance(testStart, period.Quarter, i), Value: v}
	}
	return analytics.Series{Granularity: period.Quarter, Points: points}
}

// generateLinear creates values following y = slope * x + intercept
func generateLinear(n int, slope, intercept float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = slope*float64(i) + intercept
	}
	return values
}

// generateNoisyTrend creates a deterministic trend with a bounded wobble
func generateNoisyTrend(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = 1000 + 120*float64(i) + 90*math.Sin(float64(i)*1.7)
	}
	return values
}

func almostEqual(a, b, relTol float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= relTol*math.Max(math.Abs(a), math.Abs(b))
}
