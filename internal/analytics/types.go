// Package analytics provides the shared types for regularizing, backtesting
// and forecasting periodic transaction volumes.
package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/soltixdb/txcast/internal/analytics/period"
)

// TimeSeriesPoint is one bucket of a series: the period end and its value.
// This is the common type used across all analytics packages.
type TimeSeriesPoint struct {
	Time  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TimeSeriesData represents a collection of time-series data points
type TimeSeriesData []TimeSeriesPoint

// Values extracts just the values from the time series
func (ts TimeSeriesData) Values() []float64 {
	values := make([]float64, len(ts))
	for i, p := range ts {
		values[i] = p.Value
	}
	return values
}

// Series is a regular series: one point per period at a fixed
// granularity, strictly increasing and without gaps.
type Series struct {
	Granularity period.Granularity `json:"granularity"`
	Points      TimeSeriesData     `json:"points"`
}

// Len returns the number of periods
func (s Series) Len() int {
	return len(s.Points)
}

// Values returns the values in period order
func (s Series) Values() []float64 {
	return s.Points.Values()
}

// First returns the earliest point. It panics on an empty series.
func (s Series) First() TimeSeriesPoint {
	return s.Points[0]
}

// Last returns the latest point. It panics on an empty series.
func (s Series) Last() TimeSeriesPoint {
	return s.Points[len(s.Points)-1]
}

// Slice returns the sub-series [i, j). The backing array is shared.
func (s Series) Slice(i, j int) Series {
	return Series{Granularity: s.Granularity, Points: s.Points[i:j]}
}

// Validate checks that every point sits on a period end, carries a finite
// value, and follows its predecessor by exactly one period. Violations are
// reported as a *DataError.
func (s Series) Validate() error {
	if !s.Granularity.Valid() {
		return &DataError{Index: -1, Reason: fmt.Sprintf("invalid granularity %q", s.Granularity)}
	}
	for i, p := range s.Points {
		if !period.IsEnd(p.Time, s.Granularity) {
			return &DataError{Index: i, Reason: fmt.Sprintf("%s is not a %s end", p.Time.Format("2006-01-02"), s.Granularity)}
		}
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return &DataError{Index: i, Reason: "non-finite value"}
		}
		if i > 0 {
			if step := period.Between(s.Points[i-1].Time, p.Time, s.Granularity); step != 1 {
				return &DataError{Index: i, Reason: fmt.Sprintf("%d periods after the previous point", step)}
			}
		}
	}
	return nil
}
