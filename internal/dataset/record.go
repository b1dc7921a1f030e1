// Package dataset loads quarterly transaction records and serves
// read-only snapshots of them.
package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/soltixdb/txcast/internal/analytics/aggregate"
)

// Record is one row of the aggregated transactions (or users) file
type Record struct {
	Year    int       `json:"year"`
	Quarter int       `json:"quarter"`
	Date    time.Time `json:"date,omitempty"`
	State   string    `json:"state,omitempty"`
	Type    string    `json:"transaction_type,omitempty"`
	Brand   string    `json:"brand,omitempty"`
	Count   float64   `json:"transaction_count"`
	Amount  float64   `json:"transaction_amount"`
}

// Marker returns the record's time marker
func (r Record) Marker() aggregate.TimeMarker {
	if !r.Date.IsZero() {
		return aggregate.DateMarker(r.Date)
	}
	return aggregate.QuarterMarker(r.Year, r.Quarter)
}

// Metric selects which measure of a record is aggregated
type Metric string

const (
	MetricCount  Metric = "count"
	MetricAmount Metric = "amount"
)

// ParseMetric resolves a metric name; empty means count
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "count", "transaction_count":
		return MetricCount, nil
	case "amount", "value", "transaction_amount":
		return MetricAmount, nil
	default:
		return "", fmt.Errorf("invalid metric: %q (must be count or amount)", s)
	}
}

// Value returns the measure selected by m
func (r Record) Value(m Metric) float64 {
	if m == MetricAmount {
		return r.Amount
	}
	return r.Count
}

// Filter narrows the records considered. Zero fields match everything.
type Filter struct {
	State   string
	Type    string
	Year    int
	Quarter int
}

// Match reports whether r passes the filter. Text fields compare
// case-insensitively.
func (f Filter) Match(r Record) bool {
	if f.State != "" && !strings.EqualFold(f.State, r.State) {
		return false
	}
	if f.Type != "" && !strings.EqualFold(f.Type, r.Type) {
		return false
	}
	if f.Year != 0 && f.Year != r.Year {
		return false
	}
	if f.Quarter != 0 && f.Quarter != r.Quarter {
		return false
	}
	return true
}
