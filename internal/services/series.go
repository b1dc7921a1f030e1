package services

import (
	"github.com/soltixdb/txcast/internal/analytics"
	"github.com/soltixdb/txcast/internal/analytics/aggregate"
	"github.com/soltixdb/txcast/internal/analytics/period"
	"github.com/soltixdb/txcast/internal/dataset"
	"github.com/soltixdb/txcast/internal/export"
)

// SeriesQuery selects and regularizes a slice of the dataset
type SeriesQuery struct {
	State           string
	TransactionType string
	Granularity     string
	Metric          string
}

// Point is one labelled value in an API response
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

func toPoints(ts analytics.TimeSeriesData) []Point {
	points := make([]Point, len(ts))
	for i, p := range ts {
		points[i] = Point{Date: p.Time.Format(export.DateLayout), Value: p.Value}
	}
	return points
}

// resolveGranularity parses g, falling back to def when empty
func resolveGranularity(g, def string) (period.Granularity, error) {
	if g == "" {
		g = def
	}
	gran, err := period.ParseGranularity(g)
	if err != nil {
		return "", NewServiceErrorWithDetails(CodeInvalidGranularity, err.Error(), map[string]interface{}{
			"available": []period.Granularity{period.Month, period.Quarter, period.Year},
		})
	}
	return gran, nil
}

// buildSeries filters the snapshot and aggregates the selected metric
func buildSeries(snap *dataset.Snapshot, q SeriesQuery, g period.Granularity, skipInvalid bool) (analytics.Series, *aggregate.Report, error) {
	metric, err := dataset.ParseMetric(q.Metric)
	if err != nil {
		return analytics.Series{}, nil, NewServiceError(CodeInvalidMetric, err.Error())
	}

	filter := dataset.Filter{State: q.State, Type: q.TransactionType}
	obs := snap.Observations(filter, metric)
	if len(obs) == 0 && (q.State != "" || q.TransactionType != "") {
		return analytics.Series{}, nil, NewServiceErrorWithDetails(CodeNotFound, "no records match the requested filters", map[string]interface{}{
			"state":            q.State,
			"transaction_type": q.TransactionType,
		})
	}

	series, report, err := aggregate.Aggregate(obs, g, aggregate.Options{SkipInvalid: skipInvalid})
	if err != nil {
		return analytics.Series{}, nil, translateError(err)
	}
	return series, report, nil
}
