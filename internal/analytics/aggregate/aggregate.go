// Package aggregate turns irregular, possibly duplicated observations into
// a regular gap-free series.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/soltixdb/txcast/internal/analytics"
	"github.com/soltixdb/txcast/internal/analytics/period"
)

// TimeMarker locates an observation in time: either a year/quarter pair
// or a calendar date. Date wins when both are set.
type TimeMarker struct {
	Year    int
	Quarter int
	Date    time.Time
}

// QuarterMarker builds a year/quarter marker
func QuarterMarker(year, quarter int) TimeMarker {
	return TimeMarker{Year: year, Quarter: quarter}
}

// DateMarker builds a date marker
func DateMarker(t time.Time) TimeMarker {
	return TimeMarker{Date: t}
}

// Observation is one raw record: a time marker and a non-negative amount
type Observation struct {
	Marker TimeMarker
	Value  float64
}

// Options controls Aggregate
type Options struct {
	// SkipInvalid drops records whose marker or value is unusable instead
	// of failing on the first one. Skipped records are counted in Report.
	SkipInvalid bool
}

// Report describes what Aggregate did with its input
type Report struct {
	Records int // input records
	Skipped int // records dropped with SkipInvalid
	Periods int // periods in the output series
	Filled  int // periods inserted with value 0
}

// canonical resolves the marker to the end of its period.
func (m TimeMarker) canonical(g period.Granularity) (time.Time, error) {
	if !m.Date.IsZero() {
		return period.End(m.Date, g), nil
	}
	if m.Year <= 0 {
		return time.Time{}, fmt.Errorf("missing time marker")
	}
	return period.End(period.QuarterEnd(m.Year, m.Quarter), g), nil
}

// Aggregate maps every observation to its canonical period end, sums
// values sharing a period and fills every missing period between the
// earliest and latest one with zero.
func Aggregate(obs []Observation, g period.Granularity, opts Options) (analytics.Series, *Report, error) {
	report := &Report{Records: len(obs)}
	if !g.Valid() {
		return analytics.Series{}, report, fmt.Errorf("invalid granularity %q", g)
	}
	if len(obs) == 0 {
		return analytics.Series{}, report, &analytics.InsufficientDataError{Op: "aggregate", Need: 1, Have: 0}
	}

	sums := make(map[int]float64)
	for i, o := range obs {
		end, err := o.Marker.canonical(g)
		if err == nil && (math.IsNaN(o.Value) || math.IsInf(o.Value, 0)) {
			err = fmt.Errorf("non-finite value")
		}
		if err != nil {
			if opts.SkipInvalid {
				report.Skipped++
				continue
			}
			return analytics.Series{}, report, &analytics.DataError{Index: i, Reason: err.Error()}
		}
		sums[period.Index(end, g)] += o.Value
	}

	if len(sums) == 0 {
		return analytics.Series{}, report, &analytics.DataError{Index: -1, Reason: "no record carries a valid time marker"}
	}

	keys := make([]int, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	first, last := keys[0], keys[len(keys)-1]
	points := make(analytics.TimeSeriesData, 0, last-first+1)
	for idx := first; idx <= last; idx++ {
		v, ok := sums[idx]
		if !ok {
			report.Filled++
		}
		points = append(points, analytics.TimeSeriesPoint{Time: period.FromIndex(idx, g), Value: v})
	}
	report.Periods = len(points)

	return analytics.Series{Granularity: g, Points: points}, report, nil
}
