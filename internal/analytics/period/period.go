// Package period implements calendar period arithmetic for regular series.
// Every period is identified by its last calendar day at UTC midnight.
package period

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the bucket size of a regular series
type Granularity string

const (
	Month   Granularity = "M"
	Quarter Granularity = "Q"
	Year    Granularity = "Y"
)

// ParseGranularity accepts M/Q/Y and month/quarter/year (case-insensitive)
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "month", "monthly":
		return Month, nil
	case "q", "quarter", "quarterly":
		return Quarter, nil
	case "y", "a", "year", "yearly", "annual":
		return Year, nil
	default:
		return "", fmt.Errorf("invalid granularity: %q (must be M, Q or Y)", s)
	}
}

// Months returns the number of calendar months in one period
func (g Granularity) Months() int {
	switch g {
	case Month:
		return 1
	case Year:
		return 12
	default:
		return 3
	}
}

// Valid reports whether g is one of the known granularities
func (g Granularity) Valid() bool {
	return g == Month || g == Quarter || g == Year
}

// String returns the long name of the granularity
func (g Granularity) String() string {
	switch g {
	case Month:
		return "month"
	case Quarter:
		return "quarter"
	case Year:
		return "year"
	default:
		return string(g)
	}
}

// MonthEnd returns the last day of the given month
func MonthEnd(year int, month time.Month) time.Time {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
}

// QuarterEnd maps a (year, quarter) pair to the quarter's last day.
// Quarters 1-4 end on Mar 31, Jun 30, Sep 30 and Dec 31. Any other
// quarter number falls back to Dec 31 of the same year.
func QuarterEnd(year, quarter int) time.Time {
	switch quarter {
	case 1:
		return time.Date(year, time.March, 31, 0, 0, 0, 0, time.UTC)
	case 2:
		return time.Date(year, time.June, 30, 0, 0, 0, 0, time.UTC)
	case 3:
		return time.Date(year, time.September, 30, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
}

// End returns the end of the period of granularity g that contains t.
// The calendar date of t is used as-is; its location is not converted.
func End(t time.Time, g Granularity) time.Time {
	year, month := t.Year(), t.Month()
	switch g {
	case Month:
		return MonthEnd(year, month)
	case Year:
		return MonthEnd(year, time.December)
	default:
		lastMonth := ((int(month)-1)/3 + 1) * 3
		return MonthEnd(year, time.Month(lastMonth))
	}
}

// Advance moves a period end n periods forward (or backward for n < 0)
// and re-aligns the result to the period end. Stepping from month ends
// never drifts: 2023-03-31 + 1Q is 2023-06-30, not 2023-07-01.
func Advance(end time.Time, g Granularity, n int) time.Time {
	months := int(end.Month()) + n*g.Months()
	return End(time.Date(end.Year(), time.Month(months), 1, 0, 0, 0, 0, time.UTC), g)
}

// Index returns the ordinal of the period containing t counted from
// year 0. Consecutive periods differ by exactly one.
func Index(t time.Time, g Granularity) int {
	monthIndex := t.Year()*12 + int(t.Month()) - 1
	return floorDiv(monthIndex, g.Months())
}

// FromIndex is the inverse of Index: it returns the period end for an ordinal
func FromIndex(idx int, g Granularity) time.Time {
	monthIndex := idx*g.Months() + g.Months() - 1
	return MonthEnd(floorDiv(monthIndex, 12), time.Month(monthIndex-floorDiv(monthIndex, 12)*12+1))
}

// Between returns the number of periods from a to b (b - a)
func Between(a, b time.Time, g Granularity) int {
	return Index(b, g) - Index(a, g)
}

// IsEnd reports whether t is exactly a period end at midnight UTC
func IsEnd(t time.Time, g Granularity) bool {
	return t.Equal(End(t, g))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
