// Package backtest evaluates forecasting strategies on a holdout suffix
// of a regular series.
package backtest

import (
	"github.com/soltixdb/txcast/internal/analytics"
)

// MaxHoldout caps the holdout at one year of quarters
const MaxHoldout = 4

// HoldoutSize returns max(1, min(MaxHoldout, n/4)) for a series of n periods
func HoldoutSize(n int) int {
	h := n / 4
	if h > MaxHoldout {
		h = MaxHoldout
	}
	if h < 1 {
		h = 1
	}
	return h
}

// Split partitions a series into a training prefix and a holdout suffix.
// Short series degrade gracefully: with fewer than eight periods the
// holdout is a single period and the training part may be empty.
// Irregular series are rejected.
func Split(s analytics.Series) (train, test analytics.Series, err error) {
	n := s.Len()
	if n == 0 {
		return analytics.Series{}, analytics.Series{}, &analytics.InsufficientDataError{Op: "split", Need: 1, Have: 0}
	}
	if err := s.Validate(); err != nil {
		return analytics.Series{}, analytics.Series{}, err
	}

	h := HoldoutSize(n)
	return s.Slice(0, n-h), s.Slice(n-h, n), nil
}
