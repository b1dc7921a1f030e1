package utils

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses a numeric cell as exported by spreadsheets.
// Surrounding whitespace and thousands separators are accepted.
// Returns 0 and false if the text is not a number.
func ParseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// WholeNumber converts f to int when it is finite and has no fractional
// part (spreadsheets frequently store 2021 as 2021.0)
func WholeNumber(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
