package analytics

import (
	"errors"
	"fmt"
)

// ErrInvalidHorizon is returned when a forecast horizon is not positive
var ErrInvalidHorizon = errors.New("horizon must be a positive integer")

// DataError reports a record whose time marker or value cannot be used
type DataError struct {
	Index  int // position of the offending record, -1 when not tied to one
	Reason string
}

func (e *DataError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid data: %s", e.Reason)
	}
	return fmt.Sprintf("invalid data at record %d: %s", e.Index, e.Reason)
}

// InsufficientDataError reports a series too short for the requested operation
type InsufficientDataError struct {
	Op   string
	Need int
	Have int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data points: need %d, have %d", e.Op, e.Need, e.Have)
}

// ShapeMismatchError reports actual and predicted sequences of different length
type ShapeMismatchError struct {
	Actual    int
	Predicted int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %d actual values vs %d predicted", e.Actual, e.Predicted)
}

// ConvergenceError reports a smoothing fit whose optimizer did not converge.
// It is only returned when the naive fallback is disabled.
type ConvergenceError struct {
	Status string
	Err    error
}

func (e *ConvergenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parameter fit did not converge (%s): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("parameter fit did not converge (%s)", e.Status)
}

func (e *ConvergenceError) Unwrap() error {
	return e.Err
}
