// Package services provides the business logic layer between handlers and
// the dataset, analytics, cache and event packages.
package services

import (
	"errors"

	"github.com/soltixdb/txcast/internal/analytics"
	"github.com/soltixdb/txcast/internal/dataset"
)

// Error codes returned to API clients
const (
	CodeDataError          = "DATA_ERROR"
	CodeInsufficientData   = "INSUFFICIENT_DATA"
	CodeShapeMismatch      = "SHAPE_MISMATCH"
	CodeNotConverged       = "NOT_CONVERGED"
	CodeInvalidModel       = "INVALID_MODEL"
	CodeInvalidHorizon     = "INVALID_HORIZON"
	CodeInvalidGranularity = "INVALID_GRANULARITY"
	CodeInvalidMetric      = "INVALID_METRIC"
	CodeInvalidFormat      = "INVALID_FORMAT"
	CodeInvalidLimit       = "INVALID_LIMIT"
	CodeInvalidParameter   = "INVALID_PARAMETER"
	CodeDatasetUnavailable = "DATASET_UNAVAILABLE"
	CodeNotFound           = "NOT_FOUND"
	CodeInternal           = "INTERNAL_ERROR"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// translateError maps dataset and analytics errors to a ServiceError.
// Errors that are already ServiceErrors pass through.
func translateError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	var (
		dataErr  *analytics.DataError
		shortErr *analytics.InsufficientDataError
		shapeErr *analytics.ShapeMismatchError
		convErr  *analytics.ConvergenceError
	)

	switch {
	case errors.Is(err, dataset.ErrNotLoaded):
		return NewServiceError(CodeDatasetUnavailable, err.Error())
	case errors.Is(err, analytics.ErrInvalidHorizon):
		return NewServiceError(CodeInvalidHorizon, err.Error())
	case errors.As(err, &dataErr):
		return NewServiceErrorWithDetails(CodeDataError, err.Error(), map[string]interface{}{
			"record": dataErr.Index,
		})
	case errors.As(err, &shortErr):
		return NewServiceErrorWithDetails(CodeInsufficientData, err.Error(), map[string]interface{}{
			"operation": shortErr.Op,
			"required":  shortErr.Need,
			"available": shortErr.Have,
		})
	case errors.As(err, &shapeErr):
		return NewServiceError(CodeShapeMismatch, err.Error())
	case errors.As(err, &convErr):
		return NewServiceErrorWithDetails(CodeNotConverged, err.Error(), map[string]interface{}{
			"status": convErr.Status,
		})
	default:
		return NewServiceError(CodeInternal, err.Error())
	}
}
