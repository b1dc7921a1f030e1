package models

import (
	"github.com/soltixdb/txcast/internal/dataset"
	"github.com/soltixdb/txcast/internal/services"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                `json:"status"`
	Timestamp string                `json:"timestamp"`
	Version   string                `json:"version"`
	Dataset   *services.DatasetInfo `json:"dataset,omitempty"`
}

// StatesResponse lists the top states
type StatesResponse struct {
	States []dataset.Group `json:"states"`
}

// TypesResponse lists transaction type totals
type TypesResponse struct {
	Types []dataset.Group `json:"types"`
}

// BrandsResponse lists brand market shares
type BrandsResponse struct {
	Brands []dataset.Group `json:"brands"`
}

// ReloadResponse reports the dataset after an admin reload
type ReloadResponse struct {
	Message string                `json:"message"`
	Dataset *services.DatasetInfo `json:"dataset"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
