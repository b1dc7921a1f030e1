package models

import "github.com/soltixdb/txcast/internal/services"

// ForecastRequest represents the forecast request body. Empty fields take
// the configured defaults.
type ForecastRequest struct {
	Model           string `json:"model"`       // naive, trend_smoothing
	Horizon         *int   `json:"horizon"`     // periods ahead
	Granularity     string `json:"granularity"` // M, Q, Y
	State           string `json:"state"`
	TransactionType string `json:"transaction_type"`
	Metric          string `json:"metric"` // count, amount
}

// ToServiceRequest converts the body to a service request
func (r *ForecastRequest) ToServiceRequest(requestID string) *services.ForecastRequest {
	return &services.ForecastRequest{
		SeriesQuery: services.SeriesQuery{
			State:           r.State,
			TransactionType: r.TransactionType,
			Granularity:     r.Granularity,
			Metric:          r.Metric,
		},
		Model:     r.Model,
		Horizon:   r.Horizon,
		RequestID: requestID,
	}
}
