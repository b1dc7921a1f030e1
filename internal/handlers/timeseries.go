package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/txcast/internal/services"
)

// seriesQuery reads the shared series filters from the query string
func seriesQuery(c *fiber.Ctx) services.SeriesQuery {
	return services.SeriesQuery{
		State:           c.Query("state"),
		TransactionType: c.Query("transaction_type"),
		Granularity:     c.Query("granularity"),
		Metric:          c.Query("metric"),
	}
}

// TimeSeries handles GET /v1/timeseries
func (h *Handler) TimeSeries(c *fiber.Ctx) error {
	result, err := h.timeSeriesService.Execute(c.UserContext(), seriesQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(result)
}
