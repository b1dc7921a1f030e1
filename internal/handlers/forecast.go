package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/txcast/internal/logging"
	"github.com/soltixdb/txcast/internal/models"
	"github.com/soltixdb/txcast/internal/services"
)

// forecastQuery builds a forecast request from query parameters
func forecastQuery(c *fiber.Ctx) (*services.ForecastRequest, error) {
	horizon, err := queryOptionalInt(c, "horizon", services.CodeInvalidHorizon)
	if err != nil {
		return nil, err
	}
	return &services.ForecastRequest{
		SeriesQuery: seriesQuery(c),
		Model:       c.Query("model"),
		Horizon:     horizon,
		RequestID:   logging.RequestID(c.UserContext()),
	}, nil
}

// Forecast handles GET /v1/forecast
func (h *Handler) Forecast(c *fiber.Ctx) error {
	req, err := forecastQuery(c)
	if err != nil {
		return err
	}
	return h.executeForecast(c, req)
}

// ForecastPost handles POST /v1/forecast
func (h *Handler) ForecastPost(c *fiber.Ctx) error {
	var body models.ForecastRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_JSON",
				Message: "Failed to parse JSON body",
				Details: map[string]interface{}{"error": err.Error()},
			},
		})
	}

	return h.executeForecast(c, body.ToServiceRequest(logging.RequestID(c.UserContext())))
}

func (h *Handler) executeForecast(c *fiber.Ctx, req *services.ForecastRequest) error {
	result, err := h.forecastService.Execute(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// ForecastExport handles GET /v1/forecast/export
func (h *Handler) ForecastExport(c *fiber.Ctx) error {
	req, err := forecastQuery(c)
	if err != nil {
		return err
	}

	res, err := h.forecastService.Export(c.UserContext(), req, c.Query("format"))
	if err != nil {
		return err
	}
	return sendFile(c, res)
}
