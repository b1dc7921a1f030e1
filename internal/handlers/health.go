package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/txcast/internal/models"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Health handles health check requests. The service stays up without a
// dataset but reports itself degraded.
func (h *Handler) Health(c *fiber.Ctx) error {
	resp := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   Version,
	}

	info, err := h.datasetService.Info()
	if err != nil {
		resp.Status = "degraded"
	} else {
		resp.Dataset = info
	}

	return c.JSON(resp)
}

// NotFound handles 404 errors
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NOT_FOUND",
			Message: "Route not found",
			Path:    c.Path(),
		},
	})
}
