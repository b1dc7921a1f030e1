package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/txcast/internal/logging"
	"github.com/soltixdb/txcast/internal/models"
	"github.com/soltixdb/txcast/internal/services"
)

// StatusForCode maps a service error code to an HTTP status
func StatusForCode(code string) int {
	switch code {
	case services.CodeInvalidModel,
		services.CodeInvalidHorizon,
		services.CodeInvalidGranularity,
		services.CodeInvalidMetric,
		services.CodeInvalidFormat,
		services.CodeInvalidLimit,
		services.CodeInvalidParameter:
		return fiber.StatusBadRequest
	case services.CodeNotFound:
		return fiber.StatusNotFound
	case services.CodeDataError,
		services.CodeInsufficientData,
		services.CodeShapeMismatch,
		services.CodeNotConverged:
		return fiber.StatusUnprocessableEntity
	case services.CodeDatasetUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders errors returned by handlers. Service errors keep
// their code and details; fiber errors keep their status.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		detail := models.ErrorDetail{
			Code:    services.CodeInternal,
			Message: "Internal Server Error",
			Path:    c.Path(),
		}
		status := fiber.StatusInternalServerError

		var svcErr *services.ServiceError
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &svcErr):
			status = StatusForCode(svcErr.Code)
			detail.Code = svcErr.Code
			detail.Message = svcErr.Message
			detail.Details = svcErr.Details
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			detail.Code = "ERROR"
			detail.Message = fiberErr.Message
		}

		fields := []interface{}{
			"path", c.Path(),
			"method", c.Method(),
			"status", status,
			"code", detail.Code,
			"error", err,
		}
		reqLogger := logger.WithContext(c.UserContext())
		if status >= fiber.StatusInternalServerError {
			reqLogger.Error("Request error", fields...)
		} else {
			reqLogger.Debug("Request rejected", fields...)
		}

		return c.Status(status).JSON(models.ErrorResponse{Error: detail})
	}
}
