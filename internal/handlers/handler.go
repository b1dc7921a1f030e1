package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/txcast/internal/logging"
	"github.com/soltixdb/txcast/internal/services"
)

// Handler contains all HTTP handlers
type Handler struct {
	logger            *logging.Logger
	forecastService   *services.ForecastService
	timeSeriesService *services.TimeSeriesService
	datasetService    *services.DatasetService
}

// New creates a new handler instance
func New(logger *logging.Logger,
	forecastService *services.ForecastService,
	timeSeriesService *services.TimeSeriesService,
	datasetService *services.DatasetService,
) *Handler {
	return &Handler{
		logger:            logger.WithComponent("http"),
		forecastService:   forecastService,
		timeSeriesService: timeSeriesService,
		datasetService:    datasetService,
	}
}

// queryInt parses an optional integer query parameter. Missing values
// yield 0; malformed values are reported under code.
func queryInt(c *fiber.Ctx, name, code string) (int, error) {
	v, err := queryOptionalInt(c, name, code)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

// queryOptionalInt is queryInt for parameters where an explicit zero
// differs from an absent value. Missing values yield nil.
func queryOptionalInt(c *fiber.Ctx, name, code string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, services.NewServiceErrorWithDetails(code,
			name+" must be an integer",
			map[string]interface{}{"parameter": name, "value": raw})
	}
	return &v, nil
}

// sendFile writes an export as an attachment
func sendFile(c *fiber.Ctx, res *services.ExportResult) error {
	c.Set(fiber.HeaderContentType, res.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+res.Filename+`"`)
	return c.Send(res.Data)
}
