package router

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/soltixdb/txcast/internal/config"
	"github.com/soltixdb/txcast/internal/handlers"
	"github.com/soltixdb/txcast/internal/logging"
	"github.com/soltixdb/txcast/internal/middleware"
	"github.com/soltixdb/txcast/internal/services"
)

// Services groups the services exposed over HTTP
type Services struct {
	Forecast   *services.ForecastService
	TimeSeries *services.TimeSeriesService
	Dataset    *services.DatasetService
}

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, svc Services, cfg *config.Config) *handlers.Handler {
	h := handlers.New(logger, svc.Forecast, svc.TimeSeries, svc.Dataset)

	origins := "*"
	if len(cfg.Server.CORSOrigins) > 0 {
		origins = strings.Join(cfg.Server.CORSOrigins, ",")
	}

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger, logging.DefaultMiddlewareConfig()))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	// Read-only dashboard API
	v1 := app.Group("/v1")

	v1.Get("/summary", h.Summary)
	v1.Get("/states", h.States)
	v1.Get("/states/:state", h.State)
	v1.Get("/types", h.Types)
	v1.Get("/brands", h.Brands)
	v1.Get("/export", h.Export)

	v1.Get("/timeseries", h.TimeSeries)

	v1.Get("/forecast", h.Forecast)
	v1.Post("/forecast", h.ForecastPost)
	v1.Get("/forecast/export", h.ForecastExport)

	// Admin routes (protected by API key)
	admin := app.Group("/admin", middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled))
	admin.Post("/reload", h.Reload)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, svc Services, cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "txcast",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, svc, cfg)

	return app
}
