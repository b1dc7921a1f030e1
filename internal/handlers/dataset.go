package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/txcast/internal/models"
	"github.com/soltixdb/txcast/internal/services"
)

// Summary handles GET /v1/summary
func (h *Handler) Summary(c *fiber.Ctx) error {
	year, err := queryInt(c, "year", services.CodeInvalidParameter)
	if err != nil {
		return err
	}
	quarter, err := queryInt(c, "quarter", services.CodeInvalidParameter)
	if err != nil {
		return err
	}

	summary, err := h.datasetService.Summary(c.UserContext(), year, quarter)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// States handles GET /v1/states
func (h *Handler) States(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit", services.CodeInvalidLimit)
	if err != nil {
		return err
	}

	states, err := h.datasetService.States(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(models.StatesResponse{States: states})
}

// State handles GET /v1/states/:state
func (h *Handler) State(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("state"))
	if err != nil {
		return services.NewServiceError(services.CodeInvalidParameter, "malformed state name")
	}

	detail, err := h.datasetService.State(c.UserContext(), name)
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

// Types handles GET /v1/types
func (h *Handler) Types(c *fiber.Ctx) error {
	year, err := queryInt(c, "year", services.CodeInvalidParameter)
	if err != nil {
		return err
	}

	types, err := h.datasetService.Types(c.UserContext(), c.Query("type"), year)
	if err != nil {
		return err
	}
	return c.JSON(models.TypesResponse{Types: types})
}

// Brands handles GET /v1/brands
func (h *Handler) Brands(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit", services.CodeInvalidLimit)
	if err != nil {
		return err
	}

	brands, err := h.datasetService.Brands(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(models.BrandsResponse{Brands: brands})
}

// Export handles GET /v1/export and streams the raw records
func (h *Handler) Export(c *fiber.Ctx) error {
	res, err := h.datasetService.Export(c.UserContext(), c.Query("format"))
	if err != nil {
		return err
	}
	return sendFile(c, res)
}
