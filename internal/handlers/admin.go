package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/txcast/internal/logging"
	"github.com/soltixdb/txcast/internal/models"
)

// Reload re-reads the dataset files and swaps the snapshot in place
func (h *Handler) Reload(c *fiber.Ctx) error {
	info, err := h.datasetService.Reload(c.UserContext())
	if err != nil {
		return err
	}

	logging.InfoCtx(c.UserContext(), "Dataset reloaded via admin API",
		"version", info.Version,
		"records", info.Records,
	)

	return c.JSON(models.ReloadResponse{
		Message: "Dataset reloaded",
		Dataset: info,
	})
}
