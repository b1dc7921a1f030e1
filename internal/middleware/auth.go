package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/txcast/internal/logging"
	"github.com/soltixdb/txcast/internal/models"
)

// MinAPIKeyLength is the minimum required length for API keys
const MinAPIKeyLength = 32

// ValidateAPIKey checks if an API key meets the security requirements
func ValidateAPIKey(key string) bool {
	return len(key) >= MinAPIKeyLength && strings.TrimSpace(key) != ""
}

// extractAPIKey reads the key from X-API-Key, "Authorization: Bearer <key>"
// or a bare Authorization header
func extractAPIKey(c *fiber.Ctx) string {
	if key := c.Get("X-API-Key"); key != "" {
		return key
	}
	auth := c.Get(fiber.HeaderAuthorization)
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return after
	}
	return auth
}

// APIKeyAuth guards the admin routes. Keys shorter than MinAPIKeyLength
// are ignored with a warning.
func APIKeyAuth(logger *logging.Logger, apiKeys []string, enabled bool) fiber.Handler {
	if !enabled {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	var valid [][]byte
	for _, key := range apiKeys {
		if key == "" {
			continue
		}
		if !ValidateAPIKey(key) {
			logger.Warn("API key does not meet security requirements",
				"key_length", len(key),
				"min_required", MinAPIKeyLength,
				"key_prefix", maskAPIKey(key),
			)
			continue
		}
		valid = append(valid, []byte(key))
	}

	if len(valid) == 0 {
		logger.Error("No valid API keys configured, admin routes will reject every request",
			"total_keys", len(apiKeys),
			"min_required_length", MinAPIKeyLength,
		)
	}

	unauthorized := func(c *fiber.Ctx, message string) error {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "UNAUTHORIZED",
				Message: message,
			},
		})
	}

	return func(c *fiber.Ctx) error {
		apiKey := extractAPIKey(c)
		if apiKey == "" {
			logger.Warn("API key missing", "path", c.Path(), "method", c.Method(), "ip", c.IP())
			return unauthorized(c, "API key is required. Provide it via X-API-Key header or Authorization header.")
		}

		candidate := []byte(apiKey)
		for _, key := range valid {
			if subtle.ConstantTimeCompare(candidate, key) == 1 {
				logger.Debug("API key authenticated", "path", c.Path(), "method", c.Method())
				return c.Next()
			}
		}

		logger.Warn("Invalid API key",
			"path", c.Path(),
			"method", c.Method(),
			"ip", c.IP(),
			"api_key_prefix", maskAPIKey(apiKey),
		)
		return unauthorized(c, "Invalid API key.")
	}
}

// maskAPIKey masks API key for logging (show only first 4 chars)
func maskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
