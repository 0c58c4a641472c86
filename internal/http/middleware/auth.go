// Package middleware holds the fiber middleware applied to route groups.
package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
)

// SessionAPIAuth rejects unauthenticated requests to the reporting API with a
// JSON 401 before any query runs. Unlike the session middleware used for
// pages, API consumers get a machine-readable error rather than a redirect.
func SessionAPIAuth(sessionMgr *cartridge.SessionManager, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !sessionMgr.IsAuthenticated(c) {
			logger.Debug("Rejected unauthenticated API request", slog.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Next()
	}
}
