package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/settings"
)

// SettingsIndexAction lists the operator-editable settings.
func SettingsIndexAction(ctx *cartridge.Context) error {
	all, err := settings.GetAllSettingsForDisplay(ctx.DB())
	if err != nil {
		return internalError(ctx, "settings", err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    all,
	})
}

// SettingsRetentionAction updates the raw-data retention window in days.
func SettingsRetentionAction(ctx *cartridge.Context) error {
	var body struct {
		Days int `json:"days"`
	}
	if raw := ctx.FormValue("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return jsonError(ctx, fiber.StatusBadRequest, "days must be an integer")
		}
		body.Days = parsed
	} else if err := ctx.BodyParser(&body); err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, "invalid request body")
	}

	if body.Days < 1 {
		return jsonError(ctx, fiber.StatusBadRequest, "retention must be at least 1 day")
	}

	err := settings.CreateOrUpdateSetting(ctx.DB(), settings.KeyDataRetentionDays, strconv.Itoa(body.Days))
	if err != nil {
		return internalError(ctx, "update_retention", err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"retention_days": body.Days},
	})
}
