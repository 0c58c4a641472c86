// Package http contains the fiber handlers behind the admin routes.
package http

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"

	"sitepulse/internal/reports"
	"sitepulse/internal/timeframe"
)

// parseRangeFromQuery resolves the start/end/days query parameters into a
// date range. Explicit start and end must come together; otherwise the range
// defaults to the trailing days window ending today.
func parseRangeFromQuery(ctx *cartridge.Context) (timeframe.DateRange, error) {
	days := 0
	if raw := ctx.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return timeframe.DateRange{}, errors.New("days must be a positive integer")
		}
		days = parsed
	}
	return timeframe.ParseRange(ctx.Query("start"), ctx.Query("end"), days)
}

func queryLimit(ctx *cartridge.Context) int {
	limit, err := strconv.Atoi(ctx.Query("limit"))
	if err != nil {
		return 0
	}
	return limit
}

func jsonError(ctx *cartridge.Context, status int, message string) error {
	return ctx.Status(status).JSON(fiber.Map{"error": message})
}

func internalError(ctx *cartridge.Context, operation string, err error) error {
	ctx.Logger.Error("Analytics query failed",
		slog.String("operation", operation),
		slog.Any("error", err))
	return jsonError(ctx, fiber.StatusInternalServerError, "Internal server error")
}

// reportResponse wraps every successful reporting payload in the standard
// envelope so consumers always know which period the numbers describe.
func reportResponse(ctx *cartridge.Context, data interface{}, r timeframe.DateRange) error {
	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"period": fiber.Map{
			"start": r.StartString(),
			"end":   r.EndString(),
		},
	})
}

// AnalyticsOverviewAction returns the four headline metrics with
// previous-period comparison.
func AnalyticsOverviewAction(ctx *cartridge.Context) error {
	r, err := parseRangeFromQuery(ctx)
	if err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, err.Error())
	}

	overview, err := reports.GetOverview(ctx.DB(), r)
	if err != nil {
		return internalError(ctx, "overview", err)
	}
	return reportResponse(ctx, overview, r)
}

// AnalyticsTrafficAction returns the daily visitor and pageview series plus
// the session source mix.
func AnalyticsTrafficAction(ctx *cartridge.Context) error {
	r, err := parseRangeFromQuery(ctx)
	if err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, err.Error())
	}

	traffic, err := reports.GetTraffic(ctx.DB(), r)
	if err != nil {
		return internalError(ctx, "traffic", err)
	}
	return reportResponse(ctx, traffic, r)
}

// AnalyticsDevicesAction returns the device, browser, and OS breakdowns.
func AnalyticsDevicesAction(ctx *cartridge.Context) error {
	r, err := parseRangeFromQuery(ctx)
	if err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, err.Error())
	}

	devices, err := reports.GetDevices(ctx.Ctx.UserContext(), ctx.DB(), r, queryLimit(ctx))
	if err != nil {
		return internalError(ctx, "devices", err)
	}
	return reportResponse(ctx, devices, r)
}

// AnalyticsLocationsAction returns the country breakdown plus the UK source
// split.
func AnalyticsLocationsAction(ctx *cartridge.Context) error {
	r, err := parseRangeFromQuery(ctx)
	if err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, err.Error())
	}

	locations, err := reports.GetLocations(ctx.DB(), r, queryLimit(ctx))
	if err != nil {
		return internalError(ctx, "locations", err)
	}
	return reportResponse(ctx, locations, r)
}

// AnalyticsReferrersAction returns the acquisition report. An optional type
// query parameter narrows the top-referrers list to one referrer type.
func AnalyticsReferrersAction(ctx *cartridge.Context) error {
	r, err := parseRangeFromQuery(ctx)
	if err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, err.Error())
	}

	referrers, err := reports.GetReferrers(ctx.DB(), r, queryLimit(ctx), ctx.Query("type"))
	if err != nil {
		return internalError(ctx, "referrers", err)
	}
	return reportResponse(ctx, referrers, r)
}

// AnalyticsPagesAction returns either the content report for the range or,
// when a page query parameter is present, the drill view for that path.
func AnalyticsPagesAction(ctx *cartridge.Context) error {
	r, err := parseRangeFromQuery(ctx)
	if err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, err.Error())
	}

	if path := ctx.Query("page"); path != "" {
		detail, err := reports.GetPageDetail(ctx.DB(), r, path, queryLimit(ctx))
		if err != nil {
			return internalError(ctx, "page_detail", err)
		}
		return reportResponse(ctx, detail, r)
	}

	pages, err := reports.GetPages(ctx.DB(), r, queryLimit(ctx))
	if err != nil {
		return internalError(ctx, "pages", err)
	}
	return reportResponse(ctx, pages, r)
}

// AnalyticsLiveAction returns sessions active within the requested window.
func AnalyticsLiveAction(ctx *cartridge.Context) error {
	minutes := 0
	if raw := ctx.Query("minutes"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return jsonError(ctx, fiber.StatusBadRequest, "minutes must be an integer")
		}
		minutes = parsed
	}

	now := time.Now().UTC()
	live, err := reports.GetLive(ctx.DB(), now, minutes)
	if err != nil {
		return internalError(ctx, "live", err)
	}
	return ctx.JSON(fiber.Map{
		"success":   true,
		"data":      live,
		"timestamp": now,
	})
}

// AnalyticsSessionAction reconstructs one session's pageview journey.
func AnalyticsSessionAction(ctx *cartridge.Context) error {
	hash := ctx.Ctx.Params("hash")
	if hash == "" {
		return jsonError(ctx, fiber.StatusBadRequest, "session hash is required")
	}

	journey, err := reports.GetSessionJourney(ctx.DB(), hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(ctx, fiber.StatusNotFound, "Session not found")
		}
		return internalError(ctx, "session", err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    journey,
	})
}

// AnalyticsDrilldownAction expands one headline metric into its underlying
// sessions.
func AnalyticsDrilldownAction(ctx *cartridge.Context) error {
	r, err := parseRangeFromQuery(ctx)
	if err != nil {
		return jsonError(ctx, fiber.StatusBadRequest, err.Error())
	}

	metric := ctx.Ctx.Params("metric")
	data, err := reports.GetDrilldown(ctx.DB(), r, metric, queryLimit(ctx))
	if err != nil {
		if errors.Is(err, reports.ErrUnknownMetric) {
			return jsonError(ctx, fiber.StatusBadRequest, "unknown metric: "+metric)
		}
		return internalError(ctx, "drilldown", err)
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"metric":  metric,
		"data":    data,
		"period": fiber.Map{
			"start": r.StartString(),
			"end":   r.EndString(),
		},
	})
}
