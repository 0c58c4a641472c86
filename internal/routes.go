package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	"sitepulse/internal/config"
	"sitepulse/internal/http"
	"sitepulse/internal/http/middleware"
)

// SetupSession configures session management on the server.
func SetupSession(srv *cartridge.Server) {
	cfg := config.GetConfig()
	sessionMgr := cartridge.NewSessionManager(cartridge.SessionConfig{
		CookieName: cfg.AppName + "_session",
		Secret:     cfg.GetSessionSecret(),
		TTL:        time.Duration(cfg.GetLoginSessionTimeout()) * time.Second,
		Secure:     cfg.IsProduction(),
		LoginPath:  "/login",
	})
	srv.SetSession(sessionMgr)
}

// MountAppRoutes mounts all application routes.
func MountAppRoutes(srv *cartridge.Server) {
	SetupSession(srv)

	cfg := config.GetConfig()
	sessionMgr := srv.Session()
	logger := srv.GetLogger()

	// Rate limiting would interfere with tests, so it only applies in
	// production.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// Stricter limit on login to slow down brute force attempts.
	authRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(10),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Every reporting endpoint sits behind session auth; unauthenticated
	// requests get a JSON 401 before any query runs.
	analyticsAPIConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{
			middleware.SessionAPIAuth(sessionMgr, logger),
		},
	}

	// === HEALTH ===
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// === AUTHENTICATION ===
	loginConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{authRateLimiter},
	}
	srv.Post("/login", http.ProcessLoginAction, loginConfig)
	srv.Post("/logout", http.LogoutAction)

	// === REPORTING API ===
	srv.Get("/admin/api/analytics/overview", http.AnalyticsOverviewAction, analyticsAPIConfig)
	srv.Get("/admin/api/analytics/traffic", http.AnalyticsTrafficAction, analyticsAPIConfig)
	srv.Get("/admin/api/analytics/devices", http.AnalyticsDevicesAction, analyticsAPIConfig)
	srv.Get("/admin/api/analytics/locations", http.AnalyticsLocationsAction, analyticsAPIConfig)
	srv.Get("/admin/api/analytics/referrers", http.AnalyticsReferrersAction, analyticsAPIConfig)
	srv.Get("/admin/api/analytics/pages", http.AnalyticsPagesAction, analyticsAPIConfig)
	srv.Get("/admin/api/analytics/live", http.AnalyticsLiveAction, analyticsAPIConfig)
	srv.Get("/admin/api/analytics/sessions/:hash", http.AnalyticsSessionAction, analyticsAPIConfig)
	srv.Get("/admin/api/analytics/drilldown/:metric", http.AnalyticsDrilldownAction, analyticsAPIConfig)

	// === SETTINGS API ===
	srv.Get("/admin/api/settings", http.SettingsIndexAction, analyticsAPIConfig)
	srv.Post("/admin/api/settings/retention", http.SettingsRetentionAction, analyticsAPIConfig)
}
