// Package testsupport provides shared fixtures for package tests: an
// in-memory database with the full schema and seed helpers for pageviews,
// visits, and daily stats.
package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/cache"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sitepulse/internal"
	"sitepulse/internal/config"
	"sitepulse/internal/events"
	"sitepulse/internal/settings"
	"sitepulse/internal/stats"
	"sitepulse/internal/users"
	"sitepulse/internal/visits"
)

// SessionCookieName matches the cookie name built in routes.go:
// cfg.AppName + "_session"
const SessionCookieName = "sitepulse_session"

// testDBCache shares one database across calls within the same test, so
// setup helpers and assertions see the same data.
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager so tests can hand a plain
// *gorm.DB to code expecting a cartridge.DBManager.
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

var _ cartridge.DBManager = (*TestDBManager)(nil)

func allModels() []any {
	return []any{
		&cache.CacheRecord{},
		&events.PageviewEvent{},
		&visits.Visit{},
		&stats.DailyStat{},
		&settings.Setting{},
		&users.User{},
	}
}

// SetupTestDB creates a named in-memory database with the full schema.
// cache=shared lets multiple connections within one test share it; the
// database is cached by root test name so subtests reuse it.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// GetLogger returns a quiet logger for tests.
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// PageviewOption mutates a seeded pageview before insert.
type PageviewOption func(*events.PageviewEvent)

func WithPage(path, title string) PageviewOption {
	return func(e *events.PageviewEvent) {
		e.PagePath = path
		e.PageTitle = title
	}
}

func WithReferrer(domain, refType string) PageviewOption {
	return func(e *events.PageviewEvent) {
		e.ReferrerDomain = domain
		e.ReferrerType = refType
	}
}

func WithDevice(deviceType, browser, osName string) PageviewOption {
	return func(e *events.PageviewEvent) {
		e.DeviceType = deviceType
		e.BrowserName = browser
		e.OSName = osName
	}
}

func WithCountry(code string) PageviewOption {
	return func(e *events.PageviewEvent) {
		e.CountryCode = code
	}
}

func WithUTM(source, medium, campaign, term string) PageviewOption {
	return func(e *events.PageviewEvent) {
		e.UTMSource = source
		e.UTMMedium = medium
		e.UTMCampaign = campaign
		e.UTMTerm = term
	}
}

// SeedPageview inserts one pageview for the session at the given instant.
func SeedPageview(t *testing.T, db *gorm.DB, sessionHash string, viewedAt time.Time, opts ...PageviewOption) events.PageviewEvent {
	t.Helper()

	event := events.PageviewEvent{
		SessionHash:  sessionHash,
		PagePath:     "/",
		PageTitle:    "Home",
		ReferrerType: events.ReferrerTypeDirect,
		DeviceType:   events.DeviceTypeDesktop,
		BrowserName:  "Chrome",
		OSName:       "macOS",
		CountryCode:  "US",
		ViewedAt:     viewedAt,
		DateOnly:     viewedAt.UTC().Format(events.DateFormat),
	}
	for _, opt := range opts {
		opt(&event)
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("testsupport: failed to seed pageview: %v", err)
	}
	return event
}

// VisitOption mutates a seeded visit before insert.
type VisitOption func(*visits.Visit)

func VisitBounced() VisitOption {
	return func(v *visits.Visit) {
		v.IsBounce = true
		v.Pageviews = 1
		v.DurationSeconds = 0
	}
}

func VisitDuration(seconds int) VisitOption {
	return func(v *visits.Visit) {
		v.DurationSeconds = seconds
	}
}

func VisitReferrerType(refType string) VisitOption {
	return func(v *visits.Visit) {
		v.ReferrerType = refType
	}
}

func VisitCountry(code string) VisitOption {
	return func(v *visits.Visit) {
		v.CountryCode = code
	}
}

func VisitPages(landing, exit string, pageviews int) VisitOption {
	return func(v *visits.Visit) {
		v.LandingPage = landing
		v.ExitPage = exit
		v.Pageviews = pageviews
	}
}

// SeedVisit inserts one visit row for the session on the given day.
func SeedVisit(t *testing.T, db *gorm.DB, sessionHash, date string, opts ...VisitOption) visits.Visit {
	t.Helper()

	day, err := time.Parse(events.DateFormat, date)
	if err != nil {
		t.Fatalf("testsupport: invalid visit date %q: %v", date, err)
	}

	visit := visits.Visit{
		SessionHash:     sessionHash,
		DateOnly:        date,
		FirstSeen:       day.Add(10 * time.Hour),
		LastSeen:        day.Add(10*time.Hour + 5*time.Minute),
		Pageviews:       2,
		LandingPage:     "/",
		ExitPage:        "/about",
		DeviceType:      events.DeviceTypeDesktop,
		CountryCode:     "US",
		ReferrerType:    events.ReferrerTypeDirect,
		DurationSeconds: 300,
	}
	for _, opt := range opts {
		opt(&visit)
	}
	if err := db.Create(&visit).Error; err != nil {
		t.Fatalf("testsupport: failed to seed visit: %v", err)
	}
	return visit
}

// SeedDailyStat inserts one rollup row for the given day.
func SeedDailyStat(t *testing.T, db *gorm.DB, date string, pageviews, sessions, bounced, duration int64) stats.DailyStat {
	t.Helper()

	stat := stats.DailyStat{
		StatDate:             date,
		TotalPageviews:       pageviews,
		UniqueSessions:       sessions,
		BouncedSessions:      bounced,
		TotalDurationSeconds: duration,
	}
	if err := db.Create(&stat).Error; err != nil {
		t.Fatalf("testsupport: failed to seed daily stat: %v", err)
	}
	return stat
}

// CreateTestApp builds a fiber app with all routes mounted, backed by the
// given test database. Static assets are disabled since handler tests only
// exercise the JSON API.
func CreateTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	appConfig := config.GetConfig()
	appConfig.Environment = config.Test

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = NewTestDBManager(db)
	cfg.EnableStaticAssets = false

	srv, err := cartridge.NewServer(cfg)
	if err != nil {
		t.Fatalf("testsupport: failed to create server: %v", err)
	}

	internal.MountAppRoutes(srv)
	return srv.App()
}
