package settings

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge/cache"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// Setting represents a configuration item in the database
type Setting struct {
	ID        uint      `gorm:"primaryKey"`
	Key       string    `gorm:"uniqueIndex;not null"`
	Value     string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:milli"`
}

// Settings keys
const (
	// KeyDataRetentionDays controls how long raw pageview and visit rows are
	// kept before the cleanup job purges them. Daily rollups outlive raw data.
	KeyDataRetentionDays = "analytics_data_retention_days"

	// Sitemap ping bookkeeping, maintained by the marketing site. Not part of
	// the analytics core but seeded here so the settings screen lists them.
	KeySitemapLastPingAt     = "sitemap_last_ping_at"
	KeySitemapLastPingStatus = "sitemap_last_ping_status"
)

// DefaultRetentionDays applies when the settings row is missing or malformed.
const DefaultRetentionDays = 365

var retentionCache *cache.Cache[string, int]

// SetupDefaultSettings initializes default settings in the database
func SetupDefaultSettings(dbConn *gorm.DB) error {
	defaults := []Setting{
		{Key: KeyDataRetentionDays, Value: strconv.Itoa(DefaultRetentionDays)},
		{Key: KeySitemapLastPingAt, Value: ""},
		{Key: KeySitemapLastPingStatus, Value: ""},
	}
	err := sqlite.PerformWrite(slog.Default(), dbConn, func(tx *gorm.DB) error {
		for _, setting := range defaults {
			err := tx.Exec(`
                INSERT INTO settings (key, value, created_at, updated_at)
                VALUES (?, ?, ?, ?)
                ON CONFLICT(key) DO NOTHING
            `, setting.Key, setting.Value, time.Now().UTC(), time.Now().UTC()).Error
			if err != nil {
				return fmt.Errorf("failed to seed setting %s: %w", setting.Key, err)
			}
		}
		return nil
	})

	loadCache(dbConn, slog.Default())

	return err
}

// GetSetting retrieves a setting value from the database
func GetSetting(dbConn *gorm.DB, key string) (string, error) {
	var setting Setting
	result := dbConn.Where("key = ?", key).First(&setting)

	if result.Error != nil {
		return "", result.Error
	}

	return setting.Value, nil
}

// CreateOrUpdateSetting creates a new setting or updates an existing one
func CreateOrUpdateSetting(dbConn *gorm.DB, key string, value string) error {
	err := sqlite.PerformWrite(slog.Default(), dbConn, func(tx *gorm.DB) error {
		return tx.Exec(`
            INSERT INTO settings (key, value, created_at, updated_at)
            VALUES (?, ?, ?, ?)
            ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = ?
        `, key, value, time.Now().UTC(), time.Now().UTC(), value, time.Now().UTC()).Error
	})
	if err != nil {
		return fmt.Errorf("failed to upsert setting %s: %w", key, err)
	}

	if retentionCache != nil {
		retentionCache.Clear()
	}

	return nil
}

// GetRetentionDays returns the configured retention period in days, falling
// back to DefaultRetentionDays when the setting is absent or not a positive
// integer.
func GetRetentionDays(dbConn *gorm.DB) int {
	if retentionCache != nil {
		if days, err := retentionCache.Get(KeyDataRetentionDays); err == nil {
			return days
		}
	}
	return fetchRetentionDays(dbConn)
}

func fetchRetentionDays(dbConn *gorm.DB) int {
	value, err := GetSetting(dbConn, KeyDataRetentionDays)
	if err != nil {
		return DefaultRetentionDays
	}

	days, err := strconv.Atoi(value)
	if err != nil || days <= 0 {
		return DefaultRetentionDays
	}

	return days
}

func loadCache(dbConn *gorm.DB, logger *slog.Logger) {
	fetchFunc := func(key string) (int, error) {
		var value string
		err := dbConn.WithContext(context.Background()).
			Raw("SELECT value FROM settings WHERE key = ? LIMIT 1", key).
			Scan(&value).Error
		if err != nil {
			return 0, err
		}
		days, err := strconv.Atoi(value)
		if err != nil || days <= 0 {
			return DefaultRetentionDays, nil
		}
		return days, nil
	}
	retentionCache = cache.NewCache[string, int](logger, 5*time.Minute, fetchFunc)
}

// SettingResponse represents a setting key-value pair for API responses
type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// GetAllSettingsForDisplay retrieves all settings for the administration screen
func GetAllSettingsForDisplay(db *gorm.DB) ([]SettingResponse, error) {
	var allSettings []Setting
	if err := db.Order("key ASC").Find(&allSettings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}

	result := make([]SettingResponse, 0, len(allSettings))
	for _, setting := range allSettings {
		result = append(result, SettingResponse{Key: setting.Key, Value: setting.Value})
	}
	return result, nil
}
