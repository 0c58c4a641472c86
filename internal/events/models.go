package events

import "time"

// Referrer type classification, assigned by the ingestion path.
const (
	ReferrerTypeDirect   = "direct"
	ReferrerTypeSearch   = "search"
	ReferrerTypeSocial   = "social"
	ReferrerTypeReferral = "referral"
	ReferrerTypeInternal = "internal"
)

// Device type classification, assigned by the ingestion path.
const (
	DeviceTypeDesktop = "desktop"
	DeviceTypeMobile  = "mobile"
	DeviceTypeTablet  = "tablet"
	DeviceTypeBot     = "bot"
)

// DateFormat is the canonical calendar-date layout used for the denormalized
// date_only column and everywhere a date crosses an API boundary.
const DateFormat = "2006-01-02"

// PageviewEvent is one row per page load in the append-only event store.
// Rows are written by the external ingestion path with all derived metadata
// (device, browser, referrer classification, geolocation) already resolved.
// They are never updated; only the retention cleanup job deletes them.
type PageviewEvent struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	SessionHash    string `gorm:"index;size:64;not null"`
	PagePath       string `gorm:"index;not null"`
	PageTitle      string
	ReferrerURL    string
	ReferrerDomain string    `gorm:"index"`
	ReferrerType   string    `gorm:"index;not null;default:direct"`
	UTMSource      string    `gorm:"index"`
	UTMMedium      string
	UTMCampaign    string    `gorm:"index"`
	UTMTerm        string
	DeviceType     string    `gorm:"index;not null"`
	BrowserName    string    `gorm:"index"`
	OSName         string
	CountryCode    string    `gorm:"index;size:2"`
	ViewedAt       time.Time `gorm:"index;not null"`
	// DateOnly duplicates date(viewed_at) for partition-friendly querying.
	DateOnly  string `gorm:"index;size:10;not null"`
	CreatedAt time.Time
}
