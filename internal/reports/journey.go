package reports

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"sitepulse/internal/countries"
	"sitepulse/internal/events"
	"sitepulse/internal/visits"
)

// JourneyStep is one pageview inside a session's journey. TimeOnPage is the
// gap to the next pageview in seconds; it is nil on the exit step because no
// later view bounds it.
type JourneyStep struct {
	Position   int       `json:"position"`
	PagePath   string    `json:"page_path"`
	PageTitle  string    `json:"page_title"`
	ViewedAt   time.Time `json:"viewed_at"`
	TimeOnPage *int64    `json:"time_on_page"`
	IsExit     bool      `json:"is_exit"`
}

// JourneySession summarizes the visit row the journey belongs to.
type JourneySession struct {
	Hash            string    `json:"hash"`
	Date            string    `json:"date"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
	Pageviews       int       `json:"pageviews"`
	DurationSeconds int       `json:"duration_seconds"`
	IsBounce        bool      `json:"is_bounce"`
	LandingPage     string    `json:"landing_page"`
	ExitPage        string    `json:"exit_page"`
}

// JourneyVisitor describes who the session belonged to.
type JourneyVisitor struct {
	DeviceType   string `json:"device_type"`
	Country      string `json:"country"`
	ReferrerType string `json:"referrer_type"`
}

// JourneyUTM carries the campaign parameters of the session's first pageview.
type JourneyUTM struct {
	Source   string `json:"source"`
	Medium   string `json:"medium"`
	Campaign string `json:"campaign"`
	Term     string `json:"term"`
}

// SessionJourney is the full reconstruction of a single session.
type SessionJourney struct {
	Session JourneySession `json:"session"`
	Visitor JourneyVisitor `json:"visitor"`
	Journey []JourneyStep  `json:"journey"`
	UTM     JourneyUTM     `json:"utm"`
}

// GetSessionJourney reconstructs one session's pageview sequence. The lookup
// resolves the hash to its most recent visit day, so a hash that appears on
// several days returns the latest session. Returns gorm.ErrRecordNotFound
// when no visit exists for the hash.
func GetSessionJourney(db *gorm.DB, sessionHash string) (*SessionJourney, error) {
	visit, err := visits.FindByHash(db, sessionHash)
	if err != nil {
		return nil, err
	}

	var rows []events.PageviewEvent
	err = db.Raw(`
		SELECT * FROM pageview_events
		WHERE session_hash = ? AND date_only = ?
		ORDER BY viewed_at ASC, id ASC
	`, sessionHash, visit.DateOnly).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get session pageviews: %w", err)
	}

	steps := make([]JourneyStep, 0, len(rows))
	for i, row := range rows {
		step := JourneyStep{
			Position:  i + 1,
			PagePath:  row.PagePath,
			PageTitle: row.PageTitle,
			ViewedAt:  row.ViewedAt,
			IsExit:    i == len(rows)-1,
		}
		if i < len(rows)-1 {
			gap := int64(rows[i+1].ViewedAt.Sub(row.ViewedAt).Seconds())
			step.TimeOnPage = &gap
		}
		steps = append(steps, step)
	}

	journey := &SessionJourney{
		Session: JourneySession{
			Hash:            visit.SessionHash,
			Date:            visit.DateOnly,
			FirstSeen:       visit.FirstSeen,
			LastSeen:        visit.LastSeen,
			Pageviews:       visit.Pageviews,
			DurationSeconds: visit.DurationSeconds,
			IsBounce:        visit.IsBounce,
			LandingPage:     visit.LandingPage,
			ExitPage:        visit.ExitPage,
		},
		Visitor: JourneyVisitor{
			DeviceType:   visit.DeviceType,
			Country:      countries.DisplayName(visit.CountryCode),
			ReferrerType: visit.ReferrerType,
		},
		Journey: steps,
	}
	if len(rows) > 0 {
		first := rows[0]
		journey.UTM = JourneyUTM{
			Source:   first.UTMSource,
			Medium:   first.UTMMedium,
			Campaign: first.UTMCampaign,
			Term:     first.UTMTerm,
		}
	}
	return journey, nil
}
