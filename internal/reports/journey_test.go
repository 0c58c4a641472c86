package reports_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sitepulse/internal/reports"
	"sitepulse/internal/testsupport"
)

func TestGetSessionJourney(t *testing.T) {
	t.Run("orders steps and computes time on page from gaps", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		base := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
		testsupport.SeedPageview(t, db, "sess-j", base, testsupport.WithPage("/", "Home"))
		testsupport.SeedPageview(t, db, "sess-j", base.Add(45*time.Second), testsupport.WithPage("/pricing", "Pricing"))
		testsupport.SeedPageview(t, db, "sess-j", base.Add(105*time.Second), testsupport.WithPage("/signup", "Sign Up"))
		testsupport.SeedVisit(t, db, "sess-j", "2024-07-01", testsupport.VisitPages("/", "/signup", 3))

		journey, err := reports.GetSessionJourney(db, "sess-j")
		require.NoError(t, err)

		require.Len(t, journey.Journey, 3)

		first := journey.Journey[0]
		assert.Equal(t, 1, first.Position)
		assert.Equal(t, "/", first.PagePath)
		require.NotNil(t, first.TimeOnPage)
		assert.Equal(t, int64(45), *first.TimeOnPage)
		assert.False(t, first.IsExit)

		second := journey.Journey[1]
		require.NotNil(t, second.TimeOnPage)
		assert.Equal(t, int64(60), *second.TimeOnPage)

		last := journey.Journey[2]
		assert.Equal(t, 3, last.Position)
		assert.Equal(t, "/signup", last.PagePath)
		assert.Nil(t, last.TimeOnPage, "exit step has no bounded duration")
		assert.True(t, last.IsExit)

		assert.Equal(t, "sess-j", journey.Session.Hash)
		assert.Equal(t, "/", journey.Session.LandingPage)
		assert.Equal(t, "/signup", journey.Session.ExitPage)
	})

	t.Run("resolves a hash seen on several days to the latest session", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		old := time.Date(2024, 7, 2, 9, 0, 0, 0, time.UTC)
		recent := time.Date(2024, 7, 5, 9, 0, 0, 0, time.UTC)
		testsupport.SeedPageview(t, db, "sess-r", old, testsupport.WithPage("/old", "Old"))
		testsupport.SeedPageview(t, db, "sess-r", recent, testsupport.WithPage("/new", "New"))
		testsupport.SeedVisit(t, db, "sess-r", "2024-07-02")
		testsupport.SeedVisit(t, db, "sess-r", "2024-07-05")

		journey, err := reports.GetSessionJourney(db, "sess-r")
		require.NoError(t, err)

		assert.Equal(t, "2024-07-05", journey.Session.Date)
		require.Len(t, journey.Journey, 1)
		assert.Equal(t, "/new", journey.Journey[0].PagePath)
	})

	t.Run("carries the first pageview's campaign parameters", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		base := time.Date(2024, 7, 3, 10, 0, 0, 0, time.UTC)
		testsupport.SeedPageview(t, db, "sess-u", base,
			testsupport.WithUTM("newsletter", "email", "launch", ""))
		testsupport.SeedPageview(t, db, "sess-u", base.Add(time.Minute))
		testsupport.SeedVisit(t, db, "sess-u", "2024-07-03")

		journey, err := reports.GetSessionJourney(db, "sess-u")
		require.NoError(t, err)

		assert.Equal(t, "newsletter", journey.UTM.Source)
		assert.Equal(t, "email", journey.UTM.Medium)
		assert.Equal(t, "launch", journey.UTM.Campaign)
	})

	t.Run("unknown hash is a not-found error", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		_, err := reports.GetSessionJourney(db, "no-such-session")
		assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	})
}
