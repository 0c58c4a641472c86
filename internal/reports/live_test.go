package reports_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/reports"
	"sitepulse/internal/testsupport"
)

func TestGetLive(t *testing.T) {
	t.Run("shows sessions active inside the window with their latest page", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

		testsupport.SeedPageview(t, db, "active", now.Add(-4*time.Minute),
			testsupport.WithPage("/", "Home"))
		testsupport.SeedPageview(t, db, "active", now.Add(-2*time.Minute),
			testsupport.WithPage("/pricing", "Pricing"))
		testsupport.SeedPageview(t, db, "stale", now.Add(-30*time.Minute),
			testsupport.WithPage("/old", "Old"))

		live, err := reports.GetLive(db, now, 5)
		require.NoError(t, err)

		assert.Equal(t, int64(1), live.ActiveCount)
		require.Len(t, live.Visitors, 1)
		assert.Equal(t, "active", live.Visitors[0].SessionHash)
		assert.Equal(t, "/pricing", live.Visitors[0].CurrentPage)
		assert.Equal(t, int64(2), live.Visitors[0].Pageviews)
		assert.True(t, live.Visitors[0].LastSeen.Equal(now.Add(-2*time.Minute)))
		assert.Equal(t, 5, live.CutoffMinutes)
	})

	t.Run("activity series always covers the trailing hour", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

		live, err := reports.GetLive(db, now, 5)
		require.NoError(t, err)

		assert.Len(t, live.Activity, 60)
		for _, point := range live.Activity {
			assert.Equal(t, int64(0), point.Count)
		}
	})

	t.Run("clamps the requested window", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

		live, err := reports.GetLive(db, now, 1440)
		require.NoError(t, err)
		assert.Equal(t, reports.MaxLiveWindowMinutes, live.CutoffMinutes)

		live, err = reports.GetLive(db, now, 0)
		require.NoError(t, err)
		assert.Equal(t, reports.DefaultLiveWindowMinutes, live.CutoffMinutes)
	})
}
