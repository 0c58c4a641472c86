package reports_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/events"
	"sitepulse/internal/reports"
	"sitepulse/internal/testsupport"
	"sitepulse/internal/timeframe"
)

func TestBounceRatesBySource(t *testing.T) {
	r, err := timeframe.ParseRange("2024-01-01", "2024-01-07", 0)
	require.NoError(t, err)

	t.Run("replaces traffic share with the bounce rate", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		testsupport.SeedVisit(t, db, "b1", "2024-01-02", testsupport.VisitBounced())
		testsupport.SeedVisit(t, db, "b2", "2024-01-02")

		sources, err := reports.BounceRatesBySource(db, r, []reports.SourceBreakdown{
			{Type: events.ReferrerTypeDirect, Visitors: 2, Percent: 100},
		})
		require.NoError(t, err)
		assert.Equal(t, 50.0, sources[0].Percent)
	})

	t.Run("propagates query failures", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)
		require.NoError(t, db.Exec("DROP TABLE visits").Error)

		_, err := reports.BounceRatesBySource(db, r, []reports.SourceBreakdown{
			{Type: events.ReferrerTypeDirect, Visitors: 2, Percent: 100},
		})
		assert.Error(t, err)
	})
}
