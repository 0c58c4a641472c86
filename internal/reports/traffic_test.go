package reports_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/events"
	"sitepulse/internal/reports"
	"sitepulse/internal/testsupport"
)

func TestGetTraffic(t *testing.T) {
	t.Run("zero-fills days without traffic", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		testsupport.SeedDailyStat(t, db, "2024-03-01", 10, 4, 1, 600)
		testsupport.SeedDailyStat(t, db, "2024-03-03", 20, 8, 2, 1200)

		traffic, err := reports.GetTraffic(db, mustRange(t, "2024-03-01", "2024-03-04"))
		require.NoError(t, err)

		assert.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04"}, traffic.Timeseries.Labels)
		assert.Equal(t, []int64{4, 0, 8, 0}, traffic.Timeseries.Visitors)
		assert.Equal(t, []int64{10, 0, 20, 0}, traffic.Timeseries.Pageviews)
	})

	t.Run("breaks sessions down by source excluding internal", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		testsupport.SeedVisit(t, db, "s1", "2024-03-10", testsupport.VisitReferrerType(events.ReferrerTypeSearch))
		testsupport.SeedVisit(t, db, "s2", "2024-03-10", testsupport.VisitReferrerType(events.ReferrerTypeSearch))
		testsupport.SeedVisit(t, db, "s3", "2024-03-10", testsupport.VisitReferrerType(events.ReferrerTypeDirect))
		testsupport.SeedVisit(t, db, "s4", "2024-03-11", testsupport.VisitReferrerType(events.ReferrerTypeInternal))

		traffic, err := reports.GetTraffic(db, mustRange(t, "2024-03-10", "2024-03-11"))
		require.NoError(t, err)

		require.Len(t, traffic.Sources, 2, "internal navigation is not a source")
		assert.Equal(t, events.ReferrerTypeSearch, traffic.Sources[0].Type)
		assert.Equal(t, int64(2), traffic.Sources[0].Visitors)
		assert.Equal(t, 66.7, traffic.Sources[0].Percent)
		assert.Equal(t, events.ReferrerTypeDirect, traffic.Sources[1].Type)
		assert.Equal(t, 33.3, traffic.Sources[1].Percent)
	})
}
