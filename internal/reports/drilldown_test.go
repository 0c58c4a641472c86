package reports_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/reports"
	"sitepulse/internal/testsupport"
)

func TestGetDrilldown(t *testing.T) {
	t.Run("rejects unknown metrics", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		_, err := reports.GetDrilldown(db, mustRange(t, "2024-03-01", "2024-03-07"), "revenue", 10)
		assert.True(t, errors.Is(err, reports.ErrUnknownMetric))

		_, err = reports.GetDrilldown(db, mustRange(t, "2024-03-01", "2024-03-07"), "", 10)
		assert.True(t, errors.Is(err, reports.ErrUnknownMetric))
	})

	t.Run("visitors metric returns trend and recent sessions", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		testsupport.SeedDailyStat(t, db, "2024-03-01", 10, 4, 1, 600)
		testsupport.SeedVisit(t, db, "s1", "2024-03-01")
		testsupport.SeedVisit(t, db, "s2", "2024-03-02")

		data, err := reports.GetDrilldown(db, mustRange(t, "2024-03-01", "2024-03-03"), reports.MetricVisitors, 10)
		require.NoError(t, err)

		drill, ok := data.(*reports.VisitorsDrilldown)
		require.True(t, ok)
		assert.Len(t, drill.Daily, 3, "trend covers every day in the range")
		assert.Len(t, drill.Recent, 2)
	})

	t.Run("bounce metric separates bounced and engaged sessions", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		testsupport.SeedVisit(t, db, "b1", "2024-03-10", testsupport.VisitBounced())
		testsupport.SeedVisit(t, db, "b2", "2024-03-10", testsupport.VisitBounced())
		testsupport.SeedVisit(t, db, "e1", "2024-03-10", testsupport.VisitDuration(400))

		data, err := reports.GetDrilldown(db, mustRange(t, "2024-03-10", "2024-03-10"), reports.MetricBounce, 10)
		require.NoError(t, err)

		drill, ok := data.(*reports.BounceDrilldown)
		require.True(t, ok)
		assert.Len(t, drill.Bounced, 2)
		assert.Len(t, drill.Engaged, 1)
		require.Len(t, drill.BySource, 1)
		assert.Equal(t, 66.7, drill.BySource[0].Percent, "two of three direct sessions bounced")
	})

	t.Run("duration metric buckets sessions into a histogram", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		testsupport.SeedVisit(t, db, "d1", "2024-03-20", testsupport.VisitDuration(5))
		testsupport.SeedVisit(t, db, "d2", "2024-03-20", testsupport.VisitDuration(45))
		testsupport.SeedVisit(t, db, "d3", "2024-03-20", testsupport.VisitDuration(900))

		data, err := reports.GetDrilldown(db, mustRange(t, "2024-03-20", "2024-03-20"), reports.MetricDuration, 10)
		require.NoError(t, err)

		drill, ok := data.(*reports.DurationDrilldown)
		require.True(t, ok)
		require.Len(t, drill.Histogram, 3)
		assert.Equal(t, "0-10s", drill.Histogram[0].Name)
		assert.Equal(t, "31-60s", drill.Histogram[1].Name)
		assert.Equal(t, "10m+", drill.Histogram[2].Name)

		require.NotEmpty(t, drill.Longest)
		assert.Equal(t, "d3", drill.Longest[0].SessionHash)
	})
}
