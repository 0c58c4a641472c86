package jobs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/jobs"
	"sitepulse/internal/testsupport"
)

func TestAggregateJob(t *testing.T) {
	t.Run("aggregates the given date", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		day := time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)
		testsupport.SeedPageview(t, db, "sess-a", day)
		testsupport.SeedVisit(t, db, "sess-a", "2024-05-10")

		job := jobs.NewAggregateJob(db, testsupport.GetLogger())
		require.NoError(t, job.Run("2024-05-10", false))

		var count int64
		db.Raw("SELECT COUNT(*) FROM daily_stats WHERE stat_date = ?", "2024-05-10").Scan(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("defaults to yesterday", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		job := jobs.NewAggregateJob(db, testsupport.GetLogger())
		require.NoError(t, job.Run("", false))

		var count int64
		db.Raw("SELECT COUNT(*) FROM daily_stats WHERE stat_date = ?", jobs.Yesterday()).Scan(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("backfill fills older gaps too", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		for _, date := range []string{"2024-05-01", "2024-05-02"} {
			day, err := time.Parse("2006-01-02", date)
			require.NoError(t, err)
			testsupport.SeedPageview(t, db, "sess-"+date, day.Add(9*time.Hour))
		}

		job := jobs.NewAggregateJob(db, testsupport.GetLogger())
		require.NoError(t, job.Run("2024-05-03", true))

		var dates []string
		db.Raw("SELECT stat_date FROM daily_stats ORDER BY stat_date ASC").Scan(&dates)
		assert.Equal(t, []string{"2024-05-01", "2024-05-02", "2024-05-03"}, dates)
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		job := jobs.NewAggregateJob(db, testsupport.GetLogger())
		assert.Error(t, job.Run("05/10/2024", false))
	})
}
