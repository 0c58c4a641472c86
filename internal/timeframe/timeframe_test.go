package timeframe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/timeframe"
)

func TestParseDate(t *testing.T) {
	parsed, err := timeframe.ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), parsed)

	for _, input := range []string{"2024-3-15", "15-03-2024", "2024-03-15T00:00:00Z", "2023-02-29", ""} {
		_, err := timeframe.ParseDate(input)
		assert.Error(t, err, "input %q should be rejected", input)
	}
}

func TestParseRange(t *testing.T) {
	t.Run("explicit start and end", func(t *testing.T) {
		r, err := timeframe.ParseRange("2024-03-01", "2024-03-07", 0)
		require.NoError(t, err)
		assert.Equal(t, "2024-03-01", r.StartString())
		assert.Equal(t, "2024-03-07", r.EndString())
		assert.Equal(t, 7, r.Days())
	})

	t.Run("single-day range", func(t *testing.T) {
		r, err := timeframe.ParseRange("2024-03-01", "2024-03-01", 0)
		require.NoError(t, err)
		assert.Equal(t, 1, r.Days())
	})

	t.Run("start after end is rejected", func(t *testing.T) {
		_, err := timeframe.ParseRange("2024-03-07", "2024-03-01", 0)
		assert.Error(t, err)
	})

	t.Run("start without end is rejected", func(t *testing.T) {
		_, err := timeframe.ParseRange("2024-03-01", "", 0)
		assert.Error(t, err)

		_, err = timeframe.ParseRange("", "2024-03-07", 0)
		assert.Error(t, err)
	})

	t.Run("defaults to a trailing window ending today", func(t *testing.T) {
		r, err := timeframe.ParseRange("", "", 7)
		require.NoError(t, err)
		assert.Equal(t, timeframe.Today().Format("2006-01-02"), r.EndString())
		assert.Equal(t, timeframe.Today().AddDate(0, 0, -7).Format("2006-01-02"), r.StartString())
	})

	t.Run("zero days falls back to the default window", func(t *testing.T) {
		r, err := timeframe.ParseRange("", "", 0)
		require.NoError(t, err)
		assert.Equal(t, timeframe.Today().AddDate(0, 0, -timeframe.DefaultDays).Format("2006-01-02"), r.StartString())
	})
}

func TestPrevious(t *testing.T) {
	r, err := timeframe.ParseRange("2024-02-01", "2024-02-07", 0)
	require.NoError(t, err)

	prev := r.Previous()
	assert.Equal(t, "2024-01-25", prev.StartString())
	assert.Equal(t, "2024-01-31", prev.EndString())
	assert.Equal(t, r.Days(), prev.Days(), "previous period has the same length")

	// Single-day range: previous is the day before.
	single, err := timeframe.ParseRange("2024-03-01", "2024-03-01", 0)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", single.Previous().StartString())
	assert.Equal(t, "2024-02-29", single.Previous().EndString())
}

func TestBuildDailySeries(t *testing.T) {
	r, err := timeframe.ParseRange("2024-03-01", "2024-03-04", 0)
	require.NoError(t, err)

	series := r.BuildDailySeries([]timeframe.DateStat{
		{Date: "2024-03-02", Count: 5},
		{Date: "2024-03-04", Count: 3},
	})

	require.Len(t, series, 4)
	assert.Equal(t, timeframe.DateStat{Date: "2024-03-01", Count: 0}, series[0])
	assert.Equal(t, timeframe.DateStat{Date: "2024-03-02", Count: 5}, series[1])
	assert.Equal(t, timeframe.DateStat{Date: "2024-03-03", Count: 0}, series[2])
	assert.Equal(t, timeframe.DateStat{Date: "2024-03-04", Count: 3}, series[3])
}

func TestDayStrings(t *testing.T) {
	r, err := timeframe.ParseRange("2024-02-27", "2024-03-01", 0)
	require.NoError(t, err)

	// Leap year: February has 29 days.
	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}, r.DayStrings())
}
