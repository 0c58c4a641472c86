package reports_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/events"
	"sitepulse/internal/reports"
	"sitepulse/internal/testsupport"
)

func TestGetDevices(t *testing.T) {
	t.Run("breaks traffic down excluding bots", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)
		day := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

		testsupport.SeedPageview(t, db, "d1", day,
			testsupport.WithDevice(events.DeviceTypeDesktop, "Chrome", "macOS"))
		testsupport.SeedPageview(t, db, "d1", day.Add(time.Minute),
			testsupport.WithDevice(events.DeviceTypeDesktop, "Chrome", "macOS"))
		testsupport.SeedPageview(t, db, "m1", day,
			testsupport.WithDevice(events.DeviceTypeMobile, "Safari", "iOS"))
		testsupport.SeedPageview(t, db, "bot1", day,
			testsupport.WithDevice(events.DeviceTypeBot, "curl", "Linux"))

		devices, err := reports.GetDevices(context.Background(), db, mustRange(t, "2024-03-05", "2024-03-05"), 10)
		require.NoError(t, err)

		assert.Equal(t, int64(2), devices.TotalVisitors, "bot sessions do not count")

		require.Len(t, devices.DeviceTypes, 2)
		assert.Equal(t, events.DeviceTypeDesktop, devices.DeviceTypes[0].Name)
		assert.Equal(t, int64(1), devices.DeviceTypes[0].Visitors)
		assert.Equal(t, int64(2), devices.DeviceTypes[0].Pageviews)
		assert.Equal(t, 50.0, devices.DeviceTypes[0].Percent)

		require.Len(t, devices.Browsers, 2)
		require.Len(t, devices.OperatingSystems, 2)
		require.Len(t, devices.BrowserByDevice, 2)
	})

	t.Run("orders fully tied dimensions by name", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)
		day := time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)

		testsupport.SeedPageview(t, db, "t1", day,
			testsupport.WithDevice(events.DeviceTypeMobile, "Safari", "iOS"))
		testsupport.SeedPageview(t, db, "t2", day,
			testsupport.WithDevice(events.DeviceTypeDesktop, "Chrome", "macOS"))

		devices, err := reports.GetDevices(context.Background(), db, mustRange(t, "2024-03-07", "2024-03-07"), 10)
		require.NoError(t, err)

		require.Len(t, devices.DeviceTypes, 2)
		assert.Equal(t, events.DeviceTypeDesktop, devices.DeviceTypes[0].Name)
		assert.Equal(t, events.DeviceTypeMobile, devices.DeviceTypes[1].Name)

		require.Len(t, devices.BrowserByDevice, 2)
		assert.Equal(t, events.DeviceTypeDesktop, devices.BrowserByDevice[0].DeviceType)
	})

	t.Run("returns empty breakdowns without traffic", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		devices, err := reports.GetDevices(context.Background(), db, mustRange(t, "2024-03-06", "2024-03-06"), 10)
		require.NoError(t, err)

		assert.Equal(t, int64(0), devices.TotalVisitors)
		assert.Empty(t, devices.DeviceTypes)
	})
}
