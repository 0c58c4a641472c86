package reports

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sitepulse/internal/events"
	"sitepulse/internal/pkg/async"
	"sitepulse/internal/timeframe"
)

// BreakdownItem is one dimension value's share of sessions and pageviews.
type BreakdownItem struct {
	Name      string  `json:"name"`
	Visitors  int64   `json:"visitors"`
	Pageviews int64   `json:"pageviews"`
	Percent   float64 `json:"percent"`
}

// DeviceBrowserItem is one cell of the device-type by browser cross-tab.
type DeviceBrowserItem struct {
	DeviceType string `json:"device_type"`
	Browser    string `json:"browser"`
	Visitors   int64  `json:"visitors"`
}

// Devices breaks down a period's human traffic by device type, browser, and
// operating system. Bot sessions are excluded throughout.
type Devices struct {
	DeviceTypes      []BreakdownItem     `json:"device_types"`
	Browsers         []BreakdownItem     `json:"browsers"`
	OperatingSystems []BreakdownItem     `json:"operating_systems"`
	BrowserByDevice  []DeviceBrowserItem `json:"browser_by_device"`
	TotalVisitors    int64               `json:"total_visitors"`
}

// GetDevices builds the device report for a range. The dimension breakdowns
// are independent, so they run concurrently through the async pool.
func GetDevices(ctx context.Context, db *gorm.DB, r timeframe.DateRange, limit int) (*Devices, error) {
	limit = ClampLimit(limit)

	total, err := getHumanVisitorTotal(db, r)
	if err != nil {
		return nil, fmt.Errorf("failed to get visitor total: %w", err)
	}

	tasks := []async.Task{
		{
			Name: "deviceTypes",
			Execute: func() (interface{}, error) {
				return getDimensionBreakdown(db, r, "device_type", total, limit)
			},
		},
		{
			Name: "browsers",
			Execute: func() (interface{}, error) {
				return getDimensionBreakdown(db, r, "browser_name", total, limit)
			},
		},
		{
			Name: "operatingSystems",
			Execute: func() (interface{}, error) {
				return getDimensionBreakdown(db, r, "os_name", total, limit)
			},
		},
		{
			Name: "browserByDevice",
			Execute: func() (interface{}, error) {
				return getBrowserByDevice(db, r, limit)
			},
		},
	}

	results := async.NewPool(len(tasks)).Execute(ctx, tasks)
	for _, result := range results {
		if result.Err != nil {
			return nil, fmt.Errorf("failed to get %s breakdown: %w", result.Name, result.Err)
		}
	}

	return &Devices{
		DeviceTypes:      results["deviceTypes"].Data.([]BreakdownItem),
		Browsers:         results["browsers"].Data.([]BreakdownItem),
		OperatingSystems: results["operatingSystems"].Data.([]BreakdownItem),
		BrowserByDevice:  results["browserByDevice"].Data.([]DeviceBrowserItem),
		TotalVisitors:    total,
	}, nil
}

func getHumanVisitorTotal(db *gorm.DB, r timeframe.DateRange) (int64, error) {
	var result struct{ Total int64 }
	err := db.Raw(`
		SELECT COUNT(DISTINCT session_hash) AS total
		FROM pageview_events
		WHERE date_only BETWEEN ? AND ? AND device_type != ?
	`, r.StartString(), r.EndString(), events.DeviceTypeBot).Scan(&result).Error
	if err != nil {
		return 0, err
	}
	return result.Total, nil
}

func getDimensionBreakdown(db *gorm.DB, r timeframe.DateRange, column string, total int64, limit int) ([]BreakdownItem, error) {
	var rows []BreakdownItem
	query := fmt.Sprintf(`
		SELECT %s AS name, COUNT(DISTINCT session_hash) AS visitors, COUNT(*) AS pageviews
		FROM pageview_events
		WHERE date_only BETWEEN ? AND ? AND device_type != ?
		GROUP BY %s
		ORDER BY visitors DESC, pageviews DESC, name ASC
		LIMIT ?
	`, column, column)
	err := db.Raw(query, r.StartString(), r.EndString(), events.DeviceTypeBot, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Percent = Percent(rows[i].Visitors, total)
	}
	return rows, nil
}

func getBrowserByDevice(db *gorm.DB, r timeframe.DateRange, limit int) ([]DeviceBrowserItem, error) {
	var rows []DeviceBrowserItem
	err := db.Raw(`
		SELECT device_type, browser_name AS browser, COUNT(DISTINCT session_hash) AS visitors
		FROM pageview_events
		WHERE date_only BETWEEN ? AND ? AND device_type != ?
		GROUP BY device_type, browser_name
		ORDER BY visitors DESC, device_type ASC, browser ASC
		LIMIT ?
	`, r.StartString(), r.EndString(), events.DeviceTypeBot, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
