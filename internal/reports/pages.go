package reports

import (
	"fmt"

	"gorm.io/gorm"

	"sitepulse/internal/timeframe"
)

// PageItem is one page path's traffic in a period.
type PageItem struct {
	Path     string `json:"path"`
	Title    string `json:"title"`
	Views    int64  `json:"views"`
	Visitors int64  `json:"visitors"`
}

// Pages lists a period's most viewed pages plus session entry and exit pages.
type Pages struct {
	Pages          []PageItem  `json:"pages"`
	LandingPages   []CountItem `json:"landing_pages"`
	ExitPages      []CountItem `json:"exit_pages"`
	TotalPageviews int64       `json:"total_pageviews"`
}

// PageDetail is the per-path drill view: a zero-filled daily trend plus the
// referrers that sent traffic to the page.
type PageDetail struct {
	Page      string               `json:"page"`
	Daily     []TrendPoint         `json:"daily"`
	Referrers []ReferrerDomainItem `json:"referrers"`
}

// GetPages builds the content report for a range.
func GetPages(db *gorm.DB, r timeframe.DateRange, limit int) (*Pages, error) {
	limit = ClampLimit(limit)

	pages, err := getTopPages(db, r, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top pages: %w", err)
	}

	landing, err := getVisitPageColumn(db, r, "landing_page", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get landing pages: %w", err)
	}

	exit, err := getVisitPageColumn(db, r, "exit_page", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get exit pages: %w", err)
	}

	total, err := getTotalPageviews(db, r)
	if err != nil {
		return nil, fmt.Errorf("failed to get pageview total: %w", err)
	}

	return &Pages{
		Pages:          pages,
		LandingPages:   landing,
		ExitPages:      exit,
		TotalPageviews: total,
	}, nil
}

// GetPageDetail builds the single-page report for a range.
func GetPageDetail(db *gorm.DB, r timeframe.DateRange, path string, limit int) (*PageDetail, error) {
	limit = ClampLimit(limit)

	var grouped []timeframe.DateStat
	err := db.Raw(`
		SELECT date_only AS date, COUNT(*) AS count
		FROM pageview_events
		WHERE date_only BETWEEN ? AND ? AND page_path = ?
		GROUP BY date_only
		ORDER BY date_only ASC
	`, r.StartString(), r.EndString(), path).Scan(&grouped).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get page trend: %w", err)
	}

	var referrers []ReferrerDomainItem
	err = db.Raw(`
		SELECT referrer_domain AS domain, referrer_type AS type,
			COUNT(DISTINCT session_hash) AS visitors, COUNT(*) AS pageviews
		FROM pageview_events
		WHERE date_only BETWEEN ? AND ? AND page_path = ? AND referrer_domain != ''
		GROUP BY referrer_domain, referrer_type
		ORDER BY visitors DESC
		LIMIT ?
	`, r.StartString(), r.EndString(), path, limit).Scan(&referrers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get page referrers: %w", err)
	}

	detail := &PageDetail{Page: path, Referrers: referrers}
	for _, point := range r.BuildDailySeries(grouped) {
		detail.Daily = append(detail.Daily, TrendPoint{Date: point.Date, Count: point.Count})
	}
	return detail, nil
}

// getTotalPageviews counts every pageview in the range, independent of the
// list limit applied to the page breakdowns.
func getTotalPageviews(db *gorm.DB, r timeframe.DateRange) (int64, error) {
	var result struct {
		Total int64
	}
	err := db.Raw(`
		SELECT COUNT(*) AS total
		FROM pageview_events
		WHERE date_only BETWEEN ? AND ?
	`, r.StartString(), r.EndString()).Scan(&result).Error
	if err != nil {
		return 0, err
	}
	return result.Total, nil
}

// getTopPages ranks paths by view count. Title is taken from the most recent
// pageview so renamed pages show their current title.
func getTopPages(db *gorm.DB, r timeframe.DateRange, limit int) ([]PageItem, error) {
	var rows []PageItem
	err := db.Raw(`
		SELECT page_path AS path,
			MAX(page_title) AS title,
			COUNT(*) AS views,
			COUNT(DISTINCT session_hash) AS visitors
		FROM pageview_events
		WHERE date_only BETWEEN ? AND ?
		GROUP BY page_path
		ORDER BY views DESC
		LIMIT ?
	`, r.StartString(), r.EndString(), limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func getVisitPageColumn(db *gorm.DB, r timeframe.DateRange, column string, limit int) ([]CountItem, error) {
	var rows []CountItem
	query := fmt.Sprintf(`
		SELECT %s AS name, COUNT(*) AS count
		FROM visits
		WHERE date_only BETWEEN ? AND ? AND %s != ''
		GROUP BY %s
		ORDER BY count DESC
		LIMIT ?
	`, column, column, column)
	err := db.Raw(query, r.StartString(), r.EndString(), limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
