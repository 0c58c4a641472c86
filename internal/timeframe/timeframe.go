// Package timeframe provides calendar date range parsing and daily time
// series construction for the reporting layer. All dashboard queries operate
// at day granularity over the denormalized date_only columns.
package timeframe

import (
	"fmt"
	"regexp"
	"time"
)

// DateFormat is the canonical YYYY-MM-DD layout.
const DateFormat = "2006-01-02"

// DefaultDays is the trailing window applied when a request supplies neither
// explicit dates nor a days parameter.
const DefaultDays = 30

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DateStat is one (date, count) point of a grouped query result.
type DateStat struct {
	Date  string
	Count int64
}

// DateRange is an inclusive calendar day range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDate parses a strict YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ParseRange resolves a request's date window. Explicit start/end override the
// trailing-days default of [today - days, today]. days <= 0 falls back to
// DefaultDays.
func ParseRange(startStr, endStr string, days int) (DateRange, error) {
	if startStr != "" || endStr != "" {
		if startStr == "" || endStr == "" {
			return DateRange{}, fmt.Errorf("start and end must be supplied together")
		}
		start, err := ParseDate(startStr)
		if err != nil {
			return DateRange{}, err
		}
		end, err := ParseDate(endStr)
		if err != nil {
			return DateRange{}, err
		}
		if start.After(end) {
			return DateRange{}, fmt.Errorf("start %s is after end %s", startStr, endStr)
		}
		return DateRange{Start: start, End: end}, nil
	}

	if days <= 0 {
		days = DefaultDays
	}

	today := Today()
	return DateRange{Start: today.AddDate(0, 0, -days), End: today}, nil
}

// Today returns the current UTC date truncated to midnight.
func Today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Days returns the number of calendar days in the range, inclusive.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// StartString returns the range start as YYYY-MM-DD.
func (r DateRange) StartString() string {
	return r.Start.Format(DateFormat)
}

// EndString returns the range end as YYYY-MM-DD.
func (r DateRange) EndString() string {
	return r.End.Format(DateFormat)
}

// DayStrings returns every date in the range as YYYY-MM-DD, ascending.
func (r DateRange) DayStrings() []string {
	days := make([]string, 0, r.Days())
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateFormat))
	}
	return days
}

// Previous returns the same-length window immediately preceding this one:
// contiguous, non-overlapping, ending the day before this range starts.
func (r DateRange) Previous() DateRange {
	length := r.Days()
	end := r.Start.AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -(length - 1))
	return DateRange{Start: start, End: end}
}

// BuildDailySeries produces exactly one entry per calendar day in the range,
// ascending, zero-filled for days absent from the grouped results.
func (r DateRange) BuildDailySeries(grouped []DateStat) []DateStat {
	byDate := make(map[string]int64, len(grouped))
	for _, stat := range grouped {
		byDate[stat.Date] = stat.Count
	}

	days := r.DayStrings()
	series := make([]DateStat, len(days))
	for i, day := range days {
		series[i] = DateStat{Date: day, Count: byDate[day]}
	}
	return series
}
