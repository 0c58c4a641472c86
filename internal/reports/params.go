// Package reports implements the read-only reporting query layer behind the
// admin dashboard API. Every operation is a stateless read against the event
// store, visit rows, or the daily rollup table; nothing here mutates data.
package reports

import (
	"math"
	"strings"
)

// MaxListLimit caps every list endpoint to bound result size and prevent
// unbounded scans.
const MaxListLimit = 100

// DefaultListLimit applies when a request supplies no limit.
const DefaultListLimit = 10

// ClampLimit resolves a requested limit against the default and maximum.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// Percent computes round(part / total * 100, 1). A zero total is coerced to 1
// so zero-data periods report 0.0 rather than dividing by zero.
func Percent(part, total int64) float64 {
	if total == 0 {
		total = 1
	}
	return Round1(float64(part) / float64(total) * 100)
}

// Round1 rounds to one decimal place.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// TrendPoint is one day of a daily trend series.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// CountItem is a generic name/count pair used across breakdowns.
type CountItem struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// conditions assembles optional SQL predicates while preserving
// parameter-position alignment; predicates and their arguments are appended
// together, never string-concatenated with values.
type conditions struct {
	clauses []string
	args    []interface{}
}

func (c *conditions) add(clause string, args ...interface{}) {
	c.clauses = append(c.clauses, clause)
	c.args = append(c.args, args...)
}

func (c *conditions) addIf(ok bool, clause string, args ...interface{}) {
	if ok {
		c.add(clause, args...)
	}
}

// where renders the assembled predicates as an AND-joined WHERE clause.
func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(c.clauses, " AND ")
}
