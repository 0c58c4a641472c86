package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanupReportNeedsCompaction(t *testing.T) {
	t.Run("gates on a single table crossing the threshold", func(t *testing.T) {
		assert.True(t, CleanupReport{DeletedPageviews: 1001}.needsCompaction())
		assert.True(t, CleanupReport{DeletedVisits: 1001}.needsCompaction())
	})

	t.Run("ignores the combined total across tables", func(t *testing.T) {
		report := CleanupReport{DeletedPageviews: 600, DeletedVisits: 600}
		assert.False(t, report.needsCompaction())
	})

	t.Run("threshold itself does not trigger", func(t *testing.T) {
		assert.False(t, CleanupReport{DeletedPageviews: 1000}.needsCompaction())
	})

	t.Run("stats deletions alone never trigger", func(t *testing.T) {
		assert.False(t, CleanupReport{DeletedStats: 5000}.needsCompaction())
	})
}
