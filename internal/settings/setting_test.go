package settings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/settings"
	"sitepulse/internal/testsupport"
)

func TestSetupDefaultSettings(t *testing.T) {
	t.Run("seeds defaults without clobbering existing values", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		require.NoError(t, settings.SetupDefaultSettings(db))

		value, err := settings.GetSetting(db, settings.KeyDataRetentionDays)
		require.NoError(t, err)
		assert.Equal(t, "365", value)

		// An operator-tuned value must survive a re-seed.
		require.NoError(t, settings.CreateOrUpdateSetting(db, settings.KeyDataRetentionDays, "90"))
		require.NoError(t, settings.SetupDefaultSettings(db))

		value, err = settings.GetSetting(db, settings.KeyDataRetentionDays)
		require.NoError(t, err)
		assert.Equal(t, "90", value)
	})
}

func TestGetRetentionDays(t *testing.T) {
	// Subtests share one database; the missing-row case must run before
	// anything seeds it.
	t.Run("falls back to the default when missing", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		assert.Equal(t, settings.DefaultRetentionDays, settings.GetRetentionDays(db))
	})

	t.Run("reads the configured value", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)
		require.NoError(t, settings.SetupDefaultSettings(db))

		require.NoError(t, settings.CreateOrUpdateSetting(db, settings.KeyDataRetentionDays, "30"))
		assert.Equal(t, 30, settings.GetRetentionDays(db))
	})

	t.Run("falls back to the default on malformed values", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)
		require.NoError(t, settings.SetupDefaultSettings(db))

		for _, bad := range []string{"not-a-number", "-5", "0"} {
			require.NoError(t, settings.CreateOrUpdateSetting(db, settings.KeyDataRetentionDays, bad))
			assert.Equal(t, settings.DefaultRetentionDays, settings.GetRetentionDays(db),
				"value %q should fall back", bad)
		}
	})
}

func TestGetAllSettingsForDisplay(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	require.NoError(t, settings.SetupDefaultSettings(db))

	all, err := settings.GetAllSettingsForDisplay(db)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, settings.KeyDataRetentionDays, all[0].Key, "settings come back key-ordered")
}
