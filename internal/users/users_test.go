package users_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/testsupport"
	"sitepulse/internal/users"
)

func TestCreateAdminUser(t *testing.T) {
	t.Run("creates a user with a verifiable password", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		require.NoError(t, users.CreateAdminUser(db, "admin@example.com", "correct-horse"))

		user, err := users.FindByEmail(db, "admin@example.com")
		require.NoError(t, err)
		assert.True(t, user.VerifyPassword("correct-horse"))
		assert.False(t, user.VerifyPassword("wrong-password"))
		assert.NotEqual(t, "correct-horse", user.EncryptedPassword, "password must be stored hashed")
	})

	t.Run("rejects short passwords and duplicate emails", func(t *testing.T) {
		db := testsupport.SetupTestDB(t)

		assert.Error(t, users.CreateAdminUser(db, "short@example.com", "tiny"))
		assert.Error(t, users.CreateAdminUser(db, "", "long-enough-pass"))

		require.NoError(t, users.CreateAdminUser(db, "dup@example.com", "long-enough-pass"))
		assert.Error(t, users.CreateAdminUser(db, "dup@example.com", "long-enough-pass"))
	})
}

func TestChangePassword(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	require.NoError(t, users.CreateAdminUser(db, "rotate@example.com", "initial-pass"))
	user, err := users.FindByEmail(db, "rotate@example.com")
	require.NoError(t, err)

	require.NoError(t, users.ChangePassword(db, user.ID, "rotated-pass"))

	updated, err := users.FindByID(db, user.ID)
	require.NoError(t, err)
	assert.True(t, updated.VerifyPassword("rotated-pass"))
	assert.False(t, updated.VerifyPassword("initial-pass"))

	assert.Error(t, users.ChangePassword(db, user.ID, "tiny"))
	assert.Error(t, users.ChangePassword(db, 99999, "rotated-pass"))
}
