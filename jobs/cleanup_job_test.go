package jobs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	require.NoError(t, err)
	return db
}

// Notifications carry a deleted_at column, so the prune must issue a real
// DELETE rather than a soft-delete UPDATE that would leave rows behind.
func TestStaleNotificationPruneHardDeletes(t *testing.T) {
	res := deleteStaleNotifications(dryRunDB(t))
	require.NoError(t, res.Error)

	sql := res.Statement.SQL.String()
	assert.True(t, strings.HasPrefix(sql, "DELETE FROM"), "expected a hard delete, got: %s", sql)
	assert.Contains(t, sql, "notifications")
	assert.Contains(t, sql, "read = ")
	assert.Contains(t, sql, "created_at <= ")
}

func TestRefreshTokenPruneDeletes(t *testing.T) {
	res := deleteExpiredRefreshTokens(dryRunDB(t))
	require.NoError(t, res.Error)

	sql := res.Statement.SQL.String()
	assert.True(t, strings.HasPrefix(sql, "DELETE FROM"), "expected a delete, got: %s", sql)
	assert.Contains(t, sql, "refresh_tokens")
	assert.Contains(t, sql, "is_revoked = ")
}
