package storage

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"quake-observer/src/logger"
	"quake-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T) *AsyncSQLiteDB {
	t.Helper()
	cfg := &models.MConfig{Storage: models.MStorageConfig{
		DBType:        "sqlite",
		DBPath:        filepath.Join(t.TempDir(), "journal.db"),
		RetentionDays: 7,
	}}
	db, err := NewAsyncSQLiteDB(cfg, logger.NewLoggerWithWriter(cfg, "SQLiteDB", io.Discard))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })
	return db
}

func count(t *testing.T, db *AsyncSQLiteDB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.DB.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestSQLite_SaveAndCleanup(t *testing.T) {
	db := newSQLite(t)
	now := time.Now()
	old := now.Add(-30 * 24 * time.Hour)

	require.NoError(t, db.SaveFilterChanges([]models.MFilterChange{
		{SessionID: "a", Filter: models.MFilterSnapshot{MinMagnitude: 4, MaxDepth: 50, TimeRangeHours: 24}, Query: "q", ChangedAt: now},
		{SessionID: "a", Filter: models.MFilterSnapshot{MinMagnitude: 1, MaxDepth: 40, TimeRangeHours: 24}, Query: "q0", ChangedAt: old},
	}))
	require.NoError(t, db.SaveFetchOutcomes([]models.MFetchOutcome{
		{SessionID: "a", Endpoint: models.EndpointMap, Sequence: 1, State: models.StateApplied, Duration: time.Millisecond, FinishedAt: now},
		{SessionID: "a", Endpoint: models.EndpointMap, Sequence: 2, State: models.StateSuperseded, FinishedAt: old},
	}))

	assert.Equal(t, 2, count(t, db, "filter_changes"))
	assert.Equal(t, 2, count(t, db, "fetch_outcomes"))

	var state string
	require.NoError(t, db.DB.QueryRow("SELECT state FROM fetch_outcomes WHERE sequence = 1").Scan(&state))
	assert.Equal(t, "applied", state)

	require.NoError(t, db.CleanupOldData())
	assert.Equal(t, 1, count(t, db, "filter_changes"))
	assert.Equal(t, 1, count(t, db, "fetch_outcomes"))
}

func TestSQLite_DuplicateOutcomeIgnored(t *testing.T) {
	db := newSQLite(t)
	o := models.MFetchOutcome{SessionID: "a", Endpoint: models.EndpointCharts, Sequence: 5, State: models.StateFailed, FinishedAt: time.Now()}

	require.NoError(t, db.SaveFetchOutcomes([]models.MFetchOutcome{o}))
	require.NoError(t, db.SaveFetchOutcomes([]models.MFetchOutcome{o}))
	assert.Equal(t, 1, count(t, db, "fetch_outcomes"))
}

func TestSQLite_InitializeIsRepeatable(t *testing.T) {
	db := newSQLite(t)
	require.NoError(t, db.SaveFilterChanges([]models.MFilterChange{{SessionID: "a", ChangedAt: time.Now()}}))

	// Reopening keeps the journal.
	require.NoError(t, db.Close())
	require.NoError(t, db.Initialize())
	assert.Equal(t, 1, count(t, db, "filter_changes"))
}
