package storage

import (
	"io"
	"regexp"
	"testing"
	"time"

	"quake-observer/src/logger"
	"quake-observer/src/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &models.MConfig{Storage: models.MStorageConfig{DBType: "postgres", RetentionDays: 3}}
	pg := &PostgresDB{Config: cfg, DB: db, Schema: "quake", Logger: logger.NewLoggerWithWriter(cfg, "PostgresDB", io.Discard)}
	return pg, mock
}

func TestSchemaName(t *testing.T) {
	assert.Equal(t, "quake_observer", SchemaName("quake-observer"))
	assert.Equal(t, "main", SchemaName("Main"))
	assert.Equal(t, "quake_observer", SchemaName(""))
}

func TestPostgres_AttachCreatesSchemaAndTables(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE SCHEMA IF NOT EXISTS "quake"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "quake"."filter_changes"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "quake"."fetch_outcomes"`)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, pg.Attach(pg.DB))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveFetchOutcomes(t *testing.T) {
	pg, mock := newMockPostgres(t)
	finished := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "quake"."fetch_outcomes"`))
	prep.ExpectExec().
		WithArgs("s1", "map", int64(3), "min_magnitude=1", "failed", "http", 502, "bad status", 12.5, finished).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := pg.SaveFetchOutcomes([]models.MFetchOutcome{{
		SessionID:  "s1",
		Endpoint:   models.EndpointMap,
		Sequence:   3,
		Query:      "min_magnitude=1",
		State:      models.StateFailed,
		ErrorKind:  "http",
		HTTPStatus: 502,
		Error:      "bad status",
		Duration:   12500 * time.Microsecond,
		FinishedAt: finished,
	}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveFilterChangesRollsBackOnError(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "quake"."filter_changes"`))
	prep.ExpectExec().WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := pg.SaveFilterChanges([]models.MFilterChange{{
		SessionID: "s1",
		Filter:    models.MFilterSnapshot{MinMagnitude: 4, MaxDepth: 50, TimeRangeHours: 24},
		ChangedAt: time.Now(),
	}})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_EmptyBatchesTouchNothing(t *testing.T) {
	pg, mock := newMockPostgres(t)
	assert.NoError(t, pg.SaveFetchOutcomes(nil))
	assert.NoError(t, pg.SaveFilterChanges(nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CleanupOldData(t *testing.T) {
	pg, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "quake"."filter_changes" WHERE changed_at < $1`)).
		WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "quake"."fetch_outcomes" WHERE finished_at < $1`)).
		WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 9))

	require.NoError(t, pg.CleanupOldData())
	assert.NoError(t, mock.ExpectationsWereMet())
}
