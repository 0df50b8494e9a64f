package storage

import (
	"database/sql"
	"fmt"
	"time"

	"quake-observer/src/logger"
	"quake-observer/src/models"
	"quake-observer/src/utils"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// AsyncSQLiteDB is the default diagnostics journal. It is write-only from the
// dashboard's point of view: filter state is never restored from it.
type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	if log == nil {
		log = logger.NewLogger(cfg, "SQLiteDB")
	}
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.Attach(db)
}

// -----------------------------------------------------------------------------

// Attach uses an already opened connection and creates the journal tables.
func (d *AsyncSQLiteDB) Attach(db *sql.DB) error {
	d.DB = db
	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) createTables() error {
	// SQLite types: INTEGER for int64/millis, REAL for float64, TEXT for string
	query := `
		CREATE TABLE IF NOT EXISTS filter_changes (
			session_id TEXT,
			min_magnitude REAL,
			max_depth REAL,
			time_range_hours REAL,
			query TEXT,
			changed_at INTEGER
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create filter_changes: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS fetch_outcomes (
			session_id TEXT,
			endpoint TEXT,
			sequence INTEGER,
			query TEXT,
			state TEXT,
			error_kind TEXT,
			http_status INTEGER,
			error TEXT,
			duration_ms REAL,
			finished_at INTEGER,
			PRIMARY KEY (session_id, endpoint, sequence)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create fetch_outcomes: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveFilterChanges(changes []models.MFilterChange) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO filter_changes (session_id, min_magnitude, max_depth, time_range_hours, query, changed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range changes {
		_, err := stmt.Exec(c.SessionID, c.Filter.MinMagnitude, c.Filter.MaxDepth, c.Filter.TimeRangeHours, c.Query, c.ChangedAt.UTC().UnixMilli())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveFetchOutcomes(outcomes []models.MFetchOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO fetch_outcomes (session_id, endpoint, sequence, query, state, error_kind, http_status, error, duration_ms, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, endpoint, sequence) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range outcomes {
		_, err := stmt.Exec(o.SessionID, string(o.Endpoint), int64(o.Sequence), o.Query, string(o.State), o.ErrorKind, o.HTTPStatus, o.Error,
			float64(o.Duration)/float64(time.Millisecond), o.FinishedAt.UTC().UnixMilli())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	cutoff := utils.RetentionCutoff(time.Now().UTC(), retentionDays).UnixMilli()

	d.Logger.Info("Cleaning up journal older than %d days (millis < %d)...", retentionDays, cutoff)

	var firstErr error
	if _, err := d.DB.Exec("DELETE FROM filter_changes WHERE changed_at < ?", cutoff); err != nil {
		d.Logger.Error("Cleanup filter_changes error: %v", err)
		firstErr = err
	}
	if _, err := d.DB.Exec("DELETE FROM fetch_outcomes WHERE finished_at < ?", cutoff); err != nil {
		d.Logger.Error("Cleanup fetch_outcomes error: %v", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	d.Logger.Info("Cleanup completed")
	return firstErr
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
