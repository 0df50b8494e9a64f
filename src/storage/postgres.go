package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"quake-observer/src/logger"
	"quake-observer/src/models"
	"quake-observer/src/utils"

	_ "github.com/lib/pq"
)

var unsafeSchemaChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// -----------------------------------------------------------------------------

// PostgresDB is the diagnostics journal for shared deployments. Tables live
// in a schema named after the executable.
type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	if log == nil {
		log = logger.NewLogger(cfg, "PostgresDB")
	}
	return &PostgresDB{
		Config: cfg,
		Schema: SchemaName(name),
		Logger: log,
	}, nil
}

// SchemaName turns an executable name into a safe schema identifier.
func SchemaName(name string) string {
	s := strings.ToLower(unsafeSchemaChars.ReplaceAllString(name, "_"))
	if s == "" {
		return "quake_observer"
	}
	return s
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	if err := d.Attach(db); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

// Attach uses an already opened connection and creates schema and tables.
func (d *PostgresDB) Attach(db *sql.DB) error {
	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}
	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."filter_changes" (
			session_id TEXT,
			min_magnitude DOUBLE PRECISION,
			max_depth DOUBLE PRECISION,
			time_range_hours DOUBLE PRECISION,
			query TEXT,
			changed_at TIMESTAMPTZ
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create filter_changes: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."fetch_outcomes" (
			session_id TEXT,
			endpoint TEXT,
			sequence BIGINT,
			query TEXT,
			state TEXT,
			error_kind TEXT,
			http_status INTEGER,
			error TEXT,
			duration_ms DOUBLE PRECISION,
			finished_at TIMESTAMPTZ,
			PRIMARY KEY (session_id, endpoint, sequence)
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create fetch_outcomes: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveFilterChanges(changes []models.MFilterChange) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT INTO "%s"."filter_changes" (session_id, min_magnitude, max_depth, time_range_hours, query, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, d.Schema))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range changes {
		if _, err := stmt.Exec(c.SessionID, c.Filter.MinMagnitude, c.Filter.MaxDepth, c.Filter.TimeRangeHours, c.Query, c.ChangedAt.UTC()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveFetchOutcomes(outcomes []models.MFetchOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT INTO "%s"."fetch_outcomes" (session_id, endpoint, sequence, query, state, error_kind, http_status, error, duration_ms, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (session_id, endpoint, sequence) DO NOTHING
	`, d.Schema))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range outcomes {
		_, err := stmt.Exec(o.SessionID, string(o.Endpoint), int64(o.Sequence), o.Query, string(o.State), o.ErrorKind, o.HTTPStatus, o.Error,
			float64(o.Duration)/float64(time.Millisecond), o.FinishedAt.UTC())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	cutoff := utils.RetentionCutoff(time.Now().UTC(), retentionDays)

	d.Logger.Info("Cleaning up journal older than %d days (before %s)...", retentionDays, cutoff.Format(time.RFC3339))

	var firstErr error
	if _, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM "%s"."filter_changes" WHERE changed_at < $1`, d.Schema), cutoff); err != nil {
		d.Logger.Error("Cleanup filter_changes error: %v", err)
		firstErr = err
	}
	if _, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM "%s"."fetch_outcomes" WHERE finished_at < $1`, d.Schema), cutoff); err != nil {
		d.Logger.Error("Cleanup fetch_outcomes error: %v", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	d.Logger.Info("Cleanup completed")
	return firstErr
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
