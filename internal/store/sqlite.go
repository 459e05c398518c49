package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/sudo-sidd/neuropilot/internal/logger"
)

// DateFormat is the storage format for date-only values such as the
// daily form key.
const DateFormat = "2006-01-02"

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db     *sqlx.DB
	report *MigrationReport
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	report, err := s.runMigrations()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	s.report = report

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// MigrationReport returns the report from the migration run performed when
// the store was opened.
func (s *SQLiteStore) MigrationReport() *MigrationReport {
	return s.report
}

// SchemaVersion returns the current schema version recorded in the store.
func (s *SQLiteStore) SchemaVersion() (int, error) {
	var version int
	err := s.db.Get(&version, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// runMigrations applies all migrations newer than the recorded schema
// version, in order. Statements within a migration run one at a time; a
// failing statement is logged and skipped so that partial prior runs
// ("duplicate column" and the like) do not wedge startup. The version row
// is recorded only after every statement in that migration has been
// attempted, and the next migration starts only after the version commit.
// Migrations are forward-only; there is no rollback.
func (s *SQLiteStore) runMigrations() (*MigrationReport, error) {
	if _, err := s.db.Exec(
		"CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)",
	); err != nil {
		return nil, fmt.Errorf("creating schema_version table: %w", err)
	}

	var currentVersion int
	err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err != nil {
		return nil, fmt.Errorf("reading schema version: %w", err)
	}

	report := &MigrationReport{}
	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		for i, stmt := range m.statements {
			if _, err := s.db.Exec(stmt); err != nil {
				logger.Warn("skipping migration statement",
					"version", m.version, "index", i, "error", err)
				report.Skipped = append(report.Skipped, SkippedStatement{
					Version:   m.version,
					Index:     i,
					Statement: stmt,
					Err:       err,
				})
			}
		}
		if _, err := s.db.Exec(
			"INSERT INTO schema_version (version) VALUES (?)", m.version,
		); err != nil {
			return report, fmt.Errorf("recording schema version %d: %w", m.version, err)
		}
		report.Applied = append(report.Applied, m.version)
	}

	return report, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
