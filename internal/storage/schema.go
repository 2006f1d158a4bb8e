package storage

import (
	"database/sql"
	"fmt"
)

// migrations[i] upgrades a manifest from schema version i to i+1.
var migrations = [][]string{
	// 1: runs with their artifacts and toolchain checks
	{
		`CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('running', 'succeeded', 'failed')),
			started_at TEXT NOT NULL,
			finished_at TEXT,
			files INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			snippets INTEGER NOT NULL DEFAULT 0,
			ignored INTEGER NOT NULL DEFAULT 0,
			error_code TEXT,
			error_message TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			language TEXT NOT NULL,
			path TEXT NOT NULL,
			doc_path TEXT NOT NULL,
			ordinal INTEGER NOT NULL,
			digest TEXT NOT NULL,
			size INTEGER NOT NULL,
			PRIMARY KEY (run_id, language, path)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_doc ON artifacts(doc_path)`,
		`CREATE TABLE IF NOT EXISTS checks (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			language TEXT NOT NULL,
			command TEXT NOT NULL,
			passed INTEGER NOT NULL,
			exit_code INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			output BLOB,
			PRIMARY KEY (run_id, language)
		)`,
	},
}

// currentSchemaVersion is the version a fully migrated manifest reports.
var currentSchemaVersion = len(migrations)

// migrate applies every pending migration in one transaction.
func (db *DB) migrate() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	switch {
	case version == currentSchemaVersion:
		return nil
	case version > currentSchemaVersion:
		return fmt.Errorf("manifest schema version %d is newer than supported version %d", version, currentSchemaVersion)
	case version == 0:
		db.logger.Debug("Creating new manifest", "path", db.dbPath)
	default:
		db.logger.Info("Running manifest migrations",
			"from_version", version,
			"to_version", currentSchemaVersion,
		)
	}

	return db.WithTx(func(tx *sql.Tx) error {
		for v := version; v < currentSchemaVersion; v++ {
			for _, stmt := range migrations[v] {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("migration %d: %w", v+1, err)
				}
			}
		}
		return setSchemaVersion(tx, currentSchemaVersion)
	})
}

// getSchemaVersion returns 0 for a manifest without a schema_version row.
func (db *DB) getSchemaVersion() (int, error) {
	var n int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&n)
	if err != nil || n == 0 {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return version, err
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}
