package storage

import (
	"database/sql"
	"fmt"

	"coderefs/internal/logging"
)

// Schema version tracking
const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createScanRunsTable(tx); err != nil {
			return err
		}
		if err := createInventoryRowsTable(tx); err != nil {
			return err
		}
		if err := createCommitCacheTable(tx); err != nil {
			return err
		}

		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Database schema initialized", map[string]interface{}{
			logging.FieldDetail: currentSchemaVersion,
		})

		return nil
	})
}

// runMigrations runs any pending schema migrations
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		return nil
	}

	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	db.logger.Info("Running database migrations", map[string]interface{}{
		"from_version": version,
		"to_version":   currentSchemaVersion,
	})

	// A database without a version table predates tracking; create everything.
	if version == 0 {
		return db.initializeSchema()
	}

	return nil
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion sets the schema version
func setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("DELETE FROM schema_version")
	if err != nil {
		return err
	}
	_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// createSchemaVersionTable creates the schema_version tracking table
func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createScanRunsTable creates the scan_runs table, one row per docset scan
func createScanRunsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS scan_runs (
			id TEXT PRIMARY KEY,
			docset TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER,
			files_scanned INTEGER NOT NULL DEFAULT 0,
			references_found INTEGER NOT NULL DEFAULT 0,
			unresolved INTEGER NOT NULL DEFAULT 0,
			aborted_docs INTEGER NOT NULL DEFAULT 0,
			output_file TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create scan_runs table: %w", err)
	}

	_, err = tx.Exec("CREATE INDEX IF NOT EXISTS idx_scan_runs_docset ON scan_runs(docset, started_at)")
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// createInventoryRowsTable creates the inventory_rows table
func createInventoryRowsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS inventory_rows (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			docset TEXT NOT NULL,
			file TEXT NOT NULL,
			url TEXT NOT NULL,
			author TEXT NOT NULL,
			reviewer TEXT NOT NULL,
			date TEXT NOT NULL,
			ref_line INTEGER NOT NULL,
			ref_type TEXT NOT NULL CHECK(ref_type IN ('id', 'range', 'whole_file')),
			ref_detail TEXT NOT NULL,
			ref_url TEXT,
			commits_since_start INTEGER,
			commits_since_local INTEGER,
			most_recent TEXT,
			most_recent_url TEXT,

			FOREIGN KEY (run_id) REFERENCES scan_runs(id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create inventory_rows table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_inventory_rows_run ON inventory_rows(run_id)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_rows_file ON inventory_rows(file)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_rows_ref_url ON inventory_rows(ref_url)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// createCommitCacheTable creates the commit_cache table for GitHub history responses
func createCommitCacheTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS commit_cache (
			key TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create commit_cache table: %w", err)
	}
	return nil
}
