package docs

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"coderefs/internal/storage"
)

// Store records scan runs and their inventory rows.
type Store struct {
	db *storage.DB
}

// NewStore creates a new docs store.
func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

// RunRecord is one recorded docset scan.
type RunRecord struct {
	ID              string    `json:"id" yaml:"id"`
	Docset          string    `json:"docset" yaml:"docset"`
	StartedAt       time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt      time.Time `json:"finished_at" yaml:"finished_at"`
	FilesScanned    int       `json:"files_scanned" yaml:"files_scanned"`
	ReferencesFound int       `json:"references_found" yaml:"references_found"`
	Unresolved      int       `json:"unresolved" yaml:"unresolved"`
	AbortedDocs     int       `json:"aborted_docs" yaml:"aborted_docs"`
	OutputFile      string    `json:"output_file" yaml:"output_file"`
}

// SaveRun stores an inventory and its rows, assigning inv.RunID.
func (s *Store) SaveRun(inv *Inventory, outputFile string) (string, error) {
	id := uuid.New().String()

	err := s.db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO scan_runs (
				id, docset, started_at, finished_at, files_scanned,
				references_found, unresolved, aborted_docs, output_file
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			id, inv.Docset, inv.StartedAt.Unix(), inv.FinishedAt.Unix(), inv.Stats.FilesScanned,
			inv.Stats.ReferencesFound, inv.Stats.Unresolved, inv.Stats.AbortedDocs, outputFile,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO inventory_rows (
				run_id, docset, file, url, author, reviewer, date,
				ref_line, ref_type, ref_detail, ref_url,
				commits_since_start, commits_since_local, most_recent, most_recent_url
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare row insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range inv.Rows {
			var sinceStart, sinceLocal sql.NullInt64
			var mostRecent, mostRecentURL sql.NullString
			if h := row.History; h != nil {
				sinceStart = sql.NullInt64{Int64: int64(h.CommitsSinceStart), Valid: true}
				sinceLocal = sql.NullInt64{Int64: int64(h.CommitsSinceLocal), Valid: true}
				mostRecent = sql.NullString{String: h.MostRecent, Valid: true}
				mostRecentURL = sql.NullString{String: h.MostRecentURL, Valid: true}
			}

			var refURL sql.NullString
			if row.RefURL != "" {
				refURL = sql.NullString{String: row.RefURL, Valid: true}
			}

			_, err := stmt.Exec(
				id, row.Docset, row.File, row.URL, row.Author, row.Reviewer, row.Date,
				row.RefLine, string(row.RefType), row.RefDetail, refURL,
				sinceStart, sinceLocal, mostRecent, mostRecentURL,
			)
			if err != nil {
				return fmt.Errorf("failed to insert row: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	inv.RunID = id
	return id, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, docset, started_at, finished_at, files_scanned,
			   references_found, unresolved, aborted_docs, output_file
		FROM scan_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var started int64
		var finished sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Docset, &started, &finished, &r.FilesScanned,
			&r.ReferencesFound, &r.Unresolved, &r.AbortedDocs, &r.OutputFile); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = time.Unix(started, 0)
		if finished.Valid {
			r.FinishedAt = time.Unix(finished.Int64, 0)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRows returns the rows of a run in file order.
func (s *Store) GetRows(runID string) ([]Row, error) {
	rows, err := s.db.Query(`
		SELECT docset, file, url, author, reviewer, date, ref_line, ref_type, ref_detail, ref_url,
			   commits_since_start, commits_since_local, most_recent, most_recent_url
		FROM inventory_rows
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// RowsForFile returns the rows for an article from the latest run that
// contains it.
func (s *Store) RowsForFile(file string) ([]Row, error) {
	rows, err := s.db.Query(`
		SELECT r.docset, r.file, r.url, r.author, r.reviewer, r.date, r.ref_line, r.ref_type,
			   r.ref_detail, r.ref_url, r.commits_since_start, r.commits_since_local,
			   r.most_recent, r.most_recent_url
		FROM inventory_rows r
		WHERE r.file = ? AND r.run_id = (
			SELECT i.run_id FROM inventory_rows i
			JOIN scan_runs s ON s.id = i.run_id
			WHERE i.file = ?
			ORDER BY s.started_at DESC, s.rowid DESC
			LIMIT 1
		)
		ORDER BY r.id
	`, file, file)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows for file: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// DeleteRun removes a run and its rows.
func (s *Store) DeleteRun(runID string) error {
	return s.db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM inventory_rows WHERE run_id = ?", runID); err != nil {
			return fmt.Errorf("failed to delete rows: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM scan_runs WHERE id = ?", runID); err != nil {
			return fmt.Errorf("failed to delete run: %w", err)
		}
		return nil
	})
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	var out []Row
	for rows.Next() {
		var r Row
		var refType string
		var refURL, mostRecent, mostRecentURL sql.NullString
		var sinceStart, sinceLocal sql.NullInt64

		if err := rows.Scan(&r.Docset, &r.File, &r.URL, &r.Author, &r.Reviewer, &r.Date,
			&r.RefLine, &refType, &r.RefDetail, &refURL,
			&sinceStart, &sinceLocal, &mostRecent, &mostRecentURL); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.RefType = RefKind(refType)
		r.RefURL = refURL.String
		r.SourcePath = r.File
		if sinceStart.Valid {
			r.History = &CommitHistory{
				CommitsSinceStart: int(sinceStart.Int64),
				CommitsSinceLocal: int(sinceLocal.Int64),
				MostRecent:        mostRecent.String,
				MostRecentURL:     mostRecentURL.String,
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
