// Package store provides SQLite-backed persistence for completed analysis
// runs. Reports are stored whole as JSON with a few indexed columns for
// listing, so the schema does not chase the report shape.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcrossley/labcrew/pkg/models"
)

// DB wraps an SQLite connection holding persisted run reports.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// RunSummary is one row of a run listing.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	Query       string    `json:"query"`
	DocumentRef string    `json:"document_ref"`
	Overall     string    `json:"overall_status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Open opens the report database at the given path, creating parent
// directories as needed. WAL mode is enabled for concurrent reads.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id       TEXT PRIMARY KEY,
			query        TEXT NOT NULL,
			document_ref TEXT NOT NULL,
			overall      TEXT NOT NULL,
			report       TEXT NOT NULL,
			created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	return nil
}

// SaveReport persists a completed run report.
func (db *DB) SaveReport(report *models.RunReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", report.RunID, err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	_, err = db.conn.Exec(
		`INSERT INTO runs (run_id, query, document_ref, overall, report) VALUES (?, ?, ?, ?, ?)`,
		report.RunID, report.Query, report.DocumentRef, string(report.Overall), string(data),
	)
	if err != nil {
		return fmt.Errorf("save report %s: %w", report.RunID, err)
	}
	return nil
}

// GetReport loads a run report by ID. A missing run returns a not_found
// task error.
func (db *DB) GetReport(runID string) (*models.RunReport, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var data string
	row := db.conn.QueryRow(`SELECT report FROM runs WHERE run_id = ?`, runID)
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, models.NewTaskError(models.ErrKindNotFound, "run %s not found", runID)
		}
		return nil, fmt.Errorf("load report %s: %w", runID, err)
	}

	var report models.RunReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", runID, err)
	}
	return &report, nil
}

// ListReports returns run summaries, newest first, up to limit. A limit of
// zero or less returns all runs.
func (db *DB) ListReports(limit int) ([]RunSummary, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	q := `SELECT run_id, query, document_ref, overall, created_at FROM runs ORDER BY created_at DESC, run_id`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = db.conn.Query(q+` LIMIT ?`, limit)
	} else {
		rows, err = db.conn.Query(q)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.RunID, &s.Query, &s.DocumentRef, &s.Overall, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteReport removes a persisted run. Deleting an unknown run is a
// not_found error.
func (db *DB) DeleteReport(runID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.Exec(`DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete report %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete report %s: %w", runID, err)
	}
	if n == 0 {
		return models.NewTaskError(models.ErrKindNotFound, "run %s not found", runID)
	}
	return nil
}
