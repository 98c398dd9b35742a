// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const historyDBFile = "citegate_history.db"

// History mirrors pass results into a SQLite database so score movement
// across runs stays inspectable after the CSV has been rewritten.
type History struct {
	db *sql.DB
}

// OpenHistory opens or creates the history database under outDir.
func OpenHistory(outDir string) (*History, error) {
	dbPath := filepath.Join(outDir, historyDBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	h := &History{db: db}
	if err := h.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return h, nil
}

// Close releases the database connection.
func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			stage TEXT NOT NULL,
			started_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pass_results (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			bib_key TEXT NOT NULL,
			quality INTEGER,
			confidence INTEGER,
			remediation TEXT,
			PRIMARY KEY (run_id, bib_key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pass_results_key ON pass_results(bib_key)`,
	}
	for _, stmt := range statements {
		if _, err := h.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordPass stores one pass's per-reference results as a new run.
func (h *History) RecordPass(ctx context.Context, stage string, rows []Row) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (stage, started_at) VALUES (?, ?)`,
		stage, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run id: %w", err)
	}

	for _, row := range rows {
		// Quality and confidence are coerced so a malformed CSV value never
		// poisons the integer columns.
		_, err := tx.ExecContext(ctx,
			`INSERT INTO pass_results (run_id, bib_key, quality, confidence, remediation)
			 VALUES (?, ?, ?, ?, ?)`,
			runID, row.Key(),
			int(row.Float(stage+"_quality")), int(row.Float(stage+"_confidence")),
			row[stage+"_remediation"],
		)
		if err != nil {
			return fmt.Errorf("inserting result for %s: %w", row.Key(), err)
		}
	}
	return tx.Commit()
}

// PassHistory is one recorded (run, reference) result.
type PassHistory struct {
	RunID      int64
	Stage      string
	StartedAt  string
	Quality    int
	Confidence int
}

// KeyHistory returns the recorded results for one reference, newest first.
func (h *History) KeyHistory(ctx context.Context, bibKey string) ([]PassHistory, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT r.id, r.stage, r.started_at, p.quality, p.confidence
		 FROM pass_results p JOIN runs r ON r.id = p.run_id
		 WHERE p.bib_key = ?
		 ORDER BY r.id DESC`, bibKey)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []PassHistory
	for rows.Next() {
		var ph PassHistory
		if err := rows.Scan(&ph.RunID, &ph.Stage, &ph.StartedAt, &ph.Quality, &ph.Confidence); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		out = append(out, ph)
	}
	return out, rows.Err()
}
