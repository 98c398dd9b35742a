// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store manages the persistent per-reference state table: a CSV
// with identity columns, a (quality, confidence, remediation) triple per
// stage, and three final columns. The table is rewritten wholesale through
// a temp file after every pass. A SQLite history mirror keeps pass results
// across runs for inspection.
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// Stages lists the five evaluation passes in dependency order.
var Stages = []string{"audit", "resolve", "ground", "venue", "ml"}

// Column names of the identity and final groups.
var (
	IdentityColumns = []string{"bib_key", "bib_source_file", "bib_entry_type", "bib_raw"}
	FinalColumns    = []string{"reference_quality_score", "reference_quality_notes", "review_priority"}
)

// RequiredColumns returns the full ordered column contract.
func RequiredColumns() []string {
	cols := append([]string{}, IdentityColumns...)
	for _, st := range Stages {
		cols = append(cols, st+"_quality", st+"_confidence", st+"_remediation")
	}
	return append(cols, FinalColumns...)
}

// Row is one reference record keyed by bib_key.
type Row map[string]string

// Key returns the row's reference key.
func (r Row) Key() string { return r["bib_key"] }

// Float reads a numeric column, 0 when empty or malformed.
func (r Row) Float(col string) float64 {
	v, err := strconv.ParseFloat(r[col], 64)
	if err != nil {
		return 0
	}
	return v
}

// Table is the loaded state table.
type Table struct {
	Columns []string
	Rows    []Row

	index map[string]int
}

// NewTable builds an empty table with the required column contract.
func NewTable() *Table {
	return &Table{Columns: RequiredColumns(), index: make(map[string]int)}
}

// Load reads the CSV table at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening state table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading state table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("state table %s has no header row", path)
	}

	t := &Table{Columns: records[0], index: make(map[string]int)}
	for _, rec := range records[1:] {
		row := make(Row, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		t.index[row.Key()] = len(t.Rows)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Append adds a row and indexes it by key. Exactly one row per key: a
// duplicate key replaces the earlier row's index entry, which callers
// avoid by construction at init.
func (t *Table) Append(row Row) {
	t.index[row.Key()] = len(t.Rows)
	t.Rows = append(t.Rows, row)
}

// Get returns the row for key, or nil.
func (t *Table) Get(key string) Row {
	if i, ok := t.index[key]; ok {
		return t.Rows[i]
	}
	return nil
}

// Update applies column updates to the row for key. A missing key is a
// definite error: it signals a logic bug, not an external-data gap.
func (t *Table) Update(key string, updates map[string]string) error {
	row := t.Get(key)
	if row == nil {
		return fmt.Errorf("bib_key not found: %s", key)
	}
	for k, v := range updates {
		row[k] = v
	}
	return nil
}

// Filter returns the rows whose key matches the regexp, or all rows when
// the pattern is empty.
func (t *Table) Filter(onlyPattern string) ([]Row, error) {
	if onlyPattern == "" {
		return t.Rows, nil
	}
	rx, err := regexp.Compile(onlyPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid --only pattern: %w", err)
	}
	var out []Row
	for _, row := range t.Rows {
		if rx.MatchString(row.Key()) {
			out = append(out, row)
		}
	}
	return out, nil
}

// WriteAtomic writes the table to path via a temp file and rename, so an
// interrupted pass never leaves a truncated table behind.
func (t *Table) WriteAtomic(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating temp table: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		f.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range t.Rows {
		rec := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			rec[i] = row[col]
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return fmt.Errorf("writing row %s: %w", row.Key(), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flushing table: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp table: %w", err)
	}
	return os.Rename(tmp, path)
}
