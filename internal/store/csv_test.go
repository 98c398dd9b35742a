// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleTable() *Table {
	t := NewTable()
	for _, key := range []string{"alpha2020", "beta2021", "gamma2022"} {
		row := Row{}
		for _, col := range RequiredColumns() {
			row[col] = ""
		}
		row["bib_key"] = key
		row["bib_entry_type"] = "article"
		for _, st := range Stages {
			row[st+"_quality"] = "0"
			row[st+"_confidence"] = "0"
			row[st+"_remediation"] = "TBD"
		}
		t.Append(row)
	}
	return t
}

func TestRequiredColumns(t *testing.T) {
	cols := RequiredColumns()
	// 4 identity + 5 stages x 3 + 3 final.
	if len(cols) != 22 {
		t.Fatalf("len = %d, want 22", len(cols))
	}
	if cols[0] != "bib_key" {
		t.Errorf("first column = %q, want bib_key", cols[0])
	}
	if cols[len(cols)-1] != "review_priority" {
		t.Errorf("last column = %q, want review_priority", cols[len(cols)-1])
	}
	if cols[4] != "audit_quality" {
		t.Errorf("cols[4] = %q, want audit_quality", cols[4])
	}
}

func TestRowFloat(t *testing.T) {
	row := Row{"q": "85.5", "bad": "n/a", "empty": ""}
	if got := row.Float("q"); got != 85.5 {
		t.Errorf("Float(q) = %v", got)
	}
	if got := row.Float("bad"); got != 0 {
		t.Errorf("Float(bad) = %v, want 0", got)
	}
	if got := row.Float("empty"); got != 0 {
		t.Errorf("Float(empty) = %v, want 0", got)
	}
}

func TestWriteAtomicRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit_references.csv")

	orig := sampleTable()
	if err := orig.Update("beta2021", map[string]string{
		"resolve_quality":     "95",
		"resolve_remediation": "OK: resolved, with a comma and \"quotes\".",
	}); err != nil {
		t.Fatal(err)
	}
	if err := orig.WriteAtomic(path); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(got.Rows))
	}
	if len(got.Columns) != len(orig.Columns) {
		t.Fatalf("columns = %d, want %d", len(got.Columns), len(orig.Columns))
	}
	row := got.Get("beta2021")
	if row["resolve_quality"] != "95" {
		t.Errorf("resolve_quality = %q", row["resolve_quality"])
	}
	if !strings.Contains(row["resolve_remediation"], `"quotes"`) {
		t.Errorf("remediation lost quoting: %q", row["resolve_remediation"])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("want error for missing file")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "no header row") {
		t.Fatalf("err = %v, want no-header failure", err)
	}
}

func TestUpdateMissingKey(t *testing.T) {
	tbl := sampleTable()
	err := tbl.Update("ghost1999", map[string]string{"audit_quality": "50"})
	if err == nil || !strings.Contains(err.Error(), "ghost1999") {
		t.Fatalf("err = %v, want missing-key failure", err)
	}
}

func TestFilter(t *testing.T) {
	tbl := sampleTable()

	all, err := tbl.Filter("")
	if err != nil || len(all) != 3 {
		t.Fatalf("empty pattern: %d rows, err %v", len(all), err)
	}

	some, err := tbl.Filter("^(alpha|gamma)")
	if err != nil {
		t.Fatal(err)
	}
	if len(some) != 2 || some[0].Key() != "alpha2020" || some[1].Key() != "gamma2022" {
		t.Errorf("filtered keys wrong: %v", some)
	}

	if _, err := tbl.Filter("["); err == nil {
		t.Error("want error for invalid pattern")
	}
}
