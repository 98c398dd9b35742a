// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package audit scores the structural hygiene of each bibliography entry:
// required fields present, no placeholder values, actually cited in the
// document.
package audit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/citegate/internal/bibtex"
	"github.com/pdiddy/citegate/internal/store"
	"github.com/pdiddy/citegate/pkg/types"
)

// placeholderValues mark fields that were filled in to silence the BibTeX
// compiler rather than with real data.
var placeholderValues = []string{"tbd", "todo", "unknown", "n/a", "na", "xxx"}

// placeholderFields are the fields scanned for placeholder values, in
// report order.
var placeholderFields = []string{"title", "author", "year", "journal", "booktitle"}

// Result is the audit triple for one reference.
type Result struct {
	Quality     int
	Confidence  int
	Remediation string
}

// missingEntryResult applies when the reference key has vanished from the
// bibliography since initialization.
func missingEntryResult() Result {
	return Result{
		Quality:     0,
		Confidence:  30,
		Remediation: "Bib entry missing from current bib file; rerun init or fix --bib path.",
	}
}

// ScoreEntry audits one entry. usageKnown reports whether document usage
// counts are available; uses is the entry's citation count.
func ScoreEntry(e bibtex.Entry, usageKnown bool, uses int, pen types.AuditPenalties) Result {
	q := 100
	var rem []string

	if strings.TrimSpace(e.Fields.Title) == "" {
		q -= pen.MissingTitle
		rem = append(rem, "add title")
	}
	if strings.TrimSpace(e.Fields.Author) == "" {
		q -= pen.MissingAuthors
		rem = append(rem, "add authors")
	}
	if strings.TrimSpace(e.Fields.Year) == "" {
		q -= pen.MissingYear
		rem = append(rem, "add year")
	}
	if e.Fields.Venue() == "" {
		q -= pen.MissingVenue
		rem = append(rem, "add venue (journal/booktitle)")
	}

	for _, field := range placeholderFields {
		v := strings.ToLower(strings.TrimSpace(e.Fields.Get(field)))
		if v == "" {
			continue
		}
		hit := false
		for _, ph := range placeholderValues {
			if strings.Contains(v, ph) {
				hit = true
				break
			}
		}
		if hit {
			q -= pen.PlaceholderField
			rem = append(rem, "replace placeholder in "+field)
			break
		}
	}

	if usageKnown && uses == 0 {
		q -= pen.UnusedReference
		rem = append(rem, "remove unused or cite in text")
	}

	if q < 0 {
		q = 0
	}
	if q > 100 {
		q = 100
	}

	conf := 80
	if q >= 70 {
		conf = 95
	}

	remediation := "Fix: no changes needed"
	if len(rem) > 0 {
		remediation = "Fix: " + strings.Join(rem, ", ")
	}
	return Result{Quality: q, Confidence: conf, Remediation: remediation}
}

// Run audits the target rows against the parsed bibliography and document
// usage counts, updates the table in place, and writes the stage report.
func Run(table *store.Table, targets []store.Row, entries map[string]bibtex.Entry, usageCount map[string]int, pen types.AuditPenalties, outDir string, w io.Writer) error {
	report := []string{"# stage_audit_report\n\n"}

	for _, row := range targets {
		key := row.Key()

		var res Result
		if e, ok := entries[key]; ok {
			res = ScoreEntry(e, len(usageCount) > 0, usageCount[key], pen)
		} else {
			res = missingEntryResult()
		}

		err := table.Update(key, map[string]string{
			"audit_quality":     fmt.Sprintf("%d", res.Quality),
			"audit_confidence":  fmt.Sprintf("%d", res.Confidence),
			"audit_remediation": res.Remediation,
		})
		if err != nil {
			return err
		}

		if res.Quality < 80 {
			report = append(report, fmt.Sprintf("- %s: Q=%d C=%d - %s\n", key, res.Quality, res.Confidence, res.Remediation))
		}
	}

	reportPath := filepath.Join(outDir, "stage_audit_report.md")
	if err := os.WriteFile(reportPath, []byte(strings.Join(report, "")), 0o644); err != nil {
		return fmt.Errorf("writing audit report: %w", err)
	}

	fmt.Fprintf(w, "[audit] updated %d references; wrote stage_audit_report.md\n", len(targets))
	return nil
}
