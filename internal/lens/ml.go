// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lens

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/citegate/internal/bibtex"
	"github.com/pdiddy/citegate/internal/sigcache"
	"github.com/pdiddy/citegate/internal/store"
)

// topMLVenues marks canonical ML publication venues by substring match.
var topMLVenues = []string{
	"neurips", "icml", "iclr", "aaai", "aistats", "colt", "acl", "emnlp", "naacl",
}

var mlBlogURLMarkers = []string{"blog", "medium.com", "substack"}

// IsCanonicalMLVenue reports whether the venue names a top ML conference.
func IsCanonicalMLVenue(venue string) bool {
	v := strings.ToLower(venue)
	for _, m := range topMLVenues {
		if strings.Contains(v, m) {
			return true
		}
	}
	return false
}

// MLResult is the ML-lens triple for one reference.
type MLResult struct {
	Quality     int
	Confidence  int
	Remediation string
}

// mlVenue prefers the proceedings title over the journal for the ML lens.
func mlVenue(f bibtex.Fields) string {
	switch {
	case f.Booktitle != "":
		return f.Booktitle
	case f.Journal != "":
		return f.Journal
	}
	return f.Publisher
}

// ScoreML rates a reference for ML research writing. sotaWeak is the
// grounding signal for a weakly supported SOTA claim citing this
// reference.
func ScoreML(e bibtex.Entry, sotaWeak bool) MLResult {
	venue := mlVenue(e.Fields)
	url := strings.ToLower(e.Fields.URL)
	canonical := IsCanonicalMLVenue(venue)

	q := 50
	switch {
	case canonical:
		q = 85
	case strings.Contains(url, "arxiv"):
		q = 65
	}
	for _, m := range mlBlogURLMarkers {
		if strings.Contains(url, m) {
			q -= 30
			break
		}
	}
	if sotaWeak {
		q -= 20
	}
	if q < 0 {
		q = 0
	}
	if q > 100 {
		q = 100
	}

	c := 70
	if canonical {
		c = 85
	}

	var rem []string
	if strings.Contains(url, "arxiv") && !canonical {
		rem = append(rem, "If a proceedings version exists, cite the canonical venue (conference/journal) for core claims.")
	}
	if sotaWeak {
		rem = append(rem, "SOTA-like claim weakly supported; add direct benchmark/baseline citation or hedge.")
	}
	if q < 60 {
		rem = append(rem, "Check relevance to task/setting; consider replacing with survey/benchmark paper.")
	}
	remediation := "OK for ML venue lens."
	if len(rem) > 0 {
		remediation = strings.Join(rem, " | ")
	}

	return MLResult{Quality: q, Confidence: c, Remediation: remediation}
}

// RunML applies the ML lens to the target rows, updating the table and
// writing ml_report.md.
func RunML(table *store.Table, targets []store.Row, entries map[string]bibtex.Entry, cache *sigcache.Cache, profile, outDir string, w io.Writer) error {
	report := []string{"# ml_report\n\n"}

	for _, row := range targets {
		key := row.Key()
		e, ok := entries[key]
		if !ok {
			err := table.Update(key, map[string]string{
				"ml_quality":     "0",
				"ml_confidence":  "20",
				"ml_remediation": "Missing bib entry; rerun init or fix --bib.",
			})
			if err != nil {
				return err
			}
			continue
		}

		sotaWeak := false
		if entry, found := cache.Get(key); found && entry.GroundSignals != nil {
			sotaWeak = entry.GroundSignals.SOTAClaimWeakSupport
		}

		res := ScoreML(e, sotaWeak)
		err := table.Update(key, map[string]string{
			"ml_quality":     fmt.Sprintf("%d", res.Quality),
			"ml_confidence":  fmt.Sprintf("%d", res.Confidence),
			"ml_remediation": res.Remediation,
		})
		if err != nil {
			return err
		}

		if res.Quality < 75 {
			report = append(report, fmt.Sprintf("- %s: Q=%d C=%d - %s\n",
				key, res.Quality, res.Confidence, res.Remediation))
		}
	}

	path := filepath.Join(outDir, "ml_report.md")
	if err := os.WriteFile(path, []byte(strings.Join(report, "")), 0o644); err != nil {
		return fmt.Errorf("writing ml report: %w", err)
	}

	fmt.Fprintf(w, "[ml] updated %d references; wrote ml_report.md (profile=%s)\n", len(targets), profile)
	return nil
}
