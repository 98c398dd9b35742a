// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lens applies audience-specific scoring passes over the resolved
// bibliography: a policy-oriented venue lens and an ML research lens. Both
// read the risk signals left by the grounding stage.
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

// Source genres recognized by the venue lens.
const (
	GenreScholarly     = "scholarly"
	GenrePrimaryPolicy = "primary_policy"
	GenrePreprint      = "preprint"
	GenreBlog          = "blog"
	GenreOther         = "other"
)

var (
	policyVenueMarkers = []string{
		"standard", "iso", "nist", "ietf", "w3c", "oecd", "uk", "eu",
		"commission", "parliament", "house of commons", "ofcom", "ico",
	}
	policyURLMarkers = []string{"gov.uk", "europa.eu", "legislation.gov.uk"}
	blogURLMarkers   = []string{"blog", "medium.com", "substack", "newsletter"}
)

// Genre classifies a reference by its URL, entry type, and venue string.
func Genre(url, entryType, venue string) string {
	u := strings.ToLower(url)
	v := strings.ToLower(venue)

	if strings.Contains(u, "arxiv.org") || entryType == "misc" || entryType == "unpublished" {
		return GenrePreprint
	}
	for _, m := range policyVenueMarkers {
		if strings.Contains(v, m) {
			return GenrePrimaryPolicy
		}
	}
	for _, m := range policyURLMarkers {
		if strings.Contains(u, m) {
			return GenrePrimaryPolicy
		}
	}
	for _, m := range blogURLMarkers {
		if strings.Contains(u, m) {
			return GenreBlog
		}
	}
	switch entryType {
	case "article", "inproceedings", "book", "incollection":
		return GenreScholarly
	}
	return GenreOther
}

// VenueResult is the venue-lens triple plus the classified genre.
type VenueResult struct {
	Genre       string
	Quality     int
	Confidence  int
	Remediation string
}

// ScoreVenue rates a reference's authority for policy-flavored writing.
// highPriorityFail is the grounding signal for an unsupported abstract or
// conclusion claim citing this reference.
func ScoreVenue(e bibtex.Entry, highPriorityFail bool) VenueResult {
	genre := Genre(e.Fields.URL, e.Type, e.Fields.Venue())

	var q int
	switch genre {
	case GenreScholarly, GenrePrimaryPolicy:
		q = 85
	case GenrePreprint:
		q = 55
	case GenreBlog:
		q = 35
	default:
		q = 50
	}
	if highPriorityFail && (genre == GenreBlog || genre == GenreOther) {
		q -= 20
	}
	if q < 0 {
		q = 0
	}
	if q > 100 {
		q = 100
	}

	c := 70
	if genre == GenreScholarly || genre == GenrePrimaryPolicy {
		c = 85
	}

	var rem []string
	if genre == GenreBlog {
		rem = append(rem, "Replace blog with peer-reviewed paper, authoritative report, or primary policy source for normative claims.")
	}
	if genre == GenrePreprint {
		rem = append(rem, "If used for policy claims, add authoritative report/standard/regulator guidance; preprints are weaker authority.")
	}
	if highPriorityFail {
		rem = append(rem, "High-priority claim unsupported: strengthen evidence or hedge claim language.")
	}
	remediation := "OK for policy lens; ensure authority matches claim type."
	if len(rem) > 0 {
		remediation = strings.Join(rem, " | ")
	}

	return VenueResult{Genre: genre, Quality: q, Confidence: c, Remediation: remediation}
}

// RunVenue applies the venue lens to the target rows, updating the table
// and writing venue_report.md.
func RunVenue(table *store.Table, targets []store.Row, entries map[string]bibtex.Entry, cache *sigcache.Cache, profile, outDir string, w io.Writer) error {
	report := []string{"# venue_report\n\n"}

	for _, row := range targets {
		key := row.Key()
		e, ok := entries[key]
		if !ok {
			err := table.Update(key, map[string]string{
				"venue_quality":     "0",
				"venue_confidence":  "20",
				"venue_remediation": "Missing bib entry; rerun init or fix --bib.",
			})
			if err != nil {
				return err
			}
			continue
		}

		hpFail := false
		if entry, found := cache.Get(key); found && entry.GroundSignals != nil {
			hpFail = entry.GroundSignals.HighPriorityClaimUnsupported
		}

		res := ScoreVenue(e, hpFail)
		err := table.Update(key, map[string]string{
			"venue_quality":     fmt.Sprintf("%d", res.Quality),
			"venue_confidence":  fmt.Sprintf("%d", res.Confidence),
			"venue_remediation": res.Remediation,
		})
		if err != nil {
			return err
		}

		if res.Quality < 75 {
			report = append(report, fmt.Sprintf("- %s: genre=%s Q=%d C=%d - %s\n",
				key, res.Genre, res.Quality, res.Confidence, res.Remediation))
		}
	}

	path := filepath.Join(outDir, "venue_report.md")
	if err := os.WriteFile(path, []byte(strings.Join(report, "")), 0o644); err != nil {
		return fmt.Errorf("writing venue report: %w", err)
	}

	fmt.Fprintf(w, "[venue] updated %d references; wrote venue_report.md (profile=%s)\n", len(targets), profile)
	return nil
}
