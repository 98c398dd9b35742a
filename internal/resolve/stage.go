// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdiddy/citegate/internal/bibtex"
	"github.com/pdiddy/citegate/internal/sigcache"
	"github.com/pdiddy/citegate/internal/store"

	"github.com/pdiddy/citegate/pkg/types"
)

// RefFromEntry projects a parsed BibTeX entry onto the resolver input.
func RefFromEntry(e bibtex.Entry) Ref {
	return Ref{
		Key:     e.Key,
		Title:   e.Fields.Title,
		Authors: e.Fields.Author,
		Year:    e.Fields.YearInt(),
		Venue:   e.Fields.Venue(),
		DOI:     e.Fields.DOI,
		ArxivID: e.Fields.ArxivID(),
	}
}

// Stage runs the resolution pass over the state table.
type Stage struct {
	Resolver *Resolver
	Cache    *sigcache.Cache
	Config   types.Config
}

// Run resolves every target row. Backend lookups fan out across workers;
// table updates, cache writes, and report lines are applied in row order
// so repeated runs produce identical output.
func (s *Stage) Run(ctx context.Context, table *store.Table, targets []store.Row, entries map[string]bibtex.Entry, outDir string, w io.Writer) error {
	type keyed struct {
		outcome Outcome
		ok      bool
	}
	outcomes := make(map[string]keyed, len(targets))

	workers := s.Config.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, row := range targets {
		key := row.Key()
		e, found := entries[key]
		if !found {
			continue
		}
		wg.Add(1)
		go func(key string, e bibtex.Entry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			out := s.Resolver.Resolve(ctx, RefFromEntry(e), s.Config)
			mu.Lock()
			outcomes[key] = keyed{outcome: out, ok: true}
			mu.Unlock()
		}(key, e)
	}
	wg.Wait()

	report := []string{"# stage_resolve_report\n"}
	var correctedBib []string

	for _, row := range targets {
		key := row.Key()
		res, ok := outcomes[key]
		if !ok {
			err := table.Update(key, map[string]string{
				"resolve_quality":     "0",
				"resolve_confidence":  "20",
				"resolve_remediation": "Bib entry missing from current bib file; rerun init with correct --bib.",
			})
			if err != nil {
				return err
			}
			continue
		}
		out := res.outcome

		for _, be := range out.BackendErrors {
			fmt.Fprintf(w, "warning: %s: backend %s\n", key, be)
		}

		err := table.Update(key, map[string]string{
			"resolve_quality":     fmt.Sprintf("%d", out.Quality),
			"resolve_confidence":  fmt.Sprintf("%d", out.Confidence),
			"resolve_remediation": out.Remediation,
		})
		if err != nil {
			return err
		}
		s.Cache.SetResolution(key, out.Entry)

		if out.Winner == nil {
			report = append(report, fmt.Sprintf("- %s: unresolved\n", key))
			continue
		}

		report = append(report, fmt.Sprintf("- %s: %s (title_sim=%.2f, author_overlap=%.2f, year_diff=%d) %s\n",
			key, out.Status,
			out.Entry.Signals.TitleSimilarity, out.Entry.Signals.AuthorOverlap, out.Entry.Signals.YearDiff,
			strings.Join(out.Entry.Mismatch, ";")))

		if out.Status == types.StatusResolved {
			e := entries[key]
			doi := out.Winner.IDs["doi"]
			if doi == "" {
				doi = e.Fields.DOI
			}
			correctedBib = append(correctedBib, bibtex.RenderCorrected(e, out.Winner.Canonical, doi))
		}
	}

	reportPath := filepath.Join(outDir, "stage_resolve_report.md")
	if err := os.WriteFile(reportPath, []byte(strings.Join(report, "")), 0o644); err != nil {
		return fmt.Errorf("writing resolve report: %w", err)
	}
	bibPath := filepath.Join(outDir, "refs.corrected.bib")
	if err := os.WriteFile(bibPath, []byte(strings.Join(correctedBib, "\n\n")), 0o644); err != nil {
		return fmt.Errorf("writing corrected bib: %w", err)
	}
	if err := s.Cache.Save(); err != nil {
		return err
	}

	fmt.Fprintf(w, "[resolve] updated %d references; wrote resolution_cache.json, refs.corrected.bib\n", len(targets))
	return nil
}
