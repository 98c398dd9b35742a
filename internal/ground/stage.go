// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ground

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/citegate/internal/bibtex"
	"github.com/pdiddy/citegate/internal/evidence"
	"github.com/pdiddy/citegate/internal/sigcache"
	"github.com/pdiddy/citegate/internal/store"
	"github.com/pdiddy/citegate/pkg/types"
)

// maxArtifactsPerRef stops candidate-URL probing once enough artifacts
// have been collected for one reference.
const maxArtifactsPerRef = 6

// Stage runs the grounding pass: per reference, gather evidence, ground
// the claims citing it, and record the quality triple and risk signals.
type Stage struct {
	Fetcher *evidence.Fetcher
	Cache   *sigcache.Cache
	Config  types.Config
}

// refEvidence is the gathered evidence for one reference.
type refEvidence struct {
	text      string
	chosen    *types.EvidenceArtifact
	artifacts []*types.EvidenceArtifact
}

// indexEntry is the evidence_index.json record for one reference.
type indexEntry struct {
	Chosen *types.EvidenceArtifact   `json:"chosen"`
	All    []*types.EvidenceArtifact `json:"all"`
}

// CandidateURLs builds the ordered, deduplicated list of evidence URLs
// for a reference: DOI landing page, arXiv abstract and PDF, the BibTeX
// url field, then the canonical URL from resolution.
func CandidateURLs(entry *bibtex.Entry, cached types.CacheEntry, ok bool) []string {
	var urls []string
	if ok {
		if doi := cached.IDs["doi"]; doi != "" {
			urls = append(urls, "https://doi.org/"+doi)
		}
		if arx := cached.IDs["arxiv"]; arx != "" {
			urls = append(urls, "https://arxiv.org/abs/"+arx)
			urls = append(urls, "https://arxiv.org/pdf/"+arx+".pdf")
		}
	}
	if entry != nil && entry.Fields.URL != "" {
		urls = append(urls, entry.Fields.URL)
	}
	if ok && cached.Canonical.URL != "" {
		urls = append(urls, cached.Canonical.URL)
	}

	seen := make(map[string]bool)
	var out []string
	for _, u := range urls {
		if u != "" && !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

// gather fetches evidence for one reference: probe each candidate URL,
// follow landing pages for linked artifacts, then pick the best artifact
// by format preference and extract its text. All fetch failures are soft.
func (s *Stage) gather(ctx context.Context, key string, entry *bibtex.Entry, outDir string) refEvidence {
	var ev refEvidence
	cached, ok := s.Cache.Get(key)
	refDir := filepath.Join(outDir, "evidence_cache", key)

	for _, u := range CandidateURLs(entry, cached, ok) {
		art, err := s.Fetcher.Fetch(ctx, u, refDir)
		if err == nil {
			ev.artifacts = append(ev.artifacts, art)
		}
		if evidence.NeedsDiscovery(u, art) {
			linked, err := s.Fetcher.DiscoverLinked(ctx, u, s.Config.Grounding.EvidencePreference, refDir)
			if err == nil {
				ev.artifacts = append(ev.artifacts, linked...)
			}
		}
		if len(ev.artifacts) >= maxArtifactsPerRef {
			break
		}
	}

	prefRank := make(map[string]int, len(s.Config.Grounding.EvidencePreference))
	for i, ext := range s.Config.Grounding.EvidencePreference {
		prefRank[ext] = i
	}
	rank := func(f string) int {
		if r, found := prefRank[f]; found {
			return r
		}
		return 99
	}
	sort.SliceStable(ev.artifacts, func(i, j int) bool {
		return rank(ev.artifacts[i].Format) < rank(ev.artifacts[j].Format)
	})

	if len(ev.artifacts) > 0 {
		ev.chosen = ev.artifacts[0]
		text, err := evidence.ExtractText(ev.chosen)
		if err == nil {
			ev.text = text
		}
	}
	return ev
}

// Run grounds every target row. Evidence fetching fans out across workers;
// row updates, report lines, and cache writes happen in row order so output
// is deterministic.
func (s *Stage) Run(ctx context.Context, table *store.Table, targets []store.Row, claimList []types.Claim, claimsByRef map[string][]types.Claim, entries map[string]bibtex.Entry, outDir string, w io.Writer) error {
	if err := os.MkdirAll(filepath.Join(outDir, "evidence_cache"), 0o755); err != nil {
		return fmt.Errorf("creating evidence cache dir: %w", err)
	}

	if err := writeClaims(filepath.Join(outDir, "claims.json"), claimList); err != nil {
		return err
	}

	// Fan out evidence gathering for cited references.
	gathered := make(map[string]refEvidence, len(targets))
	if s.Config.Grounding.FetchEnabled {
		workers := s.Config.Workers
		if workers < 1 {
			workers = 1
		}
		sem := make(chan struct{}, workers)
		var mu sync.Mutex
		var wg sync.WaitGroup
		for _, row := range targets {
			key := row.Key()
			if len(claimsByRef[key]) == 0 {
				continue
			}
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				var entry *bibtex.Entry
				if e, found := entries[key]; found {
					entry = &e
				}
				ev := s.gather(ctx, key, entry, outDir)
				mu.Lock()
				gathered[key] = ev
				mu.Unlock()
			}(key)
		}
		wg.Wait()
	}

	report := []string{"# grounding_report\n\n"}
	rewrites := []string{"% rewrites.tex (generated)\n\n"}
	evidenceIndex := make(map[string]indexEntry)

	for _, row := range targets {
		key := row.Key()
		refClaims := claimsByRef[key]

		if len(refClaims) == 0 {
			err := table.Update(key, map[string]string{
				"ground_quality":     fmt.Sprintf("%d", uncitedQuality),
				"ground_confidence":  fmt.Sprintf("%d", uncitedConfidence),
				"ground_remediation": "Reference not cited in TeX; remove if unintended, or add intended citation context.",
			})
			if err != nil {
				return err
			}
			continue
		}

		ev := gathered[key]
		if s.Config.Grounding.FetchEnabled {
			all := ev.artifacts
			if len(all) > 10 {
				all = all[:10]
			}
			evidenceIndex[key] = indexEntry{Chosen: ev.chosen, All: all}
		} else {
			evidenceIndex[key] = indexEntry{}
		}

		format := ""
		if ev.chosen != nil {
			format = ev.chosen.Format
		}
		res := ScoreReference(refClaims, ev.text, format, s.Config.Grounding)

		for _, cr := range res.Claims {
			if cr.Claim.Priority != types.PriorityHigh {
				continue
			}
			if cr.Verdict != VerdictUnsupported && cr.Verdict != VerdictContradicted {
				continue
			}
			rewrites = append(rewrites,
				fmt.Sprintf("%% %s:%d\n%% Original: %s\n", cr.Claim.File, cr.Claim.Line, cr.Claim.Text),
				fmt.Sprintf("%% Suggested: (needs evidence) Consider hedging: %q -> %q\n\n",
					cr.Claim.Text, HedgedRewrite(cr.Claim.Text)))
		}

		err := table.Update(key, map[string]string{
			"ground_quality":     fmt.Sprintf("%.0f", res.Quality),
			"ground_confidence":  fmt.Sprintf("%d", res.Confidence),
			"ground_remediation": res.Remediation,
		})
		if err != nil {
			return err
		}

		report = append(report, fmt.Sprintf("## %s\n- ground_quality=%.0f ground_confidence=%d\n- remediation: %s\n\n",
			key, res.Quality, res.Confidence, res.Remediation))

		s.Cache.SetGroundSignals(key, res.Signals)
	}

	if err := os.WriteFile(filepath.Join(outDir, "grounding_report.md"), []byte(strings.Join(report, "")), 0o644); err != nil {
		return fmt.Errorf("writing grounding report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "rewrites.tex"), []byte(strings.Join(rewrites, "")), 0o644); err != nil {
		return fmt.Errorf("writing rewrites: %w", err)
	}
	if err := writeJSON(filepath.Join(outDir, "evidence_index.json"), evidenceIndex); err != nil {
		return err
	}
	if err := s.Cache.Save(); err != nil {
		return err
	}

	fmt.Fprintf(w, "[ground] updated %d references; wrote claims.json, grounding_report.md, rewrites.tex\n", len(targets))
	return nil
}

func writeClaims(path string, claimList []types.Claim) error {
	if claimList == nil {
		claimList = []types.Claim{}
	}
	return writeJSON(path, claimList)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
