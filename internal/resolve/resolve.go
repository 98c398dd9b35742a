// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve matches bibliography entries against external canonical
// records. Each configured backend is queried independently and best-effort;
// candidates are merged into one winner by adjusted match confidence and the
// winner is classified as resolved, needs_review, or unresolved against the
// configured similarity thresholds.
package resolve

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/pdiddy/citegate/internal/similarity"
	"github.com/pdiddy/citegate/pkg/types"
)

// idBoost is added to a candidate's match confidence when its DOI or arXiv
// id equals the reference's. The two boosts apply independently, each
// clamped at 1.0.
const idBoost = 0.10

// Ref holds the bibliographic fields of one reference fed into resolution.
// Year 0 means unknown.
type Ref struct {
	Key     string
	Title   string
	Authors string
	Year    int
	Venue   string
	DOI     string
	ArxivID string
}

// Backend produces candidates for one reference from one external source.
// A failure yields zero candidates and an error; the resolver records the
// reason and continues with the remaining backends.
type Backend interface {
	Name() string
	Lookup(ctx context.Context, ref Ref, cfg types.Config) ([]types.Candidate, error)
}

// Resolver queries its backends in slice order. The order is pinned:
// candidates are appended in backend order and ties on adjusted confidence
// break first-seen, so reordering backends changes winners.
type Resolver struct {
	Backends []Backend
}

// New returns a Resolver with the standard backend order:
// arXiv (exact id), OpenAlex, Crossref, DBLP.
func New(client *http.Client) *Resolver {
	return &Resolver{Backends: []Backend{
		&ArxivBackend{Client: client},
		&OpenAlexBackend{Client: client},
		&CrossrefBackend{Client: client},
		&DBLPBackend{Client: client},
	}}
}

// Outcome is the result of resolving one reference.
type Outcome struct {
	Status      string
	Quality     int
	Confidence  int
	Remediation string

	// Entry is the signal-cache entry to persist for this reference.
	Entry types.CacheEntry

	// Winner is the merged best candidate, nil when no backend produced one.
	Winner *types.Candidate

	// BackendErrors lists soft per-backend failures ("name: reason").
	BackendErrors []string
}

// Resolve queries all backends for ref, merges their candidates, and
// classifies the winner. Backend failures never abort the call.
func (r *Resolver) Resolve(ctx context.Context, ref Ref, cfg types.Config) Outcome {
	var candidates []types.Candidate
	var backendErrors []string

	for _, b := range r.Backends {
		got, err := b.Lookup(ctx, ref, cfg)
		if err != nil {
			backendErrors = append(backendErrors, fmt.Sprintf("%s: %v", b.Name(), err))
			continue
		}
		candidates = append(candidates, got...)
	}

	winner := merge(candidates, ref)
	if winner == nil {
		return Outcome{
			Status:      types.StatusUnresolved,
			Quality:     10,
			Confidence:  20,
			Remediation: "Unresolved: add DOI or arXiv ID; verify title/authors; replace if non-existent.",
			Entry: types.CacheEntry{
				Status:  types.StatusUnresolved,
				Signals: types.MatchSignals{YearDiff: types.UnknownYearDiff},
			},
			BackendErrors: backendErrors,
		}
	}

	ts := similarity.Jaccard(ref.Title, winner.Canonical.Title)
	ao := similarity.AuthorOverlap(ref.Authors, winner.Canonical.Authors)
	yd := yearDiff(ref.Year, winner.Canonical.Year)

	status := classify(ts, ao, yd, cfg.Resolve)

	var quality, confidence int
	var remediation string
	switch status {
	case types.StatusResolved:
		quality = 95
		confidence = int(math.Min(100, 70+winner.MatchConfidence*30))
		remediation = "OK: resolved to canonical record; consider updating BibTeX with refs.corrected.bib."
	case types.StatusNeedsReview:
		quality = 65
		confidence = int(math.Min(90, 50+winner.MatchConfidence*40))
		remediation = "Review match: add DOI/arXiv ID and reconcile title/authors/year with canonical metadata."
	default:
		quality = 25
		confidence = int(math.Min(60, 30+winner.MatchConfidence*30))
		remediation = "Likely mismatch/hallucination: verify existence; add DOI/arXiv; replace with verifiable source."
	}

	return Outcome{
		Status:      status,
		Quality:     quality,
		Confidence:  confidence,
		Remediation: remediation,
		Entry: types.CacheEntry{
			Status:          status,
			MatchConfidence: winner.MatchConfidence,
			Canonical:       winner.Canonical,
			IDs:             winner.IDs,
			Signals:         types.MatchSignals{TitleSimilarity: ts, AuthorOverlap: ao, YearDiff: yd},
			Mismatch:        mismatchFlags(ref, winner.Canonical),
		},
		Winner:        winner,
		BackendErrors: backendErrors,
	}
}

// merge selects the candidate with the highest adjusted match confidence.
// A strict greater-than comparison keeps the first-seen candidate on ties.
func merge(candidates []types.Candidate, ref Ref) *types.Candidate {
	var best *types.Candidate
	for _, c := range candidates {
		mc := c.MatchConfidence
		if ref.DOI != "" && sameDOI(c.IDs["doi"], ref.DOI) {
			mc = math.Min(1.0, mc+idBoost)
		}
		if ref.ArxivID != "" && c.IDs["arxiv"] == ref.ArxivID {
			mc = math.Min(1.0, mc+idBoost)
		}
		if best == nil || mc > best.MatchConfidence {
			adjusted := c
			adjusted.MatchConfidence = mc
			best = &adjusted
		}
	}
	return best
}

// classify applies the threshold bands in order: full pass, review, else
// unresolved. An unknown year difference never passes the strict band.
func classify(ts, ao float64, yd int, thr types.ResolveThresholds) string {
	if ts >= thr.TitleSimilarityPass && ao >= thr.AuthorOverlapPass && yd <= thr.YearDiffPass {
		return types.StatusResolved
	}
	if ts >= thr.TitleSimilarityReview && ao >= thr.AuthorOverlapReview {
		return types.StatusNeedsReview
	}
	return types.StatusUnresolved
}

// yearDiff treats a missing year on either side as unknown.
func yearDiff(refYear, canYear int) int {
	if refYear == 0 || canYear == 0 {
		return types.UnknownYearDiff
	}
	d := refYear - canYear
	if d < 0 {
		d = -d
	}
	return d
}

func sameDOI(a, b string) bool {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return norm(a) != "" && norm(a) == norm(b)
}

func mismatchFlags(ref Ref, can types.Canonical) []string {
	var flags []string
	if ref.Year != 0 && can.Year != 0 && ref.Year != can.Year {
		flags = append(flags, fmt.Sprintf("year_mismatch(bib=%d,can=%d)", ref.Year, can.Year))
	}
	if ref.Venue != "" && can.Venue != "" &&
		!strings.Contains(strings.ToLower(can.Venue), strings.ToLower(ref.Venue)) {
		flags = append(flags, "venue_mismatch")
	}
	return flags
}

// joinAuthors renders a backend's author list in BibTeX "and" style,
// capped at 12 names.
func joinAuthors(names []string) string {
	if len(names) > 12 {
		names = names[:12]
	}
	return strings.Join(names, " and ")
}

// fuzzyConfidence scores a fuzzy-search candidate against the reference:
// title Jaccard weighted 0.75, author overlap 0.25, damped by 0.85 when
// both years are known and differ by more than two.
func fuzzyConfidence(ref Ref, title, authors string, year int) float64 {
	mc := similarity.Jaccard(ref.Title, title)*0.75 + similarity.AuthorOverlap(ref.Authors, authors)*0.25
	if ref.Year != 0 && year != 0 {
		d := ref.Year - year
		if d < 0 {
			d = -d
		}
		if d > 2 {
			mc *= 0.85
		}
	}
	return mc
}

// maxCandidates returns the per-backend result cap.
func maxCandidates(cfg types.Config) int {
	if cfg.Resolve.MaxCandidates > 0 {
		return cfg.Resolve.MaxCandidates
	}
	return 3
}
