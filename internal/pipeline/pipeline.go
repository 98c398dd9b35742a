// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires the evaluation passes together: it loads the
// shared inputs (state table, bibliography, document), runs each pass in
// dependency order, and persists the table, signal cache, and history
// mirror after every pass.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citegate/internal/audit"
	"github.com/pdiddy/citegate/internal/bibtex"
	"github.com/pdiddy/citegate/internal/claims"
	"github.com/pdiddy/citegate/internal/evidence"
	"github.com/pdiddy/citegate/internal/ground"
	"github.com/pdiddy/citegate/internal/lens"
	"github.com/pdiddy/citegate/internal/resolve"
	"github.com/pdiddy/citegate/internal/review"
	"github.com/pdiddy/citegate/internal/sigcache"
	"github.com/pdiddy/citegate/internal/store"
	"github.com/pdiddy/citegate/internal/texdoc"
	"github.com/pdiddy/citegate/pkg/types"
)

// Version is the pipeline version stamped into run metadata.
const Version = "1.0.0"

// StateFile is the tabular store's filename under the output directory.
const StateFile = "audit_references.csv"

// CacheFile is the signal cache's filename under the output directory.
const CacheFile = "resolution_cache.json"

// Options are the per-invocation inputs and overrides.
type Options struct {
	Tex string
	Bib string
	Out string

	// Only restricts passes to rows whose bib_key matches this regexp.
	Only string

	// Fetch and NoFetch override the configured evidence fetching policy.
	Fetch   bool
	NoFetch bool

	// VenueProfile, MLProfile, and RulesProfile override the configured
	// lens and blocker profiles.
	VenueProfile string
	MLProfile    string
	RulesProfile string

	// Weights and ConfidenceWeighting override review aggregation.
	Weights             string
	ConfidenceWeighting string
}

// Runner executes passes against one output directory.
type Runner struct {
	Config types.Config
	Client *http.Client
	Opts   Options
	W      io.Writer
}

// runMeta is the YAML metadata written at initialization.
type runMeta struct {
	PipelineVersion string `yaml:"pipeline_version"`
	TimestampUTC    string `yaml:"timestamp_utc"`
	Tex             string `yaml:"tex"`
	Bib             string `yaml:"bib"`
	Out             string `yaml:"out"`
	VenueProfile    string `yaml:"venue_profile"`
	MLProfile       string `yaml:"ml_profile"`
}

func (r *Runner) statePath() string { return filepath.Join(r.Opts.Out, StateFile) }
func (r *Runner) cachePath() string { return filepath.Join(r.Opts.Out, CacheFile) }

func (r *Runner) loadEntries() (map[string]bibtex.Entry, error) {
	list, err := bibtex.ParseFile(r.Opts.Bib)
	if err != nil {
		return nil, err
	}
	entries := make(map[string]bibtex.Entry, len(list))
	for _, e := range list {
		entries[e.Key] = e
	}
	return entries, nil
}

func (r *Runner) loadTable() (*store.Table, []store.Row, error) {
	table, err := store.Load(r.statePath())
	if err != nil {
		return nil, nil, fmt.Errorf("loading state table (run init first?): %w", err)
	}
	targets, err := table.Filter(r.Opts.Only)
	if err != nil {
		return nil, nil, err
	}
	return table, targets, nil
}

// persist writes the table back and mirrors the pass results into the
// history database. History failures are warnings, not pass failures.
func (r *Runner) persist(ctx context.Context, stage string, table *store.Table, targets []store.Row) error {
	if err := table.WriteAtomic(r.statePath()); err != nil {
		return err
	}
	h, err := store.OpenHistory(r.Opts.Out)
	if err != nil {
		fmt.Fprintf(r.W, "warning: history unavailable: %v\n", err)
		return nil
	}
	defer h.Close()
	if err := h.RecordPass(ctx, stage, targets); err != nil {
		fmt.Fprintf(r.W, "warning: recording history: %v\n", err)
	}
	return nil
}

func (r *Runner) venueProfile() string {
	if r.Opts.VenueProfile != "" {
		return r.Opts.VenueProfile
	}
	if r.Config.VenueProfile != "" {
		return r.Config.VenueProfile
	}
	return "policy_generic"
}

func (r *Runner) mlProfile() string {
	if r.Opts.MLProfile != "" {
		return r.Opts.MLProfile
	}
	if r.Config.MLProfile != "" {
		return r.Config.MLProfile
	}
	return "neurips"
}

// fetchEnabled resolves the evidence-fetch policy: explicit flags beat
// configuration, and --no-fetch beats --fetch.
func (r *Runner) fetchEnabled() bool {
	enabled := r.Config.Grounding.FetchEnabled
	if r.Opts.Fetch {
		enabled = true
	}
	if r.Opts.NoFetch {
		enabled = false
	}
	return enabled
}

// Init creates the state table from the bibliography: one row per entry
// with zeroed stage triples. A bibliography with no entries is fatal.
func (r *Runner) Init(ctx context.Context) error {
	if err := os.MkdirAll(r.Opts.Out, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	list, err := bibtex.ParseFile(r.Opts.Bib)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("no BibTeX entries found in %s", r.Opts.Bib)
	}

	table := store.NewTable()
	for _, e := range list {
		row := store.Row{}
		for _, col := range store.RequiredColumns() {
			row[col] = ""
		}
		row["bib_key"] = e.Key
		row["bib_source_file"] = r.Opts.Bib
		row["bib_entry_type"] = e.Type
		row["bib_raw"] = e.Raw
		for _, st := range store.Stages {
			row[st+"_quality"] = "0"
			row[st+"_confidence"] = "0"
			row[st+"_remediation"] = "TBD"
		}
		table.Append(row)
	}

	if err := table.WriteAtomic(r.statePath()); err != nil {
		return err
	}

	meta := runMeta{
		PipelineVersion: Version,
		TimestampUTC:    time.Now().UTC().Format(time.RFC3339),
		Tex:             r.Opts.Tex,
		Bib:             r.Opts.Bib,
		Out:             r.Opts.Out,
		VenueProfile:    r.venueProfile(),
		MLProfile:       r.mlProfile(),
	}
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding run metadata: %w", err)
	}
	metaPath := filepath.Join(r.Opts.Out, "citegate_run_meta.yaml")
	if err := os.WriteFile(metaPath, data, 0o644); err != nil {
		return fmt.Errorf("writing run metadata: %w", err)
	}

	fmt.Fprintf(r.W, "[init] wrote %s with %d references\n", r.statePath(), len(table.Rows))
	return nil
}

// Audit runs the structural audit pass.
func (r *Runner) Audit(ctx context.Context) error {
	table, targets, err := r.loadTable()
	if err != nil {
		return err
	}
	entries, err := r.loadEntries()
	if err != nil {
		return err
	}

	// Usage counts are best-effort: an unparseable document just drops
	// the unused-reference penalty.
	usage := map[string]int{}
	if doc, docErr := texdoc.ParseProject(r.Opts.Tex); docErr == nil {
		usage = doc.UsageCount
	} else {
		fmt.Fprintf(r.W, "warning: parsing TeX project: %v\n", docErr)
	}

	if err := audit.Run(table, targets, entries, usage, r.Config.Audit, r.Opts.Out, r.W); err != nil {
		return err
	}
	return r.persist(ctx, "audit", table, targets)
}

// Resolve runs the canonical-resolution pass.
func (r *Runner) Resolve(ctx context.Context) error {
	table, targets, err := r.loadTable()
	if err != nil {
		return err
	}
	entries, err := r.loadEntries()
	if err != nil {
		return err
	}

	st := &resolve.Stage{
		Resolver: resolve.New(r.Client),
		Cache:    sigcache.Load(r.cachePath()),
		Config:   r.Config,
	}
	if err := st.Run(ctx, table, targets, entries, r.Opts.Out, r.W); err != nil {
		return err
	}
	return r.persist(ctx, "resolve", table, targets)
}

// Ground runs the claim-grounding pass.
func (r *Runner) Ground(ctx context.Context) error {
	table, targets, err := r.loadTable()
	if err != nil {
		return err
	}
	entries, err := r.loadEntries()
	if err != nil {
		return err
	}
	doc, err := texdoc.ParseProject(r.Opts.Tex)
	if err != nil {
		return fmt.Errorf("parsing TeX project: %w", err)
	}

	claimList := claims.FromCitations(doc.CitationUses,
		r.Config.Grounding.SOTAKeywords, r.Config.Grounding.StrongClaimVerbs)
	claimList = append(claimList, claims.FromUncitedSpans(doc.Spans)...)

	cfg := r.Config
	cfg.Grounding.FetchEnabled = r.fetchEnabled()

	st := &ground.Stage{
		Fetcher: &evidence.Fetcher{
			Client:    r.Client,
			MaxBytes:  cfg.MaxBytes,
			UserAgent: cfg.UserAgent,
		},
		Cache:  sigcache.Load(r.cachePath()),
		Config: cfg,
	}
	if err := st.Run(ctx, table, targets, claimList, claims.ByReference(claimList), entries, r.Opts.Out, r.W); err != nil {
		return err
	}
	return r.persist(ctx, "ground", table, targets)
}

// Venue runs the policy venue lens.
func (r *Runner) Venue(ctx context.Context) error {
	table, targets, err := r.loadTable()
	if err != nil {
		return err
	}
	entries, err := r.loadEntries()
	if err != nil {
		return err
	}
	cache := sigcache.Load(r.cachePath())
	if err := lens.RunVenue(table, targets, entries, cache, r.venueProfile(), r.Opts.Out, r.W); err != nil {
		return err
	}
	return r.persist(ctx, "venue", table, targets)
}

// ML runs the ML research lens.
func (r *Runner) ML(ctx context.Context) error {
	table, targets, err := r.loadTable()
	if err != nil {
		return err
	}
	entries, err := r.loadEntries()
	if err != nil {
		return err
	}
	cache := sigcache.Load(r.cachePath())
	if err := lens.RunML(table, targets, entries, cache, r.mlProfile(), r.Opts.Out, r.W); err != nil {
		return err
	}
	return r.persist(ctx, "ml", table, targets)
}

// Review runs the final aggregation and blocker evaluation over all rows.
func (r *Runner) Review(ctx context.Context) error {
	table, err := store.Load(r.statePath())
	if err != nil {
		return fmt.Errorf("loading state table (run init first?): %w", err)
	}
	cache := sigcache.Load(r.cachePath())

	profile := r.Opts.RulesProfile
	if profile == "" {
		profile = r.mlProfile()
	}
	opts := review.Options{
		Weights:        r.Opts.Weights,
		ConfidenceMode: r.Opts.ConfidenceWeighting,
		Profile:        profile,
	}
	if err := review.Run(table, cache, r.Config, opts, r.Opts.Out, r.W); err != nil {
		return err
	}
	// The ranked critique CSV is the review pass's own record; only the
	// state table needs writing back.
	return table.WriteAtomic(r.statePath())
}

// stageFuncs maps pass names to their runners, in dependency order.
func (r *Runner) stageFuncs() []struct {
	name string
	fn   func(context.Context) error
} {
	return []struct {
		name string
		fn   func(context.Context) error
	}{
		{"init", r.Init},
		{"audit", r.Audit},
		{"resolve", r.Resolve},
		{"ground", r.Ground},
		{"venue", r.Venue},
		{"ml", r.ML},
		{"review_critiques", r.Review},
	}
}

// RunAll executes every pass in dependency order, stopping at the first
// failure.
func (r *Runner) RunAll(ctx context.Context) error {
	for _, st := range r.stageFuncs() {
		if err := st.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", st.name, err)
		}
	}
	return nil
}
