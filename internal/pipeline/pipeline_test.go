// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/pdiddy/citegate/internal/config"
	"github.com/pdiddy/citegate/internal/store"
)

const testBib = `@article{okafor2023,
  title={Adaptive Risk Scoring for Automated Systems},
  author={Okafor, Chinwe and Lindqvist, Maja},
  year={2023},
  journal={Journal of AI Governance},
}

@misc{vance2024,
  title={Notes on Evaluation Drift},
  author={Vance, Theo},
  year={2024},
}
`

const testTex = `\documentclass{article}
\begin{document}
Adaptive risk scoring improves oversight of automated systems \cite{okafor2023}.
Evaluation drift remains poorly understood \cite{vance2024}.
\end{document}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// failingTransport refuses every request, forcing resolution backends to
// report soft errors.
type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("network disabled in test")
}

func newTestRunner(t *testing.T, w io.Writer) *Runner {
	t.Helper()
	dir := t.TempDir()
	tex := writeFile(t, dir, "main.tex", testTex)
	bib := writeFile(t, dir, "refs.bib", testBib)

	cfg := config.Load(viper.New(), io.Discard)
	cfg.Grounding.FetchEnabled = false
	cfg.Workers = 2

	if w == nil {
		w = io.Discard
	}
	return &Runner{
		Config: cfg,
		Client: &http.Client{Transport: failingTransport{}},
		Opts: Options{
			Tex: tex,
			Bib: bib,
			Out: filepath.Join(dir, "out"),
		},
		W: w,
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRunner(t, &buf)

	if err := r.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	table, err := store.Load(r.statePath())
	if err != nil {
		t.Fatalf("loading state table: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	row := table.Get("okafor2023")
	if row == nil {
		t.Fatal("okafor2023 row missing")
	}
	if row["bib_entry_type"] != "article" {
		t.Errorf("bib_entry_type = %q, want article", row["bib_entry_type"])
	}
	if row["bib_source_file"] != r.Opts.Bib {
		t.Errorf("bib_source_file = %q, want %q", row["bib_source_file"], r.Opts.Bib)
	}
	if !strings.Contains(row["bib_raw"], "Adaptive Risk Scoring") {
		t.Errorf("bib_raw missing title: %q", row["bib_raw"])
	}
	for _, st := range store.Stages {
		if row[st+"_quality"] != "0" || row[st+"_confidence"] != "0" {
			t.Errorf("%s triple = %s/%s, want 0/0", st, row[st+"_quality"], row[st+"_confidence"])
		}
		if row[st+"_remediation"] != "TBD" {
			t.Errorf("%s_remediation = %q, want TBD", st, row[st+"_remediation"])
		}
	}
	if row["review_priority"] != "" {
		t.Errorf("review_priority = %q, want empty", row["review_priority"])
	}

	meta, err := os.ReadFile(filepath.Join(r.Opts.Out, "citegate_run_meta.yaml"))
	if err != nil {
		t.Fatalf("reading run metadata: %v", err)
	}
	if !strings.Contains(string(meta), "pipeline_version: 1.0.0") {
		t.Errorf("metadata missing pipeline version:\n%s", meta)
	}
	if !strings.Contains(buf.String(), "[init] wrote") {
		t.Errorf("progress output = %q", buf.String())
	}
}

func TestInitEmptyBibFails(t *testing.T) {
	r := newTestRunner(t, nil)
	r.Opts.Bib = writeFile(t, t.TempDir(), "empty.bib", "% nothing here\n")

	err := r.Init(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no BibTeX entries") {
		t.Fatalf("err = %v, want no-entries failure", err)
	}
}

func TestStagesRequireInit(t *testing.T) {
	r := newTestRunner(t, nil)
	if err := r.Audit(context.Background()); err == nil {
		t.Fatal("Audit before Init should fail")
	}
}

func TestFetchPolicy(t *testing.T) {
	tests := []struct {
		name           string
		cfg            bool
		fetch, noFetch bool
		want           bool
	}{
		{"config off", false, false, false, false},
		{"config on", true, false, false, true},
		{"flag enables", false, true, false, true},
		{"no-fetch wins", true, true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRunner(t, nil)
			r.Config.Grounding.FetchEnabled = tt.cfg
			r.Opts.Fetch = tt.fetch
			r.Opts.NoFetch = tt.noFetch
			if got := r.fetchEnabled(); got != tt.want {
				t.Errorf("fetchEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProfileOverrides(t *testing.T) {
	r := newTestRunner(t, nil)
	if got := r.venueProfile(); got != "policy_generic" {
		t.Errorf("default venue profile = %q", got)
	}
	r.Config.VenueProfile = "policy_uk"
	if got := r.venueProfile(); got != "policy_uk" {
		t.Errorf("config venue profile = %q", got)
	}
	r.Opts.VenueProfile = "policy_eu"
	if got := r.venueProfile(); got != "policy_eu" {
		t.Errorf("flag venue profile = %q", got)
	}
	if got := r.mlProfile(); got != "neurips" {
		t.Errorf("default ml profile = %q", got)
	}
}

// TestRunAllOffline drives every pass with the network disabled. The
// resolution backends fail softly, grounding runs without fetching, and the
// review pass still ranks both references.
func TestRunAllOffline(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRunner(t, &buf)

	if err := r.RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll: %v", err)
	}

	table, err := store.Load(r.statePath())
	if err != nil {
		t.Fatalf("loading state table: %v", err)
	}
	row := table.Get("okafor2023")
	if row == nil {
		t.Fatal("okafor2023 row missing")
	}

	// No backend could answer, so resolution lands in the no-candidate band.
	if row["resolve_quality"] != "10" || row["resolve_confidence"] != "20" {
		t.Errorf("resolve = %s/%s, want 10/20", row["resolve_quality"], row["resolve_confidence"])
	}
	if row["audit_quality"] != "100" {
		t.Errorf("audit_quality = %s, want 100", row["audit_quality"])
	}
	if row["venue_quality"] != "85" {
		t.Errorf("venue_quality = %s, want 85 for a journal article", row["venue_quality"])
	}
	if row["review_priority"] == "" || row["review_priority"] == "TBD" {
		t.Errorf("review_priority = %q, want assigned", row["review_priority"])
	}
	if row["reference_quality_score"] == "" {
		t.Error("reference_quality_score not set")
	}

	for _, name := range []string{
		"stage_audit_report.md",
		"stage_resolve_report.md",
		"grounding_report.md",
		"venue_report.md",
		"ml_report.md",
		"review_critiques.csv",
		"review_critiques.md",
		"resolution_cache.json",
		"citegate_history.db",
	} {
		if _, err := os.Stat(filepath.Join(r.Opts.Out, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
	if !strings.Contains(buf.String(), "[review_critiques] wrote") {
		t.Errorf("missing review progress line in output:\n%s", buf.String())
	}
}
