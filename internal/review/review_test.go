// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/citegate/internal/sigcache"
	"github.com/pdiddy/citegate/internal/store"
	"github.com/pdiddy/citegate/pkg/types"
)

func testReviewConfig() types.Config {
	return types.Config{
		Priority: types.PriorityThresholds{
			BlockerResolveQualityLT:    40,
			BlockerResolveConfidenceLT: 50,
			HighGroundQualityLT:        50,
			MediumVenueQualityLT:       60,
		},
		Review: types.ReviewConfig{
			ConfidenceWeighting: ModeLinear,
			DefaultBlockers: []string{
				"resolve_unresolved_or_low_confidence",
				"high_priority_claim_unsupported",
			},
			Profiles: map[string]types.RuleProfile{
				"neurips": {Blockers: []string{
					"year_or_venue_mismatch_after_resolve",
					"sota_claim_with_unresolved_or_low_conf_ref",
				}},
			},
		},
		MLProfile: "neurips",
	}
}

func fullRow(key string, stageQC map[string][2]string) store.Row {
	row := store.Row{}
	for _, col := range store.RequiredColumns() {
		row[col] = ""
	}
	row["bib_key"] = key
	for st, qc := range stageQC {
		row[st+"_quality"] = qc[0]
		row[st+"_confidence"] = qc[1]
	}
	return row
}

func healthyRow(key string) store.Row {
	return fullRow(key, map[string][2]string{
		"audit":   {"100", "95"},
		"resolve": {"95", "92"},
		"ground":  {"90", "90"},
		"venue":   {"85", "85"},
		"ml":      {"85", "85"},
	})
}

func TestConfWeight(t *testing.T) {
	tests := []struct {
		conf float64
		mode string
		want float64
	}{
		{80, ModeEqual, 1.0},
		{80, ModeLinear, 0.8},
		{80, ModeQuadratic, 0.64},
		{150, ModeLinear, 1.0},
		{-10, ModeLinear, 0.0},
		{50, "bogus", 0.5},
	}
	for _, tt := range tests {
		got := ConfWeight(tt.conf, tt.mode)
		if got < tt.want-1e-9 || got > tt.want+1e-9 {
			t.Errorf("ConfWeight(%v, %q) = %v, want %v", tt.conf, tt.mode, got, tt.want)
		}
	}
}

func TestParseWeights(t *testing.T) {
	weights, err := ParseWeights("audit=1, resolve=2.5")
	if err != nil {
		t.Fatalf("ParseWeights() error: %v", err)
	}
	if weights["audit"] != 1 || weights["resolve"] != 2.5 {
		t.Errorf("weights = %v", weights)
	}
	for _, st := range []string{"ground", "venue", "ml"} {
		if weights[st] != 1.0 {
			t.Errorf("weight[%s] = %v, want default 1.0", st, weights[st])
		}
	}

	if _, err := ParseWeights("audit"); err == nil {
		t.Error("expected error for missing =")
	}
	if _, err := ParseWeights("audit=abc"); err == nil {
		t.Error("expected error for non-numeric weight")
	}
}

func TestScore(t *testing.T) {
	weights, _ := ParseWeights("")
	row := fullRow("k", map[string][2]string{
		"audit":   {"100", "100"},
		"resolve": {"100", "100"},
		"ground":  {"100", "100"},
		"venue":   {"100", "100"},
		"ml":      {"100", "100"},
	})
	if got := Score(row, weights, ModeLinear); got != 100 {
		t.Errorf("perfect score = %v, want 100", got)
	}

	// Equal mode ignores confidence entirely.
	low := fullRow("k", map[string][2]string{
		"audit":   {"100", "10"},
		"resolve": {"100", "10"},
		"ground":  {"100", "10"},
		"venue":   {"100", "10"},
		"ml":      {"100", "10"},
	})
	if got := Score(low, weights, ModeEqual); got != 100 {
		t.Errorf("equal-mode score = %v, want 100", got)
	}
	if got := Score(low, weights, ModeLinear); got != 10 {
		t.Errorf("linear-mode score = %v, want 10", got)
	}
}

func TestScoreMonotonicInQuality(t *testing.T) {
	weights, _ := ParseWeights("")
	low := healthyRow("k")
	low["ground_quality"] = "40"
	high := healthyRow("k")
	high["ground_quality"] = "90"
	if Score(low, weights, ModeLinear) >= Score(high, weights, ModeLinear) {
		t.Error("score should increase with ground quality")
	}
}

func TestBlockerResolveWeak(t *testing.T) {
	cfg := testReviewConfig()
	row := healthyRow("k")
	if fired, _ := blockerResolveWeak(row, types.CacheEntry{}, false, cfg); fired {
		t.Error("healthy resolve should not fire")
	}
	row["resolve_quality"] = "30"
	if fired, _ := blockerResolveWeak(row, types.CacheEntry{}, false, cfg); !fired {
		t.Error("resolve_quality below threshold should fire")
	}
	row = healthyRow("k")
	row["resolve_confidence"] = "40"
	if fired, _ := blockerResolveWeak(row, types.CacheEntry{}, false, cfg); !fired {
		t.Error("resolve_confidence below threshold should fire")
	}
}

func TestBlockerMismatch(t *testing.T) {
	cfg := testReviewConfig()
	row := healthyRow("k")

	entry := types.CacheEntry{Mismatch: []string{"year_mismatch(bib=2019,can=2021)"}}
	if fired, _ := blockerMismatch(row, entry, true, cfg); !fired {
		t.Error("year mismatch should fire")
	}
	entry = types.CacheEntry{Mismatch: []string{"venue_mismatch"}}
	if fired, _ := blockerMismatch(row, entry, true, cfg); !fired {
		t.Error("venue mismatch should fire")
	}
	if fired, _ := blockerMismatch(row, types.CacheEntry{}, true, cfg); fired {
		t.Error("clean entry should not fire")
	}
	if fired, _ := blockerMismatch(row, entry, false, cfg); fired {
		t.Error("missing cache entry should not fire")
	}
}

func TestBlockerHighPriorityClaim(t *testing.T) {
	cfg := testReviewConfig()
	row := healthyRow("k")
	entry := types.CacheEntry{GroundSignals: &types.GroundSignals{HighPriorityClaimUnsupported: true}}
	if fired, _ := blockerHighPriorityClaim(row, entry, true, cfg); !fired {
		t.Error("unsupported high-priority claim should fire")
	}
	entry = types.CacheEntry{GroundSignals: &types.GroundSignals{}}
	if fired, _ := blockerHighPriorityClaim(row, entry, true, cfg); fired {
		t.Error("supported claims should not fire")
	}
	if fired, _ := blockerHighPriorityClaim(row, types.CacheEntry{}, true, cfg); fired {
		t.Error("nil ground signals should not fire")
	}
}

func TestBlockerSOTAWeakRef(t *testing.T) {
	cfg := testReviewConfig()
	weak := types.CacheEntry{GroundSignals: &types.GroundSignals{SOTAClaimWeakSupport: true}}

	row := healthyRow("k")
	if fired, _ := blockerSOTAWeakRef(row, weak, true, cfg); fired {
		t.Error("strong resolution should suppress the SOTA blocker")
	}
	row["resolve_quality"] = "60"
	if fired, _ := blockerSOTAWeakRef(row, weak, true, cfg); !fired {
		t.Error("weak resolution with weak SOTA support should fire")
	}
	row = healthyRow("k")
	row["resolve_confidence"] = "60"
	if fired, _ := blockerSOTAWeakRef(row, weak, true, cfg); !fired {
		t.Error("low resolve confidence with weak SOTA support should fire")
	}
}

func TestEvaluateBlockersDedup(t *testing.T) {
	cfg := testReviewConfig()
	row := healthyRow("k")
	row["resolve_quality"] = "10"
	names := []string{
		"resolve_unresolved_or_low_confidence",
		"resolve_unresolved_or_low_confidence",
		"nonexistent_rule",
	}
	notes := EvaluateBlockers(names, row, types.CacheEntry{}, false, cfg)
	if len(notes) != 1 {
		t.Errorf("got %d notes %v, want 1 deduplicated note", len(notes), notes)
	}
}

func TestPriority(t *testing.T) {
	thr := testReviewConfig().Priority
	row := healthyRow("k")
	if p, _ := Priority(row, thr); p != "low" {
		t.Errorf("healthy priority = %q, want low", p)
	}
	row["ground_quality"] = "40"
	if p, _ := Priority(row, thr); p != "high" {
		t.Errorf("weak ground priority = %q, want high", p)
	}
	row = healthyRow("k")
	row["venue_quality"] = "50"
	if p, _ := Priority(row, thr); p != "medium" {
		t.Errorf("weak venue priority = %q, want medium", p)
	}
}

func TestRunBlockerDominance(t *testing.T) {
	dir := t.TempDir()
	cfg := testReviewConfig()

	table := store.NewTable()
	good := healthyRow("good2020")
	table.Append(good)

	// High aggregate score but a high-priority claim failed grounding.
	blocked := healthyRow("blocked2021")
	table.Append(blocked)

	cache := sigcache.Load(filepath.Join(dir, "resolution_cache.json"))
	cache.SetGroundSignals("blocked2021", types.GroundSignals{HighPriorityClaimUnsupported: true})

	var out bytes.Buffer
	if err := Run(table, cache, cfg, Options{}, dir, &out); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if blocked["review_priority"] != "blocker" {
		t.Errorf("review_priority = %q, want blocker regardless of score", blocked["review_priority"])
	}
	if !strings.Contains(blocked["reference_quality_notes"], "High-priority") {
		t.Errorf("notes = %q", blocked["reference_quality_notes"])
	}
	if good["review_priority"] != "low" {
		t.Errorf("good review_priority = %q, want low", good["review_priority"])
	}
	if good["reference_quality_score"] == "" {
		t.Error("score column not filled")
	}

	for _, name := range []string{"review_critiques.csv", "review_critiques.md"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}
}

func TestRunRanksWorstFirst(t *testing.T) {
	dir := t.TempDir()
	cfg := testReviewConfig()

	table := store.NewTable()
	table.Append(healthyRow("strong2020"))
	weak := fullRow("weak2021", map[string][2]string{
		"audit":   {"20", "80"},
		"resolve": {"10", "20"},
		"ground":  {"33", "10"},
		"venue":   {"35", "70"},
		"ml":      {"30", "70"},
	})
	table.Append(weak)

	cache := sigcache.Load(filepath.Join(dir, "resolution_cache.json"))
	var out bytes.Buffer
	if err := Run(table, cache, cfg, Options{}, dir, &out); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "review_critiques.md"))
	if err != nil {
		t.Fatal(err)
	}
	report := string(data)
	weakIdx := strings.Index(report, "weak2021")
	strongIdx := strings.Index(report, "strong2020")
	if weakIdx < 0 || strongIdx < 0 || weakIdx > strongIdx {
		t.Errorf("ranked report should list weak2021 before strong2020:\n%s", report)
	}
}
