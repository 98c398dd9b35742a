// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/citegate/internal/sigcache"
	"github.com/pdiddy/citegate/internal/store"
	"github.com/pdiddy/citegate/pkg/types"
)

// maxReportRows caps the ranked markdown report.
const maxReportRows = 100

// Options are the command-line overrides for a review run. Empty fields
// fall back to configuration.
type Options struct {
	// Weights is a "stage=weight,..." override string.
	Weights string

	// ConfidenceMode overrides the confidence weighting mode.
	ConfidenceMode string

	// Profile selects the blocker rule profile.
	Profile string
}

// resolveWeights merges the override string or configured weights with
// the all-ones default.
func resolveWeights(opts Options, cfg types.Config) (map[string]float64, error) {
	if opts.Weights != "" {
		return ParseWeights(opts.Weights)
	}
	weights := make(map[string]float64, len(store.Stages))
	for _, st := range store.Stages {
		weights[st] = 1.0
	}
	for st, w := range cfg.Review.Weights {
		weights[st] = w
	}
	return weights, nil
}

// Run scores every row, assigns blocker/priority labels, and writes the
// ranked critique CSV and markdown report. The caller persists the main
// table afterwards.
func Run(table *store.Table, cache *sigcache.Cache, cfg types.Config, opts Options, outDir string, w io.Writer) error {
	weights, err := resolveWeights(opts, cfg)
	if err != nil {
		return err
	}

	mode := opts.ConfidenceMode
	if mode == "" {
		mode = cfg.Review.ConfidenceWeighting
	}
	if mode == "" {
		mode = ModeLinear
	}

	profile := strings.ToLower(opts.Profile)
	if profile == "" {
		profile = strings.ToLower(cfg.MLProfile)
	}
	if profile == "" {
		profile = "default"
	}

	ruleNames := append([]string{}, cfg.Review.DefaultBlockers...)
	if p, ok := cfg.Review.Profiles[profile]; ok {
		ruleNames = append(ruleNames, p.Blockers...)
	}

	for _, row := range table.Rows {
		score := Score(row, weights, mode)
		row["reference_quality_score"] = fmt.Sprintf("%.1f", score)

		cached, haveEntry := cache.Get(row.Key())
		notes := EvaluateBlockers(ruleNames, row, cached, haveEntry, cfg)
		if len(notes) > 0 {
			row["review_priority"] = "blocker"
			row["reference_quality_notes"] = strings.Join(notes, " | ")
		} else {
			priority, note := Priority(row, cfg.Priority)
			row["review_priority"] = priority
			row["reference_quality_notes"] = note
		}
	}

	ranked := append([]store.Row{}, table.Rows...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Float("reference_quality_score") < ranked[j].Float("reference_quality_score")
	})

	rankedTable := store.NewTable()
	for _, row := range ranked {
		rankedTable.Append(row)
	}
	csvPath := filepath.Join(outDir, "review_critiques.csv")
	if err := rankedTable.WriteAtomic(csvPath); err != nil {
		return fmt.Errorf("writing ranked critiques: %w", err)
	}

	lines := []string{fmt.Sprintf("# review_critiques (ranked) - profile=%s\n\n", profile)}
	top := ranked
	if len(top) > maxReportRows {
		top = top[:maxReportRows]
	}
	for i, row := range top {
		lines = append(lines, fmt.Sprintf("## %d. %s - score %s - %s\n",
			i+1, row.Key(), row["reference_quality_score"], row["review_priority"]))
		lines = append(lines, fmt.Sprintf("- Notes: %s\n", row["reference_quality_notes"]))
		for _, st := range store.Stages {
			lines = append(lines, fmt.Sprintf("  - %s: Q=%s C=%s - %s\n",
				st, row[st+"_quality"], row[st+"_confidence"], row[st+"_remediation"]))
		}
		lines = append(lines, "\n")
	}
	mdPath := filepath.Join(outDir, "review_critiques.md")
	if err := os.WriteFile(mdPath, []byte(strings.Join(lines, "")), 0o644); err != nil {
		return fmt.Errorf("writing critique report: %w", err)
	}

	fmt.Fprintf(w, "[review_critiques] wrote %s, %s (profile=%s)\n", csvPath, mdPath, profile)
	return nil
}
