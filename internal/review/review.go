// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package review aggregates the per-stage quality triples into a final
// reference score, evaluates blocker rules, and emits the ranked critique
// outputs.
package review

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/citegate/internal/store"
	"github.com/pdiddy/citegate/pkg/types"
)

// Confidence weighting modes.
const (
	ModeEqual     = "equal"
	ModeLinear    = "linear"
	ModeQuadratic = "quadratic"
)

// ConfWeight scales a stage's contribution by its confidence (0-100).
// Unknown modes behave as linear.
func ConfWeight(conf float64, mode string) float64 {
	c := conf / 100.0
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	switch mode {
	case ModeEqual:
		return 1.0
	case ModeQuadratic:
		return c * c
	}
	return c
}

// ParseWeights parses a "stage=weight,stage=weight" override string.
// Stages not named default to weight 1.0. Empty input yields all-ones.
func ParseWeights(s string) (map[string]float64, error) {
	weights := make(map[string]float64, len(store.Stages))
	if s != "" {
		for _, part := range strings.Split(s, ",") {
			kv := strings.SplitN(part, "=", 2)
			if len(kv) != 2 {
				return nil, fmt.Errorf("malformed weight %q: want stage=value", part)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
			if err != nil {
				return nil, fmt.Errorf("malformed weight %q: %w", part, err)
			}
			weights[strings.TrimSpace(kv[0])] = v
		}
	}
	for _, st := range store.Stages {
		if _, ok := weights[st]; !ok {
			weights[st] = 1.0
		}
	}
	return weights, nil
}

// Score computes the confidence-weighted aggregate of the stage quality
// columns, on a 0-100 scale.
func Score(row store.Row, weights map[string]float64, mode string) float64 {
	var totalW, accum float64
	for _, st := range store.Stages {
		q := row.Float(st + "_quality")
		c := row.Float(st + "_confidence")
		w, ok := weights[st]
		if !ok {
			w = 1.0
		}
		totalW += w
		accum += w * (q / 100.0) * ConfWeight(c, mode)
	}
	if totalW == 0 {
		return 0
	}
	return 100.0 * accum / totalW
}

// Blocker decides whether a reference must block submission. cached and
// haveEntry come from the signal cache; cfg supplies thresholds.
type Blocker func(row store.Row, cached types.CacheEntry, haveEntry bool, cfg types.Config) (bool, string)

// blockerRegistry maps rule names (as configured in review profiles) to
// their predicates.
var blockerRegistry = map[string]Blocker{
	"resolve_unresolved_or_low_confidence":       blockerResolveWeak,
	"year_or_venue_mismatch_after_resolve":       blockerMismatch,
	"high_priority_claim_unsupported":            blockerHighPriorityClaim,
	"sota_claim_with_unresolved_or_low_conf_ref": blockerSOTAWeakRef,
}

func blockerResolveWeak(row store.Row, _ types.CacheEntry, _ bool, cfg types.Config) (bool, string) {
	if row.Float("resolve_quality") < cfg.Priority.BlockerResolveQualityLT ||
		row.Float("resolve_confidence") < cfg.Priority.BlockerResolveConfidenceLT {
		return true, "Resolve stage unresolved/low-confidence."
	}
	return false, ""
}

func blockerMismatch(_ store.Row, cached types.CacheEntry, haveEntry bool, _ types.Config) (bool, string) {
	if !haveEntry {
		return false, ""
	}
	for _, m := range cached.Mismatch {
		if strings.Contains(m, "year_mismatch") || m == "venue_mismatch" {
			return true, "Year/venue mismatch after resolution; reconcile BibTeX with canonical."
		}
	}
	return false, ""
}

func blockerHighPriorityClaim(_ store.Row, cached types.CacheEntry, haveEntry bool, _ types.Config) (bool, string) {
	if haveEntry && cached.GroundSignals != nil && cached.GroundSignals.HighPriorityClaimUnsupported {
		return true, "High-priority (abstract/conclusion) claim unsupported for this reference usage."
	}
	return false, ""
}

func blockerSOTAWeakRef(row store.Row, cached types.CacheEntry, haveEntry bool, _ types.Config) (bool, string) {
	if !haveEntry || cached.GroundSignals == nil || !cached.GroundSignals.SOTAClaimWeakSupport {
		return false, ""
	}
	if row.Float("resolve_quality") < 70 || row.Float("resolve_confidence") < 70 {
		return true, "SOTA-like claim uses weakly grounded reference with non-strong resolution; add canonical/benchmark citations."
	}
	return false, ""
}

// EvaluateBlockers runs the named rules (defaults first, then profile
// extras) and returns the deduplicated notes of those that fired. Unknown
// rule names are skipped.
func EvaluateBlockers(names []string, row store.Row, cached types.CacheEntry, haveEntry bool, cfg types.Config) []string {
	var notes []string
	seen := make(map[string]bool)
	for _, name := range names {
		fn, ok := blockerRegistry[name]
		if !ok {
			continue
		}
		fired, note := fn(row, cached, haveEntry, cfg)
		if fired && !seen[note] {
			seen[note] = true
			notes = append(notes, note)
		}
	}
	return notes
}

// Priority assigns the non-blocker severity from the ground and venue
// quality columns.
func Priority(row store.Row, thr types.PriorityThresholds) (string, string) {
	switch {
	case row.Float("ground_quality") < thr.HighGroundQualityLT:
		return "high", "Weak grounding support for claims citing this reference."
	case row.Float("venue_quality") < thr.MediumVenueQualityLT:
		return "medium", "Weak policy/governance fit for its usage."
	}
	return "low", "No blocker triggered; scores acceptable."
}
