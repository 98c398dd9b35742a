// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads the configuration tree through viper, with built-in
// defaults for every recognized key. A missing or malformed config file is
// never fatal: the pipeline runs on defaults and notes the fallback.
package config

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/citegate/pkg/types"
)

// SetDefaults registers the built-in value of every recognized key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http_timeout", 25*time.Second)
	v.SetDefault("http_max_bytes", 15_000_000)
	v.SetDefault("user_agent", "citegate/1.0")
	v.SetDefault("workers", 4)

	v.SetDefault("resolve_thresholds.title_similarity_pass", 0.92)
	v.SetDefault("resolve_thresholds.author_overlap_pass", 0.70)
	v.SetDefault("resolve_thresholds.year_diff_pass", 1)
	v.SetDefault("resolve_thresholds.title_similarity_review", 0.86)
	v.SetDefault("resolve_thresholds.author_overlap_review", 0.55)
	v.SetDefault("resolve_thresholds.max_candidates", 3)

	v.SetDefault("grounding.supported_threshold", 0.75)
	v.SetDefault("grounding.weak_threshold", 0.60)
	v.SetDefault("grounding.fetch_enabled", true)
	v.SetDefault("grounding.evidence_preference",
		[]string{"md", "html", "htm", "tex", "rtf", "txt", "pdf"})
	v.SetDefault("grounding.sota_keywords", []string{
		"state-of-the-art", "state of the art", "sota", "outperforms",
		"best performance", "surpasses", "best-known result",
	})
	v.SetDefault("grounding.strong_claim_verbs", []string{
		"demonstrates", "proves", "establishes", "confirms", "guarantees", "shows that",
	})
	v.SetDefault("grounding.negation_tokens", []string{
		"not", "no evidence", "fails", "cannot", "contradict", "refute",
	})

	v.SetDefault("audit_penalties.missing_title", 30)
	v.SetDefault("audit_penalties.missing_authors", 30)
	v.SetDefault("audit_penalties.missing_year", 20)
	v.SetDefault("audit_penalties.missing_venue", 15)
	v.SetDefault("audit_penalties.malformed_bibtex", 10)
	v.SetDefault("audit_penalties.unused_reference", 10)
	v.SetDefault("audit_penalties.placeholder_field", 10)

	v.SetDefault("priority_thresholds.blocker_resolve_quality_lt", 40)
	v.SetDefault("priority_thresholds.blocker_resolve_confidence_lt", 50)
	v.SetDefault("priority_thresholds.high_ground_quality_lt", 50)
	v.SetDefault("priority_thresholds.medium_venue_quality_lt", 60)

	v.SetDefault("review.confidence_weighting", "linear")
	v.SetDefault("review.weights", map[string]float64{
		"audit": 1, "resolve": 1, "ground": 1, "venue": 1, "ml": 1,
	})
	v.SetDefault("review.default_blockers", []string{
		"resolve_unresolved_or_low_confidence",
		"high_priority_claim_unsupported",
	})
	v.SetDefault("review.profiles", map[string]interface{}{
		"neurips": map[string]interface{}{
			"blockers": []string{
				"year_or_venue_mismatch_after_resolve",
				"sota_claim_with_unresolved_or_low_conf_ref",
			},
		},
	})

	v.SetDefault("venue_profile", "policy_generic")
	v.SetDefault("ml_profile", "neurips")
}

// Load unmarshals the configuration from v into a typed Config. On any
// unmarshal error it falls back to pure defaults and notes it on w.
func Load(v *viper.Viper, w io.Writer) types.Config {
	SetDefaults(v)

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(w, "warning: config unmarshal failed, using defaults: %v\n", err)
		fresh := viper.New()
		SetDefaults(fresh)
		if err := fresh.Unmarshal(&cfg); err != nil {
			// Defaults always unmarshal; this is unreachable in practice.
			panic(fmt.Sprintf("default config unmarshal: %v", err))
		}
	}
	return cfg
}
