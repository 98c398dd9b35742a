// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network
// requests (resolution backends, evidence fetching).
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `mapstructure:"http_timeout" json:"http_timeout" yaml:"http_timeout"`

	// MaxBytes caps the size of any single fetched payload.
	MaxBytes int64 `mapstructure:"http_max_bytes" json:"http_max_bytes" yaml:"http_max_bytes"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "citegate/0.1").
	UserAgent string `mapstructure:"user_agent" json:"user_agent" yaml:"user_agent"`
}

// ResolveThresholds holds the similarity bands used to classify a winning
// resolution candidate.
type ResolveThresholds struct {
	// TitleSimilarityPass is the token-Jaccard floor for "resolved".
	TitleSimilarityPass float64 `mapstructure:"title_similarity_pass" json:"title_similarity_pass" yaml:"title_similarity_pass"`

	// AuthorOverlapPass is the surname-overlap floor for "resolved".
	AuthorOverlapPass float64 `mapstructure:"author_overlap_pass" json:"author_overlap_pass" yaml:"author_overlap_pass"`

	// YearDiffPass is the maximum absolute year difference for "resolved".
	YearDiffPass int `mapstructure:"year_diff_pass" json:"year_diff_pass" yaml:"year_diff_pass"`

	// TitleSimilarityReview and AuthorOverlapReview are the weaker floors
	// for "needs_review".
	TitleSimilarityReview float64 `mapstructure:"title_similarity_review" json:"title_similarity_review" yaml:"title_similarity_review"`
	AuthorOverlapReview   float64 `mapstructure:"author_overlap_review" json:"author_overlap_review" yaml:"author_overlap_review"`

	// MaxCandidates caps how many candidates each fuzzy backend returns.
	MaxCandidates int `mapstructure:"max_candidates" json:"max_candidates" yaml:"max_candidates"`
}

// GroundingConfig holds settings for the claim-grounding stage.
type GroundingConfig struct {
	// SupportedThreshold is the containment-overlap floor for "supported".
	SupportedThreshold float64 `mapstructure:"supported_threshold" json:"supported_threshold" yaml:"supported_threshold"`

	// WeakThreshold is the overlap floor for "weakly_supported".
	WeakThreshold float64 `mapstructure:"weak_threshold" json:"weak_threshold" yaml:"weak_threshold"`

	// SOTAKeywords mark superiority claims ("state-of-the-art", "outperforms").
	SOTAKeywords []string `mapstructure:"sota_keywords" json:"sota_keywords" yaml:"sota_keywords"`

	// StrongClaimVerbs mark strong assertions ("proves", "demonstrates").
	StrongClaimVerbs []string `mapstructure:"strong_claim_verbs" json:"strong_claim_verbs" yaml:"strong_claim_verbs"`

	// NegationTokens flip a high-overlap paragraph to "contradicted".
	NegationTokens []string `mapstructure:"negation_tokens" json:"negation_tokens" yaml:"negation_tokens"`

	// FetchEnabled controls whether evidence is fetched over the network.
	FetchEnabled bool `mapstructure:"fetch_enabled" json:"fetch_enabled" yaml:"fetch_enabled"`

	// EvidencePreference ranks artifact formats, best first
	// (e.g. md, html, htm, tex, rtf, txt, pdf).
	EvidencePreference []string `mapstructure:"evidence_preference" json:"evidence_preference" yaml:"evidence_preference"`
}

// AuditPenalties holds the per-defect deductions applied by the audit stage.
type AuditPenalties struct {
	MissingTitle     int `mapstructure:"missing_title" json:"missing_title" yaml:"missing_title"`
	MissingAuthors   int `mapstructure:"missing_authors" json:"missing_authors" yaml:"missing_authors"`
	MissingYear      int `mapstructure:"missing_year" json:"missing_year" yaml:"missing_year"`
	MissingVenue     int `mapstructure:"missing_venue" json:"missing_venue" yaml:"missing_venue"`
	MalformedBibtex  int `mapstructure:"malformed_bibtex" json:"malformed_bibtex" yaml:"malformed_bibtex"`
	UnusedReference  int `mapstructure:"unused_reference" json:"unused_reference" yaml:"unused_reference"`
	PlaceholderField int `mapstructure:"placeholder_field" json:"placeholder_field" yaml:"placeholder_field"`
}

// PriorityThresholds holds the cutoffs used by blocker predicates and the
// severity ladder in the review stage.
type PriorityThresholds struct {
	BlockerResolveQualityLT    float64 `mapstructure:"blocker_resolve_quality_lt" json:"blocker_resolve_quality_lt" yaml:"blocker_resolve_quality_lt"`
	BlockerResolveConfidenceLT float64 `mapstructure:"blocker_resolve_confidence_lt" json:"blocker_resolve_confidence_lt" yaml:"blocker_resolve_confidence_lt"`
	HighGroundQualityLT        float64 `mapstructure:"high_ground_quality_lt" json:"high_ground_quality_lt" yaml:"high_ground_quality_lt"`
	MediumVenueQualityLT       float64 `mapstructure:"medium_venue_quality_lt" json:"medium_venue_quality_lt" yaml:"medium_venue_quality_lt"`
}

// RuleProfile names the blocker predicates a review profile adds on top of
// the defaults.
type RuleProfile struct {
	Blockers []string `mapstructure:"blockers" json:"blockers" yaml:"blockers"`
}

// ReviewConfig holds aggregation weights, confidence weighting, and the
// blocker rule profiles for the review stage.
type ReviewConfig struct {
	// Weights maps stage name to its aggregation weight (default 1.0 each).
	Weights map[string]float64 `mapstructure:"weights" json:"weights" yaml:"weights"`

	// ConfidenceWeighting selects how stage confidence scales stage quality:
	// equal, linear, or quadratic.
	ConfidenceWeighting string `mapstructure:"confidence_weighting" json:"confidence_weighting" yaml:"confidence_weighting"`

	// DefaultBlockers lists predicate names evaluated for every profile.
	DefaultBlockers []string `mapstructure:"default_blockers" json:"default_blockers" yaml:"default_blockers"`

	// Profiles maps a profile name (e.g. "neurips") to its extra blockers.
	Profiles map[string]RuleProfile `mapstructure:"profiles" json:"profiles" yaml:"profiles"`
}

// Config groups all stage configurations for the pipeline.
type Config struct {
	HTTPConfig `mapstructure:",squash" yaml:",inline"`

	Resolve   ResolveThresholds  `mapstructure:"resolve_thresholds" json:"resolve_thresholds" yaml:"resolve_thresholds"`
	Grounding GroundingConfig    `mapstructure:"grounding" json:"grounding" yaml:"grounding"`
	Audit     AuditPenalties     `mapstructure:"audit_penalties" json:"audit_penalties" yaml:"audit_penalties"`
	Priority  PriorityThresholds `mapstructure:"priority_thresholds" json:"priority_thresholds" yaml:"priority_thresholds"`
	Review    ReviewConfig       `mapstructure:"review" json:"review" yaml:"review"`

	// VenueProfile selects the venue lens (e.g. "policy_generic").
	VenueProfile string `mapstructure:"venue_profile" json:"venue_profile" yaml:"venue_profile"`

	// MLProfile selects the ML lens and the default rules profile.
	MLProfile string `mapstructure:"ml_profile" json:"ml_profile" yaml:"ml_profile"`

	// Workers bounds per-reference concurrency in network stages.
	Workers int `mapstructure:"workers" json:"workers" yaml:"workers"`
}
