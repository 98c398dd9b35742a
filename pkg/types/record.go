// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the citegate pipeline:
// resolution candidates and cache entries, claims, evidence artifacts, and
// the configuration tree.
package types

// Resolution status values for a reference after candidate matching.
const (
	StatusResolved    = "resolved"
	StatusNeedsReview = "needs_review"
	StatusUnresolved  = "unresolved"
)

// Canonical holds the canonical bibliographic metadata of an externally
// retrieved record. Year 0 means unknown.
type Canonical struct {
	Title   string `json:"title"`
	Authors string `json:"authors"`
	Year    int    `json:"year,omitempty"`
	Venue   string `json:"venue,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Candidate is a single externally retrieved bibliographic record considered
// as a possible canonical match for a reference. MatchConfidence may
// transiently exceed 1.0 while identifier boosts are applied; the resolver
// clamps it before persisting.
type Candidate struct {
	// Source identifies the backend that produced this candidate
	// (e.g. "arxiv", "openalex", "crossref", "dblp").
	Source string `json:"source"`

	// MatchConfidence is the backend's match score in [0,1].
	MatchConfidence float64 `json:"match_confidence"`

	Canonical Canonical `json:"canonical"`

	// IDs maps external identifier types (doi, arxiv, openalex, dblp)
	// to their values.
	IDs map[string]string `json:"ids"`
}

// MatchSignals holds the raw similarity signals between a reference and the
// winning candidate's canonical metadata.
type MatchSignals struct {
	TitleSimilarity float64 `json:"title_similarity"`
	AuthorOverlap   float64 `json:"author_overlap"`

	// YearDiff is the absolute year difference, or UnknownYearDiff when
	// either side's year is unknown.
	YearDiff int `json:"year_diff"`
}

// UnknownYearDiff encodes "year unknown on at least one side". It is large
// enough that it never passes a strict year threshold.
const UnknownYearDiff = 99

// GroundSignals holds the risk signals the grounding stage records for a
// reference, read later by the venue, ml, and review stages.
type GroundSignals struct {
	// HighPriorityClaimUnsupported is true if any abstract/conclusion
	// claim citing this reference verdicted unsupported or contradicted.
	HighPriorityClaimUnsupported bool `json:"high_priority_claim_unsupported"`

	// SOTAClaimWeakSupport is true if any SOTA-tagged claim verdicted
	// unsupported or weakly supported.
	SOTAClaimWeakSupport bool `json:"sota_claim_weak_support"`

	// EvidenceFormat is the format of the chosen evidence artifact, empty
	// when no evidence was fetched.
	EvidenceFormat string `json:"evidence_format,omitempty"`

	// EvidenceAvailable reports whether any evidence text was extracted.
	EvidenceAvailable bool `json:"evidence_available"`
}

// CacheEntry is the per-reference entry in the shared signal cache. The
// resolve stage writes Status through Mismatch; the ground stage adds
// GroundSignals without touching the resolution fields. Later stages must
// tolerate a nil GroundSignals.
type CacheEntry struct {
	Status          string            `json:"status"`
	MatchConfidence float64           `json:"match_confidence"`
	Canonical       Canonical         `json:"canonical"`
	IDs             map[string]string `json:"ids,omitempty"`
	Signals         MatchSignals      `json:"signals"`
	Mismatch        []string          `json:"mismatch,omitempty"`
	GroundSignals   *GroundSignals    `json:"ground_signals,omitempty"`
}
