// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Claim priority and context values.
const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"

	ContextAbstract   = "abstract"
	ContextConclusion = "conclusion"
	ContextBody       = "body"
)

// Claim strength classifications derived from verb/hedge vocabulary.
const (
	StrengthStrong = "strong"
	StrengthMedium = "medium"
	StrengthWeak   = "weak"
)

// CitationUse records one citation key appearing in one document sentence.
// Produced by the document parser; consumed by claim extraction and the
// audit stage's usage counts.
type CitationUse struct {
	BibKey      string `json:"bib_key"`
	File        string `json:"file"`
	Line        int    `json:"line"`
	Sentence    string `json:"sentence"`
	Section     string `json:"section"`
	ContextType string `json:"context_type"`
}

// Span is a plain-text span of the document with its location and context.
// Abstract and conclusion spans feed uncited high-stakes claim extraction.
type Span struct {
	ID          string `json:"span_id"`
	File        string `json:"file"`
	LineStart   int    `json:"line_start"`
	LineEnd     int    `json:"line_end"`
	Section     string `json:"section"`
	ContextType string `json:"context_type"`
	Text        string `json:"text"`
}

// Claim is a sentence-level assertion tied to zero or more cited references,
// tagged with priority, strength, and a SOTA flag. Claims are recomputed on
// each grounding run, never persisted as primary state.
type Claim struct {
	ID          string   `json:"claim_id"`
	Section     string   `json:"section"`
	ContextType string   `json:"context_type"`
	File        string   `json:"file"`
	Line        int      `json:"line"`
	Text        string   `json:"claim_text"`
	CitedKeys   []string `json:"cited_keys"`
	Priority    string   `json:"priority"`
	IsSOTA      bool     `json:"is_sota"`
	Strength    string   `json:"strength"`
}
