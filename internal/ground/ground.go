// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ground evaluates how well fetched evidence supports the claims
// that cite each reference, and records the risk signals later stages read.
package ground

import (
	"regexp"
	"strings"

	"github.com/pdiddy/citegate/internal/similarity"
	"github.com/pdiddy/citegate/pkg/types"
)

// Claim verdicts, strongest to weakest.
const (
	VerdictSupported    = "supported"
	VerdictWeak         = "weakly_supported"
	VerdictUnsupported  = "unsupported"
	VerdictContradicted = "contradicted"
)

const (
	// maxParagraphs caps how much evidence text is scanned per claim.
	maxParagraphs = 200

	// topSnippets is how many candidate paragraphs are kept per claim.
	topSnippets = 3

	// minConfidence is the floor on the reported grounding confidence.
	minConfidence = 10

	// uncitedQuality and uncitedConfidence apply to references that never
	// appear in the document: neutral quality, low confidence.
	uncitedQuality    = 70
	uncitedConfidence = 40
)

var paragraphSplitRe = regexp.MustCompile(`\n\s*\n`)

// ClaimResult is the grounding outcome for a single claim.
type ClaimResult struct {
	Claim   types.Claim
	Verdict string
	Overlap float64
	Snippet string
}

// RefResult aggregates claim verdicts for one reference into the stage's
// quality/confidence/remediation triple plus the signals the review stage
// consumes.
type RefResult struct {
	Quality     float64
	Confidence  int
	Remediation string
	Signals     types.GroundSignals
	Claims      []ClaimResult
}

// topParagraphs returns the k paragraphs of text with the highest
// containment overlap against the claim, scanning at most maxParagraphs.
func topParagraphs(claim, text string, k int) []string {
	type scored struct {
		overlap float64
		para    string
	}
	var candidates []scored
	paras := paragraphSplitRe.Split(text, -1)
	if len(paras) > maxParagraphs {
		paras = paras[:maxParagraphs]
	}
	for _, p := range paras {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ov := similarity.Containment(claim, p)
		if len(similarity.TokenSet(p)) == 0 {
			continue
		}
		candidates = append(candidates, scored{ov, p})
	}
	// Stable selection: earlier paragraphs win ties.
	var out []string
	used := make([]bool, len(candidates))
	for len(out) < k {
		best := -1
		for i, c := range candidates {
			if used[i] {
				continue
			}
			if best < 0 || c.overlap > candidates[best].overlap {
				best = i
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		out = append(out, candidates[best].para)
	}
	return out
}

// verdictFromOverlap maps a claim/snippet overlap to a verdict and
// confidence. A negation hit at supported-level overlap flips the verdict
// to contradicted.
func verdictFromOverlap(overlap float64, negHit bool, cfg types.GroundingConfig) (string, float64) {
	conf := overlap
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	switch {
	case negHit && conf >= cfg.SupportedThreshold:
		return VerdictContradicted, conf
	case conf >= cfg.SupportedThreshold:
		return VerdictSupported, conf
	case conf >= cfg.WeakThreshold:
		return VerdictWeak, conf
	}
	return VerdictUnsupported, conf
}

// EvaluateClaim grounds one claim against the evidence text. With no
// evidence the claim is unsupported at zero overlap.
func EvaluateClaim(cl types.Claim, text string, cfg types.GroundingConfig) ClaimResult {
	res := ClaimResult{Claim: cl, Verdict: VerdictUnsupported}
	if text == "" {
		return res
	}
	var bestOverlap float64
	var bestSnippet string
	for _, sn := range topParagraphs(cl.Text, text, topSnippets) {
		if ov := similarity.Jaccard(cl.Text, sn); ov > bestOverlap {
			bestOverlap, bestSnippet = ov, sn
		}
	}
	negHit := false
	lower := strings.ToLower(bestSnippet)
	for _, tok := range cfg.NegationTokens {
		if tok != "" && strings.Contains(lower, tok) {
			negHit = true
			break
		}
	}
	res.Verdict, _ = verdictFromOverlap(bestOverlap, negHit, cfg)
	res.Overlap = bestOverlap
	res.Snippet = bestSnippet
	return res
}

// points converts a verdict into its aggregation score. Contradictions
// cost more than mere absence of support.
func points(verdict string) float64 {
	switch verdict {
	case VerdictSupported:
		return 1.0
	case VerdictWeak:
		return 0.6
	case VerdictUnsupported:
		return 0.0
	}
	return -0.5
}

// evidenceConfidence rates how trustworthy text extraction from the given
// artifact format is.
func evidenceConfidence(format string) float64 {
	switch format {
	case types.FormatMarkdown, types.FormatHTML, types.FormatPlaintext, types.FormatTeX:
		return 0.9
	case types.FormatPDF:
		return 0.75
	}
	return 0.5
}

// ScoreReference grounds every claim citing a reference against the
// evidence text and aggregates the verdicts. evidenceFormat is empty when
// no artifact was chosen.
func ScoreReference(refClaims []types.Claim, text, evidenceFormat string, cfg types.GroundingConfig) RefResult {
	var res RefResult
	var totalPts float64
	hpFail := false
	sotaRisky := false

	for _, cl := range refClaims {
		cr := EvaluateClaim(cl, text, cfg)
		res.Claims = append(res.Claims, cr)
		totalPts += points(cr.Verdict)

		if cl.Priority == types.PriorityHigh &&
			(cr.Verdict == VerdictUnsupported || cr.Verdict == VerdictContradicted) {
			hpFail = true
		}
		if cl.IsSOTA && (cr.Verdict == VerdictUnsupported || cr.Verdict == VerdictWeak) {
			sotaRisky = true
		}
	}

	avgPts := 0.6
	if len(res.Claims) > 0 {
		avgPts = totalPts / float64(len(res.Claims))
	}
	quality := (avgPts + 0.5) / 1.5 * 100
	if quality < 0 {
		quality = 0
	}
	if quality > 100 {
		quality = 100
	}
	res.Quality = quality

	evConf := 0.0
	if text != "" {
		evConf = evidenceConfidence(evidenceFormat)
	}
	conf := int(evConf * 100)
	if conf < minConfidence {
		conf = minConfidence
	}
	if conf > 100 {
		conf = 100
	}
	res.Confidence = conf

	var rem []string
	if text == "" {
		rem = append(rem, "Fetch evidence (enable --fetch) or provide local PDFs/text for grounding.")
	}
	if hpFail {
		rem = append(rem, "High-priority (abstract/conclusion) claim unsupported: rewrite or add stronger citation.")
	}
	if sotaRisky {
		rem = append(rem, "SOTA-like claim weakly supported: add direct benchmark/baseline citation or hedge language.")
	}
	if len(rem) == 0 {
		res.Remediation = "OK: evidence supports usage; ensure citations match exact setting."
	} else {
		res.Remediation = strings.Join(rem, " | ")
	}

	res.Signals = types.GroundSignals{
		HighPriorityClaimUnsupported: hpFail,
		SOTAClaimWeakSupport:         sotaRisky,
		EvidenceFormat:               evidenceFormat,
		EvidenceAvailable:            text != "",
	}
	return res
}

// HedgedRewrite softens strong verbs in a claim sentence for the rewrite
// suggestions file.
func HedgedRewrite(text string) string {
	out := strings.ReplaceAll(text, "demonstrates", "suggests")
	return strings.ReplaceAll(out, "proves", "suggests")
}
