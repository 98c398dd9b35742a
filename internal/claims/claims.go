// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package claims groups citation usages and high-stakes uncited sentences
// into claim records tagged with priority, strength, and a SOTA flag.
package claims

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/citegate/pkg/types"
)

const (
	// minCitedWords is the sentence-length floor for cited claims.
	minCitedWords = 6

	// minUncitedWords is the floor for uncited abstract/conclusion claims.
	minUncitedWords = 10

	// maxUncitedClaims caps uncited high-priority claims per run.
	maxUncitedClaims = 80
)

// hedgeTerms mark weak assertions. Fixed vocabulary; the strong-verb list
// is configured.
var hedgeTerms = []string{"may", "might", "could", "suggest", "indicate", "often", "typically", "likely"}

// FromCitations builds one claim per unique (file, line, sentence, section,
// context) tuple that cites at least one reference, tagging it with the
// union of keys cited in that sentence. Sentences under six words are
// dropped.
func FromCitations(uses []types.CitationUse, sotaKeywords, strongVerbs []string) []types.Claim {
	type bucketKey struct {
		file     string
		line     int
		sentence string
		section  string
		ctx      string
	}
	buckets := make(map[bucketKey]map[string]struct{})
	var order []bucketKey

	for _, cu := range uses {
		k := bucketKey{cu.File, cu.Line, cu.Sentence, cu.Section, cu.ContextType}
		if _, ok := buckets[k]; !ok {
			buckets[k] = make(map[string]struct{})
			order = append(order, k)
		}
		buckets[k][cu.BibKey] = struct{}{}
	}

	var out []types.Claim
	id := 0
	for _, k := range order {
		text := strings.TrimSpace(k.sentence)
		if len(strings.Fields(text)) < minCitedWords {
			continue
		}
		id++

		keys := make([]string, 0, len(buckets[k]))
		for key := range buckets[k] {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		priority := types.PriorityNormal
		if k.ctx == types.ContextAbstract || k.ctx == types.ContextConclusion {
			priority = types.PriorityHigh
		}

		out = append(out, types.Claim{
			ID:          fmt.Sprintf("C%05d", id),
			Section:     k.section,
			ContextType: k.ctx,
			File:        k.file,
			Line:        k.line,
			Text:        text,
			CitedKeys:   keys,
			Priority:    priority,
			IsSOTA:      DetectSOTA(text, sotaKeywords),
			Strength:    ClassifyStrength(text, strongVerbs),
		})
	}
	return out
}

// FromUncitedSpans builds claims from abstract/conclusion spans that carry
// no citation, as a document-quality signal not attributed to any one
// reference. Spans under ten words are dropped; the total is capped.
func FromUncitedSpans(spans []types.Span) []types.Claim {
	var out []types.Claim
	id := 0
	for _, sp := range spans {
		if sp.ContextType != types.ContextAbstract && sp.ContextType != types.ContextConclusion {
			continue
		}
		text := strings.TrimSpace(sp.Text)
		if len(strings.Fields(text)) < minUncitedWords {
			continue
		}
		id++
		out = append(out, types.Claim{
			ID:          fmt.Sprintf("HC%05d", id),
			Section:     sp.Section,
			ContextType: sp.ContextType,
			File:        sp.File,
			Line:        sp.LineStart,
			Text:        text,
			Priority:    types.PriorityHigh,
			Strength:    types.StrengthMedium,
		})
		if len(out) >= maxUncitedClaims {
			break
		}
	}
	return out
}

// ClassifyStrength tags a sentence strong if it contains any configured
// strong-assertion verb, weak if it contains a hedging term, else medium.
func ClassifyStrength(text string, strongVerbs []string) string {
	t := strings.ToLower(text)
	for _, v := range strongVerbs {
		if v != "" && strings.Contains(t, strings.ToLower(v)) {
			return types.StrengthStrong
		}
	}
	for _, h := range hedgeTerms {
		if strings.Contains(t, h) {
			return types.StrengthWeak
		}
	}
	return types.StrengthMedium
}

// DetectSOTA reports whether the sentence contains any configured
// superiority keyword, case-insensitively.
func DetectSOTA(text string, sotaKeywords []string) bool {
	t := strings.ToLower(text)
	for _, k := range sotaKeywords {
		if k != "" && strings.Contains(t, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// ByReference indexes claims by each cited key.
func ByReference(cs []types.Claim) map[string][]types.Claim {
	byRef := make(map[string][]types.Claim)
	for _, c := range cs {
		for _, k := range c.CitedKeys {
			byRef[k] = append(byRef[k], c)
		}
	}
	return byRef
}
