// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity provides the token-set scoring primitives shared by
// resolution and grounding: normalized Jaccard over word tokens, surname
// overlap for author strings, and containment overlap for claim matching.
package similarity

import (
	"regexp"
	"strings"
	"unicode"
)

// Normalize lowercases s and strips everything but letters, digits, and
// single spaces.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TokenSet returns the set of normalized word tokens in s.
func TokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(Normalize(s)) {
		set[tok] = struct{}{}
	}
	return set
}

// Jaccard returns |A∩B| / |A∪B| over the token sets of a and b.
// Either side empty scores 0.
func Jaccard(a, b string) float64 {
	A := TokenSet(a)
	B := TokenSet(b)
	if len(A) == 0 || len(B) == 0 {
		return 0
	}
	inter := 0
	for tok := range A {
		if _, ok := B[tok]; ok {
			inter++
		}
	}
	union := len(A) + len(B) - inter
	return float64(inter) / float64(union)
}

// Containment returns |claim∩text| / |claim| over token sets: how much of
// the claim's vocabulary the text covers. Asymmetric on purpose: it favors
// recall of claim terms over paragraph length.
func Containment(claim, text string) float64 {
	C := TokenSet(claim)
	T := TokenSet(text)
	if len(C) == 0 || len(T) == 0 {
		return 0
	}
	inter := 0
	for tok := range C {
		if _, ok := T[tok]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(C))
}

// authorSplitRe separates author lists on "and", commas, and semicolons.
var authorSplitRe = regexp.MustCompile(`\band\b|,|;`)

// Surnames extracts the last token of each author name in s. The split
// runs before normalization so comma- and semicolon-separated lists keep
// their boundaries.
func Surnames(s string) map[string]struct{} {
	names := make(map[string]struct{})
	for _, part := range authorSplitRe.Split(strings.ToLower(s), -1) {
		toks := strings.Fields(Normalize(part))
		if len(toks) > 0 {
			names[toks[len(toks)-1]] = struct{}{}
		}
	}
	return names
}

// AuthorOverlap returns the Jaccard overlap of surname tokens between two
// author strings. Crude, but robust to initials and name ordering.
func AuthorOverlap(a, b string) float64 {
	A := Surnames(a)
	B := Surnames(b)
	if len(A) == 0 || len(B) == 0 {
		return 0
	}
	inter := 0
	for n := range A {
		if _, ok := B[n]; ok {
			inter++
		}
	}
	union := len(A) + len(B) - inter
	return float64(inter) / float64(union)
}
