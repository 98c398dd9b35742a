// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package claims

import (
	"reflect"
	"testing"

	"github.com/pdiddy/citegate/pkg/types"
)

var (
	testSOTA   = []string{"state-of-the-art", "outperforms"}
	testStrong = []string{"demonstrates", "proves"}
)

func use(key, sentence, ctx string, line int) types.CitationUse {
	return types.CitationUse{
		BibKey:      key,
		File:        "main.tex",
		Line:        line,
		Sentence:    sentence,
		Section:     "Intro",
		ContextType: ctx,
	}
}

func TestFromCitationsGroupsKeysPerSentence(t *testing.T) {
	sentence := "Our model outperforms all prior published baselines on this benchmark."
	uses := []types.CitationUse{
		use("vaswani2017", sentence, types.ContextBody, 10),
		use("devlin2019", sentence, types.ContextBody, 10),
	}

	got := FromCitations(uses, testSOTA, testStrong)
	if len(got) != 1 {
		t.Fatalf("len(claims) = %d, want 1", len(got))
	}
	c := got[0]
	if !reflect.DeepEqual(c.CitedKeys, []string{"devlin2019", "vaswani2017"}) {
		t.Errorf("cited keys = %v, want sorted union", c.CitedKeys)
	}
	if !c.IsSOTA {
		t.Error("claim with 'outperforms' should be SOTA-tagged")
	}
	if c.Priority != types.PriorityNormal {
		t.Errorf("body claim priority = %q, want normal", c.Priority)
	}
}

func TestFromCitationsDropsShortSentences(t *testing.T) {
	uses := []types.CitationUse{use("k1", "Too short a sentence.", types.ContextBody, 1)}
	if got := FromCitations(uses, nil, nil); len(got) != 0 {
		t.Errorf("len(claims) = %d, want 0 for a 4-word sentence", len(got))
	}
}

func TestFromCitationsAbstractIsHighPriority(t *testing.T) {
	uses := []types.CitationUse{
		use("k1", "We prove a new bound that improves on existing work.", types.ContextAbstract, 2),
	}
	got := FromCitations(uses, nil, nil)
	if len(got) != 1 || got[0].Priority != types.PriorityHigh {
		t.Fatalf("abstract claim should be high priority, got %+v", got)
	}
}

func TestFromUncitedSpans(t *testing.T) {
	spans := []types.Span{
		{ID: "S1", ContextType: types.ContextAbstract, Text: "This abstract sentence carries at least ten words of content for extraction."},
		{ID: "S2", ContextType: types.ContextBody, Text: "Body spans are never turned into uncited claims at all."},
		{ID: "S3", ContextType: types.ContextConclusion, Text: "Too short."},
	}
	got := FromUncitedSpans(spans)
	if len(got) != 1 {
		t.Fatalf("len(claims) = %d, want 1", len(got))
	}
	c := got[0]
	if c.Priority != types.PriorityHigh || len(c.CitedKeys) != 0 {
		t.Errorf("uncited claim = %+v, want high priority with no keys", c)
	}
	if c.Strength != types.StrengthMedium {
		t.Errorf("uncited claim strength = %q, want medium", c.Strength)
	}
}

func TestClassifyStrength(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"strong verb", "This demonstrates a clear improvement", types.StrengthStrong},
		{"hedge", "This may indicate an improvement", types.StrengthWeak},
		{"neither", "We report results on three datasets", types.StrengthMedium},
		{"strong wins over hedge", "This proves the approach may work", types.StrengthStrong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyStrength(tt.text, testStrong); got != tt.want {
				t.Errorf("ClassifyStrength(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestDetectSOTA(t *testing.T) {
	if !DetectSOTA("A new STATE-OF-THE-ART result", testSOTA) {
		t.Error("case-insensitive SOTA keyword should match")
	}
	if DetectSOTA("A modest improvement", testSOTA) {
		t.Error("plain sentence should not be SOTA")
	}
}

func TestByReference(t *testing.T) {
	cs := []types.Claim{
		{ID: "C1", CitedKeys: []string{"a", "b"}},
		{ID: "C2", CitedKeys: []string{"b"}},
		{ID: "HC1"},
	}
	byRef := ByReference(cs)
	if len(byRef["a"]) != 1 || len(byRef["b"]) != 2 {
		t.Errorf("byRef = %v, want a:1 b:2", byRef)
	}
}
