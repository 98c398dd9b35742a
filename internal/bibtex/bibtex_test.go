// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibtex

import (
	"strings"
	"testing"

	"github.com/pdiddy/citegate/pkg/types"
)

const sampleBib = `
@article{vaswani2017,
  title = {Attention Is All You Need},
  author = {Ashish Vaswani and Noam Shazeer},
  year = 2017,
  journal = {NeurIPS},
  eprint = {1706.03762},
  note = {seminal},
}

@inproceedings{devlin2019,
  title = "BERT: Pre-training of Deep Bidirectional Transformers",
  author = {Jacob Devlin and Ming-Wei Chang},
  booktitle = {Proceedings of {NAACL}},
  year = {2019},
  url = {https://arxiv.org/abs/1810.04805},
}
`

func TestParse(t *testing.T) {
	entries := Parse(sampleBib)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	e := entries[0]
	if e.Key != "vaswani2017" || e.Type != "article" {
		t.Errorf("entry 0 = %s/%s, want vaswani2017/article", e.Key, e.Type)
	}
	if e.Fields.Title != "Attention Is All You Need" {
		t.Errorf("title = %q", e.Fields.Title)
	}
	if e.Fields.Year != "2017" || e.Fields.YearInt() != 2017 {
		t.Errorf("year = %q (%d)", e.Fields.Year, e.Fields.YearInt())
	}
	if e.Fields.ArxivID() != "1706.03762" {
		t.Errorf("arxiv id = %q, want 1706.03762", e.Fields.ArxivID())
	}
	if e.Fields.Extra["note"] != "seminal" {
		t.Errorf("extra note = %q, want seminal", e.Fields.Extra["note"])
	}
	if !strings.HasPrefix(e.Raw, "@article{vaswani2017,") {
		t.Errorf("raw does not start with entry header: %q", e.Raw[:40])
	}
}

func TestParseNestedBracesAndQuotes(t *testing.T) {
	entries := Parse(sampleBib)
	e := entries[1]
	if e.Fields.Title != "BERT: Pre-training of Deep Bidirectional Transformers" {
		t.Errorf("quoted title = %q", e.Fields.Title)
	}
	if e.Fields.Booktitle != "Proceedings of {NAACL}" {
		t.Errorf("nested-brace booktitle = %q", e.Fields.Booktitle)
	}
	if e.Fields.Venue() != "Proceedings of {NAACL}" {
		t.Errorf("venue = %q", e.Fields.Venue())
	}
	// arXiv ID sniffed from the URL when eprint is absent.
	if e.Fields.ArxivID() != "1810.04805" {
		t.Errorf("arxiv id from url = %q, want 1810.04805", e.Fields.ArxivID())
	}
}

func TestParseSkipsMalformedFields(t *testing.T) {
	entries := Parse(`@misc{broken, ???, title={Still Parsed}, }`)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Fields.Title != "Still Parsed" {
		t.Errorf("title = %q, want Still Parsed", entries[0].Fields.Title)
	}
}

func TestParseEmptyInput(t *testing.T) {
	if got := Parse("no entries here"); got != nil {
		t.Errorf("Parse = %v, want nil", got)
	}
}

func TestYearIntNonNumeric(t *testing.T) {
	f := Fields{Year: "n.d."}
	if got := f.YearInt(); got != 0 {
		t.Errorf("YearInt() = %d, want 0", got)
	}
}

func TestRenderCorrected(t *testing.T) {
	e := Entry{
		Key:  "vaswani2017",
		Type: "article",
		Fields: Fields{
			Title:  "Attention is all you need",
			Author: "A. Vaswani",
			Year:   "2018",
			URL:    "https://example.com/orig",
		},
	}
	can := types.Canonical{
		Title:   "Attention Is All You Need",
		Authors: "Ashish Vaswani and Noam Shazeer",
		Year:    2017,
		Venue:   "Advances in Neural Information Processing Systems",
	}

	out := RenderCorrected(e, can, "10.5555/3295222")

	for _, want := range []string{
		"@article{vaswani2017,",
		"title={Attention Is All You Need}",
		"author={Ashish Vaswani and Noam Shazeer}",
		"year={2017}",
		"journal={Advances in Neural Information Processing Systems}",
		"doi={10.5555/3295222}",
		// Canonical has no URL, so the original fills the gap.
		"url={https://example.com/orig}",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("corrected entry missing %q:\n%s", want, out)
		}
	}
}
