// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const arxivAtomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.00001v1</id>
    <title>Scaling  Laws for
      Neural Retrieval</title>
    <published>2023-01-01T00:00:00Z</published>
    <author><name>Mira Okafor</name></author>
    <author><name>Dana Ellis</name></author>
    <link href="https://arxiv.org/abs/2301.00001" rel="alternate" type="text/html"/>
  </entry>
</feed>`

func swapBase(t *testing.T, target *string, url string) {
	t.Helper()
	old := *target
	*target = url
	t.Cleanup(func() { *target = old })
}

func TestArxivBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id_list"); got != "2301.00001" {
			t.Errorf("id_list = %q", got)
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(arxivAtomFixture))
	}))
	defer srv.Close()
	swapBase(t, &arxivAPIBase, srv.URL)

	b := &ArxivBackend{Client: srv.Client()}
	got, err := b.Lookup(context.Background(), Ref{Key: "k", ArxivID: "2301.00001"}, testResolveConfig())
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	c := got[0]
	if c.MatchConfidence != 1.0 {
		t.Errorf("MatchConfidence = %v, want 1.0 for exact id", c.MatchConfidence)
	}
	if c.Canonical.Title != "Scaling Laws for Neural Retrieval" {
		t.Errorf("Title = %q, want whitespace collapsed", c.Canonical.Title)
	}
	if c.Canonical.Authors != "Mira Okafor and Dana Ellis" {
		t.Errorf("Authors = %q", c.Canonical.Authors)
	}
	if c.Canonical.Year != 2023 || c.Canonical.Venue != "arXiv" {
		t.Errorf("Year/Venue = %d/%q", c.Canonical.Year, c.Canonical.Venue)
	}
	if c.IDs["arxiv"] != "2301.00001" {
		t.Errorf("IDs = %v", c.IDs)
	}
	if c.Canonical.URL != "https://arxiv.org/abs/2301.00001" {
		t.Errorf("URL = %q", c.Canonical.URL)
	}
}

func TestArxivBackendNoID(t *testing.T) {
	b := &ArxivBackend{Client: &http.Client{}}
	got, err := b.Lookup(context.Background(), Ref{Key: "k"}, testResolveConfig())
	if err != nil || got != nil {
		t.Errorf("Lookup without id = %v, %v; want nil, nil", got, err)
	}
}

func TestOpenAlexBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("per-page"); got != "3" {
			t.Errorf("per-page = %q, want 3", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{
			"id": "https://openalex.org/W123",
			"title": "Scaling Laws for Neural Retrieval",
			"doi": "https://doi.org/10.1000/slnr",
			"publication_year": 2023,
			"authorships": [{"author": {"display_name": "Mira Okafor"}}],
			"primary_location": {"source": {"display_name": "NeurIPS"}},
			"locations": [{"landing_page_url": "https://arxiv.org/abs/2301.00001", "pdf_url": ""}]
		}]}`))
	}))
	defer srv.Close()
	swapBase(t, &openAlexAPIBase, srv.URL)

	b := &OpenAlexBackend{Client: srv.Client()}
	ref := Ref{Key: "k", Title: "Scaling Laws for Neural Retrieval", Authors: "Okafor", Year: 2023}
	got, err := b.Lookup(context.Background(), ref, testResolveConfig())
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	c := got[0]
	if c.IDs["doi"] != "10.1000/slnr" {
		t.Errorf("doi = %q, want prefix stripped", c.IDs["doi"])
	}
	if c.IDs["arxiv"] != "2301.00001" {
		t.Errorf("arxiv id = %q, want sniffed from location", c.IDs["arxiv"])
	}
	if c.Canonical.Venue != "NeurIPS" {
		t.Errorf("Venue = %q", c.Canonical.Venue)
	}
	if c.Canonical.URL != "https://openalex.org/W123" {
		t.Errorf("URL = %q", c.Canonical.URL)
	}
}

func TestCrossrefBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query.bibliographic"); got == "" {
			t.Error("missing query.bibliographic")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":{"items":[{
			"title": ["Scaling Laws for Neural Retrieval"],
			"container-title": ["Journal of Retrieval"],
			"DOI": "10.1000/slnr",
			"URL": "https://doi.org/10.1000/slnr",
			"author": [{"family": "Okafor"}, {"family": "Ellis"}],
			"issued": {"date-parts": [[2023, 1]]}
		}]}}`))
	}))
	defer srv.Close()
	swapBase(t, &crossrefAPIBase, srv.URL)

	b := &CrossrefBackend{Client: srv.Client()}
	ref := Ref{Key: "k", Title: "Scaling Laws for Neural Retrieval", Authors: "Okafor and Ellis", Year: 2023}
	got, err := b.Lookup(context.Background(), ref, testResolveConfig())
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	c := got[0]
	if c.Canonical.Year != 2023 {
		t.Errorf("Year = %d, want first date-part", c.Canonical.Year)
	}
	if c.Canonical.Venue != "Journal of Retrieval" {
		t.Errorf("Venue = %q", c.Canonical.Venue)
	}
	if c.IDs["doi"] != "10.1000/slnr" {
		t.Errorf("doi = %q", c.IDs["doi"])
	}
	if c.MatchConfidence < 0.999 {
		t.Errorf("MatchConfidence = %v, want ~1.0 for exact title and authors", c.MatchConfidence)
	}
}

func TestDBLPBackendSingleHitObject(t *testing.T) {
	// DBLP collapses one-element lists to plain objects.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":{"hits":{"hit":{
			"info": {
				"title": "Scaling Laws for Neural Retrieval",
				"year": "2023",
				"venue": "NeurIPS",
				"url": "https://dblp.org/rec/conf/nips/Okafor23",
				"authors": {"author": {"text": "Mira Okafor"}}
			}
		}}}}`))
	}))
	defer srv.Close()
	swapBase(t, &dblpAPIBase, srv.URL)

	b := &DBLPBackend{Client: srv.Client()}
	ref := Ref{Key: "k", Title: "Scaling Laws for Neural Retrieval"}
	got, err := b.Lookup(context.Background(), ref, testResolveConfig())
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	c := got[0]
	if c.Canonical.Authors != "Mira Okafor" {
		t.Errorf("Authors = %q", c.Canonical.Authors)
	}
	if c.Canonical.Year != 2023 {
		t.Errorf("Year = %d", c.Canonical.Year)
	}
	// DBLP confidence is title similarity only.
	if c.MatchConfidence < 0.999 {
		t.Errorf("MatchConfidence = %v, want ~1.0", c.MatchConfidence)
	}
}

func TestBackendErrorOnHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()
	swapBase(t, &openAlexAPIBase, srv.URL)

	b := &OpenAlexBackend{Client: srv.Client()}
	_, err := b.Lookup(context.Background(), Ref{Key: "k", Title: "anything"}, testResolveConfig())
	if err == nil {
		t.Error("expected error on HTTP 500")
	}
}

func TestNewPinsBackendOrder(t *testing.T) {
	r := New(&http.Client{})
	want := []string{"arxiv", "openalex", "crossref", "dblp"}
	if len(r.Backends) != len(want) {
		t.Fatalf("got %d backends, want %d", len(r.Backends), len(want))
	}
	for i, b := range r.Backends {
		if b.Name() != want[i] {
			t.Errorf("backend[%d] = %q, want %q", i, b.Name(), want[i])
		}
	}
}
