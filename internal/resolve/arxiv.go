// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/citegate/internal/httputil"
	"github.com/pdiddy/citegate/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivBackend looks up a reference's arXiv id against the arXiv API.
// It is an exact-id backend: no arXiv id on the reference, no candidates.
type ArxivBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return "arxiv" }

// Lookup fetches the Atom entry for ref.ArxivID. An exact hit carries
// match confidence 1.0 and venue "arXiv".
func (b *ArxivBackend) Lookup(ctx context.Context, ref Ref, cfg types.Config) ([]types.Candidate, error) {
	if ref.ArxivID == "" {
		return nil, nil
	}

	reqURL := arxivAPIBase + "?" + url.Values{"id_list": {ref.ArxivID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	if len(feed.Entries) == 0 {
		return nil, nil
	}

	entry := feed.Entries[0]
	title := strings.Join(strings.Fields(entry.Title), " ")

	var authors []string
	for _, a := range entry.Authors {
		authors = append(authors, strings.TrimSpace(a.Name))
	}

	year := 0
	if len(entry.Published) >= 4 {
		if y, convErr := strconv.Atoi(entry.Published[:4]); convErr == nil {
			year = y
		}
	}

	link := entry.Link()
	if link == "" {
		link = "https://arxiv.org/abs/" + ref.ArxivID
	}

	return []types.Candidate{{
		Source:          "arxiv",
		MatchConfidence: 1.0,
		Canonical: types.Canonical{
			Title:   title,
			Authors: joinAuthors(authors),
			Year:    year,
			Venue:   "arXiv",
			URL:     link,
		},
		IDs: map[string]string{"arxiv": ref.ArxivID},
	}}, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Published string       `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
	Links     []arxivLink  `xml:"link"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// Link returns the entry's alternate link, falling back to its id URL.
func (e arxivEntry) Link() string {
	for _, l := range e.Links {
		if l.Rel == "alternate" || l.Rel == "" {
			return l.Href
		}
	}
	return strings.TrimSpace(e.ID)
}
