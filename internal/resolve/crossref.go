// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/citegate/internal/httputil"
	"github.com/pdiddy/citegate/pkg/types"
)

// crossrefAPIBase is the Crossref works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

// CrossrefBackend fuzzy-searches Crossref by bibliographic query.
type CrossrefBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *CrossrefBackend) Name() string { return "crossref" }

// Lookup searches Crossref for the reference title and scores each result.
func (b *CrossrefBackend) Lookup(ctx context.Context, ref Ref, cfg types.Config) ([]types.Candidate, error) {
	if ref.Title == "" {
		return nil, nil
	}

	params := url.Values{
		"query.bibliographic": {ref.Title},
		"rows":                {fmt.Sprintf("%d", maxCandidates(cfg))},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crossrefAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Crossref API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Crossref API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing Crossref response: %w", err)
	}

	var candidates []types.Candidate
	for _, item := range cr.Message.Items {
		title := first(item.Title)

		var surnames []string
		for _, a := range item.Author {
			if a.Family != "" {
				surnames = append(surnames, a.Family)
			}
		}
		authorStr := joinAuthors(surnames)

		year := 0
		if len(item.Issued.DateParts) > 0 && len(item.Issued.DateParts[0]) > 0 {
			year = item.Issued.DateParts[0][0]
		}

		ids := map[string]string{}
		if item.DOI != "" {
			ids["doi"] = item.DOI
		}

		candidates = append(candidates, types.Candidate{
			Source:          "crossref",
			MatchConfidence: fuzzyConfidence(ref, title, authorStr, year),
			Canonical: types.Canonical{
				Title:   title,
				Authors: authorStr,
				Year:    year,
				Venue:   first(item.ContainerTitle),
				URL:     item.URL,
			},
			IDs: ids,
		})
	}
	return candidates, nil
}

// Crossref JSON response structures.
type crossrefResponse struct {
	Message struct {
		Items []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefItem struct {
	Title          []string `json:"title"`
	ContainerTitle []string `json:"container-title"`
	DOI            string   `json:"DOI"`
	URL            string   `json:"URL"`
	Author         []struct {
		Family string `json:"family"`
	} `json:"author"`
	Issued struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"issued"`
}

func first(ss []string) string {
	if len(ss) > 0 {
		return ss[0]
	}
	return ""
}
