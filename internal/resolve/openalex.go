// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/citegate/internal/httputil"
	"github.com/pdiddy/citegate/pkg/types"
)

// openAlexAPIBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works"

var arxivLocationRe = regexp.MustCompile(`arxiv\.org/(?:abs|pdf)/(\d{4}\.\d{4,5})`)

// OpenAlexBackend fuzzy-searches OpenAlex by title.
type OpenAlexBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() string { return "openalex" }

// Lookup searches OpenAlex for the reference title and scores each result
// against the reference fields.
func (b *OpenAlexBackend) Lookup(ctx context.Context, ref Ref, cfg types.Config) ([]types.Candidate, error) {
	if ref.Title == "" {
		return nil, nil
	}

	params := url.Values{
		"search":   {ref.Title},
		"per-page": {fmt.Sprintf("%d", maxCandidates(cfg))},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	var candidates []types.Candidate
	for _, work := range oar.Results {
		var authors []string
		for _, as := range work.Authorships {
			if as.Author.DisplayName != "" {
				authors = append(authors, as.Author.DisplayName)
			}
		}
		authorStr := joinAuthors(authors)

		ids := map[string]string{"openalex": work.ID}
		if work.DOI != "" {
			ids["doi"] = strings.TrimPrefix(work.DOI, "https://doi.org/")
		}
		for _, loc := range work.Locations {
			if m := arxivLocationRe.FindStringSubmatch(loc.LandingPageURL + " " + loc.PDFURL); m != nil {
				ids["arxiv"] = m[1]
				break
			}
		}

		venue := ""
		if work.PrimaryLocation != nil {
			venue = work.PrimaryLocation.Source.DisplayName
		}

		candidates = append(candidates, types.Candidate{
			Source:          "openalex",
			MatchConfidence: fuzzyConfidence(ref, work.Title, authorStr, work.PublicationYear),
			Canonical: types.Canonical{
				Title:   work.Title,
				Authors: authorStr,
				Year:    work.PublicationYear,
				Venue:   venue,
				URL:     work.ID,
			},
			IDs: ids,
		})
	}
	return candidates, nil
}

// OpenAlex JSON response structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	DOI             string             `json:"doi"`
	PublicationYear int                `json:"publication_year"`
	Authorships     []openAlexAuthorship `json:"authorships"`
	Locations       []openAlexLocation `json:"locations"`
	PrimaryLocation *openAlexLocation  `json:"primary_location"`
}

type openAlexAuthorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type openAlexLocation struct {
	LandingPageURL string `json:"landing_page_url"`
	PDFURL         string `json:"pdf_url"`
	Source         struct {
		DisplayName string `json:"display_name"`
	} `json:"source"`
}
