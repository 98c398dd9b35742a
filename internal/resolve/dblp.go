// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/citegate/internal/httputil"
	"github.com/pdiddy/citegate/internal/similarity"
	"github.com/pdiddy/citegate/pkg/types"
)

// dblpAPIBase is the DBLP publication search endpoint. Declared as a var
// so tests can substitute an httptest server.
var dblpAPIBase = "https://dblp.org/search/publ/api"

// DBLPBackend fuzzy-searches DBLP by title. DBLP returns no author string
// suitable for overlap scoring in its compact hit form, so confidence is
// title Jaccard alone.
type DBLPBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *DBLPBackend) Name() string { return "dblp" }

// Lookup searches DBLP for the reference title.
func (b *DBLPBackend) Lookup(ctx context.Context, ref Ref, cfg types.Config) ([]types.Candidate, error) {
	if ref.Title == "" {
		return nil, nil
	}

	params := url.Values{
		"q":      {ref.Title},
		"format": {"json"},
		"h":      {fmt.Sprintf("%d", maxCandidates(cfg))},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dblpAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("DBLP API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DBLP API returned HTTP %d", resp.StatusCode)
	}

	var dr dblpResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("parsing DBLP response: %w", err)
	}

	var candidates []types.Candidate
	for _, hit := range dr.Result.Hits.Hit {
		info := hit.Info
		year := 0
		if info.Year != "" {
			if y, convErr := strconv.Atoi(info.Year); convErr == nil {
				year = y
			}
		}

		var names []string
		for _, a := range info.Authors.Author {
			if a.Text != "" {
				names = append(names, a.Text)
			}
		}

		candidates = append(candidates, types.Candidate{
			Source:          "dblp",
			MatchConfidence: similarity.Jaccard(ref.Title, info.Title),
			Canonical: types.Canonical{
				Title:   info.Title,
				Authors: joinAuthors(names),
				Year:    year,
				Venue:   info.Venue,
				URL:     info.URL,
			},
			IDs: map[string]string{"dblp": info.URL},
		})
	}
	return candidates, nil
}

// DBLP JSON response structures. The hit list and the author list both
// collapse to a single object when there is exactly one element, so both
// get a tolerant unmarshaller.
type dblpResponse struct {
	Result struct {
		Hits struct {
			Hit dblpHitList `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

type dblpHitList []dblpHit

func (l *dblpHitList) UnmarshalJSON(data []byte) error {
	var many []dblpHit
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one dblpHit
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = dblpHitList{one}
	return nil
}

type dblpHit struct {
	Info struct {
		Title   string         `json:"title"`
		Year    string         `json:"year"`
		Venue   string         `json:"venue"`
		URL     string         `json:"url"`
		Authors dblpAuthorList `json:"authors"`
	} `json:"info"`
}

type dblpAuthorList struct {
	Author []dblpAuthor
}

func (l *dblpAuthorList) UnmarshalJSON(data []byte) error {
	var wrapper struct {
		Author json.RawMessage `json:"author"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	if len(wrapper.Author) == 0 {
		return nil
	}
	var many []dblpAuthor
	if err := json.Unmarshal(wrapper.Author, &many); err == nil {
		l.Author = many
		return nil
	}
	var one dblpAuthor
	if err := json.Unmarshal(wrapper.Author, &one); err != nil {
		return err
	}
	l.Author = []dblpAuthor{one}
	return nil
}

type dblpAuthor struct {
	Text string `json:"text"`
}
