// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/citegate/pkg/types"
)

// maxDiscoveredFetches bounds how many linked artifacts a single landing
// page may pull in.
const maxDiscoveredFetches = 8

var hrefRe = regexp.MustCompile(`(?i)href=["']([^"']+)["']`)

// NeedsDiscovery reports whether the URL or fetched artifact looks like
// an HTML landing page rather than a directly usable document, so linked
// artifacts should be sought.
func NeedsDiscovery(rawURL string, art *types.EvidenceArtifact) bool {
	lower := strings.ToLower(rawURL)
	if strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm") {
		return true
	}
	if art != nil && art.Format == types.FormatHTML {
		return true
	}
	return strings.Contains(lower, "arxiv.org/abs/")
}

// DiscoverLinked fetches the landing page at landingURL, scans it for
// links with preferred extensions, and downloads up to
// maxDiscoveredFetches of them in preference order. Individual download
// failures are skipped.
func (f *Fetcher) DiscoverLinked(ctx context.Context, landingURL string, preferExts []string, outDir string) ([]*types.EvidenceArtifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, landingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, landingURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading landing page: %w", err)
	}

	base, err := url.Parse(landingURL)
	if err != nil {
		return nil, fmt.Errorf("parsing landing URL: %w", err)
	}

	var candidates []string
	for _, m := range hrefRe.FindAllStringSubmatch(string(body), -1) {
		ref, err := url.Parse(m[1])
		if err != nil {
			continue
		}
		candidates = append(candidates, base.ResolveReference(ref).String())
	}

	// Select unique links, preferred extensions first.
	var selected []string
	seen := make(map[string]bool)
	for _, ext := range preferExts {
		for _, u := range candidates {
			if strings.HasSuffix(strings.ToLower(u), "."+ext) && !seen[u] {
				seen[u] = true
				selected = append(selected, u)
			}
		}
	}
	if len(selected) > maxDiscoveredFetches {
		selected = selected[:maxDiscoveredFetches]
	}

	var arts []*types.EvidenceArtifact
	for _, u := range selected {
		art, err := f.Fetch(ctx, u, outDir)
		if err != nil {
			continue
		}
		arts = append(arts, art)
	}
	return arts, nil
}
