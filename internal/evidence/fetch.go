// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evidence fetches reference artifacts over HTTP and extracts
// plain text from them for claim grounding.
package evidence

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/citegate/pkg/types"
)

// Fetcher downloads evidence artifacts with a hard byte cap. Any
// transport failure, non-200 status, or oversize body fails the fetch;
// no partial artifact is written.
type Fetcher struct {
	Client    *http.Client
	MaxBytes  int64
	UserAgent string
}

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// safeFilename reduces a URL path segment to a filesystem-safe name,
// capped at 160 characters.
func safeFilename(s string) string {
	s = unsafeNameRe.ReplaceAllString(s, "_")
	if len(s) > 160 {
		s = s[:160]
	}
	return s
}

// inferFormat determines the artifact format from the Content-Type
// header and the URL extension. Unknown content is "bin".
func inferFormat(contentType, url string) string {
	ct := strings.ToLower(contentType)
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(ct, "text/markdown") || strings.HasSuffix(lower, ".md"):
		return types.FormatMarkdown
	case strings.Contains(ct, "text/html") || strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm"):
		return types.FormatHTML
	case strings.HasSuffix(lower, ".tex"):
		return types.FormatTeX
	case strings.HasSuffix(lower, ".rtf"):
		return types.FormatRTF
	case strings.Contains(ct, "text/plain") || strings.HasSuffix(lower, ".txt"):
		return types.FormatPlaintext
	case strings.Contains(ct, "application/pdf") || strings.HasSuffix(lower, ".pdf"):
		return types.FormatPDF
	}
	return types.FormatBinary
}

// Fetch downloads url into outDir and returns the stored artifact.
// The body is read through a byte cap; exceeding it aborts the fetch.
func (f *Fetcher) Fetch(ctx context.Context, url, outDir string) (*types.EvidenceArtifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
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
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, f.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(content)) > f.MaxBytes {
		return nil, fmt.Errorf("body exceeds %d bytes: %s", f.MaxBytes, url)
	}

	format := inferFormat(resp.Header.Get("Content-Type"), url)

	segments := strings.Split(url, "/")
	name := safeFilename(segments[len(segments)-1])
	if name == "" {
		name = "artifact"
	}
	if !strings.Contains(name, ".") && format != types.FormatBinary {
		name = name + "." + format
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating evidence dir: %w", err)
	}
	path := filepath.Join(outDir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return nil, fmt.Errorf("writing artifact: %w", err)
	}

	return &types.EvidenceArtifact{
		URL:    url,
		Path:   path,
		Format: format,
		Bytes:  int64(len(content)),
	}, nil
}
