// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/pdiddy/citegate/pkg/types"
)

// maxPDFPages caps PDF text extraction; grounding only needs the body
// of the paper, not appendices.
const maxPDFPages = 25

// ExtractText returns the plain text of a stored artifact. Text-native
// formats are read directly; HTML goes through readability extraction,
// Markdown through an AST walk, PDF through page-by-page extraction.
// Binary artifacts yield empty text.
func ExtractText(art *types.EvidenceArtifact) (string, error) {
	switch art.Format {
	case types.FormatPlaintext, types.FormatTeX, types.FormatRTF:
		raw, err := os.ReadFile(art.Path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", art.Path, err)
		}
		return string(raw), nil
	case types.FormatMarkdown:
		raw, err := os.ReadFile(art.Path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", art.Path, err)
		}
		return markdownText(raw), nil
	case types.FormatHTML:
		return htmlText(art)
	case types.FormatPDF:
		return pdfText(art.Path)
	}
	return "", nil
}

// htmlText runs readability over the stored HTML. If readability finds
// no article content, the result falls back to a crude tag strip so
// grounding still has something to match against.
func htmlText(art *types.EvidenceArtifact) (string, error) {
	raw, err := os.ReadFile(art.Path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", art.Path, err)
	}
	pageURL, _ := url.Parse(art.URL)
	article, err := readability.FromReader(bytes.NewReader(raw), pageURL)
	if err == nil {
		if t := strings.TrimSpace(article.TextContent); t != "" {
			return t, nil
		}
	}
	return stripTags(string(raw)), nil
}

// markdownText walks the goldmark AST collecting text nodes, inserting
// paragraph breaks so downstream paragraph splitting still works.
func markdownText(src []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.Paragraph, *ast.Heading, *ast.ListItem:
			if buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// pdfText extracts per-page plain text up to maxPDFPages. Pages that
// fail extraction are skipped.
func pdfText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	var parts []string
	n := r.NumPage()
	if n > maxPDFPages {
		n = maxPDFPages
	}
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		t, err := page.GetPlainText(nil)
		if err != nil || t == "" {
			continue
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, "\n"), nil
}

func stripTags(html string) string {
	var buf strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
			buf.WriteByte(' ')
		case r == '>':
			inTag = false
		case !inTag:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
