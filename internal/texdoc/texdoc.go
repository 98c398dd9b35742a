// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package texdoc walks a TeX project from its root file, following
// \input/\include directives, and reduces it to citation uses, per-key
// usage counts, and plain-text spans with section and abstract/conclusion
// context. It understands the common citation command subset and strips
// comments; anything unparseable is skipped, never fatal.
package texdoc

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/citegate/pkg/types"
)

// maxFiles caps recursive include expansion.
const maxFiles = 200

var (
	citeRe    = regexp.MustCompile(`(?i)\\(cite|citet|citep|autocite|parencite|textcite)\*?(?:\[[^\]]*\])?(?:\[[^\]]*\])?\{([^}]*)\}`)
	inputRe   = regexp.MustCompile(`(?i)\\(input|include)\{([^}]+)\}`)
	sectionRe = regexp.MustCompile(`(?i)\\(section|subsection|subsubsection)\*?\{([^}]*)\}`)

	displayMathRe = regexp.MustCompile(`(?s)\$\$.*?\$\$`)
	inlineMathRe  = regexp.MustCompile(`(?s)\$.*?\$`)
	commandRe     = regexp.MustCompile(`\\[A-Za-z@]+\*?(\[[^\]]*\])?(\{[^}]*\})?`)
	sentenceRe    = regexp.MustCompile(`(?:[.!?])\s+`)
)

// Document holds the parsed project.
type Document struct {
	CitationUses []types.CitationUse
	UsageCount   map[string]int
	Spans        []types.Span
}

// ParseProject expands the project rooted at mainTex and extracts citation
// uses and text spans. Missing include targets are skipped.
func ParseProject(mainTex string) (*Document, error) {
	files, err := expandIncludes(mainTex)
	if err != nil {
		return nil, err
	}

	doc := &Document{UsageCount: make(map[string]int)}
	section := "Unknown"
	inAbstract := false
	inConclusion := false
	spanN := 0

	for _, f := range files {
		for idx, raw := range strings.Split(f.text, "\n") {
			lineNo := idx + 1
			line := stripComment(raw)

			if sm := sectionRe.FindStringSubmatch(line); sm != nil {
				if title := strings.TrimSpace(sm[2]); title != "" {
					section = title
				}
				lower := strings.ToLower(section)
				inConclusion = strings.HasPrefix(lower, "conclusion") || strings.HasPrefix(lower, "discussion")
			}
			if strings.Contains(line, `\begin{abstract}`) {
				inAbstract = true
			}
			if strings.Contains(line, `\end{abstract}`) {
				inAbstract = false
			}

			ctx := types.ContextBody
			if inAbstract {
				ctx = types.ContextAbstract
			} else if inConclusion {
				ctx = types.ContextConclusion
			}

			cites := citeRe.FindAllStringSubmatch(line, -1)
			for _, cm := range cites {
				plain := Detex(line)
				sent := firstSentence(plain)
				for _, key := range splitKeys(cm[2]) {
					doc.CitationUses = append(doc.CitationUses, types.CitationUse{
						BibKey:      key,
						File:        f.path,
						Line:        lineNo,
						Sentence:    sent,
						Section:     section,
						ContextType: ctx,
					})
					doc.UsageCount[key]++
				}
			}

			if inAbstract || inConclusion || len(cites) > 0 {
				spanN++
				doc.Spans = append(doc.Spans, types.Span{
					ID:          fmt.Sprintf("S%05d", spanN),
					File:        f.path,
					LineStart:   lineNo,
					LineEnd:     lineNo,
					Section:     section,
					ContextType: ctx,
					Text:        Detex(line),
				})
			}
		}
	}
	return doc, nil
}

type texFile struct {
	path string
	text string
}

// expandIncludes reads the root file and every reachable \input/\include,
// depth-first, deduplicated, capped at maxFiles. The root file must exist;
// include targets that do not are silently dropped.
func expandIncludes(mainTex string) ([]texFile, error) {
	root, err := os.ReadFile(mainTex)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", mainTex, err)
	}

	base := filepath.Dir(mainTex)
	seen := map[string]bool{}
	out := []texFile{}
	stack := []texFile{{path: mainTex, text: string(root)}}

	abs, _ := filepath.Abs(mainTex)
	seen[abs] = true

	for len(stack) > 0 && len(out) < maxFiles {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, f)

		for _, m := range inputRe.FindAllStringSubmatch(f.text, -1) {
			p := filepath.Join(base, strings.TrimSpace(m[2]))
			if filepath.Ext(p) == "" {
				p += ".tex"
			}
			ap, _ := filepath.Abs(p)
			if seen[ap] {
				continue
			}
			seen[ap] = true
			data, err := os.ReadFile(p)
			if err != nil {
				continue
			}
			stack = append(stack, texFile{path: p, text: string(data)})
		}
	}
	return out, nil
}

// stripComment removes a % comment unless the percent is escaped.
func stripComment(line string) string {
	var b strings.Builder
	esc := false
	for _, ch := range line {
		if ch == '\\' {
			esc = !esc
			b.WriteRune(ch)
			continue
		}
		if ch == '%' && !esc {
			break
		}
		esc = false
		b.WriteRune(ch)
	}
	return b.String()
}

// Detex reduces a TeX fragment to plain text: math and commands removed,
// braces dropped, whitespace collapsed.
func Detex(s string) string {
	s = displayMathRe.ReplaceAllString(s, " ")
	s = inlineMathRe.ReplaceAllString(s, " ")
	s = commandRe.ReplaceAllString(s, " ")
	s = strings.NewReplacer("{", " ", "}", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func firstSentence(plain string) string {
	if plain == "" {
		return ""
	}
	if loc := sentenceRe.FindStringIndex(plain); loc != nil {
		return strings.TrimSpace(plain[:loc[0]+1])
	}
	return strings.TrimSpace(plain)
}

func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
