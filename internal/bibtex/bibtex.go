// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bibtex parses BibTeX source text into typed entries. The parser
// handles the common subset: @type{key, field = {value}, ...} with nested
// braces, quoted values, and bare words. Unparseable fields are skipped and
// parsing continues at the next recognizable token.
package bibtex

import (
	"os"
	"regexp"
	"strings"
)

// rawCap bounds the stored raw text of one entry.
const rawCap = 8000

// Fields holds the recognized bibliographic fields of an entry plus an
// Extra bag for anything else the source carried.
type Fields struct {
	Title     string
	Author    string
	Year      string
	Journal   string
	Booktitle string
	Publisher string
	DOI       string
	Eprint    string
	URL       string

	Extra map[string]string
}

// Entry is one parsed BibTeX entry.
type Entry struct {
	Key    string
	Type   string
	Raw    string
	Fields Fields
}

var (
	entryRe    = regexp.MustCompile(`@(\w+)\s*\{\s*([^,\s]+)\s*,`)
	fieldKeyRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_\-]*)\s*=\s*`)
	arxivURLRe = regexp.MustCompile(`arxiv\.org/(?:abs|pdf)/(\d{4}\.\d{4,5})`)
)

// Venue returns the first non-empty of journal, booktitle, publisher.
func (f Fields) Venue() string {
	switch {
	case f.Journal != "":
		return f.Journal
	case f.Booktitle != "":
		return f.Booktitle
	default:
		return f.Publisher
	}
}

// YearInt returns the year as an integer, 0 when missing or non-numeric.
func (f Fields) YearInt() int {
	y := 0
	for _, r := range strings.TrimSpace(f.Year) {
		if r < '0' || r > '9' {
			return 0
		}
		y = y*10 + int(r-'0')
	}
	return y
}

// ArxivID returns the arXiv identifier from the eprint field, falling back
// to sniffing the URL field for an arxiv.org abs/pdf link.
func (f Fields) ArxivID() string {
	if f.Eprint != "" {
		return f.Eprint
	}
	if m := arxivURLRe.FindStringSubmatch(strings.ToLower(f.URL)); m != nil {
		return m[1]
	}
	return ""
}

// Get returns a field by its lower-cased BibTeX name, checking the named
// fields first and the Extra bag second.
func (f Fields) Get(name string) string {
	switch name {
	case "title":
		return f.Title
	case "author":
		return f.Author
	case "year":
		return f.Year
	case "journal":
		return f.Journal
	case "booktitle":
		return f.Booktitle
	case "publisher":
		return f.Publisher
	case "doi":
		return f.DOI
	case "eprint":
		return f.Eprint
	case "url":
		return f.URL
	}
	return f.Extra[name]
}

// ParseFile reads and parses a BibTeX file.
func ParseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data)), nil
}

// Parse scans text for BibTeX entries. Malformed entries are skipped.
func Parse(text string) []Entry {
	var entries []Entry
	pos := 0
	for {
		loc := entryRe.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[0]
		entryType := strings.ToLower(text[pos+loc[2] : pos+loc[3]])
		key := strings.TrimSpace(text[pos+loc[4] : pos+loc[5]])

		// Scan to the matching closing brace of the whole entry.
		i := pos + loc[1]
		depth := 1
		for i < len(text) && depth > 0 {
			switch text[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
			i++
		}

		raw := strings.TrimSpace(text[start:i])
		if len(raw) > rawCap {
			raw = raw[:rawCap]
		}

		// The entry pattern consumes the comma after the key, so the body
		// runs from the match end to just before the closing brace.
		body := ""
		if bodyEnd := i - 1; bodyEnd > pos+loc[1] {
			body = text[pos+loc[1] : bodyEnd]
		}

		entries = append(entries, Entry{
			Key:    key,
			Type:   entryType,
			Raw:    raw,
			Fields: parseFields(body),
		})
		pos = i
	}
	return entries
}

// parseFields walks the entry body with a small state machine that balances
// nested braces. A field that cannot be parsed is skipped to the next comma.
func parseFields(body string) Fields {
	f := Fields{Extra: make(map[string]string)}
	i, n := 0, len(body)
	for i < n {
		for i < n && (body[i] == ' ' || body[i] == '\t' || body[i] == '\r' || body[i] == '\n' || body[i] == ',') {
			i++
		}
		if i >= n {
			break
		}

		m := fieldKeyRe.FindStringSubmatch(body[i:])
		if m == nil {
			j := strings.Index(body[i:], ",")
			if j < 0 {
				break
			}
			i += j + 1
			continue
		}
		key := strings.ToLower(m[1])
		i += len(m[0])
		if i >= n {
			break
		}

		var val string
		switch body[i] {
		case '{':
			depth := 0
			start := i
			for i < n {
				if body[i] == '{' {
					depth++
				} else if body[i] == '}' {
					depth--
					if depth == 0 {
						i++
						break
					}
				}
				i++
			}
			val = strings.TrimSpace(body[start:i])
		case '"':
			i++
			start := i
			for i < n && body[i] != '"' {
				i++
			}
			val = `"` + body[start:i] + `"`
			i++
		default:
			start := i
			for i < n && body[i] != ',' && body[i] != '\n' && body[i] != '\r' {
				i++
			}
			val = strings.TrimSpace(body[start:i])
		}

		setField(&f, key, stripOuter(val))

		j := strings.Index(body[i:], ",")
		if j < 0 {
			break
		}
		i += j + 1
	}
	return f
}

func setField(f *Fields, key, val string) {
	switch key {
	case "title":
		f.Title = val
	case "author":
		f.Author = val
	case "year":
		f.Year = val
	case "journal":
		f.Journal = val
	case "booktitle":
		f.Booktitle = val
	case "publisher":
		f.Publisher = val
	case "doi":
		f.DOI = val
	case "eprint":
		f.Eprint = val
	case "url":
		f.URL = val
	default:
		f.Extra[key] = val
	}
}

// stripOuter removes one layer of wrapping braces or quotes.
func stripOuter(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '{' && s[len(s)-1] == '}') || (s[0] == '"' && s[len(s)-1] == '"') {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
