// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bibtex

import (
	"fmt"
	"strings"

	"github.com/pdiddy/citegate/pkg/types"
)

// RenderCorrected produces a minimal BibTeX entry for a resolved reference,
// layering canonical values over the original fields: canonical wins when
// present, the original fills gaps. The entry keeps its original type and
// key; the venue field name follows the entry type.
func RenderCorrected(e Entry, can types.Canonical, doi string) string {
	title := firstNonEmpty(can.Title, e.Fields.Title)
	authors := firstNonEmpty(can.Authors, e.Fields.Author)
	year := e.Fields.Year
	if can.Year != 0 {
		year = fmt.Sprintf("%d", can.Year)
	}
	venue := firstNonEmpty(can.Venue, e.Fields.Venue())
	url := firstNonEmpty(can.URL, e.Fields.URL)
	if doi == "" {
		doi = e.Fields.DOI
	}

	venueField := "booktitle"
	if e.Type == "article" {
		venueField = "journal"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", e.Type, e.Key)
	fmt.Fprintf(&b, "  title={%s},\n", title)
	if authors != "" {
		fmt.Fprintf(&b, "  author={%s},\n", authors)
	}
	if year != "" {
		fmt.Fprintf(&b, "  year={%s},\n", year)
	}
	if venue != "" {
		fmt.Fprintf(&b, "  %s={%s},\n", venueField, venue)
	}
	if doi != "" {
		fmt.Fprintf(&b, "  doi={%s},\n", doi)
	}
	if url != "" {
		fmt.Fprintf(&b, "  url={%s},\n", url)
	}
	b.WriteString("}\n")
	return b.String()
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
