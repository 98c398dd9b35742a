// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Evidence artifact formats. FormatBinary covers anything unrecognized.
const (
	FormatMarkdown  = "md"
	FormatHTML      = "html"
	FormatPlaintext = "txt"
	FormatTeX       = "tex"
	FormatRTF       = "rtf"
	FormatPDF       = "pdf"
	FormatBinary    = "bin"
)

// EvidenceArtifact is a fetched byte payload for a reference: its source
// URL, local storage path, inferred format, and size. Never mutated after
// creation.
type EvidenceArtifact struct {
	URL    string `json:"url"`
	Path   string `json:"path"`
	Format string `json:"fmt"`
	Bytes  int64  `json:"bytes"`
}
