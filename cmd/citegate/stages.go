// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Seed the per-reference state table from the BibTeX file",
	Long: `Init parses the BibTeX file and writes audit_references.csv with one
row per entry, with every pass's quality and confidence zeroed. Run metadata
is recorded alongside it. A bib file with no entries is a fatal error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newRunner(cmd).Init(cmd.Context())
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check structural quality of each BibTeX entry",
	Long: `Audit scores each entry for missing or placeholder fields and for
references never cited in the TeX project, and writes stage_audit_report.md.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newRunner(cmd).Audit(cmd.Context())
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Match entries against bibliographic APIs",
	Long: `Resolve queries arXiv, OpenAlex, Crossref, and DBLP for each entry,
classifies the best candidate as resolved, needs_review, or unresolved, and
writes stage_resolve_report.md plus refs.corrected.bib with canonical
metadata for resolved entries.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newRunner(cmd).Resolve(cmd.Context())
	},
}

var groundCmd = &cobra.Command{
	Use:   "ground",
	Short: "Check citing claims against fetched evidence",
	Long: `Ground extracts the claims citing each reference, fetches evidence
artifacts for the reference (unless --no-fetch), and scores how well the
evidence supports each claim. Writes grounding_report.md, rewrites.tex with
hedged phrasings, claims.json, and evidence_index.json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newRunner(cmd).Ground(cmd.Context())
	},
}

var venueCmd = &cobra.Command{
	Use:   "venue",
	Short: "Score publication venues with the policy lens",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newRunner(cmd).Venue(cmd.Context())
	},
}

var mlCmd = &cobra.Command{
	Use:   "ml",
	Short: "Score publication venues with the ML research lens",
	RunE: func(cmd *cobra.Command, args []string) error {
		return newRunner(cmd).ML(cmd.Context())
	},
}

var reviewCmd = &cobra.Command{
	Use:     "review",
	Aliases: []string{"review_critiques"},
	Short:   "Aggregate pass scores and rank references for review",
	Long: `Review combines the per-pass quality and confidence columns into a
single reference quality score, evaluates blocker rules, assigns a review
priority to every reference, and writes review_critiques.csv and
review_critiques.md ranked worst first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newRunner(cmd).Review(cmd.Context())
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute every pass in order",
	Long:  `Run executes init, audit, resolve, ground, venue, ml, and review in order, stopping at the first failure.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newRunner(cmd).RunAll(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(initCmd, auditCmd, resolveCmd, groundCmd, venueCmd, mlCmd, reviewCmd, runCmd)
}
