// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the citegate CLI.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citegate/internal/config"
	"github.com/pdiddy/citegate/internal/pipeline"
	"github.com/pdiddy/citegate/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds contact credentials loaded from .secrets/ at startup.
// Bibliographic APIs admit politer rate limits when a mailto is supplied.
var loadedSecrets map[string]string

// rootCmd is the base command for the citegate CLI.
var rootCmd = &cobra.Command{
	Use:   "citegate",
	Short: "Reference verification for LaTeX papers",
	Long: `citegate audits, resolves, and grounds the bibliography of a LaTeX
project. Each evaluation pass is a subcommand: init seeds the per-reference
state table, audit checks structural quality, resolve matches entries against
bibliographic APIs, ground checks citing claims against fetched evidence,
venue and ml apply domain lenses, and review aggregates everything into a
ranked critique report. run executes all passes in order.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./citegate.yaml or ~/.config/citegate/config.yaml)")
	pf.String("tex", "./papers/main.tex", "root TeX file of the project")
	pf.String("bib", "./papers/refs.bib", "BibTeX file to evaluate")
	pf.String("out", "./out", "output directory for state, caches, and reports")
	pf.String("only", "", "restrict passes to bib keys matching this regexp")
	pf.String("venue-profile", "", "venue lens profile (default from config)")
	pf.String("ml-profile", "", "ML lens profile (default from config)")
	pf.String("rules-profile", "", "blocker rule profile for review (default: ml profile)")
	pf.Bool("fetch", false, "force evidence fetching on")
	pf.Bool("no-fetch", false, "force evidence fetching off (wins over --fetch)")
	pf.String("weights", "", "review stage weights, e.g. audit=1,resolve=2,ground=2")
	pf.String("confidence-weighting", "", "confidence weighting mode: equal, linear, or quadratic")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("citegate")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "citegate"))
		}
	}

	viper.SetEnvPrefix("CITEGATE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newRunner assembles a pipeline runner from configuration and the
// persistent flags.
func newRunner(cmd *cobra.Command) *pipeline.Runner {
	cfg := config.Load(viper.GetViper(), os.Stderr)

	// Crossref and OpenAlex route requests with a mailto into their polite
	// pools.
	mailto := loadedSecrets["crossref-mailto"]
	if mailto == "" {
		mailto = loadedSecrets["openalex-email"]
	}
	if mailto != "" {
		cfg.UserAgent = fmt.Sprintf("%s (mailto:%s)", cfg.UserAgent, mailto)
	}

	f := cmd.Flags()
	tex, _ := f.GetString("tex")
	bib, _ := f.GetString("bib")
	out, _ := f.GetString("out")
	only, _ := f.GetString("only")
	venueProfile, _ := f.GetString("venue-profile")
	mlProfile, _ := f.GetString("ml-profile")
	rulesProfile, _ := f.GetString("rules-profile")
	fetch, _ := f.GetBool("fetch")
	noFetch, _ := f.GetBool("no-fetch")
	weights, _ := f.GetString("weights")
	confWeighting, _ := f.GetString("confidence-weighting")

	return &pipeline.Runner{
		Config: cfg,
		Client: &http.Client{Timeout: cfg.Timeout},
		Opts: pipeline.Options{
			Tex:                 tex,
			Bib:                 bib,
			Out:                 out,
			Only:                only,
			Fetch:               fetch,
			NoFetch:             noFetch,
			VenueProfile:        venueProfile,
			MLProfile:           mlProfile,
			RulesProfile:        rulesProfile,
			Weights:             weights,
			ConfidenceWeighting: confWeighting,
		},
		W: os.Stdout,
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
