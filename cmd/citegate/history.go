// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citegate/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history <bib_key>",
	Short: "Show recorded pass results for one reference",
	Long: `History lists every recorded pass result for a reference, newest
first, from the run history database in the output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		h, err := store.OpenHistory(out)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer h.Close()

		passes, err := h.KeyHistory(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(passes) == 0 {
			fmt.Fprintf(os.Stdout, "no history for %s\n", args[0])
			return nil
		}
		for _, p := range passes {
			fmt.Fprintf(os.Stdout, "run %d  %-16s %s  Q=%d C=%d\n",
				p.RunID, p.Stage, p.StartedAt, p.Quality, p.Confidence)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
