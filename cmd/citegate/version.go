// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citegate/internal/pipeline"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of citegate",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("citegate %s (pipeline %s)\n", version, pipeline.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
