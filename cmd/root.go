// Package cmd implements the acumen command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "acumen",
	Short: "Acumen - adaptive cognitive assessment engine",
	Long: `Acumen administers computerized adaptive tests: it re-estimates
latent ability after every response, selects the most informative next
item under content-balancing and exposure constraints, and stops when
enough has been measured.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
