package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "matchbook",
	Short: "Matchbook - lender program matching engine",
	Long: `Matchbook evaluates a loan scenario against a catalog of lender programs
and returns a ranked, explainable list of matches.

The evaluation core resolves geographic coverage, checks multi-tier criteria
bands, honors pre-approved exception grants, scores and ranks candidates,
rate-limits callers per tenant, memoizes results, and records every
evaluation in a hash-chained audit ledger.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
