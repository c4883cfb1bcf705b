package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"matchbook-hq/matchbook/pkg/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Catalog management commands",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate a catalog document",
	Long: `Parse a catalog yaml file or directory and check its referential
integrity: criteria reference questions, coverage rules reference existing
programs or lenders, bands are well-formed, and at most one scoring model is
active per strategy.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.LoadFile(args[0])
		if err != nil {
			return err
		}
		programs := cat.Programs(time.Now())
		fmt.Printf("catalog %s is valid: %d active programs\n", cat.Version, len(programs))
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogValidateCmd)
	rootCmd.AddCommand(catalogCmd)
}
