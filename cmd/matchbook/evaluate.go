package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"matchbook-hq/matchbook/pkg/catalog"
	"matchbook-hq/matchbook/pkg/engine"
	"matchbook-hq/matchbook/pkg/scenario"
	"matchbook-hq/matchbook/pkg/telemetry/logging"
)

var (
	evalCatalogPath  string
	evalScenarioPath string
	evalScenarioID   string
	evalTenantID     string
	evalStrategy     string
	evalTestMode     bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a scenario fixture against a catalog",
	Long: `Run one evaluation from the command line: load a catalog document and a
scenario fixture, run the full pipeline, and print the ranked result as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEvaluate(cmd.Context())
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&evalCatalogPath, "catalog", "", "catalog yaml file or directory (required)")
	evaluateCmd.Flags().StringVar(&evalScenarioPath, "scenario", "", "scenario fixture file (required)")
	evaluateCmd.Flags().StringVar(&evalScenarioID, "scenario-id", "", "scenario to evaluate (required)")
	evaluateCmd.Flags().StringVar(&evalTenantID, "tenant", "cli", "tenant identifier")
	evaluateCmd.Flags().StringVar(&evalStrategy, "strategy", "static", "scoring strategy (static or weighted)")
	evaluateCmd.Flags().BoolVar(&evalTestMode, "test", false, "test run: bypass admission control and the cache")
	evaluateCmd.MarkFlagRequired("catalog")
	evaluateCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(evaluateCmd)
}

// staticProvider serves one fixed catalog snapshot.
type staticProvider struct{ cat *catalog.Catalog }

func (p staticProvider) Snapshot() *catalog.Catalog { return p.cat }

func runEvaluate(ctx context.Context) error {
	logLevel := "warn"
	if verbose {
		logLevel = "debug"
	}
	logger, err := logging.New(logging.Config{Level: logLevel, Format: "console", Writer: os.Stderr})
	if err != nil {
		return err
	}

	cat, err := catalog.LoadFile(evalCatalogPath)
	if err != nil {
		return err
	}

	scenarios, err := scenario.LoadFixture(evalScenarioPath)
	if err != nil {
		return err
	}

	eng, err := engine.New(engine.Config{
		Catalog:   staticProvider{cat: cat},
		Scenarios: scenarios,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	result, err := eng.Evaluate(ctx, engine.Request{
		ScenarioID: evalScenarioID,
		TenantID:   evalTenantID,
		Options: engine.Options{
			TestMode:        evalTestMode,
			ScoringStrategy: evalStrategy,
		},
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
