package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"matchbook-hq/matchbook/pkg/admission"
	"matchbook-hq/matchbook/pkg/cache"
	"matchbook-hq/matchbook/pkg/config"
	"matchbook-hq/matchbook/pkg/engine"
	"matchbook-hq/matchbook/pkg/ledger"
	"matchbook-hq/matchbook/pkg/scenario"
	"matchbook-hq/matchbook/pkg/server"
	"matchbook-hq/matchbook/pkg/telemetry/logging"
	"matchbook-hq/matchbook/pkg/telemetry/metrics"

	catalogsource "matchbook-hq/matchbook/pkg/catalog/source"
)

var runScenarioFixture string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the evaluation service",
	Long: `Start the matchbook HTTP service: load the program catalog, wire up
admission control, the result cache, and the audit ledger, and serve
evaluation requests until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	runCmd.Flags().StringVar(&runScenarioFixture, "scenarios", "",
		"scenario fixture file standing in for the workflow layer")
	rootCmd.AddCommand(runCmd)
}

func runServer() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Catalog source.
	var provider engine.CatalogProvider
	switch cfg.Catalog.Source {
	case "git":
		src, err := catalogsource.NewGitSource(ctx, catalogsource.GitConfig{
			URL:         cfg.Catalog.Git.URL,
			Branch:      cfg.Catalog.Git.Branch,
			LocalPath:   cfg.Catalog.Git.LocalPath,
			CatalogPath: cfg.Catalog.Git.CatalogPath,
		}, logger)
		if err != nil {
			return err
		}
		provider = src
	default:
		src, err := catalogsource.NewFileSource(cfg.Catalog.Path, logger)
		if err != nil {
			return err
		}
		if cfg.Catalog.Watch {
			go func() {
				if err := src.Watch(ctx); err != nil && ctx.Err() == nil {
					logger.Error("catalog watcher stopped", "error", err)
				}
			}()
		}
		provider = src
	}

	// Scenario store. Without a fixture file the store is empty and every
	// request reports ScenarioNotFound; the workflow layer is expected to
	// supply scenarios in production deployments.
	scenarios := scenario.NewMemoryStore()
	if runScenarioFixture != "" {
		scenarios, err = scenario.LoadFixture(runScenarioFixture)
		if err != nil {
			return err
		}
	}

	// Admission control.
	var admitter engine.Admitter
	if *cfg.Admission.Enabled {
		controller := admission.NewController(cfg.Admission.Capacity)
		replenisher := admission.NewReplenisher(controller, cfg.Admission.ReplenishSchedule, logger)
		if err := replenisher.Start(ctx); err != nil {
			return err
		}
		admitter = controller
	}

	// Result cache.
	var resultCache engine.ResultCache
	if *cfg.Cache.Enabled {
		var store cache.Store
		if cfg.Cache.Backend == "sqlite" {
			store, err = cache.NewSQLiteStore(cfg.Cache.Path)
			if err != nil {
				return err
			}
		} else {
			store = cache.NewMemoryStore()
		}
		c := cache.New(store, cfg.Cache.TTL, logger)
		defer c.Close()

		sweeper := cache.NewSweeper(c, cfg.Cache.SweepSchedule, logger)
		if err := sweeper.Start(ctx); err != nil {
			return err
		}
		resultCache = c
	}

	// Audit ledger.
	var recorder engine.Recorder
	if *cfg.Ledger.Enabled {
		var store ledger.Storage
		if cfg.Ledger.Backend == "sqlite" {
			store, err = ledger.NewSQLiteStorage(cfg.Ledger.Path)
			if err != nil {
				return err
			}
		} else {
			store = ledger.NewMemoryStorage()
		}
		l := ledger.New(store, logger)
		defer l.Close()
		recorder = l
	}

	var collector *metrics.Collector
	if *cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(nil)
	}

	eng, err := engine.New(engine.Config{
		Catalog:   provider,
		Scenarios: scenarios,
		Admission: admitter,
		Cache:     resultCache,
		Ledger:    recorder,
		Metrics:   collector,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, eng, collector, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
