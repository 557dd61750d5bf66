package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"options-income-lab/internal/config"
	"options-income-lab/internal/domain"
	"options-income-lab/internal/marketdata"
	"options-income-lab/internal/observability"
	"options-income-lab/internal/orchestrator"
	"options-income-lab/internal/pipeline"
	"options-income-lab/internal/reporting"
	chstore "options-income-lab/internal/storage/clickhouse"
	pgstore "options-income-lab/internal/storage/postgres"
)

type runFlags struct {
	strategy  string
	chain     string
	snapshots string
	outDir    string
	asOf      string
	persist   bool
	show      int
}

func newRunCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan a chain snapshot and write ranked opportunities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.strategy, "strategy", "all", "csp, covered_call, wheel or all")
	cmd.Flags().StringVar(&f.chain, "chain", "", "option chain CSV file (required)")
	cmd.Flags().StringVar(&f.snapshots, "snapshots", "", "stock snapshot YAML file")
	cmd.Flags().StringVar(&f.outDir, "out", "", "output directory (default from config)")
	cmd.Flags().StringVar(&f.asOf, "as-of", "", "snapshot time, RFC3339 (default now)")
	cmd.Flags().BoolVar(&f.persist, "persist", false, "store results in postgres and clickhouse")
	cmd.Flags().IntVar(&f.show, "show", 10, "rows per strategy in the console table, 0 for all")
	_ = cmd.MarkFlagRequired("chain")

	return cmd
}

func runScan(ctx context.Context, f runFlags) error {
	asOf := time.Now().UTC().Truncate(time.Second)
	if f.asOf != "" {
		t, err := time.Parse(time.RFC3339, f.asOf)
		if err != nil {
			return fmt.Errorf("parse --as-of: %w", err)
		}
		asOf = t.UTC()
	}

	strategies, err := selectStrategies(f.strategy)
	if err != nil {
		return err
	}

	configs, err := scanConfigs(strategies)
	if err != nil {
		return err
	}

	provider, err := marketdata.LoadFixtureProvider(f.chain, f.snapshots)
	if err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}

	outDir := f.outDir
	if outDir == "" {
		outDir = cfg.Output.Dir
	}

	m := observability.NewMetrics(cfg.Metrics.Namespace)
	opts := orchestrator.Options{
		Provider:  provider,
		Configs:   configs,
		OutputDir: outDir,
		Logger:    logger,
		Metrics:   m,
	}

	if f.persist {
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		pool.WithMetrics(m)

		conn, err := chstore.NewConn(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			return err
		}
		defer conn.Close()
		conn.WithMetrics(m)

		opts.ScanRunStore = pgstore.NewScanRunStore(pool)
		opts.OpportunityStore = pgstore.NewOpportunityStore(pool)
		opts.ChainSnapshotStore = chstore.NewChainSnapshotStore(conn)
		opts.StageCountStore = chstore.NewStageCountStore(conn)
	}

	orch, err := orchestrator.New(opts)
	if err != nil {
		if pipeline.IsConfigurationError(err) {
			logger.WithError(err).Error("Invalid configuration")
		}
		return err
	}

	res, err := orch.Run(ctx, asOf)
	if err != nil {
		return err
	}

	for _, r := range res.Results {
		reporting.RenderTable(os.Stdout, r.Strategy, r.Opportunities, f.show)
		fmt.Println()
	}
	for _, path := range res.Files {
		logger.WithField("path", path).Info("wrote file")
	}

	return nil
}

func selectStrategies(s string) ([]domain.StrategyType, error) {
	if s == "" || s == "all" {
		return domain.AllStrategies(), nil
	}
	st, err := config.ParseStrategy(s)
	if err != nil {
		return nil, err
	}
	return []domain.StrategyType{st}, nil
}
