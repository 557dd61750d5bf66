package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/marketdata"
	"options-income-lab/internal/pipeline"
	pgstore "options-income-lab/internal/storage/postgres"
	"options-income-lab/internal/verification"
)

func newVerifyCmd() *cobra.Command {
	var runID, chain, snapshots string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Recompute a persisted run from its snapshot and compare opportunities",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			runs := pgstore.NewScanRunStore(pool)
			run, err := runs.GetByID(ctx, runID)
			if err != nil {
				return fmt.Errorf("load run %s: %w", runID, err)
			}

			provider, err := marketdata.LoadFixtureProvider(chain, snapshots)
			if err != nil {
				return fmt.Errorf("load fixtures: %w", err)
			}

			configs, err := scanConfigs(run.Strategies)
			if err != nil {
				return err
			}

			v := verification.NewRunVerifier(verification.RunVerifierOptions{
				RunStore:         runs,
				OpportunityStore: pgstore.NewOpportunityStore(pool),
				Provider:         provider,
				Configs:          configs,
			})
			report, err := v.Verify(ctx, runID)
			if err != nil {
				return err
			}

			for _, r := range report.Results {
				for _, d := range r.Divergences {
					logger.WithFields(map[string]interface{}{
						"opportunity_id": r.OpportunityID,
						"strategy":       r.Strategy.String(),
						"field":          d.Field,
						"expected":       d.Expected,
						"actual":         d.Actual,
					}).Warn("divergence")
				}
			}
			fmt.Printf("run %s: %d/%d matched, %d divergent, %d missing, %d extra\n",
				report.RunID, report.Matched, report.Total, report.Divergent, len(report.Missing), len(report.Extra))

			if !report.OK() {
				return fmt.Errorf("run %s did not reproduce", runID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "run to verify (required)")
	cmd.Flags().StringVar(&chain, "chain", "", "option chain CSV the run scanned (required)")
	cmd.Flags().StringVar(&snapshots, "snapshots", "", "stock snapshot YAML the run scanned")
	_ = cmd.MarkFlagRequired("run-id")
	_ = cmd.MarkFlagRequired("chain")

	return cmd
}

func scanConfigs(strategies []domain.StrategyType) ([]pipeline.Config, error) {
	configs := make([]pipeline.Config, 0, len(strategies))
	for _, st := range strategies {
		sc, err := cfg.ScanConfig(st)
		if err != nil {
			return nil, err
		}
		configs = append(configs, sc)
	}
	return configs, nil
}
