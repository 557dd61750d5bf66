package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"options-income-lab/internal/storage/migrations"
	pgstore "options-income-lab/internal/storage/postgres"
)

func newMigrateCmd() *cobra.Command {
	var skipPostgres, skipClickhouse bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded postgres and clickhouse migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if !skipPostgres {
				pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
				if err != nil {
					return err
				}
				defer pool.Close()

				applied, err := migrations.RunPostgresMigrations(ctx, pool)
				if err != nil {
					return fmt.Errorf("postgres migrations: %w", err)
				}
				logger.WithField("applied", applied).Info("postgres migrations applied")
			}

			if !skipClickhouse {
				conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
				if err != nil {
					return fmt.Errorf("clickhouse migrations: %w", err)
				}
				defer conn.Close()
				logger.Info("clickhouse migrations applied")
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPostgres, "skip-postgres", false, "do not migrate postgres")
	cmd.Flags().BoolVar(&skipClickhouse, "skip-clickhouse", false, "do not migrate clickhouse")

	return cmd
}
