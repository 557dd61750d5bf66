package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"options-income-lab/internal/idhash"
	pgstore "options-income-lab/internal/storage/postgres"
)

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List persisted scan runs, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			runs, err := pgstore.NewScanRunStore(pool).List(ctx, limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Run ID", "Started", "As Of", "Session", "Strategies", "Opportunities", "Config"})
			table.SetAutoFormatHeaders(false)
			for _, r := range runs {
				names := make([]string, len(r.Strategies))
				for i, st := range r.Strategies {
					names[i] = st.String()
				}
				table.Append([]string{
					r.RunID,
					r.StartedAt.Format(time.RFC3339),
					r.AsOf.Format(time.RFC3339),
					r.MarketSession,
					strings.Join(names, ","),
					fmt.Sprintf("%d", r.Opportunities),
					idhash.ShortID(r.ConfigHash),
				})
			}
			table.Render()

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list, 0 for all")

	return cmd
}
