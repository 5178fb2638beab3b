package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/fundlens/fundlens/internal/gold"
	"github.com/fundlens/fundlens/internal/warehouse"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve silver rows into gold entities",
	Long: `Builds the gold layer from silver: candidates, committees, contributors,
and contributions, matched across sources by exact reference first and
deterministic fuzzy scoring second. Safe to re-run; gold rows are keyed on
their source references.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := warehousePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := warehouse.Migrate(ctx, pool); err != nil {
			return eris.Wrap(err, "resolve: migrate")
		}

		r := gold.NewResolver(pool, cfg.Resolve, cfg.Ingest.BatchSize)
		if err := r.Run(ctx); err != nil {
			return eris.Wrap(err, "resolve")
		}

		fmt.Println("Resolution complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
