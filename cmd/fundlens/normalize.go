package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fundlens/fundlens/internal/db"
	"github.com/fundlens/fundlens/internal/silver"
	"github.com/fundlens/fundlens/internal/warehouse"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize bronze rows into silver tables",
	Long: `Re-derives the silver tables from bronze: typed dates and amounts,
cleaned text, parsed addresses, and denormalized committee and candidate
enrichment. Safe to re-run; silver rows are keyed on their bronze source
reference.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "normalize"))

		src, _ := cmd.Flags().GetString("source")
		if src != "all" && src != "fec" && src != "md" {
			return eris.Errorf("normalize: unknown --source %q", src)
		}

		pool, err := warehousePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := warehouse.Migrate(ctx, pool); err != nil {
			return eris.Wrap(err, "normalize: migrate")
		}

		runs := warehouse.NewRunLog(pool)

		if src == "all" || src == "fec" {
			if err := normalizeFEC(cmd, pool, runs, log); err != nil {
				return err
			}
		}
		if src == "all" || src == "md" {
			if err := normalizeMD(cmd, pool, runs, log); err != nil {
				return err
			}
		}

		fmt.Println("Normalization complete")
		return nil
	},
}

func normalizeFEC(cmd *cobra.Command, pool db.Pool, runs *warehouse.RunLog, log *zap.Logger) error {
	ctx := cmd.Context()

	runID, err := runs.Start(ctx, "normalize", "fec")
	if err != nil {
		return eris.Wrap(err, "normalize fec: start run")
	}

	n := silver.NewFECNormalizer(pool, cfg.Ingest.BatchSize)
	var total silver.Result
	for _, step := range []struct {
		name string
		fn   func() (silver.Result, error)
	}{
		{"candidates", func() (silver.Result, error) { return n.Candidates(ctx) }},
		{"committees", func() (silver.Result, error) { return n.Committees(ctx) }},
		{"contributions", func() (silver.Result, error) { return n.Contributions(ctx) }},
	} {
		res, err := step.fn()
		if err != nil {
			wrapped := eris.Wrapf(err, "normalize fec: %s", step.name)
			if logErr := runs.Fail(ctx, runID, wrapped.Error()); logErr != nil {
				log.Error("failed to record run failure", zap.Error(logErr))
			}
			return wrapped
		}
		total.Processed += res.Processed
		total.Skipped += res.Skipped
	}

	log.Info("fec normalization complete",
		zap.Int64("processed", total.Processed),
		zap.Int64("skipped", total.Skipped),
	)
	return runs.Complete(ctx, runID, &warehouse.RunResult{
		Rows:     total.Processed,
		Metadata: map[string]any{"skipped": total.Skipped},
	})
}

func normalizeMD(cmd *cobra.Command, pool db.Pool, runs *warehouse.RunLog, log *zap.Logger) error {
	ctx := cmd.Context()

	runID, err := runs.Start(ctx, "normalize", "md")
	if err != nil {
		return eris.Wrap(err, "normalize md: start run")
	}

	n := silver.NewMDNormalizer(pool, cfg.Ingest.BatchSize)
	var total silver.Result
	for _, step := range []struct {
		name string
		fn   func() (silver.Result, error)
	}{
		{"committees", func() (silver.Result, error) { return n.Committees(ctx) }},
		{"candidates", func() (silver.Result, error) { return n.Candidates(ctx) }},
		{"contributions", func() (silver.Result, error) { return n.Contributions(ctx) }},
	} {
		res, err := step.fn()
		if err != nil {
			wrapped := eris.Wrapf(err, "normalize md: %s", step.name)
			if logErr := runs.Fail(ctx, runID, wrapped.Error()); logErr != nil {
				log.Error("failed to record run failure", zap.Error(logErr))
			}
			return wrapped
		}
		total.Processed += res.Processed
		total.Skipped += res.Skipped
	}

	log.Info("md normalization complete",
		zap.Int64("processed", total.Processed),
		zap.Int64("skipped", total.Skipped),
	)
	return runs.Complete(ctx, runID, &warehouse.RunResult{
		Rows:     total.Processed,
		Metadata: map[string]any{"skipped": total.Skipped},
	})
}

func init() {
	normalizeCmd.Flags().String("source", "all", "restrict to source: fec, md")
	rootCmd.AddCommand(normalizeCmd)
}
