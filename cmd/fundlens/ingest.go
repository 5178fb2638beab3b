package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fundlens/fundlens/internal/bronze"
	"github.com/fundlens/fundlens/internal/source"
	"github.com/fundlens/fundlens/internal/warehouse"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Extract source data into bronze tables",
	Long:  "Incrementally extracts contributions and reference data from the FEC API and the Maryland exports into bronze.* tables, checkpointing progress per partition.",
}

var ingestFECCmd = &cobra.Command{
	Use:   "fec",
	Short: "Extract FEC Schedule A receipts",
	Long: `Extract FEC Schedule A receipts for the given committees and cycle.

Each (committee, cycle) pair is an independent partition with its own
checkpoint; interrupted runs resume from the last committed page. Distinct
partitions run in parallel, bounded by ingest.max_partitions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "ingest.fec"))

		committees, _ := cmd.Flags().GetStringSlice("committee")
		cycle, _ := cmd.Flags().GetInt("cycle")
		masters, _ := cmd.Flags().GetBool("masters")
		if len(committees) == 0 && !masters {
			return eris.New("ingest fec: at least one --committee (or --masters) is required")
		}

		pool, err := warehousePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := warehouse.Migrate(ctx, pool); err != nil {
			return eris.Wrap(err, "ingest fec: migrate")
		}

		ing := bronze.NewIngestor(pool,
			source.NewFECClient(cfg.Sources, cfg.Ingest.PageSize),
			source.NewMDClient(cfg.Sources),
			cfg.Ingest)

		if masters {
			if err := ing.RunFECCandidates(ctx, cycle); err != nil {
				return eris.Wrap(err, "ingest fec: candidates")
			}
			if err := ing.RunFECCommittees(ctx, cycle); err != nil {
				return eris.Wrap(err, "ingest fec: committees")
			}
		}

		log.Info("starting fec extraction",
			zap.Strings("committees", committees),
			zap.Int("cycle", cycle),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Ingest.MaxPartitions)
		for _, committeeID := range committees {
			g.Go(func() error {
				return ing.RunFEC(gctx, committeeID, cycle)
			})
		}
		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "ingest fec")
		}

		fmt.Println("FEC extraction complete")
		return nil
	},
}

var ingestMDCmd = &cobra.Command{
	Use:   "md",
	Short: "Extract Maryland campaign finance exports",
	Long: `Extract the Maryland MDCRIS contribution export and the State Board of
Elections committee and candidate exports for a filing year.

Each (data type, year) pair is an independent partition with its own
checkpoint. Use --type to restrict to one export.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "ingest.md"))

		year, _ := cmd.Flags().GetInt("year")
		dataType, _ := cmd.Flags().GetString("type")
		electionType, _ := cmd.Flags().GetString("election-type")

		pool, err := warehousePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := warehouse.Migrate(ctx, pool); err != nil {
			return eris.Wrap(err, "ingest md: migrate")
		}

		ing := bronze.NewIngestor(pool,
			source.NewFECClient(cfg.Sources, cfg.Ingest.PageSize),
			source.NewMDClient(cfg.Sources),
			cfg.Ingest)

		log.Info("starting md extraction",
			zap.Int("year", year),
			zap.String("type", dataType),
		)

		type step struct {
			name string
			run  func() error
		}
		var steps []step
		if dataType == "all" || dataType == bronze.MDContributions {
			steps = append(steps, step{bronze.MDContributions, func() error {
				return ing.RunMDContributions(ctx, year)
			}})
		}
		if dataType == "all" || dataType == bronze.MDCommittees {
			steps = append(steps, step{bronze.MDCommittees, func() error {
				return ing.RunMDCommittees(ctx, year)
			}})
		}
		if dataType == "all" || dataType == bronze.MDCandidates {
			steps = append(steps, step{bronze.MDCandidates, func() error {
				return ing.RunMDCandidates(ctx, year, electionType)
			}})
		}
		if len(steps) == 0 {
			return eris.Errorf("ingest md: unknown --type %q", dataType)
		}

		for _, s := range steps {
			if err := s.run(); err != nil {
				return eris.Wrapf(err, "ingest md: %s", s.name)
			}
		}

		fmt.Println("Maryland extraction complete")
		return nil
	},
}

func init() {
	ingestFECCmd.Flags().StringSlice("committee", nil, "FEC committee id (repeatable)")
	ingestFECCmd.Flags().Int("cycle", 2024, "two-year election cycle")
	ingestFECCmd.Flags().Bool("masters", false, "also refresh the candidate and committee masters")
	ingestMDCmd.Flags().Int("year", 2024, "filing year (election year for candidates)")
	ingestMDCmd.Flags().String("type", "all", "restrict to: contributions, committees, candidates")
	ingestMDCmd.Flags().String("election-type", "", "SBE election type filter for candidates")
	ingestCmd.AddCommand(ingestFECCmd)
	ingestCmd.AddCommand(ingestMDCmd)
	rootCmd.AddCommand(ingestCmd)
}
