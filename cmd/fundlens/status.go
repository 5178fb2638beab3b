package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/fundlens/fundlens/internal/db"
	"github.com/fundlens/fundlens/internal/warehouse"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show extraction checkpoints and run history",
	Long:  "Displays per-partition extraction checkpoints, recent pipeline runs, and row counts per layer.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := warehousePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		fec, err := warehouse.FECCheckpoints(ctx, pool)
		if err != nil {
			return eris.Wrap(err, "status")
		}
		md, err := warehouse.MDCheckpoints(ctx, pool)
		if err != nil {
			return eris.Wrap(err, "status")
		}
		runs, err := warehouse.NewRunLog(pool).LastRuns(ctx, 15)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		formatCheckpoints(os.Stdout, fec, md)
		formatRuns(os.Stdout, runs)
		return formatLayerCounts(cmd, pool)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// formatCheckpoints writes both checkpoint tables to w.
func formatCheckpoints(out io.Writer, fec []warehouse.FECCheckpoint, md []warehouse.MDCheckpoint) {
	if len(fec) == 0 && len(md) == 0 {
		fmt.Fprintln(out, "No extraction checkpoints; run 'fundlens ingest' to start extracting.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PARTITION\tROWS\tPAGE\tLAST RUN\tCOMPLETE")
	_, _ = fmt.Fprintln(w, "---------\t----\t----\t--------\t--------")
	for _, c := range fec {
		_, _ = fmt.Fprintf(w, "fec/%s/%d\t%d\t%d\t%s\t%v\n",
			c.CommitteeID, c.ElectionCycle, c.TotalExtracted, c.LastPage,
			formatTime(c.LastExtractedAt), c.IsComplete)
	}
	for _, c := range md {
		_, _ = fmt.Fprintf(w, "md/%s/%d\t%d\t-\t%s\t%v\n",
			c.DataType, c.FilingYear, c.TotalExtracted,
			formatTime(c.LastExtractedAt), c.IsComplete)
	}
	_ = w.Flush()
	fmt.Fprintln(out)
}

// formatRuns writes the recent run log to w.
func formatRuns(out io.Writer, runs []warehouse.RunEntry) {
	if len(runs) == 0 {
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PASS\tPARTITION\tSTATUS\tSTARTED\tDURATION\tROWS\tERROR")
	_, _ = fmt.Fprintln(w, "----\t---------\t------\t-------\t--------\t----\t-----")
	for _, e := range runs {
		dur := "-"
		if e.CompletedAt != nil {
			dur = e.CompletedAt.Sub(e.StartedAt).Round(time.Second).String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			e.Pass, e.Partition, e.Status,
			e.StartedAt.Format("2006-01-02 15:04"), dur, e.Rows,
			truncate(e.Error, 60))
	}
	_ = w.Flush()
	fmt.Fprintln(out)
}

// formatLayerCounts writes per-table row counts for each layer schema.
func formatLayerCounts(cmd *cobra.Command, pool db.Pool) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "LAYER\tTABLE\tROWS")
	_, _ = fmt.Fprintln(w, "-----\t-----\t----")
	for _, schema := range []string{"bronze", "silver", "gold"} {
		counts, err := warehouse.LayerCounts(cmd.Context(), pool, schema)
		if err != nil {
			return eris.Wrap(err, "status")
		}
		for _, table := range slices.Sorted(maps.Keys(counts)) {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", schema, table, counts[table])
		}
	}
	return w.Flush()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
