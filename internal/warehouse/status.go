package warehouse

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fundlens/fundlens/internal/db"
)

// FECCheckpoint summarizes one bronze FEC extraction partition.
type FECCheckpoint struct {
	CommitteeID     string
	ElectionCycle   int
	LastPage        int
	TotalExtracted  int64
	LastExtractedAt *time.Time
	IsComplete      bool
}

// MDCheckpoint summarizes one bronze Maryland extraction partition.
type MDCheckpoint struct {
	DataType        string
	FilingYear      int
	LastDate        *string
	TotalExtracted  int64
	LastExtractedAt *time.Time
	IsComplete      bool
}

// FECCheckpoints returns all FEC extraction checkpoints, most recently
// touched first.
func FECCheckpoints(ctx context.Context, pool db.Pool) ([]FECCheckpoint, error) {
	rows, err := pool.Query(ctx,
		`SELECT committee_id, election_cycle, last_page_processed,
		        total_contributions_extracted, last_extraction_timestamp, is_complete
		 FROM bronze.fec_extraction_state
		 ORDER BY last_extraction_timestamp DESC NULLS LAST`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "warehouse: query fec checkpoints")
	}
	defer rows.Close()

	var out []FECCheckpoint
	for rows.Next() {
		var c FECCheckpoint
		if err := rows.Scan(&c.CommitteeID, &c.ElectionCycle, &c.LastPage,
			&c.TotalExtracted, &c.LastExtractedAt, &c.IsComplete); err != nil {
			return nil, eris.Wrap(err, "warehouse: scan fec checkpoint")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MDCheckpoints returns all Maryland extraction checkpoints, most recently
// touched first.
func MDCheckpoints(ctx context.Context, pool db.Pool) ([]MDCheckpoint, error) {
	rows, err := pool.Query(ctx,
		`SELECT data_type, filing_year, last_extraction_date,
		        total_records_extracted, last_extraction_timestamp, is_complete
		 FROM bronze.md_extraction_state
		 ORDER BY last_extraction_timestamp DESC NULLS LAST`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "warehouse: query md checkpoints")
	}
	defer rows.Close()

	var out []MDCheckpoint
	for rows.Next() {
		var c MDCheckpoint
		if err := rows.Scan(&c.DataType, &c.FilingYear, &c.LastDate,
			&c.TotalExtracted, &c.LastExtractedAt, &c.IsComplete); err != nil {
			return nil, eris.Wrap(err, "warehouse: scan md checkpoint")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LayerCounts reports row counts per table for one schema, keyed by table
// name. Used by the status command to show bronze/silver/gold volumes.
func LayerCounts(ctx context.Context, pool db.Pool, schema string) (map[string]int64, error) {
	rows, err := pool.Query(ctx,
		`SELECT relname, n_live_tup
		 FROM pg_stat_user_tables
		 WHERE schemaname = $1
		 ORDER BY relname`,
		schema,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "warehouse: query %s table counts", schema)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var name string
		var n int64
		if err := rows.Scan(&name, &n); err != nil {
			return nil, eris.Wrapf(err, "warehouse: scan %s table count", schema)
		}
		counts[name] = n
	}
	return counts, rows.Err()
}
