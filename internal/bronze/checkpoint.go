package bronze

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fundlens/fundlens/internal/db"
)

// Maryland extraction data types tracked in md_extraction_state.
const (
	MDContributions = "contributions"
	MDCommittees    = "committees"
	MDCandidates    = "candidates"
)

// FECCheckpoint is the extraction cursor for one (committee, cycle)
// partition. LastPage is the last fully committed page; a resumed run
// starts at LastPage+1.
type FECCheckpoint struct {
	CommitteeID     string
	ElectionCycle   int
	LastDate        string
	LastSubID       string
	TotalExtracted  int64
	LastExtractedAt *time.Time
	WindowStart     string
	WindowEnd       string
	IsComplete      bool
	LastPage        int
}

// MDCheckpoint is the extraction cursor for one (data type, filing year)
// partition. The Maryland exports have no page cursor; the window advances
// by last extraction date.
type MDCheckpoint struct {
	DataType        string
	FilingYear      int
	LastDate        string
	LastExtractedAt *time.Time
	TotalExtracted  int64
	WindowStart     string
	WindowEnd       string
	IsComplete      bool
}

// CheckpointStore persists extraction cursors. A checkpoint only advances
// after its batch has committed, so a crash between the two replays the
// batch; the upsert keys make the replay harmless.
type CheckpointStore struct {
	pool db.Pool
}

// NewCheckpointStore creates a CheckpointStore backed by the given pool.
func NewCheckpointStore(pool db.Pool) *CheckpointStore {
	return &CheckpointStore{pool: pool}
}

// GetFEC returns the checkpoint for a partition, or nil if extraction has
// never started there.
func (c *CheckpointStore) GetFEC(ctx context.Context, committeeID string, cycle int) (*FECCheckpoint, error) {
	cp := FECCheckpoint{CommitteeID: committeeID, ElectionCycle: cycle}
	err := c.pool.QueryRow(ctx,
		`SELECT last_contribution_date, last_sub_id, total_contributions_extracted,
		        last_extraction_timestamp, extraction_start_date, extraction_end_date,
		        is_complete, last_page_processed
		 FROM bronze.fec_extraction_state
		 WHERE committee_id = $1 AND election_cycle = $2`,
		committeeID, cycle,
	).Scan(&cp.LastDate, &cp.LastSubID, &cp.TotalExtracted, &cp.LastExtractedAt,
		&cp.WindowStart, &cp.WindowEnd, &cp.IsComplete, &cp.LastPage)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "bronze: get fec checkpoint %s/%d", committeeID, cycle)
	}
	return &cp, nil
}

// AdvanceFEC records a committed page. The cursor never moves backward:
// page, date, and sub id only grow, and the extracted total accumulates.
// Advancing a completed partition is an error; Reset it first.
func (c *CheckpointStore) AdvanceFEC(ctx context.Context, cp FECCheckpoint, pageRows int64) error {
	tag, err := c.pool.Exec(ctx,
		`INSERT INTO bronze.fec_extraction_state
		   (committee_id, election_cycle, last_contribution_date, last_sub_id,
		    total_contributions_extracted, last_extraction_timestamp,
		    extraction_start_date, extraction_end_date, is_complete,
		    last_page_processed, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now(), $6, $7, FALSE, $8, now())
		 ON CONFLICT (committee_id, election_cycle) DO UPDATE SET
		   last_contribution_date = GREATEST(bronze.fec_extraction_state.last_contribution_date, EXCLUDED.last_contribution_date),
		   last_sub_id = GREATEST(bronze.fec_extraction_state.last_sub_id, EXCLUDED.last_sub_id),
		   total_contributions_extracted = bronze.fec_extraction_state.total_contributions_extracted + $5,
		   last_extraction_timestamp = now(),
		   extraction_start_date = COALESCE(bronze.fec_extraction_state.extraction_start_date, EXCLUDED.extraction_start_date),
		   extraction_end_date = EXCLUDED.extraction_end_date,
		   last_page_processed = GREATEST(bronze.fec_extraction_state.last_page_processed, EXCLUDED.last_page_processed),
		   updated_at = now()
		 WHERE NOT bronze.fec_extraction_state.is_complete`,
		cp.CommitteeID, cp.ElectionCycle, cp.LastDate, cp.LastSubID,
		pageRows, cp.WindowStart, cp.WindowEnd, cp.LastPage,
	)
	if err != nil {
		return eris.Wrapf(err, "bronze: advance fec checkpoint %s/%d", cp.CommitteeID, cp.ElectionCycle)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("bronze: fec checkpoint %s/%d is complete; reset before re-extracting", cp.CommitteeID, cp.ElectionCycle)
	}
	return nil
}

// MarkFECComplete transitions a partition to complete. The transition is
// one-way; only Reset reopens a partition.
func (c *CheckpointStore) MarkFECComplete(ctx context.Context, committeeID string, cycle int) error {
	_, err := c.pool.Exec(ctx,
		`UPDATE bronze.fec_extraction_state
		 SET is_complete = TRUE, last_extraction_timestamp = now(), updated_at = now()
		 WHERE committee_id = $1 AND election_cycle = $2`,
		committeeID, cycle,
	)
	if err != nil {
		return eris.Wrapf(err, "bronze: complete fec checkpoint %s/%d", committeeID, cycle)
	}
	return nil
}

// ResetFEC deletes a partition's checkpoint so the next run starts from
// scratch. Bronze rows are untouched; re-extraction upserts over them.
func (c *CheckpointStore) ResetFEC(ctx context.Context, committeeID string, cycle int) error {
	zap.L().Warn("resetting fec extraction checkpoint",
		zap.String("committee_id", committeeID), zap.Int("cycle", cycle))
	_, err := c.pool.Exec(ctx,
		`DELETE FROM bronze.fec_extraction_state
		 WHERE committee_id = $1 AND election_cycle = $2`,
		committeeID, cycle,
	)
	if err != nil {
		return eris.Wrapf(err, "bronze: reset fec checkpoint %s/%d", committeeID, cycle)
	}
	return nil
}

// GetMD returns the checkpoint for a Maryland partition, or nil if
// extraction has never started there.
func (c *CheckpointStore) GetMD(ctx context.Context, dataType string, filingYear int) (*MDCheckpoint, error) {
	cp := MDCheckpoint{DataType: dataType, FilingYear: filingYear}
	err := c.pool.QueryRow(ctx,
		`SELECT last_extraction_date, last_extraction_timestamp,
		        total_records_extracted, extraction_start_date,
		        extraction_end_date, is_complete
		 FROM bronze.md_extraction_state
		 WHERE data_type = $1 AND filing_year = $2`,
		dataType, filingYear,
	).Scan(&cp.LastDate, &cp.LastExtractedAt, &cp.TotalExtracted,
		&cp.WindowStart, &cp.WindowEnd, &cp.IsComplete)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "bronze: get md checkpoint %s/%d", dataType, filingYear)
	}
	return &cp, nil
}

// AdvanceMD records a committed batch for a Maryland partition. Same
// monotonicity rules as AdvanceFEC.
func (c *CheckpointStore) AdvanceMD(ctx context.Context, cp MDCheckpoint, batchRows int64) error {
	tag, err := c.pool.Exec(ctx,
		`INSERT INTO bronze.md_extraction_state
		   (data_type, filing_year, last_extraction_date,
		    last_extraction_timestamp, total_records_extracted,
		    extraction_start_date, extraction_end_date, is_complete, updated_at)
		 VALUES ($1, $2, $3, now(), $4, $5, $6, FALSE, now())
		 ON CONFLICT (data_type, filing_year) DO UPDATE SET
		   last_extraction_date = GREATEST(bronze.md_extraction_state.last_extraction_date, EXCLUDED.last_extraction_date),
		   last_extraction_timestamp = now(),
		   total_records_extracted = bronze.md_extraction_state.total_records_extracted + $4,
		   extraction_start_date = COALESCE(bronze.md_extraction_state.extraction_start_date, EXCLUDED.extraction_start_date),
		   extraction_end_date = EXCLUDED.extraction_end_date,
		   updated_at = now()
		 WHERE NOT bronze.md_extraction_state.is_complete`,
		cp.DataType, cp.FilingYear, cp.LastDate, batchRows, cp.WindowStart, cp.WindowEnd,
	)
	if err != nil {
		return eris.Wrapf(err, "bronze: advance md checkpoint %s/%d", cp.DataType, cp.FilingYear)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("bronze: md checkpoint %s/%d is complete; reset before re-extracting", cp.DataType, cp.FilingYear)
	}
	return nil
}

// MarkMDComplete transitions a Maryland partition to complete.
func (c *CheckpointStore) MarkMDComplete(ctx context.Context, dataType string, filingYear int) error {
	_, err := c.pool.Exec(ctx,
		`UPDATE bronze.md_extraction_state
		 SET is_complete = TRUE, last_extraction_timestamp = now(), updated_at = now()
		 WHERE data_type = $1 AND filing_year = $2`,
		dataType, filingYear,
	)
	if err != nil {
		return eris.Wrapf(err, "bronze: complete md checkpoint %s/%d", dataType, filingYear)
	}
	return nil
}

// ResetMD deletes a Maryland partition's checkpoint.
func (c *CheckpointStore) ResetMD(ctx context.Context, dataType string, filingYear int) error {
	zap.L().Warn("resetting md extraction checkpoint",
		zap.String("data_type", dataType), zap.Int("filing_year", filingYear))
	_, err := c.pool.Exec(ctx,
		`DELETE FROM bronze.md_extraction_state
		 WHERE data_type = $1 AND filing_year = $2`,
		dataType, filingYear,
	)
	if err != nil {
		return eris.Wrapf(err, "bronze: reset md checkpoint %s/%d", dataType, filingYear)
	}
	return nil
}
