package warehouse

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/fundlens/fundlens/internal/db"
)

// Run statuses recorded in warehouse.run_log.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// RunEntry represents a row in warehouse.run_log. Pass names the pipeline
// stage (ingest, normalize, resolve); Partition labels the unit of work
// within it, e.g. "fec/C00401224/2024" or "md/contributions/2024".
type RunEntry struct {
	ID          uuid.UUID      `json:"id"`
	Pass        string         `json:"pass"`
	Partition   string         `json:"partition"`
	Status      string         `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Rows        int64          `json:"rows"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// RunResult holds the outcome of a run, passed to Complete().
type RunResult struct {
	Rows     int64          `json:"rows"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RunLog provides read/write access to the warehouse.run_log table.
type RunLog struct {
	pool db.Pool
}

// NewRunLog creates a RunLog backed by the given connection pool.
func NewRunLog(pool db.Pool) *RunLog {
	return &RunLog{pool: pool}
}

// Start records the beginning of a run and returns its id.
func (l *RunLog) Start(ctx context.Context, pass, partition string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := l.pool.Exec(ctx,
		`INSERT INTO warehouse.run_log (id, pass, partition, status, started_at)
		 VALUES ($1, $2, $3, 'running', now())`,
		id, pass, partition,
	)
	if err != nil {
		return uuid.Nil, eris.Wrapf(err, "runlog: start %s run for %s", pass, partition)
	}
	return id, nil
}

// Complete marks a run as successfully completed.
func (l *RunLog) Complete(ctx context.Context, runID uuid.UUID, result *RunResult) error {
	var metaJSON []byte
	if result != nil && result.Metadata != nil {
		var err error
		metaJSON, err = json.Marshal(result.Metadata)
		if err != nil {
			return eris.Wrap(err, "runlog: marshal metadata")
		}
	}

	rows := int64(0)
	if result != nil {
		rows = result.Rows
	}

	_, err := l.pool.Exec(ctx,
		`UPDATE warehouse.run_log
		 SET status = 'complete', completed_at = now(), rows = $1, metadata = $2
		 WHERE id = $3`,
		rows, metaJSON, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: complete run %s", runID)
	}
	return nil
}

// Fail marks a run as failed with an error message.
func (l *RunLog) Fail(ctx context.Context, runID uuid.UUID, errMsg string) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE warehouse.run_log
		 SET status = 'failed', completed_at = now(), error = $1
		 WHERE id = $2`,
		errMsg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: fail run %s", runID)
	}
	return nil
}

// LastSuccess returns the started_at time of the most recent completed run
// for a pass/partition pair, or nil if there has never been one.
func (l *RunLog) LastSuccess(ctx context.Context, pass, partition string) (*time.Time, error) {
	var t time.Time
	err := l.pool.QueryRow(ctx,
		`SELECT started_at FROM warehouse.run_log
		 WHERE pass = $1 AND partition = $2 AND status = 'complete'
		 ORDER BY started_at DESC LIMIT 1`,
		pass, partition,
	).Scan(&t)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "runlog: last success for %s/%s", pass, partition)
	}
	return &t, nil
}

// LastRuns returns the most recent n run entries, newest first.
func (l *RunLog) LastRuns(ctx context.Context, n int) ([]RunEntry, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, pass, partition, status, started_at, completed_at, rows, error, metadata
		 FROM warehouse.run_log ORDER BY started_at DESC LIMIT $1`,
		n,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list runs")
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var completedAt *time.Time
		var errStr *string
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.Pass, &e.Partition, &e.Status, &e.StartedAt, &completedAt, &e.Rows, &errStr, &metaJSON); err != nil {
			return nil, eris.Wrap(err, "runlog: scan run entry")
		}
		e.CompletedAt = completedAt
		if errStr != nil {
			e.Error = *errStr
		}
		if metaJSON != nil {
			_ = json.Unmarshal(metaJSON, &e.Metadata)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
