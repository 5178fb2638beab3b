package bronze

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fundlens/fundlens/internal/config"
	"github.com/fundlens/fundlens/internal/db"
	"github.com/fundlens/fundlens/internal/source"
	"github.com/fundlens/fundlens/internal/warehouse"
)

// Ingestor drives extraction runs: fetch a page, commit the batch, then
// advance the checkpoint in its own transaction. A crash between the two
// replays one page on resume, which the upsert keys absorb.
//
// One Ingestor may serve many partitions, but a given partition must not be
// ingested by two runs at once; the caller enforces that.
type Ingestor struct {
	fec         source.FECFetcher
	md          source.MDFetcher
	fecStore    *FECStore
	mdStore     *MDStore
	checkpoints *CheckpointStore
	runs        *warehouse.RunLog
	limiter     *rate.Limiter
	cfg         config.IngestConfig
}

// NewIngestor creates an Ingestor. Either fetcher may be nil if only the
// other source is being ingested.
func NewIngestor(pool db.Pool, fec source.FECFetcher, md source.MDFetcher, cfg config.IngestConfig) *Ingestor {
	return &Ingestor{
		fec:         fec,
		md:          md,
		fecStore:    NewFECStore(pool),
		mdStore:     NewMDStore(pool),
		checkpoints: NewCheckpointStore(pool),
		runs:        warehouse.NewRunLog(pool),
		limiter:     rate.NewLimiter(rate.Limit(cfg.PagesPerSecond), 1),
		cfg:         cfg,
	}
}

// RunFEC extracts Schedule A receipts for one (committee, cycle) partition,
// resuming from the last committed page. Completed partitions are skipped.
func (i *Ingestor) RunFEC(ctx context.Context, committeeID string, cycle int) error {
	partition := fmt.Sprintf("fec/%s/%d", committeeID, cycle)
	log := zap.L().With(zap.String("component", "bronze.ingest"), zap.String("partition", partition))

	cp, err := i.checkpoints.GetFEC(ctx, committeeID, cycle)
	if err != nil {
		return err
	}
	if cp != nil && cp.IsComplete {
		log.Info("partition already complete; skipping")
		return nil
	}

	runID, err := i.runs.Start(ctx, "ingest", partition)
	if err != nil {
		return err
	}

	window := i.defaultWindow(cycle)
	page := 1
	if cp != nil {
		page = cp.LastPage + 1
		window = source.DateWindow{Start: cp.WindowStart, End: cp.WindowEnd}
		log.Info("resuming extraction", zap.Int("page", page), zap.Int64("already_extracted", cp.TotalExtracted))
	}

	var total int64
	start := time.Now()
	for {
		if err := i.limiter.Wait(ctx); err != nil {
			return i.fail(ctx, runID, eris.Wrap(err, "bronze: rate limiter wait"))
		}

		result, err := i.fec.ContributionPage(ctx, committeeID, cycle, window, page)
		if err != nil {
			return i.fail(ctx, runID, eris.Wrapf(err, "bronze: fetch schedule A page %d for %s", page, partition))
		}

		if len(result.Records) > 0 {
			n, err := i.fecStore.UpsertContributions(ctx, result.Records)
			if err != nil {
				return i.fail(ctx, runID, err)
			}
			total += n

			last := result.Records[len(result.Records)-1]
			err = i.checkpoints.AdvanceFEC(ctx, FECCheckpoint{
				CommitteeID:   committeeID,
				ElectionCycle: cycle,
				LastDate:      last.ContributionReceiptDate,
				LastSubID:     last.SubID,
				WindowStart:   window.Start,
				WindowEnd:     window.End,
				LastPage:      page,
			}, int64(len(result.Records)))
			if err != nil {
				return i.fail(ctx, runID, err)
			}
		}

		log.Debug("page committed", zap.Int("page", page), zap.Int("records", len(result.Records)))

		if !result.HasMore {
			break
		}
		page++
	}

	if err := i.checkpoints.MarkFECComplete(ctx, committeeID, cycle); err != nil {
		return i.fail(ctx, runID, err)
	}

	log.Info("extraction complete", zap.Int64("rows", total), zap.Duration("elapsed", time.Since(start)))
	return i.complete(ctx, runID, total, map[string]any{"pages": page})
}

// RunFECCandidates extracts the candidate master for one cycle. The master
// endpoints are small; there is no page cursor to checkpoint.
func (i *Ingestor) RunFECCandidates(ctx context.Context, cycle int) error {
	partition := fmt.Sprintf("fec/candidates/%d", cycle)
	runID, err := i.runs.Start(ctx, "ingest", partition)
	if err != nil {
		return err
	}

	if err := i.limiter.Wait(ctx); err != nil {
		return i.fail(ctx, runID, eris.Wrap(err, "bronze: rate limiter wait"))
	}
	recs, err := i.fec.Candidates(ctx, cycle)
	if err != nil {
		return i.fail(ctx, runID, eris.Wrapf(err, "bronze: fetch fec candidates for cycle %d", cycle))
	}

	n, err := i.fecStore.UpsertCandidates(ctx, recs)
	if err != nil {
		return i.fail(ctx, runID, err)
	}
	return i.complete(ctx, runID, n, nil)
}

// RunFECCommittees extracts the committee master for one cycle.
func (i *Ingestor) RunFECCommittees(ctx context.Context, cycle int) error {
	partition := fmt.Sprintf("fec/committees/%d", cycle)
	runID, err := i.runs.Start(ctx, "ingest", partition)
	if err != nil {
		return err
	}

	if err := i.limiter.Wait(ctx); err != nil {
		return i.fail(ctx, runID, eris.Wrap(err, "bronze: rate limiter wait"))
	}
	recs, err := i.fec.Committees(ctx, cycle)
	if err != nil {
		return i.fail(ctx, runID, eris.Wrapf(err, "bronze: fetch fec committees for cycle %d", cycle))
	}

	n, err := i.fecStore.UpsertCommittees(ctx, recs)
	if err != nil {
		return i.fail(ctx, runID, err)
	}
	return i.complete(ctx, runID, n, nil)
}

// RunMDContributions extracts Maryland contributions for one filing year.
// The window opens at the checkpoint's last extraction date so an
// incremental run only re-reads the boundary date.
func (i *Ingestor) RunMDContributions(ctx context.Context, filingYear int) error {
	partition := fmt.Sprintf("md/%s/%d", MDContributions, filingYear)
	log := zap.L().With(zap.String("component", "bronze.ingest"), zap.String("partition", partition))

	cp, err := i.checkpoints.GetMD(ctx, MDContributions, filingYear)
	if err != nil {
		return err
	}
	if cp != nil && cp.IsComplete {
		log.Info("partition already complete; skipping")
		return nil
	}

	runID, err := i.runs.Start(ctx, "ingest", partition)
	if err != nil {
		return err
	}

	window := source.DateWindow{
		Start: fmt.Sprintf("01/01/%d", filingYear),
		End:   fmt.Sprintf("12/31/%d", filingYear),
	}
	if cp != nil && cp.LastDate != "" {
		window.Start = cp.LastDate
		log.Info("resuming extraction", zap.String("from", cp.LastDate))
	}

	if err := i.limiter.Wait(ctx); err != nil {
		return i.fail(ctx, runID, eris.Wrap(err, "bronze: rate limiter wait"))
	}
	recs, err := i.md.Contributions(ctx, filingYear, window)
	if err != nil {
		return i.fail(ctx, runID, eris.Wrapf(err, "bronze: fetch md contributions for %d", filingYear))
	}

	var total int64
	for start := 0; start < len(recs); start += i.cfg.BatchSize {
		end := min(start+i.cfg.BatchSize, len(recs))
		batch := recs[start:end]

		n, err := i.mdStore.UpsertContributions(ctx, batch)
		if err != nil {
			return i.fail(ctx, runID, err)
		}
		total += n

		err = i.checkpoints.AdvanceMD(ctx, MDCheckpoint{
			DataType:    MDContributions,
			FilingYear:  filingYear,
			LastDate:    maxContributionDate(batch),
			WindowStart: window.Start,
			WindowEnd:   window.End,
		}, int64(len(batch)))
		if err != nil {
			return i.fail(ctx, runID, err)
		}
	}

	if err := i.checkpoints.MarkMDComplete(ctx, MDContributions, filingYear); err != nil {
		return i.fail(ctx, runID, err)
	}

	log.Info("extraction complete", zap.Int64("rows", total))
	return i.complete(ctx, runID, total, nil)
}

// RunMDCommittees extracts the Maryland committee export for one year.
func (i *Ingestor) RunMDCommittees(ctx context.Context, filingYear int) error {
	partition := fmt.Sprintf("md/%s/%d", MDCommittees, filingYear)
	log := zap.L().With(zap.String("component", "bronze.ingest"), zap.String("partition", partition))

	cp, err := i.checkpoints.GetMD(ctx, MDCommittees, filingYear)
	if err != nil {
		return err
	}
	if cp != nil && cp.IsComplete {
		log.Info("partition already complete; skipping")
		return nil
	}

	runID, err := i.runs.Start(ctx, "ingest", partition)
	if err != nil {
		return err
	}

	if err := i.limiter.Wait(ctx); err != nil {
		return i.fail(ctx, runID, eris.Wrap(err, "bronze: rate limiter wait"))
	}
	recs, err := i.md.Committees(ctx, filingYear)
	if err != nil {
		return i.fail(ctx, runID, eris.Wrapf(err, "bronze: fetch md committees for %d", filingYear))
	}

	n, err := i.mdStore.UpsertCommittees(ctx, recs)
	if err != nil {
		return i.fail(ctx, runID, err)
	}

	err = i.checkpoints.AdvanceMD(ctx, MDCheckpoint{
		DataType:   MDCommittees,
		FilingYear: filingYear,
	}, n)
	if err != nil {
		return i.fail(ctx, runID, err)
	}
	if err := i.checkpoints.MarkMDComplete(ctx, MDCommittees, filingYear); err != nil {
		return i.fail(ctx, runID, err)
	}
	return i.complete(ctx, runID, n, nil)
}

// RunMDCandidates extracts the Maryland candidate export for one election.
func (i *Ingestor) RunMDCandidates(ctx context.Context, electionYear int, electionType string) error {
	partition := fmt.Sprintf("md/%s/%d", MDCandidates, electionYear)
	log := zap.L().With(zap.String("component", "bronze.ingest"), zap.String("partition", partition))

	cp, err := i.checkpoints.GetMD(ctx, MDCandidates, electionYear)
	if err != nil {
		return err
	}
	if cp != nil && cp.IsComplete {
		log.Info("partition already complete; skipping")
		return nil
	}

	runID, err := i.runs.Start(ctx, "ingest", partition)
	if err != nil {
		return err
	}

	if err := i.limiter.Wait(ctx); err != nil {
		return i.fail(ctx, runID, eris.Wrap(err, "bronze: rate limiter wait"))
	}
	recs, err := i.md.Candidates(ctx, electionYear, electionType)
	if err != nil {
		return i.fail(ctx, runID, eris.Wrapf(err, "bronze: fetch md candidates for %d %s", electionYear, electionType))
	}

	n, err := i.mdStore.UpsertCandidates(ctx, recs)
	if err != nil {
		return i.fail(ctx, runID, err)
	}

	err = i.checkpoints.AdvanceMD(ctx, MDCheckpoint{
		DataType:   MDCandidates,
		FilingYear: electionYear,
	}, n)
	if err != nil {
		return i.fail(ctx, runID, err)
	}
	if err := i.checkpoints.MarkMDComplete(ctx, MDCandidates, electionYear); err != nil {
		return i.fail(ctx, runID, err)
	}
	return i.complete(ctx, runID, n, nil)
}

func (i *Ingestor) defaultWindow(cycle int) source.DateWindow {
	years := i.cfg.DefaultWindowYr
	if years < 1 {
		years = 2
	}
	return source.DateWindow{
		Start: fmt.Sprintf("%d-01-01", cycle-years+1),
		End:   fmt.Sprintf("%d-12-31", cycle),
	}
}

func (i *Ingestor) fail(ctx context.Context, runID uuid.UUID, err error) error {
	if logErr := i.runs.Fail(ctx, runID, err.Error()); logErr != nil {
		zap.L().Error("failed to record run failure", zap.Error(logErr))
	}
	return err
}

func (i *Ingestor) complete(ctx context.Context, runID uuid.UUID, rows int64, meta map[string]any) error {
	if err := i.runs.Complete(ctx, runID, &warehouse.RunResult{Rows: rows, Metadata: meta}); err != nil {
		zap.L().Error("failed to record run completion", zap.Error(err))
	}
	return nil
}

// maxContributionDate returns the chronologically latest date in a batch,
// keeping the source's MM/DD/YYYY spelling for the resume cursor. MDCRIS
// does not zero-pad consistently, so string order is not date order.
// Unparsable dates are skipped; the boundary date is always re-read.
func maxContributionDate(recs []source.MDContribution) string {
	var latest time.Time
	var raw string
	for _, r := range recs {
		d, err := time.Parse("1/2/2006", strings.TrimSpace(r.ContributionDate))
		if err != nil {
			continue
		}
		if raw == "" || d.After(latest) {
			latest = d
			raw = r.ContributionDate
		}
	}
	return raw
}
