package bronze

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundlens/fundlens/internal/config"
	"github.com/fundlens/fundlens/internal/source"
)

// fakeFECFetcher serves canned pages and records which page numbers were
// requested.
type fakeFECFetcher struct {
	pages          map[int]source.FECContributionPage
	requestedPages []int
	err            error
}

func (f *fakeFECFetcher) ContributionPage(_ context.Context, _ string, _ int, _ source.DateWindow, page int) (source.FECContributionPage, error) {
	f.requestedPages = append(f.requestedPages, page)
	if f.err != nil {
		return source.FECContributionPage{}, f.err
	}
	p, ok := f.pages[page]
	if !ok {
		return source.FECContributionPage{Page: page}, nil
	}
	return p, nil
}

func (f *fakeFECFetcher) Candidates(context.Context, int) ([]source.FECCandidate, error) {
	return nil, nil
}

func (f *fakeFECFetcher) Committees(context.Context, int) ([]source.FECCommittee, error) {
	return nil, nil
}

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		PageSize:       100,
		BatchSize:      5000,
		PagesPerSecond: 10000, // no pacing in tests
		MaxPartitions:  1,
	}
}

func fecRecord(subID, date string) source.FECContribution {
	return source.FECContribution{
		SubID:                     subID,
		ContributionReceiptDate:   date,
		ContributionReceiptAmount: "250.00",
		CommitteeID:               "C00401224",
	}
}

// expectScheduleAUpsert adds the full BulkUpsert expectation chain for a
// Schedule A batch of n rows.
func expectScheduleAUpsert(mock pgxmock.PgxPoolIface, n int64) {
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_bronze_fec_schedule_a"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_bronze_fec_schedule_a"}, fecScheduleAColumns).
		WillReturnResult(n)
	mock.ExpectExec(`INSERT INTO "bronze"."fec_schedule_a"`).
		WillReturnResult(pgxmock.NewResult("INSERT", n))
	mock.ExpectCommit()
	mock.ExpectRollback()
}

func TestIngestor_RunFEC_FreshPartition(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	fetcher := &fakeFECFetcher{pages: map[int]source.FECContributionPage{
		1: {Records: []source.FECContribution{fecRecord("SA1", "2024-01-01"), fecRecord("SA2", "2024-01-02")}, Page: 1, HasMore: true},
		2: {Records: []source.FECContribution{fecRecord("SA3", "2024-01-03")}, Page: 2, HasMore: false},
	}}

	// No checkpoint yet.
	mock.ExpectQuery("SELECT last_contribution_date, last_sub_id").
		WithArgs("C00401224", 2024).
		WillReturnError(fmt.Errorf("no rows in result set"))

	mock.ExpectExec("INSERT INTO warehouse.run_log").
		WithArgs(pgxmock.AnyArg(), "ingest", "fec/C00401224/2024").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	// Page 1: batch upsert then checkpoint advance.
	expectScheduleAUpsert(mock, 2)
	mock.ExpectExec("INSERT INTO bronze.fec_extraction_state").
		WithArgs("C00401224", 2024, "2024-01-02", "SA2", int64(2), "2023-01-01", "2024-12-31", 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	// Page 2.
	expectScheduleAUpsert(mock, 1)
	mock.ExpectExec("INSERT INTO bronze.fec_extraction_state").
		WithArgs("C00401224", 2024, "2024-01-03", "SA3", int64(1), "2023-01-01", "2024-12-31", 2).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectExec("UPDATE bronze.fec_extraction_state").
		WithArgs("C00401224", 2024).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	mock.ExpectExec("UPDATE warehouse.run_log").
		WithArgs(int64(3), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ing := NewIngestor(mock, fetcher, nil, testIngestConfig())
	err = ing.RunFEC(context.Background(), "C00401224", 2024)
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2}, fetcher.requestedPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestor_RunFEC_ResumesAfterCheckpoint(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	fetcher := &fakeFECFetcher{pages: map[int]source.FECContributionPage{
		4: {Records: []source.FECContribution{fecRecord("SA400", "2024-04-01")}, Page: 4, HasMore: false},
	}}

	// Checkpoint committed through page 3.
	rows := pgxmock.NewRows([]string{
		"last_contribution_date", "last_sub_id", "total_contributions_extracted",
		"last_extraction_timestamp", "extraction_start_date", "extraction_end_date",
		"is_complete", "last_page_processed",
	}).AddRow("2024-03-31", "SA300", int64(300), nil, "2023-01-01", "2024-12-31", false, 3)
	mock.ExpectQuery("SELECT last_contribution_date, last_sub_id").
		WithArgs("C00401224", 2024).
		WillReturnRows(rows)

	mock.ExpectExec("INSERT INTO warehouse.run_log").
		WithArgs(pgxmock.AnyArg(), "ingest", "fec/C00401224/2024").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	expectScheduleAUpsert(mock, 1)
	mock.ExpectExec("INSERT INTO bronze.fec_extraction_state").
		WithArgs("C00401224", 2024, "2024-04-01", "SA400", int64(1), "2023-01-01", "2024-12-31", 4).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectExec("UPDATE bronze.fec_extraction_state").
		WithArgs("C00401224", 2024).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	mock.ExpectExec("UPDATE warehouse.run_log").
		WithArgs(int64(1), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ing := NewIngestor(mock, fetcher, nil, testIngestConfig())
	err = ing.RunFEC(context.Background(), "C00401224", 2024)
	assert.NoError(t, err)
	assert.Equal(t, []int{4}, fetcher.requestedPages, "must resume at last committed page + 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestor_RunFEC_SkipsCompletePartition(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	fetcher := &fakeFECFetcher{}

	rows := pgxmock.NewRows([]string{
		"last_contribution_date", "last_sub_id", "total_contributions_extracted",
		"last_extraction_timestamp", "extraction_start_date", "extraction_end_date",
		"is_complete", "last_page_processed",
	}).AddRow("2024-12-30", "SA999", int64(990), nil, "2023-01-01", "2024-12-31", true, 10)
	mock.ExpectQuery("SELECT last_contribution_date, last_sub_id").
		WithArgs("C00401224", 2024).
		WillReturnRows(rows)

	ing := NewIngestor(mock, fetcher, nil, testIngestConfig())
	err = ing.RunFEC(context.Background(), "C00401224", 2024)
	assert.NoError(t, err)
	assert.Empty(t, fetcher.requestedPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestor_RunFEC_FetchErrorDoesNotAdvance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	fetcher := &fakeFECFetcher{err: fmt.Errorf("429 too many requests")}

	mock.ExpectQuery("SELECT last_contribution_date, last_sub_id").
		WithArgs("C00401224", 2024).
		WillReturnError(fmt.Errorf("no rows in result set"))

	mock.ExpectExec("INSERT INTO warehouse.run_log").
		WithArgs(pgxmock.AnyArg(), "ingest", "fec/C00401224/2024").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	// Failure is recorded; no upsert, no checkpoint advance.
	mock.ExpectExec("UPDATE warehouse.run_log").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ing := NewIngestor(mock, fetcher, nil, testIngestConfig())
	err = ing.RunFEC(context.Background(), "C00401224", 2024)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch schedule A page 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// fakeMDFetcher serves canned Maryland export rows.
type fakeMDFetcher struct {
	contributions  []source.MDContribution
	gotWindow      source.DateWindow
	committeeCalls int
	candidateCalls int
}

func (f *fakeMDFetcher) Contributions(_ context.Context, _ int, window source.DateWindow) ([]source.MDContribution, error) {
	f.gotWindow = window
	return f.contributions, nil
}

func (f *fakeMDFetcher) Committees(context.Context, int) ([]source.MDCommittee, error) {
	f.committeeCalls++
	return nil, nil
}

func (f *fakeMDFetcher) Candidates(context.Context, int, string) ([]source.MDCandidate, error) {
	f.candidateCalls++
	return nil, nil
}

func TestIngestor_RunMDContributions_ResumesFromLastDate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	fetcher := &fakeMDFetcher{contributions: []source.MDContribution{
		{ReceivingCommittee: "Friends of Doe", ContributionDate: "07/01/2024", ContributorName: "SMITH JOHN", ContributionAmount: "100.00"},
	}}

	rows := pgxmock.NewRows([]string{
		"last_extraction_date", "last_extraction_timestamp", "total_records_extracted",
		"extraction_start_date", "extraction_end_date", "is_complete",
	}).AddRow("06/30/2024", nil, int64(5000), "01/01/2024", "12/31/2024", false)
	mock.ExpectQuery("SELECT last_extraction_date, last_extraction_timestamp").
		WithArgs(MDContributions, 2024).
		WillReturnRows(rows)

	mock.ExpectExec("INSERT INTO warehouse.run_log").
		WithArgs(pgxmock.AnyArg(), "ingest", "md/contributions/2024").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_bronze_md_contribution"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_bronze_md_contribution"}, mdContributionColumns).
		WillReturnResult(1)
	mock.ExpectExec(`INSERT INTO "bronze"."md_contribution"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	mock.ExpectExec("INSERT INTO bronze.md_extraction_state").
		WithArgs(MDContributions, 2024, "07/01/2024", int64(1), "06/30/2024", "12/31/2024").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectExec("UPDATE bronze.md_extraction_state").
		WithArgs(MDContributions, 2024).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	mock.ExpectExec("UPDATE warehouse.run_log").
		WithArgs(int64(1), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ing := NewIngestor(mock, nil, fetcher, testIngestConfig())
	err = ing.RunMDContributions(context.Background(), 2024)
	assert.NoError(t, err)
	assert.Equal(t, "06/30/2024", fetcher.gotWindow.Start, "window reopens at the checkpoint date")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func completeMDCheckpointRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"last_extraction_date", "last_extraction_timestamp", "total_records_extracted",
		"extraction_start_date", "extraction_end_date", "is_complete",
	}).AddRow("", nil, int64(1200), "01/01/2024", "12/31/2024", true)
}

func TestIngestor_RunMDCommittees_SkipsCompletePartition(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	fetcher := &fakeMDFetcher{}

	// A second `ingest md` for the same year must be a no-op, not a failed
	// run: the snapshot is already committed and the checkpoint refuses to
	// advance a completed partition.
	mock.ExpectQuery("SELECT last_extraction_date, last_extraction_timestamp").
		WithArgs(MDCommittees, 2024).
		WillReturnRows(completeMDCheckpointRows())

	ing := NewIngestor(mock, nil, fetcher, testIngestConfig())
	err = ing.RunMDCommittees(context.Background(), 2024)
	assert.NoError(t, err)
	assert.Zero(t, fetcher.committeeCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestor_RunMDCandidates_SkipsCompletePartition(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	fetcher := &fakeMDFetcher{}

	mock.ExpectQuery("SELECT last_extraction_date, last_extraction_timestamp").
		WithArgs(MDCandidates, 2026).
		WillReturnRows(completeMDCheckpointRows())

	ing := NewIngestor(mock, nil, fetcher, testIngestConfig())
	err = ing.RunMDCandidates(context.Background(), 2026, "Gubernatorial")
	assert.NoError(t, err)
	assert.Zero(t, fetcher.candidateCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDefaultWindow_ConfiguredYears(t *testing.T) {
	tests := []struct {
		name      string
		years     int
		wantStart string
	}{
		{"default two-year cycle", 0, "2023-01-01"},
		{"explicit two", 2, "2023-01-01"},
		{"four-year lookback", 4, "2021-01-01"},
		{"single year", 1, "2024-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testIngestConfig()
			cfg.DefaultWindowYr = tt.years
			ing := NewIngestor(nil, nil, nil, cfg)

			w := ing.defaultWindow(2024)
			assert.Equal(t, tt.wantStart, w.Start)
			assert.Equal(t, "2024-12-31", w.End)
		})
	}
}

func TestMaxContributionDate_ChronologicalNotLexicographic(t *testing.T) {
	recs := []source.MDContribution{
		{ContributionDate: "9/2/2024"},
		{ContributionDate: "10/1/2024"},
		{ContributionDate: "not a date"},
		{ContributionDate: "1/15/2024"},
	}
	assert.Equal(t, "10/1/2024", maxContributionDate(recs))
}

func TestMaxContributionDate_AllUnparsable(t *testing.T) {
	recs := []source.MDContribution{{ContributionDate: "pending"}}
	assert.Equal(t, "", maxContributionDate(recs))
}
