package silver

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestMDNormalizer_Contributions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Committee lookup.
	mock.ExpectQuery("SELECT ccf_id, COALESCE\\(committee_name").
		WillReturnRows(pgxmock.NewRows([]string{"ccf_id", "committee_name", "committee_type"}).
			AddRow("CCF001", "Friends of Doe", "Candidate"))

	// Bronze read: one clean row, one with an unparsable amount, one with no
	// date. Only the first lands in silver.
	bronzeCols := []string{
		"content_hash", "receiving_committee", "filing_period", "contribution_date",
		"contributor_name", "contributor_address", "contributor_type",
		"contribution_type", "contribution_amount", "employer_name",
		"employer_occupation", "office", "fund_type",
	}
	mock.ExpectQuery("SELECT content_hash, COALESCE\\(receiving_committee").
		WillReturnRows(pgxmock.NewRows(bronzeCols).
			AddRow("a1", "FRIENDS OF DOE", "2024 Annual", "01/15/2024",
				"SMITH JOHN", "1 MAIN ST BALTIMORE MD 21201", "Individual",
				"Check", "250.00", "", "", "Governor", "Electoral").
			AddRow("a2", "FRIENDS OF DOE", "2024 Annual", "01/16/2024",
				"JONES MARY", "2 ELM ST TOWSON MD 21204", "Individual",
				"Check", "n/a", "ACME", "CLERK", "Governor", "Electoral").
			AddRow("a3", "FRIENDS OF DOE", "2024 Annual", "",
				"LEE KIM", "", "Individual",
				"Check", "75.00", "", "", "Governor", "Electoral"))

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_silver_md_contribution"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_silver_md_contribution"}, silverMDContributionColumns).
		WillReturnResult(1)
	mock.ExpectExec(`ON CONFLICT \("source_content_hash"\)`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	res, err := NewMDNormalizer(mock, 100).Contributions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Processed)
	assert.Equal(t, int64(2), res.Skipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMDNormalizer_Committees_FlagsViolations(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{
		"ccf_id", "committee_name", "committee_type", "committee_status",
		"citation_violations", "election_type", "registered_date",
		"amended_date", "chairperson_name", "treasurer_name",
	}
	mock.ExpectQuery("SELECT ccf_id, COALESCE\\(committee_name").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("CCF001", "Friends of Doe", "Candidate", "Active",
				"", "Gubernatorial", "06/01/2022", "", "DOE JANE", "ROE RICK").
			AddRow("CCF002", "Citizens PAC", "PAC", "Active",
				"Failure to file 2023", "Gubernatorial", "bad-date", "", "", ""))

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_silver_md_committee"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_silver_md_committee"}, silverMDCommitteeColumns).
		WillReturnResult(2)
	mock.ExpectExec(`ON CONFLICT \("source_ccf_id"\)`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()
	mock.ExpectRollback()

	res, err := NewMDNormalizer(mock, 100).Committees(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Processed)
	assert.Zero(t, res.Skipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}
