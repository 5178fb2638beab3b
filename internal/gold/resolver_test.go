package gold

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fundlens/fundlens/internal/config"
)

func testResolver(t *testing.T) (*Resolver, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewResolver(mock, config.ResolveConfig{
		MergeThreshold: 0.85,
		FuzzyNameFloor: 0.6,
		SecondaryBonus: 0.10,
		MaxFuzzyScore:  0.99,
	}, 500), mock
}

// anyArgs returns n wildcard matchers, for expectations that only care that
// the statement ran, not what was bound.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestResolveFECCandidates_ExactRefUpdatesInPlace(t *testing.T) {
	r, mock := testResolver(t)

	silverRows := pgxmock.NewRows([]string{
		"source_candidate_id", "name", "office", "state", "district", "party",
		"is_active", "first_election_year", "last_election_year",
	}).AddRow("S8MD00123", "DOE, JANE", "S", "MD", "", "DEM", true, 2018, 2024)
	mock.ExpectQuery("SELECT source_candidate_id, name").WillReturnRows(silverRows)

	mock.ExpectExec("UPDATE gold.candidate SET").
		WithArgs(anyArgs(16)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	idx := newCandidateIndex([]Candidate{{
		ID:              41,
		Name:            "JANE DOE",
		FECCandidateID:  "S8MD00123",
		MatchConfidence: 1.0,
	}})

	n, err := r.resolveFECCandidates(context.Background(), zap.NewNop(), idx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	// Same entity, refreshed attributes, no new row.
	require.Len(t, idx.list, 1)
	assert.Equal(t, int64(41), idx.list[0].ID)
	assert.Equal(t, "DOE, JANE", idx.list[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveMDCandidates_FuzzyMergeLinksSecondSource(t *testing.T) {
	r, mock := testResolver(t)

	silverRows := pgxmock.NewRows([]string{
		"source_content_hash", "full_name", "office_name", "district", "party",
		"jurisdiction", "status", "election_year",
	}).AddRow("hash1", "Jane Doe", "Governor", "", "DEM", "Statewide", "Active", 2026)
	mock.ExpectQuery("SELECT source_content_hash, full_name").WillReturnRows(silverRows)

	mock.ExpectExec("UPDATE gold.candidate SET").
		WithArgs(anyArgs(16)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	// Gold already holds the FEC side of the same person. Name match is
	// exact, plus state and party bonuses, so the score clears the
	// threshold and the state reference lands on the existing entity.
	idx := newCandidateIndex([]Candidate{{
		ID:              41,
		Name:            "DOE, JANE",
		State:           "MD",
		Party:           "DEM",
		FECCandidateID:  "S8MD00123",
		MatchConfidence: 1.0,
	}})

	n, err := r.resolveMDCandidates(context.Background(), zap.NewNop(), idx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.Len(t, idx.list, 1)
	assert.Equal(t, "hash1", idx.list[0].StateCandidateID)
	assert.Equal(t, "S8MD00123", idx.list[0].FECCandidateID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveMDCandidates_BelowThresholdCreatesNew(t *testing.T) {
	r, mock := testResolver(t)

	silverRows := pgxmock.NewRows([]string{
		"source_content_hash", "full_name", "office_name", "district", "party",
		"jurisdiction", "status", "election_year",
	}).AddRow("hash2", "Robert Roe", "Sheriff", "", "REP", "Harford County", "Active", 2026)
	mock.ExpectQuery("SELECT source_content_hash, full_name").WillReturnRows(silverRows)

	mock.ExpectQuery("INSERT INTO gold.candidate").
		WithArgs(anyArgs(15)...).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(99)))

	idx := newCandidateIndex([]Candidate{{
		ID:              41,
		Name:            "JANE DOE",
		State:           "MD",
		FECCandidateID:  "S8MD00123",
		MatchConfidence: 1.0,
	}})

	n, err := r.resolveMDCandidates(context.Background(), zap.NewNop(), idx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.Len(t, idx.list, 2)
	assert.Equal(t, int64(99), idx.list[1].ID)
	assert.Equal(t, "hash2", idx.list[1].StateCandidateID)
	assert.Equal(t, "Harford County", idx.list[1].OfficeCounty)
	assert.Equal(t, 1.0, idx.list[1].MatchConfidence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMergeOrInsertCandidate_TieCreatesNew(t *testing.T) {
	r, mock := testResolver(t)

	mock.ExpectQuery("INSERT INTO gold.candidate").
		WithArgs(anyArgs(15)...).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(5)))

	// Two existing entities score identically, so the match is ambiguous
	// and a third entity is created instead of guessing.
	idx := newCandidateIndex([]Candidate{
		{ID: 1, Name: "JANE DOE", State: "MD"},
		{ID: 2, Name: "JANE DOE", State: "MD"},
	})
	incoming := Candidate{Name: "JANE DOE", State: "MD", StateCandidateID: "hash3", MatchConfidence: 1.0}

	merged, err := r.mergeOrInsertCandidate(context.Background(), zap.NewNop(), idx, incoming, func(c Candidate) float64 {
		return r.match.Score(incoming.Name, c.Name, Discriminator{incoming.State, c.State})
	})
	require.NoError(t, err)
	assert.False(t, merged)
	require.Len(t, idx.list, 3)
	assert.Equal(t, int64(5), idx.list[2].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveContributor_ExactKeyShortCircuits(t *testing.T) {
	r, mock := testResolver(t)

	existing := Contributor{
		ID:       21,
		Name:     "JOHN SMITH",
		City:     "BALTIMORE",
		State:    "MD",
		Zip5:     "21201",
		Employer: "ACME",
	}
	idx := newContributorIndex([]Contributor{existing})

	// Identical identity fields, different surface casing: no DB calls.
	id, err := r.resolveContributor(context.Background(), zap.NewNop(), idx, Contributor{
		Name:     "John Smith",
		City:     "Baltimore",
		State:    "md",
		Zip5:     "21201",
		Employer: "Acme, Inc.",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(21), id)
	require.Len(t, idx.list, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveContributor_FuzzyMergeRaisesConfidence(t *testing.T) {
	r, mock := testResolver(t)

	mock.ExpectExec("UPDATE gold.contributor").
		WithArgs(anyArgs(2)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	idx := newContributorIndex([]Contributor{{
		ID:              21,
		Name:            "JOHN SMITH",
		State:           "MD",
		Employer:        "ACME",
		MatchConfidence: 0.90,
	}})

	id, err := r.resolveContributor(context.Background(), zap.NewNop(), idx, Contributor{
		Name:     "JOHN SMITH",
		City:     "TOWSON", // different city breaks the exact key
		State:    "MD",
		Employer: "ACME",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(21), id)
	require.Len(t, idx.list, 1)
	assert.Equal(t, 0.99, idx.list[0].MatchConfidence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveContributor_NewContributorInserted(t *testing.T) {
	r, mock := testResolver(t)

	mock.ExpectQuery("INSERT INTO gold.contributor").
		WithArgs(anyArgs(10)...).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(33)))

	idx := newContributorIndex(nil)
	id, err := r.resolveContributor(context.Background(), zap.NewNop(), idx, Contributor{
		Name:  "MARY MAJOR",
		State: "MD",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(33), id)
	require.Len(t, idx.list, 1)

	// The same sighting again resolves without touching the database.
	again, err := r.resolveContributor(context.Background(), zap.NewNop(), idx, Contributor{
		Name:  "MARY MAJOR",
		State: "MD",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(33), again)
	require.Len(t, idx.list, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveContributor_EmptyName(t *testing.T) {
	r, mock := testResolver(t)

	idx := newContributorIndex(nil)
	id, err := r.resolveContributor(context.Background(), zap.NewNop(), idx, Contributor{})
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.Empty(t, idx.list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsEarmark(t *testing.T) {
	tests := []struct {
		name        string
		receiptType string
		memoCode    string
		memoText    string
		want        bool
	}{
		{"15E receipt", "15E", "", "", true},
		{"memo coded earmark", "15", "X", "EARMARKED THROUGH ACTBLUE", true},
		{"memo code without earmark text", "15", "X", "PARTNERSHIP ATTRIBUTION", false},
		{"earmark text without memo code", "15", "", "EARMARKED THROUGH ACTBLUE", false},
		{"plain receipt", "15", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isEarmark(tt.receiptType, tt.memoCode, tt.memoText))
		})
	}
}

func TestEarmarkConduitName(t *testing.T) {
	tests := []struct {
		name string
		memo string
		want string
	}{
		{"earmarked through", "EARMARKED THROUGH ACTBLUE", "ACTBLUE"},
		{"earmarked via", "EARMARKED VIA WINRED", "WINRED"},
		{"via inside sentence", "CONTRIBUTION TO FRIENDS OF DOE VIA ACTBLUE", "ACTBLUE"},
		{"trailing period", "EARMARKED THROUGH ACTBLUE.", "ACTBLUE"},
		{"no conduit", "PARTNERSHIP ATTRIBUTION", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, earmarkConduitName(tt.memo))
		})
	}
}
