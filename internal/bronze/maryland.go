package bronze

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/fundlens/fundlens/internal/contenthash"
	"github.com/fundlens/fundlens/internal/db"
	"github.com/fundlens/fundlens/internal/source"
)

// MDStore writes Maryland export rows into the bronze schema. Contributions
// and candidates have no natural key; identity is the content hash computed
// here, at ingest time, so every path into the table agrees on it.
type MDStore struct {
	pool db.Pool
}

// NewMDStore creates an MDStore backed by the given connection pool.
func NewMDStore(pool db.Pool) *MDStore {
	return &MDStore{pool: pool}
}

var mdContributionColumns = []string{
	"content_hash", "receiving_committee", "filing_period", "contribution_date",
	"contributor_name", "contributor_address", "contributor_type",
	"contribution_type", "contribution_amount", "employer_name",
	"employer_occupation", "office", "fund_type",
}

// UpsertContributions writes contribution rows, computing each row's content
// hash from its defining fields. Values stay exactly as received; the hash
// collapses case and whitespace variants onto one row.
func (s *MDStore) UpsertContributions(ctx context.Context, recs []source.MDContribution) (int64, error) {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		hash := contenthash.ContributionHash(
			r.ReceivingCommittee, r.ContributionDate, r.ContributorName,
			r.ContributorAddress, r.ContributionAmount,
		)
		rows = append(rows, []any{
			hash, r.ReceivingCommittee, r.FilingPeriod, r.ContributionDate,
			r.ContributorName, r.ContributorAddress, r.ContributorType,
			r.ContributionType, r.ContributionAmount, r.EmployerName,
			r.EmployerOccupation, r.Office, r.FundType,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "bronze.md_contribution",
		Columns:      mdContributionColumns,
		ConflictKeys: []string{"content_hash"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "bronze: upsert md contributions")
	}
	return n, nil
}

var mdCommitteeColumns = []string{
	"ccf_id", "committee_type", "committee_name", "committee_status",
	"citation_violations", "election_type", "registered_date", "amended_date",
	"chairperson_name", "chairperson_address", "treasurer_name",
	"treasurer_address",
}

// UpsertCommittees writes committee rows keyed on the state CCF id.
func (s *MDStore) UpsertCommittees(ctx context.Context, recs []source.MDCommittee) (int64, error) {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []any{
			r.CCFID, r.CommitteeType, r.CommitteeName, r.CommitteeStatus,
			r.CitationViolations, r.ElectionType, r.RegisteredDate, r.AmendedDate,
			r.ChairpersonName, r.ChairpersonAddress, r.TreasurerName,
			r.TreasurerAddress,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "bronze.md_committee",
		Columns:      mdCommitteeColumns,
		ConflictKeys: []string{"ccf_id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "bronze: upsert md committees")
	}
	return n, nil
}

var mdCandidateColumns = []string{
	"content_hash", "office_name", "district", "last_name", "first_name",
	"additional_info", "party", "jurisdiction", "gender", "status",
	"filing_type_and_date", "campaign_address_1", "campaign_address_2",
	"campaign_city", "campaign_state", "campaign_zip", "phone_number", "email",
	"website", "facebook", "twitter", "committee_name", "election_year",
	"election_type",
}

// UpsertCandidates writes candidate rows keyed on the content hash of the
// filing's defining fields.
func (s *MDStore) UpsertCandidates(ctx context.Context, recs []source.MDCandidate) (int64, error) {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		hash := contenthash.CandidateHash(
			r.OfficeName, r.LastName, r.FirstName, r.ElectionYear, r.ElectionType,
		)
		rows = append(rows, []any{
			hash, r.OfficeName, r.District, r.LastName, r.FirstName,
			r.AdditionalInfo, r.Party, r.Jurisdiction, r.Gender, r.Status,
			r.FilingTypeAndDate, r.CampaignAddress1, r.CampaignAddress2,
			r.CampaignCity, r.CampaignState, r.CampaignZip, r.PhoneNumber, r.Email,
			r.Website, r.Facebook, r.Twitter, r.CommitteeName, r.ElectionYear,
			r.ElectionType,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "bronze.md_candidate",
		Columns:      mdCandidateColumns,
		ConflictKeys: []string{"content_hash"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "bronze: upsert md candidates")
	}
	return n, nil
}
