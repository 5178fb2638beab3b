// Package bronze holds raw, source-faithful rows and the extraction
// checkpoints that make re-ingestion safe. Nothing here cleans or
// interprets source values beyond the minimum the column types require.
package bronze

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/fundlens/fundlens/internal/db"
	"github.com/fundlens/fundlens/internal/source"
)

// FECStore writes FEC records into the bronze schema, keyed on the API's
// natural keys. Upserts are idempotent: re-ingesting an already-seen record
// rewrites the same values.
type FECStore struct {
	pool db.Pool
}

// NewFECStore creates an FECStore backed by the given connection pool.
func NewFECStore(pool db.Pool) *FECStore {
	return &FECStore{pool: pool}
}

var fecScheduleAColumns = []string{
	"sub_id", "transaction_id", "file_number", "amendment_indicator",
	"contribution_receipt_date", "contribution_receipt_amount",
	"contributor_aggregate_ytd", "contributor_name", "contributor_first_name",
	"contributor_middle_name", "contributor_last_name", "contributor_city",
	"contributor_state", "contributor_zip", "contributor_employer",
	"contributor_occupation", "entity_type", "committee_id", "committee_name",
	"recipient_committee_designation", "recipient_committee_type",
	"recipient_committee_org_type", "receipt_type", "election_type",
	"memo_text", "memo_code", "two_year_transaction_period", "report_year",
	"report_type", "raw_json",
}

// UpsertContributions writes one page of Schedule A receipts.
func (s *FECStore) UpsertContributions(ctx context.Context, recs []source.FECContribution) (int64, error) {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		amount, err := db.NullNumeric(r.ContributionReceiptAmount)
		if err != nil {
			return 0, eris.Wrapf(err, "bronze: schedule A %s amount", r.SubID)
		}
		ytd, err := db.NullNumeric(r.ContributorAggregateYTD)
		if err != nil {
			return 0, eris.Wrapf(err, "bronze: schedule A %s aggregate ytd", r.SubID)
		}
		rows = append(rows, []any{
			r.SubID, r.TransactionID, r.FileNumber, r.AmendmentIndicator,
			r.ContributionReceiptDate, amount,
			ytd, r.ContributorName, r.ContributorFirstName,
			r.ContributorMiddleName, r.ContributorLastName, r.ContributorCity,
			r.ContributorState, r.ContributorZip, r.ContributorEmployer,
			r.ContributorOccupation, r.EntityType, r.CommitteeID, r.CommitteeName,
			r.RecipientCommitteeDesig, r.RecipientCommitteeType,
			r.RecipientCommitteeOrgType, r.ReceiptType, r.ElectionType,
			r.MemoText, r.MemoCode, r.TwoYearTransactionPeriod, r.ReportYear,
			r.ReportType, r.RawJSON,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "bronze.fec_schedule_a",
		Columns:      fecScheduleAColumns,
		ConflictKeys: []string{"sub_id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "bronze: upsert fec schedule A")
	}
	return n, nil
}

var fecCandidateColumns = []string{
	"candidate_id", "name", "first_name", "last_name", "office", "office_full",
	"state", "district", "district_number", "party", "party_full",
	"incumbent_challenge", "cycles", "election_years", "election_districts",
	"candidate_status", "has_raised_funds", "federal_funds_flag",
	"first_file_date", "last_file_date", "address_street_1", "address_street_2",
	"address_city", "address_state", "address_zip", "raw_json",
}

// UpsertCandidates writes candidate master records.
func (s *FECStore) UpsertCandidates(ctx context.Context, recs []source.FECCandidate) (int64, error) {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []any{
			r.CandidateID, r.Name, r.FirstName, r.LastName, r.Office, r.OfficeFull,
			r.State, r.District, r.DistrictNumber, r.Party, r.PartyFull,
			r.IncumbentChallenge, r.Cycles, r.ElectionYears, r.ElectionDistricts,
			r.CandidateStatus, r.HasRaisedFunds, r.FederalFundsFlag,
			r.FirstFileDate, r.LastFileDate, r.AddressStreet1, r.AddressStreet2,
			r.AddressCity, r.AddressState, r.AddressZip, r.RawJSON,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "bronze.fec_candidate",
		Columns:      fecCandidateColumns,
		ConflictKeys: []string{"candidate_id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "bronze: upsert fec candidates")
	}
	return n, nil
}

var fecCommitteeColumns = []string{
	"committee_id", "name", "committee_type", "committee_type_full",
	"designation", "designation_full", "party", "party_full", "state", "city",
	"street_1", "street_2", "zip", "treasurer_name", "organization_type",
	"organization_type_full", "filing_frequency", "first_file_date",
	"last_file_date", "candidate_ids", "is_active", "cycles", "raw_json",
}

// UpsertCommittees writes committee master records.
func (s *FECStore) UpsertCommittees(ctx context.Context, recs []source.FECCommittee) (int64, error) {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []any{
			r.CommitteeID, r.Name, r.CommitteeType, r.CommitteeTypeFull,
			r.Designation, r.DesignationFull, r.Party, r.PartyFull, r.State, r.City,
			r.Street1, r.Street2, r.Zip, r.TreasurerName, r.OrganizationType,
			r.OrganizationTypeFull, r.FilingFrequency, r.FirstFileDate,
			r.LastFileDate, r.CandidateIDs, r.IsActive, r.Cycles, r.RawJSON,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "bronze.fec_committee",
		Columns:      fecCommitteeColumns,
		ConflictKeys: []string{"committee_id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "bronze: upsert fec committees")
	}
	return n, nil
}
