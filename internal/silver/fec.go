package silver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fundlens/fundlens/internal/db"
)

// Result counts the outcome of one normalization pass. Skipped rows failed
// a hard requirement (no date, unparsable amount); they stay in bronze and
// are retried on the next pass.
type Result struct {
	Processed int64
	Skipped   int64
}

// FECNormalizer builds the silver FEC tables from bronze.
type FECNormalizer struct {
	pool      db.Pool
	batchSize int
}

// NewFECNormalizer creates a normalizer writing in batches of batchSize.
func NewFECNormalizer(pool db.Pool, batchSize int) *FECNormalizer {
	return &FECNormalizer{pool: pool, batchSize: batchSize}
}

type committeeInfo struct {
	name          string
	committeeType string
	designation   string
	party         string
	candidateID   string
}

type candidateInfo struct {
	name   string
	office string
	party  string
}

// committeeLookup loads the bronze committee master keyed by committee id.
func (n *FECNormalizer) committeeLookup(ctx context.Context) (map[string]committeeInfo, error) {
	rows, err := n.pool.Query(ctx,
		`SELECT committee_id, COALESCE(name, ''), COALESCE(committee_type, ''),
		        COALESCE(designation, ''), COALESCE(party, ''), candidate_ids
		 FROM bronze.fec_committee`)
	if err != nil {
		return nil, eris.Wrap(err, "silver: load fec committee lookup")
	}
	defer rows.Close()

	lookup := make(map[string]committeeInfo)
	for rows.Next() {
		var id string
		var info committeeInfo
		var candidateIDs []byte
		if err := rows.Scan(&id, &info.name, &info.committeeType, &info.designation, &info.party, &candidateIDs); err != nil {
			return nil, eris.Wrap(err, "silver: scan fec committee lookup")
		}
		if len(candidateIDs) > 0 {
			var ids []string
			if err := json.Unmarshal(candidateIDs, &ids); err == nil && len(ids) > 0 {
				info.candidateID = ids[0]
			}
		}
		lookup[id] = info
	}
	return lookup, rows.Err()
}

// candidateLookup loads the bronze candidate master keyed by candidate id.
func (n *FECNormalizer) candidateLookup(ctx context.Context) (map[string]candidateInfo, error) {
	rows, err := n.pool.Query(ctx,
		`SELECT candidate_id, COALESCE(name, ''), COALESCE(office, ''), COALESCE(party, '')
		 FROM bronze.fec_candidate`)
	if err != nil {
		return nil, eris.Wrap(err, "silver: load fec candidate lookup")
	}
	defer rows.Close()

	lookup := make(map[string]candidateInfo)
	for rows.Next() {
		var id string
		var info candidateInfo
		if err := rows.Scan(&id, &info.name, &info.office, &info.party); err != nil {
			return nil, eris.Wrap(err, "silver: scan fec candidate lookup")
		}
		lookup[id] = info
	}
	return lookup, rows.Err()
}

var silverFECContributionColumns = []string{
	"source_sub_id", "transaction_id", "contribution_date", "amount",
	"aggregate_ytd", "contributor_name", "contributor_first_name",
	"contributor_last_name", "contributor_city", "contributor_state",
	"contributor_zip5", "contributor_employer", "contributor_occupation",
	"entity_type", "committee_id", "committee_name", "committee_type",
	"committee_designation", "committee_party", "candidate_id",
	"candidate_name", "candidate_office", "candidate_party", "receipt_type",
	"election_type", "memo_code", "memo_text", "election_cycle", "report_year",
}

// Contributions normalizes bronze Schedule A rows. Committee and candidate
// context is denormalized from the bronze masters at this point; a receipt
// whose committee is not in the master gets null enrichment columns, never
// a failed record.
func (n *FECNormalizer) Contributions(ctx context.Context) (Result, error) {
	log := zap.L().With(zap.String("component", "silver.fec"))

	committees, err := n.committeeLookup(ctx)
	if err != nil {
		return Result{}, err
	}
	candidates, err := n.candidateLookup(ctx)
	if err != nil {
		return Result{}, err
	}

	rows, err := n.pool.Query(ctx,
		`SELECT sub_id, COALESCE(transaction_id, ''), COALESCE(contribution_receipt_date, ''),
		        contribution_receipt_amount, contributor_aggregate_ytd,
		        COALESCE(contributor_name, ''), COALESCE(contributor_first_name, ''),
		        COALESCE(contributor_last_name, ''), COALESCE(contributor_city, ''),
		        COALESCE(contributor_state, ''), COALESCE(contributor_zip, ''),
		        COALESCE(contributor_employer, ''), COALESCE(contributor_occupation, ''),
		        COALESCE(entity_type, ''), COALESCE(committee_id, ''),
		        COALESCE(receipt_type, ''), COALESCE(election_type, ''),
		        COALESCE(memo_code, ''), COALESCE(memo_text, ''),
		        two_year_transaction_period, report_year
		 FROM bronze.fec_schedule_a`)
	if err != nil {
		return Result{}, eris.Wrap(err, "silver: read bronze fec schedule A")
	}
	defer rows.Close()

	var res Result
	var batch [][]any
	for rows.Next() {
		var subID, txnID, dateStr, name, firstName, lastName, city, state, zip,
			employer, occupation, entityType, committeeID, receiptType,
			electionType, memoCode, memoText string
		var amount, ytd pgtype.Numeric
		var cycle, reportYear *int

		if err := rows.Scan(&subID, &txnID, &dateStr, &amount, &ytd,
			&name, &firstName, &lastName, &city, &state, &zip,
			&employer, &occupation, &entityType, &committeeID,
			&receiptType, &electionType, &memoCode, &memoText,
			&cycle, &reportYear); err != nil {
			return res, eris.Wrap(err, "silver: scan bronze fec schedule A")
		}

		date, err := ParseDate(dateStr)
		if err != nil || !amount.Valid {
			log.Debug("skipping receipt missing hard requirements", zap.String("sub_id", subID))
			res.Skipped++
			continue
		}

		row := []any{
			subID, txnID, date, amount,
			ytd, CleanOptional(name), CleanOptional(firstName),
			CleanOptional(lastName), CleanOptional(city), CleanOptional(state),
			nullIfEmpty(Zip5(zip)), CleanRequired(employer), CleanRequired(occupation),
			defaultIfEmpty(entityType, UnknownEntityType), committeeID,
		}

		com, ok := committees[committeeID]
		if ok {
			row = append(row, com.name, com.committeeType, com.designation, com.party)
		} else {
			row = append(row, nil, nil, nil, nil)
		}

		cand, ok := candidates[com.candidateID]
		if com.candidateID != "" && ok {
			row = append(row, com.candidateID, cand.name, cand.office, cand.party)
		} else {
			row = append(row, nil, nil, nil, nil)
		}

		row = append(row, receiptType, electionType, memoCode, memoText, cycle, reportYear)
		batch = append(batch, row)

		if len(batch) >= n.batchSize {
			if err := n.flushContributions(ctx, batch, &res); err != nil {
				return res, err
			}
			batch = batch[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return res, eris.Wrap(err, "silver: iterate bronze fec schedule A")
	}
	if err := n.flushContributions(ctx, batch, &res); err != nil {
		return res, err
	}

	log.Info("fec contributions normalized", zap.Int64("processed", res.Processed), zap.Int64("skipped", res.Skipped))
	return res, nil
}

func (n *FECNormalizer) flushContributions(ctx context.Context, batch [][]any, res *Result) error {
	if len(batch) == 0 {
		return nil
	}
	nRows, err := db.BulkUpsert(ctx, n.pool, db.UpsertConfig{
		Table:        "silver.fec_contribution",
		Columns:      silverFECContributionColumns,
		ConflictKeys: []string{"source_sub_id"},
	}, batch)
	if err != nil {
		return eris.Wrap(err, "silver: upsert fec contributions")
	}
	res.Processed += nRows
	return nil
}

var silverFECCandidateColumns = []string{
	"source_candidate_id", "name", "first_name", "last_name", "office",
	"office_full", "state", "district", "party", "party_full",
	"incumbent_challenge", "candidate_status", "is_active",
	"first_election_year", "last_election_year",
}

// Candidates normalizes the bronze candidate master.
func (n *FECNormalizer) Candidates(ctx context.Context) (Result, error) {
	rows, err := n.pool.Query(ctx,
		`SELECT candidate_id, COALESCE(name, ''), COALESCE(first_name, ''),
		        COALESCE(last_name, ''), COALESCE(office, ''), COALESCE(office_full, ''),
		        COALESCE(state, ''), COALESCE(district, ''), COALESCE(party, ''),
		        COALESCE(party_full, ''), COALESCE(incumbent_challenge, ''),
		        COALESCE(candidate_status, ''), election_years
		 FROM bronze.fec_candidate`)
	if err != nil {
		return Result{}, eris.Wrap(err, "silver: read bronze fec candidates")
	}
	defer rows.Close()

	var res Result
	var batch [][]any
	for rows.Next() {
		var id, name, firstName, lastName, office, officeFull, state, district,
			party, partyFull, incumbent, status string
		var electionYears []byte
		if err := rows.Scan(&id, &name, &firstName, &lastName, &office, &officeFull,
			&state, &district, &party, &partyFull, &incumbent, &status, &electionYears); err != nil {
			return res, eris.Wrap(err, "silver: scan bronze fec candidate")
		}
		if name == "" {
			res.Skipped++
			continue
		}

		first, last := electionYearSpan(electionYears)
		batch = append(batch, []any{
			id, name, firstName, lastName, office,
			officeFull, state, district, party, partyFull,
			incumbent, status, status == "C",
			first, last,
		})
	}
	if err := rows.Err(); err != nil {
		return res, eris.Wrap(err, "silver: iterate bronze fec candidates")
	}

	nRows, err := db.BulkUpsert(ctx, n.pool, db.UpsertConfig{
		Table:        "silver.fec_candidate",
		Columns:      silverFECCandidateColumns,
		ConflictKeys: []string{"source_candidate_id"},
	}, batch)
	if err != nil {
		return res, eris.Wrap(err, "silver: upsert fec candidates")
	}
	res.Processed = nRows
	return res, nil
}

var silverFECCommitteeColumns = []string{
	"source_committee_id", "name", "committee_type", "committee_type_full",
	"designation", "party", "state", "city", "treasurer_name", "candidate_id",
	"is_active",
}

// Committees normalizes the bronze committee master. The first linked
// candidate id, when present, becomes the committee's candidate reference.
func (n *FECNormalizer) Committees(ctx context.Context) (Result, error) {
	rows, err := n.pool.Query(ctx,
		`SELECT committee_id, COALESCE(name, ''), COALESCE(committee_type, ''),
		        COALESCE(committee_type_full, ''), COALESCE(designation, ''),
		        COALESCE(party, ''), COALESCE(state, ''), COALESCE(city, ''),
		        COALESCE(treasurer_name, ''), candidate_ids, COALESCE(is_active, TRUE)
		 FROM bronze.fec_committee`)
	if err != nil {
		return Result{}, eris.Wrap(err, "silver: read bronze fec committees")
	}
	defer rows.Close()

	var res Result
	var batch [][]any
	for rows.Next() {
		var id, name, cType, cTypeFull, designation, party, state, city, treasurer string
		var candidateIDs []byte
		var isActive bool
		if err := rows.Scan(&id, &name, &cType, &cTypeFull, &designation,
			&party, &state, &city, &treasurer, &candidateIDs, &isActive); err != nil {
			return res, eris.Wrap(err, "silver: scan bronze fec committee")
		}
		if name == "" {
			res.Skipped++
			continue
		}

		var candidateID any
		if len(candidateIDs) > 0 {
			var ids []string
			if err := json.Unmarshal(candidateIDs, &ids); err == nil && len(ids) > 0 {
				candidateID = ids[0]
			}
		}

		batch = append(batch, []any{
			id, name, cType, cTypeFull,
			designation, party, state, city, treasurer, candidateID,
			isActive,
		})
	}
	if err := rows.Err(); err != nil {
		return res, eris.Wrap(err, "silver: iterate bronze fec committees")
	}

	nRows, err := db.BulkUpsert(ctx, n.pool, db.UpsertConfig{
		Table:        "silver.fec_committee",
		Columns:      silverFECCommitteeColumns,
		ConflictKeys: []string{"source_committee_id"},
	}, batch)
	if err != nil {
		return res, eris.Wrap(err, "silver: upsert fec committees")
	}
	res.Processed = nRows
	return res, nil
}

// electionYearSpan extracts the min and max from a JSONB year array.
func electionYearSpan(raw []byte) (any, any) {
	if len(raw) == 0 {
		return nil, nil
	}
	var years []int
	if err := json.Unmarshal(raw, &years); err != nil || len(years) == 0 {
		return nil, nil
	}
	first, last := years[0], years[0]
	for _, y := range years[1:] {
		if y < first {
			first = y
		}
		if y > last {
			last = y
		}
	}
	return first, last
}

// nullIfEmpty maps "" to SQL NULL.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// defaultIfEmpty substitutes a default for a blank source value.
func defaultIfEmpty(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
