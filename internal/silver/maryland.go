package silver

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fundlens/fundlens/internal/db"
)

// MDNormalizer builds the silver Maryland tables from bronze.
type MDNormalizer struct {
	pool      db.Pool
	batchSize int
}

// NewMDNormalizer creates a normalizer writing in batches of batchSize.
func NewMDNormalizer(pool db.Pool, batchSize int) *MDNormalizer {
	return &MDNormalizer{pool: pool, batchSize: batchSize}
}

type mdCommitteeInfo struct {
	ccfID         string
	committeeType string
}

// committeeLookup maps an uppercased committee name to its CCF id and type.
// Contributions reference committees by display name only.
func (n *MDNormalizer) committeeLookup(ctx context.Context) (map[string]mdCommitteeInfo, error) {
	rows, err := n.pool.Query(ctx,
		`SELECT ccf_id, COALESCE(committee_name, ''), COALESCE(committee_type, '')
		 FROM bronze.md_committee`)
	if err != nil {
		return nil, eris.Wrap(err, "silver: load md committee lookup")
	}
	defer rows.Close()

	lookup := make(map[string]mdCommitteeInfo)
	for rows.Next() {
		var ccfID, name, cType string
		if err := rows.Scan(&ccfID, &name, &cType); err != nil {
			return nil, eris.Wrap(err, "silver: scan md committee lookup")
		}
		key := strings.ToUpper(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		lookup[key] = mdCommitteeInfo{ccfID: ccfID, committeeType: cType}
	}
	return lookup, rows.Err()
}

var silverMDContributionColumns = []string{
	"source_content_hash", "receiving_committee", "committee_ccf_id",
	"committee_type", "filing_period", "contribution_date", "amount",
	"contributor_name", "contributor_address", "contributor_street",
	"contributor_city", "contributor_state", "contributor_zip5",
	"contributor_type", "contribution_type", "employer_name",
	"employer_occupation", "office", "fund_type",
}

// Contributions normalizes bronze Maryland contributions. The free-text
// contributor address is parsed best-effort; the raw string is always kept.
// Rows without a parsable date or amount are skipped and counted.
func (n *MDNormalizer) Contributions(ctx context.Context) (Result, error) {
	log := zap.L().With(zap.String("component", "silver.maryland"))

	committees, err := n.committeeLookup(ctx)
	if err != nil {
		return Result{}, err
	}

	rows, err := n.pool.Query(ctx,
		`SELECT content_hash, COALESCE(receiving_committee, ''), COALESCE(filing_period, ''),
		        COALESCE(contribution_date, ''), COALESCE(contributor_name, ''),
		        COALESCE(contributor_address, ''), COALESCE(contributor_type, ''),
		        COALESCE(contribution_type, ''), COALESCE(contribution_amount, ''),
		        COALESCE(employer_name, ''), COALESCE(employer_occupation, ''),
		        COALESCE(office, ''), COALESCE(fund_type, '')
		 FROM bronze.md_contribution`)
	if err != nil {
		return Result{}, eris.Wrap(err, "silver: read bronze md contributions")
	}
	defer rows.Close()

	var res Result
	var batch [][]any
	for rows.Next() {
		var hash, committee, filingPeriod, dateStr, name, address, cType,
			contribType, amountStr, employer, occupation, office, fundType string
		if err := rows.Scan(&hash, &committee, &filingPeriod, &dateStr, &name,
			&address, &cType, &contribType, &amountStr, &employer, &occupation,
			&office, &fundType); err != nil {
			return res, eris.Wrap(err, "silver: scan bronze md contribution")
		}

		date, dateErr := ParseDate(dateStr)
		amount, amountErr := ParseAmount(amountStr)
		if dateErr != nil || amountErr != nil || committee == "" {
			log.Debug("skipping contribution missing hard requirements", zap.String("content_hash", hash))
			res.Skipped++
			continue
		}

		var ccfID, committeeType any
		if info, ok := committees[strings.ToUpper(committee)]; ok {
			ccfID, committeeType = info.ccfID, info.committeeType
		}

		var street, city, state, zip any
		if parsed, ok := ParseAddress(address); ok {
			street, city, state, zip = parsed.Street, parsed.City, parsed.State, parsed.Zip5
		}

		batch = append(batch, []any{
			hash, committee, ccfID,
			committeeType, filingPeriod, date, amount,
			CleanOptional(name), CleanOptional(address), street,
			city, state, zip,
			cType, contribType, CleanRequired(employer),
			CleanRequired(occupation), office, fundType,
		})

		if len(batch) >= n.batchSize {
			if err := n.flushContributions(ctx, batch, &res); err != nil {
				return res, err
			}
			batch = batch[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return res, eris.Wrap(err, "silver: iterate bronze md contributions")
	}
	if err := n.flushContributions(ctx, batch, &res); err != nil {
		return res, err
	}

	log.Info("md contributions normalized", zap.Int64("processed", res.Processed), zap.Int64("skipped", res.Skipped))
	return res, nil
}

func (n *MDNormalizer) flushContributions(ctx context.Context, batch [][]any, res *Result) error {
	if len(batch) == 0 {
		return nil
	}
	nRows, err := db.BulkUpsert(ctx, n.pool, db.UpsertConfig{
		Table:        "silver.md_contribution",
		Columns:      silverMDContributionColumns,
		ConflictKeys: []string{"source_content_hash"},
	}, batch)
	if err != nil {
		return eris.Wrap(err, "silver: upsert md contributions")
	}
	res.Processed += nRows
	return nil
}

var silverMDCommitteeColumns = []string{
	"source_ccf_id", "name", "committee_type", "status", "has_violations",
	"election_type", "registered_date", "amended_date", "chairperson_name",
	"treasurer_name",
}

// Committees normalizes the bronze committee export. Registration dates
// parse best-effort to null; a committee without a name is skipped.
func (n *MDNormalizer) Committees(ctx context.Context) (Result, error) {
	rows, err := n.pool.Query(ctx,
		`SELECT ccf_id, COALESCE(committee_name, ''), COALESCE(committee_type, ''),
		        COALESCE(committee_status, ''), COALESCE(citation_violations, ''),
		        COALESCE(election_type, ''), COALESCE(registered_date, ''),
		        COALESCE(amended_date, ''), COALESCE(chairperson_name, ''),
		        COALESCE(treasurer_name, '')
		 FROM bronze.md_committee`)
	if err != nil {
		return Result{}, eris.Wrap(err, "silver: read bronze md committees")
	}
	defer rows.Close()

	var res Result
	var batch [][]any
	for rows.Next() {
		var ccfID, name, cType, status, violations, electionType,
			registered, amended, chair, treasurer string
		if err := rows.Scan(&ccfID, &name, &cType, &status, &violations,
			&electionType, &registered, &amended, &chair, &treasurer); err != nil {
			return res, eris.Wrap(err, "silver: scan bronze md committee")
		}
		if name == "" {
			res.Skipped++
			continue
		}

		batch = append(batch, []any{
			ccfID, name, cType, status, strings.TrimSpace(violations) != "",
			electionType, NullDate(registered), NullDate(amended), chair,
			treasurer,
		})
	}
	if err := rows.Err(); err != nil {
		return res, eris.Wrap(err, "silver: iterate bronze md committees")
	}

	nRows, err := db.BulkUpsert(ctx, n.pool, db.UpsertConfig{
		Table:        "silver.md_committee",
		Columns:      silverMDCommitteeColumns,
		ConflictKeys: []string{"source_ccf_id"},
	}, batch)
	if err != nil {
		return res, eris.Wrap(err, "silver: upsert md committees")
	}
	res.Processed = nRows
	return res, nil
}

var silverMDCandidateColumns = []string{
	"source_content_hash", "last_name", "first_name", "full_name",
	"office_name", "district", "party", "jurisdiction", "status",
	"committee_name", "committee_ccf_id", "election_year", "election_type",
	"campaign_city", "campaign_state", "campaign_zip5",
}

// Candidates normalizes the bronze candidate export, resolving the named
// committee to its CCF id when the committee master has it.
func (n *MDNormalizer) Candidates(ctx context.Context) (Result, error) {
	committees, err := n.committeeLookup(ctx)
	if err != nil {
		return Result{}, err
	}

	rows, err := n.pool.Query(ctx,
		`SELECT content_hash, COALESCE(last_name, ''), COALESCE(first_name, ''),
		        COALESCE(office_name, ''), COALESCE(district, ''), COALESCE(party, ''),
		        COALESCE(jurisdiction, ''), COALESCE(status, ''),
		        COALESCE(committee_name, ''), COALESCE(election_year, ''),
		        COALESCE(election_type, ''), COALESCE(campaign_city, ''),
		        COALESCE(campaign_state, ''), COALESCE(campaign_zip, '')
		 FROM bronze.md_candidate`)
	if err != nil {
		return Result{}, eris.Wrap(err, "silver: read bronze md candidates")
	}
	defer rows.Close()

	var res Result
	var batch [][]any
	for rows.Next() {
		var hash, lastName, firstName, officeName, district, party,
			jurisdiction, status, committeeName, electionYear, electionType,
			city, state, zip string
		if err := rows.Scan(&hash, &lastName, &firstName, &officeName, &district,
			&party, &jurisdiction, &status, &committeeName, &electionYear,
			&electionType, &city, &state, &zip); err != nil {
			return res, eris.Wrap(err, "silver: scan bronze md candidate")
		}

		fullName := strings.TrimSpace(firstName + " " + lastName)
		if fullName == "" {
			res.Skipped++
			continue
		}

		var ccfID any
		if info, ok := committees[strings.ToUpper(strings.TrimSpace(committeeName))]; ok {
			ccfID = info.ccfID
		}

		batch = append(batch, []any{
			hash, lastName, firstName, fullName,
			officeName, district, party, jurisdiction, status,
			nullIfEmpty(committeeName), ccfID, nullableYear(electionYear), electionType,
			city, state, nullIfEmpty(Zip5(zip)),
		})
	}
	if err := rows.Err(); err != nil {
		return res, eris.Wrap(err, "silver: iterate bronze md candidates")
	}

	nRows, err := db.BulkUpsert(ctx, n.pool, db.UpsertConfig{
		Table:        "silver.md_candidate",
		Columns:      silverMDCandidateColumns,
		ConflictKeys: []string{"source_content_hash"},
	}, batch)
	if err != nil {
		return res, eris.Wrap(err, "silver: upsert md candidates")
	}
	res.Processed = nRows
	return res, nil
}

// nullableYear converts a year string to an int or SQL NULL.
func nullableYear(s string) any {
	s = strings.TrimSpace(s)
	if len(s) != 4 {
		return nil
	}
	year := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil
		}
		year = year*10 + int(r-'0')
	}
	return year
}
