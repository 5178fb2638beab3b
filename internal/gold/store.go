package gold

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"

	"github.com/fundlens/fundlens/internal/db"
)

// Candidate is one resolved candidate entity. At most one FEC reference and
// one state reference point at it; either may be empty.
type Candidate struct {
	ID                int64
	Name              string
	Office            string
	OfficeRaw         string
	State             string
	District          string
	JurisdictionLevel string
	OfficeCounty      string
	OfficeCity        string
	Party             string
	FirstElectionYear int
	LastElectionYear  int
	IsActive          bool
	FECCandidateID    string
	StateCandidateID  string
	MatchConfidence   float64
}

// Committee is one resolved committee entity.
type Committee struct {
	ID               int64
	Name             string
	CommitteeType    string
	Party            string
	State            string
	City             string
	CandidateID      int64
	FECCommitteeID   string
	StateCommitteeID string
	IsActive         bool
	MatchConfidence  float64
}

// Contributor is one resolved contributor entity.
type Contributor struct {
	ID              int64
	Name            string
	FirstName       string
	LastName        string
	City            string
	State           string
	Zip5            string
	Employer        string
	Occupation      string
	EntityType      string
	MatchConfidence float64
}

// Contribution is one resolved contribution, always retaining its source
// coordinates so re-resolution updates rather than duplicates.
type Contribution struct {
	SourceSystem         string
	SourceSubID          string
	SourceTransactionID  string
	ContributionDate     any
	Amount               pgtype.Numeric
	ContributorID        int64
	RecipientCommitteeID int64
	RecipientCandidateID int64
	ConduitCommitteeID   int64
	IsEarmarkReceipt     bool
	ContributionType     string
	ElectionType         string
	ElectionYear         int
	ElectionCycle        int
	MemoText             string
}

// Store reads and writes gold entities.
type Store struct {
	pool db.Pool
}

// NewStore creates a Store backed by the given connection pool.
func NewStore(pool db.Pool) *Store {
	return &Store{pool: pool}
}

// LoadCandidates returns all gold candidates, for in-memory matching.
func (s *Store) LoadCandidates(ctx context.Context) ([]Candidate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(office, ''), COALESCE(office_raw, ''),
		        COALESCE(state, ''), COALESCE(district, ''),
		        COALESCE(jurisdiction_level, ''), COALESCE(office_county, ''),
		        COALESCE(office_city, ''), COALESCE(party, ''),
		        COALESCE(first_election_year, 0), COALESCE(last_election_year, 0),
		        is_active, COALESCE(fec_candidate_id, ''),
		        COALESCE(state_candidate_id, ''), match_confidence
		 FROM gold.candidate`)
	if err != nil {
		return nil, eris.Wrap(err, "gold: load candidates")
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Office, &c.OfficeRaw, &c.State,
			&c.District, &c.JurisdictionLevel, &c.OfficeCounty, &c.OfficeCity,
			&c.Party, &c.FirstElectionYear, &c.LastElectionYear, &c.IsActive,
			&c.FECCandidateID, &c.StateCandidateID, &c.MatchConfidence); err != nil {
			return nil, eris.Wrap(err, "gold: scan candidate")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertCandidate creates a new candidate entity and returns its id.
func (s *Store) InsertCandidate(ctx context.Context, c Candidate) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO gold.candidate
		   (name, office, office_raw, state, district, jurisdiction_level,
		    office_county, office_city, party, first_election_year,
		    last_election_year, is_active, fec_candidate_id,
		    state_candidate_id, match_confidence)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id`,
		c.Name, c.Office, c.OfficeRaw, c.State, c.District, c.JurisdictionLevel,
		emptyNull(c.OfficeCounty), emptyNull(c.OfficeCity), c.Party,
		zeroNull(c.FirstElectionYear), zeroNull(c.LastElectionYear),
		c.IsActive, emptyNull(c.FECCandidateID), emptyNull(c.StateCandidateID),
		c.MatchConfidence,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "gold: insert candidate %s", c.Name)
	}
	return id, nil
}

// UpdateCandidate rewrites a candidate entity in place. Confidence only
// moves upward; a weaker later match never degrades an earlier strong one.
func (s *Store) UpdateCandidate(ctx context.Context, c Candidate) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE gold.candidate SET
		   name = $1, office = $2, office_raw = $3, state = $4, district = $5,
		   jurisdiction_level = $6, office_county = $7, office_city = $8,
		   party = $9, first_election_year = $10, last_election_year = $11,
		   is_active = $12, fec_candidate_id = $13, state_candidate_id = $14,
		   match_confidence = GREATEST(match_confidence, $15),
		   updated_at = now()
		 WHERE id = $16`,
		c.Name, c.Office, c.OfficeRaw, c.State, c.District,
		c.JurisdictionLevel, emptyNull(c.OfficeCounty), emptyNull(c.OfficeCity),
		c.Party, zeroNull(c.FirstElectionYear), zeroNull(c.LastElectionYear),
		c.IsActive, emptyNull(c.FECCandidateID), emptyNull(c.StateCandidateID),
		c.MatchConfidence, c.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "gold: update candidate %d", c.ID)
	}
	return nil
}

// LoadCommittees returns all gold committees, for in-memory matching.
func (s *Store) LoadCommittees(ctx context.Context) ([]Committee, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(committee_type, ''), COALESCE(party, ''),
		        COALESCE(state, ''), COALESCE(city, ''), COALESCE(candidate_id, 0),
		        COALESCE(fec_committee_id, ''), COALESCE(state_committee_id, ''),
		        is_active, match_confidence
		 FROM gold.committee`)
	if err != nil {
		return nil, eris.Wrap(err, "gold: load committees")
	}
	defer rows.Close()

	var out []Committee
	for rows.Next() {
		var c Committee
		if err := rows.Scan(&c.ID, &c.Name, &c.CommitteeType, &c.Party, &c.State,
			&c.City, &c.CandidateID, &c.FECCommitteeID, &c.StateCommitteeID,
			&c.IsActive, &c.MatchConfidence); err != nil {
			return nil, eris.Wrap(err, "gold: scan committee")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertCommittee creates a new committee entity and returns its id.
func (s *Store) InsertCommittee(ctx context.Context, c Committee) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO gold.committee
		   (name, committee_type, party, state, city, candidate_id,
		    fec_committee_id, state_committee_id, is_active, match_confidence)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		c.Name, c.CommitteeType, c.Party, c.State, c.City, zeroNull64(c.CandidateID),
		emptyNull(c.FECCommitteeID), emptyNull(c.StateCommitteeID), c.IsActive,
		c.MatchConfidence,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "gold: insert committee %s", c.Name)
	}
	return id, nil
}

// UpdateCommittee rewrites a committee entity in place.
func (s *Store) UpdateCommittee(ctx context.Context, c Committee) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE gold.committee SET
		   name = $1, committee_type = $2, party = $3, state = $4, city = $5,
		   candidate_id = $6, fec_committee_id = $7, state_committee_id = $8,
		   is_active = $9, match_confidence = GREATEST(match_confidence, $10),
		   updated_at = now()
		 WHERE id = $11`,
		c.Name, c.CommitteeType, c.Party, c.State, c.City, zeroNull64(c.CandidateID),
		emptyNull(c.FECCommitteeID), emptyNull(c.StateCommitteeID), c.IsActive,
		c.MatchConfidence, c.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "gold: update committee %d", c.ID)
	}
	return nil
}

// LoadContributors returns all gold contributors, for in-memory matching.
func (s *Store) LoadContributors(ctx context.Context) ([]Contributor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(first_name, ''), COALESCE(last_name, ''),
		        COALESCE(city, ''), COALESCE(state, ''), COALESCE(zip5, ''),
		        COALESCE(employer, ''), COALESCE(occupation, ''),
		        COALESCE(entity_type, ''), match_confidence
		 FROM gold.contributor`)
	if err != nil {
		return nil, eris.Wrap(err, "gold: load contributors")
	}
	defer rows.Close()

	var out []Contributor
	for rows.Next() {
		var c Contributor
		if err := rows.Scan(&c.ID, &c.Name, &c.FirstName, &c.LastName, &c.City,
			&c.State, &c.Zip5, &c.Employer, &c.Occupation, &c.EntityType,
			&c.MatchConfidence); err != nil {
			return nil, eris.Wrap(err, "gold: scan contributor")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertContributor creates a new contributor entity and returns its id.
func (s *Store) InsertContributor(ctx context.Context, c Contributor) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO gold.contributor
		   (name, first_name, last_name, city, state, zip5, employer,
		    occupation, entity_type, match_confidence)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		c.Name, c.FirstName, c.LastName, c.City, c.State, emptyNull(c.Zip5),
		c.Employer, c.Occupation, c.EntityType, c.MatchConfidence,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "gold: insert contributor %s", c.Name)
	}
	return id, nil
}

// UpdateContributorConfidence raises a contributor's confidence after a
// re-sighting. Identity fields stay as first recorded.
func (s *Store) UpdateContributorConfidence(ctx context.Context, id int64, confidence float64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE gold.contributor
		 SET match_confidence = GREATEST(match_confidence, $1), updated_at = now()
		 WHERE id = $2`,
		confidence, id,
	)
	if err != nil {
		return eris.Wrapf(err, "gold: update contributor %d", id)
	}
	return nil
}

var contributionColumns = []string{
	"source_system", "source_sub_id", "source_transaction_id",
	"contribution_date", "amount", "contributor_id", "recipient_committee_id",
	"recipient_candidate_id", "conduit_committee_id", "is_earmark_receipt",
	"contribution_type", "election_type", "election_year", "election_cycle",
	"memo_text",
}

// UpsertContributions writes resolved contributions keyed on their source
// coordinates. Re-resolving the same silver rows rewrites the same gold
// rows.
func (s *Store) UpsertContributions(ctx context.Context, recs []Contribution) (int64, error) {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []any{
			r.SourceSystem, r.SourceSubID, emptyNull(r.SourceTransactionID),
			r.ContributionDate, r.Amount, zeroNull64(r.ContributorID),
			zeroNull64(r.RecipientCommitteeID), zeroNull64(r.RecipientCandidateID),
			zeroNull64(r.ConduitCommitteeID), r.IsEarmarkReceipt,
			emptyNull(r.ContributionType), emptyNull(r.ElectionType),
			zeroNull(r.ElectionYear), zeroNull(r.ElectionCycle),
			emptyNull(r.MemoText),
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "gold.contribution",
		Columns:      contributionColumns,
		ConflictKeys: []string{"source_system", "source_sub_id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "gold: upsert contributions")
	}
	return n, nil
}

// CommitteeTotal sums a committee's received contributions. Earmark receipts
// are excluded: the money is counted once at the true recipient, and the
// conduit's pass-through rows would double it.
func (s *Store) CommitteeTotal(ctx context.Context, committeeID int64) (pgtype.Numeric, error) {
	var total pgtype.Numeric
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)
		 FROM gold.contribution
		 WHERE recipient_committee_id = $1 AND NOT is_earmark_receipt`,
		committeeID,
	).Scan(&total)
	if err != nil {
		return total, eris.Wrapf(err, "gold: total for committee %d", committeeID)
	}
	return total, nil
}

func emptyNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func zeroNull(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func zeroNull64(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}
