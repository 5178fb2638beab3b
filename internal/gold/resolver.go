package gold

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fundlens/fundlens/internal/config"
	"github.com/fundlens/fundlens/internal/db"
	"github.com/fundlens/fundlens/internal/source"
	"github.com/fundlens/fundlens/internal/warehouse"
)

// Resolver builds the gold layer from silver. Each entity kind is resolved
// by a single goroutine over an in-memory index of the existing gold
// entities, so matching order, and therefore output, is deterministic.
//
// Matching ladder: an exact source reference is certainty (1.0) and updates
// the entity in place. Otherwise candidates are scored fuzzily; at or above
// the merge threshold the record merges into the best entity, a tie creates
// a new entity and warns, and below the threshold a new entity is created.
type Resolver struct {
	pool      db.Pool
	store     *Store
	runs      *warehouse.RunLog
	match     MatchConfig
	batchSize int
}

// NewResolver creates a Resolver tuned by cfg.
func NewResolver(pool db.Pool, cfg config.ResolveConfig, batchSize int) *Resolver {
	return &Resolver{
		pool:  pool,
		store: NewStore(pool),
		runs:  warehouse.NewRunLog(pool),
		match: MatchConfig{
			MergeThreshold: cfg.MergeThreshold,
			NameFloor:      cfg.FuzzyNameFloor,
			SecondaryBonus: cfg.SecondaryBonus,
			MaxScore:       cfg.MaxFuzzyScore,
		},
		batchSize: batchSize,
	}
}

// Run resolves candidates, committees, then contributors and contributions.
// The order matters: committees link to candidates, contributions link to
// everything.
func (r *Resolver) Run(ctx context.Context) error {
	runID, err := r.runs.Start(ctx, "resolve", "all")
	if err != nil {
		return err
	}

	var total int64
	for _, step := range []struct {
		name string
		fn   func(context.Context) (int64, error)
	}{
		{"candidates", r.resolveCandidates},
		{"committees", r.resolveCommittees},
		{"contributions", r.resolveContributions},
	} {
		n, err := step.fn(ctx)
		if err != nil {
			wrapped := eris.Wrapf(err, "gold: resolve %s", step.name)
			if logErr := r.runs.Fail(ctx, runID, wrapped.Error()); logErr != nil {
				zap.L().Error("failed to record run failure", zap.Error(logErr))
			}
			return wrapped
		}
		total += n
	}

	if err := r.runs.Complete(ctx, runID, &warehouse.RunResult{Rows: total}); err != nil {
		zap.L().Error("failed to record run completion", zap.Error(err))
	}
	return nil
}

// candidateIndex tracks gold candidates during a pass.
type candidateIndex struct {
	list    []Candidate
	byFEC   map[string]int
	byState map[string]int
}

func newCandidateIndex(list []Candidate) *candidateIndex {
	idx := &candidateIndex{list: list, byFEC: map[string]int{}, byState: map[string]int{}}
	for i, c := range list {
		if c.FECCandidateID != "" {
			idx.byFEC[c.FECCandidateID] = i
		}
		if c.StateCandidateID != "" {
			idx.byState[c.StateCandidateID] = i
		}
	}
	return idx
}

func (idx *candidateIndex) add(c Candidate) {
	idx.list = append(idx.list, c)
	i := len(idx.list) - 1
	if c.FECCandidateID != "" {
		idx.byFEC[c.FECCandidateID] = i
	}
	if c.StateCandidateID != "" {
		idx.byState[c.StateCandidateID] = i
	}
}

func (r *Resolver) resolveCandidates(ctx context.Context) (int64, error) {
	log := zap.L().With(zap.String("component", "gold.resolve"), zap.String("entity", "candidate"))

	existing, err := r.store.LoadCandidates(ctx)
	if err != nil {
		return 0, err
	}
	idx := newCandidateIndex(existing)

	var n int64
	fecN, err := r.resolveFECCandidates(ctx, log, idx)
	if err != nil {
		return n, err
	}
	n += fecN

	mdN, err := r.resolveMDCandidates(ctx, log, idx)
	if err != nil {
		return n, err
	}
	return n + mdN, nil
}

func (r *Resolver) resolveFECCandidates(ctx context.Context, log *zap.Logger, idx *candidateIndex) (int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT source_candidate_id, name, COALESCE(office, ''), COALESCE(state, ''),
		        COALESCE(district, ''), COALESCE(party, ''), COALESCE(is_active, TRUE),
		        COALESCE(first_election_year, 0), COALESCE(last_election_year, 0)
		 FROM silver.fec_candidate`)
	if err != nil {
		return 0, eris.Wrap(err, "gold: read silver fec candidates")
	}
	defer rows.Close()

	type fecCandidate struct {
		id, name, office, state, district, party string
		isActive                                 bool
		firstYear, lastYear                      int
	}
	var recs []fecCandidate
	for rows.Next() {
		var c fecCandidate
		if err := rows.Scan(&c.id, &c.name, &c.office, &c.state, &c.district,
			&c.party, &c.isActive, &c.firstYear, &c.lastYear); err != nil {
			return 0, eris.Wrap(err, "gold: scan silver fec candidate")
		}
		recs = append(recs, c)
	}
	if err := rows.Err(); err != nil {
		return 0, eris.Wrap(err, "gold: iterate silver fec candidates")
	}

	var n int64
	for _, rec := range recs {
		office, level := CanonicalOffice(source.FEC, rec.office)
		incoming := Candidate{
			Name:              rec.name,
			Office:            office,
			OfficeRaw:         rec.office,
			State:             rec.state,
			District:          rec.district,
			JurisdictionLevel: level,
			Party:             rec.party,
			FirstElectionYear: rec.firstYear,
			LastElectionYear:  rec.lastYear,
			IsActive:          rec.isActive,
			FECCandidateID:    rec.id,
			MatchConfidence:   1.0,
		}

		// Same source reference seen before: certain identity.
		if i, ok := idx.byFEC[rec.id]; ok {
			incoming.ID = idx.list[i].ID
			incoming.StateCandidateID = idx.list[i].StateCandidateID
			if err := r.store.UpdateCandidate(ctx, incoming); err != nil {
				return n, err
			}
			idx.list[i] = incoming
			n++
			continue
		}

		if _, err := r.mergeOrInsertCandidate(ctx, log, idx, incoming, func(c Candidate) float64 {
			if c.FECCandidateID != "" {
				return 0 // claimed by another FEC record
			}
			return r.match.Score(incoming.Name, c.Name,
				Discriminator{incoming.State, c.State},
				Discriminator{incoming.Party, c.Party},
				Discriminator{incoming.Office, c.Office},
			)
		}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (r *Resolver) resolveMDCandidates(ctx context.Context, log *zap.Logger, idx *candidateIndex) (int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT source_content_hash, full_name, COALESCE(office_name, ''),
		        COALESCE(district, ''), COALESCE(party, ''),
		        COALESCE(jurisdiction, ''), COALESCE(status, ''),
		        COALESCE(election_year, 0)
		 FROM silver.md_candidate`)
	if err != nil {
		return 0, eris.Wrap(err, "gold: read silver md candidates")
	}
	defer rows.Close()

	type mdCandidate struct {
		hash, name, office, district, party, jurisdiction, status string
		electionYear                                              int
	}
	var recs []mdCandidate
	for rows.Next() {
		var c mdCandidate
		if err := rows.Scan(&c.hash, &c.name, &c.office, &c.district, &c.party,
			&c.jurisdiction, &c.status, &c.electionYear); err != nil {
			return 0, eris.Wrap(err, "gold: scan silver md candidate")
		}
		recs = append(recs, c)
	}
	if err := rows.Err(); err != nil {
		return 0, eris.Wrap(err, "gold: iterate silver md candidates")
	}

	var n int64
	for _, rec := range recs {
		office, level := CanonicalOffice(source.MDState, rec.office)
		county, city := OfficeLocality(level, rec.jurisdiction)
		incoming := Candidate{
			Name:              rec.name,
			Office:            office,
			OfficeRaw:         rec.office,
			State:             "MD",
			District:          rec.district,
			JurisdictionLevel: level,
			OfficeCounty:      county,
			OfficeCity:        city,
			Party:             rec.party,
			FirstElectionYear: rec.electionYear,
			LastElectionYear:  rec.electionYear,
			IsActive:          !strings.EqualFold(rec.status, "Withdrawn"),
			StateCandidateID:  rec.hash,
			MatchConfidence:   1.0,
		}

		if i, ok := idx.byState[rec.hash]; ok {
			incoming.ID = idx.list[i].ID
			incoming.FECCandidateID = idx.list[i].FECCandidateID
			if err := r.store.UpdateCandidate(ctx, incoming); err != nil {
				return n, err
			}
			idx.list[i] = incoming
			n++
			continue
		}

		_, err := r.mergeOrInsertCandidate(ctx, log, idx, incoming, func(c Candidate) float64 {
			if c.StateCandidateID != "" {
				return 0
			}
			return r.match.Score(incoming.Name, c.Name,
				Discriminator{incoming.State, c.State},
				Discriminator{incoming.Party, c.Party},
				Discriminator{incoming.Office, c.Office},
			)
		})
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// mergeOrInsertCandidate runs the fuzzy ladder for one incoming record:
// merge into the unique best entity at or above the threshold, or create a
// new entity (warning on ties).
func (r *Resolver) mergeOrInsertCandidate(ctx context.Context, log *zap.Logger, idx *candidateIndex, incoming Candidate, score func(Candidate) float64) (bool, error) {
	scores := make([]float64, len(idx.list))
	for i, c := range idx.list {
		scores[i] = score(c)
	}

	i, tied, found := r.match.best(scores)
	if found && !tied {
		merged := idx.list[i]
		merged.Name = incoming.Name
		merged.Office = incoming.Office
		merged.OfficeRaw = incoming.OfficeRaw
		merged.District = incoming.District
		if merged.State == "" {
			merged.State = incoming.State
		}
		if merged.Party == "" {
			merged.Party = incoming.Party
		}
		merged.JurisdictionLevel = incoming.JurisdictionLevel
		merged.OfficeCounty = incoming.OfficeCounty
		merged.OfficeCity = incoming.OfficeCity
		if incoming.FECCandidateID != "" {
			merged.FECCandidateID = incoming.FECCandidateID
		}
		if incoming.StateCandidateID != "" {
			merged.StateCandidateID = incoming.StateCandidateID
		}
		merged.IsActive = incoming.IsActive
		if incoming.FirstElectionYear != 0 && (merged.FirstElectionYear == 0 || incoming.FirstElectionYear < merged.FirstElectionYear) {
			merged.FirstElectionYear = incoming.FirstElectionYear
		}
		if incoming.LastElectionYear > merged.LastElectionYear {
			merged.LastElectionYear = incoming.LastElectionYear
		}
		merged.MatchConfidence = scores[i]
		if err := r.store.UpdateCandidate(ctx, merged); err != nil {
			return false, err
		}
		idx.list[i] = merged
		if merged.FECCandidateID != "" {
			idx.byFEC[merged.FECCandidateID] = i
		}
		if merged.StateCandidateID != "" {
			idx.byState[merged.StateCandidateID] = i
		}
		return true, nil
	}

	if tied {
		log.Warn("ambiguous candidate match; creating new entity",
			zap.String("name", incoming.Name), zap.Float64("score", scores[i]))
	}

	id, err := r.store.InsertCandidate(ctx, incoming)
	if err != nil {
		return false, err
	}
	incoming.ID = id
	idx.add(incoming)
	return false, nil
}

// committeeIndex tracks gold committees during a pass.
type committeeIndex struct {
	list    []Committee
	byFEC   map[string]int
	byState map[string]int
	byName  map[string]int
}

func newCommitteeIndex(list []Committee) *committeeIndex {
	idx := &committeeIndex{list: list, byFEC: map[string]int{}, byState: map[string]int{}, byName: map[string]int{}}
	for i, c := range list {
		if c.FECCommitteeID != "" {
			idx.byFEC[c.FECCommitteeID] = i
		}
		if c.StateCommitteeID != "" {
			idx.byState[c.StateCommitteeID] = i
		}
		idx.byName[NormalizeName(c.Name)] = i
	}
	return idx
}

func (idx *committeeIndex) add(c Committee) {
	idx.list = append(idx.list, c)
	i := len(idx.list) - 1
	if c.FECCommitteeID != "" {
		idx.byFEC[c.FECCommitteeID] = i
	}
	if c.StateCommitteeID != "" {
		idx.byState[c.StateCommitteeID] = i
	}
	idx.byName[NormalizeName(c.Name)] = i
}

func (r *Resolver) resolveCommittees(ctx context.Context) (int64, error) {
	log := zap.L().With(zap.String("component", "gold.resolve"), zap.String("entity", "committee"))

	existing, err := r.store.LoadCommittees(ctx)
	if err != nil {
		return 0, err
	}
	idx := newCommitteeIndex(existing)

	candidates, err := r.store.LoadCandidates(ctx)
	if err != nil {
		return 0, err
	}
	candIdx := newCandidateIndex(candidates)

	var n int64
	fecN, err := r.resolveFECCommittees(ctx, log, idx, candIdx)
	if err != nil {
		return n, err
	}
	n += fecN

	mdN, err := r.resolveMDCommittees(ctx, log, idx, candIdx)
	if err != nil {
		return n, err
	}
	return n + mdN, nil
}

func (r *Resolver) resolveFECCommittees(ctx context.Context, log *zap.Logger, idx *committeeIndex, candIdx *candidateIndex) (int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT source_committee_id, name, COALESCE(committee_type, ''),
		        COALESCE(party, ''), COALESCE(state, ''), COALESCE(city, ''),
		        COALESCE(candidate_id, ''), COALESCE(is_active, TRUE)
		 FROM silver.fec_committee`)
	if err != nil {
		return 0, eris.Wrap(err, "gold: read silver fec committees")
	}
	defer rows.Close()

	type fecCommittee struct {
		id, name, cType, party, state, city, candidateID string
		isActive                                         bool
	}
	var recs []fecCommittee
	for rows.Next() {
		var c fecCommittee
		if err := rows.Scan(&c.id, &c.name, &c.cType, &c.party, &c.state,
			&c.city, &c.candidateID, &c.isActive); err != nil {
			return 0, eris.Wrap(err, "gold: scan silver fec committee")
		}
		recs = append(recs, c)
	}
	if err := rows.Err(); err != nil {
		return 0, eris.Wrap(err, "gold: iterate silver fec committees")
	}

	var n int64
	for _, rec := range recs {
		var candidateID int64
		if rec.candidateID != "" {
			if i, ok := candIdx.byFEC[rec.candidateID]; ok {
				candidateID = candIdx.list[i].ID
			}
		}

		incoming := Committee{
			Name:            rec.name,
			CommitteeType:   CanonicalCommitteeType(source.FEC, rec.cType),
			Party:           rec.party,
			State:           rec.state,
			City:            rec.city,
			CandidateID:     candidateID,
			FECCommitteeID:  rec.id,
			IsActive:        rec.isActive,
			MatchConfidence: 1.0,
		}

		if i, ok := idx.byFEC[rec.id]; ok {
			incoming.ID = idx.list[i].ID
			incoming.StateCommitteeID = idx.list[i].StateCommitteeID
			if err := r.store.UpdateCommittee(ctx, incoming); err != nil {
				return n, err
			}
			idx.list[i] = incoming
			n++
			continue
		}

		if err := r.mergeOrInsertCommittee(ctx, log, idx, incoming, func(c Committee) float64 {
			if c.FECCommitteeID != "" {
				return 0
			}
			return r.match.Score(incoming.Name, c.Name,
				Discriminator{incoming.State, c.State},
				Discriminator{incoming.Party, c.Party},
				Discriminator{incoming.CommitteeType, c.CommitteeType},
			)
		}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (r *Resolver) resolveMDCommittees(ctx context.Context, log *zap.Logger, idx *committeeIndex, candIdx *candidateIndex) (int64, error) {
	// Map each CCF id to its candidate via the candidate export's committee
	// reference.
	candByCCF := map[string]int64{}
	ccfRows, err := r.pool.Query(ctx,
		`SELECT committee_ccf_id, source_content_hash
		 FROM silver.md_candidate WHERE committee_ccf_id IS NOT NULL`)
	if err != nil {
		return 0, eris.Wrap(err, "gold: read md candidate committee links")
	}
	for ccfRows.Next() {
		var ccfID, hash string
		if err := ccfRows.Scan(&ccfID, &hash); err != nil {
			ccfRows.Close()
			return 0, eris.Wrap(err, "gold: scan md candidate committee link")
		}
		if i, ok := candIdx.byState[hash]; ok {
			candByCCF[ccfID] = candIdx.list[i].ID
		}
	}
	if err := ccfRows.Err(); err != nil {
		ccfRows.Close()
		return 0, eris.Wrap(err, "gold: iterate md candidate committee links")
	}
	ccfRows.Close()

	rows, err := r.pool.Query(ctx,
		`SELECT source_ccf_id, name, COALESCE(committee_type, ''),
		        COALESCE(status, '')
		 FROM silver.md_committee`)
	if err != nil {
		return 0, eris.Wrap(err, "gold: read silver md committees")
	}
	defer rows.Close()

	type mdCommittee struct {
		ccfID, name, cType, status string
	}
	var recs []mdCommittee
	for rows.Next() {
		var c mdCommittee
		if err := rows.Scan(&c.ccfID, &c.name, &c.cType, &c.status); err != nil {
			return 0, eris.Wrap(err, "gold: scan silver md committee")
		}
		recs = append(recs, c)
	}
	if err := rows.Err(); err != nil {
		return 0, eris.Wrap(err, "gold: iterate silver md committees")
	}

	var n int64
	for _, rec := range recs {
		incoming := Committee{
			Name:             rec.name,
			CommitteeType:    CanonicalCommitteeType(source.MDState, rec.cType),
			State:            "MD",
			CandidateID:      candByCCF[rec.ccfID],
			StateCommitteeID: rec.ccfID,
			IsActive:         !strings.EqualFold(rec.status, "Closed"),
			MatchConfidence:  1.0,
		}

		if i, ok := idx.byState[rec.ccfID]; ok {
			incoming.ID = idx.list[i].ID
			incoming.FECCommitteeID = idx.list[i].FECCommitteeID
			incoming.Party = idx.list[i].Party
			incoming.City = idx.list[i].City
			if err := r.store.UpdateCommittee(ctx, incoming); err != nil {
				return n, err
			}
			idx.list[i] = incoming
			n++
			continue
		}

		if err := r.mergeOrInsertCommittee(ctx, log, idx, incoming, func(c Committee) float64 {
			if c.StateCommitteeID != "" {
				return 0
			}
			return r.match.Score(incoming.Name, c.Name,
				Discriminator{incoming.State, c.State},
				Discriminator{incoming.CommitteeType, c.CommitteeType},
			)
		}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (r *Resolver) mergeOrInsertCommittee(ctx context.Context, log *zap.Logger, idx *committeeIndex, incoming Committee, score func(Committee) float64) error {
	scores := make([]float64, len(idx.list))
	for i, c := range idx.list {
		scores[i] = score(c)
	}

	i, tied, found := r.match.best(scores)
	if found && !tied {
		merged := idx.list[i]
		merged.Name = incoming.Name
		merged.CommitteeType = incoming.CommitteeType
		if merged.Party == "" {
			merged.Party = incoming.Party
		}
		if merged.State == "" {
			merged.State = incoming.State
		}
		if merged.City == "" {
			merged.City = incoming.City
		}
		if incoming.CandidateID != 0 {
			merged.CandidateID = incoming.CandidateID
		}
		if incoming.FECCommitteeID != "" {
			merged.FECCommitteeID = incoming.FECCommitteeID
		}
		if incoming.StateCommitteeID != "" {
			merged.StateCommitteeID = incoming.StateCommitteeID
		}
		merged.IsActive = incoming.IsActive
		merged.MatchConfidence = scores[i]
		if err := r.store.UpdateCommittee(ctx, merged); err != nil {
			return err
		}
		idx.list[i] = merged
		if merged.FECCommitteeID != "" {
			idx.byFEC[merged.FECCommitteeID] = i
		}
		if merged.StateCommitteeID != "" {
			idx.byState[merged.StateCommitteeID] = i
		}
		idx.byName[NormalizeName(merged.Name)] = i
		return nil
	}

	if tied {
		log.Warn("ambiguous committee match; creating new entity",
			zap.String("name", incoming.Name), zap.Float64("score", scores[i]))
	}

	id, err := r.store.InsertCommittee(ctx, incoming)
	if err != nil {
		return err
	}
	incoming.ID = id
	idx.add(incoming)
	return nil
}

// contributorIndex keys contributors by their exact normalized identity and
// keeps the full list for fuzzy fallback.
type contributorIndex struct {
	list  []Contributor
	byKey map[string]int
}

// contributorKey is the exact re-sighting identity: same normalized name at
// the same place with the same employer is the same person.
func contributorKey(name, city, state, zip5, employer string) string {
	return strings.Join([]string{
		NormalizeName(name),
		strings.ToUpper(strings.TrimSpace(city)),
		strings.ToUpper(strings.TrimSpace(state)),
		strings.TrimSpace(zip5),
		NormalizeName(employer),
	}, "|")
}

func newContributorIndex(list []Contributor) *contributorIndex {
	idx := &contributorIndex{list: list, byKey: map[string]int{}}
	for i, c := range list {
		idx.byKey[contributorKey(c.Name, c.City, c.State, c.Zip5, c.Employer)] = i
	}
	return idx
}

func (idx *contributorIndex) add(c Contributor) {
	idx.list = append(idx.list, c)
	idx.byKey[contributorKey(c.Name, c.City, c.State, c.Zip5, c.Employer)] = len(idx.list) - 1
}

// resolveContributor returns the gold id for a contributor sighting,
// merging or creating per the matching ladder.
func (r *Resolver) resolveContributor(ctx context.Context, log *zap.Logger, idx *contributorIndex, incoming Contributor) (int64, error) {
	if incoming.Name == "" {
		return 0, nil
	}

	key := contributorKey(incoming.Name, incoming.City, incoming.State, incoming.Zip5, incoming.Employer)
	if i, ok := idx.byKey[key]; ok {
		return idx.list[i].ID, nil
	}

	scores := make([]float64, len(idx.list))
	for i, c := range idx.list {
		scores[i] = r.match.Score(incoming.Name, c.Name,
			Discriminator{incoming.State, c.State},
			Discriminator{incoming.Employer, c.Employer},
		)
	}

	i, tied, found := r.match.best(scores)
	if found && !tied {
		if err := r.store.UpdateContributorConfidence(ctx, idx.list[i].ID, scores[i]); err != nil {
			return 0, err
		}
		if idx.list[i].MatchConfidence < scores[i] {
			idx.list[i].MatchConfidence = scores[i]
		}
		// Index the new sighting's identity too, so the next identical
		// sighting short-circuits.
		idx.byKey[key] = i
		return idx.list[i].ID, nil
	}

	if tied {
		log.Warn("ambiguous contributor match; creating new entity",
			zap.String("name", incoming.Name), zap.Float64("score", scores[i]))
	}

	id, err := r.store.InsertContributor(ctx, incoming)
	if err != nil {
		return 0, err
	}
	incoming.ID = id
	idx.add(incoming)
	return id, nil
}

func (r *Resolver) resolveContributions(ctx context.Context) (int64, error) {
	log := zap.L().With(zap.String("component", "gold.resolve"), zap.String("entity", "contribution"))

	contributors, err := r.store.LoadContributors(ctx)
	if err != nil {
		return 0, err
	}
	contribIdx := newContributorIndex(contributors)

	committees, err := r.store.LoadCommittees(ctx)
	if err != nil {
		return 0, err
	}
	comIdx := newCommitteeIndex(committees)

	var n int64
	fecN, err := r.resolveFECContributions(ctx, log, contribIdx, comIdx)
	if err != nil {
		return n, err
	}
	n += fecN

	mdN, err := r.resolveMDContributions(ctx, log, contribIdx, comIdx)
	if err != nil {
		return n, err
	}
	return n + mdN, nil
}

func (r *Resolver) resolveFECContributions(ctx context.Context, log *zap.Logger, contribIdx *contributorIndex, comIdx *committeeIndex) (int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT source_sub_id, COALESCE(transaction_id, ''), contribution_date, amount,
		        COALESCE(contributor_name, ''), COALESCE(contributor_first_name, ''),
		        COALESCE(contributor_last_name, ''), COALESCE(contributor_city, ''),
		        COALESCE(contributor_state, ''), COALESCE(contributor_zip5, ''),
		        contributor_employer, contributor_occupation, entity_type,
		        COALESCE(committee_id, ''), COALESCE(receipt_type, ''),
		        COALESCE(election_type, ''), COALESCE(memo_code, ''),
		        COALESCE(memo_text, ''), COALESCE(election_cycle, 0)
		 FROM silver.fec_contribution`)
	if err != nil {
		return 0, eris.Wrap(err, "gold: read silver fec contributions")
	}
	defer rows.Close()

	type fecContribution struct {
		subID, txnID, name, firstName, lastName, city, state, zip5,
		employer, occupation, entityType, committeeID, receiptType,
		electionType, memoCode, memoText string
		date   time.Time
		amount pgtype.Numeric
		cycle  int
	}
	var recs []fecContribution
	for rows.Next() {
		var c fecContribution
		if err := rows.Scan(&c.subID, &c.txnID, &c.date, &c.amount, &c.name,
			&c.firstName, &c.lastName, &c.city, &c.state, &c.zip5, &c.employer,
			&c.occupation, &c.entityType, &c.committeeID, &c.receiptType,
			&c.electionType, &c.memoCode, &c.memoText, &c.cycle); err != nil {
			return 0, eris.Wrap(err, "gold: scan silver fec contribution")
		}
		recs = append(recs, c)
	}
	if err := rows.Err(); err != nil {
		return 0, eris.Wrap(err, "gold: iterate silver fec contributions")
	}

	var n int64
	var batch []Contribution
	for _, rec := range recs {
		contributorID, err := r.resolveContributor(ctx, log, contribIdx, Contributor{
			Name:            rec.name,
			FirstName:       rec.firstName,
			LastName:        rec.lastName,
			City:            rec.city,
			State:           rec.state,
			Zip5:            rec.zip5,
			Employer:        rec.employer,
			Occupation:      rec.occupation,
			EntityType:      rec.entityType,
			MatchConfidence: 1.0,
		})
		if err != nil {
			return n, err
		}

		var committeeID, candidateID int64
		if i, ok := comIdx.byFEC[rec.committeeID]; ok {
			committeeID = comIdx.list[i].ID
			candidateID = comIdx.list[i].CandidateID
		}

		earmark := isEarmark(rec.receiptType, rec.memoCode, rec.memoText)
		var conduitID int64
		if earmark {
			if name := earmarkConduitName(rec.memoText); name != "" {
				if i, ok := comIdx.byName[NormalizeName(name)]; ok {
					conduitID = comIdx.list[i].ID
				}
			}
		}

		batch = append(batch, Contribution{
			SourceSystem:         string(source.FEC),
			SourceSubID:          rec.subID,
			SourceTransactionID:  rec.txnID,
			ContributionDate:     rec.date,
			Amount:               rec.amount,
			ContributorID:        contributorID,
			RecipientCommitteeID: committeeID,
			RecipientCandidateID: candidateID,
			ConduitCommitteeID:   conduitID,
			IsEarmarkReceipt:     earmark,
			ContributionType:     rec.receiptType,
			ElectionType:         rec.electionType,
			ElectionYear:         rec.cycle,
			ElectionCycle:        rec.cycle,
			MemoText:             rec.memoText,
		})

		if len(batch) >= r.batchSize {
			flushed, err := r.store.UpsertContributions(ctx, batch)
			if err != nil {
				return n, err
			}
			n += flushed
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		flushed, err := r.store.UpsertContributions(ctx, batch)
		if err != nil {
			return n, err
		}
		n += flushed
	}
	return n, nil
}

func (r *Resolver) resolveMDContributions(ctx context.Context, log *zap.Logger, contribIdx *contributorIndex, comIdx *committeeIndex) (int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT source_content_hash, contribution_date, amount,
		        COALESCE(contributor_name, ''), COALESCE(contributor_city, ''),
		        COALESCE(contributor_state, ''), COALESCE(contributor_zip5, ''),
		        employer_name, employer_occupation, COALESCE(contributor_type, ''),
		        COALESCE(contribution_type, ''), COALESCE(committee_ccf_id, ''),
		        COALESCE(receiving_committee, '')
		 FROM silver.md_contribution`)
	if err != nil {
		return 0, eris.Wrap(err, "gold: read silver md contributions")
	}
	defer rows.Close()

	type mdContribution struct {
		hash, name, city, state, zip5, employer, occupation,
		contributorType, contributionType, ccfID, committeeName string
		date   time.Time
		amount pgtype.Numeric
	}
	var recs []mdContribution
	for rows.Next() {
		var c mdContribution
		if err := rows.Scan(&c.hash, &c.date, &c.amount, &c.name, &c.city,
			&c.state, &c.zip5, &c.employer, &c.occupation, &c.contributorType,
			&c.contributionType, &c.ccfID, &c.committeeName); err != nil {
			return 0, eris.Wrap(err, "gold: scan silver md contribution")
		}
		recs = append(recs, c)
	}
	if err := rows.Err(); err != nil {
		return 0, eris.Wrap(err, "gold: iterate silver md contributions")
	}

	var n int64
	var batch []Contribution
	for _, rec := range recs {
		contributorID, err := r.resolveContributor(ctx, log, contribIdx, Contributor{
			Name:            rec.name,
			City:            rec.city,
			State:           rec.state,
			Zip5:            rec.zip5,
			Employer:        rec.employer,
			Occupation:      rec.occupation,
			EntityType:      rec.contributorType,
			MatchConfidence: 1.0,
		})
		if err != nil {
			return n, err
		}

		var committeeID, candidateID int64
		if rec.ccfID != "" {
			if i, ok := comIdx.byState[rec.ccfID]; ok {
				committeeID = comIdx.list[i].ID
				candidateID = comIdx.list[i].CandidateID
			}
		}
		if committeeID == 0 {
			if i, ok := comIdx.byName[NormalizeName(rec.committeeName)]; ok {
				committeeID = comIdx.list[i].ID
				candidateID = comIdx.list[i].CandidateID
			}
		}

		batch = append(batch, Contribution{
			SourceSystem:         string(source.MDState),
			SourceSubID:          rec.hash,
			ContributionDate:     rec.date,
			Amount:               rec.amount,
			ContributorID:        contributorID,
			RecipientCommitteeID: committeeID,
			RecipientCandidateID: candidateID,
			ContributionType:     rec.contributionType,
			ElectionYear:         rec.date.Year(),
		})

		if len(batch) >= r.batchSize {
			flushed, err := r.store.UpsertContributions(ctx, batch)
			if err != nil {
				return n, err
			}
			n += flushed
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		flushed, err := r.store.UpsertContributions(ctx, batch)
		if err != nil {
			return n, err
		}
		n += flushed
	}
	return n, nil
}

// isEarmark reports whether a receipt is an earmarked pass-through: receipt
// type 15E, or a memo-coded row whose memo text names an earmark.
func isEarmark(receiptType, memoCode, memoText string) bool {
	if receiptType == "15E" {
		return true
	}
	return memoCode == "X" && strings.Contains(strings.ToUpper(memoText), "EARMARK")
}

// earmarkConduitName extracts the conduit committee name from memo text like
// "EARMARKED THROUGH ACTBLUE" or "EARMARKED FOR ... VIA ACTBLUE".
func earmarkConduitName(memoText string) string {
	upper := strings.ToUpper(memoText)
	for _, marker := range []string{"EARMARKED THROUGH ", "EARMARKED VIA ", " VIA "} {
		if i := strings.Index(upper, marker); i >= 0 {
			name := strings.TrimSpace(memoText[i+len(marker):])
			name = strings.Trim(name, ".)")
			if name != "" {
				return name
			}
		}
	}
	return ""
}
