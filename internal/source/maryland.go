package source

import "context"

// MDContribution is one row of the MDCRIS contribution export. Everything
// arrives as strings, dates and amounts included; there is no natural key.
type MDContribution struct {
	ReceivingCommittee string
	FilingPeriod       string
	ContributionDate   string
	ContributorName    string
	ContributorAddress string
	ContributorType    string
	ContributionType   string
	ContributionAmount string
	EmployerName       string
	EmployerOccupation string
	Office             string
	FundType           string
}

// MDCommittee is one row of the SBE committee export. CCFID is the stable
// state-assigned key.
type MDCommittee struct {
	CCFID              string
	CommitteeType      string
	CommitteeName      string
	CommitteeStatus    string
	CitationViolations string
	ElectionType       string
	RegisteredDate     string
	AmendedDate        string
	ChairpersonName    string
	ChairpersonAddress string
	TreasurerName      string
	TreasurerAddress   string
}

// MDCandidate is one row of the SBE candidate export; no natural key.
type MDCandidate struct {
	OfficeName        string
	District          string
	LastName          string
	FirstName         string
	AdditionalInfo    string
	Party             string
	Jurisdiction      string
	Gender            string
	Status            string
	FilingTypeAndDate string
	CampaignAddress1  string
	CampaignAddress2  string
	CampaignCity      string
	CampaignState     string
	CampaignZip       string
	PhoneNumber       string
	Email             string
	Website           string
	Facebook          string
	Twitter           string
	CommitteeName     string
	ElectionYear      string
	ElectionType      string
}

// MDFetcher is the read boundary to the Maryland exports. The exports are
// not paginated; each call returns the full result for the given window.
type MDFetcher interface {
	Contributions(ctx context.Context, filingYear int, window DateWindow) ([]MDContribution, error)
	Committees(ctx context.Context, filingYear int) ([]MDCommittee, error)
	Candidates(ctx context.Context, electionYear int, electionType string) ([]MDCandidate, error)
}
