package source

import "context"

// FECContribution is one Schedule A receipt as returned by the FEC API.
// sub_id is the stable natural key. RawJSON preserves the full API document.
type FECContribution struct {
	SubID                     string
	TransactionID             string
	FileNumber                int64
	AmendmentIndicator        string
	ContributionReceiptDate   string
	ContributionReceiptAmount string
	ContributorAggregateYTD   string
	ContributorName           string
	ContributorFirstName      string
	ContributorMiddleName     string
	ContributorLastName       string
	ContributorCity           string
	ContributorState          string
	ContributorZip            string
	ContributorEmployer       string
	ContributorOccupation     string
	EntityType                string
	CommitteeID               string
	CommitteeName             string
	RecipientCommitteeDesig   string
	RecipientCommitteeType    string
	RecipientCommitteeOrgType string
	ReceiptType               string
	ElectionType              string
	MemoText                  string
	MemoCode                  string
	TwoYearTransactionPeriod  int
	ReportYear                int
	ReportType                string
	RawJSON                   []byte
}

// FECCandidate is one candidate master record. candidate_id is the key.
type FECCandidate struct {
	CandidateID        string
	Name               string
	FirstName          string
	LastName           string
	Office             string
	OfficeFull         string
	State              string
	District           string
	DistrictNumber     int
	Party              string
	PartyFull          string
	IncumbentChallenge string
	Cycles             []byte
	ElectionYears      []byte
	ElectionDistricts  []byte
	CandidateStatus    string
	HasRaisedFunds     bool
	FederalFundsFlag   bool
	FirstFileDate      string
	LastFileDate       string
	AddressStreet1     string
	AddressStreet2     string
	AddressCity        string
	AddressState       string
	AddressZip         string
	RawJSON            []byte
}

// FECCommittee is one committee master record. committee_id is the key.
type FECCommittee struct {
	CommitteeID          string
	Name                 string
	CommitteeType        string
	CommitteeTypeFull    string
	Designation          string
	DesignationFull      string
	Party                string
	PartyFull            string
	State                string
	City                 string
	Street1              string
	Street2              string
	Zip                  string
	TreasurerName        string
	OrganizationType     string
	OrganizationTypeFull string
	FilingFrequency      string
	FirstFileDate        string
	LastFileDate         string
	CandidateIDs         []byte
	IsActive             bool
	Cycles               []byte
	RawJSON              []byte
}

// FECContributionPage is one page of Schedule A results. HasMore is false on
// the final page; Page echoes the page number that was fetched.
type FECContributionPage struct {
	Records []FECContribution
	Page    int
	HasMore bool
}

// FECFetcher is the read boundary to the FEC API. Implementations handle
// auth, retries, and pagination tokens; callers drive the page loop.
type FECFetcher interface {
	ContributionPage(ctx context.Context, committeeID string, cycle int, window DateWindow, page int) (FECContributionPage, error)
	Candidates(ctx context.Context, cycle int) ([]FECCandidate, error)
	Committees(ctx context.Context, cycle int) ([]FECCommittee, error)
}
