package source

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/fundlens/fundlens/internal/config"
)

// FECClient implements FECFetcher against the openFEC REST API.
type FECClient struct {
	http     *httpClient
	baseURL  string
	apiKey   string
	pageSize int
}

// NewFECClient creates an openFEC API client.
func NewFECClient(cfg config.SourcesConfig, pageSize int) *FECClient {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &FECClient{
		http:     newHTTPClient(cfg),
		baseURL:  cfg.FECBaseURL,
		apiKey:   cfg.FECAPIKey,
		pageSize: pageSize,
	}
}

// fecEnvelope is the common openFEC response shape. Results stay raw so the
// full source document can be preserved alongside the decoded fields.
type fecEnvelope struct {
	Results    []json.RawMessage `json:"results"`
	Pagination struct {
		Page  int `json:"page"`
		Pages int `json:"pages"`
		Count int `json:"count"`
	} `json:"pagination"`
}

type fecScheduleARecord struct {
	SubID                     string      `json:"sub_id"`
	TransactionID             string      `json:"transaction_id"`
	FileNumber                int64       `json:"file_number"`
	AmendmentIndicator        string      `json:"amendment_indicator"`
	ContributionReceiptDate   string      `json:"contribution_receipt_date"`
	ContributionReceiptAmount json.Number `json:"contribution_receipt_amount"`
	ContributorAggregateYTD   json.Number `json:"contributor_aggregate_ytd"`
	ContributorName           string      `json:"contributor_name"`
	ContributorFirstName      string      `json:"contributor_first_name"`
	ContributorMiddleName     string      `json:"contributor_middle_name"`
	ContributorLastName       string      `json:"contributor_last_name"`
	ContributorCity           string      `json:"contributor_city"`
	ContributorState          string      `json:"contributor_state"`
	ContributorZip            string      `json:"contributor_zip"`
	ContributorEmployer       string      `json:"contributor_employer"`
	ContributorOccupation     string      `json:"contributor_occupation"`
	EntityType                string      `json:"entity_type"`
	CommitteeID               string      `json:"committee_id"`
	Committee                 struct {
		Name             string `json:"name"`
		Designation      string `json:"designation"`
		CommitteeType    string `json:"committee_type"`
		OrganizationType string `json:"organization_type"`
	} `json:"committee"`
	ReceiptType              string `json:"receipt_type"`
	ElectionType             string `json:"election_type"`
	MemoText                 string `json:"memo_text"`
	MemoCode                 string `json:"memo_code"`
	TwoYearTransactionPeriod int    `json:"two_year_transaction_period"`
	ReportYear               int    `json:"report_year"`
	ReportType               string `json:"report_type"`
}

// ContributionPage fetches one page of Schedule A receipts for a committee.
func (c *FECClient) ContributionPage(ctx context.Context, committeeID string, cycle int, window DateWindow, page int) (FECContributionPage, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("committee_id", committeeID)
	q.Set("two_year_transaction_period", strconv.Itoa(cycle))
	q.Set("per_page", strconv.Itoa(c.pageSize))
	q.Set("page", strconv.Itoa(page))
	q.Set("sort", "contribution_receipt_date")
	q.Set("sort_hide_null", "true")
	if window.Start != "" {
		q.Set("min_date", window.Start)
	}
	if window.End != "" {
		q.Set("max_date", window.End)
	}

	var env fecEnvelope
	if err := c.http.getJSON(ctx, c.baseURL+"/schedules/schedule_a/?"+q.Encode(), &env); err != nil {
		return FECContributionPage{}, eris.Wrapf(err, "fec: schedule A page %d for %s", page, committeeID)
	}

	out := FECContributionPage{
		Page:    page,
		HasMore: page < env.Pagination.Pages,
	}
	for _, raw := range env.Results {
		var rec fecScheduleARecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return FECContributionPage{}, eris.Wrapf(err, "fec: decode schedule A record on page %d", page)
		}
		out.Records = append(out.Records, FECContribution{
			SubID:                     rec.SubID,
			TransactionID:             rec.TransactionID,
			FileNumber:                rec.FileNumber,
			AmendmentIndicator:        rec.AmendmentIndicator,
			ContributionReceiptDate:   rec.ContributionReceiptDate,
			ContributionReceiptAmount: rec.ContributionReceiptAmount.String(),
			ContributorAggregateYTD:   rec.ContributorAggregateYTD.String(),
			ContributorName:           rec.ContributorName,
			ContributorFirstName:      rec.ContributorFirstName,
			ContributorMiddleName:     rec.ContributorMiddleName,
			ContributorLastName:       rec.ContributorLastName,
			ContributorCity:           rec.ContributorCity,
			ContributorState:          rec.ContributorState,
			ContributorZip:            rec.ContributorZip,
			ContributorEmployer:       rec.ContributorEmployer,
			ContributorOccupation:     rec.ContributorOccupation,
			EntityType:                rec.EntityType,
			CommitteeID:               rec.CommitteeID,
			CommitteeName:             rec.Committee.Name,
			RecipientCommitteeDesig:   rec.Committee.Designation,
			RecipientCommitteeType:    rec.Committee.CommitteeType,
			RecipientCommitteeOrgType: rec.Committee.OrganizationType,
			ReceiptType:               rec.ReceiptType,
			ElectionType:              rec.ElectionType,
			MemoText:                  rec.MemoText,
			MemoCode:                  rec.MemoCode,
			TwoYearTransactionPeriod:  rec.TwoYearTransactionPeriod,
			ReportYear:                rec.ReportYear,
			RawJSON:                   []byte(raw),
		})
	}
	return out, nil
}

type fecCandidateRecord struct {
	CandidateID        string          `json:"candidate_id"`
	Name               string          `json:"name"`
	FirstName          string          `json:"first_name"`
	LastName           string          `json:"last_name"`
	Office             string          `json:"office"`
	OfficeFull         string          `json:"office_full"`
	State              string          `json:"state"`
	District           string          `json:"district"`
	DistrictNumber     int             `json:"district_number"`
	Party              string          `json:"party"`
	PartyFull          string          `json:"party_full"`
	IncumbentChallenge string          `json:"incumbent_challenge"`
	Cycles             json.RawMessage `json:"cycles"`
	ElectionYears      json.RawMessage `json:"election_years"`
	ElectionDistricts  json.RawMessage `json:"election_districts"`
	CandidateStatus    string          `json:"candidate_status"`
	HasRaisedFunds     bool            `json:"has_raised_funds"`
	FederalFundsFlag   bool            `json:"federal_funds_flag"`
	FirstFileDate      string          `json:"first_file_date"`
	LastFileDate       string          `json:"last_file_date"`
	AddressStreet1     string          `json:"address_street_1"`
	AddressStreet2     string          `json:"address_street_2"`
	AddressCity        string          `json:"address_city"`
	AddressState       string          `json:"address_state"`
	AddressZip         string          `json:"address_zip"`
}

// Candidates fetches the full candidate master for a cycle.
func (c *FECClient) Candidates(ctx context.Context, cycle int) ([]FECCandidate, error) {
	var out []FECCandidate
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("api_key", c.apiKey)
		q.Set("cycle", strconv.Itoa(cycle))
		q.Set("per_page", strconv.Itoa(c.pageSize))
		q.Set("page", strconv.Itoa(page))
		q.Set("sort", "name")

		var env fecEnvelope
		if err := c.http.getJSON(ctx, c.baseURL+"/candidates/?"+q.Encode(), &env); err != nil {
			return nil, eris.Wrapf(err, "fec: candidates page %d", page)
		}

		for _, raw := range env.Results {
			var rec fecCandidateRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, eris.Wrapf(err, "fec: decode candidate on page %d", page)
			}
			out = append(out, FECCandidate{
				CandidateID:        rec.CandidateID,
				Name:               rec.Name,
				FirstName:          rec.FirstName,
				LastName:           rec.LastName,
				Office:             rec.Office,
				OfficeFull:         rec.OfficeFull,
				State:              rec.State,
				District:           rec.District,
				DistrictNumber:     rec.DistrictNumber,
				Party:              rec.Party,
				PartyFull:          rec.PartyFull,
				IncumbentChallenge: rec.IncumbentChallenge,
				Cycles:             []byte(rec.Cycles),
				ElectionYears:      []byte(rec.ElectionYears),
				ElectionDistricts:  []byte(rec.ElectionDistricts),
				CandidateStatus:    rec.CandidateStatus,
				HasRaisedFunds:     rec.HasRaisedFunds,
				FederalFundsFlag:   rec.FederalFundsFlag,
				FirstFileDate:      rec.FirstFileDate,
				LastFileDate:       rec.LastFileDate,
				AddressStreet1:     rec.AddressStreet1,
				AddressStreet2:     rec.AddressStreet2,
				AddressCity:        rec.AddressCity,
				AddressState:       rec.AddressState,
				AddressZip:         rec.AddressZip,
				RawJSON:            []byte(raw),
			})
		}

		if page >= env.Pagination.Pages {
			return out, nil
		}
	}
}

type fecCommitteeRecord struct {
	CommitteeID          string          `json:"committee_id"`
	Name                 string          `json:"name"`
	CommitteeType        string          `json:"committee_type"`
	CommitteeTypeFull    string          `json:"committee_type_full"`
	Designation          string          `json:"designation"`
	DesignationFull      string          `json:"designation_full"`
	Party                string          `json:"party"`
	PartyFull            string          `json:"party_full"`
	State                string          `json:"state"`
	City                 string          `json:"city"`
	Street1              string          `json:"street_1"`
	Street2              string          `json:"street_2"`
	Zip                  string          `json:"zip"`
	TreasurerName        string          `json:"treasurer_name"`
	OrganizationType     string          `json:"organization_type"`
	OrganizationTypeFull string          `json:"organization_type_full"`
	FilingFrequency      string          `json:"filing_frequency"`
	FirstFileDate        string          `json:"first_file_date"`
	LastFileDate         string          `json:"last_file_date"`
	CandidateIDs         json.RawMessage `json:"candidate_ids"`
	IsActive             bool            `json:"is_active"`
	Cycles               json.RawMessage `json:"cycles"`
}

// Committees fetches the full committee master for a cycle.
func (c *FECClient) Committees(ctx context.Context, cycle int) ([]FECCommittee, error) {
	var out []FECCommittee
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("api_key", c.apiKey)
		q.Set("cycle", strconv.Itoa(cycle))
		q.Set("per_page", strconv.Itoa(c.pageSize))
		q.Set("page", strconv.Itoa(page))
		q.Set("sort", "name")

		var env fecEnvelope
		if err := c.http.getJSON(ctx, c.baseURL+"/committees/?"+q.Encode(), &env); err != nil {
			return nil, eris.Wrapf(err, "fec: committees page %d", page)
		}

		for _, raw := range env.Results {
			var rec fecCommitteeRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, eris.Wrapf(err, "fec: decode committee on page %d", page)
			}
			out = append(out, FECCommittee{
				CommitteeID:          rec.CommitteeID,
				Name:                 rec.Name,
				CommitteeType:        rec.CommitteeType,
				CommitteeTypeFull:    rec.CommitteeTypeFull,
				Designation:          rec.Designation,
				DesignationFull:      rec.DesignationFull,
				Party:                rec.Party,
				PartyFull:            rec.PartyFull,
				State:                rec.State,
				City:                 rec.City,
				Street1:              rec.Street1,
				Street2:              rec.Street2,
				Zip:                  rec.Zip,
				TreasurerName:        rec.TreasurerName,
				OrganizationType:     rec.OrganizationType,
				OrganizationTypeFull: rec.OrganizationTypeFull,
				FilingFrequency:      rec.FilingFrequency,
				FirstFileDate:        rec.FirstFileDate,
				LastFileDate:         rec.LastFileDate,
				CandidateIDs:         []byte(rec.CandidateIDs),
				IsActive:             rec.IsActive,
				Cycles:               []byte(rec.Cycles),
				RawJSON:              []byte(raw),
			})
		}

		if page >= env.Pagination.Pages {
			return out, nil
		}
	}
}
