package source

import (
	"context"
	"encoding/csv"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/fundlens/fundlens/internal/config"
)

// MDClient implements MDFetcher against the MDCRIS and State Board of
// Elections CSV exports. The exports are unpaginated full dumps filtered by
// the query string.
type MDClient struct {
	http    *httpClient
	baseURL string
}

// NewMDClient creates a Maryland export client.
func NewMDClient(cfg config.SourcesConfig) *MDClient {
	return &MDClient{
		http:    newHTTPClient(cfg),
		baseURL: cfg.MDBaseURL,
	}
}

// csvTable is one parsed export: header-name lookup over raw rows.
type csvTable struct {
	cols map[string]int
	rows [][]string
}

func (t csvTable) get(row []string, name string) string {
	i, ok := t.cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// fetchCSV downloads and parses one export. Header names are normalized to
// lower case so lookups survive cosmetic header changes.
func (c *MDClient) fetchCSV(ctx context.Context, rawURL string) (csvTable, error) {
	body, err := c.http.get(ctx, rawURL)
	if err != nil {
		return csvTable{}, err
	}
	defer body.Close()

	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return csvTable{}, eris.Wrap(err, "md: read export header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return csvTable{}, eris.Wrap(err, "md: read export row")
		}
		rows = append(rows, rec)
	}
	return csvTable{cols: cols, rows: rows}, nil
}

// Contributions downloads the MDCRIS contribution export for a filing year,
// bounded by the window when set. Dates are MM/DD/YYYY on the wire.
func (c *MDClient) Contributions(ctx context.Context, filingYear int, window DateWindow) ([]MDContribution, error) {
	q := url.Values{}
	q.Set("filingYear", strconv.Itoa(filingYear))
	if window.Start != "" {
		q.Set("startDate", window.Start)
	}
	if window.End != "" {
		q.Set("endDate", window.End)
	}

	table, err := c.fetchCSV(ctx, c.baseURL+"/Public/ExportCsv/Contributions?"+q.Encode())
	if err != nil {
		return nil, eris.Wrapf(err, "md: contributions export for %d", filingYear)
	}

	out := make([]MDContribution, 0, len(table.rows))
	for _, row := range table.rows {
		out = append(out, MDContribution{
			ReceivingCommittee: table.get(row, "receiving committee"),
			FilingPeriod:       table.get(row, "filing period"),
			ContributionDate:   table.get(row, "contribution date"),
			ContributorName:    table.get(row, "contributor name"),
			ContributorAddress: table.get(row, "contributor address"),
			ContributorType:    table.get(row, "contributor type"),
			ContributionType:   table.get(row, "contribution type"),
			ContributionAmount: table.get(row, "contribution amount"),
			EmployerName:       table.get(row, "employer name"),
			EmployerOccupation: table.get(row, "employer occupation"),
			Office:             table.get(row, "office"),
			FundType:           table.get(row, "fundtype"),
		})
	}
	return out, nil
}

// Committees downloads the committee export for a filing year.
func (c *MDClient) Committees(ctx context.Context, filingYear int) ([]MDCommittee, error) {
	q := url.Values{}
	q.Set("filingYear", strconv.Itoa(filingYear))

	table, err := c.fetchCSV(ctx, c.baseURL+"/Public/ExportCsv/Committees?"+q.Encode())
	if err != nil {
		return nil, eris.Wrapf(err, "md: committees export for %d", filingYear)
	}

	out := make([]MDCommittee, 0, len(table.rows))
	for _, row := range table.rows {
		out = append(out, MDCommittee{
			CCFID:              table.get(row, "ccf id"),
			CommitteeType:      table.get(row, "committee type"),
			CommitteeName:      table.get(row, "committee name"),
			CommitteeStatus:    table.get(row, "committee status"),
			CitationViolations: table.get(row, "citation/violations"),
			ElectionType:       table.get(row, "election type"),
			RegisteredDate:     table.get(row, "registered date"),
			AmendedDate:        table.get(row, "amended date"),
			ChairpersonName:    table.get(row, "chairperson name"),
			ChairpersonAddress: table.get(row, "chairperson address"),
			TreasurerName:      table.get(row, "treasurer name"),
			TreasurerAddress:   table.get(row, "treasurer address"),
		})
	}
	return out, nil
}

// Candidates downloads the State Board of Elections candidate export for an
// election year and type.
func (c *MDClient) Candidates(ctx context.Context, electionYear int, electionType string) ([]MDCandidate, error) {
	q := url.Values{}
	q.Set("electionYear", strconv.Itoa(electionYear))
	if electionType != "" {
		q.Set("electionType", electionType)
	}

	table, err := c.fetchCSV(ctx, c.baseURL+"/Public/ExportCsv/Candidates?"+q.Encode())
	if err != nil {
		return nil, eris.Wrapf(err, "md: candidates export for %d", electionYear)
	}

	out := make([]MDCandidate, 0, len(table.rows))
	for _, row := range table.rows {
		out = append(out, MDCandidate{
			OfficeName:        table.get(row, "office name"),
			District:          table.get(row, "district"),
			LastName:          table.get(row, "candidate last name"),
			FirstName:         table.get(row, "candidate first name"),
			AdditionalInfo:    table.get(row, "additional information"),
			Party:             table.get(row, "party"),
			Jurisdiction:      table.get(row, "jurisdiction"),
			Gender:            table.get(row, "gender"),
			Status:            table.get(row, "status"),
			FilingTypeAndDate: table.get(row, "filing type and date"),
			CampaignAddress1:  table.get(row, "campaign address 1"),
			CampaignAddress2:  table.get(row, "campaign address 2"),
			CampaignCity:      table.get(row, "campaign city"),
			CampaignState:     table.get(row, "campaign state"),
			CampaignZip:       table.get(row, "campaign zip"),
			PhoneNumber:       table.get(row, "phone number"),
			Email:             table.get(row, "email"),
			Website:           table.get(row, "website"),
			Facebook:          table.get(row, "facebook"),
			Twitter:           table.get(row, "twitter"),
			CommitteeName:     table.get(row, "committee name"),
			ElectionYear:      table.get(row, "election year"),
			ElectionType:      table.get(row, "election type"),
		})
	}
	return out, nil
}
