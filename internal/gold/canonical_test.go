package gold

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fundlens/fundlens/internal/source"
)

func TestCanonicalOffice_FEC(t *testing.T) {
	tests := []struct {
		raw        string
		wantOffice string
		wantLevel  string
	}{
		{"P", OfficePresident, JurisdictionFederal},
		{"S", OfficeUSSenate, JurisdictionFederal},
		{"H", OfficeUSHouse, JurisdictionFederal},
		{"h", OfficeUSHouse, JurisdictionFederal},
		{"", OfficeOther, JurisdictionFederal},
		{"Z", OfficeOther, JurisdictionFederal},
	}
	for _, tt := range tests {
		t.Run("fec_"+tt.raw, func(t *testing.T) {
			office, level := CanonicalOffice(source.FEC, tt.raw)
			assert.Equal(t, tt.wantOffice, office)
			assert.Equal(t, tt.wantLevel, level)
		})
	}
}

func TestCanonicalOffice_Maryland(t *testing.T) {
	tests := []struct {
		raw        string
		wantOffice string
		wantLevel  string
	}{
		{"Governor / Lt. Governor", OfficeLtGovernor, JurisdictionState},
		{"Governor", OfficeGovernor, JurisdictionState},
		{"Comptroller", OfficeComptroller, JurisdictionState},
		{"Attorney General", OfficeAttorneyGeneral, JurisdictionState},
		{"State Senator", OfficeStateSenate, JurisdictionState},
		{"House of Delegates", OfficeStateHouse, JurisdictionState},
		{"County Executive", OfficeCountyExecutive, JurisdictionCounty},
		{"County Council At Large", OfficeCountyCouncil, JurisdictionCounty},
		{"State's Attorney", OfficeStatesAttorney, JurisdictionCounty},
		{"Sheriff", OfficeSheriff, JurisdictionCounty},
		{"Judge of the Orphans' Court", OfficeJudge, JurisdictionCounty},
		{"Mayor", OfficeMayor, JurisdictionMunicipal},
		{"City Council", OfficeCityCouncil, JurisdictionMunicipal},
		{"Board of Education", OfficeSchoolBoard, JurisdictionCounty},
		{"", OfficeOther, JurisdictionState},
		{"Register of Wills", OfficeOther, JurisdictionState},
	}
	for _, tt := range tests {
		t.Run("md_"+tt.raw, func(t *testing.T) {
			office, level := CanonicalOffice(source.MDState, tt.raw)
			assert.Equal(t, tt.wantOffice, office)
			assert.Equal(t, tt.wantLevel, level)
		})
	}
}

func TestOfficeLocality(t *testing.T) {
	tests := []struct {
		name         string
		level        string
		jurisdiction string
		wantCounty   string
		wantCity     string
	}{
		{"county office", JurisdictionCounty, "Montgomery County", "Montgomery County", ""},
		{"municipal office", JurisdictionMunicipal, "Baltimore City", "", "Baltimore City"},
		{"statewide office", JurisdictionState, "Statewide", "", ""},
		{"federal office", JurisdictionFederal, "", "", ""},
		{"blank jurisdiction", JurisdictionCounty, "  ", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			county, city := OfficeLocality(tt.level, tt.jurisdiction)
			assert.Equal(t, tt.wantCounty, county)
			assert.Equal(t, tt.wantCity, city)
		})
	}
}

func TestCanonicalCommitteeType(t *testing.T) {
	tests := []struct {
		name string
		kind source.Kind
		raw  string
		want string
	}{
		{"fec house candidate", source.FEC, "H", CommitteeCandidate},
		{"fec presidential", source.FEC, "P", CommitteeCandidate},
		{"fec pac", source.FEC, "Q", CommitteePAC},
		{"fec super pac", source.FEC, "O", CommitteeSuperPAC},
		{"fec party", source.FEC, "Y", CommitteeParty},
		{"fec joint fundraising", source.FEC, "V", CommitteeJointFund},
		{"fec unknown letter", source.FEC, "U", CommitteeOther},
		{"md slate", source.MDState, "Slate", CommitteeSlate},
		{"md ballot issue", source.MDState, "Ballot Issue", CommitteeBallotIssue},
		{"md central committee", source.MDState, "Central Committee", CommitteeParty},
		{"md pac", source.MDState, "Political Action Committee", CommitteePAC},
		{"md candidate", source.MDState, "Candidate Committee", CommitteeCandidate},
		{"md empty", source.MDState, "", CommitteeOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalCommitteeType(tt.kind, tt.raw))
		})
	}
}
