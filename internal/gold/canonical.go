package gold

import (
	"strings"

	"github.com/fundlens/fundlens/internal/source"
)

// Canonical office values shared across sources.
const (
	OfficePresident       = "PRESIDENT"
	OfficeUSSenate        = "US_SENATE"
	OfficeUSHouse         = "US_HOUSE"
	OfficeGovernor        = "GOVERNOR"
	OfficeLtGovernor      = "LT_GOVERNOR"
	OfficeComptroller     = "COMPTROLLER"
	OfficeAttorneyGeneral = "ATTORNEY_GENERAL"
	OfficeStateSenate     = "STATE_SENATE"
	OfficeStateHouse      = "STATE_HOUSE"
	OfficeCountyExecutive = "COUNTY_EXECUTIVE"
	OfficeCountyCouncil   = "COUNTY_COUNCIL"
	OfficeStatesAttorney  = "STATES_ATTORNEY"
	OfficeSheriff         = "SHERIFF"
	OfficeJudge           = "JUDGE"
	OfficeMayor           = "MAYOR"
	OfficeCityCouncil     = "CITY_COUNCIL"
	OfficeSchoolBoard     = "SCHOOL_BOARD"
	OfficeOther           = "OTHER"
)

// Jurisdiction levels.
const (
	JurisdictionFederal   = "FEDERAL"
	JurisdictionState     = "STATE"
	JurisdictionCounty    = "COUNTY"
	JurisdictionMunicipal = "MUNICIPAL"
)

// Canonical committee types.
const (
	CommitteeCandidate   = "CANDIDATE"
	CommitteePAC         = "PAC"
	CommitteeSuperPAC    = "SUPER_PAC"
	CommitteeParty       = "PARTY"
	CommitteeSlate       = "SLATE"
	CommitteeBallotIssue = "BALLOT_ISSUE"
	CommitteeJointFund   = "JOINT_FUNDRAISING"
	CommitteeOther       = "OTHER"
)

// CanonicalOffice maps a source office designation onto the shared office
// enum and its jurisdiction level. The raw value is preserved separately in
// office_raw; canonicalization never needs to be reversible.
func CanonicalOffice(kind source.Kind, raw string) (office, level string) {
	if kind == source.FEC {
		switch strings.ToUpper(strings.TrimSpace(raw)) {
		case "P", "PRESIDENT":
			return OfficePresident, JurisdictionFederal
		case "S", "SENATE":
			return OfficeUSSenate, JurisdictionFederal
		case "H", "HOUSE":
			return OfficeUSHouse, JurisdictionFederal
		default:
			return OfficeOther, JurisdictionFederal
		}
	}

	o := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case o == "":
		return OfficeOther, JurisdictionState
	case strings.Contains(o, "LIEUTENANT GOVERNOR") || strings.Contains(o, "LT. GOVERNOR"):
		return OfficeLtGovernor, JurisdictionState
	case strings.Contains(o, "GOVERNOR"):
		return OfficeGovernor, JurisdictionState
	case strings.Contains(o, "COMPTROLLER"):
		return OfficeComptroller, JurisdictionState
	case strings.Contains(o, "ATTORNEY GENERAL"):
		return OfficeAttorneyGeneral, JurisdictionState
	case strings.Contains(o, "STATE SENAT"):
		return OfficeStateSenate, JurisdictionState
	case strings.Contains(o, "DELEGATE") || strings.Contains(o, "HOUSE OF DELEGATES"):
		return OfficeStateHouse, JurisdictionState
	case strings.Contains(o, "COUNTY EXECUTIVE"):
		return OfficeCountyExecutive, JurisdictionCounty
	case strings.Contains(o, "COUNTY COUNCIL") || strings.Contains(o, "COUNTY COMMISSIONER"):
		return OfficeCountyCouncil, JurisdictionCounty
	case strings.Contains(o, "STATE'S ATTORNEY") || strings.Contains(o, "STATES ATTORNEY"):
		return OfficeStatesAttorney, JurisdictionCounty
	case strings.Contains(o, "SHERIFF"):
		return OfficeSheriff, JurisdictionCounty
	case strings.Contains(o, "JUDGE") || strings.Contains(o, "ORPHANS' COURT"):
		return OfficeJudge, JurisdictionCounty
	case strings.Contains(o, "MAYOR"):
		return OfficeMayor, JurisdictionMunicipal
	case strings.Contains(o, "CITY COUNCIL") || strings.Contains(o, "TOWN COUNCIL"):
		return OfficeCityCouncil, JurisdictionMunicipal
	case strings.Contains(o, "BOARD OF EDUCATION") || strings.Contains(o, "SCHOOL BOARD"):
		return OfficeSchoolBoard, JurisdictionCounty
	default:
		return OfficeOther, JurisdictionState
	}
}

// OfficeLocality places an office in its county or city from the filing's
// jurisdiction field. Statewide and federal offices carry neither.
func OfficeLocality(level, jurisdiction string) (county, city string) {
	j := strings.TrimSpace(jurisdiction)
	if j == "" {
		return "", ""
	}
	switch level {
	case JurisdictionCounty:
		return j, ""
	case JurisdictionMunicipal:
		return "", j
	default:
		return "", ""
	}
}

// CanonicalCommitteeType maps the FEC committee type letter or the Maryland
// committee type label onto the shared committee type enum.
func CanonicalCommitteeType(kind source.Kind, raw string) string {
	if kind == source.FEC {
		switch strings.ToUpper(strings.TrimSpace(raw)) {
		case "H", "S", "P", "A", "B":
			return CommitteeCandidate
		case "N", "Q":
			return CommitteePAC
		case "O":
			return CommitteeSuperPAC
		case "X", "Y", "Z":
			return CommitteeParty
		case "V", "W":
			return CommitteeJointFund
		default:
			return CommitteeOther
		}
	}

	t := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case t == "":
		return CommitteeOther
	case strings.Contains(t, "SLATE"):
		return CommitteeSlate
	case strings.Contains(t, "BALLOT"):
		return CommitteeBallotIssue
	case strings.Contains(t, "PARTY") || strings.Contains(t, "CENTRAL COMMITTEE"):
		return CommitteeParty
	case strings.Contains(t, "PAC") || strings.Contains(t, "POLITICAL ACTION"):
		return CommitteePAC
	case strings.Contains(t, "CANDIDATE") || strings.Contains(t, "GUBERNATORIAL"):
		return CommitteeCandidate
	default:
		return CommitteeOther
	}
}
