// Package contenthash computes deterministic content-addressed identifiers
// for source records that carry no natural key. The same normalization is
// shared by first ingestion and every re-ingestion/backfill path; diverging
// normalizations would silently create duplicate bronze rows.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
)

// fieldSep separates normalized fields in the canonical form. A control
// character cannot occur in source CSV values, so "A","BC" and "AB","C"
// never canonicalize identically.
const fieldSep = "\x1f"

var foldCaser = cases.Fold()

// normalizeField trims, case-folds, and collapses internal whitespace.
func normalizeField(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = foldCaser.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Digest returns the 64-character hex SHA-256 of the canonical form of the
// given defining fields, in the order given. Identical logical input always
// yields an identical digest; collisions are treated as identity.
func Digest(fields ...string) string {
	normalized := make([]string, len(fields))
	for i, f := range fields {
		normalized[i] = normalizeField(f)
	}
	sum := sha256.Sum256([]byte(strings.Join(normalized, fieldSep)))
	return hex.EncodeToString(sum[:])
}

// ContributionHash fixes the defining-field order for Maryland contributions.
// The receiving committee, date, contributor name, address, and amount
// together identify one logical contribution row in the MDCRIS export.
func ContributionHash(receivingCommittee, contributionDate, contributorName, contributorAddress, amount string) string {
	return Digest(receivingCommittee, contributionDate, contributorName, contributorAddress, amount)
}

// CandidateHash fixes the defining-field order for Maryland candidates.
// Office, name, election year, and election type identify one filing.
func CandidateHash(officeName, lastName, firstName, electionYear, electionType string) string {
	return Digest(officeName, lastName, firstName, electionYear, electionType)
}
