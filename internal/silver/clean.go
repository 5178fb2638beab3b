// Package silver turns bronze rows into typed, cleaned, per-source tables.
// Normalization is re-runnable: it reads whatever bronze holds and upserts
// on the bronze source reference.
package silver

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"

	"github.com/fundlens/fundlens/internal/db"
)

// NotProvided is the sentinel for required string fields the source left
// blank. Downstream grouping treats it as a real value, not a null.
const NotProvided = "NOT PROVIDED"

// UnknownEntityType is the default when a source omits the entity type.
const UnknownEntityType = "UNK"

// CleanRequired trims a required string and substitutes the sentinel when
// nothing remains.
func CleanRequired(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NotProvided
	}
	return s
}

// CleanOptional trims an optional string; empty stays empty and lands as an
// empty string, not the sentinel.
func CleanOptional(s string) string {
	return strings.TrimSpace(s)
}

// Zip5 reduces a zip or zip+4 to its 5-digit prefix. Anything shorter than
// 5 digits is returned as "" and the column goes null.
func Zip5(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '-'); i >= 0 {
		s = s[:i]
	}
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) < 5 {
		return ""
	}
	return d[:5]
}

// ParseAmount parses a source amount string into a Numeric. An empty or
// unparsable amount is a hard requirement failure for contribution rows.
func ParseAmount(s string) (pgtype.Numeric, error) {
	return db.Numeric(s)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
}

// ParseDate parses the date formats the two sources actually emit.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, eris.New("silver: empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("silver: unparsable date %q", s)
}

// NullDate is ParseDate for optional columns: empty input yields an invalid
// pgtype.Date (SQL NULL), unparsable non-empty input also yields NULL rather
// than failing the record.
func NullDate(s string) pgtype.Date {
	t, err := ParseDate(s)
	if err != nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}
