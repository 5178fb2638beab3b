package db

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"
)

// Numeric parses a decimal string into a pgtype.Numeric. Dollar signs and
// thousands separators are stripped first; sources disagree on formatting.
func Numeric(s string) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return n, eris.New("db: numeric: empty value")
	}
	// Exports wrap negative amounts in parentheses.
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}
	if err := n.Scan(s); err != nil {
		return n, eris.Wrapf(err, "db: numeric: parse %q", s)
	}
	return n, nil
}

// NullNumeric is Numeric but maps empty input to SQL NULL instead of an
// error. Parse failures on non-empty input still error.
func NullNumeric(s string) (pgtype.Numeric, error) {
	if strings.TrimSpace(s) == "" {
		return pgtype.Numeric{}, nil
	}
	return Numeric(s)
}
