package silver

import (
	"regexp"
	"strings"
)

// Address is the best-effort decomposition of a free-text Maryland address.
// The raw string is always preserved alongside it; a failed parse leaves the
// components empty and only the raw column populated.
type Address struct {
	Street string
	City   string
	State  string
	Zip5   string
}

// Trailing "... CITY ST 21201" or "... CITY, ST 21201-1234". The state and
// zip anchor the parse from the right; the city is taken as the single token
// before them, so a multi-word city loses its leading words to the street.
var addressTail = regexp.MustCompile(`^(.*?)[\s,]+([A-Za-z.'-]+)[\s,]+([A-Za-z]{2})\s+(\d{5})(?:-\d{4})?\.?\s*$`)

// ParseAddress splits a free-text address into street, city, state, and
// 5-digit zip. ok is false when the trailing state/zip anchor is missing;
// callers then store only the raw string.
func ParseAddress(raw string) (Address, bool) {
	s := strings.Join(strings.Fields(raw), " ")
	m := addressTail.FindStringSubmatch(s)
	if m == nil {
		return Address{}, false
	}
	return Address{
		Street: strings.Trim(m[1], " ,"),
		City:   strings.Trim(m[2], " ,"),
		State:  strings.ToUpper(m[3]),
		Zip5:   m[4],
	}, true
}
