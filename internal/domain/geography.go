package domain

import (
	"strings"
	"unicode"
)

// unitSuffixes lists the administrative-unit words that may trail a county
// name. Matching picks the longest suffix that ends the name part, so
// "Juneau City and Borough" yields "city and borough", not "borough".
var unitSuffixes = []string{
	"city and borough",
	"municipality",
	"census area",
	"borough",
	"parish",
	"county",
	"city",
}

// GeographyKey is the normalized form of a "County, State" label.
type GeographyKey struct {
	State  string // lowercase
	County string // lowercase, whitespace removed
	Suffix string // lowercase unit word, empty when absent
}

// Qualified returns the county with its unit suffix appended, the form used
// to keep two same-named units of one state apart ("baltimorecity").
func (k GeographyKey) Qualified() string {
	return k.County + stripSpace(k.Suffix)
}

// ParseGeography parses a label such as "St. Louis County, Minnesota" into a
// GeographyKey. The first comma separates the state. A trailing unit word is
// recognized case-insensitively and only when preceded by whitespace; a unit
// word that is the whole name stays in the name.
func ParseGeography(label string) (GeographyKey, error) {
	name, state, found := strings.Cut(label, ",")
	name = strings.TrimSpace(name)
	state = strings.TrimSpace(state)
	if !found || name == "" || state == "" {
		return GeographyKey{}, &MalformedGeographyLabelError{Label: label}
	}

	lower := strings.ToLower(name)
	var suffix string
	for _, candidate := range unitSuffixes {
		if !strings.HasSuffix(lower, candidate) {
			continue
		}
		rest := lower[:len(lower)-len(candidate)]
		trimmed := strings.TrimRightFunc(rest, unicode.IsSpace)
		if trimmed == "" || len(trimmed) == len(rest) {
			continue
		}
		suffix = candidate
		lower = trimmed
		break
	}

	return GeographyKey{
		State:  strings.ToLower(state),
		County: stripSpace(lower),
		Suffix: suffix,
	}, nil
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
