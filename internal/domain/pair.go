package domain

import (
	"regexp"
	"strings"
)

var (
	// decimalCommaRe matches a comma used as a decimal point, e.g. "12,34".
	decimalCommaRe = regexp.MustCompile(`(\d),(\d)`)

	// hemisphereBoundaryRe matches the gap between a latitude ending in a
	// hemisphere letter and the number that starts the longitude:
	// "40°26′46″N 79°58′56″W" or "45.1N, 7.6E".
	hemisphereBoundaryRe = regexp.MustCompile(`([NESW])\s*,?\s*([~\-+.]?\d)`)
)

// SplitCoordinatePair splits a free-text "latitude, longitude" string into its
// two components, trimmed of surrounding whitespace. Decimal commas are
// rewritten to points first when the string holds more than one comma.
func SplitCoordinatePair(s string) (lat, lon string, err error) {
	text := s
	if strings.Count(text, ",") > 1 {
		text = decimalCommaRe.ReplaceAllString(text, "${1}.${2}")
	}

	if parts := strings.Split(text, ","); len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
	}

	bounds := hemisphereBoundaryRe.FindAllStringSubmatchIndex(text, -1)
	if len(bounds) == 1 {
		// Index 3 is the end of the hemisphere letter, index 4 the start of
		// the longitude number.
		b := bounds[0]
		return strings.TrimSpace(text[:b[3]]), strings.TrimSpace(text[b[4]:]), nil
	}

	return "", "", &MalformedCoordinatePairError{Raw: s}
}

// ParseCoordinatePair splits s and parses both halves. Unlike ParseCoordinate
// it fails loudly: a pair that does not yield two coordinates is an error.
func ParseCoordinatePair(s string) (lat, lon float64, err error) {
	latText, lonText, err := SplitCoordinatePair(s)
	if err != nil {
		return 0, 0, err
	}

	lat, okLat := ParseCoordinate(latText)
	lon, okLon := ParseCoordinate(lonText)
	if !okLat || !okLon {
		return 0, 0, &MalformedCoordinatePairError{Raw: s}
	}
	return lat, lon, nil
}
