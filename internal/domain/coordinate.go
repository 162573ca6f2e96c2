package domain

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Glyph sets accepted in degree/minute/second notation. Wikipedia, GeoHack and
// hand-typed spreadsheets disagree on which marks to use, so every variant seen
// in the wild is accepted.
const (
	degreeMarks = "°oº˚"
	minuteMarks = "'′’"
	secondMarks = "\"″”"
)

// ParseCoordinate converts a latitude or longitude token into signed decimal
// degrees. It accepts plain decimals ("45.23", already signed), decimal degrees
// with a hemisphere ("45.23°S") and degrees/minutes/seconds ("40°26'46\"N",
// "~12°30′E"). Hemisphere letters are uppercase only; S and W are negative.
//
// The second result is false when the token matches none of the notations.
// Range is not checked: garbage in passes through.
func ParseCoordinate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, ok := parseDecimal(s); ok {
		return v, true
	}

	sc := &dmsScanner{src: s}
	return sc.parse()
}

// parseDecimal parses plain signed decimal or exponent notation. NaN,
// infinities and hex floats are rejected.
func parseDecimal(s string) (float64, bool) {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return !strings.ContainsRune("0123456789+-.eE", r) }) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// dmsScanner walks a coordinate token one component at a time:
//
//	[~] degrees [degree-mark] [minutes minute-mark [seconds second-mark]] hemisphere
//
// A missing degree mark is only allowed when nothing but the hemisphere follows.
type dmsScanner struct {
	src string
	pos int
}

func (sc *dmsScanner) parse() (float64, bool) {
	sc.skipSpace()
	if sc.peek() == '~' {
		sc.pos++
		sc.skipSpace()
	}

	deg, ok := sc.number()
	if !ok {
		return 0, false
	}
	sc.skipSpace()

	if !sc.accept(degreeMarks) {
		// Decimal degrees with a bare hemisphere suffix, e.g. "45.23 S".
		return sc.finish(deg)
	}
	sc.skipSpace()

	value := deg
	if !sc.atHemisphere() {
		mins, ok := sc.number()
		if !ok {
			return 0, false
		}
		sc.skipSpace()
		if !sc.minuteMark() {
			return 0, false
		}
		value += mins / 60
		sc.skipSpace()

		if !sc.atHemisphere() {
			secs, ok := sc.number()
			if !ok {
				return 0, false
			}
			sc.skipSpace()
			if !sc.secondMark() {
				return 0, false
			}
			value += secs / 3600
			sc.skipSpace()
		}
	}

	return sc.finish(value)
}

// finish consumes the trailing hemisphere letter and applies its sign.
func (sc *dmsScanner) finish(value float64) (float64, bool) {
	if !sc.atHemisphere() {
		return 0, false
	}
	hemi := sc.src[sc.pos]
	sc.pos++
	sc.skipSpace()
	if sc.pos != len(sc.src) {
		return 0, false
	}
	if hemi == 'S' || hemi == 'W' {
		value = -value
	}
	return value, true
}

// number reads an unsigned decimal: digits with an optional fractional part.
func (sc *dmsScanner) number() (float64, bool) {
	start := sc.pos
	for sc.pos < len(sc.src) && isDigit(sc.src[sc.pos]) {
		sc.pos++
	}
	if sc.pos == start {
		return 0, false
	}
	if sc.pos < len(sc.src) && sc.src[sc.pos] == '.' {
		frac := sc.pos + 1
		end := frac
		for end < len(sc.src) && isDigit(sc.src[end]) {
			end++
		}
		if end > frac {
			sc.pos = end
		}
	}
	v, err := strconv.ParseFloat(sc.src[start:sc.pos], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// minuteMark accepts a single minute glyph or a doubled apostrophe.
func (sc *dmsScanner) minuteMark() bool {
	if strings.HasPrefix(sc.src[sc.pos:], "''") {
		sc.pos += 2
		return true
	}
	return sc.accept(minuteMarks)
}

// secondMark accepts a second glyph; a doubled apostrophe also counts here
// because minutes have already been consumed.
func (sc *dmsScanner) secondMark() bool {
	if strings.HasPrefix(sc.src[sc.pos:], "''") {
		sc.pos += 2
		return true
	}
	return sc.accept(secondMarks)
}

// accept consumes one rune if it belongs to set.
func (sc *dmsScanner) accept(set string) bool {
	if sc.pos >= len(sc.src) {
		return false
	}
	r, size := utf8.DecodeRuneInString(sc.src[sc.pos:])
	if r == utf8.RuneError || !strings.ContainsRune(set, r) {
		return false
	}
	sc.pos += size
	return true
}

func (sc *dmsScanner) atHemisphere() bool {
	if sc.pos >= len(sc.src) {
		return false
	}
	switch sc.src[sc.pos] {
	case 'N', 'E', 'S', 'W':
		return true
	}
	return false
}

func (sc *dmsScanner) peek() byte {
	if sc.pos >= len(sc.src) {
		return 0
	}
	return sc.src[sc.pos]
}

func (sc *dmsScanner) skipSpace() {
	for sc.pos < len(sc.src) {
		r, size := utf8.DecodeRuneInString(sc.src[sc.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		sc.pos += size
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
