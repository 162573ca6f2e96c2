package domain

import "fmt"

// MalformedGeographyLabelError reports a geography label that does not match
// the "<name> [<suffix>], <state>" grammar.
type MalformedGeographyLabelError struct {
	Label string
}

func (e *MalformedGeographyLabelError) Error() string {
	return fmt.Sprintf("malformed geography label %q", e.Label)
}

// UnresolvableGeographyError reports a parsed key with no entry in the
// reference mapping, after suffix fallback.
type UnresolvableGeographyError struct {
	Key GeographyKey
}

func (e *UnresolvableGeographyError) Error() string {
	if e.Key.Suffix != "" {
		return fmt.Sprintf("unresolvable geography %s/%s (%s)", e.Key.State, e.Key.County, e.Key.Suffix)
	}
	return fmt.Sprintf("unresolvable geography %s/%s", e.Key.State, e.Key.County)
}

// MalformedCoordinatePairError reports a combined "lat, lon" string that
// cannot be split into two parsable coordinates.
type MalformedCoordinatePairError struct {
	Raw string
}

func (e *MalformedCoordinatePairError) Error() string {
	return fmt.Sprintf("unrecognized coordinate pair %q", e.Raw)
}

// InvalidRecordError reports a streamed record that cannot become a point.
// Reason is one of the Skip* constants.
type InvalidRecordError struct {
	Reason string
	Err    error
}

func (e *InvalidRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid record (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid record (%s)", e.Reason)
}

func (e *InvalidRecordError) Unwrap() error { return e.Err }
