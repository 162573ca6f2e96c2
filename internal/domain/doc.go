// Package domain turns human-written geographic data into values a map
// renderer can plot.
//
// # Coordinates
//
// [ParseCoordinate] accepts plain signed decimals ("-45.23"), decimals with a
// hemisphere ("45.23°S") and degrees-minutes-seconds in the glyph variants
// found in Wikipedia infoboxes and hand-edited spreadsheets:
//
//	40°26'46"N    40°26′46″N    ~40° 26’ 46” N    40o26''46''N    40°26'N
//
// Hemisphere letters are uppercase; S and W negate. A token that matches none
// of the forms yields ok == false rather than an error, so one dirty cell does
// not abort a dataset.
//
// [SplitCoordinatePair] separates a combined "lat, lon" cell. Decimal commas
// ("45,1, 7,6") are rewritten before splitting; pairs without a separating
// comma are split after the latitude's hemisphere letter.
//
// # Geography labels
//
// Labels such as "St. Louis County, Minnesota" parse into a [GeographyKey]:
// lowercase state, lowercase county with whitespace removed, and the optional
// unit word (county, parish, borough, census area, ...). A [Resolver] maps keys
// to [Geoid] values using a reference dataset. When two units in one state
// share a name and differ only by unit word, the second is stored under the
// qualified county ("baltimorecity").
//
// # Binning
//
// [ColorBins] picks the style of the highest threshold a magnitude meets,
// falling back to a default. [Edges] digitizes values into half-open intervals
// for choropleth classes; [Choropleth] applies them per geoid.
//
// # Point IDs
//
// Streamed points carry deterministic SHA-256 IDs of name|lat|lon|magnitude,
// so replayed source messages produce the same output keys.
package domain
