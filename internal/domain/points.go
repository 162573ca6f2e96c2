package domain

import (
	"iter"
	"sort"
	"strings"
	"time"
)

// RawPoint is one unparsed input row for a proportional-symbol map. Either
// Latitude and Longitude or the combined Coordinates field is set.
type RawPoint struct {
	Latitude    string `json:"Latitude,omitempty"`
	Longitude   string `json:"Longitude,omitempty"`
	Coordinates string `json:"Coordinates,omitempty"`
	Magnitude   string `json:"Magnitude,omitempty"`
}

// Point is a parsed location with its magnitude.
type Point struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Magnitude float64 `json:"magnitude"`
}

// Skip reasons reported by PointBuilder.
const (
	SkipMagnitude   = "magnitude"
	SkipCoordinates = "coordinates"
	SkipPair        = "coordinate_pair"
)

// BuildStats counts the rows a build consumed and skipped, by reason.
type BuildStats struct {
	Rows    int
	Skipped map[string]int
}

// PointBuilder assembles Points from raw rows.
type PointBuilder struct {
	// Aggregate sums magnitudes of rows at identical coordinates. When false
	// the last row at a coordinate wins.
	Aggregate bool
	// Descending orders output by decreasing magnitude, so the smallest
	// symbols are drawn last and stay visible.
	Descending bool
}

type coordKey struct {
	lat, lon float64
}

// Build parses rows and returns points ordered by magnitude. Rows with a
// missing or unparseable magnitude, or unparseable coordinates, are skipped
// and counted in the stats rather than failing the build.
func (b PointBuilder) Build(rows iter.Seq[RawPoint]) ([]Point, BuildStats) {
	stats := BuildStats{Skipped: map[string]int{}}
	index := map[coordKey]int{}
	var points []Point

	for row := range rows {
		stats.Rows++

		magnitude, ok := ParseMagnitude(row.Magnitude)
		if !ok {
			stats.Skipped[SkipMagnitude]++
			continue
		}
		lat, lon, reason := parseRowCoordinates(row)
		if reason != "" {
			stats.Skipped[reason]++
			continue
		}

		key := coordKey{lat, lon}
		if i, seen := index[key]; seen {
			if b.Aggregate {
				points[i].Magnitude += magnitude
			} else {
				points[i].Magnitude = magnitude
			}
			continue
		}
		index[key] = len(points)
		points = append(points, Point{Lat: lat, Lon: lon, Magnitude: magnitude})
	}

	sort.SliceStable(points, func(i, j int) bool {
		if b.Descending {
			return points[i].Magnitude > points[j].Magnitude
		}
		return points[i].Magnitude < points[j].Magnitude
	})
	return points, stats
}

func parseRowCoordinates(row RawPoint) (lat, lon float64, reason string) {
	if row.Latitude == "" && row.Longitude == "" && row.Coordinates != "" {
		lat, lon, err := ParseCoordinatePair(row.Coordinates)
		if err != nil {
			return 0, 0, SkipPair
		}
		return lat, lon, ""
	}

	lat, okLat := ParseCoordinate(row.Latitude)
	lon, okLon := ParseCoordinate(row.Longitude)
	if !okLat || !okLon {
		return 0, 0, SkipCoordinates
	}
	return lat, lon, ""
}

// ParseMagnitude parses a numeric magnitude. Empty text, non-finite and
// unparseable values are absent data, reported with ok false.
func ParseMagnitude(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	return parseDecimal(s)
}

// StyledPoint is a point ready to plot: position plus marker style.
type StyledPoint struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name,omitempty"`
	Lon         float64   `json:"lon"`
	Lat         float64   `json:"lat"`
	Magnitude   float64   `json:"magnitude"`
	Size        float64   `json:"size"`
	Color       string    `json:"color"`
	ProcessedAt time.Time `json:"processed_at,omitzero"`
}

// Styled classifies each point lazily, preserving the input order.
func Styled(points []Point, c Classifier) iter.Seq[StyledPoint] {
	return func(yield func(StyledPoint) bool) {
		for _, p := range points {
			style := c.Classify(p.Magnitude)
			sp := StyledPoint{
				Lon:       p.Lon,
				Lat:       p.Lat,
				Magnitude: p.Magnitude,
				Size:      style.Size,
				Color:     style.Color,
			}
			if !yield(sp) {
				return
			}
		}
	}
}
