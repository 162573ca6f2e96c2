package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// ParseRawEvent deserializes a RawEvent's value into a PointRecord.
func ParseRawEvent(raw RawEvent) (PointRecord, error) {
	var rec PointRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return PointRecord{}, fmt.Errorf("parse raw event: %w", err)
	}
	return rec, nil
}

// ResolvePoint parses a record's coordinates and magnitude with the same
// rules PointBuilder applies to a batch. Records PointBuilder would skip are
// reported as *InvalidRecordError.
func ResolvePoint(rec PointRecord) (Point, error) {
	magnitude, ok := ParseMagnitude(rec.Magnitude)
	if !ok {
		return Point{}, &InvalidRecordError{Reason: SkipMagnitude}
	}
	lat, lon, reason := parseRowCoordinates(rec.RawPoint)
	if reason == SkipPair {
		return Point{}, &InvalidRecordError{Reason: reason, Err: &MalformedCoordinatePairError{Raw: rec.Coordinates}}
	}
	if reason != "" {
		return Point{}, &InvalidRecordError{Reason: reason}
	}
	return Point{Lat: lat, Lon: lon, Magnitude: magnitude}, nil
}

// StylePoint classifies p and stamps it with a deterministic ID and the
// processing time.
func StylePoint(p Point, name string, c Classifier) StyledPoint {
	style := c.Classify(p.Magnitude)
	return StyledPoint{
		ID:          generateID(name, p.Lat, p.Lon, p.Magnitude),
		Name:        name,
		Lon:         p.Lon,
		Lat:         p.Lat,
		Magnitude:   p.Magnitude,
		Size:        style.Size,
		Color:       style.Color,
		ProcessedAt: stampClock.Now(),
	}
}

// NewOutputEvent serializes a styled point for the sink topic, keyed by its ID.
func NewOutputEvent(sp StyledPoint) (OutputEvent, error) {
	data, err := json.Marshal(sp)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize styled point: %w", err)
	}
	return OutputEvent{
		Key:   []byte(sp.ID),
		Value: data,
		Headers: map[string]string{
			"color":        sp.Color,
			"processed_at": sp.ProcessedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}

// generateID produces a deterministic ID from a point's key fields, so a
// replayed record maps to the same downstream row.
func generateID(name string, lat, lon, magnitude float64) string {
	input := fmt.Sprintf("%s|%.6f|%.6f|%g", name, lat, lon, magnitude)
	hash := sha256.Sum256([]byte(input))
	return "pt-" + hex.EncodeToString(hash[:8])
}
