package domain

import (
	"context"
	"time"
)

// PointRecord is the flat JSON structure published to the source topic, one
// per CSV row. When a record has no coordinates but names a URL, the URL is
// looked up with a Locator.
type PointRecord struct {
	RawPoint
	Name string `json:"Name,omitempty"`
	URL  string `json:"URL,omitempty"`
}

// HasCoordinates reports whether any coordinate field is filled in.
func (r PointRecord) HasCoordinates() bool {
	return r.Latitude != "" || r.Longitude != "" || r.Coordinates != ""
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
