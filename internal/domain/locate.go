package domain

import (
	"context"
	"log/slog"
	"strconv"
)

// Location holds coordinates found for a source URL. RawLat and RawLon keep
// the coordinate text as it appeared in the source.
type Location struct {
	URL    string
	RawLat string
	RawLon string
	Lat    float64
	Lon    float64
	Found  bool
}

// Locator looks up coordinates published at a URL (a Wikipedia article, a
// Google Maps link). A page without coordinates yields Found == false, not an
// error.
type Locator interface {
	Locate(ctx context.Context, url string) (Location, error)
}

// LocateRecord fills in coordinates for a record that has none but carries a
// URL. Lookup failures leave the record unchanged; the record is then skipped
// downstream for missing coordinates.
func LocateRecord(ctx context.Context, rec PointRecord, locator Locator, logger *slog.Logger) PointRecord {
	if locator == nil || rec.HasCoordinates() || rec.URL == "" {
		return rec
	}

	loc, err := locator.Locate(ctx, rec.URL)
	if err != nil {
		logger.Warn("locate failed", "url", rec.URL, "name", rec.Name, "error", err)
		return rec
	}
	if !loc.Found {
		logger.Debug("no coordinates at url", "url", rec.URL, "name", rec.Name)
		return rec
	}

	rec.Latitude = strconv.FormatFloat(loc.Lat, 'f', -1, 64)
	rec.Longitude = strconv.FormatFloat(loc.Lon, 'f', -1, 64)
	return rec
}
