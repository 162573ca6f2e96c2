// Package geojson writes binned points and choropleth bins in forms a map
// renderer can load directly.
package geojson

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/couchcryptid/geobin/internal/domain"
	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"
)

// Point feature property names.
const (
	PropSize      = "size"
	PropColor     = "color"
	PropMagnitude = "magnitude"
	PropName      = "name"
)

// PointCollection builds a FeatureCollection with one point feature per
// styled point, in input order. The collection carries a bounding box when
// it is not empty.
func PointCollection(points iter.Seq[domain.StyledPoint]) *orbjson.FeatureCollection {
	fc := orbjson.NewFeatureCollection()
	var all orb.MultiPoint

	for sp := range points {
		pt := orb.Point{sp.Lon, sp.Lat}
		all = append(all, pt)

		f := orbjson.NewFeature(pt)
		if sp.ID != "" {
			f.ID = sp.ID
		}
		f.Properties[PropSize] = sp.Size
		f.Properties[PropColor] = sp.Color
		f.Properties[PropMagnitude] = sp.Magnitude
		if sp.Name != "" {
			f.Properties[PropName] = sp.Name
		}
		fc.Append(f)
	}

	if len(all) > 0 {
		fc.BBox = orbjson.NewBBox(all.Bound())
	}
	return fc
}

// EncodePoints writes the point FeatureCollection to w.
func EncodePoints(w io.Writer, points iter.Seq[domain.StyledPoint]) error {
	data, err := PointCollection(points).MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal feature collection: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write feature collection: %w", err)
	}
	return nil
}

// ChoroplethDocument is the serialized form of a domain.Choropleth. Bins is
// keyed by geoid or by region code. Units missing from Bins are drawn in
// NoDataColor.
type ChoroplethDocument struct {
	NoDataColor string         `json:"nodata_color"`
	Edges       []float64      `json:"edges"`
	Bins        map[string]int `json:"bins"`
}

// NewChoroplethDocument snapshots c.
func NewChoroplethDocument(c *domain.Choropleth) ChoroplethDocument {
	return ChoroplethDocument{
		NoDataColor: c.NoDataColor,
		Edges:       c.Edges().Values(),
		Bins:        c.Keyed(),
	}
}

// EncodeChoropleth writes c as indented JSON. Map keys are sorted by the
// encoder, so output is stable across runs.
func EncodeChoropleth(w io.Writer, c *domain.Choropleth) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewChoroplethDocument(c)); err != nil {
		return fmt.Errorf("encode choropleth: %w", err)
	}
	return nil
}
