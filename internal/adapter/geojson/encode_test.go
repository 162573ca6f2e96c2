package geojson

import (
	"bytes"
	"encoding/json"
	"slices"
	"testing"

	"github.com/couchcryptid/geobin/internal/domain"
	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePoints(t *testing.T) {
	points := []domain.StyledPoint{
		{ID: "pt-1", Name: "Seikan Tunnel", Lat: 41.3, Lon: 140.3, Magnitude: 53850, Size: 11, Color: "#ff0000"},
		{Lat: 46.6, Lon: 8.7, Magnitude: 57104, Size: 13, Color: "#800080"},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodePoints(&buf, slices.Values(points)))

	fc, err := orbjson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	assert.Equal(t, "pt-1", first.ID)
	assert.Equal(t, orb.Point{140.3, 41.3}, first.Geometry)
	assert.Equal(t, "Seikan Tunnel", first.Properties.MustString(PropName))
	assert.Equal(t, "#ff0000", first.Properties.MustString(PropColor))
	assert.InDelta(t, 11, first.Properties.MustFloat64(PropSize), 0)
	assert.InDelta(t, 53850, first.Properties.MustFloat64(PropMagnitude), 0)

	second := fc.Features[1]
	assert.Nil(t, second.ID)
	assert.NotContains(t, second.Properties, PropName)
	assert.Equal(t, orb.Point{8.7, 46.6}, second.Geometry)

	assert.Equal(t, orbjson.BBox{8.7, 41.3, 140.3, 46.6}, fc.BBox)
}

func TestEncodePoints_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodePoints(&buf, slices.Values([]domain.StyledPoint(nil))))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "FeatureCollection", doc["type"])
	assert.Empty(t, doc["features"])
	assert.NotContains(t, doc, "bbox")
}

func TestEncodeChoropleth(t *testing.T) {
	edges, err := domain.NewEdges([]float64{0, 10, 100})
	require.NoError(t, err)

	rows := []map[string]string{
		{domain.ColumnGeoid: "01001", "Value": "5"},
		{domain.ColumnGeoid: "24510", "Value": "50"},
		{domain.ColumnGeoid: "6001", "Value": ""},
	}
	c, err := domain.ChoroplethBuilder{ValueColumn: "Value", Edges: edges, NoDataColor: "#ffffff"}.Build(slices.Values(rows))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeChoropleth(&buf, c))

	assert.JSONEq(t, `{
		"nodata_color": "#ffffff",
		"edges": [0, 10, 100],
		"bins": {"1001": 0, "24510": 1}
	}`, buf.String())
}

func TestEncodeChoropleth_RegionCodes(t *testing.T) {
	edges, err := domain.NewEdges([]float64{0, 50, 100})
	require.NoError(t, err)

	rows := []map[string]string{
		{"Country Code": "FIN", "Magnitude": "73.7"},
		{"Country Code": "EGY", "Magnitude": "0.1"},
	}
	c, err := domain.ChoroplethBuilder{ValueColumn: "Magnitude", IDColumn: "Country Code", Edges: edges}.Build(slices.Values(rows))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeChoropleth(&buf, c))

	assert.JSONEq(t, `{
		"nodata_color": "#dddddd",
		"edges": [0, 50, 100],
		"bins": {"FIN": 1, "EGY": 0}
	}`, buf.String())
}
