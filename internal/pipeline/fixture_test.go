package pipeline_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/geobin/internal/config"
	"github.com/couchcryptid/geobin/internal/domain"
	"github.com/couchcryptid/geobin/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixtureRow struct {
	domain.PointRecord
	Want *struct {
		Lat   float64 `json:"lat"`
		Lon   float64 `json:"lon"`
		Color string  `json:"color"`
		Size  float64 `json:"size"`
	} `json:"want"`
}

func TestPointTransformer_WithFixtureRecords(t *testing.T) {
	profiles, err := config.LoadProfiles("")
	require.NoError(t, err)
	tunnels, err := profiles.Point("tunnels")
	require.NoError(t, err)

	transformer := pipeline.NewTransformer(tunnels.Classifier(), nil, discardLogger())

	for _, row := range readFixtureRows(t) {
		t.Run(row.Name, func(t *testing.T) {
			payload, err := json.Marshal(row.PointRecord)
			require.NoError(t, err)

			out, err := transformer.Transform(context.Background(), domain.RawEvent{Value: payload, Topic: "raw-point-records"})
			if row.Want == nil {
				var recErr *domain.InvalidRecordError
				require.ErrorAs(t, err, &recErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, row.Want.Color, out.Headers["color"])
			assert.NotEmpty(t, out.Headers["processed_at"])

			var got domain.StyledPoint
			require.NoError(t, json.Unmarshal(out.Value, &got))
			assert.Equal(t, row.Name, got.Name)
			assert.InDelta(t, row.Want.Lat, got.Lat, 1e-9)
			assert.InDelta(t, row.Want.Lon, got.Lon, 1e-9)
			assert.Equal(t, row.Want.Color, got.Color)
			assert.Equal(t, row.Want.Size, got.Size)
		})
	}
}

func readFixtureRows(t *testing.T) []fixtureRow {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", "point_records.json"))
	require.NoError(t, err)

	var rows []fixtureRow
	require.NoError(t, json.Unmarshal(data, &rows))
	require.NotEmpty(t, rows)
	return rows
}
