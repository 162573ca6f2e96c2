//go:build scrape

package scrape

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/geobin/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests fetch live Wikipedia pages.
// Run with: go test -tags=scrape ./internal/adapter/scrape/ -v -count=1

func TestSmoke_Wikipedia(t *testing.T) {
	c := NewClient(10*time.Second, time.Second, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	loc, err := c.Locate(context.Background(), "https://en.wikipedia.org/wiki/Gotthard_Base_Tunnel")
	require.NoError(t, err)
	require.True(t, loc.Found, "article should publish coordinates")
	assert.InDelta(t, 46.6, loc.Lat, 0.5)
	assert.InDelta(t, 8.7, loc.Lon, 0.5)
}
