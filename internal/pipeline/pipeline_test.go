package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/geobin/internal/domain"
	"github.com/couchcryptid/geobin/internal/observability"
	"github.com/couchcryptid/geobin/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	errs    []error
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	i := int(m.index.Add(1) - 1)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if m.err != nil {
		return domain.OutputEvent{}, m.err
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []domain.OutputEvent
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawEvent(t, "pt-1", "10", "20", "5")

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), metrics, 10)
	require.Error(t, p.CheckReadiness(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, raw.Value, ldr.loaded[0].Value)
	assert.True(t, p.Ready())
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 1, counterValue(t, metrics.MessagesConsumed), 0)
	assert.InDelta(t, 1, counterValue(t, metrics.MessagesProduced), 0)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_TransformErrorCommitsAndSkips(t *testing.T) {
	var commits atomic.Int32
	raw := makeRawEvent(t, "pt-2", "", "", "5")
	raw.Commit = func(context.Context) error {
		commits.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()
	tfm := &mockTransformer{err: &domain.InvalidRecordError{Reason: domain.SkipCoordinates}}

	p := pipeline.New(ext, tfm, ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.False(t, p.Ready())
	assert.Equal(t, int32(1), commits.Load())
	assert.InDelta(t, 1, counterValue(t, metrics.TransformErrors), 0)
	assert.InDelta(t, 1, counterValue(t, metrics.PointsSkipped.WithLabelValues(domain.SkipCoordinates)), 0)
}

func TestPipeline_Run_ParseErrorLabel(t *testing.T) {
	ext := &mockExtractor{batches: [][]domain.RawEvent{{{Value: []byte("{")}}}}
	metrics := observability.NewMetricsForTesting()
	tfm := &mockTransformer{err: errors.New("parse raw event: unexpected EOF")}

	p := pipeline.New(ext, tfm, &mockLoader{}, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.InDelta(t, 1, counterValue(t, metrics.PointsSkipped.WithLabelValues("parse")), 0)
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	commitCalled := atomic.Bool{}

	raw := makeRawEvent(t, "pt-5", "1", "2", "3")
	raw.Topic = "raw-point-records"
	raw.Commit = func(_ context.Context) error {
		commitCalled.Store(true)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.True(t, commitCalled.Load())
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	commitCalled := atomic.Bool{}
	raw := makeRawEvent(t, "pt-6", "1", "2", "3")
	raw.Commit = func(context.Context) error {
		commitCalled.Store(true)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{err: errors.New("broker down")}
	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.False(t, commitCalled.Load())
	assert.False(t, p.Ready())
}

func TestPipeline_Run_RecoversAfterExtractError(t *testing.T) {
	raw := makeRawEvent(t, "pt-7", "1", "2", "3")
	ext := &mockExtractor{
		errs:    []error{errors.New("fetch failed")},
		batches: [][]domain.RawEvent{nil, {raw}},
	}
	ldr := &mockLoader{}
	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Len(t, ldr.loaded, 1)
}

func TestPointTransformer_Transform(t *testing.T) {
	fixed := time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)
	t.Cleanup(domain.SetClock(clockwork.NewFakeClockAt(fixed)))

	bins := domain.NewColorBins(map[float64]domain.Style{
		5000: {Size: 11, Color: "yellow"},
		6000: {Size: 13, Color: "orange"},
	}, domain.Style{Size: 3, Color: "purple"})

	tfm := pipeline.NewTransformer(bins, nil, discardLogger())
	raw := makeRawEvent(t, "", `40°26'46"N`, `79°58'56"W`, "5500")

	out, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "yellow", out.Headers["color"])
	assert.Equal(t, "2024-04-26T15:10:00Z", out.Headers["processed_at"])

	var got domain.StyledPoint
	require.NoError(t, json.Unmarshal(out.Value, &got))
	assert.Equal(t, string(out.Key), got.ID)

	want := domain.StyledPoint{
		Lat:         40 + 26.0/60 + 46.0/3600,
		Lon:         -(79 + 58.0/60 + 56.0/3600),
		Magnitude:   5500,
		Size:        11,
		Color:       "yellow",
		ProcessedAt: fixed,
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(domain.StyledPoint{}, "ID"), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("styled point mismatch (-want +got):\n%s", diff)
	}
}

func TestPointTransformer_Errors(t *testing.T) {
	tfm := pipeline.NewTransformer(domain.NewColorBins(nil, domain.Style{}), nil, discardLogger())

	_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte("not json")})
	require.Error(t, err)

	_, err = tfm.Transform(context.Background(), makeRawEvent(t, "", "1", "2", ""))
	var recErr *domain.InvalidRecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, domain.SkipMagnitude, recErr.Reason)
}

type staticLocator struct{ loc domain.Location }

func (s staticLocator) Locate(_ context.Context, url string) (domain.Location, error) {
	loc := s.loc
	loc.URL = url
	return loc, nil
}

func TestPointTransformer_LocatesURLRecords(t *testing.T) {
	loc := staticLocator{loc: domain.Location{Lat: 51.5, Lon: -0.125, Found: true}}
	tfm := pipeline.NewTransformer(domain.NewColorBins(nil, domain.Style{Size: 1, Color: "#000000"}), loc, discardLogger())

	raw := domain.RawEvent{Value: []byte(`{"URL":"https://www.google.com/maps/place/London/@51.5,-0.125,10z","Magnitude":"9","Name":"London"}`)}
	out, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)

	var got domain.StyledPoint
	require.NoError(t, json.Unmarshal(out.Value, &got))
	assert.Equal(t, "London", got.Name)
	assert.Equal(t, 51.5, got.Lat)
	assert.Equal(t, -0.125, got.Lon)
}

// --- helpers ---

func makeRawEvent(t *testing.T, key, lat, lon, magnitude string) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(domain.PointRecord{
		RawPoint: domain.RawPoint{Latitude: lat, Longitude: lon, Magnitude: magnitude},
	})
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte(key),
		Value: data,
	}
}
