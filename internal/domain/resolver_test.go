package domain

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceRows(rows ...ReferenceRow) ReferenceSource {
	return ReferenceRowsFunc(func() ([]ReferenceRow, error) { return rows, nil })
}

func testResolver() *Resolver {
	return NewResolver(referenceRows(
		ReferenceRow{Geography: "Autauga County, Alabama", Geoid: "01001"},
		ReferenceRow{Geography: "St. Louis County, Minnesota", Geoid: "27137"},
		ReferenceRow{Geography: "Baltimore County, Maryland", Geoid: "24005"},
		ReferenceRow{Geography: "Baltimore city, Maryland", Geoid: "24510"},
		ReferenceRow{Geography: "Orleans Parish, Louisiana", Geoid: "22071"},
		ReferenceRow{Geography: "Kusilvak Census Area, Alaska", Geoid: "2158"},
	))
}

func TestResolver_ResolveLabel(t *testing.T) {
	r := testResolver()

	tests := []struct {
		label string
		want  Geoid
	}{
		{"Autauga County, Alabama", 1001},
		{"Autauga, Alabama", 1001},
		{"AUTAUGA COUNTY, ALABAMA", 1001},
		{"St. Louis County, Minnesota", 27137},
		{"St.Louis, Minnesota", 27137},
		{"Baltimore County, Maryland", 24005},
		{"Baltimore city, Maryland", 24510},
		{"Baltimore, Maryland", 24005},
		{"Orleans Parish, Louisiana", 22071},
		{"Kusilvak Census Area, Alaska", 2158},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := r.ResolveLabel(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	n, err := r.Len()
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestResolver_SuffixRoundTrip(t *testing.T) {
	r := testResolver()
	for _, pair := range [][2]string{
		{"Autauga County, Alabama", "Autauga, Alabama"},
		{"Orleans Parish, Louisiana", "Orleans, Louisiana"},
		{"St. Louis County, Minnesota", "St. Louis, Minnesota"},
	} {
		withSuffix, err := r.ResolveLabel(pair[0])
		require.NoError(t, err)
		bare, err := r.ResolveLabel(pair[1])
		require.NoError(t, err)
		assert.Equal(t, withSuffix, bare, pair[0])
	}
}

func TestResolver_Unresolvable(t *testing.T) {
	r := testResolver()

	_, err := r.ResolveLabel("Travis County, Texas")
	var missErr *UnresolvableGeographyError
	require.True(t, errors.As(err, &missErr))
	assert.Equal(t, GeographyKey{State: "texas", County: "travis", Suffix: "county"}, missErr.Key)
	assert.Contains(t, err.Error(), "texas/travis")

	_, err = r.ResolveLabel("no comma here")
	var labelErr *MalformedGeographyLabelError
	assert.True(t, errors.As(err, &labelErr))
}

func TestResolver_LaterUnsuffixedRowTakesBareKey(t *testing.T) {
	r := NewResolver(referenceRows(
		ReferenceRow{Geography: "Richmond city, Virginia", Geoid: "51760"},
		ReferenceRow{Geography: "Richmond, Virginia", Geoid: "51159"},
	))

	got, err := r.ResolveLabel("Richmond city, Virginia")
	require.NoError(t, err)
	assert.Equal(t, Geoid(51159), got)
}

func TestResolver_BuildsOnce(t *testing.T) {
	var calls atomic.Int32
	r := NewResolver(ReferenceRowsFunc(func() ([]ReferenceRow, error) {
		calls.Add(1)
		return []ReferenceRow{{Geography: "Autauga County, Alabama", Geoid: "1001"}}, nil
	}))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.ResolveLabel("Autauga, Alabama")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestResolver_SourceErrors(t *testing.T) {
	t.Run("source failure", func(t *testing.T) {
		r := NewResolver(ReferenceRowsFunc(func() ([]ReferenceRow, error) {
			return nil, errors.New("disk on fire")
		}))
		_, err := r.ResolveLabel("Autauga, Alabama")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load geography reference")
		assert.Contains(t, err.Error(), "disk on fire")
	})

	t.Run("bad label", func(t *testing.T) {
		r := NewResolver(referenceRows(ReferenceRow{Geography: "Autauga", Geoid: "1001"}))
		_, err := r.Len()
		var labelErr *MalformedGeographyLabelError
		assert.True(t, errors.As(err, &labelErr))
	})

	t.Run("bad geoid", func(t *testing.T) {
		r := NewResolver(referenceRows(ReferenceRow{Geography: "Autauga, Alabama", Geoid: "x1"}))
		_, err := r.Len()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid geoid "x1"`)
	})
}

func TestEquivalent(t *testing.T) {
	tests := []struct {
		id   Geoid
		want Geoid
		ok   bool
	}{
		{2158, 2270, true},
		{2270, 2158, true},
		{46102, 46113, true},
		{46113, 46102, true},
		{1001, 0, false},
	}
	for _, tt := range tests {
		got, ok := Equivalent(tt.id)
		assert.Equal(t, tt.ok, ok, tt.id)
		assert.Equal(t, tt.want, got, tt.id)
	}
}
