package domain

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"strconv"
	"strings"
)

// DefaultNoDataColor fills regions with no value in the input.
const DefaultNoDataColor = "#dddddd"

// Columns read from choropleth rows.
const (
	ColumnGeoid     = "Geoid"
	ColumnGeography = "Geography"
)

// Choropleth maps geoids, or region codes when built with an IDColumn, to
// bin indices.
type Choropleth struct {
	NoDataColor string
	bins        map[Geoid]int
	regions     map[string]int
	edges       Edges
}

// BinFor returns the bin of id. A geoid missing from the data falls back to
// its renamed equivalent, so geometry from either vintage finds its value.
func (c *Choropleth) BinFor(id Geoid) (int, bool) {
	if bin, ok := c.bins[id]; ok {
		return bin, true
	}
	if other, ok := Equivalent(id); ok {
		bin, ok := c.bins[other]
		return bin, ok
	}
	return 0, false
}

// Bins returns a copy of the geoid to bin index mapping.
func (c *Choropleth) Bins() map[Geoid]int { return maps.Clone(c.bins) }

// BinForRegion returns the bin of a region code such as an ISO3 country code.
// Codes compare case-insensitively.
func (c *Choropleth) BinForRegion(code string) (int, bool) {
	bin, ok := c.regions[normalizeRegion(code)]
	return bin, ok
}

// Regions returns a copy of the region code to bin index mapping.
func (c *Choropleth) Regions() map[string]int { return maps.Clone(c.regions) }

// Keyed returns every binned unit keyed by its text form: geoids as decimal
// strings and region codes as given.
func (c *Choropleth) Keyed() map[string]int {
	out := make(map[string]int, len(c.bins)+len(c.regions))
	for id, bin := range c.bins {
		out[strconv.Itoa(int(id))] = bin
	}
	maps.Copy(out, c.regions)
	return out
}

// Len reports the number of binned units.
func (c *Choropleth) Len() int { return len(c.bins) + len(c.regions) }

// Edges returns the class edges the choropleth was built with.
func (c *Choropleth) Edges() Edges { return c.edges }

// ChoroplethBuilder bins one value column of a table by geoid. Rows name
// their unit by a Geoid column or, failing that, by a Geography label
// resolved through Resolver. When IDColumn is set, rows are keyed by that
// column's text instead (world maps use "Country Code").
type ChoroplethBuilder struct {
	ValueColumn string
	IDColumn    string
	Edges       Edges
	Resolver    *Resolver
	NoDataColor string
}

// Build digitizes every row's value. Rows with an empty or non-numeric value,
// or a value outside the edges, are left out and render as nodata. A label
// that cannot be parsed or resolved fails the build.
func (b ChoroplethBuilder) Build(rows iter.Seq[map[string]string]) (*Choropleth, error) {
	if b.Edges.NumBins() == 0 {
		return nil, errors.New("choropleth needs bin edges")
	}
	noData := b.NoDataColor
	if noData == "" {
		noData = DefaultNoDataColor
	}

	c := &Choropleth{NoDataColor: noData, bins: map[Geoid]int{}, regions: map[string]int{}, edges: b.Edges}
	line := 0
	for row := range rows {
		line++
		var (
			code string
			id   Geoid
			err  error
		)
		if b.IDColumn != "" {
			code, err = b.region(row)
		} else {
			id, err = b.geoid(row)
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		value, ok := ParseMagnitude(row[b.ValueColumn])
		if !ok {
			continue
		}
		bin, ok := b.Edges.Index(value)
		if !ok {
			continue
		}
		if code != "" {
			c.regions[code] = bin
		} else {
			c.bins[id] = bin
		}
	}
	return c, nil
}

func (b ChoroplethBuilder) region(row map[string]string) (string, error) {
	code := normalizeRegion(row[b.IDColumn])
	if code == "" {
		return "", fmt.Errorf("row has no %s", b.IDColumn)
	}
	return code, nil
}

func normalizeRegion(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (b ChoroplethBuilder) geoid(row map[string]string) (Geoid, error) {
	if raw := strings.TrimSpace(row[ColumnGeoid]); raw != "" {
		return ParseGeoid(raw)
	}
	label, ok := row[ColumnGeography]
	if !ok {
		return 0, fmt.Errorf("row has neither %s nor %s", ColumnGeoid, ColumnGeography)
	}
	if b.Resolver == nil {
		return 0, fmt.Errorf("no geography reference to resolve %q", label)
	}
	return b.Resolver.ResolveLabel(label)
}
