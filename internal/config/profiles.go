package config

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/couchcryptid/geobin/internal/domain"
	colorful "github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var builtinProfiles []byte

// Profiles holds the named binning presets for point and choropleth maps.
type Profiles struct {
	Points      map[string]PointProfile      `yaml:"points"`
	Choropleths map[string]ChoroplethProfile `yaml:"choropleths"`
}

// Bin is one threshold row of a point profile.
type Bin struct {
	Threshold float64 `yaml:"threshold"`
	Size      float64 `yaml:"size"`
	Color     string  `yaml:"color"`
}

// PointProfile configures a proportional-symbol map.
type PointProfile struct {
	ValueColumn string       `yaml:"value_column"`
	Aggregate   bool         `yaml:"aggregate"`
	Descending  bool         `yaml:"descending"`
	Default     domain.Style `yaml:"default"`
	Bins        []Bin        `yaml:"bins"`
}

// Classifier builds the ColorBins described by the profile.
func (p PointProfile) Classifier() *domain.ColorBins {
	bins := make(map[float64]domain.Style, len(p.Bins))
	for _, b := range p.Bins {
		bins[b.Threshold] = domain.Style{Size: b.Size, Color: b.Color}
	}
	return domain.NewColorBins(bins, p.Default)
}

// Builder returns a PointBuilder with the profile's aggregation and order.
func (p PointProfile) Builder() domain.PointBuilder {
	return domain.PointBuilder{Aggregate: p.Aggregate, Descending: p.Descending}
}

// ChoroplethProfile configures a choropleth map.
type ChoroplethProfile struct {
	ValueColumn string    `yaml:"value_column"`
	IDColumn    string    `yaml:"id_column"`
	Encoding    string    `yaml:"encoding"`
	NoDataColor string    `yaml:"nodata_color"`
	Edges       []float64 `yaml:"edges"`
}

// Builder returns a ChoroplethBuilder for the profile. resolver may be nil
// when every input row carries a Geoid or the profile keys rows by IDColumn.
func (p ChoroplethProfile) Builder(resolver *domain.Resolver) (domain.ChoroplethBuilder, error) {
	edges, err := domain.NewEdges(p.Edges)
	if err != nil {
		return domain.ChoroplethBuilder{}, err
	}
	return domain.ChoroplethBuilder{
		ValueColumn: p.ValueColumn,
		IDColumn:    p.IDColumn,
		Edges:       edges,
		Resolver:    resolver,
		NoDataColor: p.NoDataColor,
	}, nil
}

// LoadProfiles returns the built-in profiles, overlaid with those in path
// when path is non-empty. A profile in the file replaces the built-in one of
// the same name.
func LoadProfiles(path string) (*Profiles, error) {
	profiles, err := ParseProfiles(builtinProfiles)
	if err != nil {
		return nil, fmt.Errorf("built-in profiles: %w", err)
	}
	if path == "" {
		return profiles, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	overlay, err := ParseProfiles(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	maps.Copy(profiles.Points, overlay.Points)
	maps.Copy(profiles.Choropleths, overlay.Choropleths)
	return profiles, nil
}

// ParseProfiles decodes and validates a profiles document. Colors are
// normalized to lowercase #rrggbb.
func ParseProfiles(data []byte) (*Profiles, error) {
	var p Profiles
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	if p.Points == nil {
		p.Points = map[string]PointProfile{}
	}
	if p.Choropleths == nil {
		p.Choropleths = map[string]ChoroplethProfile{}
	}

	for name, profile := range p.Points {
		if err := normalizePointProfile(&profile); err != nil {
			return nil, fmt.Errorf("point profile %q: %w", name, err)
		}
		p.Points[name] = profile
	}
	for name, profile := range p.Choropleths {
		if err := normalizeChoroplethProfile(&profile); err != nil {
			return nil, fmt.Errorf("choropleth profile %q: %w", name, err)
		}
		p.Choropleths[name] = profile
	}
	return &p, nil
}

// Point returns the named point profile.
func (p *Profiles) Point(name string) (PointProfile, error) {
	profile, ok := p.Points[name]
	if !ok {
		return PointProfile{}, fmt.Errorf("unknown point profile %q (have %v)", name, slices.Sorted(maps.Keys(p.Points)))
	}
	return profile, nil
}

// Choropleth returns the named choropleth profile.
func (p *Profiles) Choropleth(name string) (ChoroplethProfile, error) {
	profile, ok := p.Choropleths[name]
	if !ok {
		return ChoroplethProfile{}, fmt.Errorf("unknown choropleth profile %q (have %v)", name, slices.Sorted(maps.Keys(p.Choropleths)))
	}
	return profile, nil
}

func normalizePointProfile(p *PointProfile) error {
	if p.ValueColumn == "" {
		p.ValueColumn = "Magnitude"
	}
	if len(p.Bins) == 0 {
		return errors.New("no bins")
	}

	color, err := normalizeColor(p.Default.Color)
	if err != nil {
		return fmt.Errorf("default: %w", err)
	}
	p.Default.Color = color

	seen := make(map[float64]bool, len(p.Bins))
	for i := range p.Bins {
		b := &p.Bins[i]
		if seen[b.Threshold] {
			return fmt.Errorf("duplicate threshold %g", b.Threshold)
		}
		seen[b.Threshold] = true
		if b.Color, err = normalizeColor(b.Color); err != nil {
			return fmt.Errorf("threshold %g: %w", b.Threshold, err)
		}
	}
	return nil
}

func normalizeChoroplethProfile(p *ChoroplethProfile) error {
	if p.ValueColumn == "" {
		p.ValueColumn = "Magnitude"
	}
	switch p.Encoding {
	case "", "utf8", "utf-8":
		p.Encoding = "utf-8"
	case "latin1", "latin-1", "latin", "iso-8859-1":
		p.Encoding = "latin1"
	default:
		return fmt.Errorf("unsupported encoding %q", p.Encoding)
	}
	if p.NoDataColor == "" {
		p.NoDataColor = domain.DefaultNoDataColor
	}
	color, err := normalizeColor(p.NoDataColor)
	if err != nil {
		return fmt.Errorf("nodata_color: %w", err)
	}
	p.NoDataColor = color

	if _, err := domain.NewEdges(p.Edges); err != nil {
		return err
	}
	return nil
}

func normalizeColor(s string) (string, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return "", fmt.Errorf("invalid color %q", s)
	}
	return c.Hex(), nil
}
