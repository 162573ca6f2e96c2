// Command prepare bins a CSV with a named profile and writes renderer input:
// a GeoJSON FeatureCollection for point profiles, or a unit→bin document for
// choropleth profiles (geoids, or region codes for world maps).
//
// Usage:
//
//	go run ./cmd/prepare -map points -profile tunnels -in data/tunnels.tsv -out tunnels.geojson
//	go run ./cmd/prepare -map choropleth -profile housing -in data/housing.csv \
//	  -reference data/geography.csv -out housing.json
//	go run ./cmd/prepare -map choropleth -profile forest_area -in data/forest_data.csv -out forest.json
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"slices"

	"github.com/couchcryptid/geobin/internal/adapter/geojson"
	"github.com/couchcryptid/geobin/internal/adapter/tabular"
	"github.com/couchcryptid/geobin/internal/config"
	"github.com/couchcryptid/geobin/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

type options struct {
	kind      string
	profile   string
	in        string
	out       string
	profiles  string
	reference string
	encoding  string
}

func main() {
	var opts options
	flag.StringVar(&opts.kind, "map", "points", "map kind: points or choropleth")
	flag.StringVar(&opts.profile, "profile", "", "bin profile name")
	flag.StringVar(&opts.in, "in", "", "input CSV or TSV")
	flag.StringVar(&opts.out, "out", "", "output path (default stdout)")
	flag.StringVar(&opts.profiles, "profiles", sharedcfg.EnvOrDefault("BIN_PROFILES_FILE", ""), "YAML file overriding built-in profiles")
	flag.StringVar(&opts.reference, "reference", sharedcfg.EnvOrDefault("REFERENCE_FILE", ""), "geography reference CSV (Geography, Geoid)")
	flag.StringVar(&opts.encoding, "encoding", "", "input encoding: utf-8 or latin1 (default from profile)")
	flag.Parse()

	if opts.profile == "" || opts.in == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts options) error {
	profiles, err := config.LoadProfiles(opts.profiles)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch opts.kind {
	case "points":
		return preparePoints(out, profiles, opts)
	case "choropleth":
		return prepareChoropleth(out, profiles, opts)
	default:
		return fmt.Errorf("unknown map kind %q (want points or choropleth)", opts.kind)
	}
}

func preparePoints(out io.Writer, profiles *config.Profiles, opts options) error {
	profile, err := profiles.Point(opts.profile)
	if err != nil {
		return err
	}
	table, err := tabular.ReadFile(opts.in, tabular.Options{
		Encoding: opts.encoding,
		Columns:  []string{profile.ValueColumn},
	})
	if err != nil {
		return err
	}

	points, stats := profile.Builder().Build(table.RawPoints(profile.ValueColumn))
	log.Printf("%s: %d rows, %d points", opts.in, stats.Rows, len(points))
	for _, reason := range slices.Sorted(maps.Keys(stats.Skipped)) {
		log.Printf("  skipped %d rows: %s", stats.Skipped[reason], reason)
	}

	return geojson.EncodePoints(out, domain.Styled(points, profile.Classifier()))
}

func prepareChoropleth(out io.Writer, profiles *config.Profiles, opts options) error {
	profile, err := profiles.Choropleth(opts.profile)
	if err != nil {
		return err
	}
	encoding := opts.encoding
	if encoding == "" {
		encoding = profile.Encoding
	}
	// Every column is kept: rows are keyed by Geoid, Geography or the id column.
	table, err := tabular.ReadFile(opts.in, tabular.Options{Encoding: encoding})
	if err != nil {
		return err
	}
	for _, col := range []string{profile.ValueColumn, profile.IDColumn} {
		if col != "" && !table.Has(col) {
			return fmt.Errorf("%s: missing column %q", opts.in, col)
		}
	}

	var resolver *domain.Resolver
	if opts.reference != "" {
		resolver = domain.NewResolver(tabular.ReferenceFile(opts.reference, ""))
	}
	builder, err := profile.Builder(resolver)
	if err != nil {
		return fmt.Errorf("profile %q: %w", opts.profile, err)
	}
	choropleth, err := builder.Build(table.Rows())
	if err != nil {
		return fmt.Errorf("%s: %w", opts.in, err)
	}
	log.Printf("%s: %d rows, %d units binned into %d bins", opts.in, table.Len(), choropleth.Len(), choropleth.Edges().NumBins())

	return geojson.EncodeChoropleth(out, choropleth)
}
