// Command validate checks a CSV before it is binned. Each phase reports the
// rows it would reject: unparseable coordinates, missing or non-numeric
// values, and geography labels that are malformed or absent from the
// reference dataset.
//
// Usage:
//
//	go run ./cmd/validate -in data/tunnels.tsv -column Magnitude
//	go run ./cmd/validate -in data/housing.csv -column "% renters" \
//	  -encoding latin1 -reference data/geography.csv
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/geobin/internal/adapter/tabular"
	"github.com/couchcryptid/geobin/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// maxListed caps the per-phase error listing.
const maxListed = 25

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	checked int
	errors  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	in := flag.String("in", "", "input CSV or TSV")
	column := flag.String("column", "Magnitude", "value column")
	encoding := flag.String("encoding", "", "input encoding: utf-8 or latin1")
	reference := flag.String("reference", sharedcfg.EnvOrDefault("REFERENCE_FILE", ""), "geography reference CSV (Geography, Geoid)")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	table, err := tabular.ReadFile(*in, tabular.Options{Encoding: *encoding})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	var resolver *domain.Resolver
	if *reference != "" {
		resolver = domain.NewResolver(tabular.ReferenceFile(*reference, ""))
	}

	os.Exit(report(os.Stdout, *in, validate(table, *column, resolver)))
}

// validate runs every phase that applies to the table's columns.
func validate(table *tabular.Table, column string, resolver *domain.Resolver) []*phase {
	var phases []*phase
	if table.Has("Latitude") || table.Has("Longitude") || table.Has("Coordinates") {
		phases = append(phases, validateCoordinates(table))
	}
	phases = append(phases, validateValues(table, column))
	if table.Has(domain.ColumnGeoid) || table.Has(domain.ColumnGeography) {
		phases = append(phases, validateGeographies(table, resolver))
	}
	return phases
}

func validateCoordinates(table *tabular.Table) *phase {
	p := &phase{name: "Coordinates"}
	line := 1
	for rec := range table.PointRecords("") {
		line++
		p.checked++
		switch {
		case rec.Latitude == "" && rec.Longitude == "" && rec.Coordinates != "":
			if _, _, err := domain.ParseCoordinatePair(rec.Coordinates); err != nil {
				p.errorf("line %d: %v", line, err)
			}
		case !rec.HasCoordinates() && rec.URL != "":
			p.errorf("line %d: no coordinates, only url %s", line, rec.URL)
		default:
			if _, ok := domain.ParseCoordinate(rec.Latitude); !ok {
				p.errorf("line %d: unparseable latitude %q", line, rec.Latitude)
			}
			if _, ok := domain.ParseCoordinate(rec.Longitude); !ok {
				p.errorf("line %d: unparseable longitude %q", line, rec.Longitude)
			}
		}
	}
	return p
}

func validateValues(table *tabular.Table, column string) *phase {
	p := &phase{name: fmt.Sprintf("Values (%s)", column)}
	if !table.Has(column) {
		p.errorf("missing column %q", column)
		return p
	}
	line := 1
	for row := range table.Rows() {
		line++
		p.checked++
		if _, ok := domain.ParseMagnitude(row[column]); !ok {
			p.errorf("line %d: no numeric value (%q)", line, row[column])
		}
	}
	return p
}

func validateGeographies(table *tabular.Table, resolver *domain.Resolver) *phase {
	p := &phase{name: "Geographies"}
	line := 1
	for row := range table.Rows() {
		line++
		p.checked++
		if raw := row[domain.ColumnGeoid]; raw != "" {
			if _, err := domain.ParseGeoid(raw); err != nil {
				p.errorf("line %d: %v", line, err)
			}
			continue
		}
		label := row[domain.ColumnGeography]
		if resolver == nil {
			if _, err := domain.ParseGeography(label); err != nil {
				p.errorf("line %d: %v", line, err)
			}
			continue
		}
		_, err := resolver.ResolveLabel(label)
		var malformed *domain.MalformedGeographyLabelError
		var unresolvable *domain.UnresolvableGeographyError
		switch {
		case err == nil:
		case errors.As(err, &malformed), errors.As(err, &unresolvable):
			p.errorf("line %d: %v", line, err)
		default:
			p.errorf("reference dataset: %v", err)
			return p
		}
	}
	return p
}

// report prints the phase summary and details, returning the exit code.
func report(w io.Writer, name string, phases []*phase) int {
	fmt.Fprintf(w, "=== Validation: %s ===\n\n", name)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-32s %6d rows  %s\n", p.name, p.checked, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxListed {
				fmt.Fprintf(w, "  ... %d more\n", len(p.errors)-maxListed)
				break
			}
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}
