// Package tabular reads delimited text files into rows keyed by column name.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/geobin/internal/domain"
	"golang.org/x/text/encoding/charmap"
)

const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin1"
)

// Options controls how a table is read.
type Options struct {
	// Encoding is EncodingUTF8 (default) or EncodingLatin1.
	Encoding string
	// Columns lists the columns that must be present. When set, rows only
	// carry these columns.
	Columns []string
	// Comma is the field delimiter; zero means ','.
	Comma rune
}

// Table is a fully read file with a header row.
type Table struct {
	header  []string
	index   map[string]int
	columns []string
	rows    [][]string
}

// ReadFile opens and reads path. Files ending in .tsv default to tab
// delimiters.
func ReadFile(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	if opts.Comma == 0 && strings.EqualFold(filepath.Ext(path), ".tsv") {
		opts.Comma = '\t'
	}
	t, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Read parses r. The first record is the header; rows shorter than the
// header read as empty strings for the missing cells.
func Read(r io.Reader, opts Options) (*Table, error) {
	switch strings.ToLower(opts.Encoding) {
	case "", EncodingUTF8, "utf8":
	case EncodingLatin1, "iso-8859-1":
		r = charmap.ISO8859_1.NewDecoder().Reader(r)
	default:
		return nil, fmt.Errorf("unsupported encoding %q", opts.Encoding)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty table: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{header: header, index: make(map[string]int, len(header))}
	for i, name := range header {
		name = strings.TrimSpace(name)
		header[i] = name
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}

	for _, col := range opts.Columns {
		if _, ok := t.index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	t.columns = opts.Columns
	if len(t.columns) == 0 {
		t.columns = header
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	t.rows = rows
	return t, nil
}

// Header returns the column names in file order.
func (t *Table) Header() []string { return t.header }

// Len reports the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Has reports whether the file has the named column.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Rows yields each data row as a map of the selected columns.
func (t *Table) Rows() iter.Seq[map[string]string] {
	return func(yield func(map[string]string) bool) {
		for _, row := range t.rows {
			m := make(map[string]string, len(t.columns))
			for _, col := range t.columns {
				m[col] = t.cell(row, col)
			}
			if !yield(m) {
				return
			}
		}
	}
}

// RawPoints yields the coordinate columns of each row with valueColumn as
// the magnitude.
func (t *Table) RawPoints(valueColumn string) iter.Seq[domain.RawPoint] {
	return func(yield func(domain.RawPoint) bool) {
		for _, row := range t.rows {
			if !yield(t.rawPoint(row, valueColumn)) {
				return
			}
		}
	}
}

// PointRecords is RawPoints plus the Name and source URL of each row. The
// URL is read from "URL", falling back to the scraper's "Loc_url".
func (t *Table) PointRecords(valueColumn string) iter.Seq[domain.PointRecord] {
	return func(yield func(domain.PointRecord) bool) {
		for _, row := range t.rows {
			rec := domain.PointRecord{
				RawPoint: t.rawPoint(row, valueColumn),
				Name:     t.cell(row, "Name"),
				URL:      t.cell(row, "URL"),
			}
			if rec.URL == "" {
				rec.URL = t.cell(row, "Loc_url")
			}
			if !yield(rec) {
				return
			}
		}
	}
}

func (t *Table) rawPoint(row []string, valueColumn string) domain.RawPoint {
	return domain.RawPoint{
		Latitude:    t.cell(row, "Latitude"),
		Longitude:   t.cell(row, "Longitude"),
		Coordinates: t.cell(row, "Coordinates"),
		Magnitude:   t.cell(row, valueColumn),
	}
}

func (t *Table) cell(row []string, column string) string {
	i, ok := t.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
