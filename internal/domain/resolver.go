package domain

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Geoid is the canonical integer identifier of an administrative unit (a US
// county FIPS code, for example), used as the join key against geometry.
type Geoid int

// ReferenceRow is one entry of the reference dataset: a free-text label and
// the geoid it stands for.
type ReferenceRow struct {
	Geography string
	Geoid     string
}

// ReferenceSource yields the reference dataset. It is consulted once, on the
// first resolution.
type ReferenceSource interface {
	ReferenceRows() ([]ReferenceRow, error)
}

// ReferenceRowsFunc adapts a plain function to ReferenceSource.
type ReferenceRowsFunc func() ([]ReferenceRow, error)

func (f ReferenceRowsFunc) ReferenceRows() ([]ReferenceRow, error) { return f() }

type mappingKey struct {
	state  string
	county string
}

// Resolver maps geography labels to geoids using a reference dataset. The
// mapping is built on first use and kept for the Resolver's lifetime.
//
// When a reference label carries a unit suffix and its bare (state, county)
// key is already taken, the entry is stored under the qualified county
// ("baltimorecity") instead. A later unsuffixed row with the same bare key
// still overwrites the earlier one; reference data with that shape can
// misassign geoids.
type Resolver struct {
	source ReferenceSource

	once    sync.Once
	mapping map[mappingKey]Geoid
	err     error
}

// NewResolver creates a Resolver backed by src.
func NewResolver(src ReferenceSource) *Resolver {
	return &Resolver{source: src}
}

// Len reports the number of mapping entries, building the mapping if needed.
func (r *Resolver) Len() (int, error) {
	if err := r.build(); err != nil {
		return 0, err
	}
	return len(r.mapping), nil
}

// ResolveLabel parses label and resolves it.
func (r *Resolver) ResolveLabel(label string) (Geoid, error) {
	key, err := ParseGeography(label)
	if err != nil {
		return 0, err
	}
	return r.Resolve(key)
}

// Resolve looks key up, preferring the suffix-qualified entry when the key
// has a suffix and such an entry exists.
func (r *Resolver) Resolve(key GeographyKey) (Geoid, error) {
	if err := r.build(); err != nil {
		return 0, err
	}

	if key.Suffix != "" {
		if id, ok := r.mapping[mappingKey{key.State, key.Qualified()}]; ok {
			return id, nil
		}
	}
	if id, ok := r.mapping[mappingKey{key.State, key.County}]; ok {
		return id, nil
	}
	return 0, &UnresolvableGeographyError{Key: key}
}

func (r *Resolver) build() error {
	r.once.Do(func() {
		rows, err := r.source.ReferenceRows()
		if err != nil {
			r.err = fmt.Errorf("load geography reference: %w", err)
			return
		}

		mapping := make(map[mappingKey]Geoid, len(rows))
		for _, row := range rows {
			key, err := ParseGeography(row.Geography)
			if err != nil {
				r.err = fmt.Errorf("geography reference: %w", err)
				return
			}
			id, err := ParseGeoid(row.Geoid)
			if err != nil {
				r.err = fmt.Errorf("geography reference %q: %w", row.Geography, err)
				return
			}

			bare := mappingKey{key.State, key.County}
			if _, taken := mapping[bare]; taken && key.Suffix != "" {
				mapping[mappingKey{key.State, key.Qualified()}] = id
				continue
			}
			mapping[bare] = id
		}
		r.mapping = mapping
	})
	return r.err
}

// ParseGeoid parses a decimal geoid, tolerating surrounding whitespace and
// leading zeros ("01001" is 1001).
func ParseGeoid(s string) (Geoid, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid geoid %q", s)
	}
	return Geoid(n), nil
}

// equivalences pairs geoids of units that were renamed between data
// vintages. Lookups are symmetric.
var equivalences = symmetric(map[Geoid]Geoid{
	2158:  2270,  // Kusilvak Census Area, AK = Wade Hampton Census Area
	46102: 46113, // Oglala Lakota County, SD = Shannon County
})

func symmetric(pairs map[Geoid]Geoid) map[Geoid]Geoid {
	out := make(map[Geoid]Geoid, 2*len(pairs))
	for k, v := range pairs {
		out[k] = v
		out[v] = k
	}
	return out
}

// Equivalent returns the geoid that the same renamed unit carries in the
// other data vintage.
func Equivalent(id Geoid) (Geoid, bool) {
	other, ok := equivalences[id]
	return other, ok
}
