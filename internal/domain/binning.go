package domain

import (
	"errors"
	"math"
	"sort"
)

// Style is the marker a renderer draws for a point.
type Style struct {
	Size  float64 `json:"size" yaml:"size"`
	Color string  `json:"color" yaml:"color"`
}

// Classifier maps a magnitude to a marker style.
type Classifier interface {
	Classify(magnitude float64) Style
}

type colorBin struct {
	threshold float64
	style     Style
}

// ColorBins classifies magnitudes against descending thresholds: a magnitude
// gets the style of the highest threshold it meets or exceeds, or the default
// when it is below all of them. A ColorBins is immutable once built.
type ColorBins struct {
	bins []colorBin
	def  Style
}

// NewColorBins builds a ColorBins from threshold→style pairs and a default.
func NewColorBins(bins map[float64]Style, def Style) *ColorBins {
	sorted := make([]colorBin, 0, len(bins))
	for threshold, style := range bins {
		sorted = append(sorted, colorBin{threshold: threshold, style: style})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].threshold > sorted[j].threshold })
	return &ColorBins{bins: sorted, def: def}
}

// Classify implements Classifier.
func (c *ColorBins) Classify(magnitude float64) Style {
	_, style, _ := c.Bin(magnitude)
	return style
}

// Bin returns the matched threshold and its style. ok is false when the
// default was used.
func (c *ColorBins) Bin(magnitude float64) (threshold float64, style Style, ok bool) {
	for _, b := range c.bins {
		if magnitude >= b.threshold {
			return b.threshold, b.style, true
		}
	}
	return 0, c.def, false
}

// Default returns the style for magnitudes below every threshold.
func (c *ColorBins) Default() Style { return c.def }

// Thresholds returns the thresholds in descending order.
func (c *ColorBins) Thresholds() []float64 {
	out := make([]float64, len(c.bins))
	for i, b := range c.bins {
		out[i] = b.threshold
	}
	return out
}

// Edges digitizes values into the half-open intervals [e[i], e[i+1]) of a
// strictly increasing edge list, the way choropleth classes are defined.
// Values at or above the last edge fall into the last interval.
type Edges struct {
	edges []float64
}

// NewEdges validates that edges has at least two strictly increasing values.
func NewEdges(edges []float64) (Edges, error) {
	if len(edges) < 2 {
		return Edges{}, errors.New("bin edges need at least two values")
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return Edges{}, errors.New("bin edges must be strictly increasing")
		}
	}
	return Edges{edges: append([]float64(nil), edges...)}, nil
}

// NumBins is the number of intervals, one fewer than the number of edges.
func (e Edges) NumBins() int {
	if len(e.edges) == 0 {
		return 0
	}
	return len(e.edges) - 1
}

// Values returns a copy of the edges.
func (e Edges) Values() []float64 { return append([]float64(nil), e.edges...) }

// Index returns the interval holding v. ok is false for NaN and for values
// below the first edge.
func (e Edges) Index(v float64) (int, bool) {
	if len(e.edges) < 2 || math.IsNaN(v) || v < e.edges[0] {
		return 0, false
	}
	// First edge strictly greater than v; the interval starts one before it.
	i := sort.Search(len(e.edges), func(i int) bool { return e.edges[i] > v })
	idx := i - 1
	if idx > e.NumBins()-1 {
		idx = e.NumBins() - 1
	}
	return idx, true
}
