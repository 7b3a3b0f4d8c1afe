// Package export renders the graph store into the JSON documents consumed
// by the visualization frontend.
package export

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"depmap/internal/graph"
)

// Node colors for units and for files without git history.
const (
	colorPrivate = "#ccabb2"
	colorPublic  = "#bbccab"
)

// Link types distinguish static import edges from change-coupling edges.
const (
	LinkImport   = "import"
	LinkCoChange = "co-change"
)

// Document is the serialized graph: nodes in display order plus the edges
// between them.
type Document struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

type Node struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Type  string  `json:"type"`
	Size  float64 `json:"size"`
	Color string  `json:"color"`
}

type Link struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Type     string  `json:"type"`
	Strength float64 `json:"strength"`
}

// Build produces a document for the given display order. Directory nodes
// are skipped. Files are sized by scaled complexity and colored by scaled
// volatility; units are sized zero and colored by visibility. Edges only
// appear when both endpoints are part of the display order.
func Build(s *graph.Store, sortedNames []string) Document {
	sizeScaler := newComplexityScaler(s)
	colorScaler := newVolatilityScaler(s)

	inOrder := make(map[string]bool, len(sortedNames))
	for _, name := range sortedNames {
		inOrder[name] = true
	}

	doc := Document{Nodes: []Node{}, Links: []Link{}}
	for _, name := range sortedNames {
		n := s.Get(name)
		if n == nil || n.Kind == graph.KindDirectory {
			continue
		}

		var node Node
		if n.Kind == graph.KindFile {
			node = Node{
				ID:    name,
				Label: name,
				Type:  n.Kind,
				Size:  sizeScaler.Scale(n.Complexity),
				Color: fileColor(n, colorScaler),
			}
		} else {
			node = Node{
				ID:    name,
				Label: lastSegment(name),
				Type:  n.Kind,
				Size:  0,
				Color: visibilityColor(n.Private),
			}
		}
		doc.Nodes = append(doc.Nodes, node)

		for dep := range n.DepsSame.Union(n.DepsOther) {
			if !s.Has(dep) {
				log.Printf("[export] unknown dependency for %s: %s", name, dep)
				continue
			}
			if inOrder[dep] {
				doc.Links = append(doc.Links, Link{
					Source: name, Target: dep, Type: LinkImport, Strength: 1.0,
				})
			}
		}

		for _, dep := range sortedKeys(n.CoChange) {
			if inOrder[dep] {
				doc.Links = append(doc.Links, Link{
					Source: name, Target: dep, Type: LinkCoChange, Strength: n.CoChange[dep],
				})
			}
		}
	}
	return doc
}

// FilesOnly filters a display order down to file nodes for the modules-only
// document.
func FilesOnly(s *graph.Store, sortedNames []string) []string {
	var out []string
	for _, name := range sortedNames {
		if n := s.Get(name); n != nil && n.Kind == graph.KindFile {
			out = append(out, name)
		}
	}
	return out
}

func fileColor(n *graph.Node, volatility *MinMaxScaler) string {
	if !n.HasVolatility {
		// fallback when the tree is not under git
		return visibilityColor(n.Private)
	}
	hue := 0.5 + 0.25*volatility.Scale(n.Volatility)
	r, g, b := hsvToRGB(hue, 1.0, 0.8)
	return fmt.Sprintf("rgb(%d,%d,%d)", r, g, b)
}

func visibilityColor(private bool) string {
	if private {
		return colorPrivate
	}
	return colorPublic
}

// MinMaxScaler maps metric values into [0, 1], discarding the single lowest
// and highest observation as outliers when enough values exist.
type MinMaxScaler struct {
	min, max float64
}

// NewMinMaxScaler builds a scaler over the given values.
func NewMinMaxScaler(values []float64) *MinMaxScaler {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s := &MinMaxScaler{}
	if len(sorted) > 2 {
		s.min = sorted[1]
		s.max = sorted[len(sorted)-2]
	} else {
		sorted = append(sorted, 0)
		s.min = sorted[0]
		s.max = sorted[len(sorted)-1]
	}
	return s
}

// Scale clamps the scaled value into [0, 1]; a degenerate range scales to 0.
func (s *MinMaxScaler) Scale(value float64) float64 {
	if s.max == s.min {
		return 0
	}
	v := (value - s.min) / (s.max - s.min)
	return math.Min(1, math.Max(0, v))
}

func newComplexityScaler(s *graph.Store) *MinMaxScaler {
	var values []float64
	for _, n := range s.Files() {
		values = append(values, n.Complexity)
	}
	return NewMinMaxScaler(values)
}

func newVolatilityScaler(s *graph.Store) *MinMaxScaler {
	var values []float64
	for _, n := range s.Files() {
		if n.HasVolatility {
			values = append(values, n.Volatility)
		}
	}
	return NewMinMaxScaler(values)
}

func hsvToRGB(h, s, v float64) (int, int, int) {
	i := math.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	case 5:
		r, g, b = v, p, q
	}
	return int(255 * r), int(255 * g), int(255 * b)
}

func sortedKeys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
