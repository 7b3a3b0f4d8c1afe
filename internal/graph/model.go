package graph

import (
	"encoding/json"
	"sort"
)

// Node represents a discovered entity in the dependency graph: a directory,
// a source file, or a declaration (class/function/global) inside a file.
// Its fully-qualified dotted name is the sole identity used for lookups,
// edges, and ordering.
type Node struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Path    string `json:"path,omitempty"`  // filesystem path (directories and files)
	Level   int    `json:"level"`           // number of dotted segments in Name
	Private bool   `json:"private"`

	// Children holds fully-qualified child names: submodules for directories,
	// declarations for files. Declarations have no children.
	Children []string `json:"children,omitempty"`

	// DepsSame and DepsOther are outgoing dependency edges, classified
	// relative to the immediate containing package of this node.
	DepsSame  StringSet `json:"dependencies_same,omitempty"`
	DepsOther StringSet `json:"dependencies_other,omitempty"`

	// InSame and InOther are incoming-dependency counts. They are integers
	// for files and declarations; directories carry the arithmetic mean of
	// their children's counts.
	InSame  float64 `json:"n_incoming_same"`
	InOther float64 `json:"n_incoming_other"`

	// Complexity is the average indentation per line (files only).
	Complexity float64 `json:"complexity,omitempty"`

	// Volatility is the number of lines changed in the analysis window
	// normalized by the current line count (files only, git repos only).
	Volatility    float64 `json:"volatility,omitempty"`
	HasVolatility bool    `json:"has_volatility,omitempty"`

	// CoChange maps co-committed file names to normalized weights
	// (files only, git repos only).
	CoChange map[string]float64 `json:"dependencies_cochange,omitempty"`
}

// Node kind constants.
const (
	KindDirectory = "directory"
	KindFile      = "file"
	KindClass     = "class"
	KindFunction  = "function"
	KindGlobal    = "global"
)

// IsUnit reports whether the node is a declaration extracted from a file.
func (n *Node) IsUnit() bool {
	return n.Kind == KindClass || n.Kind == KindFunction || n.Kind == KindGlobal
}

// OutDegree returns the total number of outgoing dependency edges.
func (n *Node) OutDegree() int {
	return len(n.DepsSame) + len(n.DepsOther)
}

// StringSet is a set of fully-qualified names. Edge sets are commutative:
// merge order never affects the final contents.
type StringSet map[string]struct{}

// NewStringSet creates a set containing the given names.
func NewStringSet(names ...string) StringSet {
	s := make(StringSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Add inserts a name into the set.
func (s StringSet) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether the set contains the name.
func (s StringSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the set's contents in lexicographic order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted JSON array.
func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a JSON array into the set.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = NewStringSet(names...)
	return nil
}

// Union returns a new set containing the members of s and other.
func (s StringSet) Union(other StringSet) StringSet {
	out := make(StringSet, len(s)+len(other))
	for n := range s {
		out[n] = struct{}{}
	}
	for n := range other {
		out[n] = struct{}{}
	}
	return out
}
