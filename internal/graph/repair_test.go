package graph

import (
	"reflect"
	"strings"
	"testing"
)

func unitNode(name string, deps ...string) *Node {
	return &Node{
		Name:      name,
		Kind:      KindFunction,
		Level:     strings.Count(name, ".") + 1,
		DepsSame:  NewStringSet(deps...),
		DepsOther: NewStringSet(),
	}
}

func TestRepairUnits(t *testing.T) {
	s := NewStore("pkg")
	s.Add(
		unitNode("pkg.mod.Parser"),
		unitNode("pkg.mod.load", "pkg.mod.Parser.parse", "pkg.mod.missing", "pkg.mod.load"),
	)

	RepairUnits(s)

	got := s.Get("pkg.mod.load").DepsSame.Sorted()
	want := []string{"pkg.mod.Parser"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("repaired deps = %v, want %v", got, want)
	}

	// the unresolvable dependency produced a warning, the self edge did not
	if n := s.Diagnostics().Len(); n != 1 {
		t.Fatalf("warnings = %d, want 1", n)
	}
	w := s.Diagnostics().All()[0]
	if w.Stage != "repair" || w.Subject != "pkg.mod.load" {
		t.Errorf("unexpected warning %+v", w)
	}
}

func TestRepairUnitsIdempotent(t *testing.T) {
	s := NewStore("pkg")
	s.Add(
		unitNode("pkg.mod.Parser"),
		unitNode("pkg.mod.load", "pkg.mod.Parser.parse"),
	)

	RepairUnits(s)
	first := s.Get("pkg.mod.load").DepsSame.Sorted()
	RepairUnits(s)
	second := s.Get("pkg.mod.load").DepsSame.Sorted()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("second repair changed deps: %v vs %v", first, second)
	}
}
