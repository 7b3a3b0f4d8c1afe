package graph

import (
	"reflect"
	"testing"
)

func TestSortedNames(t *testing.T) {
	s := buildFixture()
	CountIncoming(s)
	PropagateDirectories(s)

	got := SortedNames(s)

	// pkg.core has outgoing edges and none incoming, so it sorts before
	// pkg.util which is depended upon. Within pkg.core the class Engine has
	// an incoming edge from run, pushing run (the consumer) to the top.
	want := []string{
		"pkg.core",
		"pkg.core.run",
		"pkg.core.Engine",
		"pkg.util",
		"pkg.util.helper",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SortedNames = %v, want %v", got, want)
	}
}

func TestSortedNamesExpandsNestedDirectories(t *testing.T) {
	s := NewStore("pkg")
	root := newNode("pkg", KindDirectory, "pkg.sub", "pkg.top")
	sub := newNode("pkg.sub", KindDirectory, "pkg.sub.leaf")
	top := newNode("pkg.top", KindFile)
	leaf := newNode("pkg.sub.leaf", KindFile)
	s.Add(root, sub, top, leaf)

	got := SortedNames(s)

	// neither file has any edges, so ordering falls back to child count and
	// name; the directory itself never appears in the output
	want := []string{"pkg.sub.leaf", "pkg.top"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SortedNames = %v, want %v", got, want)
	}
}

func TestUnitOrderingClassesFirst(t *testing.T) {
	s := NewStore("pkg")
	file := newNode("pkg.m", KindFile, "pkg.m.zeta", "pkg.m.Alpha", "pkg.m.CONST")
	zeta := newNode("pkg.m.zeta", KindFunction)
	alpha := newNode("pkg.m.Alpha", KindClass)
	konst := newNode("pkg.m.CONST", KindGlobal)
	root := newNode("pkg", KindDirectory, "pkg.m")
	s.Add(root, file, zeta, alpha, konst)

	got := SortedNames(s)
	want := []string{"pkg.m", "pkg.m.Alpha", "pkg.m.zeta", "pkg.m.CONST"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SortedNames = %v, want %v", got, want)
	}
}
