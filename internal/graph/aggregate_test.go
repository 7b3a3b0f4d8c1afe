package graph

import (
	"reflect"
	"strings"
	"testing"
)

func newNode(name, kind string, children ...string) *Node {
	return &Node{
		Name:      name,
		Kind:      kind,
		Level:     strings.Count(name, ".") + 1,
		Private:   IsPrivate(name[strings.LastIndex(name, ".")+1:]),
		Children:  children,
		DepsSame:  NewStringSet(),
		DepsOther: NewStringSet(),
	}
}

func buildFixture() *Store {
	s := NewStore("pkg")

	root := newNode("pkg", KindDirectory, "pkg.core", "pkg.util")
	core := newNode("pkg.core", KindFile, "pkg.core.Engine", "pkg.core.run")
	util := newNode("pkg.util", KindFile, "pkg.util.helper")
	engine := newNode("pkg.core.Engine", KindClass)
	run := newNode("pkg.core.run", KindFunction)
	helper := newNode("pkg.util.helper", KindFunction)

	// file level: core imports util
	core.DepsOther.Add("pkg.util")
	// unit level: run uses Engine in the same file and helper across files
	run.DepsSame.Add("pkg.core.Engine")
	run.DepsOther.Add("pkg.util.helper")

	s.Add(root, core, util, engine, run, helper)
	return s
}

func TestCountIncoming(t *testing.T) {
	s := buildFixture()
	CountIncoming(s)

	tests := []struct {
		name    string
		inSame  float64
		inOther float64
	}{
		{"pkg.core.Engine", 1, 0},
		{"pkg.util.helper", 0, 1},
		// the file import credits pkg.util directly and pkg via ancestry
		{"pkg.util", 0, 1},
		{"pkg.core.run", 0, 0},
		{"pkg.core", 0, 0},
	}
	for _, tt := range tests {
		n := s.Get(tt.name)
		if n.InSame != tt.inSame || n.InOther != tt.inOther {
			t.Errorf("%s: incoming = (%v, %v), want (%v, %v)",
				tt.name, n.InSame, n.InOther, tt.inSame, tt.inOther)
		}
	}
}

func TestPropagateDirectories(t *testing.T) {
	s := buildFixture()
	CountIncoming(s)
	PropagateDirectories(s)

	root := s.Get("pkg")

	// pkg.util sits inside pkg, so the rolled-up edge is same-module
	if got := root.DepsSame.Sorted(); !reflect.DeepEqual(got, []string{"pkg.util"}) {
		t.Errorf("root same deps = %v, want [pkg.util]", got)
	}
	if len(root.DepsOther) != 0 {
		t.Errorf("root other deps = %v, want none", root.DepsOther.Sorted())
	}

	// incoming counts become the mean over the two children
	wantOther := (0.0 + 1.0) / 2
	if root.InOther != wantOther {
		t.Errorf("root InOther = %v, want %v", root.InOther, wantOther)
	}
	if root.InSame != 0 {
		t.Errorf("root InSame = %v, want 0", root.InSame)
	}
}
