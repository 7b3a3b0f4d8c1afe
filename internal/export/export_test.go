package export

import (
	"strings"
	"testing"

	"depmap/internal/graph"
)

func TestMinMaxScaler(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	s := NewMinMaxScaler(values)

	tests := []struct {
		in   float64
		want float64
	}{
		{1, 0},
		{6, 0.5},
		{11, 1},
		{2, 0},
		{100, 1},
	}
	for _, tt := range tests {
		if got := s.Scale(tt.in); got != tt.want {
			t.Errorf("Scale(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMinMaxScalerDegenerate(t *testing.T) {
	if got := NewMinMaxScaler(nil).Scale(5); got != 0 {
		t.Errorf("empty scaler Scale(5) = %v, want 0", got)
	}
	if got := NewMinMaxScaler([]float64{3, 3, 3}).Scale(3); got != 0 {
		t.Errorf("constant scaler Scale(3) = %v, want 0", got)
	}
}

func buildStore() *graph.Store {
	s := graph.NewStore("pkg")
	root := &graph.Node{Name: "pkg", Kind: graph.KindDirectory, Level: 1,
		DepsSame: graph.NewStringSet(), DepsOther: graph.NewStringSet()}
	a := &graph.Node{Name: "pkg.a", Kind: graph.KindFile, Level: 2,
		Complexity: 2.0, Volatility: 0.5, HasVolatility: true,
		DepsSame: graph.NewStringSet(), DepsOther: graph.NewStringSet("pkg.b"),
		CoChange: map[string]float64{"pkg.b": 0.35}}
	b := &graph.Node{Name: "pkg.b", Kind: graph.KindFile, Level: 2,
		Complexity: 1.0, Volatility: 0.1, HasVolatility: true,
		DepsSame: graph.NewStringSet(), DepsOther: graph.NewStringSet()}
	fn := &graph.Node{Name: "pkg.a._hidden", Kind: graph.KindFunction, Level: 3,
		Private:  true,
		DepsSame: graph.NewStringSet(), DepsOther: graph.NewStringSet()}
	s.Add(root, a, b, fn)
	return s
}

func TestBuild(t *testing.T) {
	s := buildStore()
	order := []string{"pkg.a", "pkg.a._hidden", "pkg.b"}

	doc := Build(s, order)

	if len(doc.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(doc.Nodes))
	}

	// files keep the full dotted name, units just the last segment
	if doc.Nodes[0].ID != "pkg.a" || doc.Nodes[0].Label != "pkg.a" {
		t.Errorf("file node = %+v", doc.Nodes[0])
	}
	if doc.Nodes[1].Label != "_hidden" || doc.Nodes[1].Color != colorPrivate {
		t.Errorf("unit node = %+v", doc.Nodes[1])
	}
	if doc.Nodes[1].Size != 0 {
		t.Errorf("unit size = %v, want 0", doc.Nodes[1].Size)
	}

	// files under git get a computed rgb color
	if !strings.HasPrefix(doc.Nodes[0].Color, "rgb(") {
		t.Errorf("file color = %q, want rgb(...)", doc.Nodes[0].Color)
	}

	var imports, cochanges int
	for _, l := range doc.Links {
		switch l.Type {
		case LinkImport:
			imports++
			if l.Source != "pkg.a" || l.Target != "pkg.b" || l.Strength != 1.0 {
				t.Errorf("import link = %+v", l)
			}
		case LinkCoChange:
			cochanges++
			if l.Strength != 0.35 {
				t.Errorf("co-change strength = %v, want 0.35", l.Strength)
			}
		}
	}
	if imports != 1 || cochanges != 1 {
		t.Errorf("links = %d imports, %d co-changes, want 1 and 1", imports, cochanges)
	}
}

func TestBuildWithoutGitFallsBackToVisibilityColors(t *testing.T) {
	s := graph.NewStore("pkg")
	a := &graph.Node{Name: "pkg.a", Kind: graph.KindFile, Level: 2,
		DepsSame: graph.NewStringSet(), DepsOther: graph.NewStringSet()}
	s.Add(a)

	doc := Build(s, []string{"pkg.a"})
	if doc.Nodes[0].Color != colorPublic {
		t.Errorf("color = %q, want %q", doc.Nodes[0].Color, colorPublic)
	}
}

func TestFilesOnly(t *testing.T) {
	s := buildStore()
	got := FilesOnly(s, []string{"pkg.a", "pkg.a._hidden", "pkg.b"})
	if len(got) != 2 || got[0] != "pkg.a" || got[1] != "pkg.b" {
		t.Errorf("FilesOnly = %v", got)
	}
}
