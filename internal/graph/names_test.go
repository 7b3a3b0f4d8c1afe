package graph

import (
	"reflect"
	"testing"
)

func TestIsPrivate(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"helper", false},
		{"_helper", true},
		{"__helper", true},
		{"__main__", false},
		{"_", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsPrivate(tt.name); got != tt.want {
			t.Errorf("IsPrivate(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParent(t *testing.T) {
	tests := []struct {
		name   string
		levels int
		want   string
	}{
		{"a.b.c", 1, "a.b"},
		{"a.b.c", 2, "a"},
		{"a.b.c", 3, "a"},
		{"a.b.c", 5, "a"},
		{"a.b.c", 0, "a.b.c"},
		{"a.b.c", -1, "a.b.c"},
		{"a", 1, "a"},
	}
	for _, tt := range tests {
		if got := Parent(tt.name, tt.levels); got != tt.want {
			t.Errorf("Parent(%q, %d) = %q, want %q", tt.name, tt.levels, got, tt.want)
		}
	}
}

func TestAncestors(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{"a.b.c.d", []string{"a", "a.b", "a.b.c"}},
		{"a.b", []string{"a"}},
		{"a", []string{}},
	}
	for _, tt := range tests {
		if got := Ancestors(tt.name); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Ancestors(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestResolveRelativeImport(t *testing.T) {
	tests := []struct {
		base   string
		module string
		level  int
		want   string
	}{
		// absolute imports pass through
		{"anyio.abc.eventloop", "socket", 0, "socket"},
		// from . import within the same package
		{"anyio.to_thread", "abc", 1, "anyio.abc"},
		// from .. reaches the parent package
		{"anyio.abc.eventloop", "streams", 2, "anyio.streams"},
		// bare "from . import x" resolved against the file itself
		{"anyio.abc.sockets", "", 1, "anyio.abc"},
		// level deeper than the module path falls back unchanged
		{"anyio", "tasks", 3, "tasks"},
		{"anyio.to_thread", "anyio.abc", 2, "anyio.abc"},
	}
	for _, tt := range tests {
		got := ResolveRelativeImport(tt.base, tt.module, tt.level)
		if got != tt.want {
			t.Errorf("ResolveRelativeImport(%q, %q, %d) = %q, want %q",
				tt.base, tt.module, tt.level, got, tt.want)
		}
	}
}
