package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"depmap/internal/config"
	"depmap/internal/export"
	"depmap/internal/graph"
)

func writeFixturePackage(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "mock_package")

	files := map[string]string{
		"__init__.py": "",
		"mock_module.py": `from mock_package.utils.mock_utils import DataLoader


def load(source):
    loader = DataLoader(source)
    return loader.get_data()


def main():
    return load("input")
`,
		"utils/__init__.py": "",
		"utils/mock_utils.py": `class DataLoader:
    def __init__(self, source):
        self.source = source

    def get_data(self):
        return self.source
`,
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func testConfig(t *testing.T, root string) *config.Config {
	cfg := config.Default()
	cfg.Root = root
	cfg.Output.Dir = filepath.Join(t.TempDir(), "data")
	// fixture trees live outside git history
	cfg.Git.Enabled = false
	return cfg
}

func TestGenerate(t *testing.T) {
	root := writeFixturePackage(t)
	eng := New(testConfig(t, root))

	result, err := eng.Generate(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}

	if result.Meta.Root != "mock_package" {
		t.Errorf("root = %q, want mock_package", result.Meta.Root)
	}
	if result.Meta.GitAnalyzed {
		t.Error("git analysis should be disabled")
	}

	// 4 modules plus 2 functions and 1 class
	if result.Meta.NodeCount != 7 {
		t.Errorf("nodes = %d, want 7", result.Meta.NodeCount)
	}

	s := eng.Store()
	loader := s.Get("mock_package.utils.mock_utils.DataLoader")
	if loader == nil || loader.Kind != graph.KindClass {
		t.Fatalf("DataLoader node = %+v", loader)
	}
	load := s.Get("mock_package.mock_module.load")
	if got := load.DepsOther.Sorted(); len(got) != 1 || got[0] != "mock_package.utils.mock_utils.DataLoader" {
		t.Errorf("load deps = %v", got)
	}

	// display order contains files and units but no directories
	for _, name := range result.SortedNames {
		if n := s.Get(name); n == nil || n.Kind == graph.KindDirectory {
			t.Errorf("unexpected name in order: %s", name)
		}
	}
	if len(result.Modules.Nodes) >= len(result.Full.Nodes) {
		t.Errorf("modules doc (%d nodes) should be smaller than full doc (%d nodes)",
			len(result.Modules.Nodes), len(result.Full.Nodes))
	}

	// files get a complexity value from indentation
	mu := s.Get("mock_package.utils.mock_utils")
	if mu.Complexity <= 0 {
		t.Errorf("complexity = %v, want > 0", mu.Complexity)
	}
	if mu.HasVolatility {
		t.Error("volatility should be absent without git")
	}
}

func TestGenerateSkipsUnreadableFile(t *testing.T) {
	root := writeFixturePackage(t)
	if err := os.WriteFile(filepath.Join(root, "binary.py"), []byte{0xff, 0xfe, 0x00, 0x80}, 0o644); err != nil {
		t.Fatal(err)
	}
	eng := New(testConfig(t, root))

	result, err := eng.Generate(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}

	store := eng.Store()
	if store.Get("mock_package.binary") == nil {
		t.Fatal("file node for the skipped file should still exist")
	}
	if !store.Has("mock_package.utils.mock_utils.DataLoader") {
		t.Error("units from healthy files should survive a bad sibling")
	}

	found := false
	for _, w := range result.Meta.Warnings {
		if w.Stage == "pyextract" && w.Subject == "mock_package.binary" {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want a pyextract warning for mock_package.binary", result.Meta.Warnings)
	}
}

func TestWriteAndGetArtifacts(t *testing.T) {
	root := writeFixturePackage(t)
	cfg := testConfig(t, root)
	eng := New(cfg)

	if _, err := eng.GetArtifact(ArtifactFull); err == nil {
		t.Error("expected error before generation")
	}

	if _, err := eng.Generate(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if err := eng.WriteArtifacts(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{ArtifactFull, ArtifactModules, ArtifactNodes, ArtifactMeta} {
		path := filepath.Join(cfg.Output.Dir, name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	data, err := eng.GetArtifact(ArtifactFull)
	if err != nil {
		t.Fatal(err)
	}
	var doc export.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid artifact JSON: %v", err)
	}
	if len(doc.Nodes) == 0 {
		t.Error("full document has no nodes")
	}

	if _, err := eng.GetArtifact("bogus.json"); err == nil {
		t.Error("expected error for unknown artifact")
	}
}
