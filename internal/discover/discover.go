// Package discover walks a source tree and seeds the graph store with one
// node per directory and source file.
package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"depmap/internal/graph"
)

// ErrNotFound is returned when the requested root is neither a directory nor
// an importable package name.
var ErrNotFound = errors.New("root not found")

// Discover builds a store containing directory and file nodes for every
// source file under root with the given extension. The root is a directory
// path, or an importable package name which is resolved to its directory by
// asking the Python interpreter. The root package name is the base name of
// the directory. Subdirectories appear only when they transitively contain
// at least one source file, and package marker files (like "__init__.py")
// are skipped. Unit extraction fills in file children later.
func Discover(rootPath, ext string) (*graph.Store, error) {
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", rootPath, err)
	}
	if fi, err := os.Stat(abs); err != nil || !fi.IsDir() {
		resolved, rerr := resolvePackageDir(rootPath)
		if rerr != nil {
			return nil, fmt.Errorf("%w: %s (are you in the right Python environment?)", ErrNotFound, rootPath)
		}
		abs = resolved
	}

	rootName := filepath.Base(abs)
	s := graph.NewStore(rootName)
	if err := walk(s, abs, rootName, ext); err != nil {
		return nil, err
	}
	return s, nil
}

// resolvePackageDir asks the Python interpreter where an importable package
// lives.
func resolvePackageDir(name string) (string, error) {
	script := "import importlib, os, sys; m = importlib.import_module(sys.argv[1]); print(os.path.dirname(m.__file__))"
	out, err := exec.Command("python3", "-c", script, name).Output()
	if err != nil {
		return "", fmt.Errorf("importing %s: %w", name, err)
	}
	dir := strings.TrimSpace(string(out))
	if dir == "" {
		return "", fmt.Errorf("importing %s: no source location", name)
	}
	return dir, nil
}

func walk(s *graph.Store, path, moduleName, ext string) error {
	node := &graph.Node{
		Name:      moduleName,
		Path:      path,
		Level:     strings.Count(moduleName, ".") + 1,
		Private:   graph.IsPrivate(lastSegment(moduleName)),
		DepsSame:  graph.NewStringSet(),
		DepsOther: graph.NewStringSet(),
	}
	s.Add(node)

	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !fi.IsDir() {
		node.Kind = graph.KindFile
		return nil
	}

	node.Kind = graph.KindDirectory
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	for _, entry := range entries {
		childPath := filepath.Join(path, entry.Name())
		if entry.IsDir() {
			ok, err := containsSourceFile(childPath, ext)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
		} else {
			if !strings.HasSuffix(entry.Name(), ext) || entry.Name() == "__init__"+ext {
				continue
			}
		}
		base := strings.TrimSuffix(entry.Name(), ext)
		childName := moduleName + "." + base
		node.Children = append(node.Children, childName)
		if err := walk(s, childPath, childName, ext); err != nil {
			return err
		}
	}
	return nil
}

// containsSourceFile reports whether any file under dir, at any depth, has
// the given extension. Directories like __pycache__ fail this check and are
// pruned from the tree.
func containsSourceFile(dir, ext string) (bool, error) {
	found := errors.New("found")
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ext) {
			return found
		}
		return nil
	})
	if errors.Is(err, found) {
		return true, nil
	}
	return false, err
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
