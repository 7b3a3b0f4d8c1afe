package graph

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// Store holds the node arena for one analysis run: every directory, file and
// unit keyed by fully-qualified name, in insertion order. All pipeline stages
// mutate nodes through the store.
type Store struct {
	mu    sync.RWMutex
	root  string
	nodes map[string]*Node
	order []string

	diag *Diagnostics
}

// NewStore creates an empty store rooted at the given package name.
func NewStore(root string) *Store {
	return &Store{
		root:  root,
		nodes: make(map[string]*Node),
		diag:  NewDiagnostics(),
	}
}

// Root returns the root package name of the analyzed tree.
func (s *Store) Root() string {
	return s.root
}

// Diagnostics returns the warning sink shared by the pipeline stages.
func (s *Store) Diagnostics() *Diagnostics {
	return s.diag
}

// Add inserts nodes into the store. A node whose name is already present
// replaces the existing entry without changing its position.
func (s *Store) Add(nn ...*Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range nn {
		if _, ok := s.nodes[n.Name]; !ok {
			s.order = append(s.order, n.Name)
		}
		s.nodes[n.Name] = n
	}
}

// Get returns the node with the given fully-qualified name, or nil.
func (s *Store) Get(name string) *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[name]
}

// Has reports whether a node with the given name exists.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodes[name]
	return ok
}

// Len returns the number of nodes in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Names returns all node names in insertion order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// All returns all nodes in insertion order.
func (s *Store) All() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Node, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.nodes[name])
	}
	return out
}

// ByKind returns all nodes of the given kind in insertion order.
func (s *Store) ByKind(kind string) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Node
	for _, name := range s.order {
		if n := s.nodes[name]; n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Directories returns all directory nodes.
func (s *Store) Directories() []*Node {
	return s.ByKind(KindDirectory)
}

// Files returns all file nodes.
func (s *Store) Files() []*Node {
	return s.ByKind(KindFile)
}

// Units returns all class, function and global nodes in insertion order.
func (s *Store) Units() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Node
	for _, name := range s.order {
		if n := s.nodes[name]; n.IsUnit() {
			out = append(out, n)
		}
	}
	return out
}

// Clear removes all nodes from the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[string]*Node)
	s.order = nil
	s.diag = NewDiagnostics()
}

// WriteJSONL writes all nodes as JSONL in insertion order.
func (s *Store) WriteJSONL(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enc := json.NewEncoder(w)
	for _, name := range s.order {
		if err := enc.Encode(s.nodes[name]); err != nil {
			return fmt.Errorf("encoding node %q: %w", name, err)
		}
	}
	return nil
}

// WriteJSONLFile writes all nodes as JSONL to the given file path.
func (s *Store) WriteJSONLFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	if err := s.WriteJSONL(bw); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadJSONL reads nodes from a JSONL reader and adds them to the store.
func (s *Store) ReadJSONL(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	// Allow large lines
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var n Node
		if err := json.Unmarshal(line, &n); err != nil {
			return fmt.Errorf("decoding node: %w", err)
		}
		s.Add(&n)
	}
	return scanner.Err()
}

// ReadJSONLFile reads nodes from a JSONL file and adds them to the store.
func (s *Store) ReadJSONLFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return s.ReadJSONL(f)
}
