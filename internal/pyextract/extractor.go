// Package pyextract parses Python source files with tree-sitter and fills
// the graph store with unit nodes and dependency edges.
package pyextract

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"unicode/utf8"

	"depmap/internal/graph"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// ErrNotPython is returned when a file handed to the extractor does not
// carry the .py extension.
var ErrNotPython = errors.New("not a Python file")

// Extractor extracts classes, functions and optionally module-level globals
// from Python files.
type Extractor struct {
	// IncludeGlobals adds top-level assignments as global units.
	IncludeGlobals bool
}

// New creates an Extractor.
func New(includeGlobals bool) *Extractor {
	return &Extractor{IncludeGlobals: includeGlobals}
}

// ExtractAll runs unit extraction over every file node in the store. Each
// file gains its unit children and module-level import edges; the extracted
// units are added to the store. The set of module names known before
// extraction starts decides which imports count as internal. A file that
// cannot be read or parsed is skipped with a warning so one bad file does
// not abort the whole run.
func (e *Extractor) ExtractAll(s *graph.Store) error {
	modules := make(map[string]bool)
	for _, n := range s.All() {
		if !n.IsUnit() {
			modules[n.Name] = true
		}
	}
	for _, file := range s.Files() {
		log.Printf("[pyextract] analyzing %s", file.Path)
		if err := e.ExtractFile(s, file, modules); err != nil {
			log.Printf("[pyextract] warning: skipping %s: %v", file.Path, err)
			s.Diagnostics().Warn("pyextract", file.Name, "skipping file: %v", err)
		}
	}
	return nil
}

// ExtractFile parses one file node and attaches its units and import edges.
func (e *Extractor) ExtractFile(s *graph.Store, file *graph.Node, modules map[string]bool) error {
	if !strings.HasSuffix(file.Path, ".py") {
		return fmt.Errorf("%w: %s", ErrNotPython, file.Path)
	}
	src, err := os.ReadFile(file.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file.Path, err)
	}
	if !utf8.Valid(src) {
		return fmt.Errorf("%s is not valid UTF-8", file.Path)
	}

	units, depsSame, depsOther := e.ExtractSource(src, file.Name, modules)

	children := make([]string, 0, len(units))
	for _, u := range units {
		u.Path = file.Path
		s.Add(u)
		children = append(children, u.Name)
	}
	file.Children = graph.NewStringSet(children...).Sorted()
	file.DepsSame = depsSame
	file.DepsOther = depsOther
	return nil
}

// ExtractSource parses Python source belonging to the module with the given
// fully-qualified name. It returns the extracted unit nodes plus the
// module-level dependency edges derived from imports of known modules.
func (e *Extractor) ExtractSource(src []byte, moduleName string, modules map[string]bool) ([]*graph.Node, graph.StringSet, graph.StringSet) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(sitter.NewLanguage(python.Language()))

	tree := parser.Parse(src, nil)
	defer tree.Close()

	fc := &fileCollector{
		src:          src,
		moduleName:   moduleName,
		rootName:     strings.SplitN(moduleName, ".", 2)[0],
		moduleParent: graph.Parent(moduleName, 1),
		modules:      modules,
		globals:      e.IncludeGlobals,
		bindings:     make(map[string]string),
		depsSame:     graph.NewStringSet(),
		depsOther:    graph.NewStringSet(),
	}
	fc.collectTopLevel(tree.RootNode())

	// second pass: resolve names inside each unit body against the
	// bindings gathered from definitions and imports
	for _, u := range fc.units {
		if u.def == nil {
			continue
		}
		r := &resolver{
			src:        src,
			moduleName: moduleName,
			bindings:   fc.bindings,
			unit:       u.node,
		}
		r.walk(u.def)
	}

	nodes := make([]*graph.Node, 0, len(fc.units))
	for _, u := range fc.units {
		nodes = append(nodes, u.node)
	}
	return nodes, fc.depsSame, fc.depsOther
}

// unit pairs a graph node with the syntax node to resolve names in. Globals
// carry no definition body.
type unit struct {
	node *graph.Node
	def  *sitter.Node
}

type fileCollector struct {
	src          []byte
	moduleName   string
	rootName     string
	moduleParent string
	modules      map[string]bool
	globals      bool

	units     []*unit
	bindings  map[string]string
	depsSame  graph.StringSet
	depsOther graph.StringSet
}

func (fc *fileCollector) collectTopLevel(root *sitter.Node) {
	for i := range root.ChildCount() {
		child := root.Child(i)
		switch child.Kind() {
		case "class_definition", "function_definition":
			fc.addDefinition(child, child)
		case "decorated_definition":
			if def := child.ChildByFieldName("definition"); def != nil {
				// resolve over the decorated wrapper so decorator
				// expressions contribute dependencies too
				fc.addDefinition(def, child)
			}
		case "expression_statement":
			if fc.globals {
				fc.addGlobals(child)
			}
		case "import_statement":
			fc.addImport(child)
		case "import_from_statement":
			fc.addImportFrom(child)
		}
	}
}

func (fc *fileCollector) addDefinition(def, walkRoot *sitter.Node) {
	nameNode := def.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, fc.src)
	kind := graph.KindFunction
	if def.Kind() == "class_definition" {
		kind = graph.KindClass
	}
	fc.addUnit(name, kind, walkRoot)
}

// addGlobals records top-level assignment targets as global units, following
// chained assignments like "a = b = 1" through the right-hand side.
func (fc *fileCollector) addGlobals(stmt *sitter.Node) {
	assign := findChildByKind(stmt, "assignment")
	for assign != nil {
		if left := assign.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" {
			fc.addUnit(nodeText(left, fc.src), graph.KindGlobal, nil)
		}
		next := assign.ChildByFieldName("right")
		if next != nil && next.Kind() == "assignment" {
			assign = next
		} else {
			assign = nil
		}
	}
}

func (fc *fileCollector) addUnit(name, kind string, def *sitter.Node) {
	fullName := fc.moduleName + "." + name
	n := &graph.Node{
		Name:      fullName,
		Kind:      kind,
		Level:     strings.Count(fullName, ".") + 1,
		Private:   graph.IsPrivate(name),
		DepsSame:  graph.NewStringSet(),
		DepsOther: graph.NewStringSet(),
	}
	fc.units = append(fc.units, &unit{node: n, def: def})
	fc.bindings[name] = fullName
}

// addImport handles "import a.b" and "import a.b as c" statements. Only
// imports of known modules inside the analyzed tree become edges and
// bindings; external packages are ignored here.
func (fc *fileCollector) addImport(stmt *sitter.Node) {
	for i := range stmt.ChildCount() {
		child := stmt.Child(i)
		var name, alias string
		switch child.Kind() {
		case "dotted_name":
			name = nodeText(child, fc.src)
			alias = name
		case "aliased_import":
			nn := child.ChildByFieldName("name")
			an := child.ChildByFieldName("alias")
			if nn == nil || an == nil {
				continue
			}
			name = nodeText(nn, fc.src)
			alias = nodeText(an, fc.src)
		default:
			continue
		}
		if strings.HasPrefix(name, fc.rootName) && fc.modules[name] {
			fc.addModuleDep(name)
			fc.bindings[alias] = name
		}
	}
}

// addImportFrom handles "from x import a [as b]" statements, including
// relative forms. Every name rooted inside the analyzed tree becomes a
// binding; the edge targets the containing module when a unit was imported
// directly.
func (fc *fileCollector) addImportFrom(stmt *sitter.Node) {
	moduleNode := stmt.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}

	var module string
	level := 0
	if moduleNode.Kind() == "relative_import" {
		if prefix := findChildByKind(moduleNode, "import_prefix"); prefix != nil {
			level = len(nodeText(prefix, fc.src))
		}
		if dn := findChildByKind(moduleNode, "dotted_name"); dn != nil {
			module = nodeText(dn, fc.src)
		}
	} else {
		module = nodeText(moduleNode, fc.src)
	}
	base := graph.ResolveRelativeImport(fc.moduleName, module, level)

	for i := range stmt.ChildCount() {
		child := stmt.Child(i)
		if child.StartByte() == moduleNode.StartByte() {
			continue
		}
		var name, alias string
		switch child.Kind() {
		case "dotted_name":
			name = nodeText(child, fc.src)
			alias = name
		case "aliased_import":
			nn := child.ChildByFieldName("name")
			an := child.ChildByFieldName("alias")
			if nn == nil || an == nil {
				continue
			}
			name = nodeText(nn, fc.src)
			alias = nodeText(an, fc.src)
		case "wildcard_import":
			name = "*"
			alias = "*"
		default:
			continue
		}

		fullName := name
		if base != "" {
			fullName = base + "." + name
		}
		if !strings.HasPrefix(fullName, fc.rootName) {
			continue
		}
		fromModule := fullName
		if !fc.modules[fromModule] {
			fromModule = graph.Parent(fullName, 1)
		}
		if fc.modules[fromModule] {
			fc.addModuleDep(fromModule)
		}
		fc.bindings[alias] = fullName
	}
}

func (fc *fileCollector) addModuleDep(target string) {
	if graph.Parent(target, 1) == fc.moduleParent {
		fc.depsSame.Add(target)
	} else {
		fc.depsOther.Add(target)
	}
}

func findChildByKind(node *sitter.Node, kind string) *sitter.Node {
	for i := range node.ChildCount() {
		child := node.Child(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

func nodeText(node *sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}
