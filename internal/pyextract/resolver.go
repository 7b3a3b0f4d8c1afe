package pyextract

import (
	"strings"

	"depmap/internal/graph"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// resolver walks a unit's syntax tree and turns bound names into dependency
// edges on the unit node. Edges whose target lies inside the unit's own
// module count as same-module.
type resolver struct {
	src        []byte
	moduleName string
	bindings   map[string]string
	unit       *graph.Node
}

func (r *resolver) walk(node *sitter.Node) {
	switch node.Kind() {
	case "identifier":
		if full, ok := r.bindings[nodeText(node, r.src)]; ok {
			r.emit(full)
		}

	case "attribute":
		r.walkAttribute(node)

	case "function_definition", "class_definition":
		r.walkDefinition(node)

	case "parameters", "lambda_parameters":
		r.walkParameters(node)

	case "keyword_argument":
		if v := node.ChildByFieldName("value"); v != nil {
			r.walk(v)
		}

	case "import_statement", "import_from_statement",
		"global_statement", "nonlocal_statement":
		// statements that mention names without using them

	default:
		for i := range node.ChildCount() {
			r.walk(node.Child(i))
		}
	}
}

// walkAttribute resolves dotted access like pkg.mod.fn by chasing the object
// chain down to its base. A bound base identifier yields one edge for the
// whole chain; any other base expression is walked normally.
func (r *resolver) walkAttribute(node *sitter.Node) {
	var parts []string
	cur := node
	for cur != nil && cur.Kind() == "attribute" {
		attr := cur.ChildByFieldName("attribute")
		if attr == nil {
			return
		}
		parts = append(parts, nodeText(attr, r.src))
		cur = cur.ChildByFieldName("object")
	}
	if cur == nil {
		return
	}
	if cur.Kind() == "identifier" {
		full, ok := r.bindings[nodeText(cur, r.src)]
		if !ok {
			return
		}
		for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
			parts[i], parts[j] = parts[j], parts[i]
		}
		r.emit(full + "." + strings.Join(parts, "."))
		return
	}
	r.walk(cur)
}

// walkDefinition visits a nested definition's dependency-bearing parts while
// skipping the declared name, which is a binding rather than a use.
func (r *resolver) walkDefinition(node *sitter.Node) {
	if params := node.ChildByFieldName("parameters"); params != nil {
		r.walkParameters(params)
	}
	if sup := node.ChildByFieldName("superclasses"); sup != nil {
		r.walk(sup)
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		r.walk(ret)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		r.walk(body)
	}
}

// walkParameters skips parameter names but still resolves annotations and
// default values.
func (r *resolver) walkParameters(node *sitter.Node) {
	for i := range node.ChildCount() {
		child := node.Child(i)
		switch child.Kind() {
		case "typed_parameter", "typed_default_parameter":
			if typ := child.ChildByFieldName("type"); typ != nil {
				r.walk(typ)
			}
			if val := child.ChildByFieldName("value"); val != nil {
				r.walk(val)
			}
		case "default_parameter":
			if val := child.ChildByFieldName("value"); val != nil {
				r.walk(val)
			}
		}
	}
}

func (r *resolver) emit(target string) {
	if strings.HasPrefix(target, r.moduleName) {
		r.unit.DepsSame.Add(target)
	} else {
		r.unit.DepsOther.Add(target)
	}
}
