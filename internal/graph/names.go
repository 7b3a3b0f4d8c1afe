package graph

import "strings"

// IsPrivate reports whether a name is private by convention: it starts with
// an underscore and is not the "__main__" entry-point name.
func IsPrivate(name string) bool {
	return strings.HasPrefix(name, "_") && name != "__main__"
}

// Parent strips the given number of trailing dotted components from a
// fully-qualified name. Requesting more levels than available returns the
// root segment; levels <= 0 returns the input unchanged.
func Parent(name string, levels int) string {
	if levels <= 0 {
		return name
	}
	parts := strings.Split(name, ".")
	if levels >= len(parts) {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-levels], ".")
}

// Ancestors returns every proper dotted prefix of a fully-qualified name,
// shortest first: "a.b.c.d" -> [a, a.b, a.b.c]. A single segment has none.
func Ancestors(name string) []string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts)-1)
	for i := 1; i < len(parts); i++ {
		out = append(out, strings.Join(parts[:i], "."))
	}
	return out
}

// ResolveRelativeImport reinterprets a relative import against the importing
// module's fully-qualified name: level L strips the last L components of base
// to locate the anchor package, then appends the imported module path.
// Level 0 and levels deeper than base both fall back to the module unchanged.
func ResolveRelativeImport(base, module string, level int) string {
	if level <= 0 {
		return module
	}
	parts := strings.Split(base, ".")
	if level > len(parts) {
		return module
	}
	prefix := strings.Join(parts[:len(parts)-level], ".")
	if module == "" {
		return prefix
	}
	if prefix == "" {
		return module
	}
	return prefix + "." + module
}
