package graph

import "sort"

// SortedNames produces the final display order: files in recursive directory
// order, each followed by its units. Within every directory, children with
// no dependencies at all sort last, then by incoming count ascending,
// outgoing count descending, public before private, child count descending,
// and name. Units additionally weigh same-file dependencies before
// cross-file ones and order classes before functions before globals.
// Directory names themselves do not appear in the output.
func SortedNames(s *Store) []string {
	root := s.Get(s.Root())
	if root == nil {
		return nil
	}

	worklist := sortedBy(s, root.Children, moduleLess)
	var files []string
	for len(worklist) > 0 {
		next := worklist[0]
		worklist = worklist[1:]
		n := s.Get(next)
		if n == nil {
			continue
		}
		if n.Kind == KindFile {
			files = append(files, next)
		} else {
			worklist = append(sortedBy(s, n.Children, moduleLess), worklist...)
		}
	}

	var names []string
	for _, file := range files {
		names = append(names, file)
		names = append(names, sortedBy(s, s.Get(file).Children, unitLess)...)
	}
	return names
}

func sortedBy(s *Store, names []string, less func(a, b *Node) bool) []string {
	out := make([]string, len(names))
	copy(out, names)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := s.Get(out[i]), s.Get(out[j])
		if a == nil || b == nil {
			return a != nil
		}
		return less(a, b)
	})
	return out
}

func moduleLess(a, b *Node) bool {
	ka, kb := moduleKey(a), moduleKey(b)
	for i := range ka {
		if ka[i] != kb[i] {
			return ka[i] < kb[i]
		}
	}
	return a.Name < b.Name
}

func moduleKey(n *Node) []float64 {
	out := float64(n.OutDegree())
	in := n.InSame + n.InOther
	return []float64{
		-anyDegree(out + in),
		in,
		-out,
		boolKey(n.Private),
		-float64(len(n.Children)),
	}
}

func unitLess(a, b *Node) bool {
	ka, kb := unitKey(a), unitKey(b)
	for i := range ka {
		if ka[i] != kb[i] {
			return ka[i] < kb[i]
		}
	}
	if a.Kind != b.Kind {
		return kindRank(a.Kind) < kindRank(b.Kind)
	}
	return a.Name < b.Name
}

func unitKey(n *Node) []float64 {
	outSame := float64(len(n.DepsSame))
	outOther := float64(len(n.DepsOther))
	in := n.InSame + n.InOther
	return []float64{
		-anyDegree(outSame + outOther + in),
		n.InSame,
		-outSame,
		n.InOther,
		-outOther,
		boolKey(n.Private),
	}
}

func kindRank(kind string) int {
	switch kind {
	case KindClass:
		return 0
	case KindFunction:
		return 1
	default:
		return 2
	}
}

func anyDegree(total float64) float64 {
	if total > 0 {
		return 1
	}
	return 0
}

func boolKey(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
