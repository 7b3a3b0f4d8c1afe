package graph

import (
	"sort"
	"strings"
)

// CountIncoming tallies how often each name appears as a dependency across
// the whole store and writes the totals into every file and unit node. A
// file's dependencies additionally credit every ancestor package of the
// target, so that depending on a deeply nested module also counts toward the
// packages that contain it. Directory totals come later from propagation.
func CountIncoming(s *Store) {
	countsSame := make(map[string]float64)
	countsOther := make(map[string]float64)

	for _, n := range s.All() {
		if n.Kind == KindDirectory {
			continue
		}
		for dep := range n.DepsSame {
			countsSame[dep]++
			if n.Kind == KindFile {
				for _, anc := range Ancestors(dep) {
					countsSame[anc]++
				}
			}
		}
		for dep := range n.DepsOther {
			countsOther[dep]++
			if n.Kind == KindFile {
				for _, anc := range Ancestors(dep) {
					countsOther[anc]++
				}
			}
		}
	}

	for _, n := range s.All() {
		if n.Kind == KindDirectory {
			continue
		}
		n.InSame = countsSame[n.Name]
		n.InOther = countsOther[n.Name]
	}
}

// PropagateDirectories rolls file dependencies up into directory nodes,
// deepest level first so nested directories are complete before their
// parents. A child dependency counts as same-module when it targets
// something inside the directory, or a sibling directory at the same level.
// Incoming totals become the mean over the children: many submodules with
// individually few incoming dependencies should not outweigh a single file
// that many modules depend on.
func PropagateDirectories(s *Store) {
	var dirs []*Node
	for _, n := range s.All() {
		if n.Kind == KindDirectory {
			dirs = append(dirs, n)
		}
	}
	sort.SliceStable(dirs, func(i, j int) bool { return dirs[i].Level > dirs[j].Level })

	for _, dir := range dirs {
		parent := Parent(dir.Name, 1)
		for _, childName := range dir.Children {
			child := s.Get(childName)
			if child == nil {
				continue
			}
			for dep := range child.DepsSame.Union(child.DepsOther) {
				if strings.HasPrefix(dep, dir.Name) || isSiblingDep(s, dep, parent, dir.Level) {
					dir.DepsSame.Add(dep)
				} else {
					dir.DepsOther.Add(dep)
				}
			}
		}

		var sumSame, sumOther float64
		for _, childName := range dir.Children {
			if child := s.Get(childName); child != nil {
				sumSame += child.InSame
				sumOther += child.InOther
			}
		}
		div := float64(len(dir.Children))
		if div < 1 {
			div = 1
		}
		dir.InSame = sumSame / div
		dir.InOther = sumOther / div
	}
}

func isSiblingDep(s *Store, dep, parent string, level int) bool {
	if !strings.HasPrefix(dep, parent) {
		return false
	}
	n := s.Get(dep)
	return n != nil && n.Level == level
}
