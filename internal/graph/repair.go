package graph

// RepairUnits rewrites every unit's dependency sets so that each entry names
// a unit that actually exists in the store. A dependency on an unknown name
// is retargeted one level up when that parent is a known unit, and dropped
// with a warning otherwise. Self edges are dropped silently. Running the
// repair again on an already repaired store is a no-op.
func RepairUnits(s *Store) {
	known := make(map[string]struct{})
	for _, u := range s.Units() {
		known[u.Name] = struct{}{}
	}

	for _, u := range s.Units() {
		u.DepsSame = repairSet(s, known, u.Name, u.DepsSame)
		u.DepsOther = repairSet(s, known, u.Name, u.DepsOther)
	}
}

func repairSet(s *Store, known map[string]struct{}, owner string, deps StringSet) StringSet {
	out := NewStringSet()
	for dep := range deps {
		if _, ok := known[dep]; !ok {
			parent := Parent(dep, 1)
			if _, ok := known[parent]; ok {
				dep = parent
			} else {
				s.Diagnostics().Warn("repair", owner, "dropping unresolved dependency %q", dep)
				continue
			}
		}
		if dep == owner {
			continue
		}
		out.Add(dep)
	}
	return out
}
