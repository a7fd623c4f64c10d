package manifest

// MappingSet holds ServiceMappings keyed by their (service, container,
// target) triple while preserving insertion order. The transition
// engine's traversal loop relies on that order as the stable tie-break
// among equally-ready mappings (§4.5), so every read path here returns
// mappings in the order they were added — mirroring the copy-on-read
// discipline of the teacher's dependency graph.
type MappingSet struct {
	order []MappingKey
	byKey map[MappingKey]*ServiceMapping
}

// NewMappingSet returns an empty MappingSet.
func NewMappingSet() *MappingSet {
	return &MappingSet{byKey: make(map[MappingKey]*ServiceMapping)}
}

// Add inserts m, keyed by m.Key(). Returns false without modifying the
// set if a mapping with the same key already exists.
func (s *MappingSet) Add(m *ServiceMapping) bool {
	key := m.Key()
	if _, exists := s.byKey[key]; exists {
		return false
	}
	s.byKey[key] = m
	s.order = append(s.order, key)
	return true
}

// Get returns the mapping for key, or nil if absent.
func (s *MappingSet) Get(key MappingKey) *ServiceMapping {
	return s.byKey[key]
}

// Contains reports whether key is present in the set.
func (s *MappingSet) Contains(key MappingKey) bool {
	_, ok := s.byKey[key]
	return ok
}

// Len returns the number of mappings in the set.
func (s *MappingSet) Len() int {
	return len(s.order)
}

// All returns the set's mappings in insertion order. Callers must not
// mutate the returned slice's backing elements beyond updating Status.
func (s *MappingSet) All() []*ServiceMapping {
	out := make([]*ServiceMapping, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byKey[key])
	}
	return out
}

// Intersect returns the mappings present in both a and b, in a's order.
func Intersect(a, b *MappingSet) *MappingSet {
	out := NewMappingSet()
	for _, m := range a.All() {
		if b.Contains(m.Key()) {
			out.Add(m)
		}
	}
	return out
}

// Subtract returns the mappings in a that are not in b, in a's order.
func Subtract(a, b *MappingSet) *MappingSet {
	out := NewMappingSet()
	for _, m := range a.All() {
		if !b.Contains(m.Key()) {
			out.Add(m)
		}
	}
	return out
}

// Unify produces the union of old and new's mappings, used only as
// rollback context: every mapping that appears in either, old's order
// first, then any mapping from new not already present.
func Unify(old, new *MappingSet) *MappingSet {
	out := NewMappingSet()
	for _, m := range old.All() {
		out.Add(m)
	}
	for _, m := range new.All() {
		out.Add(m)
	}
	return out
}

// UnifyServices merges two service-by-name tables; new takes precedence
// on a name conflict.
func UnifyServices(old, new map[string]Service) map[string]Service {
	out := make(map[string]Service, len(old)+len(new))
	for name, svc := range old {
		out[name] = svc
	}
	for name, svc := range new {
		out[name] = svc
	}
	return out
}

// FindDependents returns the mappings in set that list m as a dependsOn
// target, applying the implicit-target rule relative to each candidate.
func FindDependents(set *MappingSet, services map[string]Service, m MappingKey) []*ServiceMapping {
	var out []*ServiceMapping
	for _, candidate := range set.All() {
		svc, ok := services[candidate.Service]
		if !ok {
			continue
		}
		for _, dep := range svc.DependsOn {
			if dep.Resolve(candidate.Key()) == m {
				out = append(out, candidate)
				break
			}
		}
	}
	return out
}
