package manifest

import "fmt"

// Validate checks every invariant in §3 and returns every violation
// found, rather than stopping at the first. A Manifest returned by Load
// is only guaranteed valid if Validate reports no errors.
func (m *Manifest) Validate() ValidationErrors {
	var errs ValidationErrors

	for _, mapping := range m.ServiceMappings.All() {
		m.validateMapping(mapping, &errs)
	}
	m.validateDependencyRefs(&errs)
	m.validateCores(&errs)
	m.validateAcyclic(&errs)

	return errs
}

func (m *Manifest) validateMapping(mapping *ServiceMapping, errs *ValidationErrors) {
	subject := fmt.Sprintf("%s/%s@%s", mapping.Service, mapping.Container, mapping.Target)

	if _, ok := m.Services[mapping.Service]; !ok {
		errs.add(ErrMissingReference, subject, "mapping references unknown service")
	}
	target, ok := m.Targets[mapping.Target]
	if !ok {
		errs.add(ErrMissingReference, subject, "mapping references unknown target")
		return
	}
	if _, ok := target.Containers[mapping.Container]; !ok {
		errs.add(ErrMissingReference, subject, "mapping references unknown container on target")
	}
}

func (m *Manifest) validateDependencyRefs(errs *ValidationErrors) {
	for _, mapping := range m.ServiceMappings.All() {
		svc, ok := m.Services[mapping.Service]
		if !ok {
			continue
		}
		refs := append(append([]DependencyRef{}, svc.DependsOn...), svc.ConnectsOn...)
		for _, ref := range refs {
			resolved := ref.Resolve(mapping.Key())
			if !m.ServiceMappings.Contains(resolved) {
				errs.add(ErrMissingReference,
					fmt.Sprintf("%s/%s@%s", mapping.Service, mapping.Container, mapping.Target),
					fmt.Sprintf("dependency %s/%s@%s does not resolve to a mapping", resolved.Service, resolved.Container, resolved.Target))
			}
		}
	}
}

func (m *Manifest) validateCores(errs *ValidationErrors) {
	for name, target := range m.Targets {
		if target.NumOfCores < 0 {
			errs.add(ErrMalformedInput, name, "numOfCores must not be negative")
		}
		if target.AvailableCores < 0 {
			errs.add(ErrMalformedInput, name, "availableCores must not be negative")
		}
		if target.AvailableCores > target.NumOfCores {
			errs.add(ErrMalformedInput, name, "availableCores must not exceed numOfCores")
		}
	}
}

// validateAcyclic rejects a cyclic dependsOn graph over the full mapping
// set, per the design note that cycles must be caught in Load, not at
// traversal time.
func (m *Manifest) validateAcyclic(errs *ValidationErrors) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[MappingKey]int)

	var visit func(key MappingKey) bool
	visit = func(key MappingKey) bool {
		switch color[key] {
		case black:
			return true
		case gray:
			return false
		}
		color[key] = gray
		mapping := m.ServiceMappings.Get(key)
		if mapping != nil {
			if svc, ok := m.Services[mapping.Service]; ok {
				for _, dep := range svc.DependsOn {
					resolved := dep.Resolve(key)
					if !m.ServiceMappings.Contains(resolved) {
						continue
					}
					if !visit(resolved) {
						return false
					}
				}
			}
		}
		color[key] = black
		return true
	}

	for _, mapping := range m.ServiceMappings.All() {
		if !visit(mapping.Key()) {
			errs.add(ErrCyclicDependency, fmt.Sprintf("%s/%s@%s", mapping.Service, mapping.Container, mapping.Target),
				"dependsOn graph contains a cycle")
			return
		}
	}
}
