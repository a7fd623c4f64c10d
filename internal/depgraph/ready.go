package depgraph

import "garrison/internal/manifest"

// ReadyForActivation returns, in set's stable insertion order, the
// mappings in set whose Status is still pending and whose every
// dependsOn reference resolves (within context) to a mapping already
// Activated. A dependency that does not resolve within context is
// treated as satisfied — Manifest.Validate already rejected manifests
// where a dependency fails to resolve at all.
//
// pending is the status a mapping must currently hold to be considered:
// StatusUnknown for a forward activation phase, StatusDeactivated when
// re-activating a rollback's previous set (§4.6 step 4).
func ReadyForActivation(set, context *manifest.MappingSet, services map[string]manifest.Service, pending manifest.MappingStatus) []*manifest.ServiceMapping {
	var ready []*manifest.ServiceMapping
	for _, m := range set.All() {
		if m.Status != pending {
			continue
		}
		if dependenciesSatisfied(m, context, services, manifest.StatusActivated) {
			ready = append(ready, m)
		}
	}
	return ready
}

// ReadyForDeactivation returns, in set's stable insertion order, the
// mappings in set whose Status is still pending and that no mapping in
// context still depends on — i.e. every mapping that lists it as a
// dependsOn target has already reported Deactivated.
//
// pending is the status a mapping must currently hold to be considered:
// StatusUnknown for a forward deactivation phase, StatusActivated when
// undoing a failed activation phase (§4.6 step 5).
func ReadyForDeactivation(set, context *manifest.MappingSet, services map[string]manifest.Service, pending manifest.MappingStatus) []*manifest.ServiceMapping {
	var ready []*manifest.ServiceMapping
	for _, m := range set.All() {
		if m.Status != pending {
			continue
		}
		dependents := manifest.FindDependents(context, services, m.Key())
		allDeactivated := true
		for _, dependent := range dependents {
			if dependent.Status != manifest.StatusDeactivated {
				allDeactivated = false
				break
			}
		}
		if allDeactivated {
			ready = append(ready, m)
		}
	}
	return ready
}

func dependenciesSatisfied(m *manifest.ServiceMapping, context *manifest.MappingSet, services map[string]manifest.Service, want manifest.MappingStatus) bool {
	svc, ok := services[m.Service]
	if !ok {
		return true
	}
	for _, dep := range svc.DependsOn {
		depMapping := context.Get(dep.Resolve(m.Key()))
		if depMapping == nil {
			continue
		}
		if depMapping.Status != want {
			return false
		}
	}
	return true
}
