package depgraph

import (
	"testing"

	"garrison/internal/manifest"
)

func buildScenario() (*manifest.MappingSet, map[string]manifest.Service) {
	services := map[string]manifest.Service{
		"db":  {Name: "db"},
		"app": {Name: "app", DependsOn: []manifest.DependencyRef{{Service: "db", Container: "dbc", Target: "hostA"}}},
	}
	set := manifest.NewMappingSet()
	set.Add(&manifest.ServiceMapping{Service: "db", Container: "dbc", Target: "hostA"})
	set.Add(&manifest.ServiceMapping{Service: "app", Container: "procs", Target: "hostB"})
	return set, services
}

func TestReadyForActivation_DependencyNotYetActivated(t *testing.T) {
	set, services := buildScenario()

	ready := ReadyForActivation(set, set, services, manifest.StatusUnknown)
	if len(ready) != 1 || ready[0].Service != "db" {
		t.Fatalf("expected only db ready, got %v", describe(ready))
	}
}

func TestReadyForActivation_UnblocksAfterDependencyActivated(t *testing.T) {
	set, services := buildScenario()
	set.Get(manifest.MappingKey{Service: "db", Container: "dbc", Target: "hostA"}).Status = manifest.StatusActivated

	ready := ReadyForActivation(set, set, services, manifest.StatusUnknown)
	if len(ready) != 1 || ready[0].Service != "app" {
		t.Fatalf("expected only app ready, got %v", describe(ready))
	}
}

func TestReadyForDeactivation_DependentMustGoFirst(t *testing.T) {
	set, services := buildScenario()

	// db has a dependent (app) that hasn't deactivated yet: db isn't ready.
	ready := ReadyForDeactivation(set, set, services, manifest.StatusUnknown)
	if len(ready) != 1 || ready[0].Service != "app" {
		t.Fatalf("expected only app ready for deactivation, got %v", describe(ready))
	}

	set.Get(manifest.MappingKey{Service: "app", Container: "procs", Target: "hostB"}).Status = manifest.StatusDeactivated
	ready = ReadyForDeactivation(set, set, services, manifest.StatusUnknown)
	if len(ready) != 1 || ready[0].Service != "db" {
		t.Fatalf("expected db ready once app has deactivated, got %v", describe(ready))
	}
}

func describe(ms []*manifest.ServiceMapping) []string {
	var out []string
	for _, m := range ms {
		out = append(out, m.Service)
	}
	return out
}
