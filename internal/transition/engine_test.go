package transition

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"garrison/internal/manifest"
	"garrison/internal/target"
)

func newManifestWith(mappings []*manifest.ServiceMapping, services map[string]manifest.Service, targets map[string]manifest.Target) *manifest.Manifest {
	m := manifest.New()
	m.Services = services
	m.Targets = targets
	for _, mm := range mappings {
		m.ServiceMappings.Add(mm)
	}
	return m
}

func twoHostTargets() map[string]manifest.Target {
	return map[string]manifest.Target{
		"hostA": {Name: "hostA", NumOfCores: 2, AvailableCores: 2},
		"hostB": {Name: "hostB", NumOfCores: 2, AvailableCores: 2},
	}
}

func newTargetsRegistry(targets map[string]manifest.Target) *target.Registry {
	reg := target.NewRegistry()
	for _, t := range targets {
		reg.Register(target.NewRuntime(t))
	}
	return reg
}

// Scenario 1: fresh install.
func TestEngine_FreshInstall(t *testing.T) {
	services := map[string]manifest.Service{"webapp": {Name: "webapp", Package: "/p/webapp", Type: "process"}}
	targets := map[string]manifest.Target{"host1": {Name: "host1", NumOfCores: 2, AvailableCores: 2}}
	newM := newManifestWith([]*manifest.ServiceMapping{{Service: "webapp", Container: "procs", Target: "host1"}}, services, targets)

	var activateCalls []string
	engine := NewEngine(services, newTargetsRegistry(targets),
		func(ctx context.Context, m *manifest.ServiceMapping) error {
			activateCalls = append(activateCalls, m.Service)
			return nil
		},
		func(ctx context.Context, m *manifest.ServiceMapping) error { return nil })

	outcome, err := engine.Run(context.Background(), newM, nil, Flags{})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if outcome != Success {
		t.Fatalf("outcome = %s, want Success", outcome)
	}
	if len(activateCalls) != 1 || activateCalls[0] != "webapp" {
		t.Fatalf("expected exactly one activate(webapp), got %v", activateCalls)
	}
}

// Scenario 3: dependency-ordered activation.
func TestEngine_DependencyOrderedActivation(t *testing.T) {
	services := map[string]manifest.Service{
		"db":  {Name: "db", Package: "/p/db", Type: "process"},
		"app": {Name: "app", Package: "/p/app", Type: "process", DependsOn: []manifest.DependencyRef{{Service: "db", Container: "dbc", Target: "hostA"}}},
	}
	targets := map[string]manifest.Target{
		"hostA": {Name: "hostA", NumOfCores: 1, AvailableCores: 1},
		"hostB": {Name: "hostB", NumOfCores: 1, AvailableCores: 1},
	}
	newM := newManifestWith([]*manifest.ServiceMapping{
		{Service: "db", Container: "dbc", Target: "hostA"},
		{Service: "app", Container: "procs", Target: "hostB"},
	}, services, targets)

	var mu sync.Mutex
	var order []string
	engine := NewEngine(services, newTargetsRegistry(targets),
		func(ctx context.Context, m *manifest.ServiceMapping) error {
			mu.Lock()
			order = append(order, m.Service)
			mu.Unlock()
			return nil
		},
		func(ctx context.Context, m *manifest.ServiceMapping) error { return nil })

	outcome, err := engine.Run(context.Background(), newM, nil, Flags{})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if outcome != Success {
		t.Fatalf("outcome = %s, want Success", outcome)
	}
	if len(order) != 2 || order[0] != "db" || order[1] != "app" {
		t.Fatalf("expected [db app], got %v", order)
	}
}

// Scenario 4: activation failure triggers rollback.
func TestEngine_ActivationFailureTriggersRollback(t *testing.T) {
	services := map[string]manifest.Service{
		"db":  {Name: "db", Package: "/p/db", Type: "process"},
		"app": {Name: "app", Package: "/p/app", Type: "process", DependsOn: []manifest.DependencyRef{{Service: "db", Container: "dbc", Target: "hostA"}}},
	}
	targets := twoHostTargets()
	newM := newManifestWith([]*manifest.ServiceMapping{
		{Service: "db", Container: "dbc", Target: "hostA"},
		{Service: "app", Container: "procs", Target: "hostB"},
	}, services, targets)

	var mu sync.Mutex
	var deactivated []string
	engine := NewEngine(services, newTargetsRegistry(targets),
		func(ctx context.Context, m *manifest.ServiceMapping) error {
			if m.Service == "app" {
				return errors.New("activation failed")
			}
			return nil
		},
		func(ctx context.Context, m *manifest.ServiceMapping) error {
			mu.Lock()
			deactivated = append(deactivated, m.Service)
			mu.Unlock()
			return nil
		})

	outcome, err := engine.Run(context.Background(), newM, nil, Flags{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if outcome != Failed {
		t.Fatalf("outcome = %s, want Failed", outcome)
	}
	if len(deactivated) != 1 || deactivated[0] != "db" {
		t.Fatalf("expected only db to be deactivated during rollback, got %v", deactivated)
	}
}

// Regression test: a mapping still in flight must not be dispatched a
// second time just because another mapping on the same target released
// its core first.
func TestEngine_InFlightMappingNotDispatchedTwice(t *testing.T) {
	services := map[string]manifest.Service{
		"fast": {Name: "fast", Package: "/p/fast", Type: "process"},
		"slow": {Name: "slow", Package: "/p/slow", Type: "process"},
	}
	targets := map[string]manifest.Target{"host1": {Name: "host1", NumOfCores: 2, AvailableCores: 2}}
	newM := newManifestWith([]*manifest.ServiceMapping{
		{Service: "fast", Container: "procs", Target: "host1"},
		{Service: "slow", Container: "procs", Target: "host1"},
	}, services, targets)

	var mu sync.Mutex
	slowCalls := 0
	release := make(chan struct{})

	engine := NewEngine(services, newTargetsRegistry(targets),
		func(ctx context.Context, m *manifest.ServiceMapping) error {
			if m.Service == "slow" {
				mu.Lock()
				slowCalls++
				n := slowCalls
				mu.Unlock()
				if n > 1 {
					t.Errorf("slow activated concurrently with itself (call #%d) while its first call was still in flight", n)
				}
				<-release
			}
			return nil
		},
		func(ctx context.Context, m *manifest.ServiceMapping) error { return nil })

	go func() {
		// Give fast's completion time to be reaped and the loop to
		// re-scan before slow is allowed to finish: a drive that
		// re-dispatches in-flight mappings once a sibling on the same
		// target frees a core would do it in that window.
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	outcome, err := engine.Run(context.Background(), newM, nil, Flags{})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if outcome != Success {
		t.Fatalf("outcome = %s, want Success", outcome)
	}
	mu.Lock()
	defer mu.Unlock()
	if slowCalls != 1 {
		t.Fatalf("slow activated %d times, want exactly 1", slowCalls)
	}
}

// Obsolete-rollback after a deactivation-phase failure must re-activate
// exactly the mappings that were actually deactivated, leaving the one
// whose deactivate call failed (still really running) untouched.
func TestEngine_DeactivationFailureReactivatesOnlyWhatWasDeactivated(t *testing.T) {
	services := map[string]manifest.Service{
		"db":  {Name: "db", Package: "/p/db", Type: "process"},
		"app": {Name: "app", Package: "/p/app", Type: "process", DependsOn: []manifest.DependencyRef{{Service: "db", Container: "dbc", Target: "hostA"}}},
	}
	targets := twoHostTargets()
	oldM := newManifestWith([]*manifest.ServiceMapping{
		{Service: "db", Container: "dbc", Target: "hostA"},
		{Service: "app", Container: "procs", Target: "hostB"},
	}, services, targets)
	newM := newManifestWith(nil, services, targets)

	var mu sync.Mutex
	var reactivated []string
	engine := NewEngine(services, newTargetsRegistry(targets),
		func(ctx context.Context, m *manifest.ServiceMapping) error {
			mu.Lock()
			reactivated = append(reactivated, m.Service)
			mu.Unlock()
			return nil
		},
		func(ctx context.Context, m *manifest.ServiceMapping) error {
			if m.Service == "db" {
				return errors.New("deactivation failed")
			}
			return nil
		})

	outcome, err := engine.Run(context.Background(), newM, oldM, Flags{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if outcome != Failed {
		t.Fatalf("outcome = %s, want Failed", outcome)
	}
	if len(reactivated) != 1 || reactivated[0] != "app" {
		t.Fatalf("expected only app to be re-activated during rollback, got %v", reactivated)
	}
}

func TestEngine_NoOpRedeployIssuesNoOperations(t *testing.T) {
	services := map[string]manifest.Service{"webapp": {Name: "webapp", Package: "/p/webapp", Type: "process"}}
	targets := map[string]manifest.Target{"host1": {Name: "host1", NumOfCores: 1, AvailableCores: 1}}
	mapping := &manifest.ServiceMapping{Service: "webapp", Container: "procs", Target: "host1"}
	oldM := newManifestWith([]*manifest.ServiceMapping{mapping}, services, targets)
	newM := newManifestWith([]*manifest.ServiceMapping{
		{Service: "webapp", Container: "procs", Target: "host1"},
	}, services, targets)

	called := 0
	engine := NewEngine(services, newTargetsRegistry(targets),
		func(ctx context.Context, m *manifest.ServiceMapping) error { called++; return nil },
		func(ctx context.Context, m *manifest.ServiceMapping) error { called++; return nil })

	outcome, err := engine.Run(context.Background(), newM, oldM, Flags{})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if outcome != Success {
		t.Fatalf("outcome = %s, want Success", outcome)
	}
	if called != 0 {
		t.Fatalf("expected zero operations on a no-op redeploy, got %d", called)
	}
}

func TestEngine_DryRunFailureInjector(t *testing.T) {
	services := map[string]manifest.Service{"webapp": {Name: "webapp", Package: "/p/webapp", Type: "process"}}
	targets := map[string]manifest.Target{"host1": {Name: "host1", NumOfCores: 1, AvailableCores: 1}}
	newM := newManifestWith([]*manifest.ServiceMapping{{Service: "webapp", Container: "procs", Target: "host1"}}, services, targets)

	engine := NewEngine(services, newTargetsRegistry(targets), nil, nil)
	engine.Injector = func(verb string, m *manifest.ServiceMapping) error {
		if verb == "activate" {
			return fmt.Errorf("simulated failure")
		}
		return nil
	}

	outcome, err := engine.Run(context.Background(), newM, nil, Flags{DryRun: true, NoRollback: true})
	if err == nil {
		t.Fatal("expected injected dry-run failure to propagate")
	}
	if outcome != Failed {
		t.Fatalf("outcome = %s, want Failed", outcome)
	}
}
