package target

import (
	"fmt"
	"sync"

	"garrison/internal/manifest"
)

// Runtime is the live handle for one deployment target: its client
// interface, its container/property data, and its concurrency budget.
// TryAcquire/Release are the only mutators of AvailableCores and are
// safe for concurrent use, matching §4.2's "mutated only by the
// coordinator thread" note generalized to a goroutine pool.
type Runtime struct {
	mu sync.Mutex

	Name            string
	ClientInterface string
	Properties      map[string]string
	Containers      map[string]map[string]string
	TargetProperty  string
	numOfCores      int
	availableCores  int
}

// NewRuntime builds a Runtime from a parsed manifest.Target.
func NewRuntime(t manifest.Target) *Runtime {
	return &Runtime{
		Name:            t.Name,
		ClientInterface: t.ClientInterface,
		Properties:      t.Properties,
		Containers:      t.Containers,
		TargetProperty:  t.TargetProperty,
		numOfCores:      t.NumOfCores,
		availableCores:  t.AvailableCores,
	}
}

// Address returns the target's network address.
func (r *Runtime) Address() string {
	return r.Properties[r.TargetProperty]
}

// TryAcquire is the non-blocking semaphore operation of §4.2: if a core
// is free it is reserved and TryAcquire returns true; otherwise it
// returns false immediately without blocking.
func (r *Runtime) TryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.availableCores <= 0 {
		return false
	}
	r.availableCores--
	return true
}

// Release returns a core to the budget, capped at numOfCores.
func (r *Runtime) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.availableCores < r.numOfCores {
		r.availableCores++
	}
}

// AvailableCores reports the current budget, for metrics and tests.
func (r *Runtime) AvailableCores() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.availableCores
}

// NumOfCores reports the target's configured ceiling.
func (r *Runtime) NumOfCores() int {
	return r.numOfCores
}

// Registry is a concurrency-safe lookup of target Runtimes by name,
// grounded on the teacher's RWMutex-guarded service registry.
type Registry struct {
	mu      sync.RWMutex
	targets map[string]*Runtime
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[string]*Runtime)}
}

// Register adds a target's Runtime to the registry.
func (r *Registry) Register(rt *Runtime) error {
	if rt == nil {
		return fmt.Errorf("cannot register a nil target runtime")
	}
	if rt.Name == "" {
		return fmt.Errorf("target runtime has an empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.targets[rt.Name]; exists {
		return fmt.Errorf("target %s already registered", rt.Name)
	}
	r.targets[rt.Name] = rt
	return nil
}

// Get returns the Runtime for name, if registered.
func (r *Registry) Get(name string) (*Runtime, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.targets[name]
	return rt, ok
}

// All returns every registered Runtime, in no particular order.
func (r *Registry) All() []*Runtime {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Runtime, 0, len(r.targets))
	for _, rt := range r.targets {
		out = append(out, rt)
	}
	return out
}

// NewRegistryFromManifest builds a Registry holding one Runtime per
// target declared in m.
func NewRegistryFromManifest(m *manifest.Manifest) *Registry {
	reg := NewRegistry()
	for _, t := range m.Targets {
		reg.Register(NewRuntime(t))
	}
	return reg
}
