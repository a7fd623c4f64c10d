package transition

import (
	"context"
	"errors"

	"garrison/internal/depgraph"
	"garrison/internal/manifest"
	"garrison/internal/target"
	"garrison/pkg/logging"
)

// Outcome is one of the four exhaustive results the engine can report.
// Each of the last three encodes a distinct operator-recovery procedure.
type Outcome int

const (
	Success Outcome = iota
	Failed
	NewRollbackFailed
	ObsoleteRollbackFailed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "Success"
	case Failed:
		return "Failed"
	case NewRollbackFailed:
		return "NewRollbackFailed"
	case ObsoleteRollbackFailed:
		return "ObsoleteRollbackFailed"
	default:
		return "Unknown"
	}
}

// Flags mirrors the transition engine's command-level switches.
type Flags struct {
	NoUpgrade  bool
	NoRollback bool
	DryRun     bool
}

// OperationFunc performs one verb (activate/deactivate) against a
// single mapping and reports its outcome.
type OperationFunc func(ctx context.Context, m *manifest.ServiceMapping) error

// FailureInjector lets a dry run simulate a specific mapping's
// activation or deactivation failing, so rollback paths are exercised
// without a real dry-run stub that always succeeds (§9 Open Question).
type FailureInjector func(verb string, m *manifest.ServiceMapping) error

var errPhaseFailed = errors.New("transition: phase failed")

// Engine drives one transition between two manifests.
type Engine struct {
	Services  map[string]manifest.Service
	Targets   *target.Registry
	Activate  OperationFunc
	Deactivate OperationFunc
	Injector  FailureInjector
}

// NewEngine builds an Engine whose Activate/Deactivate call the given
// real remote-verb functions. Pass Flags.DryRun to Run to swap those out
// for in-memory stubs instead.
func NewEngine(services map[string]manifest.Service, targets *target.Registry, activate, deactivate OperationFunc) *Engine {
	return &Engine{Services: services, Targets: targets, Activate: activate, Deactivate: deactivate}
}

// Run executes the transition from oldManifest (may be nil) to
// newManifest under flags, returning the exhaustive Outcome.
func (e *Engine) Run(ctx context.Context, newManifest, oldManifest *manifest.Manifest, flags Flags) (Outcome, error) {
	var deactivation, activation, unified, previous *manifest.MappingSet
	var services map[string]manifest.Service

	if flags.NoUpgrade || oldManifest == nil {
		deactivation = manifest.NewMappingSet()
		activation = newManifest.ServiceMappings
		unified = activation
		previous = nil
		services = newManifest.Services
	} else {
		intersection := manifest.Intersect(oldManifest.ServiceMappings, newManifest.ServiceMappings)
		deactivation = manifest.Subtract(oldManifest.ServiceMappings, intersection)
		activation = manifest.Subtract(newManifest.ServiceMappings, intersection)
		unified = manifest.Unify(oldManifest.ServiceMappings, newManifest.ServiceMappings)
		previous = oldManifest.ServiceMappings
		services = manifest.UnifyServices(oldManifest.Services, newManifest.Services)
	}

	activateFn, deactivateFn := e.Activate, e.Deactivate
	if flags.DryRun {
		activateFn = e.dryRunFn("activate")
		deactivateFn = e.dryRunFn("deactivate")
	}

	// Deactivation phase.
	if err := e.drive(ctx, deactivation, unified, services, false, manifest.StatusUnknown, deactivateFn); err != nil {
		logging.Error("Transition", err, "deactivation phase failed")
		if flags.NoRollback {
			return Failed, err
		}
		return e.rollbackFromDeactivation(ctx, previous, services, activateFn)
	}

	// Activation phase.
	if err := e.drive(ctx, activation, unified, services, true, manifest.StatusUnknown, activateFn); err != nil {
		logging.Error("Transition", err, "activation phase failed")
		if flags.NoRollback {
			return Failed, err
		}
		return e.rollbackFromActivation(ctx, activation, previous, services, activateFn, deactivateFn)
	}

	return Success, nil
}

// rollbackFromDeactivation undoes a failed deactivation phase. The
// mapping that failed to deactivate is still actually running (the
// deactivate op never took effect), so it's finalized to Activated
// rather than re-driven; every mapping that *did* successfully
// deactivate is re-activated by traversing previous gated on
// StatusDeactivated (§4.6 step 4).
func (e *Engine) rollbackFromDeactivation(ctx context.Context, previous *manifest.MappingSet, services map[string]manifest.Service, activateFn OperationFunc) (Outcome, error) {
	if previous == nil {
		return Failed, errPhaseFailed
	}
	finalizeInError(previous, manifest.StatusActivated)
	if err := e.drive(ctx, previous, previous, services, true, manifest.StatusDeactivated, activateFn); err != nil {
		return ObsoleteRollbackFailed, err
	}
	return Failed, errPhaseFailed
}

// rollbackFromActivation undoes a failed activation phase. The mapping
// that failed to activate never came up (the activate op never took
// effect), so it's finalized to Deactivated rather than re-driven;
// every mapping that *did* successfully activate is deactivated by
// traversing activation gated on StatusActivated. If an oldManifest
// exists, its mappings that were deactivated by the preceding
// (successful) deactivation phase are then re-activated the same way
// rollbackFromDeactivation does (§4.6 step 5).
func (e *Engine) rollbackFromActivation(ctx context.Context, activation, previous *manifest.MappingSet, services map[string]manifest.Service, activateFn, deactivateFn OperationFunc) (Outcome, error) {
	finalizeInError(activation, manifest.StatusDeactivated)
	if err := e.drive(ctx, activation, activation, services, false, manifest.StatusActivated, deactivateFn); err != nil {
		return NewRollbackFailed, err
	}
	if previous == nil {
		return Failed, errPhaseFailed
	}
	if err := e.drive(ctx, previous, previous, services, true, manifest.StatusDeactivated, activateFn); err != nil {
		return ObsoleteRollbackFailed, err
	}
	return Failed, errPhaseFailed
}

// finalizeInError sets every InError mapping in set directly to final,
// per §3's status-transition table (InError -> {Activated,
// Deactivated} during rollback normalization) — the failed operation
// never took effect, so the mapping's true state is whatever it was
// before that operation was attempted, not a pending state to re-drive.
func finalizeInError(set *manifest.MappingSet, final manifest.MappingStatus) {
	for _, m := range set.All() {
		if m.Status == manifest.StatusInError {
			m.Status = final
		}
	}
}

func (e *Engine) dryRunFn(verb string) OperationFunc {
	return func(ctx context.Context, m *manifest.ServiceMapping) error {
		if e.Injector != nil {
			return e.Injector(verb, m)
		}
		return nil
	}
}
