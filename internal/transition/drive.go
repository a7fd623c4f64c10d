package transition

import (
	"context"

	"garrison/internal/depgraph"
	"garrison/internal/manifest"
)

type completion struct {
	mapping *manifest.ServiceMapping
	err     error
}

// drive runs the traversal loop of §4.5 over set: scan for ready
// mappings, dispatch each whose target has budget, reap one completion
// at a time, apply the status transition, release the target's core.
// It repeats until set is fully resolved or no further progress is
// possible, returning errPhaseFailed if any completion failed — after
// draining every mapping already in flight, per the propagation policy
// of §7 (failures don't abort in-flight children).
//
// pending is the status a mapping must hold to be eligible for this
// pass (see depgraph.ReadyForActivation/ReadyForDeactivation); a
// mapping stays at that status while its operation is in flight, so
// drive also tracks dispatched keys itself and excludes them from the
// ready scan until their completion is reaped and applied — otherwise a
// re-scan after reaping any one completion would see the in-flight
// mapping's target core freed by rt.Release() and dispatch it a second
// time before its first invocation has even finished.
func (e *Engine) drive(ctx context.Context, set, context_ *manifest.MappingSet, services map[string]manifest.Service, activation bool, pending manifest.MappingStatus, op OperationFunc) error {
	completions := make(chan completion)
	inFlight := make(map[manifest.MappingKey]bool)
	failed := false

	for {
		var ready []*manifest.ServiceMapping
		if activation {
			ready = depgraph.ReadyForActivation(set, context_, services, pending)
		} else {
			ready = depgraph.ReadyForDeactivation(set, context_, services, pending)
		}

		dispatched := false
		if !failed {
			for _, m := range ready {
				if inFlight[m.Key()] {
					continue
				}
				rt, ok := e.Targets.Get(m.Target)
				if !ok {
					continue
				}
				if !rt.TryAcquire() {
					continue
				}
				dispatched = true
				inFlight[m.Key()] = true
				go func(m *manifest.ServiceMapping) {
					err := op(ctx, m)
					rt.Release()
					completions <- completion{mapping: m, err: err}
				}(m)
			}
		}

		if len(inFlight) == 0 {
			if failed || !dispatched {
				break
			}
			continue
		}

		c := <-completions
		delete(inFlight, c.mapping.Key())
		if c.err != nil {
			c.mapping.Status = manifest.StatusInError
			failed = true
			continue
		}
		if activation {
			c.mapping.Status = manifest.StatusActivated
		} else {
			c.mapping.Status = manifest.StatusDeactivated
		}
	}

	if failed {
		return errPhaseFailed
	}
	return nil
}
