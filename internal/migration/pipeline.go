package migration

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"garrison/internal/invoke"
	"garrison/internal/manifest"
	"garrison/pkg/logging"
)

// Mode selects how a batch of moves is driven through snapshot,
// transfer, and restore.
type Mode int

const (
	// BreadthFirst snapshots every move, then transfers every move,
	// then restores every move. It is the default; no restore starts
	// until every move has been snapshotted and transferred.
	BreadthFirst Mode = iota
	// DepthFirst drives each move through snapshot, transfer, and
	// restore before starting the next, trading parallelism for a
	// smaller coordinator staging footprint.
	DepthFirst
)

// Options configures a Pipeline run.
type Options struct {
	Mode Mode
	// All requests query-all-snapshots instead of query-latest-snapshot.
	All bool
	// TransferOnly skips the destination restore step.
	TransferOnly bool
	// DeleteState runs delete-state for dropped mappings after their
	// moves' restores complete.
	DeleteState bool
	// CoordinatorTarget is the target name whose ClientInterface is the
	// coordinator itself; resolve-snapshots against it never needs an
	// export/import round trip.
	CoordinatorTarget string
	// KeepSnapshots bounds clean-snapshots' retention; zero disables it.
	KeepSnapshots int
}

// Pipeline drives the state-migration pipeline of §4.7 across a set of
// per-target clients.
type Pipeline struct {
	Clients map[string]ClientInterface
	// Targets supplies each target's container property map, used to
	// flatten --arguments for the snapshot/restore/delete-state verbs.
	// A nil or missing entry yields an empty argument set.
	Targets map[string]manifest.Target
	Options Options
}

// NewPipeline builds a Pipeline against the given per-target clients.
func NewPipeline(clients map[string]ClientInterface, opts Options) *Pipeline {
	return &Pipeline{Clients: clients, Options: opts}
}

func (p *Pipeline) argumentsFor(targetName, container string) map[string]string {
	t, ok := p.Targets[targetName]
	if !ok {
		return nil
	}
	return t.Containers[container]
}

func (p *Pipeline) client(target string) (ClientInterface, error) {
	c, ok := p.Clients[target]
	if !ok {
		return nil, fmt.Errorf("migration: no client configured for target %q", target)
	}
	return c, nil
}

// Run drives every move according to p.Options.Mode, then deletes
// state for any mappings dropped entirely when DeleteState is set.
func (p *Pipeline) Run(ctx context.Context, moves []Move, dropped []*invoke.Mapping) error {
	switch p.Options.Mode {
	case DepthFirst:
		for _, mv := range moves {
			if err := p.runOne(ctx, mv); err != nil {
				return err
			}
		}
	default:
		if err := p.runBreadthFirst(ctx, moves); err != nil {
			return err
		}
	}

	if p.Options.DeleteState {
		for _, m := range dropped {
			source, err := p.client(m.Target)
			if err != nil {
				return err
			}
			if err := source.DeleteState(ctx, *m); err != nil {
				return fmt.Errorf("migration: delete-state %s/%s on %s: %w", m.Service, m.Container, m.Target, err)
			}
		}
	}

	return p.cleanUp(ctx, moves)
}

func (p *Pipeline) runBreadthFirst(ctx context.Context, moves []Move) error {
	for _, mv := range moves {
		if err := p.snapshot(ctx, mv); err != nil {
			return err
		}
	}
	ids := make(map[int][]string, len(moves))
	for i, mv := range moves {
		snapshotIDs, err := p.querySnapshots(ctx, mv)
		if err != nil {
			return err
		}
		ids[i] = snapshotIDs
	}
	for i, mv := range moves {
		if err := p.transfer(ctx, mv, ids[i]); err != nil {
			return err
		}
	}
	if !p.Options.TransferOnly {
		for _, mv := range moves {
			if err := p.restore(ctx, mv); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) runOne(ctx context.Context, mv Move) error {
	if err := p.snapshot(ctx, mv); err != nil {
		return err
	}
	ids, err := p.querySnapshots(ctx, mv)
	if err != nil {
		return err
	}
	if err := p.transfer(ctx, mv, ids); err != nil {
		return err
	}
	if !p.Options.TransferOnly {
		if err := p.restore(ctx, mv); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) snapshot(ctx context.Context, mv Move) error {
	source, err := p.client(mv.OldTarget)
	if err != nil {
		return err
	}
	m := invoke.Mapping{
		Service:   mv.Service,
		Container: mv.OldContainer,
		Target:    mv.OldTarget,
		Type:      mv.Type,
		Package:   mv.Package,
		Arguments: p.argumentsFor(mv.OldTarget, mv.OldContainer),
	}
	if err := source.Snapshot(ctx, m); err != nil {
		return fmt.Errorf("migration: snapshot %s on %s: %w", mv.Service, mv.OldTarget, err)
	}
	return nil
}

func (p *Pipeline) querySnapshots(ctx context.Context, mv Move) ([]string, error) {
	source, err := p.client(mv.OldTarget)
	if err != nil {
		return nil, err
	}
	scope := invoke.SnapshotScope{Container: mv.OldContainer, Component: mv.Component}
	var ids []string
	if p.Options.All {
		ids, err = source.QueryAllSnapshots(ctx, scope)
	} else {
		ids, err = source.QueryLatestSnapshot(ctx, scope)
	}
	if err != nil {
		return nil, fmt.Errorf("migration: query snapshots for %s on %s: %w", mv.Service, mv.OldTarget, err)
	}
	// Chronological order of the generation chain: content-addressed IDs
	// in this protocol are lexicographically ordered by generation.
	sort.Strings(ids)
	return ids, nil
}

// transfer runs the per-ID copy sub-protocol of §4.7 step 3, one
// snapshot ID at a time in chronological order, so a single (container,
// component) pair's generation chain imports in sequence.
func (p *Pipeline) transfer(ctx context.Context, mv Move, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	source, err := p.client(mv.OldTarget)
	if err != nil {
		return err
	}
	dest, err := p.client(mv.NewTarget)
	if err != nil {
		return err
	}

	stagingID := uuid.New().String()
	for _, id := range ids {
		missing, err := dest.PrintMissingSnapshots(ctx, []string{id})
		if err != nil {
			return fmt.Errorf("migration: print-missing-snapshots %s on %s: %w", id, mv.NewTarget, err)
		}

		if len(missing) == 0 {
			resolved, err := source.ResolveSnapshots(ctx, []string{id})
			if err != nil {
				return fmt.Errorf("migration: resolve-snapshots %s on %s: %w", id, mv.OldTarget, err)
			}
			if err := dest.ImportSnapshots(ctx, invoke.ImportRemote, mv.NewContainer, mv.Component, resolved); err != nil {
				return fmt.Errorf("migration: import-snapshots --remote %s on %s: %w", id, mv.NewTarget, err)
			}
			continue
		}

		resolved, err := source.ResolveSnapshots(ctx, missing)
		if err != nil {
			return fmt.Errorf("migration: resolve-snapshots %s on %s: %w", id, mv.OldTarget, err)
		}

		paths := resolved
		if mv.OldTarget != p.Options.CoordinatorTarget {
			paths, err = source.ExportSnapshots(ctx, resolved)
			if err != nil {
				return fmt.Errorf("migration: export-snapshots %s on %s: %w", id, mv.OldTarget, err)
			}
		}

		logging.Debug("Migration", "staging %s for %s/%s under %s", id, mv.Service, mv.Component, stagingID)
		if err := dest.ImportSnapshots(ctx, invoke.ImportLocal, mv.NewContainer, mv.Component, paths); err != nil {
			return fmt.Errorf("migration: import-snapshots --local %s on %s: %w", id, mv.NewTarget, err)
		}
	}
	return nil
}

func (p *Pipeline) restore(ctx context.Context, mv Move) error {
	dest, err := p.client(mv.NewTarget)
	if err != nil {
		return err
	}
	m := invoke.Mapping{
		Service:   mv.Service,
		Container: mv.NewContainer,
		Target:    mv.NewTarget,
		Type:      mv.Type,
		Package:   mv.Package,
		Arguments: p.argumentsFor(mv.NewTarget, mv.NewContainer),
	}
	if err := dest.Restore(ctx, m); err != nil {
		return fmt.Errorf("migration: restore %s on %s: %w", mv.Service, mv.NewTarget, err)
	}
	return nil
}

// cleanUp bounds snapshot storage on every target touched by moves, per
// step 6, when KeepSnapshots is configured.
func (p *Pipeline) cleanUp(ctx context.Context, moves []Move) error {
	if p.Options.KeepSnapshots <= 0 {
		return nil
	}
	touched := make(map[string]bool)
	for _, mv := range moves {
		touched[mv.OldTarget] = true
		touched[mv.NewTarget] = true
	}
	for target := range touched {
		client, err := p.client(target)
		if err != nil {
			return err
		}
		if err := client.CleanSnapshots(ctx, p.Options.KeepSnapshots, invoke.SnapshotScope{}); err != nil {
			return fmt.Errorf("migration: clean-snapshots on %s: %w", target, err)
		}
	}
	return nil
}
