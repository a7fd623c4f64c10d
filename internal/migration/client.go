package migration

import (
	"context"
	"os/exec"
	"strings"

	"garrison/internal/invoke"
)

// ClientInterface is the subset of the remote invocation layer the
// migration pipeline needs on a single target. Accepting this as an
// interface rather than a concrete type keeps the pipeline testable
// without spawning real clientInterface subprocesses.
type ClientInterface interface {
	Snapshot(ctx context.Context, m invoke.Mapping) error
	Restore(ctx context.Context, m invoke.Mapping) error
	DeleteState(ctx context.Context, m invoke.Mapping) error
	QueryLatestSnapshot(ctx context.Context, scope invoke.SnapshotScope) ([]string, error)
	QueryAllSnapshots(ctx context.Context, scope invoke.SnapshotScope) ([]string, error)
	PrintMissingSnapshots(ctx context.Context, ids []string) ([]string, error)
	ResolveSnapshots(ctx context.Context, ids []string) ([]string, error)
	ImportSnapshots(ctx context.Context, mode invoke.ImportMode, container, component string, paths []string) error
	ExportSnapshots(ctx context.Context, paths []string) ([]string, error)
	CleanSnapshots(ctx context.Context, keep int, scope invoke.SnapshotScope) error
}

// ProcessClient is the real ClientInterface, spawning the target's
// clientInterface executable for each verb via os/exec.
type ProcessClient struct {
	ClientInterfacePath string
	Target              string
}

func (p *ProcessClient) Snapshot(ctx context.Context, m invoke.Mapping) error {
	return run(invoke.Snapshot(ctx, p.ClientInterfacePath, m))
}

func (p *ProcessClient) Restore(ctx context.Context, m invoke.Mapping) error {
	return run(invoke.Restore(ctx, p.ClientInterfacePath, m))
}

func (p *ProcessClient) DeleteState(ctx context.Context, m invoke.Mapping) error {
	return run(invoke.DeleteState(ctx, p.ClientInterfacePath, m))
}

func (p *ProcessClient) QueryLatestSnapshot(ctx context.Context, scope invoke.SnapshotScope) ([]string, error) {
	return runLines(invoke.QueryLatestSnapshot(ctx, p.ClientInterfacePath, p.Target, scope))
}

func (p *ProcessClient) QueryAllSnapshots(ctx context.Context, scope invoke.SnapshotScope) ([]string, error) {
	return runLines(invoke.QueryAllSnapshots(ctx, p.ClientInterfacePath, p.Target, scope))
}

func (p *ProcessClient) PrintMissingSnapshots(ctx context.Context, ids []string) ([]string, error) {
	return runLines(invoke.PrintMissingSnapshots(ctx, p.ClientInterfacePath, p.Target, ids))
}

func (p *ProcessClient) ResolveSnapshots(ctx context.Context, ids []string) ([]string, error) {
	return runLines(invoke.ResolveSnapshots(ctx, p.ClientInterfacePath, p.Target, ids))
}

func (p *ProcessClient) ImportSnapshots(ctx context.Context, mode invoke.ImportMode, container, component string, paths []string) error {
	return run(invoke.ImportSnapshots(ctx, p.ClientInterfacePath, p.Target, mode, container, component, paths))
}

func (p *ProcessClient) ExportSnapshots(ctx context.Context, paths []string) ([]string, error) {
	return runLines(invoke.ExportSnapshots(ctx, p.ClientInterfacePath, p.Target, paths))
}

func (p *ProcessClient) CleanSnapshots(ctx context.Context, keep int, scope invoke.SnapshotScope) error {
	return run(invoke.CleanSnapshots(ctx, p.ClientInterfacePath, p.Target, keep, scope))
}

func run(cmd *exec.Cmd) error {
	return cmd.Run()
}

func runLines(cmd *exec.Cmd) ([]string, error) {
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	text := strings.TrimRight(string(out), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}
