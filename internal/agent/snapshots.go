package agent

import (
	"context"
	"strconv"
)

// SnapshotScope narrows a snapshot-store verb to one container/component.
type SnapshotScope struct {
	Container string
	Component string
}

func (s SnapshotScope) args() []string {
	if s.Container == "" || s.Component == "" {
		return nil
	}
	return []string{"--container", s.Container, "--component", s.Component}
}

// QueryAllSnapshots lists every snapshot ID for scope.
func (a *Agent) QueryAllSnapshots(ctx context.Context, scope SnapshotScope) (Result, error) {
	args := append([]string{"--query-all"}, scope.args()...)
	return a.runLocal(ctx, "query-all-snapshots", a.cfg.SnapshotsBin, args, nil)
}

// QueryLatestSnapshot lists the most recent snapshot ID for scope.
func (a *Agent) QueryLatestSnapshot(ctx context.Context, scope SnapshotScope) (Result, error) {
	args := append([]string{"--query-latest"}, scope.args()...)
	return a.runLocal(ctx, "query-latest-snapshot", a.cfg.SnapshotsBin, args, nil)
}

// PrintMissingSnapshots reports which of ids this target lacks.
func (a *Agent) PrintMissingSnapshots(ctx context.Context, ids []string) (Result, error) {
	args := append([]string{"--print-missing"}, ids...)
	return a.runLocal(ctx, "print-missing-snapshots", a.cfg.SnapshotsBin, args, nil)
}

// ResolveSnapshots converts ids to absolute store paths.
func (a *Agent) ResolveSnapshots(ctx context.Context, ids []string) (Result, error) {
	args := append([]string{"--resolve"}, ids...)
	return a.runLocal(ctx, "resolve-snapshots", a.cfg.SnapshotsBin, args, nil)
}

// ImportSnapshots records or transfers the snapshots at paths.
func (a *Agent) ImportSnapshots(ctx context.Context, remote bool, scope SnapshotScope, paths []string) (Result, error) {
	mode := "--local"
	if remote {
		mode = "--remote"
	}
	args := append([]string{"--import", mode}, scope.args()...)
	args = append(args, paths...)
	return a.runLocal(ctx, "import-snapshots", a.cfg.SnapshotsBin, args, nil)
}

// ExportSnapshots packages the snapshots at paths for transfer and
// returns their staged directory paths.
func (a *Agent) ExportSnapshots(ctx context.Context, paths []string) (Result, error) {
	args := append([]string{"--export"}, paths...)
	return a.runLocal(ctx, "export-snapshots", a.cfg.SnapshotsBin, args, nil)
}

// CleanSnapshots prunes generations beyond keep for scope.
func (a *Agent) CleanSnapshots(ctx context.Context, keep int, scope SnapshotScope) (Result, error) {
	args := append([]string{"--gc", "--keep", strconv.Itoa(keep)}, scope.args()...)
	return a.runLocal(ctx, "clean-snapshots", a.cfg.SnapshotsBin, args, nil)
}
