package invoke

import (
	"context"
	"os/exec"
	"sort"
	"strconv"
)

// Mapping carries what a verb builder needs to know about the service
// mapping it is acting on.
type Mapping struct {
	Service   string
	Container string
	Target    string
	Type      string
	Package   string
	// Arguments is the target's container-property map for Container,
	// flattened into --arguments K=V pairs (§4.4).
	Arguments map[string]string
}

func flattenArguments(props map[string]string) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, "--arguments", k+"="+props[k])
	}
	return out
}

func build(ctx context.Context, clientInterface string, args ...string) *exec.Cmd {
	return execCommandContext(ctx, clientInterface, args...)
}

var execCommandContext = exec.CommandContext

func activationArgs(m Mapping) []string {
	args := []string{"--target", m.Target, "--container", m.Container, "--type", m.Type}
	args = append(args, flattenArguments(m.Arguments)...)
	args = append(args, m.Package)
	return args
}

// Activate builds the "activate" invocation.
func Activate(ctx context.Context, clientInterface string, m Mapping) *exec.Cmd {
	return build(ctx, clientInterface, append([]string{"activate"}, activationArgs(m)...)...)
}

// Deactivate builds the "deactivate" invocation.
func Deactivate(ctx context.Context, clientInterface string, m Mapping) *exec.Cmd {
	return build(ctx, clientInterface, append([]string{"deactivate"}, activationArgs(m)...)...)
}

// Snapshot builds the "snapshot" invocation.
func Snapshot(ctx context.Context, clientInterface string, m Mapping) *exec.Cmd {
	return build(ctx, clientInterface, append([]string{"snapshot"}, activationArgs(m)...)...)
}

// Restore builds the "restore" invocation.
func Restore(ctx context.Context, clientInterface string, m Mapping) *exec.Cmd {
	return build(ctx, clientInterface, append([]string{"restore"}, activationArgs(m)...)...)
}

// DeleteState builds the "delete-state" invocation.
func DeleteState(ctx context.Context, clientInterface string, m Mapping) *exec.Cmd {
	return build(ctx, clientInterface, append([]string{"delete-state"}, activationArgs(m)...)...)
}

// Lock builds the "lock" invocation.
func Lock(ctx context.Context, clientInterface, target, profile string) *exec.Cmd {
	return build(ctx, clientInterface, "lock", "--target", target, "--profile", profile)
}

// Unlock builds the "unlock" invocation.
func Unlock(ctx context.Context, clientInterface, target, profile string) *exec.Cmd {
	return build(ctx, clientInterface, "unlock", "--target", target, "--profile", profile)
}

// SetProfile builds the "set" invocation that records profilePath as
// the target's newly active profile.
func SetProfile(ctx context.Context, clientInterface, target, profile, profilePath string) *exec.Cmd {
	return build(ctx, clientInterface, "set", "--target", target, "--profile", profile, profilePath)
}

// QueryRequisites builds the "query-requisites" invocation. Its result
// is line-delimited paths.
func QueryRequisites(ctx context.Context, clientInterface, target, path string) *exec.Cmd {
	return build(ctx, clientInterface, "query-requisites", "--target", target, path)
}

// SnapshotScope narrows query-all-snapshots/query-latest-snapshot/
// clean-snapshots to a single container/component, when both are set.
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

// QueryAllSnapshots builds "query-all-snapshots"; result is
// line-delimited snapshot IDs.
func QueryAllSnapshots(ctx context.Context, clientInterface, target string, scope SnapshotScope) *exec.Cmd {
	args := append([]string{"query-all-snapshots", "--target", target}, scope.args()...)
	return build(ctx, clientInterface, args...)
}

// QueryLatestSnapshot builds "query-latest-snapshot"; result is
// line-delimited snapshot IDs.
func QueryLatestSnapshot(ctx context.Context, clientInterface, target string, scope SnapshotScope) *exec.Cmd {
	args := append([]string{"query-latest-snapshot", "--target", target}, scope.args()...)
	return build(ctx, clientInterface, args...)
}

// PrintMissingSnapshots builds "print-missing-snapshots"; result is the
// subset of ids not present on target, line-delimited.
func PrintMissingSnapshots(ctx context.Context, clientInterface, target string, ids []string) *exec.Cmd {
	args := append([]string{"print-missing-snapshots", "--target", target}, ids...)
	return build(ctx, clientInterface, args...)
}

// ResolveSnapshots builds "resolve-snapshots"; result is line-delimited
// absolute paths for ids.
func ResolveSnapshots(ctx context.Context, clientInterface, target string, ids []string) *exec.Cmd {
	args := append([]string{"resolve-snapshots", "--target", target}, ids...)
	return build(ctx, clientInterface, args...)
}

// ImportMode selects whether import-snapshots transfers bytes (Local)
// or only records receipt of snapshots the destination already reported
// present (Remote), per §4.7 step 3.
type ImportMode string

const (
	ImportLocal  ImportMode = "--local"
	ImportRemote ImportMode = "--remote"
)

// ImportSnapshots builds "import-snapshots".
func ImportSnapshots(ctx context.Context, clientInterface, target string, mode ImportMode, container, component string, paths []string) *exec.Cmd {
	args := []string{"import-snapshots", "--target", target, string(mode), "--container", container, "--component", component}
	args = append(args, paths...)
	return build(ctx, clientInterface, args...)
}

// ExportSnapshots builds "export-snapshots"; result is line-delimited
// directory paths holding the exported snapshots.
func ExportSnapshots(ctx context.Context, clientInterface, target string, paths []string) *exec.Cmd {
	args := append([]string{"export-snapshots", "--target", target}, paths...)
	return build(ctx, clientInterface, args...)
}

// CleanSnapshots builds "clean-snapshots --keep N", bounding storage.
func CleanSnapshots(ctx context.Context, clientInterface, target string, keep int, scope SnapshotScope) *exec.Cmd {
	args := append([]string{"clean-snapshots", "--target", target, "--keep", strconv.Itoa(keep)}, scope.args()...)
	return build(ctx, clientInterface, args...)
}

// CopyClosure builds the closure-transfer invocation that moves a
// service's package store path onto a target ahead of activation, the
// pre-activation step the distilled spec leaves implicit but
// original_source's distribution path performs explicitly.
func CopyClosure(ctx context.Context, copyClosureBin, target, iface, path string, to bool) *exec.Cmd {
	direction := "--from"
	if to {
		direction = "--to"
	}
	return build(ctx, copyClosureBin, direction, "--target", target, "--interface", iface, path)
}
