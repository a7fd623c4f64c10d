package agent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"garrison/pkg/logging"
	garrisonstrings "garrison/pkg/strings"
)

// Config names the local executables and directories an Agent
// delegates to.
type Config struct {
	// DysnomiaBin implements activate/deactivate/snapshot/restore/
	// delete-state/lock/unlock against a single module instance.
	DysnomiaBin string
	// SnapshotsBin implements the snapshot-store verbs: query-all/
	// query-latest/print-missing/resolve/import/export/clean.
	SnapshotsBin string
	// PackageManagementBin implements collect-garbage/set/
	// query-requisites and closure import/export.
	PackageManagementBin string
	// LogDir holds one file per job, named by job ID.
	LogDir string
	// TempDir holds profile lock files.
	TempDir string
	// ProfilesDir holds each profile's locally deployed manifest,
	// served verbatim by query-installed.
	ProfilesDir string
}

// Agent dispatches verbs locally and logs each run.
type Agent struct {
	cfg  Config
	jobs *JobCounter
}

// New builds an Agent, recovering its job counter from cfg.LogDir.
func New(cfg Config) (*Agent, error) {
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("agent: create log directory: %w", err)
	}
	jobs, err := NewJobCounter(cfg.LogDir)
	if err != nil {
		return nil, err
	}
	return &Agent{cfg: cfg, jobs: jobs}, nil
}

// Config returns the configuration the Agent was built with.
func (a *Agent) Config() Config {
	return a.cfg
}

// Result is what a dispatched job produced.
type Result struct {
	JobID   int
	Output  []byte
	LogPath string
}

// runLocal executes bin with args and env under a fresh job ID,
// appending combined stdout/stderr to that job's log file, and
// returns the captured stdout separately for verbs whose result is
// data (line-delimited IDs/paths) rather than a bare exit status.
func (a *Agent) runLocal(ctx context.Context, verb, bin string, args []string, env []string) (Result, error) {
	id := a.jobs.Next()
	logPath := LogPath(a.cfg.LogDir, id)

	logFile, err := os.Create(logPath)
	if err != nil {
		return Result{JobID: id}, fmt.Errorf("agent: create job log %q: %w", logPath, err)
	}
	defer logFile.Close()

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	if env != nil {
		cmd.Env = append(os.Environ(), env...)
	}
	cmd.Stdout = io.MultiWriter(&stdout, logFile)
	cmd.Stderr = logFile

	logging.Info("Agent", "job %d: %s %v", id, verb, args)
	err = cmd.Run()
	if err != nil {
		preview := garrisonstrings.TruncateDescription(stdout.String(), garrisonstrings.DefaultDescriptionMaxLen)
		logging.Error("Agent", err, "job %d: %s failed, output: %s", id, verb, preview)
	}

	return Result{JobID: id, Output: stdout.Bytes(), LogPath: logPath}, err
}

// Activate runs the Dysnomia activate operation.
func (a *Agent) Activate(ctx context.Context, m ActivationRequest) (Result, error) {
	return a.activationVerb(ctx, "activate", m)
}

// Deactivate runs the Dysnomia deactivate operation.
func (a *Agent) Deactivate(ctx context.Context, m ActivationRequest) (Result, error) {
	return a.activationVerb(ctx, "deactivate", m)
}

// Snapshot runs the Dysnomia snapshot operation.
func (a *Agent) Snapshot(ctx context.Context, m ActivationRequest) (Result, error) {
	return a.activationVerb(ctx, "snapshot", m)
}

// Restore runs the Dysnomia restore operation.
func (a *Agent) Restore(ctx context.Context, m ActivationRequest) (Result, error) {
	return a.activationVerb(ctx, "restore", m)
}

// DeleteState runs the Dysnomia delete-state operation.
func (a *Agent) DeleteState(ctx context.Context, m ActivationRequest) (Result, error) {
	return a.activationVerb(ctx, "delete-state", m)
}

// ActivationRequest carries what a single module invocation needs.
type ActivationRequest struct {
	Container string
	Type      string
	Package   string
	Arguments map[string]string
}

func (a *Agent) activationVerb(ctx context.Context, operation string, m ActivationRequest) (Result, error) {
	args := []string{"--operation", operation, "--type", m.Type, "--component", m.Package}
	env := make([]string, 0, len(m.Arguments))
	for k, v := range m.Arguments {
		env = append(env, k+"="+v)
	}
	return a.runLocal(ctx, operation, a.cfg.DysnomiaBin, args, env)
}

// QueryInstalled streams the profile's deployed-manifest bytes.
func (a *Agent) QueryInstalled(profile string) ([]byte, error) {
	path := a.cfg.ProfilesDir + "/" + profile
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("agent: read installed manifest for profile %q: %w", profile, err)
	}
	return data, nil
}

// CollectGarbage runs the package manager's garbage collector.
func (a *Agent) CollectGarbage(ctx context.Context) (Result, error) {
	return a.runLocal(ctx, "collect-garbage", a.cfg.PackageManagementBin, []string{"--collect-garbage"}, nil)
}

// SetProfile records profilePath as profile's active closure.
func (a *Agent) SetProfile(ctx context.Context, profile, profilePath string) (Result, error) {
	return a.runLocal(ctx, "set", a.cfg.PackageManagementBin, []string{"--set", "--profile", profile, profilePath}, nil)
}

// QueryRequisites returns path's closure, line-delimited.
func (a *Agent) QueryRequisites(ctx context.Context, path string) (Result, error) {
	return a.runLocal(ctx, "query-requisites", a.cfg.PackageManagementBin, []string{"--query-requisites", path}, nil)
}
