package lock

import (
	"context"
	"os/exec"

	"garrison/internal/invoke"
)

// ClientInterface is the per-target lock/unlock surface the
// coordinator needs. On the real agent, Lock reads the profile's
// current manifest, locks every deployed service via Dysnomia, then
// exclusively creates the profile lock file; Unlock does the inverse
// (§4.10).
type ClientInterface interface {
	Lock(ctx context.Context, target, profile string) error
	Unlock(ctx context.Context, target, profile string) error
}

// ProcessClient is the real ClientInterface, invoking the target's
// clientInterface executable via os/exec.
type ProcessClient struct {
	ClientInterfacePath string
}

func (p *ProcessClient) Lock(ctx context.Context, target, profile string) error {
	return run(invoke.Lock(ctx, p.ClientInterfacePath, target, profile))
}

func (p *ProcessClient) Unlock(ctx context.Context, target, profile string) error {
	return run(invoke.Unlock(ctx, p.ClientInterfacePath, target, profile))
}

func run(cmd *exec.Cmd) error {
	return cmd.Run()
}
