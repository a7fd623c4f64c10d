package profile

import (
	"context"
	"os/exec"

	"garrison/internal/invoke"
)

// ClientInterface is the per-target profile-recording surface.
type ClientInterface interface {
	SetProfile(ctx context.Context, target, profile, profilePath string) error
}

// ProcessClient is the real ClientInterface, invoking the target's
// clientInterface executable via os/exec.
type ProcessClient struct {
	ClientInterfacePath string
}

func (p *ProcessClient) SetProfile(ctx context.Context, target, profile, profilePath string) error {
	return run(invoke.SetProfile(ctx, p.ClientInterfacePath, target, profile, profilePath))
}

func run(cmd *exec.Cmd) error {
	return cmd.Run()
}
