// Command garrisond runs one deployment transition between two
// manifests. It shows how an embedder wires the transition engine
// (internal/transition) to real remote client interfaces
// (internal/invoke) rather than the in-process stubs used by the
// engine's own tests; embedders link internal/* directly.
package main

import (
	"context"
	"fmt"
	"os"

	"os/exec"

	"garrison/internal/config"
	"garrison/internal/invoke"
	"garrison/internal/manifest"
	"garrison/internal/target"
	"garrison/internal/transition"
	"garrison/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	configPath string
	dryRun     bool
	noRollback bool
)

var rootCmd = &cobra.Command{
	Use:          "garrisond NEW_MANIFEST [OLD_MANIFEST]",
	Short:        "Run one deployment transition between two manifests",
	Args:         cobra.RangeArgs(1, 2),
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML configuration overlay")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "simulate the transition without invoking remote clients")
	rootCmd.Flags().BoolVar(&noRollback, "no-rollback", false, "leave a failed transition in place instead of rolling it back")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if _, err := config.LoadConfig(configPath); err != nil {
		return fmt.Errorf("garrisond: %w", err)
	}

	newManifest, err := loadManifest(args[0])
	if err != nil {
		return fmt.Errorf("garrisond: %w", err)
	}

	var oldManifest *manifest.Manifest
	if len(args) == 2 {
		oldManifest, err = loadManifest(args[1])
		if err != nil {
			return fmt.Errorf("garrisond: %w", err)
		}
	}

	targets := make(map[string]manifest.Target, len(newManifest.Targets))
	for name, t := range newManifest.Targets {
		targets[name] = t
	}
	if oldManifest != nil {
		for name, t := range oldManifest.Targets {
			if _, ok := targets[name]; !ok {
				targets[name] = t
			}
		}
	}

	registry := target.NewRegistry()
	for _, t := range targets {
		if err := registry.Register(target.NewRuntime(t)); err != nil {
			return fmt.Errorf("garrisond: %w", err)
		}
	}

	services := newManifest.Services
	if oldManifest != nil {
		services = manifest.UnifyServices(oldManifest.Services, newManifest.Services)
	}

	engine := transition.NewEngine(
		services,
		registry,
		remoteOperation(invoke.Activate, targets, services),
		remoteOperation(invoke.Deactivate, targets, services),
	)

	outcome, err := engine.Run(context.Background(), newManifest, oldManifest, transition.Flags{
		DryRun:     dryRun,
		NoRollback: noRollback,
		NoUpgrade:  oldManifest == nil,
	})
	logging.Info("Garrisond", "transition finished: %s", outcome)
	if err != nil {
		return fmt.Errorf("garrisond: %s: %w", outcome, err)
	}
	return nil
}

func loadManifest(path string) (*manifest.Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %q: %w", path, err)
	}
	defer f.Close()
	m, err := manifest.Load(f)
	if err != nil {
		return nil, fmt.Errorf("parse manifest %q: %w", path, err)
	}
	if errs := m.Validate(); errs.HasErrors() {
		return nil, fmt.Errorf("validate manifest %q: %w", path, errs)
	}
	return m, nil
}

// remoteOperation adapts a verb builder from internal/invoke into a
// transition.OperationFunc, looking up each mapping's target and
// service definition to fill in the invocation's Type/Package/Arguments.
func remoteOperation(build func(ctx context.Context, clientInterface string, m invoke.Mapping) *exec.Cmd, targets map[string]manifest.Target, services map[string]manifest.Service) transition.OperationFunc {
	return func(ctx context.Context, sm *manifest.ServiceMapping) error {
		t, ok := targets[sm.Target]
		if !ok {
			return fmt.Errorf("unknown target %q", sm.Target)
		}
		svc, ok := services[sm.Service]
		if !ok {
			return fmt.Errorf("unknown service %q", sm.Service)
		}
		cmd := build(ctx, t.ClientInterface, invoke.Mapping{
			Service:   sm.Service,
			Container: sm.Container,
			Target:    sm.Target,
			Type:      svc.Type,
			Package:   svc.Package,
			Arguments: t.Containers[sm.Container],
		})
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("%s on %s: %w: %s", svc.Type, sm.Target, err, out)
		}
		return nil
	}
}
