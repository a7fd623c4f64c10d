// Command garrison-agent runs the on-target agent (internal/agent): it
// recovers its job counter from a log directory, notifies systemd it is
// ready, and blocks until signaled to stop. The actual remote-execution
// transport that delivers verbs to this process (SSH, D-Bus, or
// otherwise) is out of scope; this binary only owns process lifecycle
// and job bookkeeping on the target side of that transport.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"garrison/internal/agent"
	"garrison/internal/config"
	"garrison/pkg/logging"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "garrison-agent",
	Short:        "Run the on-target deployment agent",
	Args:         cobra.NoArgs,
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML configuration overlay")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	a, err := agent.New(agent.Config{
		DysnomiaBin:          "dysnomia",
		SnapshotsBin:         "dysnomia-snapshots",
		PackageManagementBin: "nix-package-management",
		LogDir:               cfg.StateDir + "/logs",
		TempDir:              cfg.TempDir,
		ProfilesDir:          cfg.StateDir + "/profiles",
	})
	if err != nil {
		return err
	}

	logging.Info("Agent", "recovered job counter from %s", a.Config().LogDir)
	agent.NotifyReady()
	logging.Info("Agent", "garrison-agent started, profile %q", cfg.Profile)

	watchdog := time.NewTicker(15 * time.Second)
	defer watchdog.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-stop:
			logging.Info("Agent", "garrison-agent shutting down")
			return nil
		case <-watchdog.C:
			agent.NotifyWatchdog()
		}
	}
}
