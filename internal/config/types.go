package config

// CoordinatorConfig is the top-level configuration for a garrison
// coordinator process. Every field except MaxConcurrentTargets has an
// environment-variable source (see LoadConfig), and every field can be
// set by the optional YAML overlay; environment variables
// win when both are set, matching how Disnix's shell front-end treated
// its own environment as authoritative over a config file.
type CoordinatorConfig struct {
	// Profile names the deployment this coordinator operates against.
	// Source: GARRISON_PROFILE, default "default".
	Profile string `yaml:"profile,omitempty"`

	// StateDir is where Dysnomia-style state (snapshot generations,
	// container markers) is recorded on each target.
	// Source: GARRISON_STATE_DIR, default "/var/state/dysnomia".
	StateDir string `yaml:"stateDir,omitempty"`

	// TempDir is where garrison-agent creates its profile lock files.
	// The agent's per-job log files go under StateDir, not here.
	// Source: TMPDIR, default os.TempDir().
	TempDir string `yaml:"tempDir,omitempty"`

	// DeleteState, when true, tells the migration pipeline to remove
	// state belonging to mappings dropped from the new manifest instead
	// of merely leaving it orphaned.
	// Source: GARRISON_DELETE_STATE, default false.
	DeleteState bool `yaml:"deleteState,omitempty"`

	// MaxConcurrentTargets is checked by Validate (it must not be
	// negative) and is otherwise unused: neither the transition engine
	// nor the migration pipeline reads it, so it does not limit how many
	// targets they work on in parallel.
	// Source: none (YAML-only), default 0.
	MaxConcurrentTargets int `yaml:"maxConcurrentTargets,omitempty"`
}
