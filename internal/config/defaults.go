package config

import "os"

const (
	defaultProfile  = "default"
	defaultStateDir = "/var/state/dysnomia"
)

// DefaultConfig returns the configuration a coordinator falls back to
// when neither environment variables nor a YAML overlay set a field.
func DefaultConfig() CoordinatorConfig {
	return CoordinatorConfig{
		Profile:  defaultProfile,
		StateDir: defaultStateDir,
		TempDir:  os.TempDir(),
	}
}
