package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"garrison/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	envProfile     = "GARRISON_PROFILE"
	envStateDir    = "GARRISON_STATE_DIR"
	envTempDir     = "TMPDIR"
	envDeleteState = "GARRISON_DELETE_STATE"
)

// LoadConfig builds a CoordinatorConfig by layering, in increasing order
// of precedence: built-in defaults, an optional YAML overlay read from
// overlayPath, and environment variables. overlayPath may be empty, in
// which case the YAML layer is skipped entirely.
func LoadConfig(overlayPath string) (CoordinatorConfig, error) {
	cfg := DefaultConfig()

	if overlayPath != "" {
		data, err := os.ReadFile(overlayPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logging.Info("ConfigLoader", "no overlay at %s, using defaults", overlayPath)
			} else {
				return CoordinatorConfig{}, fmt.Errorf("reading config overlay %s: %w", overlayPath, err)
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return CoordinatorConfig{}, fmt.Errorf("parsing config overlay %s: %w", overlayPath, err)
			}
			logging.Info("ConfigLoader", "loaded config overlay from %s", overlayPath)
		}
	}

	applyEnvOverrides(&cfg)

	if errs := cfg.Validate(); errs.HasErrors() {
		return CoordinatorConfig{}, errs
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *CoordinatorConfig) {
	if v, ok := os.LookupEnv(envProfile); ok && v != "" {
		cfg.Profile = v
	}
	if v, ok := os.LookupEnv(envStateDir); ok && v != "" {
		cfg.StateDir = v
	}
	if v, ok := os.LookupEnv(envTempDir); ok && v != "" {
		cfg.TempDir = v
	}
	if v, ok := os.LookupEnv(envDeleteState); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DeleteState = b
		} else {
			logging.Warn("ConfigLoader", "ignoring malformed %s=%q: %s", envDeleteState, v, err)
		}
	}
}

// Validate checks a CoordinatorConfig for structural problems, collecting
// every violation it finds rather than stopping at the first one.
func (c CoordinatorConfig) Validate() ValidationErrors {
	var errs ValidationErrors
	if err := ValidateRequired("profile", c.Profile, "coordinator config"); err != nil {
		errs.Add("profile", err.Error())
	}
	if err := ValidateRequired("stateDir", c.StateDir, "coordinator config"); err != nil {
		errs.Add("stateDir", err.Error())
	}
	if c.MaxConcurrentTargets < 0 {
		errs.Add("maxConcurrentTargets", "must not be negative")
	}
	return errs
}
