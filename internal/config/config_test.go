package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_DefaultsWhenNoOverlay(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if cfg.Profile != defaultProfile {
		t.Errorf("Profile = %q, want %q", cfg.Profile, defaultProfile)
	}
	if cfg.StateDir != defaultStateDir {
		t.Errorf("StateDir = %q, want %q", cfg.StateDir, defaultStateDir)
	}
}

func TestLoadConfig_MissingOverlayFileIsNotAnError(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if cfg.Profile != defaultProfile {
		t.Errorf("Profile = %q, want %q", cfg.Profile, defaultProfile)
	}
}

func TestLoadConfig_OverlayOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garrison.yaml")
	content := []byte("profile: staging\nstateDir: /srv/state\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if cfg.Profile != "staging" {
		t.Errorf("Profile = %q, want %q", cfg.Profile, "staging")
	}
	if cfg.StateDir != "/srv/state" {
		t.Errorf("StateDir = %q, want %q", cfg.StateDir, "/srv/state")
	}
}

func TestLoadConfig_EnvOverridesOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garrison.yaml")
	if err := os.WriteFile(path, []byte("profile: staging\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(envProfile, "production")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if cfg.Profile != "production" {
		t.Errorf("Profile = %q, want %q (env should win)", cfg.Profile, "production")
	}
}

func TestLoadConfig_MalformedDeleteStateIgnored(t *testing.T) {
	t.Setenv(envDeleteState, "not-a-bool")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if cfg.DeleteState {
		t.Errorf("DeleteState should remain false when env value is malformed")
	}
}

func TestCoordinatorConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := CoordinatorConfig{MaxConcurrentTargets: -1}
	errs := cfg.Validate()
	if len(errs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d: %v", len(errs), errs)
	}
}
