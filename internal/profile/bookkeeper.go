package profile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"garrison/pkg/logging"
)

// Flags mirrors the command-level switches that independently suppress
// either half of profile bookkeeping.
type Flags struct {
	NoTargetProfiles     bool
	NoCoordinatorProfile bool
}

// Bookkeeper commits the post-transition profile markers described in
// §4.9.
type Bookkeeper struct {
	Clients map[string]ClientInterface
	// CoordinatorProfileDir holds one marker per profile name, each a
	// symlink to the manifest file most recently deployed under it.
	CoordinatorProfileDir string
}

// NewBookkeeper builds a Bookkeeper against the given per-target
// clients and coordinator profile directory.
func NewBookkeeper(clients map[string]ClientInterface, coordinatorProfileDir string) *Bookkeeper {
	return &Bookkeeper{Clients: clients, CoordinatorProfileDir: coordinatorProfileDir}
}

// Commit records profile as the newly active deployment. mappings
// gives, for each target that should be updated, the intra-target
// closure path set --profile expects. Mirrors original_source's
// set_profiles: each half runs only if its flag allows it, and a
// target-profile failure skips the coordinator-profile update.
func (b *Bookkeeper) Commit(ctx context.Context, mappings map[string]string, profile, manifestPath string, flags Flags) error {
	if !flags.NoTargetProfiles {
		if err := b.setTargetProfiles(ctx, mappings, profile); err != nil {
			return err
		}
	}
	if !flags.NoCoordinatorProfile {
		if err := b.setCoordinatorProfile(profile, manifestPath); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bookkeeper) setTargetProfiles(ctx context.Context, mappings map[string]string, profile string) error {
	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	for target, profilePath := range mappings {
		client, ok := b.Clients[target]
		if !ok {
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("profile: no client configured for target %q", target)
			}
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func(name, path string, client ClientInterface) {
			defer wg.Done()
			logging.Info("Profile", "setting profile %s on target %s", profile, name)
			if err := client.SetProfile(ctx, name, profile, path); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("profile: set on %s: %w", name, err)
				}
				mu.Unlock()
			}
		}(target, profilePath, client)
	}
	wg.Wait()
	return firstErr
}

// setCoordinatorProfile atomically repoints
// CoordinatorProfileDir/profile at manifestPath: a new symlink is
// created alongside under a temporary name, then renamed over the
// marker so a reader never observes a missing or partially-written
// link.
func (b *Bookkeeper) setCoordinatorProfile(profile, manifestPath string) error {
	if err := os.MkdirAll(b.CoordinatorProfileDir, 0o755); err != nil {
		return fmt.Errorf("profile: create coordinator profile directory: %w", err)
	}

	marker := filepath.Join(b.CoordinatorProfileDir, profile)
	tmp := marker + ".tmp"
	_ = os.Remove(tmp)

	if err := os.Symlink(manifestPath, tmp); err != nil {
		return fmt.Errorf("profile: stage coordinator profile marker: %w", err)
	}
	if err := os.Rename(tmp, marker); err != nil {
		return fmt.Errorf("profile: commit coordinator profile marker: %w", err)
	}

	logging.Info("Profile", "coordinator profile %s now points at %s", profile, manifestPath)
	return nil
}

// CurrentManifest resolves the manifest path a later run without
// --old-manifest should treat as the deployed state for profile.
func (b *Bookkeeper) CurrentManifest(profile string) (string, error) {
	marker := filepath.Join(b.CoordinatorProfileDir, profile)
	target, err := os.Readlink(marker)
	if err != nil {
		return "", fmt.Errorf("profile: read coordinator profile marker %q: %w", profile, err)
	}
	return target, nil
}
