package agent

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
)

// deployedManifest is the minimal shape needed to enumerate the
// services a profile currently has deployed, read back from the
// profile manifest query-installed also serves.
type deployedManifest struct {
	Services []struct {
		Container string `xml:"container,attr"`
		Type      string `xml:"type,attr"`
		Component string `xml:"component,attr"`
	} `xml:"service"`
}

// Lock implements §4.10's lock verb: read the profile's current
// manifest, call Dysnomia lock on every deployed service, then
// exclusively create the profile lock file. Any failure along the way
// unwinds whatever succeeded before it, mirroring the all-or-nothing
// requirement of §4.8 at the single-target granularity this verb
// actually runs at.
func (a *Agent) Lock(ctx context.Context, profile string) error {
	services, err := a.deployedServices(profile)
	if err != nil {
		return err
	}

	locked := make([]deployedService, 0, len(services))
	for _, svc := range services {
		if _, err := a.runLocal(ctx, "lock", a.cfg.DysnomiaBin, []string{"--operation", "lock", "--type", svc.Type, "--component", svc.Component}, nil); err != nil {
			a.unlockServices(ctx, locked)
			return fmt.Errorf("agent: lock service %s: %w", svc.Component, err)
		}
		locked = append(locked, svc)
	}

	if _, err := AcquireProfileLock(a.cfg.TempDir, profile); err != nil {
		a.unlockServices(ctx, locked)
		return err
	}
	return nil
}

// Unlock implements §4.10's unlock verb: the inverse of Lock. It
// removes the profile lock file if present and always attempts to
// unlock every deployed service, even when no lock file was held.
func (a *Agent) Unlock(ctx context.Context, profile string) error {
	services, err := a.deployedServices(profile)
	if err != nil {
		return err
	}
	a.unlockServices(ctx, services)

	lockPath := profileLockPath(a.cfg.TempDir, profile)
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("agent: release profile lock %q: %w", lockPath, err)
	}
	return nil
}

type deployedService struct {
	Type      string
	Component string
}

func (a *Agent) deployedServices(profile string) ([]deployedService, error) {
	data, err := a.QueryInstalled(profile)
	if err != nil {
		return nil, err
	}
	var doc deployedManifest
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("agent: parse deployed manifest for profile %q: %w", profile, err)
	}
	out := make([]deployedService, 0, len(doc.Services))
	for _, s := range doc.Services {
		out = append(out, deployedService{Type: s.Type, Component: s.Component})
	}
	return out, nil
}

func (a *Agent) unlockServices(ctx context.Context, services []deployedService) {
	for _, svc := range services {
		if _, err := a.runLocal(ctx, "unlock", a.cfg.DysnomiaBin, []string{"--operation", "unlock", "--type", svc.Type, "--component", svc.Component}, nil); err != nil {
			// Best-effort: unlock continues across every service even
			// if one fails, per §4.8's unlock-is-always-attempted rule.
			continue
		}
	}
}

func profileLockPath(tmpDir, profile string) string {
	return fmt.Sprintf("%s/garrison-%s.lock", tmpDir, profile)
}
