package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"garrison/pkg/logging"
)

// Coordinator drives the two-level locking protocol across a fleet of
// targets, each reachable through its own ClientInterface.
type Coordinator struct {
	Clients map[string]ClientInterface
}

// NewCoordinator builds a Coordinator against the given per-target
// clients.
func NewCoordinator(clients map[string]ClientInterface) *Coordinator {
	return &Coordinator{Clients: clients}
}

// Acquire locks profile on every target in parallel. If any target
// fails, or ctx is cancelled (the SIGINT-equivalent of §4.8) before
// every target reports success, every lock acquired so far is released
// again and Acquire returns the first failure. Release uses a
// background context so a cancelled ctx does not also abort the
// unwind.
func (c *Coordinator) Acquire(ctx context.Context, targets []string, profile string) error {
	var mu sync.Mutex
	var wg sync.WaitGroup
	acquired := make([]string, 0, len(targets))
	var firstErr error

	for _, t := range targets {
		client, ok := c.Clients[t]
		if !ok {
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("lock: no client configured for target %q", t)
			}
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func(name string, client ClientInterface) {
			defer wg.Done()
			logging.Info("Lock", "acquiring lock on profile %s at target %s", profile, name)
			if err := client.Lock(ctx, name, profile); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("lock: acquire on %s: %w", name, err)
				}
				mu.Unlock()
				return
			}
			mu.Lock()
			acquired = append(acquired, name)
			mu.Unlock()
		}(t, client)
	}
	wg.Wait()

	if firstErr == nil && ctx.Err() != nil {
		firstErr = fmt.Errorf("lock: acquisition interrupted: %w", ctx.Err())
	}

	if firstErr != nil {
		logging.Warn("Lock", "lock phase failed, unlocking %d acquired targets", len(acquired))
		if err := c.Release(context.Background(), acquired, profile); err != nil {
			logging.Error("Lock", err, "failed to unwind partially acquired locks")
		}
		return firstErr
	}

	return nil
}

// Release unlocks profile on every target, even if some fail; the
// returned error aggregates every target's failure via errors.Join.
func (c *Coordinator) Release(ctx context.Context, targets []string, profile string) error {
	var mu sync.Mutex
	var wg sync.WaitGroup
	var errs []error

	for _, t := range targets {
		client, ok := c.Clients[t]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(name string, client ClientInterface) {
			defer wg.Done()
			logging.Info("Lock", "releasing lock on profile %s at target %s", profile, name)
			if err := client.Unlock(ctx, name, profile); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("lock: release on %s: %w", name, err))
				mu.Unlock()
			}
		}(t, client)
	}
	wg.Wait()

	return errors.Join(errs...)
}
