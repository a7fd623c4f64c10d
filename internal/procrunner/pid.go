package procrunner

import (
	"context"
	"os/exec"

	"golang.org/x/sync/errgroup"
)

// execCommandContext is a seam over os/exec, swappable in tests the way
// the teacher's containerizer package swaps execCommandContext to
// substitute a fake executable.
var execCommandContext = exec.CommandContext

// PIDJob is a unit of work for a PIDIterator: a command to run and the
// index the caller uses to correlate its completion callback.
type PIDJob struct {
	Index int
	Cmd   *exec.Cmd
}

// PIDIterator spawns a bounded number of child processes concurrently
// and reports each one's exit status once it finishes. It never invokes
// the same job's command twice and never runs more commands in flight
// than its ConcurrencyMode allows.
type PIDIterator struct {
	mode ConcurrencyMode
}

// NewPIDIterator returns a PIDIterator bounded by mode.
func NewPIDIterator(mode ConcurrencyMode) *PIDIterator {
	return &PIDIterator{mode: mode}
}

// Run spawns every job in jobs, invoking onComplete(index, err) as each
// one finishes (err is nil on exit status 0). If ctx is cancelled before
// all jobs have been spawned, Run stops issuing new jobs, waits for the
// in-flight ones to finish, and returns context.Err().
func (p *PIDIterator) Run(ctx context.Context, jobs []PIDJob, onComplete func(index int, err error)) error {
	var g errgroup.Group
	g.SetLimit(p.mode.errgroupLimit())

	var cancelled error
	for _, job := range jobs {
		job := job
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
		default:
		}
		if cancelled != nil {
			break
		}

		g.Go(func() error {
			err := job.Cmd.Run()
			onComplete(job.Index, err)
			return nil
		})
	}

	_ = g.Wait()
	return cancelled
}
