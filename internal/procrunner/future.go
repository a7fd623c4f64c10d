package procrunner

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"
)

// OutputKind selects how a FutureJob's captured stdout is parsed into a
// FutureResult.
type OutputKind int

const (
	// OutputString trims surrounding whitespace from stdout and returns
	// it as a single string (e.g. a resolved store path).
	OutputString OutputKind = iota
	// OutputBytes returns stdout uninterpreted.
	OutputBytes
	// OutputLines splits stdout on newlines, dropping empty trailing
	// lines, for the line-delimited-ID/path results of §4.4.
	OutputLines
)

// FutureJob is a unit of work for a FutureIterator.
type FutureJob struct {
	Index int
	Cmd   *exec.Cmd
	Kind  OutputKind
}

// FutureResult is a FutureJob's parsed outcome.
type FutureResult struct {
	Kind  OutputKind
	Text  string
	Bytes []byte
	Lines []string
}

// FutureIterator spawns a bounded number of child processes
// concurrently, each with its stdout captured, and reports the parsed
// result once the child closes its output.
type FutureIterator struct {
	mode ConcurrencyMode
}

// NewFutureIterator returns a FutureIterator bounded by mode.
func NewFutureIterator(mode ConcurrencyMode) *FutureIterator {
	return &FutureIterator{mode: mode}
}

// Run spawns every job in jobs, invoking onComplete(index, result, err)
// as each one finishes. Cancellation behaves as PIDIterator.Run.
func (f *FutureIterator) Run(ctx context.Context, jobs []FutureJob, onComplete func(index int, result FutureResult, err error)) error {
	var g errgroup.Group
	g.SetLimit(f.mode.errgroupLimit())

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
			var out bytes.Buffer
			job.Cmd.Stdout = &out
			err := job.Cmd.Run()
			onComplete(job.Index, parseOutput(job.Kind, out.Bytes()), err)
			return nil
		})
	}

	_ = g.Wait()
	return cancelled
}

func parseOutput(kind OutputKind, raw []byte) FutureResult {
	switch kind {
	case OutputLines:
		text := strings.TrimRight(string(raw), "\n")
		var lines []string
		if text != "" {
			lines = strings.Split(text, "\n")
		}
		return FutureResult{Kind: kind, Lines: lines}
	case OutputBytes:
		return FutureResult{Kind: kind, Bytes: raw}
	default:
		return FutureResult{Kind: OutputString, Text: strings.TrimSpace(string(raw))}
	}
}
