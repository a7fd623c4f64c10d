package procrunner

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"
)

func TestPIDIterator_RunsAllJobs(t *testing.T) {
	it := NewPIDIterator(Unbounded())

	var mu sync.Mutex
	results := make(map[int]error)

	jobs := []PIDJob{
		{Index: 0, Cmd: exec.Command("true")},
		{Index: 1, Cmd: exec.Command("false")},
		{Index: 2, Cmd: exec.Command("true")},
	}

	err := it.Run(context.Background(), jobs, func(index int, jobErr error) {
		mu.Lock()
		defer mu.Unlock()
		results[index] = jobErr
	})
	if err != nil {
		t.Fatalf("Run: %s", err)
	}

	if results[0] != nil {
		t.Errorf("job 0 (true): expected success, got %v", results[0])
	}
	if results[1] == nil {
		t.Errorf("job 1 (false): expected failure, got nil")
	}
	if results[2] != nil {
		t.Errorf("job 2 (true): expected success, got %v", results[2])
	}
}

func TestPIDIterator_RespectsLimit(t *testing.T) {
	it := NewPIDIterator(Limit(1))

	var mu sync.Mutex
	var maxConcurrent, current int

	jobs := make([]PIDJob, 5)
	for i := range jobs {
		jobs[i] = PIDJob{Index: i, Cmd: exec.Command("true")}
	}

	// onComplete runs inside the job's worker, so with Limit(1) no two
	// callbacks may overlap.
	err := it.Run(context.Background(), jobs, func(index int, jobErr error) {
		mu.Lock()
		current++
		if current > maxConcurrent {
			maxConcurrent = current
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		current--
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Run: %s", err)
	}
	if maxConcurrent != 1 {
		t.Fatalf("max concurrent jobs = %d, want 1", maxConcurrent)
	}
}

func TestFutureIterator_ParsesLines(t *testing.T) {
	it := NewFutureIterator(Unbounded())

	jobs := []FutureJob{
		{Index: 0, Cmd: exec.Command("printf", "a\nb\nc\n"), Kind: OutputLines},
	}

	var got FutureResult
	err := it.Run(context.Background(), jobs, func(index int, result FutureResult, jobErr error) {
		got = result
	})
	if err != nil {
		t.Fatalf("Run: %s", err)
	}
	if len(got.Lines) != 3 || got.Lines[0] != "a" || got.Lines[2] != "c" {
		t.Fatalf("unexpected lines: %v", got.Lines)
	}
}

func TestFutureIterator_ParsesString(t *testing.T) {
	it := NewFutureIterator(Unbounded())
	jobs := []FutureJob{{Index: 0, Cmd: exec.Command("printf", "  hello  "), Kind: OutputString}}

	var got FutureResult
	err := it.Run(context.Background(), jobs, func(index int, result FutureResult, jobErr error) {
		got = result
	})
	if err != nil {
		t.Fatalf("Run: %s", err)
	}
	if got.Text != "hello" {
		t.Fatalf("Text = %q, want %q", got.Text, "hello")
	}
}

func TestRun_CancelledBeforeSpawnReturnsContextError(t *testing.T) {
	it := NewPIDIterator(Unbounded())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []PIDJob{{Index: 0, Cmd: exec.Command("true")}}
	err := it.Run(ctx, jobs, func(index int, jobErr error) {
		t.Fatal("onComplete should not be called for an unspawned job")
	})
	if err == nil {
		t.Fatal("expected a context error")
	}
}
