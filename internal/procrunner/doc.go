// Package procrunner spawns a bounded number of child processes
// concurrently and reports their outcome through a completion callback,
// the producer/consumer pipeline the design notes describe as the
// replacement for a bespoke fork/wait-plus-pipe-read loop: a bounded
// pool of workers spawns subprograms while completions arrive for the
// caller to act on (update mapping status, release target budget).
//
// Two iterator shapes exist: PIDIterator for jobs where only the exit
// status matters, and FutureIterator for jobs whose stdout is captured
// and parsed into a typed result.
package procrunner
