// Package agent implements the on-target IPC surface of §4.10: it
// receives the verbs of §4.4, executes them locally (against the
// Dysnomia module named by --type, the snapshot store, or the package
// manager, depending on verb), appends each run's output to a per-job
// log file under a configurable log directory, and recovers its
// monotonic job-ID counter from that directory on startup.
package agent
