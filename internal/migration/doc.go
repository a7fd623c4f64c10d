// Package migration implements the state-migration pipeline of §4.7:
// for every snapshot mapping whose service is moving to a different
// (container, target), it snapshots the source, discovers which
// snapshot generations the destination is missing, transfers them in
// chronological order, and restores on the destination. It supports
// both the default breadth-first mode (snapshot everything, then
// transfer everything, then restore everything) and a depth-first mode
// that takes less coordinator disk at the cost of parallelism.
package migration
