// Package transition drives the deactivate-then-activate cycle of
// §4.6: it computes the deactivation, activation, and unified mapping
// sets from a pair of manifests, dispatches operations through
// depgraph's readiness queries and a target's concurrency budget, and
// rolls back on failure according to the four-outcome algorithm.
package transition
