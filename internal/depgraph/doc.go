// Package depgraph computes which mappings in a set are ready to
// process next, in the two traversal orders the transition engine
// needs: inter-dependency order for activation, and interdependent
// order for deactivation. Readiness is recomputed from each mapping's
// current Status on every call, so callers drive the scan-dispatch-reap
// loop of §4.5 themselves; this package only answers "what's ready now".
package depgraph
