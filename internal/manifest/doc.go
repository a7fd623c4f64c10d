// Package manifest is the in-memory model of a deployment: the services
// that should run, the targets they run on, the mappings between them,
// and the snapshot mappings that track mutable state. It parses the XML
// manifest document, validates its invariants, and implements the set
// algebra (Intersect, Subtract, Unify, FindDependents) the transition
// engine builds its deactivation/activation sets from.
package manifest
