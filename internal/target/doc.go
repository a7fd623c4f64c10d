// Package target holds the runtime handle for a single deployment
// target: its concurrency budget (NumOfCores/AvailableCores) and a
// concurrency-safe Registry the rest of the coordinator looks targets
// up through.
package target
