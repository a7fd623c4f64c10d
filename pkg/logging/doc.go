// Package logging provides subsystem-tagged structured logging for garrison.
//
// Every call names the subsystem that produced it ("Manifest", "Target",
// "Transition", "Migration", "Lock", "Agent", ...) so log lines from a
// deployment run can be filtered per component. Output goes through
// log/slog; level filtering happens at the handler.
package logging
