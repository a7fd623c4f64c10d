// Package lock implements the distributed locking protocol of §4.8:
// acquiring a profile lock on every target in parallel, releasing
// every acquired lock again the moment any target fails or the
// acquisition is interrupted, and unlocking unconditionally on all
// targets during release regardless of individual failures.
package lock
