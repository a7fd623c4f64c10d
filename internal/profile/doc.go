// Package profile implements the bookkeeping of §4.9: after a
// successful transition, it records the newly active service set on
// every target and, independently, updates the coordinator-local
// marker that later runs consult when no old manifest is supplied.
package profile
