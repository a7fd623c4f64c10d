// Package invoke translates each core remote operation of §4.4 into an
// argument list for a target's clientInterface executable. Every verb
// here is a thin builder: it shapes arguments and returns an unstarted
// *exec.Cmd, leaving running, output capture, and bounding to the caller.
package invoke
