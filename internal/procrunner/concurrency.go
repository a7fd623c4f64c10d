package procrunner

// ConcurrencyMode bounds how many children an iterator keeps in flight
// at once. Use Unbounded to spawn everything before reaping, or
// Limit(n) to keep at most n children live, spawning a replacement as
// soon as one finishes.
type ConcurrencyMode struct {
	limit int
}

// Unbounded spawns all work immediately (parallel_unbounded in §4.3).
func Unbounded() ConcurrencyMode { return ConcurrencyMode{limit: -1} }

// Limit keeps at most n children running at once (parallel_limit(N)).
func Limit(n int) ConcurrencyMode {
	if n <= 0 {
		return Unbounded()
	}
	return ConcurrencyMode{limit: n}
}

// errgroupLimit returns the value to pass to errgroup.Group.SetLimit:
// negative disables the limit.
func (m ConcurrencyMode) errgroupLimit() int {
	return m.limit
}
