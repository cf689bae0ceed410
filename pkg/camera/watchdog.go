package camera

// Watchdog trips after too many consecutive failed reads. A transient
// glitch resets on the next good frame; a dead device reaches the limit
// and the loop can abort with a clear error instead of spinning.
type Watchdog struct {
	limit int
	run   int
}

// NewWatchdog creates a watchdog that trips after limit consecutive
// misses.
func NewWatchdog(limit int) *Watchdog {
	if limit < 1 {
		limit = 1
	}
	return &Watchdog{limit: limit}
}

// Ok records a successful read and clears the failure run.
func (w *Watchdog) Ok() {
	w.run = 0
}

// Miss records a failed read. It returns true when the consecutive
// failure count has reached the limit.
func (w *Watchdog) Miss() bool {
	w.run++
	return w.run >= w.limit
}

// Consecutive returns the current run of failed reads.
func (w *Watchdog) Consecutive() int {
	return w.run
}
