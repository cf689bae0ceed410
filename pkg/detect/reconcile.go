package detect

import "sync"

// Reconciler is the single handoff point between the inference callback
// context and the main loop. The callback appends with Deliver; the loop
// drains with Take. Both sides go through one mutex, so an append can
// never interleave with a drain in a way that loses or duplicates a
// result.
//
// Policy: Take keeps the first (oldest) pending result and discards the
// rest, counting them as dropped. The pending queue is bounded; on
// overflow the oldest entry is evicted and counted. Every discard shows
// up in Dropped.
type Reconciler struct {
	mu         sync.Mutex
	pending    []Result
	maxPending int

	delivered uint64
	dropped   uint64
	rate      *RateEstimator
}

// NewReconciler creates a reconciler with the given pending bound and
// FPS window.
func NewReconciler(maxPending, fpsWindow int) *Reconciler {
	if maxPending < 1 {
		maxPending = 1
	}
	return &Reconciler{
		maxPending: maxPending,
		rate:       NewRateEstimator(fpsWindow),
	}
}

// Deliver hands a result over from the callback context. Non-blocking
// beyond the mutex; never invoked concurrently with itself by the
// single-worker pipeline, but safe if a future backend grows workers.
func (r *Reconciler) Deliver(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pending) >= r.maxPending {
		// Evict the oldest pending entry
		r.pending = r.pending[1:]
		r.dropped++
	}
	r.pending = append(r.pending, res)
	r.delivered++
	r.rate.Tick()
}

// Take atomically drains the pending queue. It returns the oldest
// pending result; newer undrained results are discarded and counted as
// dropped, never merged. The second return is false when nothing was
// pending.
func (r *Reconciler) Take() (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pending) == 0 {
		return Result{}, false
	}

	first := r.pending[0]
	r.dropped += uint64(len(r.pending) - 1)
	r.pending = r.pending[:0]
	return first, true
}

// Pending returns how many results are currently waiting.
func (r *Reconciler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Delivered returns the total number of results received from the
// callback context.
func (r *Reconciler) Delivered() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delivered
}

// Dropped returns how many results were discarded without being
// consumed, across both overflow eviction and drain discards.
func (r *Reconciler) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// FPS returns the windowed callback rate estimate.
func (r *Reconciler) FPS() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rate.FPS()
}
