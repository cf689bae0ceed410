package detect

import "time"

// RateEstimator produces a windowed frames-per-second estimate. The
// first callback anchors the window; after that, every window callbacks
// it divides the window size by the elapsed wall-clock time and holds
// that value until the next window completes. It is a low-pass
// estimate, not an instantaneous one.
//
// Not safe for concurrent use on its own; the Reconciler guards it with
// its own mutex.
type RateEstimator struct {
	window      int
	count       int
	windowStart time.Time
	fps         float64
}

// NewRateEstimator creates an estimator recomputing every window ticks.
func NewRateEstimator(window int) *RateEstimator {
	if window < 1 {
		window = 1
	}
	return &RateEstimator{window: window}
}

// Tick records one processed callback.
func (r *RateEstimator) Tick() {
	r.tickAt(time.Now())
}

func (r *RateEstimator) tickAt(now time.Time) {
	if r.windowStart.IsZero() {
		// The first callback only anchors the window. Counting it would
		// divide window frames by window-1 intervals and overestimate
		// the rate of the first window.
		r.windowStart = now
		return
	}
	r.count++
	if r.count < r.window {
		return
	}
	elapsed := now.Sub(r.windowStart).Seconds()
	if elapsed > 0 {
		r.fps = float64(r.window) / elapsed
	}
	r.count = 0
	r.windowStart = now
}

// FPS returns the estimate from the most recently completed window, or
// zero before the first window completes.
func (r *RateEstimator) FPS() float64 {
	return r.fps
}
