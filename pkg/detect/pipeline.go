package detect

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/firewatchbot/go-firewatch/internal/log"
)

// Backend runs one synchronous inference pass. Implementations are used
// from a single pipeline worker at a time.
type Backend interface {
	Detect(img gocv.Mat, capturedAt time.Time) (Result, error)
	Close() error
}

// Callback receives completed results. It is invoked from the pipeline
// worker goroutine, concurrently with the submitting loop, so it must be
// fast and must not touch loop-owned state.
type Callback func(Result)

// job is one queued inference request. The Mat is a clone owned by the
// pipeline until the worker is done with it.
type job struct {
	img        gocv.Mat
	capturedAt time.Time
}

// Pipeline decouples frame submission from inference. Submission never
// blocks: if the worker is still busy with the previous frame, the new
// frame is dropped and counted. Results are delivered through the
// callback in submission order (single worker).
type Pipeline struct {
	backend Backend
	cb      Callback

	in        chan job
	submitted atomic.Uint64
	dropped   atomic.Uint64

	startOnce sync.Once
	closeOnce sync.Once
	started   atomic.Bool
	done      chan struct{}
	stopped   chan struct{}
}

// NewPipeline wires a backend to a result callback.
func NewPipeline(backend Backend, cb Callback) *Pipeline {
	return &Pipeline{
		backend: backend,
		cb:      cb,
		// Capacity 1: one frame may wait while one is inferred. Anything
		// beyond that would only add staleness, never throughput.
		in:      make(chan job, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start launches the inference worker. The worker exits when ctx is
// cancelled or Close is called.
func (p *Pipeline) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.started.Store(true)
		go p.run(ctx)
	})
}

// Submit queues a frame for inference and returns immediately.
// The frame is cloned; the caller keeps ownership of img and may reuse
// it on the next tick. Returns false if the frame was dropped because
// the worker is saturated.
func (p *Pipeline) Submit(img gocv.Mat, capturedAt time.Time) bool {
	p.submitted.Add(1)
	clone := img.Clone()
	select {
	case p.in <- job{img: clone, capturedAt: capturedAt}:
		return true
	default:
		clone.Close()
		p.dropped.Add(1)
		return false
	}
}

// SubmitDropped returns how many frames were discarded at submission
// because inference could not keep up.
func (p *Pipeline) SubmitDropped() uint64 {
	return p.dropped.Load()
}

// Submitted returns the total number of Submit calls.
func (p *Pipeline) Submitted() uint64 {
	return p.submitted.Load()
}

// Close stops the worker and releases the backend. Pending frames are
// discarded. Close waits for any in-flight inference to finish so the
// backend is never released while Detect is running. Safe to call more
// than once.
func (p *Pipeline) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		if p.started.Load() {
			<-p.stopped
		}
		err = p.backend.Close()
	})
	return err
}

func (p *Pipeline) run(ctx context.Context) {
	defer close(p.stopped)
	for {
		select {
		case <-ctx.Done():
			p.drainQueue()
			return
		case <-p.done:
			p.drainQueue()
			return
		case j := <-p.in:
			res, err := p.backend.Detect(j.img, j.capturedAt)
			j.img.Close()
			if err != nil {
				log.Warn("inference failed", "error", err)
				continue
			}
			if p.cb != nil {
				p.cb(res)
			}
		}
	}
}

// drainQueue releases Mats that were queued but never inferred.
func (p *Pipeline) drainQueue() {
	for {
		select {
		case j := <-p.in:
			j.img.Close()
		default:
			return
		}
	}
}
