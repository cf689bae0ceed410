package detect

import (
	"context"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

// stubBackend returns canned results and can be gated to simulate slow
// inference.
type stubBackend struct {
	gate    chan struct{} // Detect blocks until a token arrives (nil = no gate)
	entered chan struct{} // Signaled when Detect begins (nil = ignored)

	mu     sync.Mutex
	closed bool
}

func (s *stubBackend) Detect(img gocv.Mat, capturedAt time.Time) (Result, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
	return Result{Timestamp: capturedAt}, nil
}

func (s *stubBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *stubBackend) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func testFrame(t *testing.T) gocv.Mat {
	t.Helper()
	return gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
}

func TestPipeline_DeliversInSubmissionOrder(t *testing.T) {
	results := make(chan Result, 16)
	backend := &stubBackend{}
	p := NewPipeline(backend, func(res Result) { results <- res })
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	frame := testFrame(t)
	defer frame.Close()

	t0 := time.Now()
	for i := 0; i < 5; i++ {
		ts := t0.Add(time.Duration(i) * time.Second)
		if !p.Submit(frame, ts) {
			t.Fatalf("Submit %d: dropped unexpectedly", i)
		}
		// Wait for the callback before submitting the next frame
		select {
		case res := <-results:
			if !res.Timestamp.Equal(ts) {
				t.Errorf("result %d: got timestamp %v, want %v", i, res.Timestamp, ts)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("result %d: timed out", i)
		}
	}
}

func TestPipeline_SubmitNeverBlocks(t *testing.T) {
	backend := &stubBackend{gate: make(chan struct{})}
	p := NewPipeline(backend, nil)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	frame := testFrame(t)
	defer frame.Close()

	// With the backend gated, the worker stalls on the first frame and
	// the channel holds the second. Everything after that must be
	// dropped, not block the caller.
	deadline := time.After(2 * time.Second)
	for i := 0; i < 10; i++ {
		done := make(chan bool, 1)
		go func() { done <- p.Submit(frame, time.Now()) }()
		select {
		case <-done:
		case <-deadline:
			t.Fatal("Submit blocked")
		}
	}

	if p.SubmitDropped() == 0 {
		t.Error("SubmitDropped: expected drops under saturation")
	}
	if p.Submitted() != 10 {
		t.Errorf("Submitted: got %d, want 10", p.Submitted())
	}

	close(backend.gate) // Release the worker
}

func TestPipeline_CloseReleasesBackend(t *testing.T) {
	backend := &stubBackend{}
	p := NewPipeline(backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !backend.isClosed() {
		t.Error("Close: backend not released")
	}
	// Idempotent
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

// Close must join the worker before releasing the backend: an inference
// that is already running when Close is called has to complete against
// a live backend.
func TestPipeline_CloseWaitsForInflightInference(t *testing.T) {
	backend := &stubBackend{
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	p := NewPipeline(backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	frame := testFrame(t)
	defer frame.Close()
	p.Submit(frame, time.Now())

	select {
	case <-backend.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never started inference")
	}

	closeDone := make(chan error, 1)
	go func() { closeDone <- p.Close() }()

	// With the worker parked inside Detect, Close must not have released
	// the backend yet
	time.Sleep(50 * time.Millisecond)
	if backend.isClosed() {
		t.Fatal("backend released during in-flight inference")
	}

	close(backend.gate)
	select {
	case err := <-closeDone:
		if err != nil {
			t.Fatalf("Close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after inference finished")
	}
	if !backend.isClosed() {
		t.Error("backend not released after Close")
	}
}

// Close on a never-started pipeline must not wait for a worker that
// does not exist.
func TestPipeline_CloseWithoutStart(t *testing.T) {
	backend := &stubBackend{}
	p := NewPipeline(backend, nil)

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !backend.isClosed() {
		t.Error("Close: backend not released")
	}
}
