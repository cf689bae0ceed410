// Package camera wraps a local capture device for the sentry loop.
// It owns orientation correction, so every consumer downstream sees
// frames in the same layout.
package camera

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/firewatchbot/go-firewatch/internal/log"
)

// FlipNone disables orientation correction. The other valid codes are
// the gocv flip codes: 0 vertical, 1 horizontal, -1 both.
const FlipNone = 2

// Config holds capture device parameters.
type Config struct {
	Index    int `json:"index"`     // Device index
	Width    int `json:"width"`     // Frame width in pixels
	Height   int `json:"height"`    // Frame height in pixels
	FlipCode int `json:"flip_code"` // Orientation correction, FlipNone to disable
}

// DefaultConfig returns the standard 640x480 configuration the
// detection model is tuned for.
func DefaultConfig() Config {
	return Config{
		Index:    0,
		Width:    640,
		Height:   480,
		FlipCode: FlipNone,
	}
}

// Source is a live capture device. Not safe for concurrent use; the
// main loop is its only caller.
type Source struct {
	cap    *gocv.VideoCapture
	config Config
	misses uint64
}

// Open claims the capture device and applies the requested resolution.
// Failure to open the device is fatal for the sentry.
func Open(cfg Config) (*Source, error) {
	cap, err := gocv.OpenVideoCapture(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", cfg.Index, err)
	}

	cap.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	cap.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))

	log.Info("camera opened",
		"index", cfg.Index,
		"width", int(cap.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(cap.Get(gocv.VideoCaptureFrameHeight)))

	return &Source{cap: cap, config: cfg}, nil
}

// Config returns the configuration the source was opened with.
func (s *Source) Config() Config {
	return s.config
}

// Read blocks until the next frame is available and decodes it into
// dst, applying orientation correction. A false return means the frame
// was dropped; the caller should skip the tick, not abort.
func (s *Source) Read(dst *gocv.Mat) bool {
	if ok := s.cap.Read(dst); !ok || dst.Empty() {
		s.misses++
		return false
	}
	if s.config.FlipCode != FlipNone {
		gocv.Flip(*dst, dst, s.config.FlipCode)
	}
	return true
}

// Misses returns how many reads failed or produced an empty frame.
func (s *Source) Misses() uint64 {
	return s.misses
}

// Close releases the capture device.
func (s *Source) Close() error {
	return s.cap.Close()
}
