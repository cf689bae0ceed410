// Package config provides configuration for the firewatch sentry loop.
//
// Values are resolved in order: built-in defaults, preset, environment
// variables (optionally loaded from a .env file), then command-line flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the capture/detect/sweep loop.
type Config struct {
	// Detector
	ModelPath      string  // Path to ONNX detection model
	MaxResults     int     // Keep at most this many detections per frame
	ScoreThreshold float64 // Drop detections below this confidence
	TargetLabel    string  // Only this class halts the sweep ("" = any class)

	// Camera
	CameraIndex int
	FrameWidth  int
	FrameHeight int
	FlipCode    int // gocv flip code for orientation correction (2 = none)

	// Center zone (fractional frame coordinates)
	ZoneMin float64
	ZoneMax float64

	// Sweep
	ServoURL    string        // http://, ws:// or empty for dry-run
	SweepStep   float64       // Degrees per tick
	SettleDelay time.Duration // Pause after each servo write

	// Reconciler
	FPSWindow  int // Recompute FPS every N detection callbacks
	MaxPending int // Bound on undrained detection results

	// Surfaces
	Headless      bool   // Disable the preview window
	DashboardPort string // Fiber dashboard port ("" = disabled)

	// Logging
	LogLevel        string
	LogFile         string
	DebugDetections bool // Per-frame detection logs, regardless of log level
}

// Default returns the recommended configuration for a 640x480 webcam
// on a standard hobby servo.
func Default() Config {
	return Config{
		ModelPath:      "models/fire.onnx",
		MaxResults:     3,
		ScoreThreshold: 0.25,
		TargetLabel:    "fire",

		CameraIndex: 0,
		FrameWidth:  640,
		FrameHeight: 480,
		FlipCode:    2,

		ZoneMin: 0.4,
		ZoneMax: 0.6,

		SweepStep:   1,
		SettleDelay: 30 * time.Millisecond,

		FPSWindow:  10,
		MaxPending: 16,

		DashboardPort: "8090",

		LogLevel: "info",
	}
}

// FastScan returns a configuration that sweeps quickly at the cost of a
// coarser angular resolution. Useful for large rooms.
func FastScan() Config {
	cfg := Default()
	cfg.SweepStep = 3
	cfg.SettleDelay = 15 * time.Millisecond
	return cfg
}

// FineScan returns a configuration for slow, high-resolution sweeps.
func FineScan() Config {
	cfg := Default()
	cfg.SweepStep = 0.5
	cfg.SettleDelay = 50 * time.Millisecond
	cfg.ScoreThreshold = 0.4
	return cfg
}

// presets maps -preset flag values to base configurations.
var presets = map[string]func() Config{
	"default":   Default,
	"fast-scan": FastScan,
	"fine-scan": FineScan,
}

// Parse builds a Config from command-line arguments.
// A .env file in the working directory is loaded first so flags can
// fall back to environment variables.
func Parse(args []string) (*Config, error) {
	// Missing .env is fine; only explicit files are required
	_ = godotenv.Load()

	base := Default()
	if name := os.Getenv("FIREWATCH_PRESET"); name != "" {
		p, ok := presets[name]
		if !ok {
			return nil, fmt.Errorf("unknown preset %q", name)
		}
		base = p()
	}

	// Dedicated FlagSet to avoid global flag conflicts in tests
	fs := flag.NewFlagSet("firewatch", flag.ContinueOnError)

	var (
		preset   = fs.String("preset", "", "Tuning preset: default, fast-scan or fine-scan")
		model    = fs.String("model", envStr("FIREWATCH_MODEL", base.ModelPath), "Path to ONNX detection model")
		maxRes   = fs.Int("max-results", base.MaxResults, "Maximum detections kept per frame")
		score    = fs.Float64("score-threshold", base.ScoreThreshold, "Minimum detection confidence")
		label    = fs.String("target-label", envStr("FIREWATCH_TARGET", base.TargetLabel), "Class that halts the sweep (empty = any)")
		camIdx   = fs.Int("camera", envInt("FIREWATCH_CAMERA", base.CameraIndex), "Camera device index")
		width    = fs.Int("width", base.FrameWidth, "Capture frame width")
		height   = fs.Int("height", base.FrameHeight, "Capture frame height")
		flip     = fs.Int("flip", base.FlipCode, "Orientation flip code: 0 vertical, 1 horizontal, -1 both, 2 none")
		zoneMin  = fs.Float64("zone-min", base.ZoneMin, "Center zone lower bound (fraction)")
		zoneMax  = fs.Float64("zone-max", base.ZoneMax, "Center zone upper bound (fraction)")
		servo    = fs.String("servo", envStr("FIREWATCH_SERVO", base.ServoURL), "Servo endpoint (http:// or ws://, empty = dry-run)")
		step     = fs.Float64("step", base.SweepStep, "Sweep step in degrees per tick")
		settle   = fs.Duration("settle", base.SettleDelay, "Servo settle delay after each write")
		fpsWin   = fs.Int("fps-window", base.FPSWindow, "Callbacks per FPS recomputation")
		pending  = fs.Int("max-pending", base.MaxPending, "Bound on undrained detection results")
		headless = fs.Bool("headless", base.Headless, "Disable the preview window")
		port     = fs.String("dashboard", envStr("FIREWATCH_DASHBOARD", base.DashboardPort), "Dashboard port (empty = disabled)")
		logLevel = fs.String("log-level", envStr("FIREWATCH_LOG_LEVEL", base.LogLevel), "Log level: debug, info, warn or error")
		logFile  = fs.String("log-file", base.LogFile, "Rotating log file path (empty = stdout only)")
		debugDet = fs.Bool("debug-detections", base.DebugDetections, "Very noisy per-frame detection logs")
	)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// -preset rebuilds the base, then explicit flags win
	if *preset != "" {
		p, ok := presets[*preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset %q", *preset)
		}
		pc := p()
		base = pc
		if !flagSet(fs, "step") {
			*step = pc.SweepStep
		}
		if !flagSet(fs, "settle") {
			*settle = pc.SettleDelay
		}
		if !flagSet(fs, "score-threshold") {
			*score = pc.ScoreThreshold
		}
	}

	cfg := &Config{
		ModelPath:       *model,
		MaxResults:      *maxRes,
		ScoreThreshold:  *score,
		TargetLabel:     *label,
		CameraIndex:     *camIdx,
		FrameWidth:      *width,
		FrameHeight:     *height,
		FlipCode:        *flip,
		ZoneMin:         *zoneMin,
		ZoneMax:         *zoneMax,
		ServoURL:        *servo,
		SweepStep:       *step,
		SettleDelay:     *settle,
		FPSWindow:       *fpsWin,
		MaxPending:      *pending,
		Headless:        *headless,
		DashboardPort:   *port,
		LogLevel:        *logLevel,
		LogFile:         *logFile,
		DebugDetections: *debugDet,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the loop cannot run with.
func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("model path is required")
	}
	if c.MaxResults < 1 {
		return fmt.Errorf("max-results must be at least 1")
	}
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return fmt.Errorf("score-threshold must be between 0.0 and 1.0")
	}
	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		return fmt.Errorf("frame dimensions must be positive")
	}
	if c.ZoneMin < 0 || c.ZoneMax > 1 || c.ZoneMin >= c.ZoneMax {
		return fmt.Errorf("center zone must satisfy 0 <= min < max <= 1")
	}
	if c.SweepStep <= 0 || c.SweepStep > 180 {
		return fmt.Errorf("step must be in (0, 180]")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay cannot be negative")
	}
	if c.FPSWindow < 1 {
		return fmt.Errorf("fps-window must be at least 1")
	}
	if c.MaxPending < 1 {
		return fmt.Errorf("max-pending must be at least 1")
	}
	switch c.FlipCode {
	case -1, 0, 1, 2:
	default:
		return fmt.Errorf("flip must be one of -1, 0, 1, 2")
	}
	return nil
}

// flagSet reports whether a flag was explicitly provided.
func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// envStr returns the environment value for key, or def if unset.
func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt returns the integer environment value for key, or def if
// unset or unparseable.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
