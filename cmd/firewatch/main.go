// Firewatch - fire sentry turret
//
// Sweeps a camera turret through 0-180°, runs asynchronous object
// detection on captured frames, and locks the sweep the moment a target
// detection is centered in the frame. Live feedback goes to a preview
// window and a web dashboard.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gocv.io/x/gocv"

	"github.com/firewatchbot/go-firewatch/internal/config"
	"github.com/firewatchbot/go-firewatch/internal/log"
	"github.com/firewatchbot/go-firewatch/pkg/camera"
	"github.com/firewatchbot/go-firewatch/pkg/debug"
	"github.com/firewatchbot/go-firewatch/pkg/detect"
	"github.com/firewatchbot/go-firewatch/pkg/overlay"
	"github.com/firewatchbot/go-firewatch/pkg/sweep"
	"github.com/firewatchbot/go-firewatch/pkg/target"
	"github.com/firewatchbot/go-firewatch/pkg/web"
)

const escKey = 27

// Capture failure policy: back off briefly on a miss so a flaky device
// does not busy-spin the loop, and give up once the device looks dead.
const (
	captureRetryDelay = 250 * time.Millisecond
	captureMissLimit  = 40
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log.Init(cfg.LogLevel, cfg.LogFile)
	debug.Enabled = cfg.LogLevel == "debug"
	debug.Detections = debug.Enabled || cfg.DebugDetections

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Detector failure is fatal before the loop starts
	backend, err := detect.NewYOLO(detect.Config{
		ModelPath:      cfg.ModelPath,
		ScoreThreshold: float32(cfg.ScoreThreshold),
		NMSThreshold:   0.45,
		MaxResults:     cfg.MaxResults,
		InputWidth:     640,
		InputHeight:    640,
	})
	if err != nil {
		log.Error("detector initialization failed", "error", err)
		os.Exit(1)
	}

	cam, err := camera.Open(camera.Config{
		Index:    cfg.CameraIndex,
		Width:    cfg.FrameWidth,
		Height:   cfg.FrameHeight,
		FlipCode: cfg.FlipCode,
	})
	if err != nil {
		backend.Close()
		log.Error("camera initialization failed", "error", err)
		os.Exit(1)
	}

	rec := detect.NewReconciler(cfg.MaxPending, cfg.FPSWindow)
	pipe := detect.NewPipeline(backend, rec.Deliver)
	pipe.Start(ctx)

	ctrl := sweep.NewController(buildServo(cfg.ServoURL), cfg.SweepStep, cfg.SettleDelay)
	zone := target.Zone{Min: cfg.ZoneMin, Max: cfg.ZoneMax}
	eval := target.NewEvaluator(zone, cfg.TargetLabel)
	rend := overlay.NewRenderer(zone)

	var srv *web.Server
	if cfg.DashboardPort != "" {
		srv = web.NewServer(cfg.DashboardPort)
		srv.OnReset = ctrl.Reset
		srv.StartAsync()
	}

	var window *gocv.Window
	if !cfg.Headless {
		window = gocv.NewWindow("Firewatch")
	}

	log.Info("sentry started",
		"model", cfg.ModelPath,
		"target", cfg.TargetLabel,
		"step", cfg.SweepStep,
		"zone_min", cfg.ZoneMin,
		"zone_max", cfg.ZoneMax)

	run(ctx, stop, loopDeps{
		cfg:    cfg,
		cam:    cam,
		pipe:   pipe,
		rec:    rec,
		eval:   eval,
		ctrl:   ctrl,
		rend:   rend,
		srv:    srv,
		window: window,
	})

	shutdown(cam, pipe, ctrl, srv, window)
}

type loopDeps struct {
	cfg    *config.Config
	cam    *camera.Source
	pipe   *detect.Pipeline
	rec    *detect.Reconciler
	eval   *target.Evaluator
	ctrl   *sweep.Controller
	rend   *overlay.Renderer
	srv    *web.Server
	window *gocv.Window
}

// run is the synchronous perception-to-actuation loop, paced by the
// camera: capture, submit, drain, evaluate, actuate, render.
func run(ctx context.Context, stop context.CancelFunc, d loopDeps) {
	img := gocv.NewMat()
	defer img.Close()

	// lastResult is whatever the reconciler most recently handed over;
	// it may lag the frame on screen by one or more inference cycles.
	var lastResult detect.Result
	var lastAssessment target.Assessment

	watchdog := camera.NewWatchdog(captureMissLimit)

	for ctx.Err() == nil {
		// Recoverable: a dropped frame skips the whole tick. The sweep
		// does not advance either - step and capture are coupled only
		// in timing, so a capture miss must not distort the sweep.
		if ok := d.cam.Read(&img); !ok {
			if watchdog.Miss() {
				log.Error("camera produced no frames, giving up", "misses", d.cam.Misses())
				stop()
				return
			}
			log.Warn("frame capture failed, skipping tick", "misses", d.cam.Misses())
			time.Sleep(captureRetryDelay)
			continue
		}
		watchdog.Ok()

		d.pipe.Submit(img, time.Now())

		halt := false
		if res, ok := d.rec.Take(); ok {
			lastResult = res
			lastAssessment = d.eval.Evaluate(res, d.cfg.FrameWidth, d.cfg.FrameHeight)
			halt = lastAssessment.Halt

			if halt && d.ctrl.State().Running {
				st := d.ctrl.State()
				if d.srv != nil && lastAssessment.Trigger != nil {
					d.srv.AddHaltEvent(st.Angle, *lastAssessment.Trigger)
				}
			}
		}

		if err := d.ctrl.Tick(halt); err != nil {
			// The machine advanced; only the write failed. Keep looping.
			log.Warn("servo write failed", "error", err)
		}

		st := d.ctrl.State()
		d.rend.Draw(&img, overlay.Frame{
			Result:     lastResult,
			Assessment: lastAssessment,
			Sweep:      st,
			FPS:        d.rec.FPS(),
			Dropped:    d.rec.Dropped(),
		})

		if d.srv != nil {
			publish(d.srv, d.rec, d.pipe, d.cam, st, lastResult, d.cfg.TargetLabel, img)
		}

		if d.window != nil {
			d.window.IMShow(img)
			if d.window.WaitKey(1) == escKey {
				stop()
			}
		}
	}
}

// publish pushes the tick's state to the dashboard.
func publish(srv *web.Server, rec *detect.Reconciler, pipe *detect.Pipeline,
	cam *camera.Source, st sweep.State, res detect.Result, targetLabel string, img gocv.Mat) {

	srv.UpdateState(func(state *web.SentryState) {
		state.Angle = st.Angle
		state.Direction = st.Direction.String()
		state.Running = st.Running
		state.FPS = rec.FPS()
		state.DroppedResults = rec.Dropped()
		state.DroppedFrames = pipe.SubmitDropped() + cam.Misses()
		state.Detections = res.Detections
		state.TargetLabel = targetLabel
	})

	// JPEG encoding is not free; skip it when nobody is watching
	if srv.CameraClientCount() == 0 {
		return
	}
	buf, err := gocv.IMEncode(".jpg", img)
	if err != nil {
		return
	}
	srv.SendCameraFrame(buf.GetBytes())
	buf.Close()
}

// shutdown releases every collaborator deterministically, regardless of
// the state the actuator was left in.
func shutdown(cam *camera.Source, pipe *detect.Pipeline, ctrl *sweep.Controller,
	srv *web.Server, window *gocv.Window) {

	log.Info("shutting down")

	if err := pipe.Close(); err != nil {
		log.Warn("detector release failed", "error", err)
	}
	if err := cam.Close(); err != nil {
		log.Warn("camera release failed", "error", err)
	}
	if err := ctrl.Park(); err != nil {
		log.Warn("servo park failed", "error", err)
	}
	if window != nil {
		window.Close()
	}
	if srv != nil {
		srv.Shutdown()
	}
}

// buildServo picks a driver from the endpoint scheme.
func buildServo(url string) sweep.Servo {
	switch {
	case url == "":
		log.Info("no servo endpoint, running dry")
		return sweep.NopServo{}
	case strings.HasPrefix(url, "ws://"), strings.HasPrefix(url, "wss://"):
		return sweep.NewWSServo(url)
	default:
		return sweep.NewHTTPServo(url)
	}
}
