// Sweep-test exercises the sweep controller against a real servo
// endpoint without a camera or detector attached. Useful for bench
// calibration of step size and settle delay.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/firewatchbot/go-firewatch/internal/log"
	"github.com/firewatchbot/go-firewatch/pkg/sweep"
	"github.com/firewatchbot/go-firewatch/pkg/web"
)

func main() {
	servoURL := flag.String("servo", "", "Servo endpoint (http:// or ws://); empty runs dry")
	step := flag.Float64("step", 2, "Degrees per tick")
	settle := flag.Duration("settle", 50*time.Millisecond, "Delay after each write")
	ticks := flag.Int("ticks", 0, "Stop after this many ticks (0 runs until interrupted)")
	port := flag.String("port", "", "Dashboard port (empty disables the dashboard)")
	flag.Parse()

	log.Init("info", "")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrl := sweep.NewController(buildServo(*servoURL), *step, *settle)

	var srv *web.Server
	if *port != "" {
		srv = web.NewServer(*port)
		srv.OnReset = ctrl.Reset
		srv.StartAsync()
	}

	log.Info("sweep test started", "step", *step, "settle", *settle, "ticks", *ticks)

	for i := 0; ctx.Err() == nil && (*ticks == 0 || i < *ticks); i++ {
		if err := ctrl.Tick(false); err != nil {
			log.Warn("servo write failed", "error", err)
		}
		if srv != nil {
			srv.SweepState(ctrl.State())
		}
	}

	if err := ctrl.Park(); err != nil {
		log.Warn("servo park failed", "error", err)
	}
	st := ctrl.State()
	log.Info("sweep test finished", "ticks", ctrl.Ticks(), "angle", st.Angle)
	os.Exit(0)
}

func buildServo(url string) sweep.Servo {
	switch {
	case url == "":
		return sweep.NopServo{}
	case strings.HasPrefix(url, "ws://"), strings.HasPrefix(url, "wss://"):
		return sweep.NewWSServo(url)
	default:
		return sweep.NewHTTPServo(url)
	}
}
