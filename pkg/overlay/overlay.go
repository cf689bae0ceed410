// Package overlay renders live feedback onto captured frames: frame
// rate, bounding boxes with confidence, the center zone, and a warning
// banner while the sweep is locked.
//
// The renderer is a pure consumer. It reads detection results, the
// evaluator's assessment and the sweep state, and writes pixels. It
// never mutates any of them.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/firewatchbot/go-firewatch/pkg/detect"
	"github.com/firewatchbot/go-firewatch/pkg/sweep"
	"github.com/firewatchbot/go-firewatch/pkg/target"
)

var (
	boxColor      = color.RGBA{R: 0, G: 200, B: 80, A: 255}
	centeredColor = color.RGBA{R: 255, G: 60, B: 60, A: 255}
	zoneColor     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	textColor     = color.RGBA{R: 240, G: 240, B: 240, A: 255}
	bannerColor   = color.RGBA{R: 180, G: 0, B: 0, A: 255}
)

// Frame is everything the renderer needs for one tick.
type Frame struct {
	Result     detect.Result     // Last drained detection result (may be stale)
	Assessment target.Assessment // Evaluation of Result
	Sweep      sweep.State
	FPS        float64
	Dropped    uint64 // Results discarded by the reconciler
}

// Renderer draws overlays onto BGR frames.
type Renderer struct {
	zone     target.Zone
	showZone bool
}

// NewRenderer creates a renderer that outlines the given center zone.
func NewRenderer(zone target.Zone) *Renderer {
	return &Renderer{zone: zone, showZone: true}
}

// Draw renders the full overlay onto img in place.
func (r *Renderer) Draw(img *gocv.Mat, f Frame) {
	w := img.Cols()
	h := img.Rows()
	if w == 0 || h == 0 {
		return
	}

	if r.showZone {
		zoneRect := image.Rect(
			int(r.zone.Min*float64(w)), int(r.zone.Min*float64(h)),
			int(r.zone.Max*float64(w)), int(r.zone.Max*float64(h)),
		)
		gocv.Rectangle(img, zoneRect, zoneColor, 1)
	}

	for i, d := range f.Result.Detections {
		col := boxColor
		if i < len(f.Assessment.Centered) && f.Assessment.Centered[i] {
			col = centeredColor
		}
		rect := image.Rect(
			int(d.Box.X), int(d.Box.Y),
			int(d.Box.X+d.Box.Width), int(d.Box.Y+d.Box.Height),
		)
		gocv.Rectangle(img, rect, col, 2)

		top := d.Top()
		label := fmt.Sprintf("%s %.0f%%", top.Label, top.Score*100)
		gocv.PutText(img, label,
			image.Pt(rect.Min.X, rect.Min.Y-6),
			gocv.FontHersheySimplex, 0.5, col, 1)
	}

	status := fmt.Sprintf("FPS: %.1f  angle: %.0f  %s", f.FPS, f.Sweep.Angle, sweepLabel(f.Sweep))
	if f.Dropped > 0 {
		status += fmt.Sprintf("  dropped: %d", f.Dropped)
	}
	gocv.PutText(img, status, image.Pt(10, 24), gocv.FontHersheySimplex, 0.6, textColor, 2)

	if f.Assessment.Halt || !f.Sweep.Running {
		r.drawBanner(img, w)
	}
}

// drawBanner paints the target-acquired warning across the top edge.
func (r *Renderer) drawBanner(img *gocv.Mat, w int) {
	banner := image.Rect(0, 36, w, 72)
	gocv.RectangleWithParams(img, banner, bannerColor, -1, gocv.Line8, 0)
	gocv.PutText(img, "!! TARGET LOCKED - SWEEP HALTED !!",
		image.Pt(12, 60), gocv.FontHersheySimplex, 0.7, textColor, 2)
}

func sweepLabel(st sweep.State) string {
	if !st.Running {
		return "HALTED"
	}
	return "sweeping " + st.Direction.String()
}
