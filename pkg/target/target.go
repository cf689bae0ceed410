// Package target decides whether a detection counts as an acquired
// target. A detection is "centered" when its bounding-box centroid falls
// inside the configured center zone; any centered detection matching the
// target label raises the halt signal for that tick.
package target

import (
	"strings"

	"github.com/firewatchbot/go-firewatch/pkg/detect"
)

// Zone is a fractional window of the frame. A centroid (cx, cy) is
// inside when both coordinates lie within [Min, Max].
type Zone struct {
	Min float64
	Max float64
}

// DefaultZone covers the middle 20% of the frame along each axis.
func DefaultZone() Zone {
	return Zone{Min: 0.4, Max: 0.6}
}

// Contains reports whether a fractional centroid falls inside the zone.
// Bounds are inclusive so a centroid exactly on the edge still counts.
func (z Zone) Contains(cx, cy float64) bool {
	return cx >= z.Min && cx <= z.Max && cy >= z.Min && cy <= z.Max
}

// Assessment is the evaluator output for one tick.
type Assessment struct {
	// Halt is true when at least one qualifying detection is centered.
	Halt bool
	// Centered marks, per detection in the evaluated result, whether it
	// was classified centered. Indexed like Result.Detections.
	Centered []bool
	// Trigger is the detection that raised the halt signal, if any.
	Trigger *detect.Detection
}

// Evaluator classifies detections against a center zone.
type Evaluator struct {
	zone  Zone
	label string // Lowercased target label; "" matches any class
}

// NewEvaluator creates an evaluator. An empty label keeps the
// class-agnostic behavior: any centered detection halts the sweep.
func NewEvaluator(zone Zone, targetLabel string) *Evaluator {
	return &Evaluator{
		zone:  zone,
		label: strings.ToLower(targetLabel),
	}
}

// Zone returns the configured center zone.
func (e *Evaluator) Zone() Zone {
	return e.zone
}

// Evaluate inspects every detection in the result and derives the halt
// signal. frameWidth/frameHeight are the source-frame dimensions the
// bounding boxes are expressed in.
func (e *Evaluator) Evaluate(res detect.Result, frameWidth, frameHeight int) Assessment {
	out := Assessment{
		Centered: make([]bool, len(res.Detections)),
	}

	for i := range res.Detections {
		d := &res.Detections[i]
		cx, cy := d.Box.Centroid(frameWidth, frameHeight)
		if !e.zone.Contains(cx, cy) {
			continue
		}
		out.Centered[i] = true
		if !e.matches(d) {
			continue
		}
		if !out.Halt {
			out.Halt = true
			out.Trigger = d
		}
	}
	return out
}

// matches reports whether a detection's top category satisfies the
// label filter.
func (e *Evaluator) matches(d *detect.Detection) bool {
	if e.label == "" {
		return true
	}
	return strings.ToLower(d.Top().Label) == e.label
}
