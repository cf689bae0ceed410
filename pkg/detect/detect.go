// Package detect provides asynchronous object detection for the sentry loop.
//
// A Pipeline owns a single inference worker: frames are submitted without
// blocking, results come back later through a callback in submission order.
// The Reconciler is the handoff point between that callback context and the
// synchronous main loop.
package detect

import (
	"sort"
	"time"
)

// BoundingBox is an axis-aligned box in source-frame pixel coordinates.
type BoundingBox struct {
	X      float64 // Origin x (left edge)
	Y      float64 // Origin y (top edge)
	Width  float64
	Height float64
}

// Centroid returns the box center in fractional frame coordinates (0-1).
func (b BoundingBox) Centroid(frameWidth, frameHeight int) (cx, cy float64) {
	if frameWidth <= 0 || frameHeight <= 0 {
		return 0, 0
	}
	return (b.X + b.Width/2) / float64(frameWidth),
		(b.Y + b.Height/2) / float64(frameHeight)
}

// Area returns the box area in square pixels.
func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// Category is a class label with its confidence score.
type Category struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Detection is one detected object: a bounding box plus a ranked list of
// candidate categories, highest score first.
type Detection struct {
	Box        BoundingBox `json:"box"`
	Categories []Category  `json:"categories"`
}

// Top returns the highest-ranked category, or a zero Category if the
// ranked list is empty.
func (d Detection) Top() Category {
	if len(d.Categories) == 0 {
		return Category{}
	}
	return d.Categories[0]
}

// Result is the output of one inference pass. Detections are ordered by
// descending top score. Timestamp is the capture time of the source frame,
// so consumers can judge how stale the result is.
type Result struct {
	Detections []Detection   `json:"detections"`
	Timestamp  time.Time     `json:"timestamp"`
	Latency    time.Duration `json:"latency"`
}

// SelectBest picks the strongest detection from a result.
// Priority: confidence 0.7, relative area 0.3.
func SelectBest(dets []Detection) *Detection {
	if len(dets) == 0 {
		return nil
	}
	if len(dets) == 1 {
		return &dets[0]
	}

	maxArea := 0.0
	for _, d := range dets {
		if a := d.Box.Area(); a > maxArea {
			maxArea = a
		}
	}

	bestScore := -1.0
	var best *Detection
	for i := range dets {
		score := dets[i].Top().Score * 0.7
		if maxArea > 0 {
			score += (dets[i].Box.Area() / maxArea) * 0.3
		}
		if score > bestScore {
			bestScore = score
			best = &dets[i]
		}
	}
	return best
}

// sortByScore orders detections by descending top score, in place.
func sortByScore(dets []Detection) {
	sort.SliceStable(dets, func(i, j int) bool {
		return dets[i].Top().Score > dets[j].Top().Score
	})
}
